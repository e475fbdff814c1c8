package model

import (
	"fmt"
	"slices"
)

// DefaultMaxPrice is the upper bound of the permissive default price range.
const DefaultMaxPrice = 200_000_000

// UserPreferences is a user's deal filter. It is passed explicitly into every
// filter, sort and score call.
//
// MinCapRate is a fraction, MinDiscountPct a percentage. MaxRiskScore is
// stored for the dashboard but not applied by the filter.
type UserPreferences struct {
	PriceRange     [2]float64 `json:"priceRange"`
	MinCapRate     float64    `json:"minCapRate"`
	RiskLevel      Risk       `json:"riskLevel"`
	Categories     []Category `json:"categories"`
	Markets        []string   `json:"markets"`
	MinDiscountPct *float64   `json:"minDiscountPct,omitempty"`
	MaxRiskScore   *float64   `json:"maxRiskScore,omitempty"`
}

// DefaultPreferences returns the permissive starting filter.
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		PriceRange: [2]float64{0, DefaultMaxPrice},
		MinCapRate: 0,
		RiskLevel:  RiskAny,
		Categories: AllCategories(),
		Markets:    []string{},
	}
}

// RiskFilterActive reports whether the preferences restrict risk.
func (u *UserPreferences) RiskFilterActive() bool {
	return u.RiskLevel != "" && u.RiskLevel != RiskAny && u.RiskLevel != RiskAll
}

// HasCategory reports whether c is in the selected categories.
func (u *UserPreferences) HasCategory(c Category) bool {
	for _, sel := range u.Categories {
		if sel == c {
			return true
		}
	}
	return false
}

// Validate enforces the price range invariant and known enum values.
func (u *UserPreferences) Validate() error {
	if u.PriceRange[0] < 0 {
		return &ValidationError{Field: "priceRange", Message: fmt.Sprintf("minimum must be >= 0 (got %v)", u.PriceRange[0])}
	}
	if u.PriceRange[0] > u.PriceRange[1] {
		return &ValidationError{Field: "priceRange", Message: fmt.Sprintf("minimum %v exceeds maximum %v", u.PriceRange[0], u.PriceRange[1])}
	}
	if u.MinCapRate < 0 {
		return &ValidationError{Field: "minCapRate", Message: fmt.Sprintf("must be >= 0 (got %v)", u.MinCapRate)}
	}
	switch u.RiskLevel {
	case "", RiskLow, RiskMedium, RiskHigh, RiskAny, RiskAll:
	default:
		return &ValidationError{Field: "riskLevel", Message: fmt.Sprintf("unknown value %q", u.RiskLevel)}
	}
	for _, c := range u.Categories {
		if !c.Valid() {
			return &ValidationError{Field: "categories", Message: fmt.Sprintf("unknown value %q", c)}
		}
	}
	if u.MaxRiskScore != nil && *u.MaxRiskScore < 0 {
		return &ValidationError{Field: "maxRiskScore", Message: fmt.Sprintf("must be >= 0 (got %v)", *u.MaxRiskScore)}
	}
	return nil
}

// Clone returns a deep copy of u.
func (u UserPreferences) Clone() UserPreferences {
	c := u
	c.Categories = slices.Clone(u.Categories)
	c.Markets = slices.Clone(u.Markets)
	c.MinDiscountPct = clonePtr(u.MinDiscountPct)
	c.MaxRiskScore = clonePtr(u.MaxRiskScore)
	return c
}

// SetPriceRange replaces the price range. It refuses min > max.
func (u *UserPreferences) SetPriceRange(lo, hi float64) error {
	return u.mutate(func(n *UserPreferences) { n.PriceRange = [2]float64{lo, hi} })
}

// SetMinCapRate sets the minimum cap rate as a fraction.
func (u *UserPreferences) SetMinCapRate(v float64) error {
	return u.mutate(func(n *UserPreferences) { n.MinCapRate = v })
}

// SetRiskLevel sets the risk filter.
func (u *UserPreferences) SetRiskLevel(r Risk) error {
	return u.mutate(func(n *UserPreferences) { n.RiskLevel = r })
}

// SetCategories replaces the category set.
func (u *UserPreferences) SetCategories(cs []Category) error {
	return u.mutate(func(n *UserPreferences) { n.Categories = append([]Category{}, cs...) })
}

// SetMarkets replaces the market (city) set.
func (u *UserPreferences) SetMarkets(ms []string) error {
	return u.mutate(func(n *UserPreferences) { n.Markets = append([]string{}, ms...) })
}

// SetMinDiscountPct sets or clears (nil) the minimum discount percentage.
func (u *UserPreferences) SetMinDiscountPct(v *float64) error {
	return u.mutate(func(n *UserPreferences) { n.MinDiscountPct = clonePtr(v) })
}

// SetMaxRiskScore sets or clears (nil) the maximum risk score.
func (u *UserPreferences) SetMaxRiskScore(v *float64) error {
	return u.mutate(func(n *UserPreferences) { n.MaxRiskScore = clonePtr(v) })
}

// Reset restores the defaults.
func (u *UserPreferences) Reset() {
	*u = DefaultPreferences()
}

// PreferencesPatch is a partial update. Nil fields are left unchanged.
// ClearMinDiscountPct and ClearMaxRiskScore remove the optional limits.
type PreferencesPatch struct {
	PriceRange          *[2]float64 `json:"priceRange,omitempty"`
	MinCapRate          *float64    `json:"minCapRate,omitempty"`
	RiskLevel           *Risk       `json:"riskLevel,omitempty"`
	Categories          []Category  `json:"categories,omitempty"`
	Markets             []string    `json:"markets,omitempty"`
	MinDiscountPct      *float64    `json:"minDiscountPct,omitempty"`
	MaxRiskScore        *float64    `json:"maxRiskScore,omitempty"`
	ClearMinDiscountPct bool        `json:"clearMinDiscountPct,omitempty"`
	ClearMaxRiskScore   bool        `json:"clearMaxRiskScore,omitempty"`
}

// Apply merges the patch. Nothing changes if the merged result is invalid.
func (u *UserPreferences) Apply(p PreferencesPatch) error {
	return u.mutate(func(n *UserPreferences) {
		if p.PriceRange != nil {
			n.PriceRange = *p.PriceRange
		}
		if p.MinCapRate != nil {
			n.MinCapRate = *p.MinCapRate
		}
		if p.RiskLevel != nil {
			n.RiskLevel = *p.RiskLevel
		}
		if p.Categories != nil {
			n.Categories = append([]Category{}, p.Categories...)
		}
		if p.Markets != nil {
			n.Markets = append([]string{}, p.Markets...)
		}
		if p.MinDiscountPct != nil {
			n.MinDiscountPct = clonePtr(p.MinDiscountPct)
		}
		if p.ClearMinDiscountPct {
			n.MinDiscountPct = nil
		}
		if p.MaxRiskScore != nil {
			n.MaxRiskScore = clonePtr(p.MaxRiskScore)
		}
		if p.ClearMaxRiskScore {
			n.MaxRiskScore = nil
		}
	})
}

// mutate applies fn to a copy and commits it only if the copy validates.
func (u *UserPreferences) mutate(fn func(n *UserPreferences)) error {
	next := u.Clone()
	fn(&next)
	if err := next.Validate(); err != nil {
		return err
	}
	*u = next
	return nil
}
