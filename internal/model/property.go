package model

import (
	"fmt"
	"slices"
	"time"
)

// Risk is the qualitative risk bucket of a deal.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
	RiskAll    Risk = "all"
	RiskAny    Risk = "any" // Preference-only: no risk filter
)

// Category is the investment strategy a deal belongs to.
type Category string

const (
	CategoryCapRateArbitrage Category = "cap_rate_arbitrage"
	CategoryMispriced        Category = "mispriced"
	CategoryDistressed       Category = "distressed"
)

// AllCategories returns every known category in display order.
func AllCategories() []Category {
	return []Category{CategoryCapRateArbitrage, CategoryMispriced, CategoryDistressed}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryCapRateArbitrage, CategoryMispriced, CategoryDistressed:
		return true
	}
	return false
}

// DealStatus tracks a deal through the acquisition workflow.
type DealStatus string

const (
	DealStatusNew    DealStatus = "new"
	DealStatusReview DealStatus = "review"
	DealStatusOffer  DealStatus = "offer"
	DealStatusClosed DealStatus = "closed"
)

// Property is a single real-estate deal.
//
// Optional numeric fields are pointers: nil means unknown, while a non-nil
// zero is a known zero. CapRate is a fraction (0.075 = 7.5%); MarketCapRate
// and DiscountPct are percentages (7.5 = 7.5%).
type Property struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Company     string     `json:"company,omitempty" yaml:"company"`
	Address     string     `json:"address" yaml:"address"`
	City        string     `json:"city" yaml:"city"`
	State       string     `json:"state,omitempty" yaml:"state"`
	Country     string     `json:"country,omitempty" yaml:"country"`
	MarketID    string     `json:"marketId,omitempty" yaml:"market_id"`
	Currency    string     `json:"currency,omitempty" yaml:"currency"`
	Images      []string   `json:"images,omitempty" yaml:"images"`
	Description string     `json:"description,omitempty" yaml:"description"`
	Lat         float64    `json:"lat,omitempty" yaml:"lat"`
	Lng         float64    `json:"lng,omitempty" yaml:"lng"`
	Status      DealStatus `json:"status,omitempty" yaml:"status"`
	CreatedAt   time.Time  `json:"createdAt,omitzero" yaml:"created_at"`

	Price            float64  `json:"price" yaml:"price"`
	NOI              *float64 `json:"noi,omitempty" yaml:"noi"`
	CapRate          *float64 `json:"capRate,omitempty" yaml:"cap_rate"`
	MarketCapRate    *float64 `json:"marketCapRate,omitempty" yaml:"market_cap_rate"`
	AIEstimatedValue *float64 `json:"aiEstimatedValue,omitempty" yaml:"ai_estimated_value"`
	DiscountPct      *float64 `json:"discountPct,omitempty" yaml:"discount_pct"`

	Risk     Risk     `json:"risk" yaml:"risk"`
	Category Category `json:"category" yaml:"category"`

	Bedrooms  *int     `json:"bedrooms,omitempty" yaml:"bedrooms"`
	Bathrooms *float64 `json:"bathrooms,omitempty" yaml:"bathrooms"`
	Sqft      *float64 `json:"sqft,omitempty" yaml:"sqft"`
	YearBuilt *int     `json:"yearBuilt,omitempty" yaml:"year_built"`
}

// Ptr returns a pointer to v. Handy for optional Property fields.
func Ptr[T any](v T) *T {
	return &v
}

// Validate checks the fields every downstream stage relies on.
func (p *Property) Validate() error {
	if p.ID == "" {
		return &ValidationError{Field: "id", Message: "is required"}
	}
	if p.Price <= 0 {
		return &ValidationError{Field: "price", Message: fmt.Sprintf("must be > 0 (got %v) for property %s", p.Price, p.ID)}
	}
	if p.CapRate != nil && *p.CapRate < 0 {
		return &ValidationError{Field: "capRate", Message: fmt.Sprintf("must be non-negative (got %v) for property %s", *p.CapRate, p.ID)}
	}
	switch p.Risk {
	case "", RiskLow, RiskMedium, RiskHigh, RiskAll:
	default:
		return &ValidationError{Field: "risk", Message: fmt.Sprintf("unknown value %q for property %s", p.Risk, p.ID)}
	}
	if p.Category != "" && !p.Category.Valid() {
		return &ValidationError{Field: "category", Message: fmt.Sprintf("unknown value %q for property %s", p.Category, p.ID)}
	}
	return nil
}

// Clone returns a deep copy of p.
func (p Property) Clone() Property {
	c := p
	c.Images = slices.Clone(p.Images)
	c.NOI = clonePtr(p.NOI)
	c.CapRate = clonePtr(p.CapRate)
	c.MarketCapRate = clonePtr(p.MarketCapRate)
	c.AIEstimatedValue = clonePtr(p.AIEstimatedValue)
	c.DiscountPct = clonePtr(p.DiscountPct)
	c.Bedrooms = clonePtr(p.Bedrooms)
	c.Bathrooms = clonePtr(p.Bathrooms)
	c.Sqft = clonePtr(p.Sqft)
	c.YearBuilt = clonePtr(p.YearBuilt)
	return c
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// ValidateAll validates every property and fails on the first bad record.
func ValidateAll(props []Property) error {
	seen := make(map[string]struct{}, len(props))
	for i := range props {
		if err := props[i].Validate(); err != nil {
			return err
		}
		if _, dup := seen[props[i].ID]; dup {
			return &ValidationError{Field: "id", Message: fmt.Sprintf("duplicate id %s", props[i].ID)}
		}
		seen[props[i].ID] = struct{}{}
	}
	return nil
}
