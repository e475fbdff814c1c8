// Package estimate produces a fair-value estimate for a single property.
package estimate

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sells-group/dealboard/internal/config"
	"github.com/sells-group/dealboard/internal/model"
)

// Estimation methods, most to least direct.
const (
	MethodNOI      = "noi_capitalization"
	MethodCapRate  = "cap_rate_reversal"
	MethodLocation = "location_multiplier"
)

// Estimate is the valuation returned by the estimation endpoint. CapRate,
// DiscountPct and MarketCapRate are percentages.
type Estimate struct {
	AIEstimatedValue float64  `json:"aiEstimatedValue"`
	CapRate          *float64 `json:"capRate"`
	DiscountPct      float64  `json:"discountPct"`
	MarketCapRate    float64  `json:"marketCapRate"`
	Method           string   `json:"method"`
}

// premiumCities get a location premium when nothing better is known.
var premiumCities = []string{"mumbai", "delhi", "bangalore", "new york", "san francisco", "london"}

// Value estimates fair value for p. Every figure is rounded to 2 decimal
// places. A provided AI value is ignored; the estimate always recomputes
// from NOI, then cap rate, then location.
func Value(p model.Property, cfg config.ScoringConfig) (*Estimate, error) {
	if p.Price <= 0 {
		return nil, &model.ValidationError{Field: "price", Message: "valid property price is required"}
	}

	mcr := cfg.MarketCapRateDefault
	if mcr <= 0 {
		mcr = config.DefaultScoringConfig().MarketCapRateDefault
	}
	if p.MarketCapRate != nil && *p.MarketCapRate > 0 {
		mcr = *p.MarketCapRate
	}

	// Cap rate in percent.
	var capPct *float64
	if p.CapRate != nil {
		capPct = model.Ptr(*p.CapRate * 100)
	}
	if p.NOI != nil && *p.NOI != 0 {
		capPct = model.Ptr(*p.NOI / p.Price * 100)
	}

	est := &Estimate{}
	var ai float64
	switch {
	case p.NOI != nil && *p.NOI != 0:
		ai = *p.NOI / (mcr / 100)
		est.Method = MethodNOI
	case capPct != nil && *capPct != 0:
		noi := p.Price * (*capPct / 100)
		ai = noi / (mcr / 100)
		est.Method = MethodCapRate
	default:
		ai = p.Price * LocationMultiplier(p)
		est.Method = MethodLocation
	}

	var discount float64
	if ai > 0 {
		discount = (ai - p.Price) / ai * 100
	}

	est.AIEstimatedValue = round2(ai)
	est.DiscountPct = round2(discount)
	est.MarketCapRate = round2(mcr)
	if capPct != nil && *capPct != 0 {
		est.CapRate = model.Ptr(round2(*capPct))
	}
	return est, nil
}

// LocationMultiplier adjusts price by city, age and size, clamped to [0.8, 1.4].
func LocationMultiplier(p model.Property) float64 {
	m := 1.0

	city := strings.ToLower(p.City)
	if city != "" {
		for _, pc := range premiumCities {
			if strings.Contains(city, pc) {
				m += 0.15
				break
			}
		}
	}

	if p.YearBuilt != nil {
		switch {
		case *p.YearBuilt > 2015:
			m += 0.1
		case *p.YearBuilt < 1990:
			m -= 0.05
		}
	}

	if p.Sqft != nil && *p.Sqft > 5000 {
		m += 0.08
	}

	return math.Max(0.8, math.Min(1.4, m))
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
