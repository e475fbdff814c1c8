// Package enrich derives missing financial fields of a deal.
package enrich

import (
	"github.com/sells-group/dealboard/internal/config"
	"github.com/sells-group/dealboard/internal/model"
)

// Enrich returns a deep copy of p with derived fields filled in. Fields that
// are already present are never overwritten.
//
//  1. capRate = noi / price
//  2. discountPct = (aiEstimatedValue - price) / aiEstimatedValue * 100
//  3. aiEstimatedValue = noi / (marketCapRate / 100)
//  4. marketCapRate = cfg.MarketCapRateDefault
//
// Step 2 runs again after step 3 so a derived AI value also yields a discount.
func Enrich(p model.Property, cfg config.ScoringConfig) model.Property {
	out := p.Clone()
	defaultMCR := cfg.MarketCapRateDefault
	if defaultMCR <= 0 {
		defaultMCR = config.DefaultScoringConfig().MarketCapRateDefault
	}

	if out.CapRate == nil && out.NOI != nil && out.Price > 0 {
		out.CapRate = model.Ptr(*out.NOI / out.Price)
	}

	fillDiscount(&out)

	if out.AIEstimatedValue == nil && out.NOI != nil {
		mcr := defaultMCR
		if out.MarketCapRate != nil && *out.MarketCapRate > 0 {
			mcr = *out.MarketCapRate
		}
		out.AIEstimatedValue = model.Ptr(*out.NOI / (mcr / 100))
	}

	if out.MarketCapRate == nil {
		out.MarketCapRate = model.Ptr(defaultMCR)
	}

	fillDiscount(&out)

	return out
}

func fillDiscount(p *model.Property) {
	if p.DiscountPct != nil || p.AIEstimatedValue == nil || p.Price <= 0 {
		return
	}
	ai := *p.AIEstimatedValue
	if ai <= 0 {
		return
	}
	p.DiscountPct = model.Ptr(DiscountPct(ai, p.Price))
}

// DiscountPct is the percentage by which ai exceeds price.
func DiscountPct(ai, price float64) float64 {
	return (ai - price) / ai * 100
}

// EnrichAll enriches every property. The input slice is not modified.
func EnrichAll(props []model.Property, cfg config.ScoringConfig) []model.Property {
	out := make([]model.Property, len(props))
	for i := range props {
		out[i] = Enrich(props[i], cfg)
	}
	return out
}
