// Package scoring implements the two deal scores: the preference-aware
// 0-1 profitability score and the market-only 0-100 deal-board score.
package scoring

import (
	"math"

	"github.com/sells-group/dealboard/internal/config"
	"github.com/sells-group/dealboard/internal/market"
	"github.com/sells-group/dealboard/internal/model"
)

// Where the resolved cap rate came from.
const (
	CapSourceExplicit = "cap_rate"
	CapSourceNOI      = "noi"
	CapSourceMarket   = "market_cap_rate"
	CapSourceLocation = "location_default"
	CapSourceGlobal   = "global_default"
)

// Where the resolved discount came from.
const (
	DiscountSourceAIValue   = "ai_value"
	DiscountSourcePct       = "discount_pct"
	DiscountSourceCapSpread = "cap_spread"
	DiscountSourceNone      = "none"
)

// Breakdown holds every intermediate signal of a profitability score.
type Breakdown struct {
	Cap            float64 `json:"cap"`
	CapSource      string  `json:"capSource"`
	CapNorm        float64 `json:"capNorm"`
	Discount       float64 `json:"discount"`
	DiscountSource string  `json:"discountSource"`
	DiscountNorm   float64 `json:"discountNorm"`
	RiskPenalty    float64 `json:"riskPenalty"`
	PrefBoost      float64 `json:"prefBoost"`
	QualityBonus   float64 `json:"qualityBonus"`
	CapWeight      float64 `json:"capWeight"`
	DiscountWeight float64 `json:"discountWeight"`
	Score          float64 `json:"score"`
}

// Profitability scores p in [0,1], rounded to 2 decimal places. prefs may be nil.
func Profitability(p model.Property, prefs *model.UserPreferences, cfg config.ScoringConfig) float64 {
	return Explain(p, prefs, cfg).Score
}

// Explain computes the profitability score and returns its breakdown.
func Explain(p model.Property, prefs *model.UserPreferences, cfg config.ScoringConfig) Breakdown {
	cfg = withDefaults(cfg)
	var b Breakdown

	b.Cap, b.CapSource = resolveCap(p, cfg)
	b.CapNorm = clamp(b.Cap/cfg.CapRateCeiling, 0, 1)

	b.Discount, b.DiscountSource = resolveDiscount(p, b.Cap)
	b.DiscountNorm = clamp((b.Discount+1)/2, 0, 1)

	b.RiskPenalty = RiskPenalty(p.Risk)

	if prefs != nil {
		if prefs.MinCapRate > 0 && b.Cap >= prefs.MinCapRate {
			b.PrefBoost += 0.05
		}
		if prefs.RiskFilterActive() && p.Risk == prefs.RiskLevel {
			b.PrefBoost += 0.05
		}
		if prefs.HasCategory(p.Category) {
			b.PrefBoost += 0.05
		}
	}

	if cfg.DataQualityBonus {
		if p.CapRate != nil && p.AIEstimatedValue != nil {
			b.QualityBonus += 0.02
		}
		if p.MarketID != "" && p.Currency != "" {
			b.QualityBonus += 0.01
		}
	}

	if p.Category == model.CategoryDistressed {
		b.CapWeight, b.DiscountWeight = 0.35, 0.55
	} else {
		b.CapWeight, b.DiscountWeight = 0.5, 0.4
	}

	raw := b.CapWeight*b.CapNorm + b.DiscountWeight*b.DiscountNorm + b.PrefBoost + b.QualityBonus - b.RiskPenalty
	b.Score = round2(clamp(raw, 0, 1))
	return b
}

// RiskPenalty is subtracted from the profitability score.
func RiskPenalty(r model.Risk) float64 {
	switch r {
	case model.RiskLow:
		return 0
	case model.RiskMedium:
		return 0.15
	case model.RiskHigh:
		return 0.3
	}
	return 0.1
}

// resolveCap returns the cap rate as a fraction:
// capRate, noi/price, marketCapRate, location default, global default.
func resolveCap(p model.Property, cfg config.ScoringConfig) (float64, string) {
	if p.CapRate != nil {
		return *p.CapRate, CapSourceExplicit
	}
	if p.NOI != nil && p.Price > 0 {
		return *p.NOI / p.Price, CapSourceNOI
	}
	if p.MarketCapRate != nil && *p.MarketCapRate > 0 {
		return *p.MarketCapRate / 100, CapSourceMarket
	}
	if v, ok := market.DefaultCapRate(p.MarketID, p.City); ok {
		return v, CapSourceLocation
	}
	return cfg.DefaultCapRate, CapSourceGlobal
}

// resolveDiscount returns the discount as a fraction (0.2 = 20% below fair value).
func resolveDiscount(p model.Property, capRate float64) (float64, string) {
	if p.AIEstimatedValue != nil && *p.AIEstimatedValue > 0 && p.Price > 0 {
		ai := *p.AIEstimatedValue
		return (ai - p.Price) / ai, DiscountSourceAIValue
	}
	if p.DiscountPct != nil {
		return *p.DiscountPct / 100, DiscountSourcePct
	}
	if p.MarketCapRate != nil && *p.MarketCapRate > 0 {
		mcr := *p.MarketCapRate / 100
		return (capRate - mcr) / mcr, DiscountSourceCapSpread
	}
	return 0, DiscountSourceNone
}

func withDefaults(cfg config.ScoringConfig) config.ScoringConfig {
	def := config.DefaultScoringConfig()
	if cfg.CapRateCeiling <= 0 {
		cfg.CapRateCeiling = def.CapRateCeiling
	}
	if cfg.MarketCapRateDefault <= 0 {
		cfg.MarketCapRateDefault = def.MarketCapRateDefault
	}
	if cfg.DefaultCapRate <= 0 {
		cfg.DefaultCapRate = def.DefaultCapRate
	}
	return cfg
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
