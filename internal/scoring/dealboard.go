package scoring

import (
	"math"
	"time"

	"github.com/sells-group/dealboard/internal/config"
	"github.com/sells-group/dealboard/internal/model"
)

// DealBoard scores p in [0,100] from market data alone. Preferences play no
// part. Cap rates are compared in percent; asOf fixes the year used for the
// age bonus.
//
//	discount    min(40, max(0, discountPct*2))
//	cap rate    min(30, max(0, (capPct-4)*3))
//	vs market   min(20, max(0, (capPct-marketCapRate)*10))
//	risk        low 10, medium 6, high 2
//	age         <5y 5, <15y 3, <30y 1
func DealBoard(p model.Property, asOf time.Time) float64 {
	var score float64

	if p.DiscountPct != nil {
		score += clamp(*p.DiscountPct*2, 0, 40)
	}

	if p.CapRate != nil {
		capPct := *p.CapRate * 100
		score += clamp((capPct-4)*3, 0, 30)
		if p.MarketCapRate != nil {
			score += clamp((capPct-*p.MarketCapRate)*10, 0, 20)
		}
	}

	switch p.Risk {
	case model.RiskLow:
		score += 10
	case model.RiskMedium:
		score += 6
	case model.RiskHigh:
		score += 2
	}

	if p.YearBuilt != nil {
		age := asOf.Year() - *p.YearBuilt
		switch {
		case age < 5:
			score += 5
		case age < 15:
			score += 3
		case age < 30:
			score += 1
		}
	}

	return round2(clamp(score, 0, 100))
}

// ScoreBoard builds deal-board ScoredProperty values. Callers enrich first.
func ScoreBoard(props []model.Property, asOf time.Time) []model.ScoredProperty {
	out := make([]model.ScoredProperty, len(props))
	for i, p := range props {
		out[i] = model.ScoredProperty{
			Property:   p.Clone(),
			Score:      DealBoard(p, asOf),
			ScoreScale: model.ScalePercent,
		}
	}
	return out
}

// ScoreProfitability builds profitability ScoredProperty values. Callers enrich first.
func ScoreProfitability(props []model.Property, prefs *model.UserPreferences, cfg config.ScoringConfig) []model.ScoredProperty {
	out := make([]model.ScoredProperty, len(props))
	for i, p := range props {
		score := Profitability(p, prefs, cfg)
		out[i] = model.ScoredProperty{
			Property:             p.Clone(),
			Score:                score,
			ScoreScale:           model.ScaleUnit,
			ProfitPotentialGauge: model.Ptr(math.Round(score * 100)),
		}
	}
	return out
}
