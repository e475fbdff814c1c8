package model

// ScoreScale names the range a Score is expressed in.
type ScoreScale string

const (
	ScaleUnit    ScoreScale = "unit"    // 0-1 profitability score
	ScalePercent ScoreScale = "percent" // 0-100 deal-board score
)

// ScoredProperty is a property plus the derived metrics of one scoring pass.
// It is rebuilt on every pass and never written back to the source Property.
type ScoredProperty struct {
	Property

	Score      float64    `json:"score"`
	ScoreScale ScoreScale `json:"scoreScale"`

	ROI                  *float64 `json:"roi,omitempty"`
	CashOnCashReturn     *float64 `json:"cashOnCashReturn,omitempty"`
	BreakEvenTimeline    string   `json:"breakEvenTimeline,omitempty"`
	DealCategory         string   `json:"dealCategory,omitempty"`
	ProfitPotentialGauge *float64 `json:"profitPotentialGauge,omitempty"`
	AIScore              *float64 `json:"aiScore,omitempty"`
}
