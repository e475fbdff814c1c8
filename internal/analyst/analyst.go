// Package analyst produces narrative deal analysis, market insights and
// investment reports through a pluggable text-generation provider.
package analyst

import (
	"context"
	"errors"
	"fmt"

	"github.com/sells-group/dealboard/internal/model"
)

// Action names a collaborator operation exposed on POST /api/ai.
type Action string

const (
	ActionAnalyzeDeal      Action = "analyzeRealEstateDeal"
	ActionMarketInsights   Action = "generateMarketInsights"
	ActionInvestmentReport Action = "generateInvestmentReport"
)

// Actions lists every supported action.
func Actions() []Action {
	return []Action{ActionAnalyzeDeal, ActionMarketInsights, ActionInvestmentReport}
}

// ParseAction validates a wire action name.
func ParseAction(s string) (Action, error) {
	for _, a := range Actions() {
		if string(a) == s {
			return a, nil
		}
	}
	return "", &model.ValidationError{
		Field:   "action",
		Message: fmt.Sprintf("unknown action %q (available: %s, %s, %s)", s, ActionAnalyzeDeal, ActionMarketInsights, ActionInvestmentReport),
	}
}

// ErrNoProvider is returned by the offline analyst for every call.
var ErrNoProvider = errors.New("analyst: no text-generation provider configured")

// Analyst is the text-generation collaborator used by the ranking
// aggregator and the AI endpoint.
type Analyst interface {
	AnalyzeDeal(ctx context.Context, brief DealBrief) (*DealAnalysis, error)
	MarketInsights(ctx context.Context, req MarketRequest) (*MarketInsights, error)
	InvestmentReport(ctx context.Context, req ReportRequest) (*Report, error)
}

// DealBrief is the short description of one listing sent for analysis.
type DealBrief struct {
	Description string `json:"description"`
	Location    string `json:"location"`
	Price       string `json:"price"`
	Type        string `json:"type"`
	Context     string `json:"context,omitempty"`
}

// DealAnalysis is the metric set extracted from a provider reply.
type DealAnalysis struct {
	Score           int        `json:"score"`
	ROI             float64    `json:"roi"`
	RiskLevel       model.Risk `json:"riskLevel"`
	ProfitPotential float64    `json:"profitPotential"`
	MarketTrend     string     `json:"marketTrend"`
	Analysis        string     `json:"analysis"`
	Recommendations []string   `json:"recommendations"`
	Model           string     `json:"model,omitempty"`
}

// DealSummary is a ranked deal as described to the market-insights prompt.
type DealSummary struct {
	Address  string  `json:"address"`
	Score    float64 `json:"score"`
	ROI      float64 `json:"roi"`
	CapRate  float64 `json:"capRate"`
	Category string  `json:"dealCategory"`
}

// MarketRequest asks for market-level commentary.
type MarketRequest struct {
	Market            string        `json:"market,omitempty"`
	Deals             []DealSummary `json:"deals,omitempty"`
	MigrationPatterns string        `json:"migrationPatterns,omitempty"`
	MarketEconomics   string        `json:"marketEconomics,omitempty"`
}

// MarketInsights is the parsed market commentary.
type MarketInsights struct {
	Trend         string   `json:"trend"`
	Predictions   string   `json:"predictions"`
	Opportunities []string `json:"opportunities"`
	Strategies    []string `json:"strategies"`
	RiskFactors   []string `json:"riskFactors"`
	Raw           string   `json:"rawResponse"`
	Model         string   `json:"model,omitempty"`
}

// Summary renders the one-paragraph insight text used by the ranking.
func (m *MarketInsights) Summary() string {
	if m.Predictions == "" {
		return "Market analysis: " + m.Trend + "."
	}
	return "Market analysis: " + m.Trend + ". " + m.Predictions
}

// FallbackInsights is used whenever market commentary cannot be generated.
const FallbackInsights = "Market analysis shows strong growth in tech hubs like Austin and Raleigh, " +
	"with rental demand increasing by 15-20%. Miami continues to attract international investors, " +
	"while Phoenix offers excellent flip opportunities due to rapid population growth. Overall market " +
	"sentiment is positive with stable interest rates and strong job growth."

// ReportRequest describes the property an investment report is written for.
type ReportRequest struct {
	Title       string   `json:"title,omitempty"`
	Address     string   `json:"address,omitempty"`
	Location    string   `json:"location,omitempty"`
	Price       float64  `json:"price,omitempty"`
	Type        string   `json:"type,omitempty"`
	CapRate     *float64 `json:"capRate,omitempty"`
	NOI         *float64 `json:"noi,omitempty"`
	Description string   `json:"description,omitempty"`
	Context     string   `json:"context,omitempty"`
}

// Report is a parsed investment report.
type Report struct {
	ExecutiveSummary string   `json:"executiveSummary"`
	KeyFindings      []string `json:"keyFindings"`
	Recommendations  []string `json:"recommendations"`
	RiskAssessment   []string `json:"riskAssessment"`
	Raw              string   `json:"rawResponse"`
	Model            string   `json:"model,omitempty"`
}

// Failure is the wire shape of a failed collaborator call.
type Failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewFailure converts err into a Failure.
func NewFailure(err error) Failure {
	msg := "AI analysis failed"
	if err != nil {
		msg = err.Error()
	}
	return Failure{Success: false, Error: msg}
}

// Offline is the analyst used when no provider is configured. Every call
// fails, so callers take their deterministic fallbacks.
type Offline struct{}

func (Offline) AnalyzeDeal(context.Context, DealBrief) (*DealAnalysis, error) {
	return nil, ErrNoProvider
}

func (Offline) MarketInsights(context.Context, MarketRequest) (*MarketInsights, error) {
	return nil, ErrNoProvider
}

func (Offline) InvestmentReport(context.Context, ReportRequest) (*Report, error) {
	return nil, ErrNoProvider
}
