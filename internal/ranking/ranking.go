// Package ranking turns raw listing text into ranked, scored deals with
// market commentary.
package ranking

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/dealboard/internal/analyst"
	"github.com/sells-group/dealboard/internal/config"
	"github.com/sells-group/dealboard/internal/enrich"
	"github.com/sells-group/dealboard/internal/model"
	"github.com/sells-group/dealboard/internal/scoring"
)

// Where a ranked deal's metrics came from.
const (
	SourceAnalyst  = "analyst"
	SourceFallback = "fallback"
)

const defaultConcurrency = 4

// Listing is one raw deal as submitted for ranking.
type Listing struct {
	MLSListing       string `json:"mlsListing,omitempty"`
	OffMarketListing string `json:"offMarketListing,omitempty"`
	TaxData          string `json:"taxData"`
	ZoningInsights   string `json:"zoningInsights"`
	Address          string `json:"address,omitempty"`
	PropertyDetails  string `json:"propertyDetails,omitempty"`
	MarketAnalysis   string `json:"marketAnalysis,omitempty"`
	FinancialData    string `json:"financialData,omitempty"`
}

func (l Listing) description() string {
	switch {
	case l.MLSListing != "":
		return l.MLSListing
	case l.OffMarketListing != "":
		return l.OffMarketListing
	}
	return "Property listing"
}

func (l Listing) text() string {
	return strings.Join([]string{l.MLSListing, l.OffMarketListing, l.TaxData, l.ZoningInsights, l.PropertyDetails, l.FinancialData}, " ")
}

// RankRequest is the input of Rank.
type RankRequest struct {
	Deals             []Listing              `json:"deals"`
	MigrationPatterns string                 `json:"migrationPatterns"`
	MarketEconomics   string                 `json:"marketEconomics"`
	Preferences       *model.UserPreferences `json:"preferences,omitempty"`
}

// RankedDeal is a scored deal plus the listing it came from.
type RankedDeal struct {
	model.ScoredProperty
	Coordinates    Coordinates `json:"coordinates"`
	Listing        Listing     `json:"listing"`
	AnalysisSource string      `json:"analysisSource"`
}

// RankResult is the output of Rank. RankedDeals is sorted by Score, highest first.
type RankResult struct {
	RankedDeals    []RankedDeal `json:"rankedDeals"`
	MarketInsights string       `json:"marketInsights"`
}

// Aggregator ranks listings using an analyst for per-deal metrics.
type Aggregator struct {
	analyst     analyst.Analyst
	scoring     config.ScoringConfig
	concurrency int
}

// New creates an Aggregator. concurrency bounds the analyst fan-out.
func New(a analyst.Analyst, cfg config.ScoringConfig, concurrency int) *Aggregator {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if a == nil {
		a = analyst.Offline{}
	}
	return &Aggregator{analyst: a, scoring: cfg, concurrency: concurrency}
}

// Rank analyzes, scores and orders the listings in req. Analyst failures
// never fail the ranking: affected listings use FallbackMetrics and the
// insight text falls back to analyst.FallbackInsights.
func (g *Aggregator) Rank(ctx context.Context, req RankRequest) (*RankResult, error) {
	if req.Preferences != nil {
		if err := req.Preferences.Validate(); err != nil {
			return nil, eris.Wrap(err, "ranking: invalid preferences")
		}
	}

	deals := make([]RankedDeal, len(req.Deals))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)

	for i, listing := range req.Deals {
		eg.Go(func() error {
			m, source := g.metrics(gctx, i, listing)
			deals[i] = g.build(i, listing, m, source, req.Preferences)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, eris.Wrap(err, "ranking: analyze deals")
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "ranking: cancelled")
	}

	slices.SortStableFunc(deals, func(a, b RankedDeal) int {
		return cmp.Compare(b.Score, a.Score)
	})

	return &RankResult{
		RankedDeals:    deals,
		MarketInsights: g.insights(ctx, req, deals),
	}, nil
}

func (g *Aggregator) metrics(ctx context.Context, i int, l Listing) (Metrics, string) {
	pos := siteAt(i)
	brief := analyst.DealBrief{
		Description: l.description(),
		Location:    pos.location,
		Price:       ExtractPrice(l.TaxData),
		Type:        PropertyType(l.ZoningInsights),
	}

	a, err := g.analyst.AnalyzeDeal(ctx, brief)
	if err != nil || a == nil {
		zap.L().Debug("ranking: analyst unavailable, using fallback metrics",
			zap.Int("index", i),
			zap.Error(err),
		)
		return FallbackMetrics(i), SourceFallback
	}

	m := Metrics{
		Score:           float64(a.Score),
		ROI:             a.ROI,
		ProfitPotential: a.ProfitPotential,
		Risk:            a.RiskLevel,
	}
	if m.Score == 0 {
		m.Score = defaultMetrics.Score
	}
	if m.ROI == 0 {
		m.ROI = defaultMetrics.ROI
	}
	if m.ProfitPotential == 0 {
		m.ProfitPotential = defaultMetrics.ProfitPotential
	}
	switch m.Risk {
	case model.RiskLow, model.RiskMedium, model.RiskHigh:
	default:
		m.Risk = defaultMetrics.Risk
	}
	return m, SourceAnalyst
}

func (g *Aggregator) build(i int, l Listing, m Metrics, source string, prefs *model.UserPreferences) RankedDeal {
	pos := siteAt(i)
	city, state := splitLocation(pos.location)
	address := pos.address
	if l.Address != "" {
		address = l.Address
	}
	ptype := PropertyType(l.ZoningInsights)
	capPct := CapRatePct(m.Score, m.ROI)

	p := model.Property{
		ID:          fmt.Sprintf("listing-%d", i+1),
		Title:       ptype + " in " + city,
		Address:     address,
		City:        city,
		State:       state,
		Country:     "USA",
		Currency:    "USD",
		Description: l.description(),
		Lat:         pos.coords.Lat,
		Lng:         pos.coords.Lng,
		Status:      model.DealStatusNew,
		Price:       ParsePrice(ExtractPrice(l.TaxData)),
		NOI:         model.Ptr(NOI(m.Score, m.ROI)),
		CapRate:     model.Ptr(capPct / 100),
		Risk:        m.Risk,
	}
	p = enrich.Enrich(p, g.scoring)
	p.Category = categorize(l.text(), deref(p.DiscountPct), capPct, deref(p.MarketCapRate))

	return RankedDeal{
		ScoredProperty: model.ScoredProperty{
			Property:             p,
			Score:                scoring.Profitability(p, prefs, g.scoring),
			ScoreScale:           model.ScaleUnit,
			ROI:                  model.Ptr(m.ROI),
			CashOnCashReturn:     model.Ptr(m.ROI),
			BreakEvenTimeline:    BreakEven(m.Score, m.ROI),
			DealCategory:         DealLabel(m.Score, m.ROI),
			ProfitPotentialGauge: model.Ptr(m.ProfitPotential),
			AIScore:              model.Ptr(m.Score),
		},
		Coordinates:    pos.coords,
		Listing:        l,
		AnalysisSource: source,
	}
}

func (g *Aggregator) insights(ctx context.Context, req RankRequest, deals []RankedDeal) string {
	summaries := make([]analyst.DealSummary, len(deals))
	for i, d := range deals {
		summaries[i] = analyst.DealSummary{
			Address:  d.Address,
			Score:    deref(d.AIScore),
			ROI:      deref(d.ROI),
			CapRate:  deref(d.CapRate) * 100,
			Category: d.DealCategory,
		}
	}

	m, err := g.analyst.MarketInsights(ctx, analyst.MarketRequest{
		Deals:             summaries,
		MigrationPatterns: req.MigrationPatterns,
		MarketEconomics:   req.MarketEconomics,
	})
	if err != nil || m == nil {
		zap.L().Debug("ranking: market insights unavailable, using template", zap.Error(err))
		return analyst.FallbackInsights
	}
	return m.Summary()
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
