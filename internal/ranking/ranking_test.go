package ranking

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dealboard/internal/analyst"
	"github.com/sells-group/dealboard/internal/config"
	"github.com/sells-group/dealboard/internal/model"
)

type mockAnalyst struct {
	mock.Mock
}

func (m *mockAnalyst) AnalyzeDeal(ctx context.Context, brief analyst.DealBrief) (*analyst.DealAnalysis, error) {
	args := m.Called(ctx, brief)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analyst.DealAnalysis), args.Error(1)
}

func (m *mockAnalyst) MarketInsights(ctx context.Context, req analyst.MarketRequest) (*analyst.MarketInsights, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analyst.MarketInsights), args.Error(1)
}

func (m *mockAnalyst) InvestmentReport(ctx context.Context, req analyst.ReportRequest) (*analyst.Report, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analyst.Report), args.Error(1)
}

func sampleListings(n int) []Listing {
	out := make([]Listing, n)
	for i := range out {
		out[i] = Listing{
			MLSListing:     "3 bed 2 bath, renovated kitchen",
			TaxData:        "Assessed value $450,000 (2024)",
			ZoningInsights: "R-1 single family",
		}
	}
	return out
}

func byAddress(deals []RankedDeal, addr string) *RankedDeal {
	for i := range deals {
		if deals[i].Address == addr {
			return &deals[i]
		}
	}
	return nil
}

func TestRank_OfflineUsesFallbackMetrics(t *testing.T) {
	g := New(analyst.Offline{}, config.DefaultScoringConfig(), 2)

	res, err := g.Rank(context.Background(), RankRequest{Deals: sampleListings(5)})
	require.NoError(t, err)
	require.Len(t, res.RankedDeals, 5)
	assert.Equal(t, analyst.FallbackInsights, res.MarketInsights)

	for _, d := range res.RankedDeals {
		assert.Equal(t, SourceFallback, d.AnalysisSource)
		assert.Equal(t, model.ScaleUnit, d.ScoreScale)
		assert.GreaterOrEqual(t, d.Score, 0.0)
		assert.LessOrEqual(t, d.Score, 1.0)
	}

	austin := byAddress(res.RankedDeals, "1234 Oak Street, Austin, TX")
	require.NotNil(t, austin)
	assert.InDelta(t, 92.0, *austin.AIScore, 1e-9)
	assert.InDelta(t, 18.5, *austin.ROI, 1e-9)
	assert.InDelta(t, 47650.0, *austin.NOI, 1e-9)
	assert.Equal(t, "12 months", austin.BreakEvenTimeline)
	assert.Equal(t, "Fix & Flip", austin.DealCategory)
	assert.Equal(t, model.RiskLow, austin.Risk)
	assert.Equal(t, Coordinates{30.2672, -97.7431}, austin.Coordinates)
	assert.Equal(t, "Austin", austin.City)
	assert.Equal(t, "TX", austin.State)
	assert.InDelta(t, 450000.0, austin.Price, 1e-9)

	phoenix := byAddress(res.RankedDeals, "7890 Cedar Road, Phoenix, AZ")
	require.NotNil(t, phoenix)
	assert.Equal(t, "Hyper Deal", phoenix.DealCategory)

	miami := byAddress(res.RankedDeals, "5678 Pine Avenue, Miami, FL")
	require.NotNil(t, miami)
	assert.InDelta(t, 0.126, *miami.CapRate, 1e-9)
}

func TestRank_SortedDescending(t *testing.T) {
	g := New(nil, config.DefaultScoringConfig(), 3)
	res, err := g.Rank(context.Background(), RankRequest{Deals: sampleListings(7)})
	require.NoError(t, err)
	for i := 1; i < len(res.RankedDeals); i++ {
		assert.GreaterOrEqual(t, res.RankedDeals[i-1].Score, res.RankedDeals[i].Score)
	}
}

func TestRank_Idempotent(t *testing.T) {
	g := New(analyst.Offline{}, config.DefaultScoringConfig(), 4)
	req := RankRequest{Deals: sampleListings(6), MigrationPatterns: "inflow", MarketEconomics: "stable"}

	a, err := g.Rank(context.Background(), req)
	require.NoError(t, err)
	b, err := g.Rank(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRank_AnalystResults(t *testing.T) {
	a := &mockAnalyst{}
	a.On("AnalyzeDeal", mock.Anything, mock.MatchedBy(func(b analyst.DealBrief) bool {
		return b.Location == "Austin, TX"
	})).Return(&analyst.DealAnalysis{Score: 95, ROI: 30, RiskLevel: model.RiskLow, ProfitPotential: 97}, nil)
	a.On("AnalyzeDeal", mock.Anything, mock.MatchedBy(func(b analyst.DealBrief) bool {
		return b.Location == "Miami, FL"
	})).Return(nil, errors.New("groq: all models failed"))
	a.On("MarketInsights", mock.Anything, mock.MatchedBy(func(r analyst.MarketRequest) bool {
		return len(r.Deals) == 2 && r.MigrationPatterns == "south-bound"
	})).Return(&analyst.MarketInsights{Trend: "Sun Belt demand rising", Predictions: "Rents up 5% next year."}, nil)

	g := New(a, config.DefaultScoringConfig(), 2)
	res, err := g.Rank(context.Background(), RankRequest{Deals: sampleListings(2), MigrationPatterns: "south-bound"})
	require.NoError(t, err)

	austin := byAddress(res.RankedDeals, "1234 Oak Street, Austin, TX")
	require.NotNil(t, austin)
	assert.Equal(t, SourceAnalyst, austin.AnalysisSource)
	assert.Equal(t, "Hyper Deal", austin.DealCategory)
	assert.InDelta(t, 97.0, *austin.ProfitPotentialGauge, 1e-9)

	miami := byAddress(res.RankedDeals, "5678 Pine Avenue, Miami, FL")
	require.NotNil(t, miami)
	assert.Equal(t, SourceFallback, miami.AnalysisSource)
	assert.InDelta(t, 88.0, *miami.AIScore, 1e-9)

	assert.Equal(t, "Market analysis: Sun Belt demand rising. Rents up 5% next year.", res.MarketInsights)
	a.AssertExpectations(t)
}

func TestRank_ZeroAnalystValuesUseDefaults(t *testing.T) {
	a := &mockAnalyst{}
	a.On("AnalyzeDeal", mock.Anything, mock.Anything).Return(&analyst.DealAnalysis{RiskLevel: "unknown"}, nil)
	a.On("MarketInsights", mock.Anything, mock.Anything).Return(nil, errors.New("down"))

	res, err := New(a, config.DefaultScoringConfig(), 1).Rank(context.Background(), RankRequest{Deals: sampleListings(1)})
	require.NoError(t, err)
	d := res.RankedDeals[0]
	assert.InDelta(t, 75.0, *d.AIScore, 1e-9)
	assert.InDelta(t, 15.0, *d.ROI, 1e-9)
	assert.InDelta(t, 80.0, *d.ProfitPotentialGauge, 1e-9)
	assert.Equal(t, model.RiskMedium, d.Risk)
	assert.Equal(t, "Rental Property", d.DealCategory)
	assert.Equal(t, analyst.FallbackInsights, res.MarketInsights)
}

func TestRank_BeyondKnownSites(t *testing.T) {
	res, err := New(nil, config.DefaultScoringConfig(), 4).Rank(context.Background(), RankRequest{Deals: sampleListings(9)})
	require.NoError(t, err)

	unknown := 0
	for _, d := range res.RankedDeals {
		if d.Address == "Unknown Address" {
			unknown++
			assert.InDelta(t, 75.0, *d.AIScore, 1e-9)
			assert.Equal(t, Coordinates{}, d.Coordinates)
		}
	}
	assert.Equal(t, 2, unknown)
}

func TestRank_ListingAddressWins(t *testing.T) {
	l := sampleListings(1)
	l[0].Address = "42 Harbor View, Tampa, FL"
	res, err := New(nil, config.DefaultScoringConfig(), 1).Rank(context.Background(), RankRequest{Deals: l})
	require.NoError(t, err)
	assert.Equal(t, "42 Harbor View, Tampa, FL", res.RankedDeals[0].Address)
}

func TestRank_DistressedListing(t *testing.T) {
	l := sampleListings(1)
	l[0].OffMarketListing = "Pre-foreclosure, owner motivated"
	l[0].MLSListing = ""
	res, err := New(nil, config.DefaultScoringConfig(), 1).Rank(context.Background(), RankRequest{Deals: l})
	require.NoError(t, err)
	assert.Equal(t, model.CategoryDistressed, res.RankedDeals[0].Category)
	assert.Equal(t, "Pre-foreclosure, owner motivated", res.RankedDeals[0].Description)
}

func TestRank_InvalidPreferences(t *testing.T) {
	prefs := model.DefaultPreferences()
	prefs.RiskLevel = "extreme"
	_, err := New(nil, config.DefaultScoringConfig(), 1).Rank(context.Background(), RankRequest{
		Deals:       sampleListings(1),
		Preferences: &prefs,
	})
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
}

func TestRank_PreferencesBoostScore(t *testing.T) {
	g := New(nil, config.DefaultScoringConfig(), 1)
	plain, err := g.Rank(context.Background(), RankRequest{Deals: sampleListings(1)})
	require.NoError(t, err)

	prefs := model.DefaultPreferences()
	prefs.Categories = []model.Category{plain.RankedDeals[0].Category}
	boosted, err := g.Rank(context.Background(), RankRequest{Deals: sampleListings(1), Preferences: &prefs})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, boosted.RankedDeals[0].Score, plain.RankedDeals[0].Score)
}

func TestRank_Empty(t *testing.T) {
	res, err := New(nil, config.DefaultScoringConfig(), 1).Rank(context.Background(), RankRequest{})
	require.NoError(t, err)
	assert.Empty(t, res.RankedDeals)
	assert.NotEmpty(t, res.MarketInsights)
}

func TestRank_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(nil, config.DefaultScoringConfig(), 1).Rank(ctx, RankRequest{Deals: sampleListings(2)})
	require.Error(t, err)
}
