package filter

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dealboard/internal/model"
)

func sampleDeals() []model.Property {
	return []model.Property{
		{ID: "1", City: "Mumbai", Country: "India", Price: 2_500_000, CapRate: model.Ptr(0.075), DiscountPct: model.Ptr(10.7), Risk: model.RiskMedium, Category: model.CategoryCapRateArbitrage},
		{ID: "2", City: "Bangalore", Country: "India", Price: 1_800_000, CapRate: model.Ptr(0.075), DiscountPct: model.Ptr(10.0), Risk: model.RiskLow, Category: model.CategoryMispriced},
		{ID: "3", City: "Delhi", Country: "India", Price: 3_500_000, CapRate: model.Ptr(0.065), DiscountPct: model.Ptr(12.5), Risk: model.RiskHigh, Category: model.CategoryDistressed},
		{ID: "4", City: "Hyderabad", Country: "India", Price: 4_200_000, CapRate: model.Ptr(0.08), DiscountPct: model.Ptr(6.7), Risk: model.RiskMedium, Category: model.CategoryCapRateArbitrage},
		{ID: "5", City: "Pune", Country: "India", Price: 3_200_000, CapRate: model.Ptr(0.07), DiscountPct: model.Ptr(8.6), Risk: model.RiskLow, Category: model.CategoryMispriced},
		{ID: "6", City: "London", Country: "UK", Price: 1_800_000, Risk: model.RiskLow, Category: model.CategoryMispriced},
	}
}

func ids(props []model.Property) []string {
	out := make([]string, len(props))
	for i, p := range props {
		out[i] = p.ID
	}
	return out
}

func scoredIDs(props []model.ScoredProperty) []string {
	out := make([]string, len(props))
	for i, p := range props {
		out[i] = p.ID
	}
	return out
}

func TestApply_Defaults(t *testing.T) {
	t.Parallel()

	out, err := Apply(sampleDeals(), model.DefaultPreferences())
	require.NoError(t, err)
	assert.Len(t, out, 6)
}

func TestApply_Predicates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(p *model.UserPreferences)
		want   []string
	}{
		{"price inclusive", func(p *model.UserPreferences) { p.PriceRange = [2]float64{1_800_000, 2_500_000} }, []string{"1", "2", "6"}},
		{"min cap requires presence", func(p *model.UserPreferences) { p.MinCapRate = 0.075 }, []string{"1", "2", "4"}},
		{"risk", func(p *model.UserPreferences) { p.RiskLevel = model.RiskLow }, []string{"2", "5", "6"}},
		{"risk all means no filter", func(p *model.UserPreferences) { p.RiskLevel = model.RiskAll }, []string{"1", "2", "3", "4", "5", "6"}},
		{"categories", func(p *model.UserPreferences) { p.Categories = []model.Category{model.CategoryDistressed} }, []string{"3"}},
		{"empty categories means no filter", func(p *model.UserPreferences) { p.Categories = nil }, []string{"1", "2", "3", "4", "5", "6"}},
		{"markets exact city", func(p *model.UserPreferences) { p.Markets = []string{"Pune", "London", "mumbai"} }, []string{"5", "6"}},
		{"min discount requires presence", func(p *model.UserPreferences) { p.MinDiscountPct = model.Ptr(10.0) }, []string{"1", "2", "3"}},
		{"max risk score not applied", func(p *model.UserPreferences) { p.MaxRiskScore = model.Ptr(0.0) }, []string{"1", "2", "3", "4", "5", "6"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			prefs := model.DefaultPreferences()
			tt.mutate(&prefs)
			out, err := Apply(sampleDeals(), prefs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(out))
		})
	}
}

func TestApply_InvalidPreferences(t *testing.T) {
	t.Parallel()

	prefs := model.DefaultPreferences()
	prefs.PriceRange = [2]float64{10, 1}
	_, err := Apply(sampleDeals(), prefs)
	require.Error(t, err)
	assert.True(t, model.IsValidation(err))
}

func TestApply_Idempotent(t *testing.T) {
	t.Parallel()

	prefsList := []model.UserPreferences{model.DefaultPreferences()}
	p := model.DefaultPreferences()
	p.MinCapRate = 0.07
	p.RiskLevel = model.RiskMedium
	prefsList = append(prefsList, p)
	p2 := model.DefaultPreferences()
	p2.Markets = []string{"Delhi", "Pune"}
	p2.MinDiscountPct = model.Ptr(9.0)
	prefsList = append(prefsList, p2)

	for _, prefs := range prefsList {
		once, err := Apply(sampleDeals(), prefs)
		require.NoError(t, err)
		twice, err := Apply(once, prefs)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}

func TestApplyScored(t *testing.T) {
	t.Parallel()

	var scored []model.ScoredProperty
	for _, p := range sampleDeals() {
		scored = append(scored, model.ScoredProperty{Property: p, Score: 0.5})
	}
	prefs := model.DefaultPreferences()
	prefs.RiskLevel = model.RiskHigh
	out, err := ApplyScored(scored, prefs)
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, scoredIDs(out))
}

func TestSortProperties_PriceAscending(t *testing.T) {
	t.Parallel()

	out := SortProperties(sampleDeals(), SortPrice)
	for i := 1; i < len(out); i++ {
		assert.LessOrEqual(t, out[i-1].Price, out[i].Price)
	}
	// Equal prices keep input order.
	assert.Equal(t, []string{"2", "6", "1", "5", "3", "4"}, ids(out))
}

func TestSortProperties_Keys(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"4", "1", "2", "5", "3", "6"}, ids(SortProperties(sampleDeals(), SortCapRate)))
	assert.Equal(t, []string{"3", "1", "2", "5", "4", "6"}, ids(SortProperties(sampleDeals(), SortDiscount)))
	// 0.6*capPct + 0.4*discountPct: 1=8.78 2=8.5 3=8.9 4=7.48 5=7.64 6=0
	assert.Equal(t, []string{"3", "1", "2", "5", "4", "6"}, ids(SortProperties(sampleDeals(), SortScore)))
}

func TestSortProperties_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := sampleDeals()
	_ = SortProperties(in, SortPrice)
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, ids(in))
}

func TestSortScored_UsesPrecomputedScore(t *testing.T) {
	t.Parallel()

	deals := sampleDeals()
	scored := []model.ScoredProperty{
		{Property: deals[0], Score: 0.2},
		{Property: deals[1], Score: 0.9},
		{Property: deals[2], Score: 0.2},
		{Property: deals[3], Score: 0.5},
	}
	out := SortScored(scored, SortScore)
	assert.Equal(t, []string{"2", "4", "1", "3"}, scoredIDs(out))
}

func TestSortScoredKey(t *testing.T) {
	t.Parallel()

	_, err := SortScoredKey(nil, "alphabetical")
	require.Error(t, err)

	out, err := SortScoredKey([]model.ScoredProperty{{Property: model.Property{ID: "a", Price: 2}}, {Property: model.Property{ID: "b", Price: 1}}}, "price")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, scoredIDs(out))
}

func TestParseSortKey(t *testing.T) {
	t.Parallel()

	k, err := ParseSortKey("")
	require.NoError(t, err)
	assert.Equal(t, SortScore, k)

	for _, s := range []string{"score", "price", "capRate", "discount"} {
		k, err := ParseSortKey(s)
		require.NoError(t, err)
		assert.Equal(t, SortKey(s), k)
	}

	_, err = ParseSortKey("caprate")
	assert.True(t, model.IsValidation(err))
}

func TestApplyAndSort(t *testing.T) {
	t.Parallel()

	prefs := model.DefaultPreferences()
	prefs.Categories = []model.Category{model.CategoryMispriced}
	out, err := ApplyAndSort(sampleDeals(), prefs, SortPrice)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "6", "5"}, ids(out))
}

func TestAvailableMarkets(t *testing.T) {
	t.Parallel()

	deals := append(sampleDeals(), model.Property{ID: "7", City: "Mumbai"}, model.Property{ID: "8"})
	assert.Equal(t, []string{"Bangalore", "Delhi", "Hyderabad", "London", "Mumbai", "Pune"}, AvailableMarkets(deals))
}

func TestSummary(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Showing all 6 deals", Summary(model.DefaultPreferences(), 6, 6))

	prefs := model.DefaultPreferences()
	prefs.PriceRange = [2]float64{10_000_000, 50_000_000}
	prefs.MinCapRate = 0.07
	prefs.RiskLevel = model.RiskLow
	prefs.Categories = []model.Category{model.CategoryMispriced}
	prefs.Markets = []string{"Mumbai", "Pune"}
	assert.Equal(t,
		"2 of 6 deals (₹1.0Cr - ₹5.0Cr • Cap Rate ≥ 7% • low risk • mispriced • Mumbai, Pune)",
		Summary(prefs, 6, 2))

	prefs = model.DefaultPreferences()
	prefs.Markets = []string{"Mumbai", "Pune", "Delhi"}
	assert.Equal(t, "3 of 6 deals (3 markets)", Summary(prefs, 6, 3))
}

func TestParseDealQuery(t *testing.T) {
	t.Parallel()

	q, err := ParseDealQuery(url.Values{
		"sort":       {"price"},
		"minPrice":   {"1000000"},
		"markets":    {" mumbai , uk,"},
		"category":   {"mispriced"},
		"risk":       {"all"},
		"capRateMin": {"7"},
	})
	require.NoError(t, err)
	assert.Equal(t, SortPrice, q.Sort)
	require.NotNil(t, q.MinPrice)
	assert.InDelta(t, 1_000_000, *q.MinPrice, 1e-9)
	assert.Nil(t, q.MaxPrice)
	assert.Equal(t, []string{"mumbai", "uk"}, q.Markets)
	assert.Equal(t, model.CategoryMispriced, q.Category)
	assert.Equal(t, model.RiskAll, q.Risk)

	for _, bad := range []url.Values{
		{"sort": {"name"}},
		{"minPrice": {"cheap"}},
		{"category": {"luxury"}},
		{"risk": {"any"}},
		{"capRateMax": {"x"}},
	} {
		_, err := ParseDealQuery(bad)
		assert.True(t, model.IsValidation(err), "%v", bad)
	}
}

func TestDealQuery_Apply(t *testing.T) {
	t.Parallel()

	var scored []model.ScoredProperty
	for i, p := range sampleDeals() {
		scored = append(scored, model.ScoredProperty{Property: p, Score: float64(i)})
	}

	q, err := ParseDealQuery(url.Values{"markets": {"india"}, "capRateMin": {"7"}, "capRateMax": {"7.5"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"5", "2", "1"}, scoredIDs(q.Apply(scored)))

	q, err = ParseDealQuery(url.Values{"markets": {"lon"}, "risk": {"low"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"6"}, scoredIDs(q.Apply(scored)))

	q, err = ParseDealQuery(url.Values{"maxPrice": {"2000000"}, "sort": {"price"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "6"}, scoredIDs(q.Apply(scored)))
}

func TestDealQuery_Echo(t *testing.T) {
	t.Parallel()

	q, err := ParseDealQuery(url.Values{"minPrice": {"5"}, "markets": {"Pune"}})
	require.NoError(t, err)
	echo := q.Echo()
	assert.Equal(t, SortScore, echo["sort"])
	assert.Equal(t, []string{"Pune"}, echo["markets"])
	assert.Nil(t, echo["category"])
	assert.Nil(t, echo["risk"])
	assert.InDelta(t, 5.0, *(echo["minPrice"].(*float64)), 1e-9)
}

func TestTop(t *testing.T) {
	t.Parallel()

	var scored []model.ScoredProperty
	for i, p := range sampleDeals() {
		scored = append(scored, model.ScoredProperty{Property: p, Score: float64(i) / 10})
	}
	prefs := model.DefaultPreferences()
	prefs.Categories = []model.Category{model.CategoryMispriced}

	out, err := Top(scored, prefs, SortScore, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"6", "5"}, scoredIDs(out))

	out, err = Top(scored, prefs, SortPrice, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "6", "5"}, scoredIDs(out))

	prefs.PriceRange = [2]float64{10, 1}
	_, err = Top(scored, prefs, SortScore, 0)
	assert.True(t, model.IsValidation(err))
}
