package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProperty() Property {
	return Property{
		ID:       "mum-001",
		Title:    "Bandra Sea View Apartment",
		City:     "Mumbai",
		Price:    45_000_000,
		NOI:      Ptr(3_150_000.0),
		Risk:     RiskLow,
		Category: CategoryMispriced,
		Images:   []string{"a.jpg"},
	}
}

func TestCategoryValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cat  Category
		want string
	}{
		{CategoryCapRateArbitrage, "cap_rate_arbitrage"},
		{CategoryMispriced, "mispriced"},
		{CategoryDistressed, "distressed"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, string(tt.cat))
			assert.True(t, tt.cat.Valid())
		})
	}
	assert.False(t, Category("luxury").Valid())
	assert.Len(t, AllCategories(), 3)
}

func TestPropertyValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(p *Property)
		field  string
	}{
		{"valid", func(_ *Property) {}, ""},
		{"missing id", func(p *Property) { p.ID = "" }, "id"},
		{"zero price", func(p *Property) { p.Price = 0 }, "price"},
		{"negative price", func(p *Property) { p.Price = -1 }, "price"},
		{"negative cap rate", func(p *Property) { p.CapRate = Ptr(-0.01) }, "capRate"},
		{"zero cap rate is known", func(p *Property) { p.CapRate = Ptr(0.0) }, ""},
		{"unknown risk", func(p *Property) { p.Risk = "extreme" }, "risk"},
		{"empty risk allowed", func(p *Property) { p.Risk = "" }, ""},
		{"unknown category", func(p *Property) { p.Category = "luxury" }, "category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := validProperty()
			tt.mutate(&p)
			err := p.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestValidateAll_Duplicate(t *testing.T) {
	t.Parallel()

	p := validProperty()
	err := ValidateAll([]Property{p, p})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate id mum-001")

	q := validProperty()
	q.ID = "mum-002"
	assert.NoError(t, ValidateAll([]Property{p, q}))
}

func TestPropertyClone_Deep(t *testing.T) {
	t.Parallel()

	p := validProperty()
	c := p.Clone()

	*c.NOI = 1
	c.Images[0] = "b.jpg"

	assert.InDelta(t, 3_150_000.0, *p.NOI, 0.001)
	assert.Equal(t, "a.jpg", p.Images[0])
	assert.Nil(t, c.CapRate)

	empty := Property{ID: "e", Images: []string{}}.Clone()
	assert.NotNil(t, empty.Images)
	assert.Nil(t, Property{ID: "n"}.Clone().Images)
}

func TestPropertyJSON_OptionalPresence(t *testing.T) {
	t.Parallel()

	var p Property
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","price":100,"capRate":0,"risk":"low"}`), &p))
	require.NotNil(t, p.CapRate)
	assert.Zero(t, *p.CapRate)
	assert.Nil(t, p.NOI)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"capRate":0`)
	assert.NotContains(t, string(out), `"noi"`)
	assert.NotContains(t, string(out), `"createdAt"`)
}

func TestScoredPropertyJSON_Flattened(t *testing.T) {
	t.Parallel()

	sp := ScoredProperty{Property: validProperty(), Score: 0.45, ScoreScale: ScaleUnit}
	out, err := json.Marshal(sp)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Equal(t, "mum-001", m["id"])
	assert.InDelta(t, 0.45, m["score"], 0.0001)
	assert.Equal(t, "unit", m["scoreScale"])
}
