package filter

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/sells-group/dealboard/internal/model"
)

// DealQuery holds the deal-listing query parameters. Cap-rate bounds are
// percentages. Nil bounds are unset.
type DealQuery struct {
	Sort       SortKey
	MinPrice   *float64
	MaxPrice   *float64
	Markets    []string
	Category   model.Category
	Risk       model.Risk
	CapRateMin *float64
	CapRateMax *float64
}

// ParseDealQuery reads and validates listing query parameters.
func ParseDealQuery(v url.Values) (DealQuery, error) {
	var q DealQuery
	var err error

	if q.Sort, err = ParseSortKey(v.Get("sort")); err != nil {
		return q, err
	}
	if q.MinPrice, err = parseFloat(v, "minPrice"); err != nil {
		return q, err
	}
	if q.MaxPrice, err = parseFloat(v, "maxPrice"); err != nil {
		return q, err
	}
	if q.CapRateMin, err = parseFloat(v, "capRateMin"); err != nil {
		return q, err
	}
	if q.CapRateMax, err = parseFloat(v, "capRateMax"); err != nil {
		return q, err
	}

	if raw := v.Get("markets"); raw != "" {
		for _, m := range strings.Split(raw, ",") {
			if m = strings.TrimSpace(m); m != "" {
				q.Markets = append(q.Markets, m)
			}
		}
	}

	if c := v.Get("category"); c != "" {
		q.Category = model.Category(c)
		if !q.Category.Valid() {
			return q, &model.ValidationError{Field: "category", Message: "unknown value \"" + c + "\""}
		}
	}

	if r := v.Get("risk"); r != "" {
		q.Risk = model.Risk(r)
		switch q.Risk {
		case model.RiskLow, model.RiskMedium, model.RiskHigh, model.RiskAll:
		default:
			return q, &model.ValidationError{Field: "risk", Message: "unknown value \"" + r + "\""}
		}
	}

	return q, nil
}

func parseFloat(v url.Values, key string) (*float64, error) {
	raw := strings.TrimSpace(v.Get(key))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &model.ValidationError{Field: key, Message: "must be a number (got \"" + raw + "\")"}
	}
	return &f, nil
}

// Matches reports whether p satisfies the query. Markets match a
// case-insensitive substring of city or country.
func (q DealQuery) Matches(p *model.Property) bool {
	if q.MinPrice != nil && p.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && p.Price > *q.MaxPrice {
		return false
	}
	if len(q.Markets) > 0 {
		city, country := strings.ToLower(p.City), strings.ToLower(p.Country)
		hit := false
		for _, m := range q.Markets {
			m = strings.ToLower(m)
			if strings.Contains(city, m) || strings.Contains(country, m) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if q.Category != "" && p.Category != q.Category {
		return false
	}
	if q.Risk != "" && q.Risk != model.RiskAll && p.Risk != q.Risk {
		return false
	}
	if q.CapRateMin != nil && (p.CapRate == nil || capPct(p) < *q.CapRateMin) {
		return false
	}
	if q.CapRateMax != nil && (p.CapRate == nil || capPct(p) > *q.CapRateMax) {
		return false
	}
	return true
}

// Apply filters and sorts scored deals.
func (q DealQuery) Apply(scored []model.ScoredProperty) []model.ScoredProperty {
	out := make([]model.ScoredProperty, 0, len(scored))
	for i := range scored {
		if q.Matches(&scored[i].Property) {
			out = append(out, scored[i])
		}
	}
	sortKey := q.Sort
	if sortKey == "" {
		sortKey = SortScore
	}
	return SortScored(out, sortKey)
}

// Echo returns the parsed parameters for the response "filters" object.
// Unset values are nil so they encode as null.
func (q DealQuery) Echo() map[string]any {
	sortKey := q.Sort
	if sortKey == "" {
		sortKey = SortScore
	}
	out := map[string]any{
		"sort":       sortKey,
		"minPrice":   q.MinPrice,
		"maxPrice":   q.MaxPrice,
		"markets":    nil,
		"category":   nil,
		"risk":       nil,
		"capRateMin": q.CapRateMin,
		"capRateMax": q.CapRateMax,
	}
	if len(q.Markets) > 0 {
		out["markets"] = q.Markets
	}
	if q.Category != "" {
		out["category"] = q.Category
	}
	if q.Risk != "" {
		out["risk"] = q.Risk
	}
	return out
}
