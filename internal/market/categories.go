package market

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/dealboard/internal/model"
)

// CategoryInfo is the display metadata of a deal category.
type CategoryInfo struct {
	Category    model.Category `json:"category"`
	Label       string         `json:"label"`
	Description string         `json:"description"`
	Tooltip     string         `json:"tooltip"`
	// Color is the map marker color.
	Color       string         `json:"color,omitempty"`
}

var catalog = map[model.Category]CategoryInfo{
	model.CategoryCapRateArbitrage: {
		Category:    model.CategoryCapRateArbitrage,
		Label:       "Cap Rate Arbitrage",
		Description: "Properties with cap rates above market average",
		Tooltip:     "Focus on cash flow and yield optimization",
		Color:       "#10b981",
	},
	model.CategoryMispriced: {
		Category:    model.CategoryMispriced,
		Label:       "Mispriced",
		Description: "Properties trading below estimated fair value",
		Tooltip:     "Balanced approach to value and yield",
		Color:       "#f59e0b",
	},
	model.CategoryDistressed: {
		Category:    model.CategoryDistressed,
		Label:       "Distressed",
		Description: "Properties requiring quick sale or turnaround",
		Tooltip:     "Higher discount focus - potential for significant value appreciation",
		Color:       "#ef4444",
	},
}

var titleCaser = cases.Title(language.English)

// Category returns display metadata. Unknown categories get a title-cased
// label and no description.
func Category(c model.Category) CategoryInfo {
	if info, ok := catalog[c]; ok {
		return info
	}
	return CategoryInfo{
		Category: c,
		Label:    titleCaser.String(strings.ReplaceAll(string(c), "_", " ")),
	}
}

// Categories returns the catalog in display order.
func Categories() []CategoryInfo {
	out := make([]CategoryInfo, 0, len(catalog))
	for _, c := range model.AllCategories() {
		out = append(out, catalog[c])
	}
	return out
}

// CategoryCount is one row of the category distribution.
type CategoryCount struct {
	CategoryInfo
	Count      int `json:"count"`
	Percentage int `json:"percentage"`
}

// CategoryStats summarizes a deal collection by category.
type CategoryStats struct {
	Total      int             `json:"total"`
	ByCategory []CategoryCount `json:"byCategory"`
	AvgScores  struct {
		CapRate  float64 `json:"capRate"`
		Discount float64 `json:"discount"`
		Risk     float64 `json:"risk"`
	} `json:"avgScores"`
}

// RiskValue maps a risk bucket to a number: high 1, medium 0.5, otherwise 0.
func RiskValue(r model.Risk) float64 {
	switch r {
	case model.RiskHigh:
		return 1
	case model.RiskMedium:
		return 0.5
	}
	return 0
}

// Stats computes counts, rounded percentages and average signals. Missing
// cap rates and discounts count as zero in the averages.
func Stats(props []model.Property) CategoryStats {
	var st CategoryStats
	st.Total = len(props)

	counts := make(map[model.Category]int)
	var capSum, discSum, riskSum float64
	for _, p := range props {
		counts[p.Category]++
		if p.CapRate != nil {
			capSum += *p.CapRate
		}
		if p.DiscountPct != nil {
			discSum += *p.DiscountPct
		}
		riskSum += RiskValue(p.Risk)
	}

	for _, info := range Categories() {
		row := CategoryCount{CategoryInfo: info, Count: counts[info.Category]}
		if st.Total > 0 {
			row.Percentage = int(math.Round(float64(row.Count) / float64(st.Total) * 100))
		}
		st.ByCategory = append(st.ByCategory, row)
	}

	if st.Total > 0 {
		n := float64(st.Total)
		st.AvgScores.CapRate = capSum / n
		st.AvgScores.Discount = discSum / n
		st.AvgScores.Risk = riskSum / n
	}
	return st
}
