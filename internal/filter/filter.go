// Package filter applies user preferences to deal collections and orders
// the result. Every view uses these functions so filtering stays consistent.
package filter

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dealboard/internal/model"
)

// Matches reports whether p passes every predicate of prefs.
func Matches(p *model.Property, prefs *model.UserPreferences) bool {
	if p.Price < prefs.PriceRange[0] || p.Price > prefs.PriceRange[1] {
		return false
	}
	if prefs.MinCapRate > 0 && (p.CapRate == nil || *p.CapRate < prefs.MinCapRate) {
		return false
	}
	if prefs.RiskFilterActive() && p.Risk != prefs.RiskLevel {
		return false
	}
	if len(prefs.Categories) > 0 && !prefs.HasCategory(p.Category) {
		return false
	}
	if len(prefs.Markets) > 0 && !slices.Contains(prefs.Markets, p.City) {
		return false
	}
	if prefs.MinDiscountPct != nil && (p.DiscountPct == nil || *p.DiscountPct < *prefs.MinDiscountPct) {
		return false
	}
	return true
}

// Apply returns the properties that match prefs, in input order. Invalid
// preferences are a caller bug and return an error.
func Apply(props []model.Property, prefs model.UserPreferences) ([]model.Property, error) {
	if err := prefs.Validate(); err != nil {
		return nil, eris.Wrap(err, "filter: apply")
	}
	out := make([]model.Property, 0, len(props))
	for i := range props {
		if Matches(&props[i], &prefs) {
			out = append(out, props[i])
		}
	}
	return out, nil
}

// ApplyScored is Apply over scored properties.
func ApplyScored(scored []model.ScoredProperty, prefs model.UserPreferences) ([]model.ScoredProperty, error) {
	if err := prefs.Validate(); err != nil {
		return nil, eris.Wrap(err, "filter: apply scored")
	}
	out := make([]model.ScoredProperty, 0, len(scored))
	for i := range scored {
		if Matches(&scored[i].Property, &prefs) {
			out = append(out, scored[i])
		}
	}
	return out, nil
}

// ApplyAndSort filters then sorts in one call.
func ApplyAndSort(props []model.Property, prefs model.UserPreferences, key SortKey) ([]model.Property, error) {
	filtered, err := Apply(props, prefs)
	if err != nil {
		return nil, err
	}
	return SortProperties(filtered, key), nil
}

// AvailableMarkets returns the distinct cities in props, sorted.
func AvailableMarkets(props []model.Property) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range props {
		if p.City == "" {
			continue
		}
		if _, ok := seen[p.City]; ok {
			continue
		}
		seen[p.City] = struct{}{}
		out = append(out, p.City)
	}
	slices.Sort(out)
	return out
}

// Summary describes the active filters, e.g.
// "3 of 12 deals (low risk • Mumbai, Pune)".
func Summary(prefs model.UserPreferences, total, filtered int) string {
	var active []string

	if prefs.PriceRange[0] > 0 || prefs.PriceRange[1] < model.DefaultMaxPrice {
		active = append(active, fmt.Sprintf("₹%.1fCr - ₹%.1fCr", prefs.PriceRange[0]/1e7, prefs.PriceRange[1]/1e7))
	}
	if prefs.MinCapRate > 0 {
		active = append(active, fmt.Sprintf("Cap Rate ≥ %g%%", math.Round(prefs.MinCapRate*1e4)/100))
	}
	if prefs.RiskFilterActive() {
		active = append(active, fmt.Sprintf("%s risk", prefs.RiskLevel))
	}
	if n := len(prefs.Categories); n > 0 && n < len(model.AllCategories()) {
		cats := make([]string, n)
		for i, c := range prefs.Categories {
			cats[i] = string(c)
		}
		active = append(active, strings.Join(cats, ", "))
	}
	if n := len(prefs.Markets); n > 0 {
		if n <= 2 {
			active = append(active, strings.Join(prefs.Markets, ", "))
		} else {
			active = append(active, fmt.Sprintf("%d markets", n))
		}
	}
	if prefs.MinDiscountPct != nil {
		active = append(active, fmt.Sprintf("Discount ≥ %g%%", *prefs.MinDiscountPct))
	}

	if len(active) == 0 {
		return fmt.Sprintf("Showing all %d deals", filtered)
	}
	return fmt.Sprintf("%d of %d deals (%s)", filtered, total, strings.Join(active, " • "))
}

// Top filters scored deals by prefs, sorts them by key and keeps at most
// limit results (0 keeps all).
func Top(scored []model.ScoredProperty, prefs model.UserPreferences, key SortKey, limit int) ([]model.ScoredProperty, error) {
	filtered, err := ApplyScored(scored, prefs)
	if err != nil {
		return nil, err
	}
	out := SortScored(filtered, key)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
