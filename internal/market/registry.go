// Package market holds the static market registry, currency display rules
// and the deal category catalog.
package market

import (
	"strings"
)

// Market is a city-level market the dashboard covers.
type Market struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Country  string `json:"country"`
	Currency string `json:"currency"`
	// DefaultCapRate is a percentage (6.5 = 6.5%).
	DefaultCapRate float64 `json:"defaultMarketCapRate"`
}

var markets = []Market{
	{ID: "mumbai", Name: "Mumbai", Country: "India", Currency: "INR", DefaultCapRate: 6.5},
	{ID: "delhi", Name: "Delhi NCR", Country: "India", Currency: "INR", DefaultCapRate: 7.0},
	{ID: "bangalore", Name: "Bangalore", Country: "India", Currency: "INR", DefaultCapRate: 6.8},
	{ID: "pune", Name: "Pune", Country: "India", Currency: "INR", DefaultCapRate: 7.2},
	{ID: "hyderabad", Name: "Hyderabad", Country: "India", Currency: "INR", DefaultCapRate: 7.5},
	{ID: "chennai", Name: "Chennai", Country: "India", Currency: "INR", DefaultCapRate: 7.3},
	{ID: "kolkata", Name: "Kolkata", Country: "India", Currency: "INR", DefaultCapRate: 8.0},
	{ID: "ahmedabad", Name: "Ahmedabad", Country: "India", Currency: "INR", DefaultCapRate: 7.8},
	{ID: "dubai", Name: "Dubai", Country: "UAE", Currency: "AED", DefaultCapRate: 5.5},
	{ID: "london", Name: "London", Country: "UK", Currency: "GBP", DefaultCapRate: 4.2},
	{ID: "new-york", Name: "New York", Country: "USA", Currency: "USD", DefaultCapRate: 5.8},
	{ID: "singapore", Name: "Singapore", Country: "Singapore", Currency: "SGD", DefaultCapRate: 3.8},
	{ID: "toronto", Name: "Toronto", Country: "Canada", Currency: "CAD", DefaultCapRate: 4.5},
	{ID: "sydney", Name: "Sydney", Country: "Australia", Currency: "AUD", DefaultCapRate: 4.1},
}

// All returns a copy of the registry in display order.
func All() []Market {
	return append([]Market(nil), markets...)
}

// ByID returns the market with the given id.
func ByID(id string) (Market, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, m := range markets {
		if m.ID == id {
			return m, true
		}
	}
	return Market{}, false
}

// ByCity resolves a free-form city name ("Delhi", "new york") to a market.
func ByCity(city string) (Market, bool) {
	c := strings.ToLower(strings.TrimSpace(city))
	if c == "" {
		return Market{}, false
	}
	slug := strings.ReplaceAll(c, " ", "-")
	for _, m := range markets {
		name := strings.ToLower(m.Name)
		if m.ID == slug || name == c || strings.HasPrefix(name, c+" ") {
			return m, true
		}
	}
	return Market{}, false
}

// Resolve looks a market up by id first, then by city.
func Resolve(marketID, city string) (Market, bool) {
	if marketID != "" {
		if m, ok := ByID(marketID); ok {
			return m, true
		}
	}
	return ByCity(city)
}

// ByCountry returns all markets in the given country.
func ByCountry(country string) []Market {
	var out []Market
	for _, m := range markets {
		if strings.EqualFold(m.Country, country) {
			out = append(out, m)
		}
	}
	return out
}

// DefaultCapRate returns the location default cap rate as a fraction, or
// false when the location is not in the registry.
func DefaultCapRate(marketID, city string) (float64, bool) {
	m, ok := Resolve(marketID, city)
	if !ok {
		return 0, false
	}
	return m.DefaultCapRate / 100, true
}
