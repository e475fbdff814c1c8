package market

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Currency describes how amounts in a currency are displayed.
type Currency struct {
	Code   string
	Symbol string
	Locale string
	Name   string
}

var currencies = map[string]Currency{
	"INR": {Code: "INR", Symbol: "₹", Locale: "en-IN", Name: "Indian Rupee"},
	"USD": {Code: "USD", Symbol: "$", Locale: "en-US", Name: "US Dollar"},
	"EUR": {Code: "EUR", Symbol: "€", Locale: "en-150", Name: "Euro"},
	"GBP": {Code: "GBP", Symbol: "£", Locale: "en-GB", Name: "British Pound"},
	"AED": {Code: "AED", Symbol: "د.إ", Locale: "ar-AE", Name: "UAE Dirham"},
	"SGD": {Code: "SGD", Symbol: "S$", Locale: "en-SG", Name: "Singapore Dollar"},
	"CAD": {Code: "CAD", Symbol: "C$", Locale: "en-CA", Name: "Canadian Dollar"},
	"AUD": {Code: "AUD", Symbol: "A$", Locale: "en-AU", Name: "Australian Dollar"},
}

// DefaultCurrency is used when a deal carries no currency.
const DefaultCurrency = "INR"

// LookupCurrency returns display settings for code. Unknown codes display
// with the code itself as symbol.
func LookupCurrency(code string) Currency {
	if code == "" {
		code = DefaultCurrency
	}
	if c, ok := currencies[code]; ok {
		return c
	}
	return Currency{Code: code, Symbol: code, Locale: "en-US", Name: code}
}

// FormatMoney renders an amount with compact units: Cr/L/K for INR,
// B/M/K elsewhere. Small amounts use locale digit grouping.
func FormatMoney(amount float64, currency string) string {
	c := LookupCurrency(currency)

	type unit struct {
		min    float64
		suffix string
	}
	var units []unit
	if c.Code == "INR" {
		units = []unit{{1e7, "Cr"}, {1e5, "L"}, {1e3, "K"}}
	} else {
		units = []unit{{1e9, "B"}, {1e6, "M"}, {1e3, "K"}}
	}
	for _, u := range units {
		if amount >= u.min {
			return fmt.Sprintf("%s%.1f%s", c.Symbol, amount/u.min, u.suffix)
		}
	}

	tag, err := language.Parse(c.Locale)
	if err != nil {
		tag = language.English
	}
	p := message.NewPrinter(tag)
	return c.Symbol + p.Sprintf("%d", int64(math.Round(amount)))
}

// FormatPct renders a percentage value (7.5 -> "7.5%").
func FormatPct(v float64, decimals int) string {
	return fmt.Sprintf("%.*f%%", decimals, v)
}
