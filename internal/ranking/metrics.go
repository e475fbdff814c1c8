package ranking

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/dealboard/internal/model"
)

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type site struct {
	location string
	address  string
	coords   Coordinates
}

// Listings are placed on these sites by position.
var sites = []site{
	{"Austin, TX", "1234 Oak Street, Austin, TX", Coordinates{30.2672, -97.7431}},
	{"Miami, FL", "5678 Pine Avenue, Miami, FL", Coordinates{25.7617, -80.1918}},
	{"Denver, CO", "9012 Elm Drive, Denver, CO", Coordinates{39.7392, -104.9903}},
	{"Raleigh, NC", "3456 Maple Lane, Raleigh, NC", Coordinates{35.7796, -78.6382}},
	{"Phoenix, AZ", "7890 Cedar Road, Phoenix, AZ", Coordinates{33.4484, -112.0740}},
	{"Atlanta, GA", "2345 Birch Street, Atlanta, GA", Coordinates{33.7490, -84.3880}},
	{"Charlotte, NC", "6789 Spruce Avenue, Charlotte, NC", Coordinates{35.2271, -80.8431}},
}

func siteAt(i int) site {
	if i >= 0 && i < len(sites) {
		return sites[i]
	}
	return site{location: "Unknown Location", address: "Unknown Address"}
}

// Metrics is the per-listing analysis the derived figures are computed from.
type Metrics struct {
	Score           float64
	ROI             float64
	ProfitPotential float64
	Risk            model.Risk
}

var fallbackMetrics = []Metrics{
	{92, 18.5, 95, model.RiskLow},
	{88, 22.3, 90, model.RiskMedium},
	{85, 15.7, 88, model.RiskLow},
	{87, 16.2, 89, model.RiskLow},
	{91, 25.8, 94, model.RiskMedium},
	{84, 14.9, 86, model.RiskMedium},
	{86, 17.1, 88, model.RiskLow},
}

var defaultMetrics = Metrics{Score: 75, ROI: 15, ProfitPotential: 80, Risk: model.RiskMedium}

// FallbackMetrics returns the deterministic metrics for position i.
func FallbackMetrics(i int) Metrics {
	if i >= 0 && i < len(fallbackMetrics) {
		return fallbackMetrics[i]
	}
	return defaultMetrics
}

// NOI is the annual net operating income implied by a score and ROI.
func NOI(score, roi float64) float64 {
	return math.Round(20000 + score*200 + roi*500)
}

// CapRatePct is the implied cap rate in percent, one decimal place.
func CapRatePct(score, roi float64) float64 {
	return math.Round((6+score/20+roi/10)*10) / 10
}

// BreakEvenMonths never drops below 12.
func BreakEvenMonths(score, roi float64) int {
	return max(12, 24-int(math.Floor(score/10))-int(math.Floor(roi/5)))
}

// BreakEven renders BreakEvenMonths for display.
func BreakEven(score, roi float64) string {
	return fmt.Sprintf("%d months", BreakEvenMonths(score, roi))
}

// DealLabel is the display category of a ranked deal.
func DealLabel(score, roi float64) string {
	switch {
	case score >= 90 && roi >= 20:
		return "Hyper Deal"
	case score >= 80 && roi >= 15:
		return "Fix & Flip"
	case score >= 75 && roi >= 12:
		return "Rental Property"
	}
	return "Investment Property"
}

const defaultPrice = "$500,000"

var pricePattern = regexp.MustCompile(`\$[\d,]+`)

// ExtractPrice finds the first dollar amount in tax data.
func ExtractPrice(taxData string) string {
	if m := pricePattern.FindString(taxData); m != "" {
		return m
	}
	return defaultPrice
}

// ParsePrice converts "$1,250,000" to 1250000. Unparseable or zero amounts
// fall back to the default price.
func ParsePrice(s string) float64 {
	clean := strings.NewReplacer("$", "", ",", "").Replace(s)
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || v <= 0 {
		return 500_000
	}
	return v
}

// PropertyType reads the property type from zoning notes.
func PropertyType(zoning string) string {
	z := strings.ToLower(zoning)
	switch {
	case strings.Contains(z, "multi-family"):
		return "Multi-Family"
	case strings.Contains(z, "condo"):
		return "Condo"
	}
	return "Single Family"
}

var distressWords = []string{"distress", "foreclos", "short sale", "bank-owned", "auction", "tax lien"}

// Discounts at or above this percentage mark a deal as mispriced.
const mispricedDiscountPct = 20

// categorize assigns the investment category from listing text, the
// valuation discount and the spread between the deal's and the market's cap
// rates. All figures are percentages.
func categorize(text string, discountPct, capPct, marketPct float64) model.Category {
	lower := strings.ToLower(text)
	for _, w := range distressWords {
		if strings.Contains(lower, w) {
			return model.CategoryDistressed
		}
	}
	if discountPct >= mispricedDiscountPct {
		return model.CategoryMispriced
	}
	if capPct-marketPct >= 1 {
		return model.CategoryCapRateArbitrage
	}
	return model.CategoryMispriced
}

func splitLocation(loc string) (city, state string) {
	city, state, ok := strings.Cut(loc, ",")
	if !ok {
		return strings.TrimSpace(loc), ""
	}
	return strings.TrimSpace(city), strings.TrimSpace(state)
}
