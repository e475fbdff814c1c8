package analyst

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/dealboard/internal/model"
)

// Values used when a provider reply does not state a metric.
const (
	DefaultScore           = 75
	DefaultROI             = 15.0
	DefaultProfitPotential = 80.0
	DefaultRisk            = model.RiskMedium

	defaultTrend       = "Growing market with strong fundamentals"
	defaultMarketTrend = "Stable with growth potential"
	summaryLen         = 200
)

var (
	scorePattern  = regexp.MustCompile(`(?i)(?:score|rating).*?(\d+)(?:/100|%|\s+out\s+of\s+100)`)
	roiPattern    = regexp.MustCompile(`(?i)(?:roi|return).*?(\d+(?:\.\d+)?)%`)
	riskPattern   = regexp.MustCompile(`(?i)risk.*?(low|medium|high)`)
	profitPattern = regexp.MustCompile(`(?i)profit.*?(\d+(?:\.\d+)?)%`)
	trendPattern  = regexp.MustCompile(`(?i)trend[^:\n]*:\s*(.+)`)
	numberedLine  = regexp.MustCompile(`^\d+\.`)
)

// ParseDealAnalysis pulls the deal metrics out of free text.
func ParseDealAnalysis(text string) *DealAnalysis {
	a := &DealAnalysis{
		Score:           DefaultScore,
		ROI:             DefaultROI,
		RiskLevel:       DefaultRisk,
		ProfitPotential: DefaultProfitPotential,
		MarketTrend:     defaultMarketTrend,
		Analysis:        text,
		Recommendations: firstN(filterLines(text, func(l string) bool {
			return strings.Contains(l, "recommend") || strings.Contains(l, "suggest") || strings.Contains(l, "should")
		}), 3),
	}
	if m := scorePattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			a.Score = min(v, 100)
		}
	}
	if m := roiPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			a.ROI = v
		}
	}
	if m := riskPattern.FindStringSubmatch(text); m != nil {
		a.RiskLevel = model.Risk(strings.ToLower(m[1]))
	}
	if m := profitPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			a.ProfitPotential = v
		}
	}
	return a
}

// ParseMarketInsights splits market commentary into its sections.
func ParseMarketInsights(text string) *MarketInsights {
	m := &MarketInsights{
		Trend:         defaultTrend,
		Raw:           text,
		Opportunities: firstN(filterLines(text, containsAny("opportunity", "potential", "emerging")), 5),
		Strategies:    firstN(filterSentences(text, containsAny("strategy", "approach")), 3),
		RiskFactors:   firstN(filterSentences(text, containsAny("risk", "caution")), 3),
	}
	if t := trendPattern.FindStringSubmatch(text); t != nil {
		m.Trend = strings.TrimRight(strings.TrimSpace(t[1]), ".")
	}
	preds := firstN(filterLines(text, containsAny("predict", "forecast", "expect")), 2)
	m.Predictions = strings.Join(preds, " ")
	return m
}

// ParseReport splits an investment report into its sections.
func ParseReport(text string) *Report {
	summary := text
	if r := []rune(text); len(r) > summaryLen {
		summary = string(r[:summaryLen]) + "..."
	}
	return &Report{
		ExecutiveSummary: summary,
		KeyFindings: firstN(filterLines(text, func(l string) bool {
			return strings.Contains(l, "•") || strings.Contains(l, "-") || numberedLine.MatchString(l)
		}), 5),
		Recommendations: firstN(filterSentences(text, containsAny("recommend", "suggest")), 3),
		RiskAssessment:  firstN(filterSentences(text, containsAny("risk", "warning")), 2),
		Raw:             text,
	}
}

func containsAny(words ...string) func(string) bool {
	return func(s string) bool {
		lower := strings.ToLower(s)
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}
}

func filterLines(text string, keep func(string) bool) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		if l != "" && keep(l) {
			out = append(out, l)
		}
	}
	return out
}

func filterSentences(text string, keep func(string) bool) []string {
	var out []string
	for _, s := range strings.Split(text, ".") {
		s = strings.TrimSpace(s)
		if s != "" && keep(s) {
			out = append(out, s)
		}
	}
	return out
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
