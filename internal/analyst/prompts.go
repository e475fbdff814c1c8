package analyst

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are an expert real estate investment advisor with deep market knowledge, financial analysis expertise and strategic investment planning capabilities. Provide comprehensive, actionable insights for real estate investors."

const marketSystemPrompt = "You are a real estate market intelligence analyst with expertise in market trends, investment opportunities, and economic factors affecting real estate markets."

const dealPrompt = `Analyze this real estate opportunity and provide comprehensive insights.

PROPERTY DETAILS:
- Description: %s
- Location: %s
- Price: %s
- Property Type: %s
- Context: %s

Cover location and neighborhood, property condition and value, comparable sales, cash flow
and ROI, risk factors and exit strategies.

State explicitly, on separate lines:
- Investment score: <0-100>/100
- Expected ROI: <percent>%%
- Risk level: low, medium or high
- Profit potential: <percent>%%

Finish with concrete recommendations.`

const marketPrompt = `Provide market intelligence for real estate investors.

MARKET: %s

RANKED DEALS:
%s

MIGRATION PATTERNS:
%s

MARKET ECONOMICS:
%s

Start with a line "Market trend: <one sentence>". Then cover price momentum, supply and demand,
emerging opportunities, investment strategies, risk factors, and what you predict for the next
6-12 months.`

const reportPrompt = `Write an investment report for this property.

PROPERTY:
- Title: %s
- Address: %s
- Location: %s
- Price: %s
- Property Type: %s
- Cap Rate: %s
- NOI: %s
- Description: %s
- Context: %s

Include an executive summary, key findings as bullet points, financial projections, risk
assessment and recommendations.`

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func buildDealPrompt(b DealBrief) string {
	ctx := b.Context
	if ctx == "" {
		ctx = "Investment analysis request"
	}
	return fmt.Sprintf(dealPrompt, orNA(b.Description), orNA(b.Location), orNA(b.Price), orNA(b.Type), ctx)
}

func buildMarketPrompt(r MarketRequest) string {
	market := r.Market
	if market == "" {
		market = "All tracked markets"
	}
	var deals strings.Builder
	for i, d := range r.Deals {
		fmt.Fprintf(&deals, "%d. %s: score %.0f, ROI %.1f%%, cap rate %.1f%%, %s\n",
			i+1, d.Address, d.Score, d.ROI, d.CapRate, d.Category)
	}
	return fmt.Sprintf(marketPrompt, market, orNA(deals.String()), orNA(r.MigrationPatterns), orNA(r.MarketEconomics))
}

func buildReportPrompt(r ReportRequest) string {
	price := "N/A"
	if r.Price > 0 {
		price = fmt.Sprintf("%.0f", r.Price)
	}
	capRate := "N/A"
	if r.CapRate != nil {
		capRate = fmt.Sprintf("%.2f%%", *r.CapRate*100)
	}
	noi := "N/A"
	if r.NOI != nil {
		noi = fmt.Sprintf("%.0f", *r.NOI)
	}
	return fmt.Sprintf(reportPrompt, orNA(r.Title), orNA(r.Address), orNA(r.Location), price,
		orNA(r.Type), capRate, noi, orNA(r.Description), orNA(r.Context))
}
