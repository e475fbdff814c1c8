package analyst

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dealboard/internal/resilience"
	"github.com/sells-group/dealboard/pkg/anthropic"
	"github.com/sells-group/dealboard/pkg/groq"
)

// Completer turns a system and user prompt into text.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (Completion, error)
}

// Completion is the text a provider returned and the model that wrote it.
type Completion struct {
	Text  string
	Model string
}

// LLM is an Analyst backed by a text-generation provider.
type LLM struct {
	completer Completer
	provider  string
}

// NewLLM wraps completer as an Analyst. provider names it in logs.
func NewLLM(provider string, completer Completer) *LLM {
	return &LLM{completer: completer, provider: provider}
}

func (l *LLM) complete(ctx context.Context, action Action, system, prompt string) (Completion, error) {
	out, err := l.completer.Complete(ctx, system, prompt)
	if err != nil {
		return Completion{}, eris.Wrapf(err, "analyst: %s via %s", action, l.provider)
	}
	if strings.TrimSpace(out.Text) == "" {
		return Completion{}, eris.Errorf("analyst: %s via %s: empty response", action, l.provider)
	}
	zap.L().Debug("analyst: completion",
		zap.String("provider", l.provider),
		zap.String("action", string(action)),
		zap.String("model", out.Model),
		zap.Int("chars", len(out.Text)),
	)
	return out, nil
}

func (l *LLM) AnalyzeDeal(ctx context.Context, brief DealBrief) (*DealAnalysis, error) {
	out, err := l.complete(ctx, ActionAnalyzeDeal, systemPrompt, buildDealPrompt(brief))
	if err != nil {
		return nil, err
	}
	a := ParseDealAnalysis(out.Text)
	a.Model = out.Model
	return a, nil
}

func (l *LLM) MarketInsights(ctx context.Context, req MarketRequest) (*MarketInsights, error) {
	out, err := l.complete(ctx, ActionMarketInsights, marketSystemPrompt, buildMarketPrompt(req))
	if err != nil {
		return nil, err
	}
	m := ParseMarketInsights(out.Text)
	m.Model = out.Model
	return m, nil
}

func (l *LLM) InvestmentReport(ctx context.Context, req ReportRequest) (*Report, error) {
	out, err := l.complete(ctx, ActionInvestmentReport, systemPrompt, buildReportPrompt(req))
	if err != nil {
		return nil, err
	}
	r := ParseReport(out.Text)
	r.Model = out.Model
	return r, nil
}

// AnthropicCompleter adapts the Anthropic Messages API.
type AnthropicCompleter struct {
	Client    anthropic.Client
	Model     string
	MaxTokens int64
}

func (c *AnthropicCompleter) Complete(ctx context.Context, system, prompt string) (Completion, error) {
	temp := 0.3
	resp, err := c.Client.Complete(ctx, anthropic.CompletionRequest{
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		System:      system,
		User:        prompt,
		Temperature: &temp,
	})
	if err != nil {
		return Completion{}, upstreamError(ProviderAnthropic, anthropic.StatusCode(err), err)
	}
	zap.L().Info("anthropic usage",
		zap.String("model", resp.Model),
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens),
		zap.Float64("estimated_cost_usd", resp.Usage.CostUSD(resp.Model)),
	)
	return Completion{Text: resp.Text, Model: resp.Model}, nil
}

// GroqCompleter adapts the Groq chat-completion client.
type GroqCompleter struct {
	Client    groq.Client
	MaxTokens int64
}

func (c *GroqCompleter) Complete(ctx context.Context, system, prompt string) (Completion, error) {
	temp := 0.3
	resp, err := c.Client.Complete(ctx, groq.CompletionRequest{
		System:      system,
		User:        prompt,
		MaxTokens:   c.MaxTokens,
		Temperature: &temp,
	})
	if err != nil {
		return Completion{}, upstreamError(ProviderGroq, groq.StatusCode(err), err)
	}
	zap.L().Info("groq usage",
		zap.String("model", resp.Model),
		zap.Int64("input_tokens", resp.InputTokens),
		zap.Int64("output_tokens", resp.OutputTokens),
	)
	return Completion{Text: resp.Content, Model: resp.Model}, nil
}

// upstreamError tags provider failures with their HTTP status so the Guard
// can tell throttling from a bad request.
func upstreamError(provider string, status int, err error) error {
	if status == 0 {
		return err
	}
	return &resilience.UpstreamError{Upstream: provider, Status: status, Err: err}
}
