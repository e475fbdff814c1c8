package analyst

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/dealboard/internal/config"
	"github.com/sells-group/dealboard/pkg/anthropic"
	"github.com/sells-group/dealboard/pkg/groq"
)

// Provider names accepted by analyst.provider.
const (
	ProviderTemplate  = "template"
	ProviderAnthropic = "anthropic"
	ProviderGroq      = "groq"
)

const defaultMaxTokens = 1500

// New builds the configured analyst. Network-backed providers are wrapped
// in a Guard; the template provider is Offline.
func New(cfg *config.Config) (Analyst, error) {
	guard := GuardConfig{
		RequestsPerSecond: cfg.Analyst.RequestsPerSecond,
		MaxConcurrency:    cfg.Analyst.MaxConcurrency,
		MaxRetries:        cfg.Analyst.MaxRetries,
	}

	switch cfg.Analyst.Provider {
	case "", ProviderTemplate:
		return Offline{}, nil
	case ProviderAnthropic:
		if cfg.Anthropic.Key == "" {
			return nil, eris.New("analyst: anthropic.key is required")
		}
		maxTokens := cfg.Anthropic.MaxTokens
		if maxTokens <= 0 {
			maxTokens = defaultMaxTokens
		}
		c := &AnthropicCompleter{
			Client:    anthropic.NewClient(cfg.Anthropic.Key),
			Model:     cfg.Anthropic.Model,
			MaxTokens: maxTokens,
		}
		return NewGuard(NewLLM(ProviderAnthropic, c), guard), nil
	case ProviderGroq:
		if cfg.Groq.Key == "" {
			return nil, eris.New("analyst: groq.key is required")
		}
		client, err := groq.NewClient(cfg.Groq.Key, cfg.Groq.BaseURL, cfg.Groq.Models)
		if err != nil {
			return nil, eris.Wrap(err, "analyst: create groq client")
		}
		c := &GroqCompleter{Client: client, MaxTokens: defaultMaxTokens}
		return NewGuard(NewLLM(ProviderGroq, c), guard), nil
	}
	return nil, eris.Errorf("analyst: unknown provider %q", cfg.Analyst.Provider)
}
