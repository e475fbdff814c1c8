// Package groq is a chat-completion client for Groq's OpenAI-compatible API.
// It walks a preferred-model list and falls back to the next model when a
// call fails.
package groq

import (
	"context"
	"errors"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultBaseURL is Groq's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// Client defines the completion call used by the deal analyst.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest is a single system+user prompt.
type CompletionRequest struct {
	System      string
	User        string
	MaxTokens   int64
	Temperature *float64
}

// CompletionResponse carries the text and the model that produced it.
type CompletionResponse struct {
	Model        string
	Content      string
	InputTokens  int64
	OutputTokens int64
}

// StatusCode returns the HTTP status carried by an API error, or 0.
func StatusCode(err error) int {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

type sdkClient struct {
	client openai.Client
	models []string
}

// NewClient creates a Groq client. models is tried in order.
func NewClient(apiKey, baseURL string, models []string, opts ...option.RequestOption) (Client, error) {
	if len(models) == 0 {
		return nil, eris.New("groq: at least one model is required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base := []option.RequestOption{option.WithAPIKey(apiKey), option.WithBaseURL(baseURL), option.WithMaxRetries(0)}
	return &sdkClient{
		client: openai.NewClient(append(base, opts...)...),
		models: append([]string(nil), models...),
	}, nil
}

func (c *sdkClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	var msgs []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	msgs = append(msgs, openai.UserMessage(req.User))

	var lastErr error
	for _, model := range c.models {
		params := openai.ChatCompletionNewParams{
			Model:    openai.ChatModel(model),
			Messages: msgs,
		}
		if req.MaxTokens > 0 {
			params.MaxCompletionTokens = openai.Int(req.MaxTokens)
		}
		if req.Temperature != nil {
			params.Temperature = openai.Float(*req.Temperature)
		}

		resp, err := c.client.Chat.Completions.New(ctx, params)
		if err != nil {
			if ctx.Err() != nil {
				return nil, eris.Wrap(err, "groq: complete")
			}
			zap.L().Warn("groq: model failed, trying next",
				zap.String("model", model),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = eris.Errorf("groq: model %s returned no choices", model)
			continue
		}

		return &CompletionResponse{
			Model:        resp.Model,
			Content:      resp.Choices[0].Message.Content,
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		}, nil
	}

	return nil, eris.Wrap(lastErr, "groq: all models failed")
}
