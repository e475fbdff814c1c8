package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messageServer(t *testing.T, check func(body map[string]any)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/messages")

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if check != nil {
			check(body)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id":   "msg_test_001",
			"type": "message",
			"role": "assistant",
			"content": []map[string]any{
				{"type": "text", "text": "Strong cap rate "},
				{"type": "text", "text": "versus market."},
			},
			"model":       "claude-haiku-4-5-20251001",
			"stop_reason": "end_turn",
			"usage": map[string]any{
				"input_tokens":  120,
				"output_tokens": 40,
			},
		})
	}))
}

func TestComplete(t *testing.T) {
	ts := messageServer(t, func(body map[string]any) {
		assert.Equal(t, "claude-haiku-4-5-20251001", body["model"])
		assert.EqualValues(t, 512, body["max_tokens"])
		msgs := body["messages"].([]any)
		require.Len(t, msgs, 1)
		assert.Equal(t, "user", msgs[0].(map[string]any)["role"])
	})
	defer ts.Close()

	client := NewClient("test-key", option.WithBaseURL(ts.URL))
	resp, err := client.Complete(context.Background(), CompletionRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 512,
		User:      "Analyze this deal",
	})
	require.NoError(t, err)
	assert.Equal(t, "msg_test_001", resp.ID)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, "Strong cap rate versus market.", resp.Text)
	assert.Equal(t, Usage{InputTokens: 120, OutputTokens: 40}, resp.Usage)
}

func TestComplete_SystemAndTemperature(t *testing.T) {
	ts := messageServer(t, func(body map[string]any) {
		system := body["system"].([]any)
		require.Len(t, system, 1)
		assert.Equal(t, "You are a real estate analyst.", system[0].(map[string]any)["text"])
		assert.InDelta(t, 0.2, body["temperature"], 1e-9)
	})
	defer ts.Close()

	temp := 0.2
	client := NewClient("test-key", option.WithBaseURL(ts.URL))
	_, err := client.Complete(context.Background(), CompletionRequest{
		Model:       "claude-haiku-4-5-20251001",
		MaxTokens:   256,
		System:      "You are a real estate analyst.",
		User:        "hi",
		Temperature: &temp,
	})
	require.NoError(t, err)
}

func TestComplete_ThrottledIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`)) //nolint:errcheck
	}))
	defer ts.Close()

	client := NewClient("test-key", option.WithBaseURL(ts.URL))
	_, err := client.Complete(context.Background(), CompletionRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 16,
		User:      "hi",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic: complete")
	assert.Equal(t, http.StatusTooManyRequests, StatusCode(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestStatusCode_NonAPIError(t *testing.T) {
	assert.Zero(t, StatusCode(errors.New("dial tcp: refused")))
	assert.Zero(t, StatusCode(nil))
}

func TestUsage_CostUSD(t *testing.T) {
	u := Usage{InputTokens: 1_000_000, OutputTokens: 1_000_000}
	assert.InDelta(t, 4.80, u.CostUSD("claude-haiku-4-5-20251001"), 1e-9)
	assert.Zero(t, u.CostUSD("unknown-model"))
}
