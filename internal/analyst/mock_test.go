package analyst

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/dealboard/internal/model"
	"github.com/sells-group/dealboard/pkg/anthropic"
	"github.com/sells-group/dealboard/pkg/groq"
)

// --- Completer Mock ---

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, system, prompt string) (Completion, error) {
	args := m.Called(ctx, system, prompt)
	return args.Get(0).(Completion), args.Error(1)
}

// --- Analyst Mock ---

type mockAnalyst struct {
	mock.Mock
}

func (m *mockAnalyst) AnalyzeDeal(ctx context.Context, brief DealBrief) (*DealAnalysis, error) {
	args := m.Called(ctx, brief)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DealAnalysis), args.Error(1)
}

func (m *mockAnalyst) MarketInsights(ctx context.Context, req MarketRequest) (*MarketInsights, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MarketInsights), args.Error(1)
}

func (m *mockAnalyst) InvestmentReport(ctx context.Context, req ReportRequest) (*Report, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Report), args.Error(1)
}

// --- Cache Mock ---

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetAICache(ctx context.Context, key string, now time.Time) (*model.CacheEntry, error) {
	args := m.Called(ctx, key, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CacheEntry), args.Error(1)
}

func (m *mockCache) SetAICache(ctx context.Context, entry model.CacheEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// --- Anthropic Mock ---

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) Complete(ctx context.Context, req anthropic.CompletionRequest) (*anthropic.CompletionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.CompletionResponse), args.Error(1)
}

// --- Groq Mock ---

type mockGroqClient struct {
	mock.Mock
}

func (m *mockGroqClient) Complete(ctx context.Context, req groq.CompletionRequest) (*groq.CompletionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*groq.CompletionResponse), args.Error(1)
}
