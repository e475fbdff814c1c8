package analyst

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dealboard/internal/model"
)

// Cache stores successful action results. GetAICache returns nil on a miss.
type Cache interface {
	GetAICache(ctx context.Context, key string, now time.Time) (*model.CacheEntry, error)
	SetAICache(ctx context.Context, entry model.CacheEntry) error
}

// Response is the wire shape of a successful action.
type Response struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data"`
	Cached   bool            `json:"cached,omitempty"`
	CacheAge int64           `json:"cacheAge,omitempty"` // milliseconds
}

// Service dispatches POST /api/ai actions and caches their results.
type Service struct {
	analyst Analyst
	cache   Cache
	ttl     time.Duration
	now     func() time.Time
}

// NewService creates a Service. cache may be nil to disable caching.
func NewService(a Analyst, cache Cache, ttl time.Duration) *Service {
	return &Service{analyst: a, cache: cache, ttl: ttl, now: time.Now}
}

// CacheKey derives the cache key for an action and its payload.
func CacheKey(action Action, data json.RawMessage) string {
	var compact bytes.Buffer
	if err := json.Compact(&compact, data); err != nil {
		compact.Reset()
		compact.Write(data)
	}
	sum := sha256.Sum256(append([]byte(string(action)+"-"), compact.Bytes()...))
	return string(action) + ":" + hex.EncodeToString(sum[:])
}

// Do runs action with data. Invalid input returns a *model.ValidationError;
// provider failures are returned wrapped and never cached.
func (s *Service) Do(ctx context.Context, action Action, data json.RawMessage) (*Response, error) {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, &model.ValidationError{Field: "data", Message: "is required"}
	}

	key := CacheKey(action, data)
	now := s.now()
	if s.cache != nil && s.ttl > 0 {
		entry, err := s.cache.GetAICache(ctx, key, now)
		if err != nil {
			zap.L().Warn("analyst: cache read failed", zap.String("action", string(action)), zap.Error(err))
		} else if entry != nil {
			return &Response{
				Success:  true,
				Data:     entry.Value,
				Cached:   true,
				CacheAge: now.Sub(entry.CreatedAt).Milliseconds(),
			}, nil
		}
	}

	result, err := s.dispatch(ctx, action, data)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, eris.Wrapf(err, "analyst: marshal %s result", action)
	}

	if s.cache != nil && s.ttl > 0 {
		entry := model.CacheEntry{Key: key, Value: raw, CreatedAt: now, ExpiresAt: now.Add(s.ttl)}
		if err := s.cache.SetAICache(ctx, entry); err != nil {
			zap.L().Warn("analyst: cache write failed", zap.String("action", string(action)), zap.Error(err))
		}
	}
	return &Response{Success: true, Data: raw}, nil
}

func (s *Service) dispatch(ctx context.Context, action Action, data json.RawMessage) (any, error) {
	switch action {
	case ActionAnalyzeDeal:
		var brief DealBrief
		if err := decode(data, &brief); err != nil {
			return nil, err
		}
		return s.analyst.AnalyzeDeal(ctx, brief)
	case ActionMarketInsights:
		var req MarketRequest
		if err := decode(data, &req); err != nil {
			return nil, err
		}
		return s.analyst.MarketInsights(ctx, req)
	case ActionInvestmentReport:
		var req ReportRequest
		if err := decode(data, &req); err != nil {
			return nil, err
		}
		return s.analyst.InvestmentReport(ctx, req)
	}
	_, err := ParseAction(string(action))
	return nil, err
}

func decode(data json.RawMessage, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &model.ValidationError{Field: "data", Message: err.Error()}
	}
	return nil
}
