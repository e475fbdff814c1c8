package dealsource

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/dealboard/internal/model"
	"github.com/sells-group/dealboard/internal/resilience"
)

// maxFeedBytes caps the size of a deal feed response.
const maxFeedBytes = 32 << 20

// HTTPOptions configures the JSON deal feed.
type HTTPOptions struct {
	URL        string
	UserAgent  string
	Timeout    time.Duration
	RateLimit  float64 // requests per second
	MaxRetries int
}

// HTTPSource fetches `{"deals": [...]}` from a remote feed.
type HTTPSource struct {
	client  *http.Client
	opts    HTTPOptions
	limiter *rate.Limiter
	retry   resilience.Policy
}

// NewHTTP creates an HTTPSource with defaults applied.
func NewHTTP(opts HTTPOptions) (*HTTPSource, error) {
	if opts.URL == "" {
		return nil, eris.New("dealsource: http source needs a url")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "dealboard/1.0"
	}
	return &HTTPSource{
		client:  &http.Client{Timeout: opts.Timeout},
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		retry:   resilience.NewPolicy("deal-feed", opts.MaxRetries),
	}, nil
}

func (h *HTTPSource) Name() string { return "http" }

// Load fetches and validates the feed, retrying transient failures.
func (h *HTTPSource) Load(ctx context.Context) ([]model.Property, error) {
	deals, err := resilience.Call(ctx, h.retry, "load", h.fetch)
	if err != nil {
		return nil, eris.Wrap(err, "dealsource: load feed")
	}
	if err := model.ValidateAll(deals); err != nil {
		return nil, eris.Wrap(err, "dealsource: invalid deal")
	}
	zap.L().Debug("deal feed loaded", zap.String("url", h.opts.URL), zap.Int("deals", len(deals)))
	return deals, nil
}

func (h *HTTPSource) fetch(ctx context.Context) ([]model.Property, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "dealsource: rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.opts.URL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "dealsource: build request")
	}
	req.Header.Set("User-Agent", h.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "dealsource: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.StatusError("dealsource", resp.StatusCode)
	}

	var body struct {
		Deals []model.Property `json:"deals"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxFeedBytes)).Decode(&body); err != nil {
		return nil, eris.Wrap(err, "dealsource: decode feed")
	}
	return body.Deals, nil
}
