// Package dealsource loads the raw deal collection the board is built from.
package dealsource

import (
	"bytes"
	"context"
	_ "embed"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/dealboard/internal/config"
	"github.com/sells-group/dealboard/internal/model"
)

// Source produces a validated deal collection.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]model.Property, error)
}

// Lister is the slice of the store a StoreSource needs.
type Lister interface {
	ListDeals(ctx context.Context) ([]model.Property, error)
}

// New returns the source selected by cfg.Source. st is only used by the
// "store" source and may be nil otherwise.
func New(cfg config.DealsConfig, st Lister) (Source, error) {
	switch cfg.Source {
	case "", "static":
		return Static{}, nil
	case "store":
		if st == nil {
			return nil, eris.New("dealsource: store source needs a store")
		}
		return &StoreSource{lister: st}, nil
	case "http":
		return NewHTTP(HTTPOptions{
			URL:       cfg.URL,
			Timeout:   time.Duration(cfg.TimeoutSecs) * time.Second,
			RateLimit: cfg.RateLimit,
		})
	default:
		return nil, eris.Errorf("dealsource: unknown source %q", cfg.Source)
	}
}

//go:embed deals.yaml
var staticDeals []byte

type dealFile struct {
	Deals []model.Property `yaml:"deals"`
}

// Static serves the embedded seed table.
type Static struct{}

func (Static) Name() string { return "static" }

// Load parses the embedded table. Every call returns fresh values.
func (Static) Load(_ context.Context) ([]model.Property, error) {
	return ParseYAML(staticDeals)
}

// ParseYAML decodes a `deals:` document and validates every record.
func ParseYAML(data []byte) ([]model.Property, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f dealFile
	if err := dec.Decode(&f); err != nil {
		return nil, eris.Wrap(err, "dealsource: decode yaml")
	}
	if err := model.ValidateAll(f.Deals); err != nil {
		return nil, eris.Wrap(err, "dealsource: invalid deal")
	}
	return f.Deals, nil
}

// StoreSource reads deals previously seeded into the store.
type StoreSource struct {
	lister Lister
}

func (s *StoreSource) Name() string { return "store" }

func (s *StoreSource) Load(ctx context.Context) ([]model.Property, error) {
	deals, err := s.lister.ListDeals(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "dealsource: list stored deals")
	}
	return deals, nil
}
