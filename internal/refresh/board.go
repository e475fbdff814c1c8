// Package refresh keeps the in-memory deal board current and runs the
// scheduled maintenance jobs.
package refresh

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dealboard/internal/config"
	"github.com/sells-group/dealboard/internal/dealsource"
	"github.com/sells-group/dealboard/internal/enrich"
	"github.com/sells-group/dealboard/internal/model"
)

// Snapshot is an immutable, enriched view of the deal collection.
type Snapshot struct {
	Deals    []model.Property
	Source   string
	LoadedAt time.Time
}

// Deal returns a copy of the deal with the given id.
func (s *Snapshot) Deal(id string) (model.Property, bool) {
	for _, d := range s.Deals {
		if d.ID == id {
			return d.Clone(), true
		}
	}
	return model.Property{}, false
}

// Copy returns deep copies of every deal so callers can sort or filter freely.
func (s *Snapshot) Copy() []model.Property {
	out := make([]model.Property, len(s.Deals))
	for i, d := range s.Deals {
		out[i] = d.Clone()
	}
	return out
}

// Board holds the current snapshot. Readers never block a reload.
type Board struct {
	source  dealsource.Source
	scoring config.ScoringConfig
	current atomic.Pointer[Snapshot]
	now     func() time.Time
}

// NewBoard creates an empty board. Call Reload before serving.
func NewBoard(src dealsource.Source, scoring config.ScoringConfig) *Board {
	b := &Board{source: src, scoring: scoring, now: time.Now}
	b.current.Store(&Snapshot{Source: src.Name()})
	return b
}

// Snapshot returns the current snapshot. It is never nil.
func (b *Board) Snapshot() *Snapshot {
	return b.current.Load()
}

// Reload reads the source, enriches every deal and swaps the snapshot in.
// On error the previous snapshot stays in place.
func (b *Board) Reload(ctx context.Context) error {
	deals, err := b.source.Load(ctx)
	if err != nil {
		return eris.Wrapf(err, "refresh: load %s deals", b.source.Name())
	}
	snap := &Snapshot{
		Deals:    enrich.EnrichAll(deals, b.scoring),
		Source:   b.source.Name(),
		LoadedAt: b.now().UTC(),
	}
	b.current.Store(snap)
	zap.L().Info("deal board reloaded",
		zap.String("source", snap.Source),
		zap.Int("deals", len(snap.Deals)),
	)
	return nil
}
