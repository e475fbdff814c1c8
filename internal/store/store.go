// Package store persists deals, user preferences, cached text-generation
// results and ranking runs in SQLite or Postgres.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dealboard/internal/config"
	"github.com/sells-group/dealboard/internal/model"
)

// ErrNotFound is wrapped by lookups that find no row.
var ErrNotFound = errors.New("store: not found")

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Store defines the persistence interface for the deal board.
type Store interface {
	// Deals
	ListDeals(ctx context.Context) ([]model.Property, error)
	GetDeal(ctx context.Context, id string) (*model.Property, error)
	UpsertDeals(ctx context.Context, deals []model.Property) (int64, error)

	// Preferences
	GetPreferences(ctx context.Context, userID string) (*model.UserPreferences, error)
	PutPreferences(ctx context.Context, userID string, prefs model.UserPreferences) error
	DeletePreferences(ctx context.Context, userID string) error

	// AI cache. GetAICache returns nil, nil on a miss or an expired entry.
	GetAICache(ctx context.Context, key string, now time.Time) (*model.CacheEntry, error)
	SetAICache(ctx context.Context, entry model.CacheEntry) error
	PruneAICache(ctx context.Context, now time.Time) (int64, error)

	// Rank runs
	SaveRankRun(ctx context.Context, dealCount int, result []byte) (*model.RankRun, error)
	GetRankRun(ctx context.Context, id string) (*model.RankRun, error)
	ListRankRuns(ctx context.Context, limit int) ([]model.RankRun, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 50

// Open connects to the configured backend and runs migrations.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "", "sqlite":
		s, err = NewSQLite(cfg.DatabaseURL)
	case "postgres":
		s, err = NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{MaxConns: cfg.MaxConns, MinConns: cfg.MinConns})
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func validateUserID(userID string) error {
	if userID == "" {
		return &model.ValidationError{Field: "userId", Message: "is required"}
	}
	return nil
}
