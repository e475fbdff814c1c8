package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/dealboard/internal/db"
	"github.com/sells-group/dealboard/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements are prepared on each new connection.
var preparedStatements = map[string]string{
	"get_deal":        `SELECT data FROM deals WHERE id = $1`,
	"get_preferences": `SELECT data FROM preferences WHERE user_id = $1`,
	"get_ai_cache":    `SELECT key, value, created_at, expires_at FROM ai_cache WHERE key = $1 AND expires_at > $2`,
	"get_rank_run":    `SELECT id, deal_count, result, created_at FROM rank_runs WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS deals (
	id         TEXT PRIMARY KEY,
	city       TEXT NOT NULL DEFAULT '',
	category   TEXT NOT NULL DEFAULT '',
	risk       TEXT NOT NULL DEFAULT '',
	price      DOUBLE PRECISION NOT NULL,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS preferences (
	user_id    TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS ai_cache (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS rank_runs (
	id         TEXT PRIMARY KEY,
	deal_count INTEGER NOT NULL,
	result     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_deals_city ON deals(city);
CREATE INDEX IF NOT EXISTS idx_deals_category ON deals(category);
CREATE INDEX IF NOT EXISTS idx_ai_cache_expires_at ON ai_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_rank_runs_created_at ON rank_runs(created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if p, ok := s.pool.(interface{ Ping(context.Context) error }); ok {
		return eris.Wrap(p.Ping(ctx), "postgres: ping")
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// --- Deals ---

func (s *PostgresStore) ListDeals(ctx context.Context) ([]model.Property, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM deals ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list deals")
	}
	defer rows.Close()

	var deals []model.Property
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan deal")
		}
		var p model.Property
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal deal")
		}
		deals = append(deals, p)
	}
	return deals, eris.Wrap(rows.Err(), "postgres: list deals iterate")
}

func (s *PostgresStore) GetDeal(ctx context.Context, id string) (*model.Property, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM deals WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: deal %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get deal %s", id)
	}
	var p model.Property
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal deal")
	}
	return &p, nil
}

var dealsUpsert = db.UpsertConfig{
	Table:        "deals",
	Columns:      []string{"id", "city", "category", "risk", "price", "data", "updated_at"},
	ConflictKeys: []string{"id"},
}

func (s *PostgresStore) UpsertDeals(ctx context.Context, deals []model.Property) (int64, error) {
	if len(deals) == 0 {
		return 0, nil
	}
	if err := model.ValidateAll(deals); err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	rows := make([][]any, 0, len(deals))
	for _, d := range deals {
		data, err := json.Marshal(d)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: marshal deal %s", d.ID)
		}
		rows = append(rows, []any{d.ID, d.City, string(d.Category), string(d.Risk), d.Price, data, now})
	}
	n, err := db.BulkUpsert(ctx, s.pool, dealsUpsert, rows)
	return n, eris.Wrap(err, "postgres: upsert deals")
}

// --- Preferences ---

func (s *PostgresStore) GetPreferences(ctx context.Context, userID string) (*model.UserPreferences, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM preferences WHERE user_id = $1`, userID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: preferences for %s", userID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get preferences %s", userID)
	}
	var prefs model.UserPreferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal preferences")
	}
	return &prefs, nil
}

func (s *PostgresStore) PutPreferences(ctx context.Context, userID string, prefs model.UserPreferences) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	if err := prefs.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(prefs)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal preferences")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO preferences (user_id, data, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (user_id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		userID, data,
	)
	return eris.Wrapf(err, "postgres: put preferences %s", userID)
}

func (s *PostgresStore) DeletePreferences(ctx context.Context, userID string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM preferences WHERE user_id = $1`, userID)
	return eris.Wrapf(err, "postgres: delete preferences %s", userID)
}

// --- AI cache ---

func (s *PostgresStore) GetAICache(ctx context.Context, key string, now time.Time) (*model.CacheEntry, error) {
	var e model.CacheEntry
	err := s.pool.QueryRow(ctx,
		`SELECT key, value, created_at, expires_at FROM ai_cache WHERE key = $1 AND expires_at > $2`,
		key, now,
	).Scan(&e.Key, &e.Value, &e.CreatedAt, &e.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get ai cache")
	}
	return &e, nil
}

func (s *PostgresStore) SetAICache(ctx context.Context, entry model.CacheEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO ai_cache (key, value, created_at, expires_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at`,
		entry.Key, entry.Value, entry.CreatedAt, entry.ExpiresAt,
	)
	return eris.Wrap(err, "postgres: set ai cache")
}

func (s *PostgresStore) PruneAICache(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM ai_cache WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: prune ai cache")
	}
	return tag.RowsAffected(), nil
}

// --- Rank runs ---

func (s *PostgresStore) SaveRankRun(ctx context.Context, dealCount int, result []byte) (*model.RankRun, error) {
	run := &model.RankRun{
		ID:        uuid.New().String(),
		DealCount: dealCount,
		Result:    result,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO rank_runs (id, deal_count, result, created_at) VALUES ($1, $2, $3, $4)`,
		run.ID, run.DealCount, result, run.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert rank run")
	}
	return run, nil
}

func (s *PostgresStore) GetRankRun(ctx context.Context, id string) (*model.RankRun, error) {
	var (
		run    model.RankRun
		result []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, deal_count, result, created_at FROM rank_runs WHERE id = $1`, id,
	).Scan(&run.ID, &run.DealCount, &result, &run.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: rank run %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get rank run %s", id)
	}
	run.Result = result
	return &run, nil
}

func (s *PostgresStore) ListRankRuns(ctx context.Context, limit int) ([]model.RankRun, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, deal_count, result, created_at FROM rank_runs ORDER BY created_at DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list rank runs")
	}
	defer rows.Close()

	var runs []model.RankRun
	for rows.Next() {
		var (
			run    model.RankRun
			result []byte
		)
		if err := rows.Scan(&run.ID, &run.DealCount, &result, &run.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan rank run")
		}
		run.Result = result
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list rank runs iterate")
}
