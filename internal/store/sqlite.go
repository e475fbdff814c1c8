package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/dealboard/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Timestamps are
// stored as Unix milliseconds.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		return nil, eris.New("sqlite: database path is required")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS deals (
	id         TEXT PRIMARY KEY,
	city       TEXT NOT NULL DEFAULT '',
	category   TEXT NOT NULL DEFAULT '',
	risk       TEXT NOT NULL DEFAULT '',
	price      REAL NOT NULL,
	data       TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS preferences (
	user_id    TEXT PRIMARY KEY,
	data       TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS ai_cache (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS rank_runs (
	id         TEXT PRIMARY KEY,
	deal_count INTEGER NOT NULL,
	result     TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_deals_city ON deals(city);
CREATE INDEX IF NOT EXISTS idx_deals_category ON deals(category);
CREATE INDEX IF NOT EXISTS idx_ai_cache_expires_at ON ai_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_rank_runs_created_at ON rank_runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Deals ---

func (s *SQLiteStore) ListDeals(ctx context.Context) ([]model.Property, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM deals ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list deals")
	}
	defer rows.Close()

	var deals []model.Property
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan deal")
		}
		var p model.Property
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal deal")
		}
		deals = append(deals, p)
	}
	return deals, eris.Wrap(rows.Err(), "sqlite: list deals iterate")
}

func (s *SQLiteStore) GetDeal(ctx context.Context, id string) (*model.Property, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM deals WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: deal %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get deal %s", id)
	}
	var p model.Property
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal deal")
	}
	return &p, nil
}

func (s *SQLiteStore) UpsertDeals(ctx context.Context, deals []model.Property) (int64, error) {
	if len(deals) == 0 {
		return 0, nil
	}
	if err := model.ValidateAll(deals); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert deals")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO deals (id, city, category, risk, price, data, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   city = excluded.city, category = excluded.category, risk = excluded.risk,
		   price = excluded.price, data = excluded.data, updated_at = excluded.updated_at`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert deals")
	}
	defer stmt.Close()

	now := time.Now().UTC().UnixMilli()
	var n int64
	for _, d := range deals {
		data, err := json.Marshal(d)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: marshal deal %s", d.ID)
		}
		if _, err := stmt.ExecContext(ctx, d.ID, d.City, string(d.Category), string(d.Risk), d.Price, string(data), now); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert deal %s", d.ID)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert deals")
	}
	return n, nil
}

// --- Preferences ---

func (s *SQLiteStore) GetPreferences(ctx context.Context, userID string) (*model.UserPreferences, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM preferences WHERE user_id = ?`, userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: preferences for %s", userID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get preferences %s", userID)
	}
	var prefs model.UserPreferences
	if err := json.Unmarshal([]byte(data), &prefs); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal preferences")
	}
	return &prefs, nil
}

func (s *SQLiteStore) PutPreferences(ctx context.Context, userID string, prefs model.UserPreferences) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	if err := prefs.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(prefs)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal preferences")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO preferences (user_id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		userID, string(data), time.Now().UTC().UnixMilli(),
	)
	return eris.Wrapf(err, "sqlite: put preferences %s", userID)
}

func (s *SQLiteStore) DeletePreferences(ctx context.Context, userID string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM preferences WHERE user_id = ?`, userID)
	return eris.Wrapf(err, "sqlite: delete preferences %s", userID)
}

// --- AI cache ---

func (s *SQLiteStore) GetAICache(ctx context.Context, key string, now time.Time) (*model.CacheEntry, error) {
	var (
		e                  model.CacheEntry
		created, expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT key, value, created_at, expires_at FROM ai_cache WHERE key = ? AND expires_at > ?`,
		key, now.UnixMilli(),
	).Scan(&e.Key, &e.Value, &created, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get ai cache")
	}
	e.CreatedAt = time.UnixMilli(created).UTC()
	e.ExpiresAt = time.UnixMilli(expiresAt).UTC()
	return &e, nil
}

func (s *SQLiteStore) SetAICache(ctx context.Context, entry model.CacheEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ai_cache (key, value, created_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, created_at = excluded.created_at, expires_at = excluded.expires_at`,
		entry.Key, entry.Value, entry.CreatedAt.UnixMilli(), entry.ExpiresAt.UnixMilli(),
	)
	return eris.Wrap(err, "sqlite: set ai cache")
}

func (s *SQLiteStore) PruneAICache(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ai_cache WHERE expires_at <= ?`, now.UnixMilli())
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prune ai cache")
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "sqlite: rows affected")
}

// --- Rank runs ---

func (s *SQLiteStore) SaveRankRun(ctx context.Context, dealCount int, result []byte) (*model.RankRun, error) {
	run := &model.RankRun{
		ID:        uuid.New().String(),
		DealCount: dealCount,
		Result:    result,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rank_runs (id, deal_count, result, created_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.DealCount, string(result), run.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert rank run")
	}
	return run, nil
}

func (s *SQLiteStore) GetRankRun(ctx context.Context, id string) (*model.RankRun, error) {
	run, err := scanRankRun(s.db.QueryRowContext(ctx,
		`SELECT id, deal_count, result, created_at FROM rank_runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: rank run %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get rank run %s", id)
	}
	return run, nil
}

func (s *SQLiteStore) ListRankRuns(ctx context.Context, limit int) ([]model.RankRun, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, deal_count, result, created_at FROM rank_runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list rank runs")
	}
	defer rows.Close()

	var runs []model.RankRun
	for rows.Next() {
		run, err := scanRankRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan rank run")
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list rank runs iterate")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRankRun(row scannable) (*model.RankRun, error) {
	var (
		run     model.RankRun
		result  string
		created int64
	)
	if err := row.Scan(&run.ID, &run.DealCount, &result, &created); err != nil {
		return nil, err
	}
	run.Result = json.RawMessage(result)
	run.CreatedAt = time.UnixMilli(created).UTC()
	return &run, nil
}
