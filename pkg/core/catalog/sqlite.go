package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/angelospk/gamecrawl/pkg/core/cooldown"
	coreerrors "github.com/angelospk/gamecrawl/pkg/core/errors"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

type migration struct {
	version string
	sql     string
}

var migrations = []migration{
	{
		version: "001_games",
		sql: `CREATE TABLE IF NOT EXISTS games (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            platform TEXT,
            score REAL,
            hours_to_beat REAL,
            score_attempts INTEGER NOT NULL DEFAULT 0,
            score_last_attempt TEXT,
            duration_attempts INTEGER NOT NULL DEFAULT 0,
            duration_last_attempt TEXT,
            extra_json TEXT,
            position INTEGER NOT NULL DEFAULT 0
        )`,
	},
	{
		version: "002_games_position_index",
		sql:     `CREATE INDEX IF NOT EXISTS idx_games_position ON games(position)`,
	},
}

const gameColumns = `id, name, platform, score, hours_to_beat, score_attempts, score_last_attempt,
    duration_attempts, duration_last_attempt, extra_json`

// SQLiteStore keeps the catalog in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *log.Logger
}

// NewSQLiteStore opens or creates the database at path and applies migrations.
func NewSQLiteStore(path string, logger *log.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = log.New()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create catalog directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection keeps writes ordered and makes the pragmas stick.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &SQLiteStore{db: db, path: path, logger: logger}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) applyMigrations(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)"); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	for _, m := range migrations {
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM schema_migrations WHERE version = ?", m.version).Scan(&count); err != nil {
			return fmt.Errorf("scan migration version: %w", err)
		}
		if count > 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
			return fmt.Errorf("record migration %s: %w", m.version, err)
		}
		s.logger.Debugf("Applied catalog migration %s", m.version)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// GetAll returns every entry in insertion order.
func (s *SQLiteStore) GetAll(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+gameColumns+` FROM games ORDER BY position, id`)
	if err != nil {
		return nil, s.wrap("list games", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return entries, nil
}

// GetByID returns the entry with id.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", coreerrors.ErrEntryNotFound, id)
	}
	if err != nil {
		return nil, s.wrap("get game", err)
	}
	return e, nil
}

// Update applies p to the entry with id.
func (s *SQLiteStore) Update(ctx context.Context, id string, p Patch) (*Entry, error) {
	e, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Apply(e)

	scoreLast, durationLast := nullableTime(e.ScoreRetry.LastAttempt), nullableTime(e.DurationRetry.LastAttempt)
	_, err = s.db.ExecContext(
		ctx,
		`UPDATE games
         SET score = ?, hours_to_beat = ?, score_attempts = ?, score_last_attempt = ?,
             duration_attempts = ?, duration_last_attempt = ?
         WHERE id = ?`,
		nullableFloat(e.Score),
		nullableFloat(e.HoursToBeat),
		e.ScoreRetry.Attempts,
		scoreLast,
		e.DurationRetry.Attempts,
		durationLast,
		id,
	)
	if err != nil {
		return nil, s.wrap("update game", err)
	}
	return e, nil
}

// Put inserts or replaces entries, keeping the order in which they were first added.
func (s *SQLiteStore) Put(ctx context.Context, entries ...Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.wrap("begin put tx", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var next int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), 0) FROM games`).Scan(&next); err != nil {
		return fmt.Errorf("read max position: %w", err)
	}

	for _, e := range entries {
		extra, err := marshalExtra(e.Extra)
		if err != nil {
			return fmt.Errorf("marshal extra for %s: %w", e.ID, err)
		}
		next++
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO games (
                id, name, platform, score, hours_to_beat, score_attempts, score_last_attempt,
                duration_attempts, duration_last_attempt, extra_json, position
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT(id) DO UPDATE SET
                name = excluded.name, platform = excluded.platform, score = excluded.score,
                hours_to_beat = excluded.hours_to_beat, score_attempts = excluded.score_attempts,
                score_last_attempt = excluded.score_last_attempt,
                duration_attempts = excluded.duration_attempts,
                duration_last_attempt = excluded.duration_last_attempt,
                extra_json = excluded.extra_json`,
			e.ID,
			e.Name,
			nullableString(e.Platform),
			nullableFloat(e.Score),
			nullableFloat(e.HoursToBeat),
			e.ScoreRetry.Attempts,
			nullableTime(e.ScoreRetry.LastAttempt),
			e.DurationRetry.Attempts,
			nullableTime(e.DurationRetry.LastAttempt),
			extra,
			next,
		)
		if err != nil {
			return fmt.Errorf("put game %s: %w", e.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put: %w", err)
	}
	return nil
}

func (s *SQLiteStore) wrap(op string, err error) error {
	if errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%s: %w", op, coreerrors.ErrStoreClosed)
	}
	return fmt.Errorf("%s: %w", op, err)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		e                          Entry
		platform, extra            sql.NullString
		score, hours               sql.NullFloat64
		scoreLast, durationLast    sql.NullString
		scoreAttempts, durAttempts int
	)
	if err := row.Scan(&e.ID, &e.Name, &platform, &score, &hours, &scoreAttempts, &scoreLast,
		&durAttempts, &durationLast, &extra); err != nil {
		return nil, err
	}
	e.Platform = platform.String
	if score.Valid {
		v := score.Float64
		e.Score = &v
	}
	if hours.Valid {
		v := hours.Float64
		e.HoursToBeat = &v
	}
	e.ScoreRetry = cooldown.State{Attempts: scoreAttempts, LastAttempt: parseTime(scoreLast)}
	e.DurationRetry = cooldown.State{Attempts: durAttempts, LastAttempt: parseTime(durationLast)}
	if extra.Valid && extra.String != "" {
		if err := json.Unmarshal([]byte(extra.String), &e.Extra); err != nil {
			return nil, fmt.Errorf("decode extra for %s: %w", e.ID, err)
		}
	}
	return &e, nil
}

func marshalExtra(extra map[string]json.RawMessage) (any, error) {
	if len(extra) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil
	}
	return &t
}
