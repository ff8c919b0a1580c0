// Package postgres implements the entry store on PostgreSQL via the pgx
// stdlib driver. Records are JSONB documents keyed by (user_id, entry_date).
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/skylog-app/skylog/internal/model"
	"github.com/skylog-app/skylog/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies
// connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS mood_entries (
    user_id    TEXT  NOT NULL,
    entry_date TEXT  NOT NULL,
    entry_id   TEXT  NOT NULL,
    doc        JSONB NOT NULL,
    PRIMARY KEY (user_id, entry_date)
);
CREATE INDEX IF NOT EXISTS idx_mood_entries_entry_id ON mood_entries (user_id, entry_id);
CREATE TABLE IF NOT EXISTS user_stats (
    user_id TEXT PRIMARY KEY,
    doc     JSONB NOT NULL
);
`

// Bootstrap verifies connectivity and ensures the schema exists.
func Bootstrap(ctx context.Context, dsn string) error {
	if dsn == "" {
		return nil // No DSN configured, skip bootstrap
	}
	db, err := Open(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Entries() store.Entries { return &entries{db: s.db} }
func (s *pgStore) Stats() store.Stats     { return &stats{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("postgres %s: %w: %v", op, model.ErrUnavailable, err)
}

type entries struct{ db *sql.DB }

func (e *entries) Get(ctx context.Context, userID string, date model.Date) (*model.MoodEntry, error) {
	var doc []byte
	row := e.db.QueryRowContext(ctx,
		`SELECT doc FROM mood_entries WHERE user_id=$1 AND entry_date=$2`, userID, string(date))
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, unavailable("get", err)
	}
	return decodeEntry(doc)
}

func (e *entries) GetByID(ctx context.Context, userID, entryID string) (*model.MoodEntry, error) {
	var doc []byte
	row := e.db.QueryRowContext(ctx,
		`SELECT doc FROM mood_entries WHERE user_id=$1 AND entry_id=$2`, userID, entryID)
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, unavailable("get_by_id", err)
	}
	return decodeEntry(doc)
}

func (e *entries) GetAll(ctx context.Context, userID string) ([]*model.MoodEntry, error) {
	rows, err := e.db.QueryContext(ctx,
		`SELECT doc FROM mood_entries WHERE user_id=$1 ORDER BY entry_date ASC`, userID)
	if err != nil {
		return nil, unavailable("get_all", err)
	}
	defer func() { _ = rows.Close() }()

	var res []*model.MoodEntry
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, unavailable("get_all", err)
		}
		ent, err := decodeEntry(doc)
		if err != nil {
			return nil, err
		}
		res = append(res, ent)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("get_all", err)
	}
	return res, nil
}

func (e *entries) Put(ctx context.Context, ent *model.MoodEntry) error {
	doc, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = e.db.ExecContext(ctx, `
        INSERT INTO mood_entries (user_id, entry_date, entry_id, doc)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (user_id, entry_date) DO UPDATE SET entry_id=EXCLUDED.entry_id, doc=EXCLUDED.doc
    `, ent.UserID, string(ent.Date), ent.EntryID, doc)
	if err != nil {
		return unavailable("put", err)
	}
	return nil
}

func (e *entries) Delete(ctx context.Context, userID string, date model.Date) error {
	res, err := e.db.ExecContext(ctx,
		`DELETE FROM mood_entries WHERE user_id=$1 AND entry_date=$2`, userID, string(date))
	if err != nil {
		return unavailable("delete", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.ErrNotFound
	}
	return nil
}

type stats struct{ db *sql.DB }

func (s *stats) Get(ctx context.Context, userID string) (*model.UserStats, error) {
	var doc []byte
	row := s.db.QueryRowContext(ctx, `SELECT doc FROM user_stats WHERE user_id=$1`, userID)
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, unavailable("stats_get", err)
	}
	var st model.UserStats
	if err := json.Unmarshal(doc, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *stats) Put(ctx context.Context, userID string, st *model.UserStats) error {
	doc, err := json.Marshal(st)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO user_stats (user_id, doc) VALUES ($1,$2)
        ON CONFLICT (user_id) DO UPDATE SET doc=EXCLUDED.doc
    `, userID, doc)
	if err != nil {
		return unavailable("stats_put", err)
	}
	return nil
}

func decodeEntry(doc []byte) (*model.MoodEntry, error) {
	var ent model.MoodEntry
	if err := json.Unmarshal(doc, &ent); err != nil {
		return nil, err
	}
	return &ent, nil
}
