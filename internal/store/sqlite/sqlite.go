// Package sqlite implements the entry store on a local SQLite file using the
// pure-Go modernc driver. Records are stored as JSON documents keyed by
// (user_id, entry_date), mirroring the key-path document layout the service
// expects from its store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/skylog-app/skylog/internal/model"
	"github.com/skylog-app/skylog/internal/store"
)

// Open opens (or creates) a SQLite database at the given path and enables WAL
// journal mode for better read concurrency.
func Open(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
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
    user_id    TEXT NOT NULL,
    entry_date TEXT NOT NULL,
    entry_id   TEXT NOT NULL,
    doc        TEXT NOT NULL,
    PRIMARY KEY (user_id, entry_date)
);
CREATE INDEX IF NOT EXISTS idx_mood_entries_entry_id ON mood_entries (user_id, entry_id);
CREATE TABLE IF NOT EXISTS user_stats (
    user_id TEXT PRIMARY KEY,
    doc     TEXT NOT NULL
);
`

// New opens the database file and ensures the schema exists.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

// NewWithDB wraps an existing connection; the caller owns schema setup.
func NewWithDB(db *sql.DB) (store.Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Entries() store.Entries { return &entries{db: s.db} }
func (s *sqliteStore) Stats() store.Stats     { return &stats{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *sqliteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// unavailable tags driver I/O failures so callers can match model.ErrUnavailable.
func unavailable(op string, err error) error {
	return fmt.Errorf("sqlite %s: %w: %v", op, model.ErrUnavailable, err)
}

type entries struct{ db *sql.DB }

func (e *entries) Get(ctx context.Context, userID string, date model.Date) (*model.MoodEntry, error) {
	var doc []byte
	row := e.db.QueryRowContext(ctx,
		`SELECT doc FROM mood_entries WHERE user_id=? AND entry_date=?`, userID, string(date))
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
		`SELECT doc FROM mood_entries WHERE user_id=? AND entry_id=?`, userID, entryID)
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
		`SELECT doc FROM mood_entries WHERE user_id=? ORDER BY entry_date ASC`, userID)
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
        VALUES (?,?,?,?)
        ON CONFLICT (user_id, entry_date) DO UPDATE SET entry_id=excluded.entry_id, doc=excluded.doc
    `, ent.UserID, string(ent.Date), ent.EntryID, doc)
	if err != nil {
		return unavailable("put", err)
	}
	return nil
}

func (e *entries) Delete(ctx context.Context, userID string, date model.Date) error {
	res, err := e.db.ExecContext(ctx,
		`DELETE FROM mood_entries WHERE user_id=? AND entry_date=?`, userID, string(date))
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
	row := s.db.QueryRowContext(ctx, `SELECT doc FROM user_stats WHERE user_id=?`, userID)
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
        INSERT INTO user_stats (user_id, doc) VALUES (?,?)
        ON CONFLICT (user_id) DO UPDATE SET doc=excluded.doc
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
