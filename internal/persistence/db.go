// Package persistence provides SQLite-based campaign state storage.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/uprising/internal/rebellion"
)

// ErrNoState is returned by LoadState when no snapshot has been saved yet.
var ErrNoState = errors.New("no saved state")

// DB wraps a SQLite connection for campaign state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS org_state (
		key TEXT PRIMARY KEY,
		doc TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS journal (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		week INTEGER NOT NULL,
		kind TEXT NOT NULL,
		description TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS campaign_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_journal_week ON journal(week);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// stateKey is the single row the current snapshot lives under. Weekly
// archives handle history; the live table holds only the latest state.
const stateKey = "current"

// SaveState writes the full state snapshot (single-row replace).
func (db *DB) SaveState(st *rebellion.State) error {
	doc, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	_, err = db.conn.Exec(
		"INSERT OR REPLACE INTO org_state (key, doc, updated_at) VALUES (?, ?, ?)",
		stateKey, string(doc), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	slog.Debug("state saved", "week", st.Week, "rank", st.Rank)
	return nil
}

// LoadState reads the latest snapshot. Documents written by older builds
// load cleanly: missing fields take defaults and legacy collection shapes
// are repaired on decode.
func (db *DB) LoadState() (*rebellion.State, error) {
	var doc string
	err := db.conn.Get(&doc, "SELECT doc FROM org_state WHERE key = ?", stateKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return rebellion.FromDocument([]byte(doc))
}

// JournalEntry records one notable occurrence for the campaign log.
type JournalEntry struct {
	Week        int    `db:"week" json:"week"`
	Kind        string `db:"kind" json:"kind"`
	Description string `db:"description" json:"description"`
	CreatedAt   string `db:"created_at" json:"createdAt"`
}

// AppendJournal appends entries to the campaign journal.
func (db *DB) AppendJournal(entries []JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range entries {
		createdAt := e.CreatedAt
		if createdAt == "" {
			createdAt = time.Now().UTC().Format(time.RFC3339)
		}
		_, err := tx.Exec(
			"INSERT INTO journal (week, kind, description, created_at) VALUES (?, ?, ?, ?)",
			e.Week, e.Kind, e.Description, createdAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentJournal returns the most recent N journal entries.
func (db *DB) RecentJournal(limit int) ([]JournalEntry, error) {
	var entries []JournalEntry
	err := db.conn.Select(&entries,
		"SELECT week, kind, description, created_at FROM journal ORDER BY id DESC LIMIT ?",
		limit,
	)
	return entries, err
}

// SaveMeta stores a key-value pair in campaign metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO campaign_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM campaign_meta WHERE key = ?", key)
	return value, err
}
