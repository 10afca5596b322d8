package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteDB implements the DB interface using SQLite
type SQLiteDB struct {
	sqlStore
}

var _ DB = (*SQLiteDB)(nil)

// NewSQLiteDB creates a new SQLite database connection
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: enable WAL mode: %w", err)
	}

	return &SQLiteDB{sqlStore{db: db, migrations: sqliteMigrations}}, nil
}

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		strategy TEXT NOT NULL,
		server_seed_hash TEXT NOT NULL DEFAULT '',
		client_seed TEXT NOT NULL DEFAULT '',
		nonce_start INTEGER NOT NULL DEFAULT 0,
		start_balance TEXT NOT NULL,
		stake TEXT NOT NULL,
		max_rounds INTEGER NOT NULL,
		final_balance TEXT,
		final_state TEXT NOT NULL DEFAULT 'running',
		rounds INTEGER NOT NULL DEFAULT 0,
		wins INTEGER NOT NULL DEFAULT 0,
		losses INTEGER NOT NULL DEFAULT 0,
		wagered TEXT NOT NULL DEFAULT '0',
		profit TEXT NOT NULL DEFAULT '0',
		longest_win INTEGER NOT NULL DEFAULT 0,
		longest_lose INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		ended_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS rounds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		round INTEGER NOT NULL,
		target TEXT NOT NULL,
		multiplier INTEGER NOT NULL,
		rolled INTEGER NOT NULL,
		balance_before TEXT NOT NULL,
		stake TEXT NOT NULL,
		amount_won TEXT NOT NULL,
		balance_after TEXT NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rounds_session ON rounds(session_id, round)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at)`,
}
