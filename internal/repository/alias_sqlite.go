package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteAliasIndex implements AliasIndex using a local SQLite file.
type SQLiteAliasIndex struct {
	*sqlAliasIndex
}

var sqliteDialect = aliasDialect{
	name: "sqlite",
	createDDL: []string{
		`CREATE TABLE IF NOT EXISTS steam_aliases (
			alias TEXT PRIMARY KEY,
			steam_id TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_steam_aliases_id ON steam_aliases(steam_id)`,
	},
	lookup:    `SELECT steam_id FROM steam_aliases WHERE alias = ?`,
	deleteFor: `DELETE FROM steam_aliases WHERE steam_id = ?`,
	upsert: `INSERT INTO steam_aliases (alias, steam_id, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(alias) DO UPDATE SET steam_id = excluded.steam_id, updated_at = excluded.updated_at`,
	count: `SELECT COUNT(DISTINCT steam_id) FROM steam_aliases`,
}

// NewSQLiteAliasIndex opens (or creates) the index database at dbPath.
func NewSQLiteAliasIndex(ctx context.Context, dbPath string) (*SQLiteAliasIndex, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite connection pool settings
	db.SetMaxOpenConns(1) // SQLite only supports 1 writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	idx, err := newSQLAliasIndex(ctx, db, sqliteDialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteAliasIndex{idx}, nil
}

// Ensure SQLiteAliasIndex implements AliasIndex
var _ AliasIndex = (*SQLiteAliasIndex)(nil)
