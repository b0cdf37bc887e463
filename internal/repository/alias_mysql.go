package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLAliasIndex implements AliasIndex using MySQL.
type MySQLAliasIndex struct {
	*sqlAliasIndex
}

var mysqlDialect = aliasDialect{
	name: "mysql",
	createDDL: []string{
		`CREATE TABLE IF NOT EXISTS steam_aliases (
			alias VARCHAR(255) NOT NULL PRIMARY KEY,
			steam_id VARCHAR(17) NOT NULL,
			updated_at DATETIME NOT NULL,
			INDEX idx_steam_aliases_id (steam_id)
		)`,
	},
	lookup:    `SELECT steam_id FROM steam_aliases WHERE alias = ?`,
	deleteFor: `DELETE FROM steam_aliases WHERE steam_id = ?`,
	upsert: `INSERT INTO steam_aliases (alias, steam_id, updated_at) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE steam_id = VALUES(steam_id), updated_at = VALUES(updated_at)`,
	count: `SELECT COUNT(DISTINCT steam_id) FROM steam_aliases`,
}

// NewMySQLAliasIndex connects to MySQL and ensures the schema.
func NewMySQLAliasIndex(ctx context.Context, dsn string) (*MySQLAliasIndex, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	idx, err := newSQLAliasIndex(ctx, db, mysqlDialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &MySQLAliasIndex{idx}, nil
}

// Ensure MySQLAliasIndex implements AliasIndex
var _ AliasIndex = (*MySQLAliasIndex)(nil)
