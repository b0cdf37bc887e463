package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// aliasDialect carries the statements that differ between SQL backends.
type aliasDialect struct {
	name      string
	createDDL []string
	lookup    string
	deleteFor string
	upsert    string
	count     string
}

// sqlAliasIndex implements AliasIndex over database/sql.
type sqlAliasIndex struct {
	db      *sql.DB
	dialect aliasDialect
}

func newSQLAliasIndex(ctx context.Context, db *sql.DB, dialect aliasDialect) (*sqlAliasIndex, error) {
	for _, stmt := range dialect.createDDL {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to create %s alias table: %w", dialect.name, err)
		}
	}
	return &sqlAliasIndex{db: db, dialect: dialect}, nil
}

// Lookup returns the numeric id for alias, or "" if unknown.
func (r *sqlAliasIndex) Lookup(ctx context.Context, alias string) (string, error) {
	if alias == "" {
		return "", nil
	}

	var steamID string
	err := r.db.QueryRowContext(ctx, r.dialect.lookup, alias).Scan(&steamID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to lookup alias: %w", err)
	}
	return steamID, nil
}

// Replace swaps the alias set of steamID in one transaction.
func (r *sqlAliasIndex) Replace(ctx context.Context, steamID string, aliases []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.dialect.deleteFor, steamID); err != nil {
		return fmt.Errorf("failed to clear aliases for %s: %w", steamID, err)
	}

	stmt, err := tx.PrepareContext(ctx, r.dialect.upsert)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, alias := range aliases {
		if alias == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, alias, steamID, now); err != nil {
			return fmt.Errorf("failed to upsert alias %q: %w", alias, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Count returns the number of distinct indexed identities.
func (r *sqlAliasIndex) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, r.dialect.count).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count aliases: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (r *sqlAliasIndex) Close() error {
	return r.db.Close()
}
