package repository

import (
	"context"
	"errors"

	"steamprofile-rest-api/internal/model"
)

var (
	// ErrInvalidID is returned when a partition key is not a numeric identity.
	ErrInvalidID = errors.New("invalid steam64 id")

	// ErrInvalidCategory is returned for an unknown document category.
	ErrInvalidCategory = errors.New("invalid document category")
)

// DocumentStore is the canonical per-identity document store.
type DocumentStore interface {
	// Read decodes the document into v. Missing or corrupt documents report
	// false with a nil error; v is unspecified in that case.
	Read(ctx context.Context, steamID string, category model.Category, v any) (bool, error)

	// Write fully replaces the document. Concurrent readers observe either the
	// previous or the new document, never a partial one.
	Write(ctx context.Context, steamID string, category model.Category, v any) error

	// List returns the ids of every existing partition.
	List(ctx context.Context) ([]string, error)
}

// AliasIndex maps profile URLs, vanity names and id variants to numeric ids.
type AliasIndex interface {
	// Lookup returns the numeric id for alias, or "" if unknown.
	Lookup(ctx context.Context, alias string) (string, error)

	// Replace atomically swaps every alias of steamID for the given set.
	// An alias previously owned by another id moves to steamID.
	Replace(ctx context.Context, steamID string, aliases []string) error

	// Count returns the number of indexed identities.
	Count(ctx context.Context) (int64, error)

	// Close closes the underlying connection.
	Close() error
}
