package repository_test

import (
	"path/filepath"
	"testing"

	"steamprofile-rest-api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIndex(t *testing.T) *repository.SQLiteAliasIndex {
	t.Helper()

	idx, err := repository.NewSQLiteAliasIndex(t.Context(), filepath.Join(t.TempDir(), "idx", "aliases.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestSQLiteAliasIndex(t *testing.T) {
	t.Parallel()

	idx := newIndex(t)
	ctx := t.Context()

	got, err := idx.Lookup(ctx, "gaben")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, idx.Replace(ctx, testID, []string{testID, "gaben", "https://steamcommunity.com/id/gaben/", ""}))

	for _, alias := range []string{testID, "gaben", "https://steamcommunity.com/id/gaben/"} {
		got, err := idx.Lookup(ctx, alias)
		require.NoError(t, err)
		assert.Equal(t, testID, got, alias)
	}

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSQLiteAliasIndexReplaceDropsStaleAliases(t *testing.T) {
	t.Parallel()

	idx := newIndex(t)
	ctx := t.Context()

	require.NoError(t, idx.Replace(ctx, testID, []string{testID, "old"}))
	require.NoError(t, idx.Replace(ctx, testID, []string{testID, "new"}))

	got, err := idx.Lookup(ctx, "old")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = idx.Lookup(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, testID, got)
}

func TestSQLiteAliasIndexAliasMovesBetweenIdentities(t *testing.T) {
	t.Parallel()

	idx := newIndex(t)
	ctx := t.Context()
	other := "76561198000000001"

	require.NoError(t, idx.Replace(ctx, testID, []string{testID, "vanity"}))
	require.NoError(t, idx.Replace(ctx, other, []string{other, "vanity"}))

	got, err := idx.Lookup(ctx, "vanity")
	require.NoError(t, err)
	assert.Equal(t, other, got)

	got, err = idx.Lookup(ctx, testID)
	require.NoError(t, err)
	assert.Equal(t, testID, got)

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
