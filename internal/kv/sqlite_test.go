package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T, path string) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_GetMissingKey(t *testing.T) {
	s := newTestSQLite(t, ":memory:")

	v, ok, err := s.Get(context.Background(), KeyTasks)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestSQLiteStore_SetOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t, ":memory:")

	require.NoError(t, s.Set(ctx, KeyTasks, `[]`))
	require.NoError(t, s.Set(ctx, KeyTasks, `[{"id":"a"}]`))

	v, ok, err := s.Get(ctx, KeyTasks)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"a"}]`, v)
}

func TestSQLiteStore_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t, ":memory:")

	require.NoError(t, s.Set(ctx, KeyTasks, "1"))
	require.NoError(t, s.Set(ctx, KeyCategories, "2"))
	require.NoError(t, s.Set(ctx, KeyNotifications, "3"))

	require.NoError(t, s.Remove(ctx, KeyTasks))
	require.NoError(t, s.Remove(ctx, "never-set"))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{KeyCategories, KeyNotifications}, keys)

	require.NoError(t, s.Clear(ctx))
	keys, err = s.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	first, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, KeyCategories, `[{"name":"Work"}]`))
	require.NoError(t, first.Close())

	second := newTestSQLite(t, path)
	v, ok, err := second.Get(ctx, KeyCategories)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"name":"Work"}]`, v)
}
