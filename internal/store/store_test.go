package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewCreatesDatabase(t *testing.T) {
	s := newTestStore(t)
	assert.NotNil(t, s)
}

func TestNewRejectsUnwritablePath(t *testing.T) {
	_, err := New("/nonexistent/dir/test.db")
	assert.Error(t, err)
}

func TestSaveAndGetCachedTranslation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveToMemory(ctx, "Hello", "en", "fr", "Bonjour", "gpt-test"))

	got, ok, err := s.GetCachedTranslation(ctx, "Hello", "en", "fr")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Bonjour", got)
}

func TestGetCachedTranslationMissIsNotError(t *testing.T) {
	s := newTestStore(t)
	_, ok, err := s.GetCachedTranslation(context.Background(), "nope", "en", "fr")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvalidateMemoryHidesEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveToMemory(ctx, "Hello", "en", "fr", "Bonjour", "gpt-test"))

	entries, err := s.ListMemory(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, s.InvalidateMemory(ctx, entries[0].ID))

	_, ok, err := s.GetCachedTranslation(ctx, "Hello", "en", "fr")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClearMemoryRemovesEverything(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveToMemory(ctx, "Hello", "en", "fr", "Bonjour", "m"))
	require.NoError(t, s.SaveToMemory(ctx, "Goodbye", "en", "fr", "Au revoir", "m"))

	n, err := s.ClearMemory(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	entries, err := s.ListMemory(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStatsCountsActiveAndInvalid(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveToMemory(ctx, "Hello", "en", "fr", "Bonjour", "m"))
	require.NoError(t, s.SaveToMemory(ctx, "Goodbye", "en", "fr", "Au revoir", "m"))

	entries, err := s.ListMemory(ctx)
	require.NoError(t, err)
	require.NoError(t, s.InvalidateMemory(ctx, entries[0].ID))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Equal(t, 1, stats.ActiveEntries)
	assert.Equal(t, 1, stats.InvalidEntries)
}

func TestFuzzyGetCachedTranslationMatchesNearMiss(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveToMemory(ctx, "Hello world", "en", "fr", "Bonjour le monde", "m"))

	got, ok, err := s.FuzzyGetCachedTranslation(ctx, "Hello worlx", "en", "fr", 0.8)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Bonjour le monde", got)
}

func TestFuzzyGetCachedTranslationDisabledAtZeroThreshold(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveToMemory(ctx, "Hello world", "en", "fr", "Bonjour le monde", "m"))

	_, ok, err := s.FuzzyGetCachedTranslation(ctx, "Hello world", "en", "fr", 0)
	require.NoError(t, err)
	assert.False(t, ok)
}
