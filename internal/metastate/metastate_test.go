package metastate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingMetaReturnsZeroValue(t *testing.T) {
	s := New(t.TempDir())
	m, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, m.Models)
	assert.False(t, m.ModelsFresh())
}

func TestSaveAndLoadRoundTrips(t *testing.T) {
	s := New(t.TempDir())
	m := &Meta{LastUsingModel: "gpt-4o-mini"}
	m.SetModels([]string{"gpt-4o-mini", "gpt-4o"})
	require.NoError(t, s.Save(m))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", got.LastUsingModel)
	assert.True(t, got.ModelsFresh())
}

func TestModelsFreshExpiresAfterTTL(t *testing.T) {
	m := &Meta{Models: []string{"x"}, LastFetchedModelDateTime: time.Now().Add(-25 * time.Hour)}
	assert.False(t, m.ModelsFresh())
}

func TestRecordHistoryTrimsToCap(t *testing.T) {
	m := &Meta{}
	for i := 0; i < maxHistories+10; i++ {
		m.RecordHistory(HistoryEntry{ID: "x"})
	}
	assert.Len(t, m.Histories, maxHistories)
}

func TestSaveDestIsContentAddressed(t *testing.T) {
	s := New(t.TempDir())
	hash1, err := s.SaveDest([]byte("hello"))
	require.NoError(t, err)
	hash2, err := s.SaveDest([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, hash1, hash2)

	data, err := os.ReadFile(filepath.Join(s.destDir(), hash1))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestBackupStoreBackupAndGC(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(srcPath, []byte("v1"), 0o644))

	bs := NewBackupStore(dir)
	require.NoError(t, bs.Backup(srcPath, 7))

	entries, err := bs.loadIndex()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	data, err := os.ReadFile(entries[0].Backup)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))
}

func TestBackupStoreSkipsMissingSource(t *testing.T) {
	dir := t.TempDir()
	bs := NewBackupStore(dir)
	require.NoError(t, bs.Backup(filepath.Join(dir, "nope.txt"), 7))

	entries, err := bs.loadIndex()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBackupStoreGarbageCollectsExpiredEntries(t *testing.T) {
	dir := t.TempDir()
	bs := NewBackupStore(dir)

	expired := BackupEntry{
		ID:        "old",
		Backup:    filepath.Join(dir, "backup", "old_file.txt"),
		CreatedAt: time.Now().Add(-48 * time.Hour),
		ExpiresAt: time.Now().Add(-24 * time.Hour),
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(expired.Backup), 0o755))
	require.NoError(t, os.WriteFile(expired.Backup, []byte("stale"), 0o644))
	require.NoError(t, bs.saveIndex([]BackupEntry{expired}))

	srcPath := filepath.Join(dir, "fresh.txt")
	require.NoError(t, os.WriteFile(srcPath, []byte("v2"), 0o644))
	require.NoError(t, bs.Backup(srcPath, 7))

	entries, err := bs.loadIndex()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotEqual(t, "old", entries[0].ID)
	_, statErr := os.Stat(expired.Backup)
	assert.True(t, os.IsNotExist(statErr))
}
