package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchBasenamePattern(t *testing.T) {
	m, err := New([]string{"*.log"})
	require.NoError(t, err)
	assert.True(t, m.Match("debug.log"))
	assert.True(t, m.Match("nested/debug.log"))
	assert.False(t, m.Match("debug.txt"))
}

func TestMatchRootAnchoredPattern(t *testing.T) {
	m, err := New([]string{"/build"})
	require.NoError(t, err)
	assert.True(t, m.Match("build"))
	assert.False(t, m.Match("nested/build"))
}

func TestNegationOverridesEarlierMatch(t *testing.T) {
	m, err := New([]string{"*.md", "!README.md"})
	require.NoError(t, err)
	assert.True(t, m.Match("notes.md"))
	assert.False(t, m.Match("README.md"))
}

func TestLoadMissingFileYieldsEmptyMatcher(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.False(t, m.Match("anything"))
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".translateignore")
	require.NoError(t, os.WriteFile(path, []byte("vendor/\n*.min.js\n"), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.True(t, m.Match("vendor/lib.go"))
	assert.True(t, m.Match("dist/app.min.js"))
	assert.False(t, m.Match("src/app.js"))
}
