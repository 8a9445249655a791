package whispermodel

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAcceptsExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.bin")
	require.NoError(t, os.WriteFile(path, []byte("model"), 0o644))

	got, err := Resolve(context.Background(), New(dir, ""), path)
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestResolveRejectsUnknownName(t *testing.T) {
	_, err := Resolve(context.Background(), New(t.TempDir(), ""), "not-a-real-model")
	require.Error(t, err)
}

func TestResolveUsesCacheWhenPresent(t *testing.T) {
	dir := t.TempDir()
	cached := filepath.Join(dir, "ggml-base.bin")
	require.NoError(t, os.WriteFile(cached, []byte("cached"), 0o644))

	got, err := Resolve(context.Background(), New(dir, ""), "base")
	require.NoError(t, err)
	assert.Equal(t, cached, got)
}

func TestResolveDownloadsAndRenamesAtomically(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		io.WriteString(w, "binary-model-bytes")
	}))
	defer srv.Close()

	dir := t.TempDir()
	got, err := Resolve(context.Background(), New(dir, srv.URL), "tiny")
	require.NoError(t, err)

	data, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, "binary-model-bytes", string(data))

	_, err = os.Stat(got + ".part")
	assert.True(t, os.IsNotExist(err))
}
