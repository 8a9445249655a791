package pdfbridge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectPagesSortsByTrailingInteger(t *testing.T) {
	dir := t.TempDir()
	names := []string{"page-2.png", "page-10.png", "page-1.png"}
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte(n), 0o644))
	}

	pages, err := collectPages(dir)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, 1, pages[0].Index)
	assert.Equal(t, 2, pages[1].Index)
	assert.Equal(t, 10, pages[2].Index)
}

func TestTranslatePagesPassesThroughAllowEmpty(t *testing.T) {
	pages := []Page{{Index: 1, PNG: []byte("a")}, {Index: 2, PNG: []byte("b")}}
	tr := func(ctx context.Context, png []byte) ([]byte, error) {
		if string(png) == "b" {
			return nil, nil
		}
		return []byte("translated-" + string(png)), nil
	}

	out, err := TranslatePages(context.Background(), pages, tr)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "translated-a", string(out[0].PNG))
	assert.Equal(t, []byte("b"), out[1].PNG)
}
