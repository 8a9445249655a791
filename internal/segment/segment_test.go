package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/polyglotter/internal"
	"github.com/valpere/polyglotter/internal/cache"
)

type stubTranslator struct{}

func (stubTranslator) Translate(core string) (internal.ProviderResponse, error) {
	return internal.ProviderResponse{Args: map[string]any{"translation": "X:" + core}}, nil
}

func TestTranslateWhitespaceOnlyPassesThrough(t *testing.T) {
	c := cache.New(stubTranslator{})
	out, err := Translate(c, "   \t\n")
	require.NoError(t, err)
	assert.Equal(t, "   \t\n", out)
}

func TestTranslateSubstitutesCore(t *testing.T) {
	c := cache.New(stubTranslator{})
	out, err := Translate(c, "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "  X:hello  ", out)
}
