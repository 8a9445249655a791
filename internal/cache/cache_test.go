package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/polyglotter/internal"
)

type countingTranslator struct {
	calls int
}

func (c *countingTranslator) Translate(core string) (internal.ProviderResponse, error) {
	c.calls++
	return internal.ProviderResponse{
		Args:  map[string]any{"translation": "X:" + core},
		Model: "stub-model",
		Usage: internal.ProviderUsage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3, Seen: true},
	}, nil
}

func TestTranslateIsMemoized(t *testing.T) {
	tr := &countingTranslator{}
	c := New(tr)

	a, err := c.Translate("hello")
	require.NoError(t, err)
	b, err := c.Translate("hello")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 1, tr.calls)
	assert.Equal(t, "stub-model", c.Model())
	assert.Equal(t, 3, c.Usage().TotalTokens)
}

func TestTranslatePreserveWhitespace(t *testing.T) {
	c := New(&countingTranslator{})
	out, err := c.TranslatePreserveWhitespace("  hi\t")
	require.NoError(t, err)
	assert.Equal(t, "  X:hi\t", out)
}

func TestTranslatePreserveWhitespaceOnlyWhitespace(t *testing.T) {
	c := New(&countingTranslator{})
	out, err := c.TranslatePreserveWhitespace("   ")
	require.NoError(t, err)
	assert.Equal(t, "   ", out)
}

func TestTranslateOCRLineSkipsNumeric(t *testing.T) {
	c := New(&countingTranslator{})
	out, translated, err := c.TranslateOCRLine("123,456")
	require.NoError(t, err)
	assert.False(t, translated)
	assert.Equal(t, "123,456", out)
}

func TestTranslateOCRLineSkipsSingleChar(t *testing.T) {
	c := New(&countingTranslator{})
	out, translated, err := c.TranslateOCRLine("A")
	require.NoError(t, err)
	assert.False(t, translated)
	assert.Equal(t, "A", out)
}

func TestTranslateOCRLineTranslatesText(t *testing.T) {
	c := New(&countingTranslator{})
	out, translated, err := c.TranslateOCRLine("Hello World")
	require.NoError(t, err)
	assert.True(t, translated)
	assert.Equal(t, "X:Hello World", out)
}

func TestUsageAggregatesAcrossCalls(t *testing.T) {
	c := New(&countingTranslator{})
	_, _ = c.Translate("a")
	_, _ = c.Translate("b")
	assert.Equal(t, 6, c.Usage().TotalTokens)
	assert.True(t, c.Usage().Seen)
}
