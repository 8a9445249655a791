package mdwalk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upper(core string) (string, error) { return strings.ToUpper(core), nil }

func TestWalkTranslatesParagraphText(t *testing.T) {
	out, err := Walk([]byte("hello world\n"), upper)
	require.NoError(t, err)
	assert.Contains(t, string(out), "HELLO WORLD")
}

func TestWalkSkipsFencedCodeBlock(t *testing.T) {
	src := "text\n\n```\ncode here\n```\n"
	out, err := Walk([]byte(src), upper)
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "TEXT")
	assert.Contains(t, s, "code here")
	assert.NotContains(t, s, "CODE HERE")
}

func TestWalkPreservesEmphasisSyntax(t *testing.T) {
	out, err := Walk([]byte("this is *em* text\n"), upper)
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "*")
	assert.Contains(t, s, "EM")
}
