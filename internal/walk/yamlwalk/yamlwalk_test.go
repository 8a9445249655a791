package yamlwalk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upper(core string) (string, error) { return strings.ToUpper(core), nil }

func TestWalkTranslatesPlainScalar(t *testing.T) {
	out, err := Walk([]byte("title: hello world\n"), upper)
	require.NoError(t, err)
	assert.Contains(t, string(out), "title: HELLO WORLD")
}

func TestWalkSkipsBooleanAndNumeric(t *testing.T) {
	src := "enabled: true\ncount: 42\nratio: 3.14\nnothing: null\n"
	out, err := Walk([]byte(src), upper)
	require.NoError(t, err)
	assert.Equal(t, src, string(out))
}

func TestWalkPreservesComments(t *testing.T) {
	src := "# a top comment\nkey: value # trailing\n"
	out, err := Walk([]byte(src), upper)
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "# a top comment")
	assert.Contains(t, s, "# trailing")
	assert.Contains(t, s, "VALUE")
}

func TestWalkTranslatesDoubleQuotedScalar(t *testing.T) {
	out, err := Walk([]byte(`name: "hello"`+"\n"), upper)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"HELLO"`)
}

func TestWalkRequotesColonContainingTranslation(t *testing.T) {
	tr := func(core string) (string, error) { return core + ": suffix", nil }
	out, err := Walk([]byte("label: value\n"), tr)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"value: suffix"`)
}

func TestWalkRoutesBlockScalarThroughMarkdown(t *testing.T) {
	src := "description: |\n  hello world\n  more text\nnext: value\n"
	out, err := Walk([]byte(src), upper)
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "description: |")
	assert.Contains(t, s, "HELLO WORLD")
	assert.Contains(t, s, "next: VALUE")
}
