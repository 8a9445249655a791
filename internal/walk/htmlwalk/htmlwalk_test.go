package htmlwalk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upper(core string) (string, error) { return strings.ToUpper(core), nil }

func TestWalkTranslatesTextNodes(t *testing.T) {
	out, err := Walk([]byte(`<p>hello</p>`), Options{}, upper)
	require.NoError(t, err)
	assert.Contains(t, string(out), "HELLO")
}

func TestWalkSkipsCodeSubtree(t *testing.T) {
	out, err := Walk([]byte(`<p>hi</p><pre>skip me</pre>`), Options{}, upper)
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "HI")
	assert.Contains(t, s, "skip me")
	assert.NotContains(t, s, "SKIP ME")
}

func TestWalkTranslatesAllowedAttributes(t *testing.T) {
	out, err := Walk([]byte(`<img alt="a dog" src="x.png">`), Options{}, upper)
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, `alt="A DOG"`)
	assert.Contains(t, s, `src="x.png"`)
}

func TestWalkCommentsOptIn(t *testing.T) {
	out, err := Walk([]byte(`<!--note--><p>x</p>`), Options{TranslateComments: true}, upper)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<!--NOTE-->")
}
