package powalk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upper(core string) (string, error) { return strings.ToUpper(core), nil }

func TestWalkTranslatesMsgstr(t *testing.T) {
	src := "msgid \"hello\"\nmsgstr \"hola\"\n\n"
	out, err := Walk([]byte(src), Options{}, upper)
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, `msgid "hello"`)
	assert.Contains(t, s, `msgstr "HOLA"`)
}

func TestWalkPreservesReferenceComments(t *testing.T) {
	src := "#: src/main.go:10\n#, fuzzy\nmsgid \"hi\"\nmsgstr \"hola\"\n\n"
	out, err := Walk([]byte(src), Options{}, upper)
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "#: src/main.go:10")
	assert.Contains(t, s, "#, fuzzy")
}

func TestWalkPreservesEmptyMsgstrExactly(t *testing.T) {
	src := "msgid \"\"\nmsgstr \"\"\n\"Content-Type: text/plain\\n\"\n\n"
	out, err := Walk([]byte(src), Options{}, upper)
	require.NoError(t, err)
	assert.Equal(t, src, string(out))
}

func TestWalkTranslatesPluralMsgstr(t *testing.T) {
	src := "msgid \"one item\"\nmsgid_plural \"many items\"\nmsgstr[0] \"one\"\nmsgstr[1] \"many\"\n\n"
	out, err := Walk([]byte(src), Options{}, upper)
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, `msgstr[0] "ONE"`)
	assert.Contains(t, s, `msgstr[1] "MANY"`)
}

func TestWalkTranslatesFreeformCommentsWhenEnabled(t *testing.T) {
	src := "# translator note\nmsgid \"hi\"\nmsgstr \"hola\"\n\n"
	out, err := Walk([]byte(src), Options{TranslateComments: true}, upper)
	require.NoError(t, err)
	assert.Contains(t, string(out), "# TRANSLATOR NOTE")
}
