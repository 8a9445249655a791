package codewalk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upper(core string) (string, error) { return strings.ToUpper(core), nil }

func TestWalkTranslatesLineComment(t *testing.T) {
	out, err := Walk([]byte("// hello world\nconst x = 1;"), DialectJS, upper)
	require.NoError(t, err)
	assert.Contains(t, string(out), "// HELLO WORLD")
	assert.Contains(t, string(out), "const x = 1;")
}

func TestWalkTranslatesBlockComment(t *testing.T) {
	out, err := Walk([]byte("/* say hi */\nlet y;"), DialectJS, upper)
	require.NoError(t, err)
	assert.Contains(t, string(out), "/* SAY HI */")
}

func TestWalkTranslatesStringLiteral(t *testing.T) {
	out, err := Walk([]byte(`const msg = "hello there";`), DialectJS, upper)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"HELLO THERE"`)
}

func TestWalkLeavesTemplateLiteralUntouched(t *testing.T) {
	src := "const msg = `hello ${name}`;"
	out, err := Walk([]byte(src), DialectJS, upper)
	require.NoError(t, err)
	assert.Equal(t, src, string(out))
}

func TestWalkTranslatesJSXText(t *testing.T) {
	out, err := Walk([]byte("<div>hello world</div>"), DialectTSX, upper)
	require.NoError(t, err)
	assert.Contains(t, string(out), "HELLO WORLD")
}

func TestWalkJSXIgnoresGenericsAndComparisons(t *testing.T) {
	src := "function render(items: Array<string>, extra: number) { return <div>Hi</div>; }"
	out, err := Walk([]byte(src), DialectTSX, upper)
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "Array<string>, extra: number")
	assert.Contains(t, s, "<div>HI</div>")

	src = "if (a < b) { count++; }"
	out, err = Walk([]byte(src), DialectTSX, upper)
	require.NoError(t, err)
	assert.Equal(t, src, string(out))
}

func TestWalkJSXNestedElementsAndExpressions(t *testing.T) {
	src := `const el = <p title="note">hello <b>world</b> {count} tail</p>;`
	out, err := Walk([]byte(src), DialectTSX, upper)
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, `title="note"`)
	assert.Contains(t, s, "HELLO ")
	assert.Contains(t, s, "<b>WORLD</b>")
	assert.Contains(t, s, "{count}")
	assert.Contains(t, s, " TAIL")
}

func TestWalkJSXSelfClosingTagPassesThrough(t *testing.T) {
	src := "return <Spinner size={12} />;"
	out, err := Walk([]byte(src), DialectTSX, upper)
	require.NoError(t, err)
	assert.Equal(t, src, string(out))
}

func TestWalkMermaidTranslatesQuotedLabel(t *testing.T) {
	out, err := Walk([]byte(`A-->|"go now"|B`), DialectMermaid, upper)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"GO NOW"`)
}

func TestWalkMermaidTranslatesBracketNode(t *testing.T) {
	out, err := Walk([]byte(`A[start here]-->B[[done]]`), DialectMermaid, upper)
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "[START HERE]")
	assert.Contains(t, s, "[[DONE]]")
}

func TestWalkMermaidPipeEdgeLabel(t *testing.T) {
	out, err := Walk([]byte(`A-->|yes|B`), DialectMermaid, upper)
	require.NoError(t, err)
	assert.Contains(t, string(out), "|YES|")
}
