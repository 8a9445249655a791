package xmlwalk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upper(core string) (string, error) {
	return strings.ToUpper(core), nil
}

func TestWalkTranslatesTargetElement(t *testing.T) {
	src := `<w:p><w:r><w:t>hello</w:t></w:r></w:p>`
	out, err := Walk([]byte(src), []TargetElement{{Local: "t"}}, upper)
	require.NoError(t, err)
	assert.Contains(t, string(out), "HELLO")
}

func TestWalkPreservesAttributesAndStructure(t *testing.T) {
	src := `<root attr="value"><t>hi</t><other>skip me</other></root>`
	out, err := Walk([]byte(src), []TargetElement{{Local: "t"}}, upper)
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, `attr="value"`)
	assert.Contains(t, s, "HI")
	assert.Contains(t, s, "skip me")
}

func TestWalkPreservesCDATADelimiters(t *testing.T) {
	src := `<root><t><![CDATA[hello <world>]]></t></root>`
	out, err := Walk([]byte(src), []TargetElement{{Local: "t"}}, upper)
	require.NoError(t, err)
	assert.Contains(t, string(out), `<![CDATA[HELLO <WORLD>]]>`)
}

func TestWalkLeavesNonTargetCDATAUntouched(t *testing.T) {
	src := `<root><other><![CDATA[leave me]]></other><t>hi</t></root>`
	out, err := Walk([]byte(src), []TargetElement{{Local: "t"}}, upper)
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, `<![CDATA[leave me]]>`)
	assert.Contains(t, s, "HI")
}

func TestWalkTranslatesTextAroundCDATA(t *testing.T) {
	src := `<root><t>before<![CDATA[inside]]>after</t></root>`
	out, err := Walk([]byte(src), []TargetElement{{Local: "t"}}, upper)
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "BEFORE")
	assert.Contains(t, s, `<![CDATA[INSIDE]]>`)
	assert.Contains(t, s, "AFTER")
}

func TestWalkXLSXSharedStringRequiresSIISAncestor(t *testing.T) {
	src := `<sst><si><t>in table</t></si><t>outside</t></sst>`
	out, err := Walk([]byte(src), []TargetElement{{Local: "t", TrackSIIS: true}}, upper)
	require.NoError(t, err)
	s := string(out)
	assert.Contains(t, s, "IN TABLE")
	assert.Contains(t, s, "outside")
	assert.NotContains(t, s, "OUTSIDE")
}
