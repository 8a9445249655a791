package suppress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringSuppressesEmpty(t *testing.T) {
	assert.True(t, String(""))
	assert.True(t, String("   "))
}

func TestStringSuppressesNumeric(t *testing.T) {
	assert.True(t, String("123,456.78"))
	assert.True(t, String("99%"))
}

func TestStringSuppressesMarkers(t *testing.T) {
	assert.True(t, String("https://example.com"))
	assert.True(t, String("{{name}}"))
	assert.True(t, String("a => b"))
	assert.True(t, String("Foo::Bar"))
}

func TestStringSuppressesBracketPair(t *testing.T) {
	assert.True(t, String("<div class=\"x\">"))
}

func TestStringSuppressesIdentifiers(t *testing.T) {
	assert.True(t, String("snake_case_value"))
	assert.True(t, String("kebab-case-value"))
	assert.True(t, String("SCREAMING_CASE"))
}

func TestStringAllowsOrdinaryText(t *testing.T) {
	assert.False(t, String("Hello, world!"))
	assert.False(t, String("This is a sentence."))
}

func TestWrapPassesCodeLikeThroughUnchanged(t *testing.T) {
	tr := Wrap(func(core string) (string, error) { return "T:" + core, nil })

	out, err := tr("12345")
	assert.NoError(t, err)
	assert.Equal(t, "12345", out)

	out, err = tr("Hello")
	assert.NoError(t, err)
	assert.Equal(t, "T:Hello", out)
}
