package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDeliverTranslation(t *testing.T) {
	r := New()
	out, err := r.Render("deliver_translation", Fields{
		SourceLang: "en", TargetLang: "uk", Style: "formal", Slang: true, ToolName: "deliver_translation",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "en to uk")
	assert.Contains(t, out, "formal style")
	assert.Contains(t, out, "colloquial")
	assert.Contains(t, out, "deliver_translation")
}

func TestRenderUnknownTemplate(t *testing.T) {
	r := New()
	_, err := r.Render("nope", Fields{})
	require.Error(t, err)
}

func TestRenderAllowedPOSJoin(t *testing.T) {
	r := New()
	out, err := r.Render("deliver_translation_details", Fields{
		SourceLang: "en", TargetLang: "uk", ToolName: "deliver_translation_details",
		AllowedPOS: []string{"noun", "verb"},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "noun, verb")
}
