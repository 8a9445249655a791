package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/polyglotter/internal"
	"github.com/valpere/polyglotter/internal/errs"
)

func validOpts() internal.TranslateOptions {
	return internal.TranslateOptions{TargetLang: "uk", SourceLang: "en", Style: "formal", Slang: false}
}

func TestValidateDeliverTranslationAccepts(t *testing.T) {
	resp := internal.ProviderResponse{Args: map[string]any{
		"translation":     "Привіт",
		"source_language": "en",
		"target_language": "uk",
		"style":           "formal",
		"slang":           false,
	}}
	require.NoError(t, ValidateDeliverTranslation(resp, validOpts(), false))
}

func TestValidateDeliverTranslationRejectsEmpty(t *testing.T) {
	resp := internal.ProviderResponse{Args: map[string]any{
		"translation":     "",
		"source_language": "en",
		"target_language": "uk",
		"style":           "formal",
		"slang":           false,
	}}
	err := ValidateDeliverTranslation(resp, validOpts(), false)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ToolArgMismatch))
}

func TestValidateDeliverTranslationAcceptsAutoPlaceholder(t *testing.T) {
	opts := validOpts()
	opts.SourceLang = "auto"
	resp := internal.ProviderResponse{Args: map[string]any{
		"translation":     "hi",
		"source_language": "und",
		"target_language": "uk",
		"style":           "formal",
		"slang":           false,
	}}
	require.NoError(t, ValidateDeliverTranslation(resp, opts, false))
}

func TestValidateDeliverTranslationImageRequiresSegments(t *testing.T) {
	resp := internal.ProviderResponse{Args: map[string]any{
		"translation":     "",
		"source_language": "en",
		"target_language": "uk",
		"style":           "formal",
		"slang":           false,
	}}
	err := ValidateDeliverTranslation(resp, validOpts(), true)
	require.Error(t, err)
}

func TestValidateDeliverTranslationImageBBoxOutOfRange(t *testing.T) {
	resp := internal.ProviderResponse{Args: map[string]any{
		"translation":     "",
		"source_language": "en",
		"target_language": "uk",
		"style":           "formal",
		"slang":           false,
		"segments": []any{
			map[string]any{
				"original": "a", "translated": "b",
				"bbox": map[string]any{"x": 0.9, "y": 0.0, "w": 0.5, "h": 0.2},
			},
		},
	}}
	err := ValidateDeliverTranslation(resp, validOpts(), true)
	require.Error(t, err)
}
