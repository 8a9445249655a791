package provider

import (
	"context"

	"github.com/valpere/polyglotter/internal"
	"github.com/valpere/polyglotter/internal/backoff"
)

// SegmentTranslator adapts a Builder bound to one set of TranslateOptions
// into the single-method shape internal/cache.Translator expects: reset
// the builder's per-call state, append the segment, then call
// deliver_translation, validating every response before it is cached.
// Rate-limited calls retry with exponential backoff.
type SegmentTranslator struct {
	Builder Builder
	Opts    internal.TranslateOptions
	Retry   backoff.Config

	// IsImage enforces the segment-bearing response contract; it applies
	// only when the call itself carries an image attachment, not when an
	// image's OCR lines are translated as plain text segments.
	IsImage bool
}

// Translate calls deliver_translation for core and validates the result.
func (s *SegmentTranslator) Translate(core string) (internal.ProviderResponse, error) {
	s.Builder.Reset()
	s.Builder.AppendUserInput(core)

	var resp internal.ProviderResponse
	err := backoff.Do(context.Background(), s.Retry, func(ctx context.Context) error {
		r, callErr := s.Builder.CallTool(ctx, ToolDeliverTranslation)
		if callErr != nil {
			return callErr
		}
		resp = r
		return nil
	})
	if err != nil {
		return internal.ProviderResponse{}, err
	}
	if err := ValidateDeliverTranslation(resp, s.Opts, s.IsImage); err != nil {
		return internal.ProviderResponse{}, err
	}
	return resp, nil
}
