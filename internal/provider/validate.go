package provider

import (
	"fmt"
	"strings"

	"github.com/valpere/polyglotter/internal"
	"github.com/valpere/polyglotter/internal/errs"
)

// knownAutoPlaceholders are the documented stand-ins for an undetermined
// source language accepted when the request's source was "auto".
var knownAutoPlaceholders = map[string]bool{
	"und": true, "mul": true, "zxx": true, "auto": true, "unknown": true,
}

// ValidateDeliverTranslation checks a deliver_translation response against
// the request it answers, per the base tool contract: translation
// non-empty unless segments are present, languages/style/slang echoed
// back correctly, and (for image attachments) every segment's bbox inside
// the unit square.
func ValidateDeliverTranslation(resp internal.ProviderResponse, opts internal.TranslateOptions, isImage bool) error {
	args := resp.Args

	translation, _ := args["translation"].(string)
	segmentsRaw, hasSegments := args["segments"].([]any)

	if strings.TrimSpace(translation) == "" && !(hasSegments && len(segmentsRaw) > 0) {
		return errs.New(errs.ToolArgMismatch, fmt.Errorf("empty translation with no segments"))
	}

	if tl, _ := args["target_language"].(string); !strings.EqualFold(tl, opts.TargetLang) {
		return errs.New(errs.ToolArgMismatch, fmt.Errorf("target_language mismatch: got %q want %q", tl, opts.TargetLang))
	}

	sl, _ := args["source_language"].(string)
	if opts.SourceLang == "auto" {
		if !knownAutoPlaceholders[strings.ToLower(sl)] && !looksLikeISOCode(sl) {
			return errs.New(errs.ToolArgMismatch, fmt.Errorf("source_language %q is not a known ISO code or auto placeholder", sl))
		}
	} else if !strings.EqualFold(sl, opts.SourceLang) {
		return errs.New(errs.ToolArgMismatch, fmt.Errorf("source_language mismatch: got %q want %q", sl, opts.SourceLang))
	}

	if style, _ := args["style"].(string); style != opts.Style {
		return errs.New(errs.ToolArgMismatch, fmt.Errorf("style mismatch: got %q want %q", style, opts.Style))
	}
	if slang, _ := args["slang"].(bool); slang != opts.Slang {
		return errs.New(errs.ToolArgMismatch, fmt.Errorf("slang mismatch: got %v want %v", slang, opts.Slang))
	}

	if isImage {
		if !hasSegments || len(segmentsRaw) == 0 {
			return errs.New(errs.ToolArgMismatch, fmt.Errorf("image attachment requires non-empty segments"))
		}
		for i, s := range segmentsRaw {
			seg, ok := s.(map[string]any)
			if !ok {
				return errs.New(errs.ToolArgMismatch, fmt.Errorf("segment %d is not an object", i))
			}
			if err := validateUnitBBox(seg["bbox"]); err != nil {
				return errs.New(errs.ToolArgMismatch, fmt.Errorf("segment %d: %w", i, err))
			}
		}
	}

	return nil
}

func validateUnitBBox(v any) error {
	m, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("missing bbox")
	}
	x, _ := m["x"].(float64)
	y, _ := m["y"].(float64)
	w, _ := m["w"].(float64)
	h, _ := m["h"].(float64)
	if x < 0 || y < 0 || w <= 0 || h <= 0 || x+w > 1 || y+h > 1 {
		return fmt.Errorf("bbox %+v outside [0,1]^2", m)
	}
	return nil
}

// looksLikeISOCode is a loose check for two/three-letter codes, optionally
// with a hans/hant script suffix (e.g. "zh-hans", "zh-hant").
func looksLikeISOCode(s string) bool {
	s = strings.ToLower(s)
	base, _, _ := strings.Cut(s, "-")
	return len(base) == 2 || len(base) == 3
}
