// Package normalize runs the two-call OCR cleanup orchestration: a
// normalize_ocr pass that cleans OCR noise and supplies Latin readings,
// followed by a romanize_ocr pass for any line whose script is still
// non-Latin and lacks a reading. Grounded on original_source's src/ocr.rs
// two-call flow, layered on internal/provider (C) and internal/cache (B);
// both calls soft-fail (the caller proceeds with un-normalized lines)
// since OCR annotation is best-effort by nature.
package normalize

import (
	"context"
	"encoding/json"
	"unicode"

	"github.com/valpere/polyglotter/internal/cache"
	"github.com/valpere/polyglotter/internal/ocr/engine"
	"github.com/valpere/polyglotter/internal/provider"
)

// renderLinesPayload encodes a batch of OCR lines as JSON for the user
// turn; the tool schema itself documents the expected response shape, so
// the input payload is plain JSON rather than a templated prompt.
func renderLinesPayload(lines []map[string]any) string {
	data, err := json.Marshal(map[string]any{"lines": lines})
	if err != nil {
		return "{}"
	}
	return string(data)
}

// Annotated is one OCR line carrying its assigned ID, normalized text, and
// an optional Latin-script reading.
type Annotated struct {
	ID      int
	Line    engine.Line
	Reading string
}

// Orchestrator runs the normalize/romanize passes against a provider
// builder, folding usage into the given cache.
type Orchestrator struct {
	Builder provider.Builder
	Cache   *cache.Cache
	System  string
}

// Run assigns sequential IDs to lines, normalizes their text (when
// enabled), and fills in readings for any line that is still non-Latin and
// unread after normalization.
func (o *Orchestrator) Run(ctx context.Context, lines []engine.Line, enableNormalize bool) []Annotated {
	annotated := make([]Annotated, len(lines))
	for i, l := range lines {
		annotated[i] = Annotated{ID: i + 1, Line: l}
	}

	if enableNormalize {
		o.normalize(ctx, annotated)
	}
	o.romanize(ctx, annotated)
	return annotated
}

func (o *Orchestrator) normalize(ctx context.Context, annotated []Annotated) {
	payload := make([]map[string]any, len(annotated))
	for i, a := range annotated {
		payload[i] = map[string]any{
			"id":   a.ID,
			"text": a.Line.Text,
			"bbox": map[string]float64{"x": a.Line.BBox.X, "y": a.Line.BBox.Y, "w": a.Line.BBox.W, "h": a.Line.BBox.H},
		}
	}

	o.Builder.Reset()
	if o.System != "" {
		o.Builder.AppendUserInput(o.System)
	}
	o.Builder.AppendUserInput(renderLinesPayload(payload))
	o.Builder.RegisterTool(provider.NormalizeOCRTool())

	resp, err := o.Builder.CallTool(ctx, provider.ToolNormalizeOCR)
	if err != nil {
		return // soft-fail: keep raw OCR text
	}
	o.Cache.RecordUsage(resp)

	linesArg, _ := resp.Args["lines"].([]any)
	byID := make(map[int]map[string]any, len(linesArg))
	for _, raw := range linesArg {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		id := intFromAny(m["id"])
		byID[id] = m
	}

	for i := range annotated {
		m, ok := byID[annotated[i].ID]
		if !ok {
			continue
		}
		if normalized, ok := m["normalized"].(string); ok && normalized != "" {
			annotated[i].Line.Text = normalized
		}
		if reading, ok := m["reading"].(string); ok && reading != "" && isLatin(reading) {
			annotated[i].Reading = reading
		}
	}
}

func (o *Orchestrator) romanize(ctx context.Context, annotated []Annotated) {
	var pending []Annotated
	for _, a := range annotated {
		if a.Reading == "" && !isLatin(a.Line.Text) {
			pending = append(pending, a)
		}
	}
	if len(pending) == 0 {
		return
	}

	payload := make([]map[string]any, len(pending))
	for i, a := range pending {
		payload[i] = map[string]any{"id": a.ID, "text": a.Line.Text}
	}

	o.Builder.Reset()
	o.Builder.AppendUserInput(renderLinesPayload(payload))
	o.Builder.RegisterTool(provider.RomanizeOCRTool())

	resp, err := o.Builder.CallTool(ctx, provider.ToolRomanizeOCR)
	if err != nil {
		return // soft-fail: readings stay empty
	}
	o.Cache.RecordUsage(resp)

	linesArg, _ := resp.Args["lines"].([]any)
	byID := make(map[int]string, len(linesArg))
	for _, raw := range linesArg {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if romanized, ok := m["romanized"].(string); ok {
			byID[intFromAny(m["id"])] = romanized
		}
	}

	for i := range annotated {
		if r, ok := byID[annotated[i].ID]; ok {
			annotated[i].Reading = r
		}
	}
}

func isLatin(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			return false
		}
	}
	return true
}

func intFromAny(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return -1
	}
}

