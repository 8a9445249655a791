package provider

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// reflectSchema turns a Go struct (passed as a pointer) into the
// map[string]any shape ToolSpec.Parameters expects, via invopop/jsonschema
// — the same reflection-based schema generator Tangerg-lynx and
// kadirpekel-hector wire into their own tool-calling request builders.
func reflectSchema(v any) map[string]any {
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
	}
	schema := r.Reflect(v)

	raw, err := json.Marshal(schema)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{"type": "object"}
	}
	// Drop reflector bookkeeping fields the tool-calling APIs don't expect.
	delete(m, "$schema")
	delete(m, "$id")
	return m
}

// BBoxArgs is the reflected shape of a unit-square bounding box, used by
// deliver_translation's per-segment entries and the OCR tool schemas.
type BBoxArgs struct {
	X float64 `json:"x" jsonschema:"required"`
	Y float64 `json:"y" jsonschema:"required"`
	W float64 `json:"w" jsonschema:"required"`
	H float64 `json:"h" jsonschema:"required"`
}

// TranslationSegmentArgs is one entry of deliver_translation's optional
// segments array.
type TranslationSegmentArgs struct {
	Original   string   `json:"original" jsonschema:"required"`
	Translated string   `json:"translated" jsonschema:"required"`
	BBox       BBoxArgs `json:"bbox" jsonschema:"required"`
}

// DeliverTranslationArgs is the reflected struct form of the
// deliver_translation tool schema, kept alongside the hand-written
// map[string]any version in ToolSpec for backends that prefer a
// jsonschema.Reflector-generated definition over a literal map.
type DeliverTranslationArgs struct {
	Translation    string                   `json:"translation"`
	Segments       []TranslationSegmentArgs `json:"segments,omitempty"`
	SourceLanguage string                   `json:"source_language" jsonschema:"required"`
	TargetLanguage string                   `json:"target_language" jsonschema:"required"`
	Style          string                   `json:"style" jsonschema:"required"`
	Slang          bool                     `json:"slang" jsonschema:"required"`
}

// DeliverTranslationToolReflected builds the deliver_translation ToolSpec
// using reflectSchema(DeliverTranslationArgs{}) instead of the literal map
// in DeliverTranslationTool. Equivalent shape; demonstrates the
// reflection-based path for backends (e.g. OpenAI's strict mode) that
// benefit from a schema generated straight from the Go struct it
// eventually unmarshals into.
func DeliverTranslationToolReflected() ToolSpec {
	return ToolSpec{
		Name:        ToolDeliverTranslation,
		Description: "Deliver the translated text (and, for images, per-line segments).",
		Parameters:  reflectSchema(&DeliverTranslationArgs{}),
	}
}
