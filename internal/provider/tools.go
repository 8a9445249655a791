package provider

// Tool name constants shared by every backend, the HTTP server, and the
// MCP server. The `deliver_translation` schema is specified directly in
// the translation core; the rest follow the original implementation's
// correction/dictionary/details/history/report collaborator modules.
const (
	ToolDeliverTranslation        = "deliver_translation"
	ToolNormalizeOCR              = "normalize_ocr"
	ToolRomanizeOCR               = "romanize_ocr"
	ToolDetectMime                = "detect_mime"
	ToolCorrectText               = "correct_text"
	ToolDeliverTranslationDetails = "deliver_translation_details"
	ToolDeliverDictionaryEntry    = "deliver_dictionary_entry"
	ToolDeliverReadings           = "deliver_readings"
	ToolGenerateHistoryTags       = "generate_history_tags"
	ToolGenerateReportAnalysis    = "generate_report_analysis"
)

// bboxSchema is the unit-square bounding-box shape of each entry's `bbox`
// in deliver_translation's optional `segments` field.
var bboxSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"x": map[string]any{"type": "number"},
		"y": map[string]any{"type": "number"},
		"w": map[string]any{"type": "number"},
		"h": map[string]any{"type": "number"},
	},
	"required": []string{"x", "y", "w", "h"},
}

// DeliverTranslationTool builds the base tool schema every backend
// registers for a text or image translation call.
func DeliverTranslationTool() ToolSpec {
	return ToolSpec{
		Name:        ToolDeliverTranslation,
		Description: "Deliver the translated text (and, for images, per-line segments).",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"translation": map[string]any{"type": "string"},
				"segments": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"original":   map[string]any{"type": "string"},
							"translated": map[string]any{"type": "string"},
							"bbox":       bboxSchema,
						},
						"required": []string{"original", "translated", "bbox"},
					},
				},
				"source_language": map[string]any{"type": "string"},
				"target_language": map[string]any{"type": "string"},
				"style":           map[string]any{"type": "string"},
				"slang":           map[string]any{"type": "boolean"},
			},
			"required": []string{"source_language", "target_language", "style", "slang"},
		},
	}
}

// NormalizeOCRTool builds the tool schema for the OCR normalization pass.
func NormalizeOCRTool() ToolSpec {
	return ToolSpec{
		Name:        ToolNormalizeOCR,
		Description: "Normalize raw OCR line text and classify the image kind.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"image_kind": map[string]any{"type": "string"},
				"lines": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"id":         map[string]any{"type": "string"},
							"normalized": map[string]any{"type": "string"},
							"reading":    map[string]any{"type": "string"},
						},
						"required": []string{"id", "normalized"},
					},
				},
			},
			"required": []string{"lines"},
		},
	}
}

// RomanizeOCRTool builds the tool schema for the romanization pass.
func RomanizeOCRTool() ToolSpec {
	return ToolSpec{
		Name:        ToolRomanizeOCR,
		Description: "Provide a romanized reading for non-Latin OCR lines.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"lines": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"id":        map[string]any{"type": "string"},
							"romanized": map[string]any{"type": "string"},
						},
						"required": []string{"id", "romanized"},
					},
				},
			},
			"required": []string{"lines"},
		},
	}
}

// DetectMimeTool builds the low-confidence MIME probe tool schema.
func DetectMimeTool() ToolSpec {
	return ToolSpec{
		Name:        ToolDetectMime,
		Description: "Classify the MIME type of the given content sample.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"mime":      map[string]any{"type": "string"},
				"confident": map[string]any{"type": "boolean"},
			},
			"required": []string{"mime", "confident"},
		},
	}
}

// CorrectTextTool builds the grammar/style correction tool schema,
// adapted from the original implementation's correction.rs module.
func CorrectTextTool() ToolSpec {
	return ToolSpec{
		Name:        ToolCorrectText,
		Description: "Correct grammar and style, returning per-span notes.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"corrected": map[string]any{"type": "string"},
				"notes": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"span": map[string]any{"type": "string"},
							"note": map[string]any{"type": "string"},
						},
					},
				},
			},
			"required": []string{"corrected"},
		},
	}
}

// DeliverTranslationDetailsTool builds the richer per-word breakdown tool
// schema, adapted from details.rs.
func DeliverTranslationDetailsTool() ToolSpec {
	return ToolSpec{
		Name:        ToolDeliverTranslationDetails,
		Description: "Deliver a word-by-word translation breakdown.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"words": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"source": map[string]any{"type": "string"},
							"target": map[string]any{"type": "string"},
							"pos":    map[string]any{"type": "string"},
						},
						"required": []string{"source", "target", "pos"},
					},
				},
			},
			"required": []string{"words"},
		},
	}
}

// DeliverDictionaryEntryTool builds the dictionary-entry tool schema,
// adapted from dictionary.rs.
func DeliverDictionaryEntryTool() ToolSpec {
	return ToolSpec{
		Name:        ToolDeliverDictionaryEntry,
		Description: "Deliver a dictionary entry for a single term.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"term":        map[string]any{"type": "string"},
				"pos":         map[string]any{"type": "string"},
				"definitions": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
			"required": []string{"term", "definitions"},
		},
	}
}

// DeliverReadingsTool builds the pronunciation/reading tool schema.
func DeliverReadingsTool() ToolSpec {
	return ToolSpec{
		Name:        ToolDeliverReadings,
		Description: "Deliver phonetic readings for the given terms.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"readings": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"term":    map[string]any{"type": "string"},
							"reading": map[string]any{"type": "string"},
						},
					},
				},
			},
			"required": []string{"readings"},
		},
	}
}

// GenerateHistoryTagsTool builds the tagging tool schema, adapted from
// history_tags.rs.
func GenerateHistoryTagsTool() ToolSpec {
	return ToolSpec{
		Name:        ToolGenerateHistoryTags,
		Description: "Generate short classification tags for a history entry.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"tags": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
			"required": []string{"tags"},
		},
	}
}

// GenerateReportAnalysisTool builds the session-report tool schema,
// adapted from report.rs.
func GenerateReportAnalysisTool() ToolSpec {
	return ToolSpec{
		Name:        ToolGenerateReportAnalysis,
		Description: "Summarize a session's aggregate translation activity.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"summary":    map[string]any{"type": "string"},
				"highlights": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
			"required": []string{"summary"},
		},
	}
}
