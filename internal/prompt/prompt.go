// Package prompt renders system prompts and tool descriptions from text
// templates. The spec notes that "any text-substitution mechanism works"
// for this narrow a need, and no reference repo in the pack carries a
// templating library for plain named-field interpolation, so this is the
// direct, stdlib-only choice rather than a gap.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Fields is the named-field context every prompt template may reference.
type Fields struct {
	SourceLang    string
	TargetLang    string
	Style         string
	Slang         bool
	HasData       bool
	ToolName      string
	AllowedPOS    []string
	StyleGuidance string
}

// Renderer renders named templates against Fields. Templates are
// registered once at startup (embedded constants below) and reused.
type Renderer struct {
	templates map[string]*template.Template
}

// New builds a Renderer with the built-in system-prompt templates
// pre-registered.
func New() *Renderer {
	r := &Renderer{templates: make(map[string]*template.Template)}
	for name, body := range builtinTemplates {
		r.MustRegister(name, body)
	}
	return r
}

var funcs = template.FuncMap{
	"join": func(parts []string) string { return strings.Join(parts, ", ") },
}

// Register parses and stores a named template.
func (r *Renderer) Register(name, body string) error {
	t, err := template.New(name).Funcs(funcs).Parse(body)
	if err != nil {
		return fmt.Errorf("parse prompt template %q: %w", name, err)
	}
	r.templates[name] = t
	return nil
}

// MustRegister panics on a malformed built-in template — a programmer
// error, not a runtime condition.
func (r *Renderer) MustRegister(name, body string) {
	if err := r.Register(name, body); err != nil {
		panic(err)
	}
}

// Render expands the named template against fields.
func (r *Renderer) Render(name string, fields Fields) (string, error) {
	t, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("prompt template %q is not registered", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, fields); err != nil {
		return "", fmt.Errorf("render prompt template %q: %w", name, err)
	}
	return buf.String(), nil
}

// builtinTemplates are the system prompts for the tools this module
// registers (§6: deliver_translation and its collaborators).
var builtinTemplates = map[string]string{
	"deliver_translation": strings.TrimSpace(`
Translate the user's content from {{.SourceLang}} to {{.TargetLang}}.
{{if .Style}}Apply a {{.Style}} style.{{end}}
{{if .Slang}}Prefer natural, colloquial phrasing over literal wording.{{end}}
{{if .HasData}}The input includes attached binary data alongside any text.{{end}}
Respond only by calling the {{.ToolName}} tool.
`),
	"normalize_ocr": strings.TrimSpace(`
You will receive raw OCR lines with approximate bounding boxes. Normalize
obvious OCR noise in each line's text without changing its meaning, and
classify the overall image kind (e.g. "manga", "screenshot", "document").
Respond only by calling the {{.ToolName}} tool.
`),
	"romanize_ocr": strings.TrimSpace(`
Provide a romanized reading for each line below, written in {{.TargetLang}}
script conventions where applicable. Respond only by calling the
{{.ToolName}} tool.
`),
	"correct_text": strings.TrimSpace(`
Correct grammar and style issues in the {{.SourceLang}} text below without
changing its meaning.{{if .StyleGuidance}} {{.StyleGuidance}}{{end}}
Respond only by calling the {{.ToolName}} tool.
`),
	"deliver_translation_details": strings.TrimSpace(`
Break the {{.SourceLang}} to {{.TargetLang}} translation down word by word.
{{if .AllowedPOS}}Use only these part-of-speech tags: {{join .AllowedPOS}}.{{end}}
Respond only by calling the {{.ToolName}} tool.
`),
	"deliver_dictionary_entry": strings.TrimSpace(`
Look up the given {{.SourceLang}} term and provide its part of speech and
definitions, translated into {{.TargetLang}} where useful for the reader.
Respond only by calling the {{.ToolName}} tool.
`),
	"deliver_readings": strings.TrimSpace(`
Provide a phonetic reading for each of the given {{.SourceLang}} terms.
Respond only by calling the {{.ToolName}} tool.
`),
	"generate_history_tags": strings.TrimSpace(`
Generate a small set of short, lowercase classification tags describing
this translation history entry (source/target languages, document kind,
notable content). Respond only by calling the {{.ToolName}} tool.
`),
	"generate_report_analysis": strings.TrimSpace(`
Summarize the aggregate translation activity below in a short paragraph,
noting any notable patterns across languages, models, or document types.
Respond only by calling the {{.ToolName}} tool.
`),
}
