// Package cache implements the per-document translation cache: a mapping
// from source string to translated string with aggregated provider usage.
// The teacher has no direct analogue (its orchestrator fans out across
// services rather than memoizing segments), so this is built straight from
// the cache/usage-aggregation design note, expressed with the teacher's
// plain-struct, pointer-constructor idiom.
package cache

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/valpere/polyglotter/internal"
)

// Translator is the subset of the provider contract the cache needs: a
// single round trip that turns source text into a ProviderResponse whose
// Args["translation"] holds the result.
type Translator interface {
	Translate(core string) (internal.ProviderResponse, error)
}

// Cache memoizes translations for one document. Never shared across
// requests; callers construct one per document (or per scheduler task).
type Cache struct {
	entries map[string]string
	usage   internal.ProviderUsage
	model   string
	tr      Translator
}

// New builds a Cache bound to tr for the lifetime of one document.
func New(tr Translator) *Cache {
	return &Cache{entries: make(map[string]string), tr: tr}
}

// Usage returns the usage aggregated so far.
func (c *Cache) Usage() internal.ProviderUsage { return c.usage }

// Model returns the model tag observed on the first response, if any.
func (c *Cache) Model() string { return c.model }

// Translate returns the cached translation for core, or calls the
// translator and stores the result. Exactly one LLM call is made per
// distinct source segment for the lifetime of the cache.
func (c *Cache) Translate(core string) (string, error) {
	if t, ok := c.entries[core]; ok {
		return t, nil
	}
	resp, err := c.tr.Translate(core)
	if err != nil {
		return "", err
	}
	translated, _ := resp.Args["translation"].(string)
	c.record(resp)
	c.entries[core] = translated
	return translated, nil
}

func (c *Cache) record(resp internal.ProviderResponse) {
	c.usage.Add(resp.Usage)
	if c.model == "" {
		c.model = resp.Model
	}
}

// RecordUsage folds usage and model from a tool call made outside the
// per-segment Translate path (e.g. the OCR normalization orchestrator's
// batched normalize_ocr/romanize_ocr calls) into this cache's running
// totals, so the final manifest reports correct usage regardless of which
// tool produced it.
func (c *Cache) RecordUsage(resp internal.ProviderResponse) {
	c.record(resp)
}

// TranslatePreserveWhitespace splits text into leading/core/trailing
// Unicode whitespace, passes only the core through the cache, and
// reassembles the result.
func (c *Cache) TranslatePreserveWhitespace(text string) (string, error) {
	afterLeading := strings.TrimLeftFunc(text, unicode.IsSpace)
	leading := text[:len(text)-len(afterLeading)]
	core := strings.TrimRightFunc(afterLeading, unicode.IsSpace)
	trailing := afterLeading[len(core):]
	if core == "" {
		return text, nil
	}
	translated, err := c.Translate(core)
	if err != nil {
		return "", err
	}
	return leading + translated + trailing, nil
}

var (
	ocrControlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f]`)
	ocrNoisePunct   = regexp.MustCompile(`^[\p{P}\s]+|[\p{P}\s]+$`)
	purelyNumeric   = regexp.MustCompile(`^[\d%,.+\- ]+$`)
	asciiAlnum      = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
)

// TranslateOCRLine sanitizes OCR-extracted text (collapsing whitespace,
// dropping control characters, trimming CJK-adjacent noise punctuation and
// one stray edge digit) and skips strings that are purely numeric, purely
// ASCII alphanumeric, or a single character.
func (c *Cache) TranslateOCRLine(text string) (string, bool, error) {
	cleaned := ocrControlChars.ReplaceAllString(text, "")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	cleaned = ocrNoisePunct.ReplaceAllString(cleaned, "")
	cleaned = stripStrayEdgeDigit(cleaned)

	runes := []rune(cleaned)
	if cleaned == "" || len(runes) == 1 || purelyNumeric.MatchString(cleaned) || asciiAlnum.MatchString(cleaned) {
		return text, false, nil
	}

	translated, err := c.Translate(cleaned)
	if err != nil {
		return "", false, err
	}
	return translated, true, nil
}

// stripStrayEdgeDigit removes a single leading or trailing digit that is
// not part of a longer numeric run, a common hOCR artifact (page-number
// bleed-through, stray OCR noise glyph).
func stripStrayEdgeDigit(s string) string {
	runes := []rune(s)
	if len(runes) < 2 {
		return s
	}
	if unicode.IsDigit(runes[0]) && !unicode.IsDigit(runes[1]) {
		runes = runes[1:]
	}
	if n := len(runes); n >= 2 && unicode.IsDigit(runes[n-1]) && !unicode.IsDigit(runes[n-2]) {
		runes = runes[:n-1]
	}
	return string(runes)
}

// Finish seals the cache into an AttachmentTranslation once the caller has
// produced the final reassembled bytes.
func (c *Cache) Finish(mime string, bytes []byte) internal.AttachmentTranslation {
	return internal.AttachmentTranslation{
		Bytes: bytes,
		Mime:  mime,
		Model: c.model,
		Usage: c.usage,
	}
}
