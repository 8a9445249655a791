// Package internal holds the data model shared across every component of
// the translation core: the immutable request/response shapes that flow
// between the MIME resolver, the dispatcher, the walkers, and the
// provider contract.
package internal

import "time"

// DataAttachment is an immutable carrier of raw bytes plus a resolved MIME
// type. Its lifetime is a single request: produced by the MIME resolver (or
// the caller) and consumed by the dispatcher.
type DataAttachment struct {
	Bytes []byte
	Mime  string
	Name  string
}

// TranslateOptions configures a single translation pass. Immutable for the
// duration of a request.
type TranslateOptions struct {
	TargetLang string
	SourceLang string // "auto" permitted
	Style      string
	Slang      bool

	// ForceTranslation relaxes strict failure modes: UTF-8 decode errors
	// fall back to lossy decoding and low-confidence MIME detection is
	// accepted as text/plain instead of failing.
	ForceTranslation bool
}

// Segment is a single OCR-detected line of text.
type Segment struct {
	Text       string
	BBox       BBox
	Confidence float64
	FontSize   float64
}

// BBox is a pixel-space bounding box. Strictly within the rasterized image:
// 0 <= X, Y and X+W <= imageWidth, Y+H <= imageHeight, W > 0, H > 0.
type BBox struct {
	X, Y, W, H float64
}

// ProviderUsage is a rolling token-usage counter, summed componentwise
// across every LLM call made while translating one document.
type ProviderUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Seen             bool // true once any response has reported usage
}

// Add folds u2's counts into u, componentwise.
func (u *ProviderUsage) Add(u2 ProviderUsage) {
	u.PromptTokens += u2.PromptTokens
	u.CompletionTokens += u2.CompletionTokens
	u.TotalTokens += u2.TotalTokens
	u.Seen = u.Seen || u2.Seen
}

// ProviderResponse is the decoded result of one tool-call round trip: the
// structured arguments matching the requested tool schema, plus whichever
// model served the call and whatever usage it reported.
type ProviderResponse struct {
	Args  map[string]any
	Model string
	Usage ProviderUsage
}

// AttachmentTranslation is the sealed output of translating one
// DataAttachment: the translated bytes, the output MIME (usually equal to
// the input MIME), the model that ultimately produced the content, and
// the usage aggregated across every LLM call the document required.
type AttachmentTranslation struct {
	Bytes      []byte
	Mime       string
	Model      string
	Usage      ProviderUsage
	FinishedAt time.Time
}
