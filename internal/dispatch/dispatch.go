// Package dispatch routes a resolved DataAttachment to the component that
// knows how to translate it: the OCR+overlay pipeline for images, the PDF
// page bridge, the audio bridge, the Office ZIP router, a structured-text
// walker keyed by MIME or file extension, or the plain text-segment
// translator as the fallback. Grounded on original_source's src/lib.rs
// top-level dispatch match and the teacher's buildServices table-dispatch
// idiom in cmd/common.go.
package dispatch

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/valpere/polyglotter/internal"
	"github.com/valpere/polyglotter/internal/audio"
	"github.com/valpere/polyglotter/internal/cache"
	"github.com/valpere/polyglotter/internal/errs"
	"github.com/valpere/polyglotter/internal/ocr/engine"
	"github.com/valpere/polyglotter/internal/ocr/normalize"
	"github.com/valpere/polyglotter/internal/ocr/overlay"
	"github.com/valpere/polyglotter/internal/office"
	"github.com/valpere/polyglotter/internal/pdfbridge"
	"github.com/valpere/polyglotter/internal/prompt"
	"github.com/valpere/polyglotter/internal/provider"
	"github.com/valpere/polyglotter/internal/segment"
	"github.com/valpere/polyglotter/internal/walk/codewalk"
	"github.com/valpere/polyglotter/internal/walk/htmlwalk"
	"github.com/valpere/polyglotter/internal/walk/jsonwalk"
	"github.com/valpere/polyglotter/internal/walk/mdwalk"
	"github.com/valpere/polyglotter/internal/walk/powalk"
	"github.com/valpere/polyglotter/internal/walk/suppress"
	"github.com/valpere/polyglotter/internal/walk/xmlwalk"
	"github.com/valpere/polyglotter/internal/walk/yamlwalk"
	"github.com/valpere/polyglotter/internal/whispermodel"
)

// exactMime names the fixed set of container/document MIME types the
// dispatcher recognizes by exact string, ahead of any prefix match.
const (
	mimeDocx     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimePptx     = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	mimeXlsx     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeHTML     = "text/html"
	mimeJSON     = "application/json"
	mimeYAML     = "application/x-yaml"
	mimeYAMLAlt  = "text/yaml"
	mimePO       = "text/x-gettext-translation"
	mimeMarkdown = "text/markdown"
	mimePDF      = "application/pdf"
)

// codeExtensions maps a file extension to the codewalk dialect that
// tokenizes it. MIME sniffing cannot distinguish these from plain text, so
// routing falls back to the attachment's filename.
var codeExtensions = map[string]codewalk.Dialect{
	".js":      codewalk.DialectJS,
	".jsx":     codewalk.DialectTSX,
	".ts":      codewalk.DialectJS,
	".tsx":     codewalk.DialectTSX,
	".mmd":     codewalk.DialectMermaid,
	".mermaid": codewalk.DialectMermaid,
}

// Config bundles every dependency the dispatcher needs to route and
// translate one attachment. Callers build one Config per document (or per
// scheduler task), sharing Cache so usage aggregates across every
// component a single attachment exercises.
type Config struct {
	Cache           *cache.Cache
	Builder         provider.Builder
	Prompts         *prompt.Renderer
	WhisperResolver *whispermodel.Resolver
	Opts            internal.TranslateOptions

	WorkDir         string
	TesseractPath   string
	EnableNormalize bool
	OverlayFooter   bool
	OverlayStyle    overlay.Style

	// WhisperModelOverride is the explicit model configuration (absolute
	// path or canonical name) resolved ahead of env vars and the default.
	WhisperModelOverride string
}

// Dispatcher routes attachments to the component that translates them.
type Dispatcher struct {
	cfg Config
}

// New builds a Dispatcher bound to cfg for the lifetime of one document.
func New(cfg Config) *Dispatcher {
	return &Dispatcher{cfg: cfg}
}

// Dispatch translates att and seals the result as an AttachmentTranslation.
func (d *Dispatcher) Dispatch(ctx context.Context, att internal.DataAttachment) (internal.AttachmentTranslation, error) {
	out, outMime, err := d.route(ctx, att)
	if err != nil {
		return internal.AttachmentTranslation{}, err
	}
	return internal.AttachmentTranslation{
		Bytes:      out,
		Mime:       outMime,
		Model:      d.cfg.Cache.Model(),
		Usage:      d.cfg.Cache.Usage(),
		FinishedAt: time.Now(),
	}, nil
}

func (d *Dispatcher) route(ctx context.Context, att internal.DataAttachment) ([]byte, string, error) {
	// Every structured walker shares one suppression-gated translator, so
	// code-like leaves (numeric runs, identifiers, URLs) never reach the
	// provider regardless of which format carried them.
	tr := suppress.Wrap(d.cfg.Cache.Translate)

	switch {
	case strings.HasPrefix(att.Mime, "image/"):
		out, _, err := d.translateImage(ctx, att.Bytes, att.Mime)
		return out, att.Mime, err
	case strings.HasPrefix(att.Mime, "audio/"):
		out, err := d.translateAudio(ctx, att)
		return out, att.Mime, err
	case att.Mime == mimePDF:
		out, err := d.translatePDF(ctx, att.Bytes)
		return out, att.Mime, err
	case att.Mime == mimeDocx:
		out, err := office.Walk(att.Bytes, office.KindDocx, office.Translator(tr))
		return out, att.Mime, err
	case att.Mime == mimePptx:
		out, err := office.Walk(att.Bytes, office.KindPptx, office.Translator(tr))
		return out, att.Mime, err
	case att.Mime == mimeXlsx:
		out, err := office.Walk(att.Bytes, office.KindXlsx, office.Translator(tr))
		return out, att.Mime, err
	case att.Mime == mimeHTML:
		out, err := htmlwalk.Walk(att.Bytes, htmlwalk.Options{TranslateComments: true}, htmlwalk.Translator(tr))
		return out, att.Mime, err
	case att.Mime == mimeJSON:
		out, err := jsonwalk.Walk(att.Bytes, jsonwalk.Translator(tr))
		return out, att.Mime, err
	case att.Mime == mimeYAML || att.Mime == mimeYAMLAlt:
		out, err := yamlwalk.Walk(att.Bytes, yamlwalk.Translator(tr))
		return out, att.Mime, err
	case att.Mime == mimePO:
		out, err := powalk.Walk(att.Bytes, powalk.Options{TranslateComments: true}, powalk.Translator(tr))
		return out, att.Mime, err
	case att.Mime == mimeMarkdown:
		out, err := mdwalk.Walk(att.Bytes, mdwalk.Translator(tr))
		return out, att.Mime, err
	}

	if dialect, ok := codeDialect(att.Name); ok {
		out, err := codewalk.Walk(att.Bytes, dialect, codewalk.Translator(tr))
		return out, att.Mime, err
	}

	if strings.HasPrefix(att.Mime, "application/xml") || strings.HasPrefix(att.Mime, "text/xml") {
		out, err := xmlwalk.Walk(att.Bytes, []xmlwalk.TargetElement{{Local: "t"}}, xmlwalk.Translator(tr))
		return out, att.Mime, err
	}

	out, err := d.translatePlainText(att.Bytes)
	return out, att.Mime, err
}

// codeDialect picks a codewalk dialect from the attachment's filename
// extension, since MIME sniffing cannot distinguish source dialects from
// plain text.
func codeDialect(name string) (codewalk.Dialect, bool) {
	if name == "" {
		return 0, false
	}
	dialect, ok := codeExtensions[strings.ToLower(filepath.Ext(name))]
	return dialect, ok
}

// translatePlainText implements 4.L's text fallback: decode UTF-8 (or
// lossy-decode under ForceTranslation) and run the text-segment translator
// directly, with no structural walk.
func (d *Dispatcher) translatePlainText(data []byte) ([]byte, error) {
	text := string(data)
	if !utf8.Valid(data) {
		if !d.cfg.Opts.ForceTranslation {
			return nil, errInvalidUTF8
		}
		text = strings.ToValidUTF8(text, "�")
	}

	translated, err := segment.Translate(d.cfg.Cache, text)
	if err != nil {
		return nil, err
	}
	return []byte(translated), nil
}

var errInvalidUTF8 = errs.Newf(errs.InvalidInput, "attachment is not valid UTF-8 and force_translation is not set")

// translateImage runs the OCR line engine, the normalization
// orchestrator, per-line translation, and the overlay renderer over one
// raster image. The second return value reports whether any text was
// detected, so pdf page translation can treat a textless page as
// allow_empty.
func (d *Dispatcher) translateImage(ctx context.Context, data []byte, outputMime string) ([]byte, bool, error) {
	lines, err := engine.Recognize(ctx, data, engine.Options{
		TesseractPath: d.cfg.TesseractPath,
		WorkDir:       d.cfg.WorkDir,
	})
	if err != nil {
		return nil, false, err
	}
	if len(lines) == 0 {
		return data, false, nil
	}

	var system string
	if d.cfg.Prompts != nil {
		system, _ = d.cfg.Prompts.Render("normalize_ocr", prompt.Fields{
			TargetLang: d.cfg.Opts.TargetLang,
			ToolName:   provider.ToolNormalizeOCR,
		})
	}
	orchestrator := &normalize.Orchestrator{Builder: d.cfg.Builder, Cache: d.cfg.Cache, System: system}
	annotated := orchestrator.Run(ctx, lines, d.cfg.EnableNormalize)

	annotations := make([]overlay.Annotation, len(annotated))
	for i, a := range annotated {
		translated, ok, err := d.cfg.Cache.TranslateOCRLine(a.Line.Text)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			translated = a.Line.Text
		}
		annotations[i] = overlay.Annotation{
			ID:         a.ID,
			Source:     a.Line,
			Translated: translated,
			Reading:    a.Reading,
		}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false, errs.WithFormat(errs.Decode, "ocr-image", err)
	}

	style := d.cfg.OverlayStyle
	if style == (overlay.Style{}) {
		style = overlay.DefaultStyle
	}
	out, err := overlay.Render(img, annotations, style, d.cfg.OverlayFooter, outputMime)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// translatePDF rasterizes every page, translates each as an image with
// allow_empty semantics, and recomposes the result into a new PDF.
func (d *Dispatcher) translatePDF(ctx context.Context, data []byte) ([]byte, error) {
	pages, err := pdfbridge.Render(ctx, data, d.cfg.WorkDir)
	if err != nil {
		return nil, err
	}

	translated, err := pdfbridge.TranslatePages(ctx, pages, func(ctx context.Context, png []byte) ([]byte, error) {
		out, found, err := d.translateImage(ctx, png, "image/png")
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil // allow_empty: pass the page through unchanged
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return pdfbridge.Recompose(translated)
}

// translateAudio resolves the whisper model, transcribes, translates the
// transcript through the standard text-segment translator, and
// synthesizes the result back to the attachment's container format.
func (d *Dispatcher) translateAudio(ctx context.Context, att internal.DataAttachment) ([]byte, error) {
	modelPath, err := whispermodel.Resolve(ctx, d.cfg.WhisperResolver, d.cfg.WhisperModelOverride)
	if err != nil {
		return nil, err
	}

	bridge := &audio.Bridge{
		ModelPath:  modelPath,
		WorkDir:    d.cfg.WorkDir,
		SourceLang: d.cfg.Opts.SourceLang,
		TargetLang: d.cfg.Opts.TargetLang,
	}

	ext := audioExtension(att.Mime, att.Name)
	return bridge.Translate(ctx, att.Bytes, ext, func(ctx context.Context, transcript string) (string, error) {
		return segment.Translate(d.cfg.Cache, transcript)
	})
}

// audioExtension picks the container extension ffmpeg should use, from the
// attachment's filename first and otherwise from the usual extension of its
// MIME subtype; unrecognized subtypes fall back to wav.
func audioExtension(mime, name string) string {
	if name != "" {
		if ext := strings.TrimPrefix(filepath.Ext(name), "."); ext != "" {
			return ext
		}
	}
	_, sub, _ := strings.Cut(mime, "/")
	switch sub = strings.ToLower(sub); sub {
	case "mpeg", "mp3":
		return "mp3"
	case "mp4", "x-m4a", "m4a":
		return "m4a"
	case "ogg", "opus", "flac", "aac", "webm":
		return sub
	}
	return "wav"
}
