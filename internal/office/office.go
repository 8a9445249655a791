// Package office routes Office Open XML (docx/pptx/xlsx) container parts
// to the XML walker and reassembles the container, preserving every entry's
// compression method and iteration order. Grounded on the teacher's
// archive-handling idiom in cmd/cache.go (open, iterate, rewrite) adapted
// to archive/zip; stdlib only, since routing ZIP entries by name prefix
// needs nothing beyond archive/zip.
package office

import (
	"archive/zip"
	"bytes"
	"strings"

	"github.com/valpere/polyglotter/internal/errs"
	"github.com/valpere/polyglotter/internal/walk/xmlwalk"
)

// Kind identifies which Office container format is being routed.
type Kind int

const (
	KindDocx Kind = iota
	KindPptx
	KindXlsx
)

// Translator turns source text into translated text via the document's
// translation cache.
type Translator func(core string) (string, error)

var routedPrefix = map[Kind]string{
	KindDocx: "word/",
	KindPptx: "ppt/",
	KindXlsx: "xl/",
}

// targetsFor returns the XML element names whose character data should be
// translated for the given container kind. xlsx additionally tracks si/is
// ancestry so only shared-string and inline-string text is touched.
func targetsFor(kind Kind) []xmlwalk.TargetElement {
	switch kind {
	case KindDocx:
		return []xmlwalk.TargetElement{{Local: "t"}}
	case KindPptx:
		return []xmlwalk.TargetElement{{Local: "t"}}
	case KindXlsx:
		return []xmlwalk.TargetElement{{Local: "t", TrackSIIS: true}}
	default:
		return nil
	}
}

// Walk opens data as a ZIP container, routes every `.xml` entry under the
// kind's prefix through the XML walker, copies every other entry verbatim,
// and returns a reassembled ZIP preserving compression method and order.
func Walk(data []byte, kind Kind, tr Translator) ([]byte, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errs.WithFormat(errs.Decode, "office-zip", err)
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	prefix := routedPrefix[kind]
	targets := targetsFor(kind)

	for _, f := range r.File {
		if err := copyOrTranslateEntry(w, f, prefix, targets, tr); err != nil {
			return nil, err
		}
	}

	if err := w.Close(); err != nil {
		return nil, errs.WithFormat(errs.Decode, "office-zip", err)
	}
	return buf.Bytes(), nil
}

func copyOrTranslateEntry(w *zip.Writer, f *zip.File, prefix string, targets []xmlwalk.TargetElement, tr Translator) error {
	rc, err := f.Open()
	if err != nil {
		return errs.WithFormat(errs.Decode, "office-zip", err)
	}
	defer rc.Close()

	content := make([]byte, 0, f.UncompressedSize64)
	buf := bytes.NewBuffer(content)
	if _, err := buf.ReadFrom(rc); err != nil {
		return errs.WithFormat(errs.Decode, "office-zip", err)
	}
	content = buf.Bytes()

	if strings.HasPrefix(f.Name, prefix) && strings.HasSuffix(f.Name, ".xml") {
		translated, err := xmlwalk.Walk(content, targets, xmlwalk.Translator(tr))
		if err != nil {
			return err
		}
		content = translated
	}

	hdr := &zip.FileHeader{
		Name:     f.Name,
		Method:   f.Method,
		Modified: f.Modified,
	}
	entryWriter, err := w.CreateHeader(hdr)
	if err != nil {
		return errs.WithFormat(errs.Decode, "office-zip", err)
	}
	if _, err := entryWriter.Write(content); err != nil {
		return errs.WithFormat(errs.Decode, "office-zip", err)
	}
	return nil
}

// DetectKind infers the Office container kind from its entry list, mirroring
// the MIME resolver's ZIP-discriminating sniff.
func DetectKind(data []byte) (Kind, bool) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, false
	}
	for _, f := range r.File {
		switch {
		case strings.HasPrefix(f.Name, "word/"):
			return KindDocx, true
		case strings.HasPrefix(f.Name, "ppt/"):
			return KindPptx, true
		case strings.HasPrefix(f.Name, "xl/"):
			return KindXlsx, true
		}
	}
	return 0, false
}
