// Package mimetype resolves a DataAttachment's MIME type from a user hint,
// magic-byte sniffing, ZIP entry discrimination, filename extension, and
// finally an optional low-confidence LLM probe. Grounded on the layered
// fallback pattern cogentcore-core's filecat.MimeFromFile uses (map →
// sniffer → extension), adapted to the translation core's ZIP/OOXML
// discrimination and tool-call fallback.
package mimetype

import (
	"archive/zip"
	"bytes"
	"fmt"
	stdmime "mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/valpere/polyglotter/internal/errs"
)

// aliases maps short hint tags to fully-qualified MIME types.
var aliases = map[string]string{
	"auto":  "",
	"text":  "text/plain",
	"image": "image/png",
	"pdf":   "application/pdf",
	"docx":  "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"pptx":  "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"xlsx":  "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"html":  "text/html",
	"json":  "application/json",
	"yaml":  "application/x-yaml",
	"po":    "text/x-gettext-translation",
	"audio": "audio/wav",
}

// Prober calls the LLM with the fixed detect_mime tool schema
// {mime: string, confident: bool} when sniffing is inconclusive.
type Prober interface {
	ProbeMime(data []byte) (mime string, confident bool, err error)
}

// Resolve implements the four-step MIME resolution policy: hint alias,
// magic-byte sniff with ZIP discrimination, filename extension, and
// (if prober is non-nil) an LLM probe.
func Resolve(data []byte, hint, filename string, forceTranslation bool, prober Prober) (string, error) {
	if hint != "" {
		if m, ok := aliases[hint]; ok && m != "" {
			return m, nil
		}
		if strings.Contains(hint, "/") {
			return hint, nil
		}
	}

	if m, ok := sniffZIP(data); ok {
		return m, nil
	}

	mt := mimetype.Detect(data)
	if mt != nil && mt.String() != "" && mt.String() != "application/octet-stream" {
		return normalizeText(mt.String(), data), nil
	}

	if filename != "" {
		if ext := filepath.Ext(filename); ext != "" {
			if m := stdmime.TypeByExtension(ext); m != "" {
				return strings.Split(m, ";")[0], nil
			}
		}
	}

	if prober != nil {
		m, confident, err := prober.ProbeMime(data)
		if err == nil && m != "" {
			if confident {
				return m, nil
			}
			if forceTranslation {
				return "text/plain", nil
			}
			return "", errs.New(errs.MimeLowConfidence, fmt.Errorf("low-confidence probe: %s", m))
		}
	}

	return "", errs.New(errs.UnsupportedMime, fmt.Errorf("could not resolve mime for %q", filename))
}

// sniffZIP discriminates docx/pptx/xlsx by the prefix of the ZIP's first
// entries, since they are all plain ZIP containers at the magic-byte level.
func sniffZIP(data []byte) (string, bool) {
	if !bytes.HasPrefix(data, []byte("PK\x03\x04")) && !bytes.HasPrefix(data, []byte("PK\x05\x06")) {
		return "", false
	}
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", false
	}
	for _, f := range r.File {
		switch {
		case strings.HasPrefix(f.Name, "word/"):
			return "application/vnd.openxmlformats-officedocument.wordprocessingml.document", true
		case strings.HasPrefix(f.Name, "ppt/"):
			return "application/vnd.openxmlformats-officedocument.presentationml.presentation", true
		case strings.HasPrefix(f.Name, "xl/"):
			return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", true
		}
	}
	return "application/zip", true
}

// normalizeText narrows mimetype's generic "text/plain; charset=utf-8"
// result to JSON (content starting with '{' or '[') or gettext PO (content
// starting with "msgid"). YAML is not detected here and stays text/plain.
func normalizeText(detected string, data []byte) string {
	base := strings.Split(detected, ";")[0]
	if base != "text/plain" {
		return base
	}
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '['):
		return "application/json"
	case bytes.HasPrefix(trimmed, []byte("msgid")):
		return "text/x-gettext-translation"
	}
	return base
}
