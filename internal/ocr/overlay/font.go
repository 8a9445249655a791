package overlay

import (
	"bytes"
	"os"
	"strings"

	"github.com/go-text/typesetting/font"

	"github.com/valpere/polyglotter/internal/errs"
)

// FaceMetrics measures text advances against a parsed font face so wrap
// decisions match what the rasterizer draws. A nil *FaceMetrics falls back
// to the per-rune estimate in wrapText.
type FaceMetrics struct {
	face *font.Face
	upem float64
}

// LoadFace parses a TTF/OTF file into a FaceMetrics.
func LoadFace(path string) (*FaceMetrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.WithFormat(errs.Decode, "overlay-font", err)
	}
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, errs.WithFormat(errs.Decode, "overlay-font", err)
	}
	return &FaceMetrics{face: face, upem: float64(face.Upem())}, nil
}

// Width returns the advance width of s at fontSize pixels. Runes the face
// has no glyph for are charged an em-fraction so widths stay monotonic.
func (m *FaceMetrics) Width(s string, fontSize float64) float64 {
	var units float64
	for _, r := range s {
		gid, ok := m.face.NominalGlyph(r)
		if !ok {
			units += m.upem * 0.55
			continue
		}
		units += float64(m.face.HorizontalAdvance(gid))
	}
	return units / m.upem * fontSize
}

// wrapMeasured greedily wraps words into lines no wider than maxWidth
// using real glyph advances.
func wrapMeasured(text string, maxWidth, fontSize float64, m *FaceMetrics) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	var cur string
	for _, w := range words {
		candidate := w
		if cur != "" {
			candidate = cur + " " + w
		}
		if m.Width(candidate, fontSize) > maxWidth && cur != "" {
			lines = append(lines, cur)
			cur = w
		} else {
			cur = candidate
		}
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}
