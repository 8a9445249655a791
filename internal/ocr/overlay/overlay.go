// Package overlay computes non-overlapping label placements for
// translated OCR lines and renders them as an SVG overlay on the source
// image, then rasterizes to the caller's requested output format.
// Grounded on original_source's src/ocr/render.rs + src/ocr/font.rs;
// srwiley/oksvg + srwiley/rasterx rasterize the emitted SVG (ecosystem
// pick, no pack repo carries an SVG rasterizer), go-text/typesetting
// resolves font metrics for text fitting.
package overlay

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	"math"
	"sort"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/valpere/polyglotter/internal/errs"
	"github.com/valpere/polyglotter/internal/ocr/engine"
)

// Annotation is one placed label: the source line it annotates, its
// translated text, and (if romanized) a Latin reading.
type Annotation struct {
	ID         int
	Source     engine.Line
	Translated string
	Reading    string
}

// Style controls overlay appearance. FontFile, when set, is parsed for
// glyph metrics so text wrapping uses real advances instead of the
// per-rune estimate.
type Style struct {
	StrokeColor string
	FillColor   string
	TextColor   string
	FontFamily  string
	FontFile    string
}

// DefaultStyle matches the teacher's plain, high-contrast annotation look.
var DefaultStyle = Style{
	StrokeColor: "#000000",
	FillColor:   "#ffffaa",
	TextColor:   "#000000",
	FontFamily:  "sans-serif",
}

// Placement is a computed, non-overlapping label rectangle.
type Placement struct {
	Annotation Annotation
	Rect       Rect
	Lines      []string
	FontSize   float64
	Placed     bool
}

// Rect is an axis-aligned rectangle in image pixel coordinates.
type Rect struct {
	X, Y, W, H float64
}

const gap = 6.0

// Render computes placements for every annotation, emits an SVG overlay
// embedding the source image, and rasterizes it to outputMime.
func Render(img image.Image, annotations []Annotation, style Style, footer bool, outputMime string) ([]byte, error) {
	bounds := img.Bounds()
	width, height := float64(bounds.Dx()), float64(bounds.Dy())

	var metrics *FaceMetrics
	if style.FontFile != "" {
		m, err := LoadFace(style.FontFile)
		if err != nil {
			return nil, err
		}
		metrics = m
	}

	placements := placeAll(annotations, width, height, metrics)

	svg, err := buildSVG(img, placements, style, footer, width, height)
	if err != nil {
		return nil, err
	}

	return rasterize(svg, int(width), int(height), outputMime)
}

func medianFontSize(annotations []Annotation) float64 {
	sizes := make([]float64, 0, len(annotations))
	for _, a := range annotations {
		if a.Source.FontSize > 0 {
			sizes = append(sizes, a.Source.FontSize)
		}
	}
	if len(sizes) == 0 {
		return 16
	}
	sort.Float64s(sizes)
	return sizes[len(sizes)/2]
}

// placeAll computes a target rectangle per annotation, fits wrapped text
// into it, and resolves overlaps via spiral search.
func placeAll(annotations []Annotation, width, height float64, metrics *FaceMetrics) []Placement {
	baseFont := clamp(medianFontSize(annotations)*1.15, 12, 32)

	placed := make([]Placement, 0, len(annotations))
	sourceBoxes := make([]Rect, len(annotations))
	for i, a := range annotations {
		sourceBoxes[i] = Rect{X: a.Source.BBox.X, Y: a.Source.BBox.Y, W: a.Source.BBox.W, H: a.Source.BBox.H}
	}

	for i, a := range annotations {
		padding := clamp(0.22*a.Source.BBox.H, 4, 10)
		targetW := a.Source.BBox.W + 2*padding
		centerX := a.Source.BBox.X + a.Source.BBox.W/2
		anchorY := a.Source.BBox.Y + a.Source.BBox.H + padding

		maxWrap := 3
		if cjkRatio(a.Translated) > 0.3 {
			maxWrap = 4
		}

		fontSize := baseFont
		var wrapped []string
		for attempt := 0; attempt < 4; attempt++ {
			if metrics != nil {
				wrapped = wrapMeasured(a.Translated, targetW, fontSize, metrics)
			} else {
				wrapped = wrapText(a.Translated, targetW, fontSize)
			}
			if len(wrapped) <= maxWrap {
				break
			}
			fontSize = clamp(fontSize*0.85, 10, 32)
		}

		lineHeight := fontSize * 1.3
		targetH := lineHeight*float64(len(wrapped)) + 2*padding

		rect := Rect{
			X: clamp(centerX-targetW/2, 0, math.Max(0, width-targetW)),
			Y: clamp(anchorY, 0, math.Max(0, height-targetH)),
			W: targetW,
			H: targetH,
		}

		obstacles := obstaclesFor(i, sourceBoxes, placed)
		finalRect, ok := spiralPlace(rect, obstacles, sourceBoxes[i], width, height)

		placed = append(placed, Placement{
			Annotation: a,
			Rect:       finalRect,
			Lines:      wrapped,
			FontSize:   fontSize,
			Placed:     ok,
		})
	}
	return placed
}

func obstaclesFor(idx int, sourceBoxes []Rect, placed []Placement) []Rect {
	var obstacles []Rect
	for i, b := range sourceBoxes {
		if i != idx {
			obstacles = append(obstacles, b)
		}
	}
	for _, p := range placed {
		obstacles = append(obstacles, p.Rect)
	}
	return obstacles
}

// spiralPlace searches offsets at increasing radii for a rectangle
// position that clears every obstacle (with gap breathing room) except
// the line's own anchor, which may overlap up to 20% vertically.
func spiralPlace(start Rect, obstacles []Rect, anchor Rect, width, height float64) (Rect, bool) {
	maxRadius := math.Max(width, height)
	offsets := [][2]float64{{0, 0}, {1, 0}, {-1, 0}, {0, -1}, {0, 1}, {1, -1}, {-1, -1}, {1, 1}, {-1, 1}}

	for radius := 0.0; radius <= maxRadius; radius += gap {
		for _, off := range offsets {
			candidate := Rect{
				X: clamp(start.X+off[0]*radius, 0, math.Max(0, width-start.W)),
				Y: clamp(start.Y+off[1]*radius, 0, math.Max(0, height-start.H)),
				W: start.W, H: start.H,
			}
			if fitsAt(candidate, obstacles, anchor) {
				return candidate, true
			}
		}
	}
	return start, false
}

// fitsAt reports whether candidate clears every obstacle with gap
// breathing room. The anchor rectangle is exempted from the overlap check
// entirely up to a 20% vertical overlap, per the spec's own-anchor
// tolerance; beyond that it is treated like any other obstacle.
func fitsAt(candidate Rect, obstacles []Rect, anchor Rect) bool {
	if verticalOverlapFraction(candidate, anchor) > 0.2 && rectsClose(candidate, anchor, gap) {
		return false
	}
	for _, o := range obstacles {
		if rectsClose(candidate, o, gap) {
			return false
		}
	}
	return true
}

func verticalOverlapFraction(a, b Rect) float64 {
	top := math.Max(a.Y, b.Y)
	bottom := math.Min(a.Y+a.H, b.Y+b.H)
	if bottom <= top {
		return 0
	}
	return (bottom - top) / math.Min(a.H, b.H)
}

func rectsClose(a, b Rect, margin float64) bool {
	return a.X < b.X+b.W+margin && a.X+a.W+margin > b.X &&
		a.Y < b.Y+b.H+margin && a.Y+a.H+margin > b.Y
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// wrapText estimates character width from fontSize and greedily wraps
// words into lines no wider than maxWidth.
func wrapText(text string, maxWidth, fontSize float64) []string {
	charWidth := fontSize * 0.55
	maxChars := int(maxWidth / charWidth)
	if maxChars < 1 {
		maxChars = 1
	}

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
		if len([]rune(candidate)) > maxChars && cur != "" {
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

func cjkRatio(s string) float64 {
	if s == "" {
		return 0
	}
	total, cjk := 0, 0
	for _, r := range s {
		total++
		if r >= 0x3000 && r <= 0x9FFF || r >= 0xAC00 && r <= 0xD7A3 {
			cjk++
		}
	}
	return float64(cjk) / float64(total)
}

// rasterize renders SVG bytes into an in-memory image at the requested
// size using oksvg/rasterx, then encodes it to outputMime.
func rasterize(svg []byte, width, height int, outputMime string) ([]byte, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg))
	if err != nil {
		return nil, errs.WithFormat(errs.Decode, "overlay-svg", err)
	}
	icon.SetTarget(0, 0, float64(width), float64(height))

	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(rgba, rgba.Bounds(), image.Transparent, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(width, height, rgba, rgba.Bounds())
	raster := rasterx.NewDasher(width, height, scanner)
	icon.Draw(raster, 1.0)

	return encodeImage(rgba, outputMime)
}

// buildSVG emits a deterministic SVG document: the source image as a
// base64 data URL background, then one rect+text block per placement, and
// an optional footer legend band.
func buildSVG(img image.Image, placements []Placement, style Style, footer bool, width, height float64) ([]byte, error) {
	var b strings.Builder
	footerH := 0.0
	if footer {
		footerH = footerHeight(placements, width)
	}

	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g">`,
		width, height+footerH, width, height+footerH)

	dataURL, err := imageDataURL(img)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(&b, `<image x="0" y="0" width="%g" height="%g" href="%s"/>`, width, height, dataURL)

	for _, p := range placements {
		if !p.Placed {
			continue
		}
		fmt.Fprintf(&b, `<rect x="%g" y="%g" width="%g" height="%g" fill="%s" stroke="%s" stroke-width="1"/>`,
			p.Rect.X, p.Rect.Y, p.Rect.W, p.Rect.H, style.FillColor, style.StrokeColor)
		lineHeight := p.FontSize * 1.3
		for i, line := range p.Lines {
			ty := p.Rect.Y + p.FontSize + float64(i)*lineHeight
			fmt.Fprintf(&b, `<text x="%g" y="%g" font-family="%s" font-size="%g" fill="%s">%s</text>`,
				p.Rect.X+4, ty, style.FontFamily, p.FontSize, style.TextColor, escapeXML(line))
		}
	}

	if footer {
		writeFooter(&b, placements, width, height, style)
	}

	b.WriteString(`</svg>`)
	return []byte(b.String()), nil
}

func footerHeight(placements []Placement, width float64) float64 {
	lineHeight := 16.0
	lines := 0
	for range placements {
		lines++
	}
	return float64(lines)*lineHeight + 10
}

func writeFooter(b *strings.Builder, placements []Placement, width, height float64, style Style) {
	footerH := footerHeight(placements, width)
	fmt.Fprintf(b, `<rect x="0" y="%g" width="%g" height="%g" fill="#000000" fill-opacity="0.6"/>`, height, width, footerH)

	lineHeight := 16.0
	y := height + lineHeight
	for _, p := range placements {
		entry := fmt.Sprintf("(%d) %s", p.Annotation.ID, p.Annotation.Source.Text)
		if p.Annotation.Reading != "" {
			entry += fmt.Sprintf(" (%s)", p.Annotation.Reading)
		}
		entry += ": " + p.Annotation.Translated
		fmt.Fprintf(b, `<text x="8" y="%g" font-family="%s" font-size="13" fill="#ffffff">%s</text>`, y, style.FontFamily, escapeXML(entry))
		y += lineHeight
	}
}

func escapeXML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}

func imageDataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := encodeImagePNG(&buf, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
