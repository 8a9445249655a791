// Package engine rasterizes OCR by preprocessing an image two ways,
// shelling out to tesseract twice per variant (hOCR then TSV fallback),
// parsing both output formats, merging across passes, and filtering noise
// down to a stable, deterministically ordered line list. Grounded on
// original_source's src/ocr/engine/{tesseract,parse,merge,layout,preprocess}.rs;
// anthonynsimon/bild supplies the preprocessing pipeline, os/exec shells
// out to the tesseract binary since no pack library exposes the literal
// dual hOCR/TSV CLI artifacts the merge step needs.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"
	"os"
	"os/exec"
	"sort"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/anthonynsimon/bild/transform"

	"github.com/valpere/polyglotter/internal/errs"
)

// Line is one recognized text line with its bounding box in source image
// pixel coordinates.
type Line struct {
	Text       string
	BBox       BBox
	Confidence float64
	FontSize   float64
}

// BBox is an axis-aligned pixel rectangle.
type BBox struct {
	X, Y, W, H float64
}

// Options configures a recognition pass.
type Options struct {
	TesseractPath string // defaults to "tesseract" on PATH
	WorkDir       string // defaults to os.TempDir()
}

// Recognize runs the full pipeline described in the spec: decode, scale,
// two preprocessing variants, two PSM passes per variant, parse, merge,
// unscale, filter, and non-max-suppress.
func Recognize(ctx context.Context, data []byte, opts Options) ([]Line, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errs.WithFormat(errs.Decode, "ocr-image", err)
	}

	bounds := img.Bounds()
	width := float64(bounds.Dx())
	scale := math.Min(3, 6000/width)
	if scale <= 0 {
		scale = 1
	}

	scaled := img
	if scale != 1 {
		scaled = transform.Resize(img, int(width*scale), int(float64(bounds.Dy())*scale), transform.Linear)
	}

	variantA := preprocessBinarized(scaled)
	variantB := preprocessGrayscale(scaled)

	var allLines []Line
	for _, variant := range []image.Image{variantA, variantB} {
		for _, psm := range []string{"6", "4"} {
			words, err := runTesseract(ctx, variant, psm, opts)
			if err != nil {
				return nil, err
			}
			allLines = append(allLines, groupIntoLines(words)...)
		}
	}

	lines := mergeAcrossPasses(allLines)
	lines = unscale(lines, scale)
	lines = filterNoise(lines, bounds.Dx(), bounds.Dy())
	lines = mergeInlineFragments(lines)
	lines = nonMaxSuppress(lines)

	sort.Slice(lines, func(i, j int) bool {
		if lines[i].BBox.Y != lines[j].BBox.Y {
			return lines[i].BBox.Y < lines[j].BBox.Y
		}
		return lines[i].BBox.X < lines[j].BBox.X
	})
	return lines, nil
}

// preprocessBinarized applies the contrast-stretched + binarized grayscale
// variant.
func preprocessBinarized(img image.Image) image.Image {
	gray := effect.Grayscale(img)
	contrasted := adjust.Contrast(gray, 0.3)
	return segment.Threshold(contrasted, 128)
}

// preprocessGrayscale applies the contrast-stretched grayscale variant
// without binarization, which tesseract sometimes recognizes better on
// low-contrast source material.
func preprocessGrayscale(img image.Image) image.Image {
	gray := effect.Grayscale(img)
	return adjust.Contrast(gray, 0.3)
}

type rawWord struct {
	text       string
	bbox       BBox
	confidence float64
	block, par, line int
}

// runTesseract shells out to the external tesseract binary with the given
// page-segmentation mode, requesting hOCR output and falling back to TSV
// when hOCR comes back empty.
func runTesseract(ctx context.Context, img image.Image, psm string, opts Options) ([]rawWord, error) {
	bin := opts.TesseractPath
	if bin == "" {
		bin = "tesseract"
	}
	workDir := opts.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}

	inputPath, err := writePNG(img, workDir)
	if err != nil {
		return nil, err
	}
	defer os.Remove(inputPath)

	hocr, err := invokeTesseract(ctx, bin, inputPath, psm, "hocr")
	if err == nil && len(bytes.TrimSpace(hocr)) > 0 {
		words, perr := parseHOCR(hocr)
		if perr == nil && len(words) > 0 {
			return words, nil
		}
	}

	tsv, err := invokeTesseract(ctx, bin, inputPath, psm, "tsv")
	if err != nil {
		return nil, errs.WithFormat(errs.ExternalCommand, "tesseract", err)
	}
	return parseTSV(tsv)
}

func writePNG(img image.Image, workDir string) (string, error) {
	f, err := os.CreateTemp(workDir, "ocr-*.png")
	if err != nil {
		return "", errs.WithFormat(errs.ExternalCommand, "tesseract", err)
	}
	defer f.Close()
	if err := encodePNG(f, img); err != nil {
		return "", err
	}
	return f.Name(), nil
}

func invokeTesseract(ctx context.Context, bin, inputPath, psm, format string) ([]byte, error) {
	outBase := inputPath + "-" + format
	args := []string{inputPath, outBase, "--psm", psm, format}
	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errs.WithFormat(errs.ExternalCommand, "tesseract", fmt.Errorf("%w: %s", err, stderr.String()))
	}
	ext := ".hocr"
	if format == "tsv" {
		ext = ".tsv"
	}
	defer os.Remove(outBase + ext)
	return os.ReadFile(outBase + ext)
}
