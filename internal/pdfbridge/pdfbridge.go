// Package pdfbridge rasterizes each page of a PDF to PNG via an external
// tool, lets the caller translate each page as an image, and recomposes
// the translated pages into a new PDF. Grounded on original_source's
// src/attachments/media/pdf/mod.rs; os/exec shells out to mutool/pdftoppm
// (the spec's literal external-command model, same pattern as the OCR
// engine), pdfcpu recomposes PNGs into a PDF since it's already a pack
// dependency for Office-adjacent document assembly.
package pdfbridge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"

	"github.com/valpere/polyglotter/internal/errs"
)

// RasterizeDPI is the page-rasterization resolution used when shelling
// out to the preferred rasterizer.
const RasterizeDPI = 200

// RecomposeDPI is the resolution assumed when computing page dimensions
// for the recomposed PDF — intentionally distinct from RasterizeDPI.
const RecomposeDPI = 72

// Page is one rendered PDF page, in page order.
type Page struct {
	Index int
	PNG   []byte
}

// PageTranslator turns one rasterized page's PNG bytes into translated PNG
// bytes, or returns (nil, nil) to mean "no text detected, pass through
// unchanged" (`allow_empty`).
type PageTranslator func(ctx context.Context, png []byte) ([]byte, error)

var pageNumberRe = regexp.MustCompile(`(\d+)\D*$`)

// Render rasterizes data (a PDF document) to one PNG per page via mutool
// if available, falling back to pdftoppm, sorted by page order.
func Render(ctx context.Context, data []byte, workDir string) ([]Page, error) {
	if workDir == "" {
		workDir = os.TempDir()
	}
	dir, err := os.MkdirTemp(workDir, "pdfbridge-*")
	if err != nil {
		return nil, errs.WithFormat(errs.ExternalCommand, "pdf-render", err)
	}
	defer os.RemoveAll(dir)

	srcPath := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(srcPath, data, 0o644); err != nil {
		return nil, errs.WithFormat(errs.ExternalCommand, "pdf-render", err)
	}

	outPattern := filepath.Join(dir, "page-%03d.png")
	if err := renderWithMutool(ctx, srcPath, outPattern); err != nil {
		if err := renderWithPdftoppm(ctx, srcPath, filepath.Join(dir, "page")); err != nil {
			return nil, err
		}
	}

	return collectPages(dir)
}

func renderWithMutool(ctx context.Context, src, outPattern string) error {
	cmd := exec.CommandContext(ctx, "mutool", "draw", "-r", strconv.Itoa(RasterizeDPI), "-o", outPattern, src)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return errs.WithFormat(errs.ExternalCommand, "mutool", fmt.Errorf("%w: %s", err, stderr.String()))
	}
	return nil
}

func renderWithPdftoppm(ctx context.Context, src, outPrefix string) error {
	cmd := exec.CommandContext(ctx, "pdftoppm", "-png", "-r", strconv.Itoa(RasterizeDPI), src, outPrefix)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return errs.WithFormat(errs.ExternalCommand, "pdftoppm", fmt.Errorf("%w: %s", err, stderr.String()))
	}
	return nil
}

// collectPages reads every `*.png` file in dir and sorts it by the
// trailing integer in its filename, preserving page order regardless of
// which rasterizer's naming convention produced the files.
func collectPages(dir string) ([]Page, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errs.WithFormat(errs.ExternalCommand, "pdf-render", err)
	}

	var pages []Page
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".png" {
			continue
		}
		m := pageNumberRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, errs.WithFormat(errs.ExternalCommand, "pdf-render", err)
		}
		pages = append(pages, Page{Index: n, PNG: data})
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })
	return pages, nil
}

// TranslatePages applies tr to every page, honoring allow_empty: a page
// with (nil, nil) is passed through unchanged.
func TranslatePages(ctx context.Context, pages []Page, tr PageTranslator) ([]Page, error) {
	out := make([]Page, len(pages))
	for i, p := range pages {
		translated, err := tr(ctx, p.PNG)
		if err != nil {
			return nil, err
		}
		if translated == nil {
			out[i] = p
			continue
		}
		out[i] = Page{Index: p.Index, PNG: translated}
	}
	return out, nil
}

// Recompose builds a new PDF from translated pages, one image per page.
// pdfcpu's default import maps one pixel to one point (RecomposeDPI), so
// pages rasterized at RasterizeDPI come back geometrically larger than
// the source document; that mismatch is kept intentionally.
func Recompose(pages []Page) ([]byte, error) {
	readers := make([]io.Reader, len(pages))
	for i, p := range pages {
		readers[i] = bytes.NewReader(p.PNG)
	}

	imp := pdfcpu.DefaultImportConfig()

	var out bytes.Buffer
	if err := api.ImportImages(nil, &out, readers, imp, nil); err != nil {
		return nil, errs.WithFormat(errs.Decode, "pdf-recompose", err)
	}
	return out.Bytes(), nil
}
