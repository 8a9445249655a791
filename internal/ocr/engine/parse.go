package engine

import (
	"bufio"
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/valpere/polyglotter/internal/errs"
)

var (
	ocrxWordRe = regexp.MustCompile(`<span class=['"]ocrx_word['"][^>]*title=['"]([^'"]*)['"][^>]*>(.*?)</span>`)
	bboxRe     = regexp.MustCompile(`bbox (\d+) (\d+) (\d+) (\d+)`)
	wconfRe    = regexp.MustCompile(`x_wconf (\d+)`)
	tagRe      = regexp.MustCompile(`<[^>]*>`)
)

// parseHOCR extracts ocrx_word spans and their bbox/confidence from the
// title attribute. It returns a flat word list; grouping words into lines
// is done afterwards by groupIntoLines.
func parseHOCR(data []byte) ([]rawWord, error) {
	matches := ocrxWordRe.FindAllSubmatch(data, -1)
	var words []rawWord
	for _, m := range matches {
		title := string(m[1])
		text := html.UnescapeString(tagRe.ReplaceAllString(string(m[2]), ""))
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		bm := bboxRe.FindStringSubmatch(title)
		if bm == nil {
			continue
		}
		x0, _ := strconv.Atoi(bm[1])
		y0, _ := strconv.Atoi(bm[2])
		x1, _ := strconv.Atoi(bm[3])
		y1, _ := strconv.Atoi(bm[4])

		conf := 0.0
		if cm := wconfRe.FindStringSubmatch(title); cm != nil {
			c, _ := strconv.Atoi(cm[1])
			conf = float64(c)
		}

		h := float64(y1 - y0)
		if h < 8 && conf < 80 {
			continue
		}
		if len(text) == 1 && conf < 55 {
			continue
		}

		words = append(words, rawWord{
			text:       text,
			bbox:       BBox{X: float64(x0), Y: float64(y0), W: float64(x1 - x0), H: h},
			confidence: conf,
		})
	}
	return words, nil
}

// parseTSV parses tesseract's TSV output, keeping only level-5 (word) rows
// and recording their (block, paragraph, line) grouping key.
func parseTSV(data []byte) ([]rawWord, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	var words []rawWord
	header := true
	for scanner.Scan() {
		line := scanner.Text()
		if header {
			header = false
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 12 {
			continue
		}
		level := fields[0]
		if level != "5" {
			continue
		}
		block, _ := strconv.Atoi(fields[2])
		par, _ := strconv.Atoi(fields[3])
		ln, _ := strconv.Atoi(fields[4])
		left, _ := strconv.ParseFloat(fields[6], 64)
		top, _ := strconv.ParseFloat(fields[7], 64)
		w, _ := strconv.ParseFloat(fields[8], 64)
		h, _ := strconv.ParseFloat(fields[9], 64)
		conf, _ := strconv.ParseFloat(fields[10], 64)
		text := strings.TrimSpace(fields[11])
		if text == "" {
			continue
		}
		words = append(words, rawWord{
			text:       text,
			bbox:       BBox{X: left, Y: top, W: w, H: h},
			confidence: conf,
			block:      block, par: par, line: ln,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.WithFormat(errs.Parse, "ocr-tsv", fmt.Errorf("scanning tsv: %w", err))
	}
	return words, nil
}
