package engine

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// groupIntoLines splits a flat word list into lines. TSV words are grouped
// by their (block, paragraph, line) key; hOCR words (all keyed 0,0,0) are
// grouped purely by the horizontal-gap / vertical-drift thresholds, which
// also re-splits any TSV group whose words drifted too far apart.
func groupIntoLines(words []rawWord) []Line {
	groups := map[[3]int][]rawWord{}
	var order [][3]int
	for _, w := range words {
		key := [3]int{w.block, w.par, w.line}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], w)
	}

	var lines []Line
	for _, key := range order {
		lines = append(lines, splitByGap(groups[key])...)
	}
	return lines
}

// splitByGap further splits a word group wherever the horizontal gap
// exceeds 2.5x the median word height or vertical center drifts more than
// 0.9x the median height, then joins each resulting run into a line,
// inserting a space between alphanumeric neighbors.
func splitByGap(words []rawWord) []Line {
	if len(words) == 0 {
		return nil
	}
	sort.Slice(words, func(i, j int) bool { return words[i].bbox.X < words[j].bbox.X })

	medianH := medianHeight(words)
	var lines []Line
	var run []rawWord

	flush := func() {
		if len(run) == 0 {
			return
		}
		lines = append(lines, joinRun(run))
		run = nil
	}

	for i, w := range words {
		if i == 0 {
			run = append(run, w)
			continue
		}
		prev := run[len(run)-1]
		gap := w.bbox.X - (prev.bbox.X + prev.bbox.W)
		prevCenter := prev.bbox.Y + prev.bbox.H/2
		curCenter := w.bbox.Y + w.bbox.H/2
		drift := math.Abs(curCenter - prevCenter)

		if medianH > 0 && (gap > 2.5*medianH || drift > 0.9*medianH) {
			flush()
		}
		run = append(run, w)
	}
	flush()
	return lines
}

func medianHeight(words []rawWord) float64 {
	heights := make([]float64, len(words))
	for i, w := range words {
		heights[i] = w.bbox.H
	}
	sort.Float64s(heights)
	if len(heights) == 0 {
		return 0
	}
	return heights[len(heights)/2]
}

func joinRun(run []rawWord) Line {
	var sb strings.Builder
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	sumConf := 0.0
	heights := make([]float64, 0, len(run))

	for i, w := range run {
		if i > 0 {
			prevLast := rune(0)
			if sb.Len() > 0 {
				runes := []rune(sb.String())
				prevLast = runes[len(runes)-1]
			}
			curFirst := rune(0)
			if len(w.text) > 0 {
				curFirst = []rune(w.text)[0]
			}
			if isAlnum(prevLast) && isAlnum(curFirst) {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(w.text)

		minX = math.Min(minX, w.bbox.X)
		minY = math.Min(minY, w.bbox.Y)
		maxX = math.Max(maxX, w.bbox.X+w.bbox.W)
		maxY = math.Max(maxY, w.bbox.Y+w.bbox.H)
		sumConf += w.confidence
		heights = append(heights, w.bbox.H)
	}

	sort.Float64s(heights)
	fontSize := 0.0
	if len(heights) > 0 {
		fontSize = heights[len(heights)/2]
	}

	return Line{
		Text:       sb.String(),
		BBox:       BBox{X: minX, Y: minY, W: maxX - minX, H: maxY - minY},
		Confidence: sumConf / float64(len(run)),
		FontSize:   fontSize,
	}
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// mergeAcrossPasses merges lines produced by the four passes (two
// preprocessing variants x two PSM modes) whose IoU exceeds 0.6, keeping
// the preferred candidate: the other line when the base line is too short,
// otherwise higher confidence, then longer text, then higher CJK ratio.
func mergeAcrossPasses(lines []Line) []Line {
	var merged []Line
	used := make([]bool, len(lines))

	for i := range lines {
		if used[i] {
			continue
		}
		best := lines[i]
		used[i] = true
		for j := i + 1; j < len(lines); j++ {
			if used[j] {
				continue
			}
			if iou(best.BBox, lines[j].BBox) > 0.6 {
				used[j] = true
				best = preferLine(best, lines[j])
			}
		}
		merged = append(merged, best)
	}
	return merged
}

func preferLine(a, b Line) Line {
	if len(strings.TrimSpace(a.Text)) < 3 {
		return b
	}
	if a.Confidence != b.Confidence {
		if a.Confidence > b.Confidence {
			return a
		}
		return b
	}
	if len(a.Text) != len(b.Text) {
		if len(a.Text) > len(b.Text) {
			return a
		}
		return b
	}
	if cjkRatio(a.Text) >= cjkRatio(b.Text) {
		return a
	}
	return b
}

func cjkRatio(s string) float64 {
	if s == "" {
		return 0
	}
	total, cjk := 0, 0
	for _, r := range s {
		total++
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r) || unicode.Is(unicode.Hangul, r) {
			cjk++
		}
	}
	return float64(cjk) / float64(total)
}

func iou(a, b BBox) float64 {
	ix0 := math.Max(a.X, b.X)
	iy0 := math.Max(a.Y, b.Y)
	ix1 := math.Min(a.X+a.W, b.X+b.W)
	iy1 := math.Min(a.Y+a.H, b.Y+b.H)
	if ix1 <= ix0 || iy1 <= iy0 {
		return 0
	}
	inter := (ix1 - ix0) * (iy1 - iy0)
	union := a.W*a.H + b.W*b.H - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// unscale converts each line's bbox back to source-image pixel coordinates.
func unscale(lines []Line, scale float64) []Line {
	if scale == 1 {
		return lines
	}
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = Line{
			Text:       l.Text,
			Confidence: l.Confidence,
			FontSize:   l.FontSize / scale,
			BBox: BBox{
				X: l.BBox.X / scale, Y: l.BBox.Y / scale,
				W: l.BBox.W / scale, H: l.BBox.H / scale,
			},
		}
	}
	return out
}

// filterNoise drops lines matching the multi-stage noise heuristics: empty
// or degenerate boxes, extreme aspect ratios, oversize boxes, high digit or
// symbol ratios, and low-confidence short or mostly-ASCII-long strings.
func filterNoise(lines []Line, width, height int) []Line {
	var out []Line
	for _, l := range lines {
		text := strings.TrimSpace(l.Text)
		if text == "" || l.BBox.W <= 0 || l.BBox.H <= 0 {
			continue
		}
		aspect := l.BBox.W / l.BBox.H
		if aspect < 0.35 && len(text) > 3 {
			continue
		}
		if l.BBox.H > 0.25*float64(height) {
			continue
		}
		if l.BBox.W >= 0.95*float64(width) && l.BBox.H < 6 {
			continue
		}
		if digitRatio(text) > 0.85 {
			continue
		}
		if symbolRatio(text) > 0.6 {
			continue
		}
		if l.Confidence < 25 && len(text) <= 4 {
			continue
		}
		if l.Confidence < 70 && len(text) > 8 && asciiRatio(text) >= 0.4 {
			continue
		}
		out = append(out, l)
	}
	return out
}

func digitRatio(s string) float64 {
	return runeRatio(s, unicode.IsDigit)
}

func symbolRatio(s string) float64 {
	return runeRatio(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r)
	})
}

func asciiRatio(s string) float64 {
	return runeRatio(s, func(r rune) bool { return r < 128 })
}

func runeRatio(s string, pred func(rune) bool) float64 {
	total, matched := 0, 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if pred(r) {
			matched++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total)
}

// mergeInlineFragments joins lines that share a row (vertical overlap >
// 0.6, horizontal gap <= 0.8x height or nearly touching x) into one line.
func mergeInlineFragments(lines []Line) []Line {
	sort.Slice(lines, func(i, j int) bool { return lines[i].BBox.X < lines[j].BBox.X })

	used := make([]bool, len(lines))
	var out []Line
	for i := range lines {
		if used[i] {
			continue
		}
		cur := lines[i]
		used[i] = true
		changed := true
		for changed {
			changed = false
			for j := range lines {
				if used[j] {
					continue
				}
				if sameRow(cur.BBox, lines[j].BBox) {
					cur = joinLines(cur, lines[j])
					used[j] = true
					changed = true
				}
			}
		}
		out = append(out, cur)
	}
	return out
}

func sameRow(a, b BBox) bool {
	overlap := verticalOverlapRatio(a, b)
	if overlap <= 0.6 {
		return false
	}
	h := math.Min(a.H, b.H)
	gap := math.Max(b.X-(a.X+a.W), a.X-(b.X+b.W))
	return gap <= 0.8*h
}

func verticalOverlapRatio(a, b BBox) float64 {
	top := math.Max(a.Y, b.Y)
	bottom := math.Min(a.Y+a.H, b.Y+b.H)
	if bottom <= top {
		return 0
	}
	overlap := bottom - top
	return overlap / math.Min(a.H, b.H)
}

func joinLines(a, b Line) Line {
	minX := math.Min(a.BBox.X, b.BBox.X)
	minY := math.Min(a.BBox.Y, b.BBox.Y)
	maxX := math.Max(a.BBox.X+a.BBox.W, b.BBox.X+b.BBox.W)
	maxY := math.Max(a.BBox.Y+a.BBox.H, b.BBox.Y+b.BBox.H)

	text := a.Text
	if a.BBox.X <= b.BBox.X {
		text = a.Text + " " + b.Text
	} else {
		text = b.Text + " " + a.Text
	}

	return Line{
		Text:       text,
		BBox:       BBox{X: minX, Y: minY, W: maxX - minX, H: maxY - minY},
		Confidence: (a.Confidence + b.Confidence) / 2,
		FontSize:   math.Max(a.FontSize, b.FontSize),
	}
}

// nonMaxSuppress drops lower-confidence duplicates whose IoU exceeds 0.5
// or whose combined bidirectional overlap exceeds 0.8.
func nonMaxSuppress(lines []Line) []Line {
	sort.Slice(lines, func(i, j int) bool { return lines[i].Confidence > lines[j].Confidence })

	var kept []Line
	for _, candidate := range lines {
		overlaps := false
		for _, k := range kept {
			if iou(candidate.BBox, k.BBox) > 0.5 || combinedOverlap(candidate.BBox, k.BBox) > 0.8 {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, candidate)
		}
	}
	return kept
}

func combinedOverlap(a, b BBox) float64 {
	ix0 := math.Max(a.X, b.X)
	iy0 := math.Max(a.Y, b.Y)
	ix1 := math.Min(a.X+a.W, b.X+b.W)
	iy1 := math.Min(a.Y+a.H, b.Y+b.H)
	if ix1 <= ix0 || iy1 <= iy0 {
		return 0
	}
	inter := (ix1 - ix0) * (iy1 - iy0)
	areaA, areaB := a.W*a.H, b.W*b.H
	if areaA <= 0 || areaB <= 0 {
		return 0
	}
	return math.Min(inter/areaA, inter/areaB)
}
