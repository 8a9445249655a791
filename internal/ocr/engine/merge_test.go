package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHOCRExtractsWords(t *testing.T) {
	doc := []byte(`<span class='ocrx_word' id='word_1_1' title='bbox 10 20 60 40; x_wconf 92'>hello</span>`)
	words, err := parseHOCR(doc)
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.Equal(t, "hello", words[0].text)
	assert.Equal(t, BBox{X: 10, Y: 20, W: 50, H: 20}, words[0].bbox)
	assert.Equal(t, 92.0, words[0].confidence)
}

func TestParseHOCRDropsLowConfidenceShortWords(t *testing.T) {
	doc := []byte(`<span class='ocrx_word' title='bbox 0 0 4 4; x_wconf 40'>a</span>`)
	words, err := parseHOCR(doc)
	require.NoError(t, err)
	assert.Empty(t, words)
}

func TestParseTSVKeepsLevelFiveRows(t *testing.T) {
	tsv := "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
		"1\t1\t0\t0\t0\t0\t0\t0\t100\t100\t-1\t\n" +
		"5\t1\t1\t1\t1\t1\t10\t20\t30\t15\t88\thello\n"
	words, err := parseTSV([]byte(tsv))
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.Equal(t, "hello", words[0].text)
}

func TestSplitByGapBreaksOnLargeHorizontalGap(t *testing.T) {
	words := []rawWord{
		{text: "hello", bbox: BBox{X: 0, Y: 0, W: 40, H: 20}, confidence: 90},
		{text: "world", bbox: BBox{X: 200, Y: 0, W: 40, H: 20}, confidence: 90},
	}
	lines := splitByGap(words)
	assert.Len(t, lines, 2)
}

func TestSplitByGapJoinsCloseWords(t *testing.T) {
	words := []rawWord{
		{text: "hello", bbox: BBox{X: 0, Y: 0, W: 40, H: 20}, confidence: 90},
		{text: "world", bbox: BBox{X: 45, Y: 0, W: 40, H: 20}, confidence: 90},
	}
	lines := splitByGap(words)
	require.Len(t, lines, 1)
	assert.Equal(t, "hello world", lines[0].Text)
}

func TestMergeAcrossPassesDedupsOverlappingLines(t *testing.T) {
	lines := []Line{
		{Text: "hello", BBox: BBox{X: 0, Y: 0, W: 50, H: 20}, Confidence: 60},
		{Text: "hello", BBox: BBox{X: 1, Y: 1, W: 50, H: 20}, Confidence: 90},
	}
	merged := mergeAcrossPasses(lines)
	require.Len(t, merged, 1)
	assert.Equal(t, 90.0, merged[0].Confidence)
}

func TestFilterNoiseDropsHighDigitRatio(t *testing.T) {
	lines := []Line{
		{Text: "123456789", BBox: BBox{X: 0, Y: 0, W: 40, H: 10}, Confidence: 90},
		{Text: "hello world", BBox: BBox{X: 0, Y: 20, W: 60, H: 10}, Confidence: 90},
	}
	out := filterNoise(lines, 1000, 1000)
	require.Len(t, out, 1)
	assert.Equal(t, "hello world", out[0].Text)
}

func TestNonMaxSuppressKeepsHigherConfidence(t *testing.T) {
	lines := []Line{
		{Text: "a", BBox: BBox{X: 0, Y: 0, W: 20, H: 20}, Confidence: 50},
		{Text: "b", BBox: BBox{X: 2, Y: 2, W: 20, H: 20}, Confidence: 95},
	}
	out := nonMaxSuppress(lines)
	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0].Text)
}

func TestIoUComputesOverlapRatio(t *testing.T) {
	a := BBox{X: 0, Y: 0, W: 10, H: 10}
	b := BBox{X: 5, Y: 0, W: 10, H: 10}
	assert.InDelta(t, 0.333, iou(a, b), 0.01)
}
