package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/polyglotter/internal/ocr/engine"
)

func TestWrapTextSplitsOnWidth(t *testing.T) {
	lines := wrapText("hello there friend", 60, 14)
	assert.GreaterOrEqual(t, len(lines), 1)
	for _, l := range lines {
		assert.NotEmpty(t, l)
	}
}

func TestWrapTextSingleWordNeverSplit(t *testing.T) {
	lines := wrapText("supercalifragilisticexpialidocious", 10, 14)
	require.Len(t, lines, 1)
	assert.Equal(t, "supercalifragilisticexpialidocious", lines[0])
}

func TestPlaceAllProducesOnePlacementPerAnnotation(t *testing.T) {
	annotations := []Annotation{
		{ID: 1, Source: engine.Line{Text: "a", BBox: engine.BBox{X: 10, Y: 10, W: 40, H: 20}, FontSize: 14}, Translated: "hello"},
		{ID: 2, Source: engine.Line{Text: "b", BBox: engine.BBox{X: 200, Y: 200, W: 40, H: 20}, FontSize: 14}, Translated: "world"},
	}
	placements := placeAll(annotations, 800, 600, nil)
	require.Len(t, placements, 2)
	for _, p := range placements {
		assert.True(t, p.Rect.W > 0 && p.Rect.H > 0)
	}
}

func TestRectsCloseDetectsOverlap(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	b := Rect{X: 5, Y: 5, W: 10, H: 10}
	assert.True(t, rectsClose(a, b, 0))
}

func TestRectsCloseRespectsMargin(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}
	b := Rect{X: 20, Y: 0, W: 10, H: 10}
	assert.False(t, rectsClose(a, b, 5))
	assert.True(t, rectsClose(a, b, 15))
}

func TestClampBounds(t *testing.T) {
	assert.Equal(t, 5.0, clamp(1, 5, 10))
	assert.Equal(t, 10.0, clamp(20, 5, 10))
	assert.Equal(t, 7.0, clamp(7, 5, 10))
}
