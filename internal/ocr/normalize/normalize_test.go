package normalize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/polyglotter/internal"
	"github.com/valpere/polyglotter/internal/cache"
	"github.com/valpere/polyglotter/internal/ocr/engine"
	"github.com/valpere/polyglotter/internal/provider"
)

type stubBuilder struct {
	responses map[string]internal.ProviderResponse
	calls     []string
}

func (s *stubBuilder) AppendSystemInput(string)                {}
func (s *stubBuilder) AppendUserInput(string)                   {}
func (s *stubBuilder) AppendUserData(internal.DataAttachment)   {}
func (s *stubBuilder) RegisterTool(provider.ToolSpec)           {}
func (s *stubBuilder) Reset()                                   {}
func (s *stubBuilder) CallTool(ctx context.Context, name string) (internal.ProviderResponse, error) {
	s.calls = append(s.calls, name)
	return s.responses[name], nil
}

type nullTranslator struct{}

func (nullTranslator) Translate(core string) (internal.ProviderResponse, error) {
	return internal.ProviderResponse{Args: map[string]any{"translation": core}}, nil
}

func TestRunNormalizesAndFillsReadings(t *testing.T) {
	builder := &stubBuilder{responses: map[string]internal.ProviderResponse{
		provider.ToolNormalizeOCR: {
			Model: "gpt-test",
			Args: map[string]any{
				"lines": []any{
					map[string]any{"id": float64(1), "normalized": "こんにちは", "reading": "konnichiwa"},
				},
			},
		},
	}}
	c := cache.New(nullTranslator{})
	o := &Orchestrator{Builder: builder, Cache: c, System: "normalize"}

	lines := []engine.Line{{Text: "raw ocr noise"}}
	annotated := o.Run(context.Background(), lines, true)

	require.Len(t, annotated, 1)
	assert.Equal(t, "こんにちは", annotated[0].Line.Text)
	assert.Equal(t, "konnichiwa", annotated[0].Reading)
	assert.Contains(t, builder.calls, provider.ToolNormalizeOCR)
	assert.Equal(t, "gpt-test", c.Model())
}

func TestRunRomanizesUnreadNonLatinLines(t *testing.T) {
	builder := &stubBuilder{responses: map[string]internal.ProviderResponse{
		provider.ToolRomanizeOCR: {
			Args: map[string]any{
				"lines": []any{
					map[string]any{"id": float64(1), "romanized": "nihao"},
				},
			},
		},
	}}
	c := cache.New(nullTranslator{})
	o := &Orchestrator{Builder: builder, Cache: c}

	lines := []engine.Line{{Text: "你好"}}
	annotated := o.Run(context.Background(), lines, false)

	require.Len(t, annotated, 1)
	assert.Equal(t, "nihao", annotated[0].Reading)
}

func TestRunSkipsRomanizeWhenAllLatin(t *testing.T) {
	builder := &stubBuilder{}
	c := cache.New(nullTranslator{})
	o := &Orchestrator{Builder: builder, Cache: c}

	lines := []engine.Line{{Text: "hello world"}}
	annotated := o.Run(context.Background(), lines, false)

	require.Len(t, annotated, 1)
	assert.Empty(t, annotated[0].Reading)
	assert.NotContains(t, builder.calls, provider.ToolRomanizeOCR)
}
