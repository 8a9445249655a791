package dispatch

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/polyglotter/internal"
	"github.com/valpere/polyglotter/internal/cache"
	"github.com/valpere/polyglotter/internal/walk/codewalk"
)

// upperTranslator uppercases core text, standing in for a real provider
// round trip in every routing test below.
type upperTranslator struct{}

func (upperTranslator) Translate(core string) (internal.ProviderResponse, error) {
	return internal.ProviderResponse{Args: map[string]any{"translation": strings.ToUpper(core)}}, nil
}

func newDispatcher() *Dispatcher {
	return New(Config{
		Cache: cache.New(upperTranslator{}),
		Opts:  internal.TranslateOptions{TargetLang: "fr"},
	})
}

func TestCodeDialectPicksByExtension(t *testing.T) {
	d, ok := codeDialect("component.tsx")
	require.True(t, ok)
	assert.Equal(t, codewalk.DialectTSX, d)

	d, ok = codeDialect("flow.mmd")
	require.True(t, ok)
	assert.Equal(t, codewalk.DialectMermaid, d)

	_, ok = codeDialect("readme.txt")
	assert.False(t, ok)

	_, ok = codeDialect("")
	assert.False(t, ok)
}

func TestAudioExtensionPrefersFilename(t *testing.T) {
	assert.Equal(t, "mp3", audioExtension("audio/mpeg", "clip.mp3"))
	assert.Equal(t, "wav", audioExtension("audio/wav", ""))
	assert.Equal(t, "wav", audioExtension("audio/x-garbage", ""))
}

func TestRouteTranslatesJSON(t *testing.T) {
	d := newDispatcher()
	out, mime, err := d.route(context.Background(), internal.DataAttachment{
		Bytes: []byte(`{"greeting":"hello"}`),
		Mime:  mimeJSON,
	})
	require.NoError(t, err)
	assert.Equal(t, mimeJSON, mime)
	assert.JSONEq(t, `{"greeting":"HELLO"}`, string(out))
}

func TestRouteTranslatesPlainTextFallback(t *testing.T) {
	d := newDispatcher()
	out, mime, err := d.route(context.Background(), internal.DataAttachment{
		Bytes: []byte("hello there"),
		Mime:  "text/plain",
	})
	require.NoError(t, err)
	assert.Equal(t, "text/plain", mime)
	assert.Equal(t, "HELLO THERE", string(out))
}

func TestRoutePlainTextRejectsInvalidUTF8WithoutForce(t *testing.T) {
	d := newDispatcher()
	_, _, err := d.route(context.Background(), internal.DataAttachment{
		Bytes: []byte{0xff, 0xfe, 0xfd},
		Mime:  "text/plain",
	})
	assert.Error(t, err)
}

func TestRoutePlainTextLossyDecodesWhenForced(t *testing.T) {
	d := New(Config{
		Cache: cache.New(upperTranslator{}),
		Opts:  internal.TranslateOptions{TargetLang: "fr", ForceTranslation: true},
	})
	out, _, err := d.route(context.Background(), internal.DataAttachment{
		Bytes: []byte{'h', 'i', 0xff},
		Mime:  "text/plain",
	})
	require.NoError(t, err)
	assert.Contains(t, string(out), "HI")
}

func TestRouteDispatchesSourceCodeByExtension(t *testing.T) {
	d := newDispatcher()
	out, mime, err := d.route(context.Background(), internal.DataAttachment{
		Bytes: []byte("// hello\n"),
		Mime:  "text/plain",
		Name:  "script.js",
	})
	require.NoError(t, err)
	assert.Equal(t, "text/plain", mime)
	assert.Contains(t, string(out), "HELLO")
}
