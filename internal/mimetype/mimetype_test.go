package mimetype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveHintAlias(t *testing.T) {
	m, err := Resolve([]byte("hello"), "pdf", "", false, nil)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", m)
}

func TestResolveHintFullyQualified(t *testing.T) {
	m, err := Resolve([]byte("hello"), "image/jpeg", "", false, nil)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", m)
}

func TestResolveJSONSniff(t *testing.T) {
	m, err := Resolve([]byte(`{"a": 1}`), "", "", false, nil)
	require.NoError(t, err)
	assert.Equal(t, "application/json", m)
}

func TestResolveExtensionFallback(t *testing.T) {
	m, err := Resolve([]byte{0x00, 0x01, 0x02}, "", "notes.pdf", false, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, m)
}

type stubProber struct {
	mime      string
	confident bool
}

func (s stubProber) ProbeMime(data []byte) (string, bool, error) {
	return s.mime, s.confident, nil
}

func TestResolveProbeLowConfidenceForcesText(t *testing.T) {
	m, err := Resolve([]byte{0x00, 0x01}, "", "", true, stubProber{mime: "application/octet-stream", confident: false})
	require.NoError(t, err)
	assert.Equal(t, "text/plain", m)
}

func TestResolveProbeLowConfidenceFailsWithoutForce(t *testing.T) {
	_, err := Resolve([]byte{0x00, 0x01}, "", "", false, stubProber{mime: "application/octet-stream", confident: false})
	require.Error(t, err)
}
