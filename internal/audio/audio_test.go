package audio

import (
	"testing"

	"github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"
)

func TestResolveForcedLangTreatsAutoAsDetect(t *testing.T) {
	assert.Equal(t, "", resolveForcedLang(""))
	assert.Equal(t, "", resolveForcedLang("auto"))
	assert.Equal(t, "", resolveForcedLang("AUTO"))
	assert.Equal(t, "fr", resolveForcedLang("FR"))
}

func TestToMonoF32AveragesChannelsAndNormalizes(t *testing.T) {
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: 16000},
		Data:           []int{16384, 16384, -16384, -16384},
		SourceBitDepth: 16,
	}
	samples := toMonoF32(buf)
	assert.Len(t, samples, 2)
	assert.InDelta(t, 0.5, samples[0], 0.01)
	assert.InDelta(t, -0.5, samples[1], 0.01)
}

func TestVoiceTableHasCommonLanguages(t *testing.T) {
	for _, lang := range []string{"en", "es", "fr", "de", "ja"} {
		assert.NotEmpty(t, voiceTable[lang])
	}
}
