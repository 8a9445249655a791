package provider

import (
	"context"
	"unicode/utf8"

	"github.com/valpere/polyglotter/internal"
)

// probeSampleLimit caps how much of the blob a detect_mime probe attaches;
// the first few KB carry every signature the classifier needs.
const probeSampleLimit = 8192

// MimeProber runs the detect_mime tool call over a content sample. It
// satisfies mimetype.Prober structurally, so the mimetype package stays
// free of any provider dependency.
type MimeProber struct {
	Builder Builder
}

// ProbeMime asks the provider to classify data, returning the reported
// MIME type and whether the model committed to it.
func (p *MimeProber) ProbeMime(data []byte) (string, bool, error) {
	sample := data
	if len(sample) > probeSampleLimit {
		sample = sample[:probeSampleLimit]
	}

	p.Builder.Reset()
	if utf8.Valid(sample) {
		p.Builder.AppendUserInput(string(sample))
	} else {
		p.Builder.AppendUserData(internal.DataAttachment{Bytes: sample, Mime: "application/octet-stream"})
	}
	p.Builder.AppendUserInput("Classify the MIME type of the content above.")
	p.Builder.RegisterTool(DetectMimeTool())

	resp, err := p.Builder.CallTool(context.Background(), ToolDetectMime)
	if err != nil {
		return "", false, err
	}
	m, _ := resp.Args["mime"].(string)
	confident, _ := resp.Args["confident"].(bool)
	return m, confident, nil
}
