package overlay

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/valpere/polyglotter/internal/errs"
)

func encodeImagePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return errs.WithFormat(errs.Decode, "overlay-image", err)
	}
	return nil
}

// encodeImage encodes img to the requested output MIME, defaulting to PNG
// for anything not explicitly JPEG.
func encodeImage(img image.Image, outputMime string) ([]byte, error) {
	var buf bytes.Buffer
	switch outputMime {
	case "image/jpeg", "image/jpg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 92}); err != nil {
			return nil, errs.WithFormat(errs.Decode, "overlay-image", err)
		}
	default:
		if err := encodeImagePNG(&buf, img); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
