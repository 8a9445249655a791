package engine

import (
	"image"
	"image/png"
	"io"

	"github.com/valpere/polyglotter/internal/errs"
)

func encodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return errs.WithFormat(errs.ExternalCommand, "tesseract", err)
	}
	return nil
}
