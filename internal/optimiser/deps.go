package optimiser

import (
	"image"
	"io"

	"github.com/chai2010/webp"
)

type WebPEncoder interface {
	Encode(img image.Image, quality int, w io.Writer) error
}

type chaiEncoder struct{}

// NewWebPEncoder returns the libwebp-backed encoder used for thumbnails.
func NewWebPEncoder() WebPEncoder {
	return chaiEncoder{}
}

func (chaiEncoder) Encode(img image.Image, quality int, w io.Writer) error {
	return webp.Encode(w, img, &webp.Options{Quality: float32(quality)})
}
