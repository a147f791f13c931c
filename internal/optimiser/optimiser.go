package optimiser

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/fhuszti/uploads-ms-go/internal/port"
)

const thumbnailQuality = 80

type Optimiser struct {
	webpEnc WebPEncoder
}

// compile-time check: *Optimiser must satisfy port.ImageInspector
var _ port.ImageInspector = (*Optimiser)(nil)

func NewOptimiser(webpEnc WebPEncoder) *Optimiser {
	return &Optimiser{webpEnc: webpEnc}
}

// Inspect decodes a JPEG, PNG or WebP image and returns its dimensions along
// with a lossy WebP thumbnail at most thumbWidth pixels wide. Images narrower
// than thumbWidth keep their size. Unknown formats return an error wrapping
// image.ErrFormat.
func (o *Optimiser) Inspect(r io.Reader, thumbWidth int) (port.ImageInspection, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return port.ImageInspection{}, fmt.Errorf("optimiser: failed to decode image: %w", err)
	}

	b := src.Bounds()
	out := port.ImageInspection{Width: b.Dx(), Height: b.Dy()}

	buf := &bytes.Buffer{}
	if err := o.webpEnc.Encode(scaleToWidth(src, thumbWidth), thumbnailQuality, buf); err != nil {
		return port.ImageInspection{}, fmt.Errorf("optimiser: failed to encode WebP: %w", err)
	}
	out.Thumbnail = buf.Bytes()
	return out, nil
}

func scaleToWidth(src image.Image, width int) image.Image {
	b := src.Bounds()
	if width <= 0 || b.Dx() <= width {
		return src
	}
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
