package port

import "io"

// ImageInspection is the outcome of decoding an uploaded image.
type ImageInspection struct {
	Width     int
	Height    int
	Thumbnail []byte
}

// ImageInspector reads image dimensions and renders a WebP thumbnail.
type ImageInspector interface {
	Inspect(r io.Reader, thumbWidth int) (ImageInspection, error)
}
