package mock

import (
	"io"

	"github.com/fhuszti/uploads-ms-go/internal/port"
)

// ImageInspector returns a fixed inspection result.
type ImageInspector struct {
	Out   port.ImageInspection
	Err   error
	Calls int
}

func (i *ImageInspector) Inspect(r io.Reader, thumbWidth int) (port.ImageInspection, error) {
	i.Calls++
	_, _ = io.Copy(io.Discard, r)
	return i.Out, i.Err
}
