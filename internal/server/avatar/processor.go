// Package avatar handles profile images: normalizing uploads to a fixed-size
// PNG and storing the result either on the user row or in an S3 bucket.
package avatar

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"

	"taskkeeper/internal/common"
)

// Processor normalizes uploaded images to a size x size PNG.
type Processor struct {
	size int
}

// NewProcessor returns a processor producing size x size output.
func NewProcessor(size int) *Processor {
	return &Processor{size: size}
}

// Size returns the configured square dimension.
func (p *Processor) Size() int {
	return p.size
}

// Normalize decodes the uploaded bytes (JPEG or PNG), scales and center-crops
// to the configured square, and re-encodes as PNG. Undecodable input is a
// validation error.
func (p *Processor) Normalize(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported or corrupt image", common.ErrValidation)
	}

	img = imaging.Fill(img, p.size, p.size, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding avatar: %w", err)
	}
	return buf.Bytes(), nil
}
