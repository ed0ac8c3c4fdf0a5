// Package codecs implements the image encoders cb2cbz can convert entries to,
// plus the shared decoder and the entry classifier.
package codecs

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/cb2cbz/cb2cbz/internal/engine"
	_ "github.com/gen2brain/jpegxl"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// imageDecoder decodes any registered image format. It is embedded by every codec.
type imageDecoder struct{}

func (imageDecoder) Decode(ctx context.Context, data []byte) (*engine.ImagePayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cannot identify image: %w", err)
	}

	return &engine.ImagePayload{Image: img, Format: format, Raw: data}, nil
}

// DecodeConfig returns the dimensions and format of an image without decoding its pixels.
func DecodeConfig(data []byte) (image.Config, string, error) {
	return image.DecodeConfig(bytes.NewReader(data))
}
