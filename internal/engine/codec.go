package engine

import (
	"context"
	"image"
	"io"
)

// ImageFormat is a target image encoding.
type ImageFormat string

const (
	ImageFormatNoChange ImageFormat = "no-change"
	ImageFormatPNG      ImageFormat = "png"
	ImageFormatJPEG     ImageFormat = "jpeg"
	ImageFormatJPEGLI   ImageFormat = "jpegli"
	ImageFormatJPEGXL   ImageFormat = "jpegxl"
)

// ImagePayload is a decoded image together with the bytes it was decoded from.
type ImagePayload struct {
	Image image.Image
	// Format is the name the decoder registered for the source data (e.g. "jpeg", "png", "jxl").
	Format string
	Raw    []byte
}

type Decoder interface {
	Decode(ctx context.Context, data []byte) (*ImagePayload, error)
}

type Encoder interface {
	Named

	Format() ImageFormat

	// Extension returns the file extension of encoded images, including the dot.
	Extension() string

	// Matches reports whether data detected as sourceFormat is already in this encoding.
	Matches(sourceFormat string) bool

	Encode(ctx context.Context, w io.Writer, img *ImagePayload) error
}

// ImageCodec decodes source images and encodes them into the target format.
type ImageCodec interface {
	Decoder
	Encoder
}

// CodecSpec holds the user supplied settings for an image codec.
type CodecSpec struct {
	Quality *int
	Options map[string]string
}

// Classification is the result of deciding whether an entry holds an image.
type Classification struct {
	Image bool
	// Format is the image format detected from the content, empty when unknown.
	Format string
	MIME   string
}

type Classifier interface {
	Classify(name string, data []byte) Classification
}
