package codecs

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"slices"
	"strings"

	"github.com/cb2cbz/cb2cbz/internal/engine"
	"go.uber.org/zap"
)

// jpegliOnlyOptions are JPEG encoder settings image/jpeg has no control over:
// it always writes baseline, Huffman-default, 4:2:0 YCbCr files.
var jpegliOnlyOptions = []string{"optimize", "progressive", "keep_rgb", "subsampling"}

type JPEGOptions struct {
	Quality   int
	Grayscale bool
}

func ParseJPEGOptions(spec engine.CodecSpec) (JPEGOptions, error) {
	quality, err := resolveQuality(spec.Quality, DefaultQuality, 0, 100)
	if err != nil {
		return JPEGOptions{}, err
	}
	for name := range spec.Options {
		if slices.Contains(jpegliOnlyOptions, strings.ToLower(name)) {
			return JPEGOptions{}, fmt.Errorf("%s is not supported by %s, use %s", name, engine.ImageFormatJPEG, engine.ImageFormatJPEGLI)
		}
	}
	opts, err := newCodecOptions(engine.ImageFormatJPEG, spec.Options, "grayscale")
	if err != nil {
		return JPEGOptions{}, err
	}
	grayscale, err := opts.bool("grayscale", false)
	if err != nil {
		return JPEGOptions{}, err
	}
	return JPEGOptions{Quality: quality, Grayscale: grayscale}, nil
}

// JPEGCodec encodes baseline JPEG images.
type JPEGCodec struct {
	imageDecoder
	logger *zap.Logger
	opts   JPEGOptions
}

func NewJPEGCodec(_ context.Context, logger *zap.Logger, opts JPEGOptions) (engine.ImageCodec, error) {
	return &JPEGCodec{logger: logger, opts: opts}, nil
}

func (c *JPEGCodec) Name() string                     { return "jpeg" }
func (c *JPEGCodec) Kind() string                     { return string(engine.ImageFormatJPEG) }
func (c *JPEGCodec) Format() engine.ImageFormat       { return engine.ImageFormatJPEG }
func (c *JPEGCodec) Extension() string                { return ".jpg" }
func (c *JPEGCodec) Matches(sourceFormat string) bool { return sourceFormat == "jpeg" }

func (c *JPEGCodec) Encode(ctx context.Context, w io.Writer, payload *engine.ImagePayload) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	img := prepareJPEG(payload.Image, c.opts.Grayscale)
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: max(c.opts.Quality, 1)}); err != nil {
		return fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return nil
}

// prepareJPEG removes transparency and turns gray palettes into real grayscale images.
func prepareJPEG(img image.Image, grayscale bool) image.Image {
	img = flattenAlpha(img)
	if grayscale {
		return toGray(img)
	}
	if p, ok := img.(*image.Paletted); ok && isGrayPalette(p.Palette) {
		return toGray(p)
	}
	return img
}
