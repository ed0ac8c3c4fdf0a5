package codecs

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/cb2cbz/cb2cbz/internal/engine"
	"go.uber.org/zap"
)

type PNGOptions struct {
	// Level is the zlib effort from 0 (none) to 9 (best).
	Level    int
	Optimize bool
}

func ParsePNGOptions(spec engine.CodecSpec) (PNGOptions, error) {
	level, err := resolveQuality(spec.Quality, DefaultPNGQuality, 0, 9)
	if err != nil {
		return PNGOptions{}, err
	}
	opts, err := newCodecOptions(engine.ImageFormatPNG, spec.Options, "optimize")
	if err != nil {
		return PNGOptions{}, err
	}
	optimize, err := opts.bool("optimize", false)
	if err != nil {
		return PNGOptions{}, err
	}
	return PNGOptions{Level: level, Optimize: optimize}, nil
}

type PNGCodec struct {
	imageDecoder
	logger  *zap.Logger
	encoder *png.Encoder
}

func NewPNGCodec(_ context.Context, logger *zap.Logger, opts PNGOptions) (engine.ImageCodec, error) {
	return &PNGCodec{
		logger:  logger,
		encoder: &png.Encoder{CompressionLevel: pngCompression(opts)},
	}, nil
}

// pngCompression maps the 0..9 level onto the encoder's four compression settings.
func pngCompression(opts PNGOptions) png.CompressionLevel {
	switch {
	case opts.Optimize || opts.Level >= 7:
		return png.BestCompression
	case opts.Level == 0:
		return png.NoCompression
	case opts.Level <= 3:
		return png.BestSpeed
	default:
		return png.DefaultCompression
	}
}

func (c *PNGCodec) Name() string                     { return "png" }
func (c *PNGCodec) Kind() string                     { return string(engine.ImageFormatPNG) }
func (c *PNGCodec) Format() engine.ImageFormat       { return engine.ImageFormatPNG }
func (c *PNGCodec) Extension() string                { return ".png" }
func (c *PNGCodec) Matches(sourceFormat string) bool { return sourceFormat == "png" }

func (c *PNGCodec) Encode(ctx context.Context, w io.Writer, payload *engine.ImagePayload) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var img image.Image = payload.Image
	if paletted, ok := toPaletted(img); ok {
		c.logger.Debug("writing paletted png", zap.Int("colors", len(paletted.Palette)))
		img = paletted
	}

	if err := c.encoder.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}
