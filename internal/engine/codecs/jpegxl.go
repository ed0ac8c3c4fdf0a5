package codecs

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"strconv"

	"github.com/cb2cbz/cb2cbz/internal/engine"
	"github.com/gen2brain/jpegxl"
	"go.uber.org/zap"
)

const (
	DefaultJPEGXLEffort   = 7
	DefaultCJXLBinary     = "cjxl"
	DefaultJPEGTranBinary = "jpegtran"
)

type JPEGXLOptions struct {
	// Quality 100 is mathematically lossless.
	Quality int
	Effort  int
	// DecodingSpeed trades density for faster decoding, 0 to 4. Needs cjxl.
	DecodingSpeed int
	// JPEGTran rewrites JPEG sources with jpegtran before transcoding them. Needs cjxl.
	JPEGTran bool

	// CJXL is the cjxl executable that transcodes JPEG sources without loss.
	// Empty encodes every image from its pixels.
	CJXL           string
	JPEGTranBinary string
}

func ParseJPEGXLOptions(spec engine.CodecSpec) (JPEGXLOptions, error) {
	quality, err := resolveQuality(spec.Quality, DefaultQuality, 0, 100)
	if err != nil {
		return JPEGXLOptions{}, err
	}
	opts, err := newCodecOptions(engine.ImageFormatJPEGXL, spec.Options, "effort", "decoding_speed", "jpegtran")
	if err != nil {
		return JPEGXLOptions{}, err
	}
	effort, err := opts.intRange("effort", DefaultJPEGXLEffort, 1, 10)
	if err != nil {
		return JPEGXLOptions{}, err
	}
	decodingSpeed, err := opts.intRange("decoding_speed", 0, 0, 4)
	if err != nil {
		return JPEGXLOptions{}, err
	}
	jpegtran, err := opts.bool("jpegtran", false)
	if err != nil {
		return JPEGXLOptions{}, err
	}
	return JPEGXLOptions{
		Quality:        quality,
		Effort:         effort,
		DecodingSpeed:  decodingSpeed,
		JPEGTran:       jpegtran,
		CJXL:           DefaultCJXLBinary,
		JPEGTranBinary: DefaultJPEGTranBinary,
	}, nil
}

// JPEGXLCodec encodes JPEG XL images. JPEG sources are transcoded by cjxl when it
// is installed, which keeps their bitstream and metadata; everything else is
// encoded from pixels.
type JPEGXLCodec struct {
	imageDecoder
	logger   *zap.Logger
	opts     JPEGXLOptions
	cjxl     string
	jpegtran string
}

func NewJPEGXLCodec(_ context.Context, logger *zap.Logger, opts JPEGXLOptions) (engine.ImageCodec, error) {
	c := &JPEGXLCodec{logger: logger, opts: opts}
	needsCJXL := opts.DecodingSpeed > 0 || opts.JPEGTran

	if opts.CJXL != "" {
		path, err := lookupTool("jpeg xl encoder", opts.CJXL)
		switch {
		case err != nil && needsCJXL:
			return nil, fmt.Errorf("decoding_speed and jpegtran need cjxl: %w", err)
		case err != nil:
			logger.Warn("cjxl not found, jpeg images will be re-encoded from pixels", zap.Error(err))
		default:
			c.cjxl = path
		}
	} else if needsCJXL {
		return nil, fmt.Errorf("decoding_speed and jpegtran need cjxl")
	}

	if opts.JPEGTran {
		binary := opts.JPEGTranBinary
		if binary == "" {
			binary = DefaultJPEGTranBinary
		}
		path, err := lookupTool("jpegtran", binary)
		if err != nil {
			return nil, err
		}
		c.jpegtran = path
	}

	return c, nil
}

func (c *JPEGXLCodec) Name() string                     { return "jpegxl" }
func (c *JPEGXLCodec) Kind() string                     { return string(engine.ImageFormatJPEGXL) }
func (c *JPEGXLCodec) Format() engine.ImageFormat       { return engine.ImageFormatJPEGXL }
func (c *JPEGXLCodec) Extension() string                { return ".jxl" }
func (c *JPEGXLCodec) Matches(sourceFormat string) bool { return sourceFormat == "jxl" }

// Args returns the cjxl command line. Transcoding ignores the quality setting.
func (c *JPEGXLCodec) Args(transcode bool) []string {
	args := []string{"--quiet", "--effort=" + strconv.Itoa(c.opts.Effort)}
	if transcode {
		args = append(args, "--lossless_jpeg=1")
	} else {
		args = append(args, "--lossless_jpeg=0", "--quality="+strconv.Itoa(c.opts.Quality))
	}
	if c.opts.DecodingSpeed > 0 {
		args = append(args, "--faster_decoding="+strconv.Itoa(c.opts.DecodingSpeed))
	}
	return append(args, "-", "-")
}

func (c *JPEGXLCodec) Encode(ctx context.Context, w io.Writer, payload *engine.ImagePayload) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var (
		out []byte
		err error
	)
	switch {
	case c.cjxl != "" && isTranscodableJPEG(payload):
		out, err = c.transcode(ctx, payload.Raw)
	case c.cjxl != "" && c.opts.DecodingSpeed > 0:
		out, err = c.encodeWithCJXL(ctx, payload.Image)
	default:
		if err := jpegxl.Encode(w, payload.Image, jpegxl.Options{
			Quality: c.opts.Quality,
			Effort:  c.opts.Effort,
		}); err != nil {
			return fmt.Errorf("failed to encode jpeg xl: %w", err)
		}
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("failed to write jpeg xl: %w", err)
	}
	return nil
}

func (c *JPEGXLCodec) transcode(ctx context.Context, raw []byte) ([]byte, error) {
	if c.jpegtran != "" {
		var err error
		raw, err = runTool(ctx, c.logger, "jpegtran", c.jpegtran, []string{"-copy", "all"}, raw)
		if err != nil {
			return nil, err
		}
	}
	return runTool(ctx, c.logger, "cjxl", c.cjxl, c.Args(true), raw)
}

func (c *JPEGXLCodec) encodeWithCJXL(ctx context.Context, img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.NoCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to prepare cjxl input: %w", err)
	}
	return runTool(ctx, c.logger, "cjxl", c.cjxl, c.Args(false), buf.Bytes())
}

// isTranscodableJPEG reports whether payload is a YCbCr or grayscale JPEG, the
// two kinds cjxl can store losslessly. CMYK JPEGs are re-encoded from pixels.
func isTranscodableJPEG(payload *engine.ImagePayload) bool {
	if payload.Format != "jpeg" || len(payload.Raw) == 0 {
		return false
	}
	switch payload.Image.(type) {
	case *image.YCbCr, *image.Gray:
		return true
	default:
		return false
	}
}
