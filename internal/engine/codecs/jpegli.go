package codecs

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/cb2cbz/cb2cbz/internal/engine"
	"go.uber.org/zap"
)

const DefaultCJPEGLIBinary = "cjpegli"

var jpegliSubsamplings = []string{"4:4:4", "4:4:0", "4:2:2", "4:2:0"}

type JPEGLIOptions struct {
	Quality int
	// Progressive is the number of progressive passes, 0 to 2.
	Progressive int
	// Subsampling is one of 4:4:4, 4:4:0, 4:2:2 or 4:2:0. Empty keeps the encoder default.
	Subsampling          string
	XYB                  bool
	AdaptiveQuantization bool
	StdQuant             bool
	FixedCode            bool
	// Binary is the cjpegli executable, looked up in PATH when not absolute.
	Binary string
}

func ParseJPEGLIOptions(spec engine.CodecSpec) (JPEGLIOptions, error) {
	quality, err := resolveQuality(spec.Quality, DefaultQuality, 0, 100)
	if err != nil {
		return JPEGLIOptions{}, err
	}
	opts, err := newCodecOptions(engine.ImageFormatJPEGLI, spec.Options,
		"progressive", "subsampling", "xyb", "adaptive_quantization", "std_quant", "fixed_code")
	if err != nil {
		return JPEGLIOptions{}, err
	}

	result := JPEGLIOptions{
		Quality:              quality,
		Progressive:          2,
		AdaptiveQuantization: true,
		Binary:               DefaultCJPEGLIBinary,
	}

	if value, ok := opts.lookup("progressive"); ok {
		result.Progressive, err = parseProgressive(value)
		if err != nil {
			return JPEGLIOptions{}, err
		}
	}
	if value, ok := opts.lookup("subsampling"); ok {
		if !slices.Contains(jpegliSubsamplings, value) {
			return JPEGLIOptions{}, fmt.Errorf(`subsampling value must be "4:4:4", "4:4:0", "4:2:2" or "4:2:0"`)
		}
		result.Subsampling = value
	}
	if result.XYB, err = opts.bool("xyb", false); err != nil {
		return JPEGLIOptions{}, err
	}
	if result.AdaptiveQuantization, err = opts.bool("adaptive_quantization", true); err != nil {
		return JPEGLIOptions{}, err
	}
	if result.StdQuant, err = opts.bool("std_quant", false); err != nil {
		return JPEGLIOptions{}, err
	}
	if result.FixedCode, err = opts.bool("fixed_code", false); err != nil {
		return JPEGLIOptions{}, err
	}

	if result.FixedCode && result.Progressive != 0 {
		return JPEGLIOptions{}, fmt.Errorf("progressive must be 0 if fixed_code is true")
	}

	return result, nil
}

// parseProgressive accepts a pass count (0..2) or a boolean, true meaning 2 passes.
func parseProgressive(value string) (int, error) {
	if n, err := strconv.Atoi(value); err == nil && n >= 0 && n <= 2 {
		return n, nil
	}
	b, err := parseBool("progressive", value)
	if err != nil {
		return 0, fmt.Errorf(`progressive value must be "true", "false", "0", "1" or "2"`)
	}
	if b {
		return 2, nil
	}
	return 0, nil
}

// JPEGLICodec encodes JPEG images by piping them through the cjpegli encoder.
type JPEGLICodec struct {
	imageDecoder
	logger *zap.Logger
	opts   JPEGLIOptions
	binary string
}

func NewJPEGLICodec(_ context.Context, logger *zap.Logger, opts JPEGLIOptions) (engine.ImageCodec, error) {
	binary := opts.Binary
	if binary == "" {
		binary = DefaultCJPEGLIBinary
	}
	path, err := lookupTool("jpegli encoder", binary)
	if err != nil {
		return nil, err
	}
	return &JPEGLICodec{logger: logger, opts: opts, binary: path}, nil
}

func (c *JPEGLICodec) Name() string                     { return "jpegli" }
func (c *JPEGLICodec) Kind() string                     { return string(engine.ImageFormatJPEGLI) }
func (c *JPEGLICodec) Format() engine.ImageFormat       { return engine.ImageFormatJPEGLI }
func (c *JPEGLICodec) Extension() string                { return ".jpg" }
func (c *JPEGLICodec) Matches(sourceFormat string) bool { return sourceFormat == "jpeg" }

// Args returns the cjpegli command line, reading from stdin and writing to stdout.
func (c *JPEGLICodec) Args() []string {
	args := []string{
		"--quiet",
		"--quality=" + strconv.Itoa(c.opts.Quality),
		"--progressive_level=" + strconv.Itoa(c.opts.Progressive),
	}
	if c.opts.Subsampling != "" {
		args = append(args, "--chroma_subsampling="+strings.ReplaceAll(c.opts.Subsampling, ":", ""))
	}
	if c.opts.XYB {
		args = append(args, "--xyb")
	}
	if !c.opts.AdaptiveQuantization {
		args = append(args, "--noadaptive_quantization")
	}
	if c.opts.FixedCode {
		args = append(args, "--fixed_code")
	}
	if c.opts.StdQuant {
		args = append(args, "--std_quant")
	}
	return append(args, "-", "-")
}

func (c *JPEGLICodec) Encode(ctx context.Context, w io.Writer, payload *engine.ImagePayload) error {
	input, err := c.input(payload)
	if err != nil {
		return err
	}

	out, err := runTool(ctx, c.logger, "cjpegli", c.binary, c.Args(), input)
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("failed to write jpeg: %w", err)
	}
	return nil
}

// input returns the bytes fed to cjpegli. Opaque JPEG and PNG sources are passed
// through; everything else is flattened and re-encoded as an uncompressed PNG.
func (c *JPEGLICodec) input(payload *engine.ImagePayload) ([]byte, error) {
	if (payload.Format == "jpeg" || payload.Format == "png") && isOpaque(payload.Image) && !isBilevel(payload.Image) {
		return payload.Raw, nil
	}

	img := flattenAlpha(payload.Image)
	if p, ok := img.(*image.Paletted); ok && isGrayPalette(p.Palette) {
		img = toGray(p)
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.NoCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to prepare cjpegli input: %w", err)
	}
	return buf.Bytes(), nil
}

// isBilevel reports whether img is a 1-bit image, which cjpegli cannot read.
func isBilevel(img image.Image) bool {
	p, ok := img.(*image.Paletted)
	return ok && len(p.Palette) <= 2 && isGrayPalette(p.Palette)
}
