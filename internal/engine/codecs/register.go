package codecs

import (
	"github.com/cb2cbz/cb2cbz/internal/engine"
)

func Register(registry *engine.Registry) {
	registry.RegisterCodec(
		engine.ImageFormatPNG,
		engine.NewCodecFactory(string(engine.ImageFormatPNG), ParsePNGOptions, NewPNGCodec),
	)
	registry.RegisterCodec(
		engine.ImageFormatJPEG,
		engine.NewCodecFactory(string(engine.ImageFormatJPEG), ParseJPEGOptions, NewJPEGCodec),
	)
	registry.RegisterCodec(
		engine.ImageFormatJPEGLI,
		engine.NewCodecFactory(string(engine.ImageFormatJPEGLI), ParseJPEGLIOptions, NewJPEGLICodec),
	)
	registry.RegisterCodec(
		engine.ImageFormatJPEGXL,
		engine.NewCodecFactory(string(engine.ImageFormatJPEGXL), ParseJPEGXLOptions, NewJPEGXLCodec),
	)
}
