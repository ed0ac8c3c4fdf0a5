package runner

import (
	"fmt"
	"strings"

	v1 "github.com/cb2cbz/cb2cbz/apis/v1"
	"github.com/cb2cbz/cb2cbz/internal/engine"
	"github.com/cb2cbz/cb2cbz/internal/engine/archivers"
	"github.com/samber/lo"
)

var imageFormatAliases = map[string]engine.ImageFormat{
	"jxl": engine.ImageFormatJPEGXL,
	"jpg": engine.ImageFormatJPEG,
}

// NormalizeImageFormat lower-cases format and resolves aliases. Empty means no-change.
func NormalizeImageFormat(format string) engine.ImageFormat {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		return engine.ImageFormatNoChange
	}
	if alias, ok := imageFormatAliases[format]; ok {
		return alias
	}
	return engine.ImageFormat(format)
}

// NormalizeConfig returns cfg with its image format in canonical form.
func NormalizeConfig(cfg v1.ConvertConfig) v1.ConvertConfig {
	if cfg.Image.Format != "" {
		cfg.Image.Format = string(NormalizeImageFormat(cfg.Image.Format))
	}
	return cfg
}

// Overrides are command line values that take precedence over the config file.
// A nil field leaves the config value untouched.
type Overrides struct {
	Format        *string
	Quality       *int
	Options       map[string]string
	ForceReencode *bool
	Compression   *string
	Level         *int
	Strict        *bool
	Classify      *string
	Duplicates    *string
	Output        *string
}

// Apply returns a copy of cfg with the overrides applied. Options are merged
// key by key, the command line winning.
func (o Overrides) Apply(cfg v1.ConvertConfig) v1.ConvertConfig {
	if o.Format != nil {
		cfg.Image.Format = string(NormalizeImageFormat(*o.Format))
	}
	if o.Quality != nil {
		cfg.Image.Quality = lo.ToPtr(*o.Quality)
	}
	if len(o.Options) > 0 {
		cfg.Image.Options = lo.Assign(cfg.Image.Options, o.Options)
	}
	if o.ForceReencode != nil {
		cfg.Image.ForceReencode = *o.ForceReencode
	}
	if o.Compression != nil {
		cfg.Archive.Compression = *o.Compression
	}
	if o.Level != nil {
		cfg.Archive.Level = lo.ToPtr(*o.Level)
	}
	if o.Strict != nil {
		cfg.Policy.Strict = *o.Strict
	}
	if o.Classify != nil {
		cfg.Policy.Classify = *o.Classify
	}
	if o.Duplicates != nil {
		cfg.Policy.Duplicates = *o.Duplicates
	}
	if o.Output != nil {
		cfg.Output = *o.Output
	}
	return cfg
}

// ResolvePolicy builds the converter policy from the config.
func ResolvePolicy(cfg v1.ConvertConfig) engine.Policy {
	duplicates := engine.DuplicatePolicy(cfg.Policy.Duplicates)
	if duplicates == "" {
		duplicates = engine.DuplicatesWarn
	}
	return engine.Policy{
		Strict:        cfg.Policy.Strict,
		ForceReencode: cfg.Image.ForceReencode,
		Duplicates:    duplicates,
	}
}

// ResolveZipOptions builds the archiver options from the config.
func ResolveZipOptions(cfg v1.ConvertConfig) archivers.ZipOptions {
	return archivers.ZipOptions{
		Compression: archivers.CompressionType(cfg.Archive.Compression),
		Level:       lo.FromPtr(cfg.Archive.Level),
	}
}

// ResolveCodecSpec returns the target format and codec settings. ok is false when
// images are left unchanged.
func ResolveCodecSpec(cfg v1.ConvertConfig) (format engine.ImageFormat, spec engine.CodecSpec, ok bool, err error) {
	format = NormalizeImageFormat(cfg.Image.Format)
	if format == engine.ImageFormatNoChange {
		if cfg.Image.Quality != nil || len(cfg.Image.Options) > 0 {
			return format, engine.CodecSpec{}, false, fmt.Errorf("image quality and options require an image format other than %s", engine.ImageFormatNoChange)
		}
		return format, engine.CodecSpec{}, false, nil
	}
	return format, engine.CodecSpec{Quality: cfg.Image.Quality, Options: cfg.Image.Options}, true, nil
}
