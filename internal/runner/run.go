package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	v1 "github.com/cb2cbz/cb2cbz/apis/v1"
	"github.com/cb2cbz/cb2cbz/internal/engine"
	"github.com/cb2cbz/cb2cbz/internal/engine/archivers"
	"github.com/cb2cbz/cb2cbz/internal/engine/codecs"
	"github.com/cb2cbz/cb2cbz/internal/engine/sinks"
	"github.com/cb2cbz/cb2cbz/internal/engine/sources"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Runner converts archives with one resolved configuration.
type Runner struct {
	logger      *zap.Logger
	cfg         v1.ConvertConfig
	fs          afero.Fs
	stdout      io.Writer
	observer    engine.EntryObserver
	registry    *engine.Registry
	format      engine.ImageFormat
	codec       engine.ImageCodec
	classifier  engine.Classifier
	newArchiver engine.ArchiverFactory
}

type Option func(*Runner)

// WithFs sets the filesystem sources are read from and destinations written to.
func WithFs(fs afero.Fs) Option {
	return func(r *Runner) {
		r.fs = fs
	}
}

// WithStdout sets the writer used when the output path is "-".
func WithStdout(w io.Writer) Option {
	return func(r *Runner) {
		r.stdout = w
	}
}

// WithEntryObserver registers a callback invoked after each entry is written.
func WithEntryObserver(observer engine.EntryObserver) Option {
	return func(r *Runner) {
		r.observer = observer
	}
}

// BuildRegistry creates a new registry with all sources and codecs registered.
func BuildRegistry(logger *zap.Logger) *engine.Registry {
	registry := engine.NewRegistry(logger)

	sources.Register(registry)
	codecs.Register(registry)

	return registry
}

// New validates cfg and builds everything a conversion needs. Codec options and the
// availability of external encoders are checked here, before any archive is opened.
func New(ctx context.Context, logger *zap.Logger, cfg v1.ConvertConfig, opts ...Option) (*Runner, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	r := &Runner{
		logger: logger,
		cfg:    cfg,
		fs:     afero.NewOsFs(),
		stdout: os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.registry = BuildRegistry(logger)

	format, spec, ok, err := ResolveCodecSpec(cfg)
	if err != nil {
		return nil, err
	}
	r.format = format
	if ok {
		r.codec, err = r.registry.CreateCodec(ctx, format, spec)
		if err != nil {
			return nil, fmt.Errorf("failed to create image codec: %w", err)
		}
	}

	r.classifier, err = codecs.NewClassifier(codecs.ClassifyMode(cfg.Policy.Classify))
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier: %w", err)
	}

	r.newArchiver, err = archivers.NewZipArchiverFactory(ResolveZipOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create archiver: %w", err)
	}

	logger.Debug("runner created",
		zap.String("image_format", string(format)),
		zap.String("classify", cfg.Policy.Classify),
		zap.String("compression", cfg.Archive.Compression),
	)

	return r, nil
}

// ImageFormat returns the resolved target image format.
func (r *Runner) ImageFormat() engine.ImageFormat {
	return r.format
}

// Run converts sourcePath. output may be empty, in which case the configured output
// template or DefaultOutputPath is used. "-" streams the CBZ to stdout.
func (r *Runner) Run(ctx context.Context, sourcePath, output string) (*engine.Report, error) {
	destination, err := r.ResolveOutput(sourcePath, output)
	if err != nil {
		return nil, err
	}

	var sink engine.Sink
	if destination == sinks.StreamPath {
		sink = sinks.NewStreamSink(r.stdout)
	} else {
		sink = sinks.NewFilesystemSink(r.fs, sinks.WithProtectedPath(sourcePath))
	}

	convOpts := []engine.ConverterOption{
		engine.WithPolicy(ResolvePolicy(r.cfg)),
	}
	if r.codec != nil {
		convOpts = append(convOpts, engine.WithCodec(r.codec))
	}
	if r.observer != nil {
		convOpts = append(convOpts, engine.WithEntryObserver(r.observer))
	}

	converter := engine.NewConverter(
		r.logger.Named("converter"),
		sources.NewOpener(r.logger.Named("sources"), r.fs, r.registry),
		sink,
		r.classifier,
		r.newArchiver,
		convOpts...,
	)

	return converter.Convert(ctx, sourcePath, destination)
}

// ResolveOutput picks the destination path for sourcePath: an explicit output wins,
// then the configured template, then DefaultOutputPath.
func (r *Runner) ResolveOutput(sourcePath, output string) (string, error) {
	if output != "" {
		return output, nil
	}
	if r.cfg.Output == "" {
		return DefaultOutputPath(sourcePath), nil
	}

	variables, err := BuildVariables(sourcePath, r.format, r.cfg.AllowedEnv)
	if err != nil {
		return "", fmt.Errorf("failed to build variables: %w", err)
	}

	cfg := r.cfg
	if err := ExpandTemplates(&cfg, variables); err != nil {
		return "", fmt.Errorf("failed to expand output template: %w", err)
	}
	if strings.TrimSpace(cfg.Output) == "" {
		return "", fmt.Errorf("output template %q expanded to an empty path", r.cfg.Output)
	}

	return cfg.Output, nil
}

// DefaultOutputPath replaces the extension of sourcePath with .cbz.
func DefaultOutputPath(sourcePath string) string {
	return strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath)) + archivers.ZipExtension
}
