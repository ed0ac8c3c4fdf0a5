package engine

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// SourceFactory opens a source of one container format. The source takes
// ownership of file and closes it in its own Close.
type SourceFactory func(ctx context.Context, logger *zap.Logger, file afero.File, size int64) (Source, error)

// CodecFactory builds an image codec from user supplied settings.
type CodecFactory func(ctx context.Context, logger *zap.Logger, spec CodecSpec) (ImageCodec, error)

// OptionsParser turns a generic CodecSpec into the concrete options of one codec.
type OptionsParser[T any] func(spec CodecSpec) (T, error)

// TypedCodecFactory is a strongly-typed codec factory.
// T is the concrete options type (e.g. codecs.PNGOptions).
type TypedCodecFactory[T any] func(ctx context.Context, logger *zap.Logger, opts T) (ImageCodec, error)

// NewCodecFactory wraps an options parser and a typed codec factory into a generic CodecFactory.
// Option parsing errors are reported with the codec kind.
func NewCodecFactory[T any](kind string, parse OptionsParser[T], f TypedCodecFactory[T]) CodecFactory {
	return func(ctx context.Context, logger *zap.Logger, spec CodecSpec) (ImageCodec, error) {
		opts, err := parse(spec)
		if err != nil {
			return nil, fmt.Errorf("invalid options for image format %q: %w", kind, err)
		}
		return f(ctx, logger, opts)
	}
}

type Registry struct {
	mu      sync.RWMutex
	sources map[string]SourceFactory
	codecs  map[string]CodecFactory
	logger  *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		sources: make(map[string]SourceFactory),
		codecs:  make(map[string]CodecFactory),
		logger:  logger,
	}
}

func (r *Registry) RegisterSource(format SourceFormat, factory SourceFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[string(format)] = factory
}

func (r *Registry) RegisterCodec(format ImageFormat, factory CodecFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[string(format)] = factory
}

func (r *Registry) CreateSource(ctx context.Context, format SourceFormat, file afero.File, size int64) (Source, error) {
	r.mu.RLock()
	factory, ok := r.sources[string(format)]
	available := r.availableSources()
	r.mu.RUnlock()
	if !ok {
		return nil, &UnsupportedTypeError{Category: "source format", Kind: string(format), Available: available}
	}
	return factory(ctx, r.logger.Named("sources"), file, size)
}

func (r *Registry) CreateCodec(ctx context.Context, format ImageFormat, spec CodecSpec) (ImageCodec, error) {
	r.mu.RLock()
	factory, ok := r.codecs[string(format)]
	available := r.availableCodecs()
	r.mu.RUnlock()
	if !ok {
		return nil, &UnsupportedTypeError{Category: "image format", Kind: string(format), Available: available}
	}
	return factory(ctx, r.logger.Named("codecs"), spec)
}

func (r *Registry) AvailableSources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.availableSources()
}

func (r *Registry) availableSources() []string {
	sources := lo.Keys(r.sources)
	slices.Sort(sources)
	return sources
}

func (r *Registry) AvailableCodecs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.availableCodecs()
}

func (r *Registry) availableCodecs() []string {
	codecs := lo.Keys(r.codecs)
	slices.Sort(codecs)
	return codecs
}
