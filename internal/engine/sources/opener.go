package sources

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/cb2cbz/cb2cbz/internal/engine"
)

// Opener detects the format of a source archive on an afero filesystem and
// opens it through the registry.
type Opener struct {
	logger   *zap.Logger
	fs       afero.Fs
	registry *engine.Registry
}

func NewOpener(logger *zap.Logger, fs afero.Fs, registry *engine.Registry) *Opener {
	return &Opener{logger: logger, fs: fs, registry: registry}
}

func (o *Opener) Open(ctx context.Context, path string) (engine.Source, error) {
	f, err := o.fs.Open(path)
	if err != nil {
		return nil, &engine.SourceOpenError{Path: path, Err: err}
	}

	src, err := o.open(ctx, path, f)
	if err != nil {
		if closeErr := f.Close(); closeErr != nil {
			o.logger.Debug("failed to close source after open error", zap.String("source", path), zap.Error(closeErr))
		}
		return nil, &engine.SourceOpenError{Path: path, Err: err}
	}
	return src, nil
}

func (o *Opener) open(ctx context.Context, path string, f afero.File) (engine.Source, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	format, err := DetectReader(f, info.Size(), path)
	if err != nil {
		return nil, err
	}

	o.logger.Debug("detected source format", zap.String("source", path), zap.String("format", string(format)))

	return o.registry.CreateSource(ctx, format, f, info.Size())
}
