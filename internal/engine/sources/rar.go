package sources

import (
	"context"
	"fmt"

	"github.com/nwaples/rardecode"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/cb2cbz/cb2cbz/internal/engine"
)

// RARSource streams entries of a RAR archive (RAR 1.5 to RAR 5).
type RARSource struct {
	logger *zap.Logger
	file   afero.File
	r      *rardecode.Reader
}

func NewRARSource(_ context.Context, logger *zap.Logger, file afero.File, _ int64) (engine.Source, error) {
	r, err := rardecode.NewReader(file, "")
	if err != nil {
		return nil, fmt.Errorf("failed to read rar archive: %w", err)
	}
	return &RARSource{logger: logger, file: file, r: r}, nil
}

func (s *RARSource) Name() string {
	return s.file.Name()
}

func (s *RARSource) Kind() string {
	return "rar"
}

func (s *RARSource) Format() engine.SourceFormat {
	return engine.FormatRAR
}

func (s *RARSource) Next(ctx context.Context) (*engine.Entry, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		hdr, err := s.r.Next()
		if err != nil {
			return nil, err
		}

		mode := hdr.Mode()
		switch {
		case hdr.IsDir:
			return newDirEntry(hdr.Name, mode, hdr.ModificationTime)
		case mode.IsRegular():
			return newFileEntry(hdr.Name, mode, hdr.ModificationTime, s.r)
		default:
			s.logger.Debug("skipping special rar entry", zap.String("entry", hdr.Name), zap.Stringer("mode", mode))
		}
	}
}

func (s *RARSource) Close(context.Context) error {
	return s.file.Close()
}
