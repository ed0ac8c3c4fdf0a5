package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/bodgit/sevenzip"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/cb2cbz/cb2cbz/internal/engine"
)

// SevenZipSource iterates a 7z archive in header order.
type SevenZipSource struct {
	logger *zap.Logger
	file   afero.File
	r      *sevenzip.Reader
	next   int
}

func NewSevenZipSource(_ context.Context, logger *zap.Logger, file afero.File, size int64) (engine.Source, error) {
	r, err := sevenzip.NewReader(file, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read 7z archive: %w", err)
	}
	return &SevenZipSource{logger: logger, file: file, r: r}, nil
}

func (s *SevenZipSource) Name() string {
	return s.file.Name()
}

func (s *SevenZipSource) Kind() string {
	return "7z"
}

func (s *SevenZipSource) Format() engine.SourceFormat {
	return engine.Format7z
}

func (s *SevenZipSource) Next(ctx context.Context) (*engine.Entry, error) {
	for s.next < len(s.r.File) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		f := s.r.File[s.next]
		s.next++

		mode := f.Mode()
		switch {
		case mode.IsDir():
			return newDirEntry(f.Name, mode, f.Modified)
		case mode.IsRegular():
			return s.readFile(f, mode)
		default:
			s.logger.Debug("skipping special 7z entry", zap.String("entry", f.Name), zap.Stringer("mode", mode))
		}
	}
	return nil, io.EOF
}

func (s *SevenZipSource) readFile(f *sevenzip.File, mode fs.FileMode) (entry *engine.Entry, err error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open entry %q: %w", f.Name, err)
	}
	defer func() {
		err = errors.Join(err, rc.Close())
	}()

	return newFileEntry(f.Name, mode, f.Modified, rc)
}

func (s *SevenZipSource) Close(context.Context) error {
	return s.file.Close()
}
