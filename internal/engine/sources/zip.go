package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/cb2cbz/cb2cbz/internal/engine"
)

// ZipSource iterates a Zip archive in central directory order.
type ZipSource struct {
	logger *zap.Logger
	file   afero.File
	r      *zip.Reader
	next   int
}

func NewZipSource(_ context.Context, logger *zap.Logger, file afero.File, size int64) (engine.Source, error) {
	r, err := zip.NewReader(file, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read zip archive: %w", err)
	}
	return &ZipSource{logger: logger, file: file, r: r}, nil
}

func (s *ZipSource) Name() string {
	return s.file.Name()
}

func (s *ZipSource) Kind() string {
	return "zip"
}

func (s *ZipSource) Format() engine.SourceFormat {
	return engine.FormatZip
}

func (s *ZipSource) Next(ctx context.Context) (*engine.Entry, error) {
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
			s.logger.Debug("skipping special zip entry", zap.String("entry", f.Name), zap.Stringer("mode", mode))
		}
	}
	return nil, io.EOF
}

func (s *ZipSource) readFile(f *zip.File, mode fs.FileMode) (entry *engine.Entry, err error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open entry %q: %w", f.Name, err)
	}
	defer func() {
		err = errors.Join(err, rc.Close())
	}()

	return newFileEntry(f.Name, mode, f.Modified, rc)
}

func (s *ZipSource) Close(context.Context) error {
	return s.file.Close()
}
