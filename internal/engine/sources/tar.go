package sources

import (
	"archive/tar"
	"compress/bzip2"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/spf13/afero"
	"github.com/ulikunitz/xz"
	"go.uber.org/zap"

	"github.com/cb2cbz/cb2cbz/internal/engine"
)

// TarFormats lists the tar variants, plain and compressed.
var TarFormats = []engine.SourceFormat{
	engine.FormatTar,
	engine.FormatTarGzip,
	engine.FormatTarZstd,
	engine.FormatTarXz,
	engine.FormatTarBzip2,
	engine.FormatTarLz4,
}

// TarSource streams entries of a tar archive, optionally wrapped in a compression stream.
type TarSource struct {
	logger *zap.Logger
	file   afero.File
	format engine.SourceFormat
	dec    io.ReadCloser
	tr     *tar.Reader
}

// NewTarSourceFactory returns the factory for one tar variant.
func NewTarSourceFactory(format engine.SourceFormat) engine.SourceFactory {
	return func(_ context.Context, logger *zap.Logger, file afero.File, _ int64) (engine.Source, error) {
		dec, err := newDecompressor(format, file)
		if err != nil {
			return nil, err
		}
		return &TarSource{
			logger: logger,
			file:   file,
			format: format,
			dec:    dec,
			tr:     tar.NewReader(dec),
		}, nil
	}
}

func newDecompressor(format engine.SourceFormat, r io.Reader) (io.ReadCloser, error) {
	switch format {
	case engine.FormatTar:
		return io.NopCloser(r), nil
	case engine.FormatTarGzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gr, nil
	case engine.FormatTarZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return zr.IOReadCloser(), nil
	case engine.FormatTarXz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return io.NopCloser(xr), nil
	case engine.FormatTarBzip2:
		return io.NopCloser(bzip2.NewReader(r)), nil
	case engine.FormatTarLz4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("unsupported tar compression: %s", format)
	}
}

func (s *TarSource) Name() string {
	return s.file.Name()
}

func (s *TarSource) Kind() string {
	return "tar"
}

func (s *TarSource) Format() engine.SourceFormat {
	return s.format
}

func (s *TarSource) Next(ctx context.Context) (*engine.Entry, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		hdr, err := s.tr.Next()
		if errors.Is(err, tar.ErrInsecurePath) {
			return nil, fmt.Errorf("%w: %q", ErrUnsafeName, hdr.Name)
		}
		if err != nil {
			return nil, err
		}

		mode := hdr.FileInfo().Mode()
		switch {
		case hdr.Typeflag == tar.TypeXGlobalHeader:
			continue
		case hdr.Typeflag == tar.TypeDir:
			return newDirEntry(hdr.Name, mode, hdr.ModTime)
		case hdr.Typeflag != tar.TypeLink && mode.IsRegular():
			return newFileEntry(hdr.Name, mode, hdr.ModTime, s.tr)
		default:
			s.logger.Debug("skipping special tar entry",
				zap.String("entry", hdr.Name),
				zap.String("type", string(hdr.Typeflag)),
			)
		}
	}
}

func (s *TarSource) Close(context.Context) error {
	return errors.Join(s.dec.Close(), s.file.Close())
}
