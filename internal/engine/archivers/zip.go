package archivers

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/cb2cbz/cb2cbz/internal/engine"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// CompressionType defines how Zip entries are stored.
type CompressionType string

const (
	CompressionStore   CompressionType = "store"
	CompressionDeflate CompressionType = "deflate"

	DefaultDeflateLevel = 6

	// ZipExtension is the file extension of the archives written here.
	ZipExtension = ".cbz"
)

type ZipOptions struct {
	Compression CompressionType
	// Level is the deflate level, 1 (fastest) to 9 (best). Ignored for store.
	Level int
}

// ZipArchiver writes a CBZ (Zip) archive entry by entry into an io.Writer.
type ZipArchiver struct {
	zw     *zip.Writer
	method uint16
	closed bool
}

// NewZipArchiverFactory validates opts and returns a factory for archivers using them.
// An empty compression defaults to store, which is what comic readers expect.
func NewZipArchiverFactory(opts ZipOptions) (engine.ArchiverFactory, error) {
	if opts.Compression == "" {
		opts.Compression = CompressionStore
	}
	if opts.Compression == CompressionDeflate && opts.Level == 0 {
		opts.Level = DefaultDeflateLevel
	}

	switch opts.Compression {
	case CompressionStore:
	case CompressionDeflate:
		if opts.Level < flate.BestSpeed || opts.Level > flate.BestCompression {
			return nil, fmt.Errorf("deflate level must be between %d and %d, got %d", flate.BestSpeed, flate.BestCompression, opts.Level)
		}
	default:
		return nil, fmt.Errorf("unsupported compression type: %s", opts.Compression)
	}

	return func(w io.Writer) (engine.Archiver, error) {
		return NewZipArchiver(w, opts), nil
	}, nil
}

// NewZipArchiver creates a Zip archiver over w. opts must already be valid.
func NewZipArchiver(w io.Writer, opts ZipOptions) *ZipArchiver {
	zw := zip.NewWriter(w)
	method := zip.Store
	if opts.Compression == CompressionDeflate {
		method = zip.Deflate
		level := opts.Level
		zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(out, level)
		})
	}
	return &ZipArchiver{zw: zw, method: method}
}

// AddFile adds a regular file to the archive.
func (a *ZipArchiver) AddFile(ctx context.Context, header engine.EntryHeader, data io.Reader) error {
	if a.closed {
		return fmt.Errorf("archiver is closed")
	}

	// Check context cancellation
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	fh := newFileHeader(header, a.method, 0o644)
	w, err := a.zw.CreateHeader(fh)
	if err != nil {
		return fmt.Errorf("failed to write zip header: %w", err)
	}

	if _, err := io.Copy(w, data); err != nil {
		return fmt.Errorf("failed to write zip content: %w", err)
	}

	return nil
}

// AddDir adds a directory entry, appending the trailing slash when missing.
func (a *ZipArchiver) AddDir(ctx context.Context, header engine.EntryHeader) error {
	if a.closed {
		return fmt.Errorf("archiver is closed")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	if !strings.HasSuffix(header.Name, "/") {
		header.Name += "/"
	}
	fh := newFileHeader(header, zip.Store, 0o755)
	fh.SetMode(fs.ModeDir | fh.Mode().Perm())

	if _, err := a.zw.CreateHeader(fh); err != nil {
		return fmt.Errorf("failed to write zip directory header: %w", err)
	}
	return nil
}

func newFileHeader(header engine.EntryHeader, method uint16, defaultPerm fs.FileMode) *zip.FileHeader {
	modTime := header.ModTime
	if modTime.IsZero() {
		modTime = time.Now()
	}

	perm := header.Mode.Perm()
	if perm == 0 {
		perm = defaultPerm
	}

	fh := &zip.FileHeader{
		Name:     header.Name,
		Method:   method,
		Modified: modTime,
	}
	fh.SetMode(perm)
	return fh
}

// Close writes the central directory. The underlying writer is left open.
func (a *ZipArchiver) Close() error {
	if a.closed {
		return fmt.Errorf("archiver already closed")
	}
	a.closed = true

	if err := a.zw.Close(); err != nil {
		return fmt.Errorf("failed to close zip writer: %w", err)
	}
	return nil
}

