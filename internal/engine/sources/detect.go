package sources

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/cb2cbz/cb2cbz/internal/engine"
)

var lz4Magic = []byte{0x04, 0x22, 0x4d, 0x18}

// containerTypes maps mimetype results of uncompressed containers to source formats.
var containerTypes = map[string]engine.SourceFormat{
	"application/x-rar-compressed": engine.FormatRAR,
	"application/x-7z-compressed":  engine.Format7z,
	"application/zip":              engine.FormatZip,
	"application/x-tar":            engine.FormatTar,
}

// compressedTypes maps compression stream types to the tar format they must wrap.
var compressedTypes = map[string]engine.SourceFormat{
	"application/gzip":    engine.FormatTarGzip,
	"application/zstd":    engine.FormatTarZstd,
	"application/x-xz":    engine.FormatTarXz,
	"application/x-bzip2": engine.FormatTarBzip2,
}

// extensionFormats is consulted when the content is not recognised.
// Longer suffixes come first.
var extensionFormats = []struct {
	suffix string
	format engine.SourceFormat
}{
	{".tar.gz", engine.FormatTarGzip},
	{".tar.zst", engine.FormatTarZstd},
	{".tar.xz", engine.FormatTarXz},
	{".tar.bz2", engine.FormatTarBzip2},
	{".tar.lz4", engine.FormatTarLz4},
	{".tgz", engine.FormatTarGzip},
	{".tzst", engine.FormatTarZstd},
	{".txz", engine.FormatTarXz},
	{".tbz2", engine.FormatTarBzip2},
	{".cbr", engine.FormatRAR},
	{".rar", engine.FormatRAR},
	{".cb7", engine.Format7z},
	{".7z", engine.Format7z},
	{".cbt", engine.FormatTar},
	{".tar", engine.FormatTar},
	{".cbz", engine.FormatZip},
	{".zip", engine.FormatZip},
}

// DetectReader detects the container format from the content of r, falling back to
// the extension of name. Compressed streams are only accepted when they hold a tar archive.
func DetectReader(r io.ReaderAt, size int64, name string) (engine.SourceFormat, error) {
	if size == 0 {
		return "", fmt.Errorf("file is empty")
	}

	head := make([]byte, 4)
	if n, _ := r.ReadAt(head, 0); n == len(head) && bytes.Equal(head, lz4Magic) {
		return verifyTar(r, size, engine.FormatTarLz4)
	}

	mime, err := mimetype.DetectReader(io.NewSectionReader(r, 0, size))
	if err != nil {
		return "", fmt.Errorf("failed to detect archive type: %w", err)
	}

	for m := mime; m != nil; m = m.Parent() {
		if format, ok := containerTypes[m.String()]; ok {
			return format, nil
		}
		if format, ok := compressedTypes[m.String()]; ok {
			return verifyTar(r, size, format)
		}
	}

	if format, ok := formatFromExtension(name); ok {
		return format, nil
	}

	return "", fmt.Errorf("unrecognized archive format (detected %s)", mime.String())
}

func formatFromExtension(name string) (engine.SourceFormat, bool) {
	lower := strings.ToLower(path.Base(name))
	for _, ext := range extensionFormats {
		if strings.HasSuffix(lower, ext.suffix) {
			return ext.format, true
		}
	}
	return "", false
}

// verifyTar checks that the decompressed stream starts with a readable tar header.
func verifyTar(r io.ReaderAt, size int64, format engine.SourceFormat) (engine.SourceFormat, error) {
	dec, err := newDecompressor(format, io.NewSectionReader(r, 0, size))
	if err != nil {
		return "", err
	}
	defer dec.Close()

	if _, err := tar.NewReader(dec).Next(); err != nil {
		return "", fmt.Errorf("%s stream does not contain a tar archive: %w", compressionName(format), err)
	}
	return format, nil
}

func compressionName(format engine.SourceFormat) string {
	return strings.TrimPrefix(string(format), "tar.")
}
