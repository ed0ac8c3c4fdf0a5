package engine

import (
	"context"
	"io/fs"
	"time"
)

// SourceFormat identifies the container format of a source archive.
type SourceFormat string

const (
	FormatRAR      SourceFormat = "rar"
	Format7z       SourceFormat = "7z"
	FormatZip      SourceFormat = "zip"
	FormatTar      SourceFormat = "tar"
	FormatTarGzip  SourceFormat = "tar.gz"
	FormatTarZstd  SourceFormat = "tar.zst"
	FormatTarXz    SourceFormat = "tar.xz"
	FormatTarBzip2 SourceFormat = "tar.bz2"
	FormatTarLz4   SourceFormat = "tar.lz4"
)

// EntryHeader carries the metadata of an archive entry that is preserved in the destination.
type EntryHeader struct {
	Name    string
	Mode    fs.FileMode
	ModTime time.Time
}

// Entry is one logical file (or directory) read from a source archive.
type Entry struct {
	EntryHeader
	IsDir bool
	Data  []byte
}

// Source iterates the entries of an opened archive in the order the archive stores them.
type Source interface {
	Named
	Closer

	Format() SourceFormat

	// Next returns the next entry, or io.EOF once every entry has been read.
	Next(ctx context.Context) (*Entry, error)
}

// SourceOpener detects the format of the archive at path and opens it.
type SourceOpener interface {
	Open(ctx context.Context, path string) (Source, error)
}
