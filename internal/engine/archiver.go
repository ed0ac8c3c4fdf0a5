package engine

import (
	"context"
	"io"
)

// Archiver writes entries into a destination archive, in the order they are added.
type Archiver interface {
	// AddFile adds a regular file to the archive with the given header and data.
	AddFile(ctx context.Context, header EntryHeader, data io.Reader) error

	// AddDir adds a directory entry. The trailing slash is appended when missing.
	AddDir(ctx context.Context, header EntryHeader) error

	// Close finalizes the archive. The underlying writer is not closed.
	Close() error
}

// ArchiverFactory creates an Archiver that streams into w.
type ArchiverFactory func(w io.Writer) (Archiver, error)
