package engine

import "fmt"

// SourceOpenError is returned when the source archive is missing, unreadable
// or not in a supported format. Nothing has been written when it is returned.
type SourceOpenError struct {
	Path string
	Err  error
}

func (e *SourceOpenError) Error() string {
	return fmt.Sprintf("failed to open source archive %s: %v", e.Path, e.Err)
}

func (e *SourceOpenError) Unwrap() error { return e.Err }

// SourceReadError is returned when reading an entry from an already opened source fails.
type SourceReadError struct {
	Path string
	Err  error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("failed to read source archive %s: %v", e.Path, e.Err)
}

func (e *SourceReadError) Unwrap() error { return e.Err }

// EntryDecodeError is returned when an entry classified as an image cannot be decoded.
type EntryDecodeError struct {
	Entry string
	Err   error
}

func (e *EntryDecodeError) Error() string {
	return fmt.Sprintf("cannot decode image %q: %v", e.Entry, e.Err)
}

func (e *EntryDecodeError) Unwrap() error { return e.Err }

// EntryEncodeError is returned when a decoded image cannot be encoded into the target format.
type EntryEncodeError struct {
	Entry  string
	Format ImageFormat
	Err    error
}

func (e *EntryEncodeError) Error() string {
	return fmt.Sprintf("cannot encode %q as %s: %v", e.Entry, e.Format, e.Err)
}

func (e *EntryEncodeError) Unwrap() error { return e.Err }

// DestinationWriteError is returned when the destination archive cannot be written.
// The partially written destination is always discarded.
type DestinationWriteError struct {
	Path  string
	Op    string
	Entry string
	Err   error
}

func (e *DestinationWriteError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("failed to %s %q in %s: %v", e.Op, e.Entry, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *DestinationWriteError) Unwrap() error { return e.Err }

// DuplicateEntryError reports two destination entries with the same name.
type DuplicateEntryError struct {
	Name string
}

func (e *DuplicateEntryError) Error() string {
	return fmt.Sprintf("at least two entries got the same name %q", e.Name)
}

// UnsupportedTypeError is returned when a source format or image format is not registered.
type UnsupportedTypeError struct {
	Category  string   // "source format" or "image format"
	Kind      string   // the requested kind
	Available []string // registered kinds
}

func (e *UnsupportedTypeError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("unsupported %s %q: no %ss registered", e.Category, e.Kind, e.Category)
	}
	return fmt.Sprintf("unsupported %s %q (available: %v)", e.Category, e.Kind, e.Available)
}
