package engine

import "context"

type Named interface {
	Name() string
	Kind() string
}

type Closer interface {
	Close(context.Context) error
}

const (
	// ISO8601Basic is a URL-safe timestamp format without colons.
	// It is used for output path templates.
	ISO8601Basic = "20060102T150405Z"

	// MaxEntrySize bounds the uncompressed size of a single archive entry.
	MaxEntrySize = 1 << 30
)
