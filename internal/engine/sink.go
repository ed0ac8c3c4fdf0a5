package engine

import (
	"context"
	"io"
)

// Destination is an output file being written. Exactly one of Commit or Discard
// takes effect; calling Discard after Commit is a no-op.
type Destination interface {
	io.Writer

	// Path returns the final location of the output.
	Path() string

	// Commit makes the written output visible at Path.
	Commit() error

	// Discard drops everything written so far.
	Discard() error
}

// Sink creates destinations for converted archives.
type Sink interface {
	Named
	Create(ctx context.Context, path string) (Destination, error)
}
