package sinks

import (
	"context"
	"io"

	"github.com/cb2cbz/cb2cbz/internal/engine"
)

// StreamPath is the output path that selects the stream sink.
const StreamPath = "-"

// StreamSink writes the archive straight to a writer, usually stdout.
// Bytes already written cannot be taken back, so Discard only stops further writes.
type StreamSink struct {
	w io.Writer
}

func NewStreamSink(w io.Writer) *StreamSink {
	return &StreamSink{w: w}
}

func (s *StreamSink) Name() string {
	return "stream"
}

func (s *StreamSink) Kind() string {
	return "stream"
}

func (s *StreamSink) Create(context.Context, string) (engine.Destination, error) {
	return &streamDestination{w: s.w}, nil
}

type streamDestination struct {
	w    io.Writer
	done bool
}

func (d *streamDestination) Write(p []byte) (int, error) {
	if d.done {
		return 0, io.ErrClosedPipe
	}
	return d.w.Write(p)
}

func (d *streamDestination) Path() string {
	return StreamPath
}

func (d *streamDestination) Commit() error {
	d.done = true
	return nil
}

func (d *streamDestination) Discard() error {
	d.done = true
	return nil
}
