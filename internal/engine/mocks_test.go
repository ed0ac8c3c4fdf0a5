package engine

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"
	"path"
	"strings"
)

// mockSource replays a fixed list of entries.
type mockSource struct {
	format  SourceFormat
	entries []*Entry
	// failAt makes Next return readErr once that many entries have been returned.
	failAt  int
	readErr error
	pos     int
	closed  bool
}

func (m *mockSource) Name() string         { return "mock" }
func (m *mockSource) Kind() string         { return "mock" }
func (m *mockSource) Format() SourceFormat { return m.format }

func (m *mockSource) Next(context.Context) (*Entry, error) {
	if m.readErr != nil && m.pos == m.failAt {
		return nil, m.readErr
	}
	if m.pos >= len(m.entries) {
		return nil, io.EOF
	}
	e := m.entries[m.pos]
	m.pos++
	return e, nil
}

func (m *mockSource) Close(context.Context) error {
	m.closed = true
	return nil
}

type mockOpener struct {
	source *mockSource
	err    error
}

func (m *mockOpener) Open(context.Context, string) (Source, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.source, nil
}

// mockDestination buffers output and records whether it was committed or discarded.
type mockDestination struct {
	bytes.Buffer
	path      string
	committed bool
	discarded bool
}

func (d *mockDestination) Path() string { return d.path }

func (d *mockDestination) Commit() error {
	d.committed = true
	return nil
}

func (d *mockDestination) Discard() error {
	if !d.committed {
		d.discarded = true
	}
	return nil
}

type mockSink struct {
	dest    *mockDestination
	created int
}

func (s *mockSink) Name() string { return "mock" }
func (s *mockSink) Kind() string { return "mock" }

func (s *mockSink) Create(_ context.Context, p string) (Destination, error) {
	s.created++
	s.dest = &mockDestination{path: p}
	return s.dest, nil
}

type archivedEntry struct {
	header EntryHeader
	dir    bool
	data   []byte
}

// mockArchiver records entries in the order they are added.
type mockArchiver struct {
	entries []archivedEntry
	failOn  string
	closed  bool
}

func (a *mockArchiver) AddFile(_ context.Context, header EntryHeader, data io.Reader) error {
	if header.Name == a.failOn {
		return errors.New("disk full")
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	a.entries = append(a.entries, archivedEntry{header: header, data: b})
	return nil
}

func (a *mockArchiver) AddDir(_ context.Context, header EntryHeader) error {
	a.entries = append(a.entries, archivedEntry{header: header, dir: true})
	return nil
}

func (a *mockArchiver) Close() error {
	a.closed = true
	return nil
}


func (a *mockArchiver) names() []string {
	names := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		names = append(names, e.header.Name)
	}
	return names
}

// extClassifier treats .png/.jpg/.bad as images and reports the extension as the content format.
type extClassifier struct{}

func (extClassifier) Classify(name string, _ []byte) Classification {
	switch ext := strings.TrimPrefix(path.Ext(name), "."); ext {
	case "png", "bad":
		return Classification{Image: true, Format: ext}
	case "jpg":
		return Classification{Image: true, Format: "jpeg"}
	default:
		return Classification{}
	}
}

// mockCodec "encodes" by upper-casing the source bytes. Data starting with
// "corrupt" fails to decode and data starting with "huge" fails to encode.
type mockCodec struct {
	format  ImageFormat
	ext     string
	matches string
}

func (m *mockCodec) Name() string        { return string(m.format) }
func (m *mockCodec) Kind() string        { return string(m.format) }
func (m *mockCodec) Format() ImageFormat { return m.format }
func (m *mockCodec) Extension() string   { return m.ext }

func (m *mockCodec) Matches(sourceFormat string) bool {
	return m.matches != "" && sourceFormat == m.matches
}

func (m *mockCodec) Decode(_ context.Context, data []byte) (*ImagePayload, error) {
	if bytes.HasPrefix(data, []byte("corrupt")) {
		return nil, errors.New("unexpected EOF")
	}
	return &ImagePayload{Image: image.NewGray(image.Rect(0, 0, 1, 1)), Raw: data}, nil
}

func (m *mockCodec) Encode(_ context.Context, w io.Writer, img *ImagePayload) error {
	if bytes.HasPrefix(img.Raw, []byte("huge")) {
		return errors.New("image too large")
	}
	_, err := w.Write(bytes.ToUpper(img.Raw))
	return err
}
