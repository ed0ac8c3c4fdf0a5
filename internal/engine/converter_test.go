package engine

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func file(name, data string) *Entry {
	return &Entry{
		EntryHeader: EntryHeader{Name: name, Mode: 0o644, ModTime: time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)},
		Data:        []byte(data),
	}
}

func dir(name string) *Entry {
	return &Entry{EntryHeader: EntryHeader{Name: name, Mode: fs.ModeDir | 0o755}, IsDir: true}
}

type converterFixture struct {
	source   *mockSource
	sink     *mockSink
	archiver *mockArchiver
}

func newFixture(entries ...*Entry) *converterFixture {
	return &converterFixture{
		source:   &mockSource{format: FormatRAR, entries: entries},
		sink:     &mockSink{},
		archiver: &mockArchiver{},
	}
}

func (f *converterFixture) converter(opts ...ConverterOption) *Converter {
	return NewConverter(zap.NewNop(), &mockOpener{source: f.source}, f.sink, extClassifier{},
		func(io.Writer) (Archiver, error) { return f.archiver, nil }, opts...)
}

func TestConverter_Convert(t *testing.T) {
	pngCodec := &mockCodec{format: ImageFormatPNG, ext: ".png", matches: "png"}

	t.Run("preserves order and converts images", func(t *testing.T) {
		f := newFixture(
			dir("chapter1/"),
			file("chapter1/001.jpg", "one"),
			file("chapter1/002.jpg", "two"),
			file("chapter1/notes.txt", "hello"),
		)
		var observed []string

		report, err := f.converter(
			WithCodec(pngCodec),
			WithEntryObserver(func(r EntryResult) { observed = append(observed, r.Destination) }),
		).Convert(t.Context(), "book.cbr", "book.cbz")

		require.NoError(t, err)
		want := []string{"chapter1/", "chapter1/001.png", "chapter1/002.png", "chapter1/notes.txt"}
		assert.Equal(t, want, f.archiver.names())
		assert.Equal(t, want, observed)
		assert.Equal(t, []byte("ONE"), f.archiver.entries[1].data)
		assert.Equal(t, []byte("hello"), f.archiver.entries[3].data)
		assert.Equal(t, time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC), f.archiver.entries[1].header.ModTime)

		assert.Equal(t, 2, report.Count(ActionConverted))
		assert.Equal(t, 1, report.Count(ActionCopied))
		assert.Equal(t, 1, report.Count(ActionDirectory))
		assert.Equal(t, FormatRAR, report.SourceFormat)
		assert.Empty(t, report.Warnings)

		assert.True(t, f.archiver.closed)
		assert.True(t, f.sink.dest.committed)
		assert.False(t, f.sink.dest.discarded)
		assert.True(t, f.source.closed)
	})

	t.Run("without codec every entry is copied", func(t *testing.T) {
		f := newFixture(file("001.jpg", "one"), file("002.png", "two"))

		report, err := f.converter().Convert(t.Context(), "book.cbr", "book.cbz")

		require.NoError(t, err)
		assert.Equal(t, []string{"001.jpg", "002.png"}, f.archiver.names())
		assert.Equal(t, []byte("one"), f.archiver.entries[0].data)
		assert.Equal(t, 2, report.Count(ActionCopied))
	})

	t.Run("images already in target format are kept", func(t *testing.T) {
		f := newFixture(file("001.png", "one"), file("002.jpg", "two"))

		report, err := f.converter(WithCodec(pngCodec)).Convert(t.Context(), "book.cbr", "book.cbz")

		require.NoError(t, err)
		assert.Equal(t, []byte("one"), f.archiver.entries[0].data)
		assert.Equal(t, []byte("TWO"), f.archiver.entries[1].data)
		assert.Equal(t, 1, report.Count(ActionKept))
		assert.Equal(t, 1, report.Count(ActionConverted))
	})

	t.Run("force reencode converts images in target format", func(t *testing.T) {
		f := newFixture(file("001.png", "one"))

		report, err := f.converter(WithCodec(pngCodec), WithPolicy(Policy{ForceReencode: true})).
			Convert(t.Context(), "book.cbr", "book.cbz")

		require.NoError(t, err)
		assert.Equal(t, []byte("ONE"), f.archiver.entries[0].data)
		assert.Equal(t, 1, report.Count(ActionConverted))
	})

	t.Run("decode failure is a warning and keeps the entry", func(t *testing.T) {
		f := newFixture(file("001.jpg", "one"), file("002.bad", "corrupt bytes"), file("003.jpg", "three"))

		report, err := f.converter(WithCodec(pngCodec)).Convert(t.Context(), "book.cbr", "book.cbz")

		require.NoError(t, err)
		assert.Equal(t, []string{"001.png", "002.bad", "003.png"}, f.archiver.names())
		assert.Equal(t, []byte("corrupt bytes"), f.archiver.entries[1].data)
		require.Len(t, report.Warnings, 1)
		var decodeErr *EntryDecodeError
		require.ErrorAs(t, report.Warnings[0], &decodeErr)
		assert.Equal(t, "002.bad", decodeErr.Entry)
		assert.Equal(t, ActionCopied, report.Entries[1].Action)
		assert.True(t, f.sink.dest.committed)
	})

	t.Run("encode failure is a warning and keeps the entry", func(t *testing.T) {
		f := newFixture(file("001.jpg", "huge image"))

		report, err := f.converter(WithCodec(pngCodec)).Convert(t.Context(), "book.cbr", "book.cbz")

		require.NoError(t, err)
		require.Len(t, report.Warnings, 1)
		var encodeErr *EntryEncodeError
		require.ErrorAs(t, report.Warnings[0], &encodeErr)
		assert.Equal(t, ImageFormatPNG, encodeErr.Format)
		assert.Equal(t, []byte("huge image"), f.archiver.entries[0].data)
	})

	t.Run("strict decode failure is fatal and discards output", func(t *testing.T) {
		f := newFixture(file("001.jpg", "one"), file("002.bad", "corrupt"))

		report, err := f.converter(WithCodec(pngCodec), WithPolicy(Policy{Strict: true})).
			Convert(t.Context(), "book.cbr", "book.cbz")

		require.Error(t, err)
		assert.Nil(t, report)
		var decodeErr *EntryDecodeError
		assert.ErrorAs(t, err, &decodeErr)
		assert.True(t, f.sink.dest.discarded)
		assert.False(t, f.sink.dest.committed)
	})

	t.Run("duplicate names warn by default", func(t *testing.T) {
		f := newFixture(file("001.jpg", "a"), file("001.png", "b"))

		report, err := f.converter(WithCodec(pngCodec)).Convert(t.Context(), "book.cbr", "book.cbz")

		require.NoError(t, err)
		assert.Equal(t, []string{"001.png", "001.png"}, f.archiver.names())
		require.Len(t, report.Warnings, 1)
		var dupErr *DuplicateEntryError
		require.ErrorAs(t, report.Warnings[0], &dupErr)
		assert.Equal(t, "001.png", dupErr.Name)
	})

	t.Run("duplicate names are fatal with error policy", func(t *testing.T) {
		f := newFixture(file("001.jpg", "a"), file("001.png", "b"))

		_, err := f.converter(WithCodec(pngCodec), WithPolicy(Policy{Duplicates: DuplicatesError})).
			Convert(t.Context(), "book.cbr", "book.cbz")

		var dupErr *DuplicateEntryError
		require.ErrorAs(t, err, &dupErr)
		assert.True(t, f.sink.dest.discarded)
	})

	t.Run("source open failure creates nothing", func(t *testing.T) {
		f := newFixture()
		c := NewConverter(zap.NewNop(), &mockOpener{err: errors.New("no such file")}, f.sink, extClassifier{},
			func(io.Writer) (Archiver, error) { return f.archiver, nil })

		_, err := c.Convert(t.Context(), "missing.cbr", "missing.cbz")

		var openErr *SourceOpenError
		require.ErrorAs(t, err, &openErr)
		assert.Equal(t, "missing.cbr", openErr.Path)
		assert.Zero(t, f.sink.created)
	})

	t.Run("source read failure discards output", func(t *testing.T) {
		f := newFixture(file("001.jpg", "one"), file("002.jpg", "two"))
		f.source.failAt = 1
		f.source.readErr = errors.New("checksum mismatch")

		_, err := f.converter(WithCodec(pngCodec)).Convert(t.Context(), "book.cbr", "book.cbz")

		var readErr *SourceReadError
		require.ErrorAs(t, err, &readErr)
		assert.ErrorContains(t, err, "checksum mismatch")
		assert.True(t, f.sink.dest.discarded)
		assert.True(t, f.source.closed)
	})

	t.Run("write failure discards output", func(t *testing.T) {
		f := newFixture(file("001.jpg", "one"), file("002.jpg", "two"))
		f.archiver.failOn = "002.png"

		_, err := f.converter(WithCodec(pngCodec)).Convert(t.Context(), "book.cbr", "book.cbz")

		var writeErr *DestinationWriteError
		require.ErrorAs(t, err, &writeErr)
		assert.Equal(t, "002.png", writeErr.Entry)
		assert.True(t, f.sink.dest.discarded)
	})

	t.Run("cancelled context stops conversion", func(t *testing.T) {
		f := newFixture(file("001.jpg", "one"))
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		_, err := f.converter(WithCodec(pngCodec)).Convert(ctx, "book.cbr", "book.cbz")

		require.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, f.archiver.entries)
		assert.True(t, f.sink.dest.discarded)
	})
}

func TestReplaceExtension(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		want string
	}{
		{"001.jpg", ".png", "001.png"},
		{"chapter/001.jpeg", ".jxl", "chapter/001.jxl"},
		{"dir.v2/page", ".png", "dir.v2/page.png"},
		{"archive.tar.gz", ".png", "archive.tar.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReplaceExtension(tt.name, tt.ext))
		})
	}
}
