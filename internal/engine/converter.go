package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"go.uber.org/zap"
)

// DuplicatePolicy decides what happens when two destination entries share a name.
type DuplicatePolicy string

const (
	DuplicatesWarn  DuplicatePolicy = "warn"
	DuplicatesError DuplicatePolicy = "error"
)

// Policy holds the per-entry error handling settings of a Converter.
type Policy struct {
	// Strict turns image decode and encode failures into fatal errors.
	Strict bool
	// ForceReencode re-encodes images that are already in the target format.
	ForceReencode bool
	Duplicates    DuplicatePolicy
}

// EntryObserver is notified after each entry has been written to the destination.
type EntryObserver func(EntryResult)

// Converter turns one source archive into a CBZ destination, one entry at a time.
type Converter struct {
	logger      *zap.Logger
	opener      SourceOpener
	sink        Sink
	classifier  Classifier
	newArchiver ArchiverFactory
	codec       ImageCodec
	policy      Policy
	observer    EntryObserver
}

type ConverterOption func(*Converter)

// WithCodec sets the codec used to re-encode images. Without a codec every
// entry is copied unchanged.
func WithCodec(codec ImageCodec) ConverterOption {
	return func(c *Converter) {
		c.codec = codec
	}
}

func WithPolicy(policy Policy) ConverterOption {
	return func(c *Converter) {
		c.policy = policy
	}
}

func WithEntryObserver(observer EntryObserver) ConverterOption {
	return func(c *Converter) {
		c.observer = observer
	}
}

func NewConverter(logger *zap.Logger, opener SourceOpener, sink Sink, classifier Classifier, newArchiver ArchiverFactory, opts ...ConverterOption) *Converter {
	c := &Converter{
		logger:      logger,
		opener:      opener,
		sink:        sink,
		classifier:  classifier,
		newArchiver: newArchiver,
		policy:      Policy{Duplicates: DuplicatesWarn},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert reads every entry of the archive at sourcePath and writes it to destinationPath.
// The destination is only committed when every entry was processed; on any fatal
// error it is discarded and no output is left behind.
func (c *Converter) Convert(ctx context.Context, sourcePath, destinationPath string) (*Report, error) {
	src, err := c.opener.Open(ctx, sourcePath)
	if err != nil {
		var openErr *SourceOpenError
		if errors.As(err, &openErr) {
			return nil, err
		}
		return nil, &SourceOpenError{Path: sourcePath, Err: err}
	}
	defer func() {
		if err := src.Close(context.Background()); err != nil {
			c.logger.Warn("failed to close source archive", zap.String("source", sourcePath), zap.Error(err))
		}
	}()

	c.logger.Info("converting archive",
		zap.String("source", sourcePath),
		zap.String("source_format", string(src.Format())),
		zap.String("destination", destinationPath),
	)

	dst, err := c.sink.Create(ctx, destinationPath)
	if err != nil {
		return nil, &DestinationWriteError{Path: destinationPath, Op: "create", Err: err}
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if err := dst.Discard(); err != nil {
			c.logger.Error("failed to discard partial destination", zap.String("destination", dst.Path()), zap.Error(err))
		}
	}()

	archiver, err := c.newArchiver(dst)
	if err != nil {
		return nil, fmt.Errorf("failed to create archiver: %w", err)
	}

	report := &Report{
		SourcePath:      sourcePath,
		DestinationPath: dst.Path(),
		SourceFormat:    src.Format(),
	}
	seen := make(map[string]struct{})

	for {
		// Check context cancellation before each entry
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled while converting %s: %w", sourcePath, err)
		}

		entry, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &SourceReadError{Path: sourcePath, Err: err}
		}

		result, err := c.processEntry(ctx, archiver, dst.Path(), entry, seen)
		if err != nil {
			return nil, err
		}

		report.Entries = append(report.Entries, result)
		if result.Warning != nil {
			report.Warnings = append(report.Warnings, result.Warning)
		}
		if c.observer != nil {
			c.observer(result)
		}
	}

	if err := archiver.Close(); err != nil {
		return nil, &DestinationWriteError{Path: dst.Path(), Op: "finalize", Err: err}
	}
	if err := dst.Commit(); err != nil {
		return nil, &DestinationWriteError{Path: dst.Path(), Op: "commit", Err: err}
	}
	committed = true

	c.logger.Info("archive converted",
		zap.String("destination", dst.Path()),
		zap.Int("entries", len(report.Entries)),
		zap.Int("converted", report.Count(ActionConverted)),
		zap.Int("warnings", len(report.Warnings)),
	)

	return report, nil
}

// transformed is the destination form of a single entry.
type transformed struct {
	name    string
	data    []byte
	action  EntryAction
	warning error
}

func (c *Converter) processEntry(ctx context.Context, archiver Archiver, dstPath string, entry *Entry, seen map[string]struct{}) (EntryResult, error) {
	var (
		out transformed
		err error
	)
	if entry.IsDir {
		out = transformed{name: entry.Name, action: ActionDirectory}
	} else {
		out, err = c.transform(ctx, entry)
		if err != nil {
			return EntryResult{}, err
		}
	}

	key := strings.Trim(out.name, "/")
	if _, dup := seen[key]; dup {
		dupErr := &DuplicateEntryError{Name: out.name}
		if c.policy.Duplicates == DuplicatesError {
			return EntryResult{}, dupErr
		}
		out.warning = errors.Join(out.warning, dupErr)
	}
	seen[key] = struct{}{}

	header := entry.EntryHeader
	header.Name = out.name
	if entry.IsDir {
		err = archiver.AddDir(ctx, header)
	} else {
		err = archiver.AddFile(ctx, header, bytes.NewReader(out.data))
	}
	if err != nil {
		return EntryResult{}, &DestinationWriteError{Path: dstPath, Op: "write", Entry: out.name, Err: err}
	}

	if out.warning != nil {
		c.logger.Warn("entry written with warning", zap.String("entry", entry.Name), zap.Error(out.warning))
	} else {
		c.logger.Debug("entry written",
			zap.String("entry", entry.Name),
			zap.String("destination", out.name),
			zap.String("action", string(out.action)),
		)
	}

	return EntryResult{
		Source:      entry.Name,
		Destination: out.name,
		Action:      out.action,
		Warning:     out.warning,
	}, nil
}

func (c *Converter) transform(ctx context.Context, entry *Entry) (transformed, error) {
	keep := transformed{name: entry.Name, data: entry.Data, action: ActionCopied}
	if c.codec == nil {
		return keep, nil
	}

	class := c.classifier.Classify(entry.Name, entry.Data)
	if !class.Image {
		return keep, nil
	}

	newName := ReplaceExtension(entry.Name, c.codec.Extension())
	if !c.policy.ForceReencode && c.codec.Matches(class.Format) {
		return transformed{name: newName, data: entry.Data, action: ActionKept}, nil
	}

	payload, err := c.codec.Decode(ctx, entry.Data)
	if err != nil {
		return c.recover(keep, &EntryDecodeError{Entry: entry.Name, Err: err})
	}

	var buf bytes.Buffer
	if err := c.codec.Encode(ctx, &buf, payload); err != nil {
		return c.recover(keep, &EntryEncodeError{Entry: entry.Name, Format: c.codec.Format(), Err: err})
	}

	return transformed{name: newName, data: buf.Bytes(), action: ActionConverted}, nil
}

// recover applies the strict policy to a per-entry failure: fatal when strict,
// otherwise the entry is kept unchanged with a warning.
func (c *Converter) recover(keep transformed, err error) (transformed, error) {
	if c.policy.Strict {
		return transformed{}, err
	}
	keep.warning = err
	return keep, nil
}

// ReplaceExtension swaps the extension of an archive entry name for ext.
func ReplaceExtension(name, ext string) string {
	return strings.TrimSuffix(name, path.Ext(name)) + ext
}
