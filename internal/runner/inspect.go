package runner

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cb2cbz/cb2cbz/internal/engine"
	"github.com/cb2cbz/cb2cbz/internal/engine/codecs"
	"github.com/cb2cbz/cb2cbz/internal/engine/sources"
	"go.uber.org/zap"
)

// InspectedEntry describes one source entry and how it would be converted.
type InspectedEntry struct {
	Name   string
	IsDir  bool
	Size   int
	Image  bool
	Format string
	MIME   string
	Width  int
	Height int
	// Target is the destination entry name with the current configuration.
	Target string
}

type Inspection struct {
	Path    string
	Format  engine.SourceFormat
	Entries []InspectedEntry
}

// Inspect reads every entry of sourcePath and classifies it without writing anything.
func (r *Runner) Inspect(ctx context.Context, sourcePath string) (_ *Inspection, err error) {
	opener := sources.NewOpener(r.logger.Named("sources"), r.fs, r.registry)
	src, err := opener.Open(ctx, sourcePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := src.Close(context.Background()); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close source: %w", closeErr))
		}
	}()

	inspection := &Inspection{Path: sourcePath, Format: src.Format()}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &engine.SourceReadError{Path: sourcePath, Err: err}
		}

		inspection.Entries = append(inspection.Entries, r.inspectEntry(entry))
	}

	r.logger.Debug("inspected source", zap.String("source", sourcePath), zap.Int("entries", len(inspection.Entries)))

	return inspection, nil
}

func (r *Runner) inspectEntry(entry *engine.Entry) InspectedEntry {
	if entry.IsDir {
		return InspectedEntry{Name: entry.Name, IsDir: true, Target: entry.Name + "/"}
	}

	class := r.classifier.Classify(entry.Name, entry.Data)
	inspected := InspectedEntry{
		Name:   entry.Name,
		Size:   len(entry.Data),
		Image:  class.Image,
		Format: class.Format,
		MIME:   class.MIME,
		Target: entry.Name,
	}

	if class.Image {
		if cfg, _, err := codecs.DecodeConfig(entry.Data); err == nil {
			inspected.Width, inspected.Height = cfg.Width, cfg.Height
		}
		if r.codec != nil {
			inspected.Target = engine.ReplaceExtension(entry.Name, r.codec.Extension())
		}
	}

	return inspected
}
