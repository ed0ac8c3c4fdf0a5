package sinks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cb2cbz/cb2cbz/internal/engine"
	"github.com/spf13/afero"
)

// FilesystemSink writes each destination to a temporary file next to its target
// and renames it into place on Commit.
type FilesystemSink struct {
	fs        afero.Fs
	protected []string
}

type FilesystemSinkOption func(*FilesystemSink)

// WithProtectedPath makes Create refuse to write to path, typically the source archive.
func WithProtectedPath(path string) FilesystemSinkOption {
	return func(s *FilesystemSink) {
		s.protected = append(s.protected, path)
	}
}

func NewFilesystemSink(fs afero.Fs, opts ...FilesystemSinkOption) *FilesystemSink {
	s := &FilesystemSink{fs: fs}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FilesystemSink) Name() string {
	return fmt.Sprintf("filesystem(%s)", s.fs.Name())
}

func (s *FilesystemSink) Kind() string {
	return "filesystem"
}

func (s *FilesystemSink) Create(_ context.Context, path string) (engine.Destination, error) {
	cleanPath := filepath.Clean(path)

	for _, p := range s.protected {
		if s.samePath(cleanPath, p) {
			return nil, fmt.Errorf("refusing to overwrite source archive %s", p)
		}
	}

	// Ensure parent directories exist
	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := s.fs.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	f, err := afero.TempFile(s.fs, dir, "."+filepath.Base(cleanPath)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}

	return &fileDestination{fs: s.fs, file: f, path: cleanPath}, nil
}

func (s *FilesystemSink) samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil && absA == absB {
		return true
	}

	infoA, err := s.fs.Stat(a)
	if err != nil {
		return false
	}
	infoB, err := s.fs.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(infoA, infoB)
}

type fileDestination struct {
	fs   afero.Fs
	file afero.File
	path string
	done bool
}

func (d *fileDestination) Write(p []byte) (int, error) {
	return d.file.Write(p)
}

func (d *fileDestination) Path() string {
	return d.path
}

func (d *fileDestination) Commit() (err error) {
	if d.done {
		return fmt.Errorf("destination %s already finished", d.path)
	}
	d.done = true

	tmpName := d.file.Name()
	defer func() {
		if err != nil {
			err = errors.Join(err, d.fs.Remove(tmpName))
		}
	}()

	if err := d.file.Sync(); err != nil {
		return errors.Join(fmt.Errorf("failed to sync file: %w", err), d.file.Close())
	}
	if err := d.file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := d.fs.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := d.fs.Rename(tmpName, d.path); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}

func (d *fileDestination) Discard() error {
	if d.done {
		return nil
	}
	d.done = true

	closeErr := d.file.Close()
	if err := d.fs.Remove(d.file.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Join(closeErr, fmt.Errorf("failed to remove temporary file: %w", err))
	}
	return nil
}
