package sources

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/cb2cbz/cb2cbz/internal/engine"
)

// ErrUnsafeName is returned for entry names that would escape the archive root.
var ErrUnsafeName = errors.New("unsafe entry name")

// cleanName normalizes an archive entry name to a relative slash-separated path.
// Directory names get a trailing slash.
func cleanName(name string, dir bool) (string, error) {
	slashed := strings.ReplaceAll(name, "\\", "/")
	if strings.HasPrefix(slashed, "/") || (len(slashed) > 1 && slashed[1] == ':') {
		return "", fmt.Errorf("%w: %q is absolute", ErrUnsafeName, name)
	}

	clean := path.Clean(slashed)
	if clean == "." || clean == "" {
		return "", fmt.Errorf("%w: %q is empty", ErrUnsafeName, name)
	}
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q leaves the archive root", ErrUnsafeName, name)
	}

	if dir {
		clean += "/"
	}
	return clean, nil
}

// readData reads a whole entry, refusing entries larger than engine.MaxEntrySize.
func readData(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, engine.MaxEntrySize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > engine.MaxEntrySize {
		return nil, fmt.Errorf("entry exceeds %d bytes", engine.MaxEntrySize)
	}
	return data, nil
}

func newFileEntry(name string, mode fs.FileMode, modTime time.Time, r io.Reader) (*engine.Entry, error) {
	clean, err := cleanName(name, false)
	if err != nil {
		return nil, err
	}
	data, err := readData(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read entry %q: %w", clean, err)
	}
	return &engine.Entry{
		EntryHeader: engine.EntryHeader{Name: clean, Mode: mode.Perm(), ModTime: modTime},
		Data:        data,
	}, nil
}

func newDirEntry(name string, mode fs.FileMode, modTime time.Time) (*engine.Entry, error) {
	clean, err := cleanName(name, true)
	if err != nil {
		return nil, err
	}
	return &engine.Entry{
		EntryHeader: engine.EntryHeader{Name: clean, Mode: fs.ModeDir | mode.Perm(), ModTime: modTime},
		IsDir:       true,
	}, nil
}
