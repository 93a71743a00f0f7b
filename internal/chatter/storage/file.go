package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileBackend stores the snapshot as a single JSON document on disk,
// matching the original data-file layout of the bot.
type FileBackend struct {
	path string
}

// NewFile creates a backend writing to the given path. The parent directory
// must exist.
func NewFile(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Load reads the snapshot file. A missing file yields ErrNotFound.
func (f *FileBackend) Load() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", f.path, err)
	}
	return data, nil
}

// Save writes the snapshot atomically: to a temp file in the same directory,
// then rename over the target. A crash mid-write never leaves a truncated
// snapshot behind.
func (f *FileBackend) Save(data []byte) error {
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("storage: write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage: close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage: rename to %s: %w", f.path, err)
	}
	return nil
}
