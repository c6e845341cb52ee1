// Package jsonstore reads and writes the JSON batch files shared by the raw
// and processed stages. Files are written create-only: an existing file is
// never replaced.
package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

var (
	// ErrOverwriteRefused is returned when the destination file already exists.
	ErrOverwriteRefused = errors.New("overwrite refused")
	// ErrNotFound is returned when the source file does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrCorrupt is returned when the source file is not valid JSON.
	ErrCorrupt = errors.New("invalid json")
	// ErrIO wraps any other filesystem failure.
	ErrIO = errors.New("i/o failure")
)

const indent = "    "

// WriteNew encodes v as indented JSON into a new file at path.
func WriteNew(path string, v any) error {
	data, err := json.MarshalIndent(v, "", indent)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrIO, path, err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s already exists", ErrOverwriteRefused, path)
		}
		return fmt.Errorf("%w: create %s: %w", ErrIO, path, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("%w: write %s: %w", ErrIO, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrIO, path, err)
	}
	return nil
}

// Read decodes the JSON file at path into v.
func Read(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("%w: read %s: %w", ErrIO, path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCorrupt, path, err)
	}
	return nil
}

// Exists reports whether a file exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
