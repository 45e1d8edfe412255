// Package storage provides atomic operations on the small line-oriented
// record files kept in the metadata root.
package storage

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// WriteFile atomically writes data to path.
// It ensures the parent directory exists, writes to a temp file,
// then renames to the final path.
func WriteFile(fs afero.Fs, path string, data []byte) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tempPath := path + ".tmp"
	if err := afero.WriteFile(fs, tempPath, data, 0o644); err != nil {
		return err
	}

	if err := fs.Rename(tempPath, path); err != nil {
		fs.Remove(tempPath)
		return err
	}
	return nil
}

// WriteLine atomically replaces the record at path with a single line.
func WriteLine(fs afero.Fs, path, value string) error {
	return WriteFile(fs, path, []byte(value+"\n"))
}

// ReadLine returns the first line of the record at path.
// ok is false if the record doesn't exist.
func ReadLine(fs afero.Fs, path string) (value string, ok bool, err error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	line, _, _ := strings.Cut(string(data), "\n")
	return strings.TrimSpace(line), true, nil
}

// ReadLines returns every line of the file at path without trailing newlines.
// Returns os.ErrNotExist if the file doesn't exist (caller should handle).
func ReadLines(fs afero.Fs, path string) ([]string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}

// Remove deletes the record at path. Removing a missing record is a no-op.
func Remove(fs afero.Fs, path string) error {
	if err := fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Exists reports whether path exists.
func Exists(fs afero.Fs, path string) (bool, error) {
	return afero.Exists(fs, path)
}
