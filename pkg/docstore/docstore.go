// Package docstore persists uploaded documents and their extracted text
// under a local directory, keyed by a sanitized base filename.
package docstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeName reduces an arbitrary filename to its base name with
// everything outside [A-Za-z0-9._-] stripped. A name that sanitizes away
// entirely becomes "document".
func SanitizeName(name string) string {
	base := filepath.Base(name)
	clean := unsafeChars.ReplaceAllString(base, "")
	if clean == "" || clean == "." || clean == ".." {
		return "document"
	}
	return clean
}

// Store keeps uploaded originals and their extracted text under two
// separate root directories, so persisting output never clobbers the
// uploaded file it came from.
type Store struct {
	uploadsDir string
	outputsDir string
}

// New creates both root directories if needed and returns a store over them.
func New(uploadsDir, outputsDir string) (*Store, error) {
	for _, dir := range []string{uploadsDir, outputsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create document store dir: %w", err)
		}
	}
	return &Store{uploadsDir: uploadsDir, outputsDir: outputsDir}, nil
}

// SaveFile streams an uploaded file into the uploads directory and returns
// the path it was saved under.
func (s *Store) SaveFile(name string, r io.Reader) (string, error) {
	path := filepath.Join(s.uploadsDir, SanitizeName(name))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// SaveOutput stores extracted text under the sanitized name in the outputs
// directory.
func (s *Store) SaveOutput(name, text string) error {
	path := filepath.Join(s.outputsDir, SanitizeName(name))
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write output %s: %w", path, err)
	}
	return nil
}

// ReadOutput returns previously stored text for the sanitized name.
func (s *Store) ReadOutput(name string) (string, error) {
	path := filepath.Join(s.outputsDir, SanitizeName(name))
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read output %s: %w", path, err)
	}
	return string(data), nil
}
