// Package storage persists uploaded binary content under a public uploads
// directory; the document row stores the resulting relative URL.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store writes uploads to local disk under baseDir and addresses them by
// timestamped filename.
type Store struct {
	baseDir   string
	urlPrefix string
}

// NewStore creates the uploads directory if missing.
func NewStore(baseDir, urlPrefix string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &Store{baseDir: baseDir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

// Save streams src to a timestamped path and returns the relative URL and
// number of bytes written.
func (s *Store) Save(src io.Reader, filename string) (string, int64, error) {
	name := fmt.Sprintf("%d_%s", time.Now().UnixNano(), sanitize(filename))
	dst, err := os.Create(filepath.Join(s.baseDir, name))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		os.Remove(dst.Name())
		return "", 0, fmt.Errorf("failed to write upload file: %w", err)
	}

	return s.urlPrefix + "/" + name, size, nil
}

// Remove deletes the file behind a relative URL previously returned by Save.
// Missing files are not an error; compensating cleanup may run twice.
func (s *Store) Remove(fileURL string) error {
	name := filepath.Base(fileURL)
	if name == "." || name == "/" || name == "" {
		return fmt.Errorf("invalid file url %q", fileURL)
	}
	err := os.Remove(filepath.Join(s.baseDir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Dir returns the directory served statically by the router.
func (s *Store) Dir() string {
	return s.baseDir
}

func sanitize(filename string) string {
	name := filepath.Base(filename)
	name = strings.ReplaceAll(name, " ", "_")
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "upload"
	}
	return b.String()
}
