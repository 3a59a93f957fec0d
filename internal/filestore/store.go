// Package filestore manages the lifecycle of uploaded and converted files:
// unique naming, scheduled deletion, and the retention sweep that bounds how
// long user content may sit on disk.
package filestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RetentionHorizon is the fixed maximum lifetime of any temp artifact.
// Anything older is force-deleted by the sweeper whether or not it was
// ever downloaded.
const RetentionHorizon = 24 * time.Hour

const (
	deleteRetries    = 3
	deleteRetryDelay = 500 * time.Millisecond
)

// Store manages the upload and output directories.
type Store struct {
	uploadDir string
	outputDir string
}

// New creates both directories if needed.
func New(uploadDir, outputDir string) (*Store, error) {
	for _, dir := range []string{uploadDir, outputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return &Store{uploadDir: uploadDir, outputDir: outputDir}, nil
}

// UploadDir returns the directory uploaded inputs are written to.
func (s *Store) UploadDir() string { return s.uploadDir }

// OutputDir returns the directory converted artifacts are written to.
func (s *Store) OutputDir() string { return s.outputDir }

// Reserve allocates a collision-free path in the upload directory for an
// uploaded file. Concurrent uploads with identical names get distinct paths.
func (s *Store) Reserve(originalName string) string {
	name := fmt.Sprintf("%s-%s", uuid.New().String(), SanitizeFilename(originalName))
	return filepath.Join(s.uploadDir, name)
}

// SaveUpload streams an upload into a reserved path and returns it.
// The partial file is removed on write failure.
func (s *Store) SaveUpload(originalName string, r io.Reader) (string, error) {
	path := s.Reserve(originalName)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("writing upload: %w", err)
	}
	return path, nil
}

// OutputPath resolves a client-supplied filename inside the output directory,
// rejecting anything that would escape it.
func (s *Store) OutputPath(filename string) (string, error) {
	clean := SanitizeFilename(filename)
	if clean == "" || clean != filename {
		return "", fmt.Errorf("invalid filename: %s", filename)
	}
	return filepath.Join(s.outputDir, clean), nil
}

// DeleteNow removes a path. Deleting an already-absent path is not an error.
// Removal is retried a few times because a file recently closed by another
// process may briefly remain locked on some platforms.
func (s *Store) DeleteNow(path string) error {
	err := os.Remove(path)
	if err == nil || os.IsNotExist(err) {
		return nil
	}

	for i := 0; i < deleteRetries; i++ {
		time.Sleep(deleteRetryDelay)
		err = os.Remove(path)
		if err == nil || os.IsNotExist(err) {
			return nil
		}
	}
	return fmt.Errorf("deleting %s after %d retries: %w", path, deleteRetries, err)
}

// ScheduleDeletion removes the path after the given delay. Used to tear down
// served artifacts shortly after download; the retention sweep is the
// backstop if the process restarts before the timer fires.
func (s *Store) ScheduleDeletion(path string, after time.Duration) {
	time.AfterFunc(after, func() {
		_ = s.DeleteNow(path)
	})
}

// Sweep force-deletes every file in both directories older than maxAge.
// Returns the number of files removed.
func (s *Store) Sweep(maxAge time.Duration) int {
	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for _, dir := range []string{s.uploadDir, s.outputDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			if info.ModTime().Before(cutoff) {
				if s.DeleteNow(filepath.Join(dir, e.Name())) == nil {
					removed++
				}
			}
		}
	}
	return removed
}

// SanitizeFilename strips path separators and traversal components, keeping
// only the base name. Returns "" for names that reduce to nothing.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	// Drop characters that are unsafe in filenames across platforms.
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	return out
}
