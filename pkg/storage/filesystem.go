package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Archive keeps audit copies of generated exports on local disk. Every
// CSV and PDF handed out by the API lands here so a download can be
// reproduced after the fact.
type Archive struct {
	baseDir string
}

// NewArchive ensures the base directory exists and returns a handle.
func NewArchive(baseDir string) (*Archive, error) {
	if baseDir == "" {
		baseDir = "./exports"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	return &Archive{baseDir: baseDir}, nil
}

// Save writes the payload under the given name, creating intermediate
// directories as needed. It returns the relative path of the stored copy.
func (a *Archive) Save(name string, data []byte) (string, error) {
	path, err := a.Resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare archive directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write archive file: %w", err)
	}
	return name, nil
}

// Open returns a read-only handle for an archived file.
func (a *Archive) Open(name string) (*os.File, error) {
	path, err := a.Resolve(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive file: %w", err)
	}
	return file, nil
}

// Resolve maps a relative name to an absolute path, rejecting anything
// that would escape the base directory. Names come from signed tokens,
// which cross a trust boundary.
func (a *Archive) Resolve(name string) (string, error) {
	path := filepath.Join(a.baseDir, filepath.Clean("/"+name))
	base, err := filepath.Abs(a.baseDir)
	if err != nil {
		return "", fmt.Errorf("resolve archive base: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve archive path: %w", err)
	}
	if abs != base && !strings.HasPrefix(abs, base+string(filepath.Separator)) {
		return "", fmt.Errorf("archive path escapes base directory")
	}
	return abs, nil
}

// Sweep removes archived files older than the retention window and
// returns how many were deleted.
func (a *Archive) Sweep(retention time.Duration) (int, error) {
	cutoff := time.Now().Add(-retention)
	deleted := 0
	err := filepath.WalkDir(a.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		deleted++
		return nil
	})
	if err != nil {
		return deleted, fmt.Errorf("sweep archive: %w", err)
	}
	return deleted, nil
}
