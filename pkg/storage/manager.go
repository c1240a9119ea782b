package storage

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Default permissions for created directories and files
const (
	DirPerm  os.FileMode = 0755
	FilePerm os.FileMode = 0644
)

// Manager handles the filesystem side of a run: directory checks, directory
// creation and atomic file writes. It never changes the process working
// directory.
type Manager struct {
	dirPerm  os.FileMode
	filePerm os.FileMode
	saved    int
}

// Result describes a completed write
type Result struct {
	Path   string
	Size   int64
	Digest string
}

// NewManager creates a new storage manager
func NewManager() *Manager {
	return &Manager{
		dirPerm:  DirPerm,
		filePerm: FilePerm,
	}
}

// ValidateName checks that name is a single path segment: not empty, not
// "." or "..", without separators and not absolute.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("empty name")
	}
	if name == "." || name == ".." {
		return fmt.Errorf("invalid name: %q", name)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("name must not contain path separators: %q", name)
	}
	if filepath.IsAbs(name) {
		return fmt.Errorf("absolute paths are not allowed: %q", name)
	}
	return nil
}

// IsDir reports whether path exists and is a directory
func (m *Manager) IsDir(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		return info.IsDir(), nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
}

// Exists reports whether anything exists at path
func (m *Manager) Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// CreateDir creates a single directory; its parent must exist
func (m *Manager) CreateDir(path string) error {
	if err := os.Mkdir(path, m.dirPerm); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}

// SaveFile writes r to path through a temporary file and an atomic rename
func (m *Manager) SaveFile(r io.Reader, path string) (*Result, error) {
	hash, err := blake2b.New256(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create digest: %w", err)
	}

	tempFile := path + ".tmp"
	out, err := os.OpenFile(tempFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, m.filePerm)
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}

	size, err := io.Copy(io.MultiWriter(out, hash), r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return nil, fmt.Errorf("failed to save file data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return nil, fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return nil, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.saved++

	return &Result{
		Path:   path,
		Size:   size,
		Digest: hex.EncodeToString(hash.Sum(nil)),
	}, nil
}

// Remove deletes a file written by SaveFile and takes it out of the count
func (m *Manager) Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	if m.saved > 0 {
		m.saved--
	}
	return nil
}

// GetSavedCount returns the number of files written by this manager
func (m *Manager) GetSavedCount() int {
	return m.saved
}
