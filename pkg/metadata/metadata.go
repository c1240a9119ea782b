package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Suffix is appended to a saved file's path to name its record
const Suffix = ".meta.json"

// Record describes one file written by a ripper
type Record struct {
	// Core identifiers
	Name      string `json:"name"`
	SourceURL string `json:"source_url,omitempty"`
	RunID     string `json:"run_id"`

	// Content
	Size   int64  `json:"size"`
	Digest string `json:"blake2b_256"`

	// Timestamps
	SavedAt time.Time `json:"saved_at"`
}

// PathFor returns the record path for a saved file
func PathFor(filePath string) string {
	return filePath + Suffix
}

// Save writes the record next to the file it describes
func (r *Record) Save(filePath string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if err := os.WriteFile(PathFor(filePath), data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	return nil
}

// Load reads the record stored next to filePath
func Load(filePath string) (*Record, error) {
	data, err := os.ReadFile(PathFor(filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	return &rec, nil
}

// Exists checks if a record exists for a file
func Exists(filePath string) bool {
	_, err := os.Stat(PathFor(filePath))
	return err == nil
}

// CleanOrphaned removes records whose file no longer exists
func CleanOrphaned(directory string) (int, error) {
	removed := 0
	err := filepath.Walk(directory, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, Suffix) {
			return nil
		}

		filePath := strings.TrimSuffix(path, Suffix)
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("failed to remove orphaned metadata %s: %w", path, err)
			}
			removed++
		}

		return nil
	})
	return removed, err
}
