// Package store persists LicenseData as JSON.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
)

// Store is a file-based implementation of domain.LicenseDataStore.
type Store struct{}

func New() *Store {
	return &Store{}
}

// Load reads license data written by Save.
func (s *Store) Load(path string) (*domain.LicenseData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var data domain.LicenseData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	data.Normalize()
	return &data, nil
}

// Save writes data to path, creating parent directories as needed.
func (s *Store) Save(path string, data *domain.LicenseData) error {
	data.Normalize()
	raw, err := Marshal(data)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, raw, 0644)
}

// Marshal renders data the way Save writes it.
func Marshal(data *domain.LicenseData) ([]byte, error) {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(raw, '\n'), nil
}
