// Package config reads and writes the go-vendor-tools configuration
// document. TOML is the primary format; files ending in .yaml or .yml are
// read and written as YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
)

// Loader implements domain.ConfigStore.
type Loader struct{}

func New() *Loader { return &Loader{} }

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load reads the document at path on top of domain.DefaultConfig.
// A missing file or an empty path yields the defaults.
func (l *Loader) Load(path string) (domain.Config, error) {
	cfg := domain.DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return domain.Config{}, err
	}

	if isYAML(path) {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return domain.Config{}, &domain.ConfigError{Source: path, Msg: fmt.Sprintf("parsing: %v", err)}
		}
	} else {
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return domain.Config{}, &domain.ConfigError{Source: path, Msg: fmt.Sprintf("parsing: %v", err)}
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			sort.Strings(keys)
			return domain.Config{}, &domain.ConfigError{Source: path, Msg: "unknown keys: " + strings.Join(keys, ", ")}
		}
	}

	if err := cfg.Validate(); err != nil {
		var cfgErr *domain.ConfigError
		if errors.As(err, &cfgErr) && cfgErr.Source == "" {
			cfgErr.Source = path
		}
		return domain.Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to path, replacing the file atomically.
func (l *Loader) Save(path string, cfg domain.Config) error {
	var buf bytes.Buffer
	if isYAML(path) {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("encoding %s: %w", path, err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encoding %s: %w", path, err)
		}
	} else {
		enc := toml.NewEncoder(&buf)
		enc.Indent = ""
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("encoding %s: %w", path, err)
		}
	}
	return writeAtomic(path, buf.Bytes())
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
