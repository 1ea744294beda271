package application

import (
	"fmt"
	"path/filepath"

	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
	"github.com/go-vendor-tools/go-vendor-tools/internal/domain/licensing"
)

// ExplicitOptions names the file to pin and the expression to record.
type ExplicitOptions struct {
	Directory  string
	ConfigPath string
	// File is the license file, absolute or relative to the working directory.
	File string
	// Expression may be empty to record that the file carries no license.
	Expression string
}

// ExplicitService records manual license entries in the configuration.
type ExplicitService struct {
	configs domain.ConfigStore
	hasher  domain.FileHasher
}

func NewExplicitService(configs domain.ConfigStore, hasher domain.FileHasher) *ExplicitService {
	return &ExplicitService{configs: configs, hasher: hasher}
}

// Run hashes the file and upserts an entry for it. It returns the entry and
// whether the configuration changed.
func (s *ExplicitService) Run(opts ExplicitOptions) (domain.LicenseEntry, bool, error) {
	if opts.ConfigPath == "" {
		return domain.LicenseEntry{}, false, &domain.ConfigError{Msg: "a configuration path must be specified"}
	}

	// 1. Normalize the expression
	expr := ""
	if opts.Expression != "" {
		var err error
		expr, err = licensing.Simplify(opts.Expression, licensing.Strict)
		if err != nil {
			return domain.LicenseEntry{}, false, &domain.LicenseError{Msg: "failed to parse license", Err: err}
		}
	}

	// 2. Locate the file relative to the source tree
	rel, err := relativePath(opts.Directory, opts.File)
	if err != nil {
		return domain.LicenseEntry{}, false, err
	}
	sum, err := s.hasher.HashFile(filepath.Join(opts.Directory, filepath.FromSlash(rel)))
	if err != nil {
		return domain.LicenseEntry{}, false, fmt.Errorf("hashing %s: %w", opts.File, err)
	}

	// 3. Upsert and write back
	cfg, err := s.configs.Load(opts.ConfigPath)
	if err != nil {
		return domain.LicenseEntry{}, false, err
	}
	entry := domain.LicenseEntry{Path: rel, SHA256Sum: sum, Expression: expr}
	changed := cfg.Licensing.UpsertLicense(entry)
	if changed {
		if err := s.configs.Save(opts.ConfigPath, cfg); err != nil {
			return domain.LicenseEntry{}, false, fmt.Errorf("writing configuration: %w", err)
		}
	}
	return entry, changed, nil
}

// relativePath maps file onto a slash-separated path inside directory.
// A relative file is looked up under directory first, then under the
// working directory.
func relativePath(directory, file string) (string, error) {
	absDir, err := filepath.Abs(directory)
	if err != nil {
		return "", err
	}
	absFile := file
	if !filepath.IsAbs(file) {
		if candidate := filepath.Join(absDir, file); fileExists(candidate) {
			absFile = candidate
		} else if absFile, err = filepath.Abs(file); err != nil {
			return "", err
		}
	}
	rel, err := filepath.Rel(absDir, absFile)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if err := domain.ValidateRelativePath(rel); err != nil {
		return "", &domain.ConfigError{Msg: fmt.Sprintf("%s is not inside %s", file, directory)}
	}
	return rel, nil
}
