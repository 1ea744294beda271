package domain

import (
	"fmt"
	"path"
	"slices"
	"strings"
)

// DefaultConfigFile is the configuration file name used when none is given.
const DefaultConfigFile = "go-vendor-tools.toml"

// ReusePrecedence decides how REUSE LICENSES/ directories interact with
// file-name heuristics inside the same module root.
type ReusePrecedence string

const (
	// ReusePrecedenceReuse ignores heuristic license files next to a LICENSES/ directory.
	ReusePrecedenceReuse ReusePrecedence = "reuse"
	// ReusePrecedenceBoth keeps both.
	ReusePrecedenceBoth ReusePrecedence = "both"
	// ReusePrecedenceHeuristic ignores LICENSES/ directories altogether.
	ReusePrecedenceHeuristic ReusePrecedence = "heuristic"
)

// ValidReusePrecedences enumerates all recognized precedence values.
var ValidReusePrecedences = []ReusePrecedence{
	ReusePrecedenceReuse,
	ReusePrecedenceBoth,
	ReusePrecedenceHeuristic,
}

// Config is the whole configuration document.
type Config struct {
	Licensing LicenseConfig `toml:"licensing" yaml:"licensing" json:"licensing"`
	Archive   ArchiveConfig `toml:"archive" yaml:"archive" json:"archive"`
}

// LicenseConfig configures license detection.
type LicenseConfig struct {
	Detector           string         `toml:"detector,omitempty" yaml:"detector,omitempty" json:"detector,omitempty"`
	Licenses           []LicenseEntry `toml:"licenses" yaml:"licenses" json:"licenses"`
	ExcludeGlobs       []string       `toml:"exclude_globs" yaml:"exclude_globs" json:"exclude_globs"`
	ExcludeDirectories []string       `toml:"exclude_directories" yaml:"exclude_directories" json:"exclude_directories"`
	ExcludeFiles       []string       `toml:"exclude_files" yaml:"exclude_files" json:"exclude_files"`
	Reuse              ReuseConfig    `toml:"reuse" yaml:"reuse" json:"reuse"`
}

// ReuseConfig toggles support for the REUSE LICENSES/ convention.
type ReuseConfig struct {
	Enabled         bool            `toml:"enabled" yaml:"enabled" json:"enabled"`
	Precedence      ReusePrecedence `toml:"precedence" yaml:"precedence" json:"precedence"`
	IncludeTopLevel bool            `toml:"include_top_level" yaml:"include_top_level" json:"include_top_level"`
}

// ArchiveConfig configures go-vendor-archive.
type ArchiveConfig struct {
	UseModuleProxy bool        `toml:"use_module_proxy" yaml:"use_module_proxy" json:"use_module_proxy"`
	ExtraFiles     []ExtraFile `toml:"extra_files" yaml:"extra_files" json:"extra_files"`
	PreCommands    [][]string  `toml:"pre_commands" yaml:"pre_commands" json:"pre_commands"`
	PostCommands   [][]string  `toml:"post_commands" yaml:"post_commands" json:"post_commands"`
}

// ExtraFile is downloaded into the source tree before archiving.
type ExtraFile struct {
	URL  string `toml:"url" yaml:"url" json:"url"`
	Dest string `toml:"dest" yaml:"dest" json:"dest"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Licensing: LicenseConfig{
			Reuse: ReuseConfig{
				Enabled:    true,
				Precedence: ReusePrecedenceReuse,
			},
		},
	}
}

// Validate checks the config for invalid values and returns a *ConfigError.
func (c Config) Validate() error {
	if err := c.Licensing.Validate(); err != nil {
		return err
	}
	return c.Archive.Validate()
}

// Validate checks the licensing table.
func (c LicenseConfig) Validate() error {
	// 1. reuse precedence must be known
	if c.Reuse.Precedence != "" && !slices.Contains(ValidReusePrecedences, c.Reuse.Precedence) {
		return &ConfigError{Msg: fmt.Sprintf("unknown licensing.reuse.precedence %q (valid: reuse, both, heuristic)", c.Reuse.Precedence)}
	}

	// 2. override paths must stay inside the scanned tree
	for i, entry := range c.Licenses {
		if entry.Path == "" {
			return &ConfigError{Msg: fmt.Sprintf("licensing.licenses[%d]: path is required", i)}
		}
		if err := ValidateRelativePath(entry.Path); err != nil {
			return &ConfigError{Msg: fmt.Sprintf("licensing.licenses[%d]: %v", i, err)}
		}
		if entry.SHA256Sum == "" {
			return &ConfigError{Msg: fmt.Sprintf("licensing.licenses[%d] (%s): sha256sum is required", i, entry.Path)}
		}
	}

	// 3. exclusion entries must be relative
	for _, list := range [][]string{c.ExcludeDirectories, c.ExcludeFiles, c.ExcludeGlobs} {
		for _, p := range list {
			if strings.HasPrefix(p, "/") {
				return &ConfigError{Msg: fmt.Sprintf("exclusion %q must be relative", p)}
			}
		}
	}
	return nil
}

// Validate checks the archive table.
func (c ArchiveConfig) Validate() error {
	for i, f := range c.ExtraFiles {
		if f.URL == "" || f.Dest == "" {
			return &ConfigError{Msg: fmt.Sprintf("archive.extra_files[%d]: url and dest are required", i)}
		}
		if err := ValidateRelativePath(f.Dest); err != nil {
			return &ConfigError{Msg: fmt.Sprintf("archive.extra_files[%d]: %v", i, err)}
		}
	}
	for i, cmd := range append(slices.Clone(c.PreCommands), c.PostCommands...) {
		if len(cmd) == 0 {
			return &ConfigError{Msg: fmt.Sprintf("archive command %d is empty", i)}
		}
	}
	return nil
}

// ValidateRelativePath rejects absolute paths and paths escaping their root.
func ValidateRelativePath(p string) error {
	if strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\`) {
		return fmt.Errorf("%q must be a relative path", p)
	}
	clean := path.Clean(strings.ReplaceAll(p, `\`, "/"))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("%q escapes the source directory", p)
	}
	return nil
}

// UpsertLicense replaces the entry with the same path or appends a new one.
// It reports whether the list changed.
func (c *LicenseConfig) UpsertLicense(entry LicenseEntry) bool {
	for i, existing := range c.Licenses {
		if path.Clean(existing.Path) != path.Clean(entry.Path) {
			continue
		}
		if existing == entry {
			return false
		}
		c.Licenses[i] = entry
		return true
	}
	c.Licenses = append(c.Licenses, entry)
	return true
}
