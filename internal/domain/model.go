package domain

import (
	"bytes"
	"encoding/json"
	"slices"
	"sort"

	"github.com/go-vendor-tools/go-vendor-tools/internal/domain/licensing"
)

// LicenseEntry is a manual license override. The hash pins the override to
// one exact revision of the file; an empty Expression marks the file as
// carrying no license.
type LicenseEntry struct {
	Path       string `json:"path" toml:"path" yaml:"path"`
	SHA256Sum  string `json:"sha256sum" toml:"sha256sum" yaml:"sha256sum"`
	Expression string `json:"expression" toml:"expression" yaml:"expression"`
}

// LicenseData is the result of running a detector over a directory.
// All paths are slash-separated and relative to Directory.
type LicenseData struct {
	Directory              string            `json:"directory"`
	Detector               string            `json:"detector"`
	LicenseMap             map[string]string `json:"license_map"`
	UndetectedLicenses     []string          `json:"undetected_licenses"`
	UnmatchedExtraLicenses []string          `json:"unmatched_extra_licenses"`
	ExtraLicenseFiles      []string          `json:"extra_license_files"`
	DetectorData           json.RawMessage   `json:"detector_data,omitempty"`
}

// UnmarshalJSON decodes d and compacts DetectorData, so data written with
// an indenting encoder reads back byte-for-byte equal.
func (d *LicenseData) UnmarshalJSON(b []byte) error {
	type plain LicenseData
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	if len(p.DetectorData) > 0 {
		var buf bytes.Buffer
		if err := json.Compact(&buf, p.DetectorData); err != nil {
			return err
		}
		p.DetectorData = buf.Bytes()
	}
	*d = LicenseData(p)
	return nil
}

// Normalize sorts the path sets and replaces nil collections with empty ones
// so that serialized output is stable.
func (d *LicenseData) Normalize() {
	if d.LicenseMap == nil {
		d.LicenseMap = map[string]string{}
	}
	d.UndetectedLicenses = sortedUnique(d.UndetectedLicenses)
	d.ExtraLicenseFiles = sortedUnique(d.ExtraLicenseFiles)
	if d.UnmatchedExtraLicenses == nil {
		d.UnmatchedExtraLicenses = []string{}
	}
}

// LicensePaths returns the license_map keys in order.
func (d *LicenseData) LicensePaths() []string {
	paths := make([]string, 0, len(d.LicenseMap))
	for p := range d.LicenseMap {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// LicenseSet returns the distinct non-empty expressions in the license map.
func (d *LicenseData) LicenseSet() []string {
	var set []string
	for _, expr := range d.LicenseMap {
		if expr != "" {
			set = append(set, expr)
		}
	}
	return sortedUnique(set)
}

// LicenseExpression combines every detected expression into one. It returns
// "" when nothing was detected.
func (d *LicenseData) LicenseExpression() (string, error) {
	expr, err := licensing.Combine(
		licensing.CombineOptions{ParseOptions: licensing.ParseOptions{Validate: true}},
		d.LicenseSet()...,
	)
	if err != nil {
		return "", &LicenseError{Msg: "combining detected licenses", Err: err}
	}
	return expr, nil
}

// LicenseFilePaths returns every file that should ship as license material:
// detected, undetected and notice files.
func (d *LicenseData) LicenseFilePaths() []string {
	all := d.LicensePaths()
	all = append(all, d.UndetectedLicenses...)
	all = append(all, d.ExtraLicenseFiles...)
	return sortedUnique(all)
}

// IsUndetected reports whether path is in the undetected set.
func (d *LicenseData) IsUndetected(path string) bool {
	return slices.Contains(d.UndetectedLicenses, path)
}

func sortedUnique(in []string) []string {
	out := slices.Clone(in)
	if out == nil {
		out = []string{}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// ModuleLicense is the license summary of one vendored module, or of the
// main module when Dir is ".".
type ModuleLicense struct {
	Path         string   `json:"path"`
	Version      string   `json:"version,omitempty"`
	Dir          string   `json:"dir"`
	Expression   string   `json:"expression"`
	LicenseFiles []string `json:"license_files"`
}
