package scanner

import (
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
	"github.com/go-vendor-tools/go-vendor-tools/internal/domain/licensing"
)

// FileType classifies a discovered file.
type FileType string

const (
	TypeLicense FileType = "license"
	TypeNotice  FileType = "notice"
	TypeReuse   FileType = "reuse"
)

// AllTypes is the default set of file types.
var AllTypes = []FileType{TypeLicense, TypeNotice, TypeReuse}

// reuseDir is the REUSE convention's per-module license directory.
const reuseDir = "LICENSES"

var (
	licensePattern = regexp.MustCompile(`^(?:` +
		`COPYING|COPYING[.\-].*|COPYRIGHT|COPYRIGHT[.\-].*|` +
		`COPYLEFT.*|EULA|EULA[.\-].*|LICEN[CS]E|Li[cs]ense|li[cs]ense\.md|` +
		`LICEN[CS]E[.\-].*|.*[.\-]LICEN[CS]E.*|` +
		`UNLICEN[CS]E|UNLICEN[CS]E[.\-].*|` +
		`agpl[.\-].*|gpl[.\-].*|lgpl[.\-].*|AGPL-.*[0-9].*|` +
		`APACHE-.*[0-9].*|BSD-.*[0-9].*|CC-BY-.*|GFDL-.*[0-9].*|` +
		`GNU-.*[0-9].*|GPL-.*[0-9].*|LGPL-.*[0-9].*|MIT.*|` +
		`MPL-.*[0-9].*|OFL-.*[0-9].*` +
		`)$`)

	// Documentation licenses and source files never describe the build.
	licenseExcludePattern = regexp.MustCompile(`^(?:` +
		`LICENSE\.docs|` +
		`.*\.(?:go|c|h|s|S|py|sh|pl|rb|js|ts|css|html|json|ya?ml|toml|proto)` +
		`)$`)

	noticePattern = regexp.MustCompile(`^(?:NOTICE|NOTICE[.\-].*|Notice|notice|PATENTS|PATENTS[.\-].*)$`)
)

// FindOptions controls a discovery walk.
type FindOptions struct {
	Config domain.LicenseConfig
	// ReuseRoots are the module directories (relative) in which a LICENSES/
	// directory is honoured.
	ReuseRoots []string
	// Absolute returns paths joined with the scanned directory.
	Absolute bool
	// Types restricts the categories computed. Nil means AllTypes.
	Types []FileType
}

// FoundFiles holds discovered paths by category. Each slice is sorted.
type FoundFiles struct {
	License []string `json:"license"`
	Notice  []string `json:"notice"`
	Reuse   []string `json:"reuse"`
}

// All returns every discovered path in order.
func (f *FoundFiles) All() []string {
	all := slices.Concat(f.License, f.Notice, f.Reuse)
	slices.Sort(all)
	return slices.Compact(all)
}

// Finder walks a source tree looking for license material.
type Finder struct{}

func New() *Finder {
	return &Finder{}
}

func (f *Finder) Find(directory string, opts FindOptions) (*FoundFiles, error) {
	absDir, err := filepath.Abs(directory)
	if err != nil {
		return nil, err
	}

	types := opts.Types
	if types == nil {
		types = AllTypes
	}
	want := func(t FileType) bool { return slices.Contains(types, t) }

	reuseRoots := activeReuseRoots(absDir, opts)
	preferReuse := opts.Config.Reuse.Precedence != domain.ReusePrecedenceBoth

	result := &FoundFiles{License: []string{}, Notice: []string{}, Reuse: []string{}}
	err = filepath.WalkDir(absDir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(absDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && (d.Name() == ".git" || dirExcluded(rel, opts.Config)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || fileExcluded(rel, opts.Config) {
			return nil
		}

		out := rel
		if opts.Absolute {
			out = p
		}

		parent := path.Dir(rel)
		name := d.Name()

		// Files directly inside a module's LICENSES/ are REUSE license texts.
		if path.Base(parent) == reuseDir && reuseRoots[path.Dir(parent)] {
			if want(TypeReuse) {
				result.Reuse = append(result.Reuse, out)
			}
			return nil
		}

		switch {
		case licensePattern.MatchString(name) && !licenseExcludePattern.MatchString(name):
			if preferReuse && reuseRoots[parent] {
				return nil
			}
			if want(TypeLicense) {
				result.License = append(result.License, out)
			}
		case noticePattern.MatchString(name):
			if want(TypeNotice) {
				result.Notice = append(result.Notice, out)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(result.License)
	slices.Sort(result.Notice)
	slices.Sort(result.Reuse)
	return result, nil
}

// activeReuseRoots returns the reuse roots that actually contain a LICENSES/
// directory. Reuse is ignored entirely when disabled or when heuristics win.
func activeReuseRoots(absDir string, opts FindOptions) map[string]bool {
	cfg := opts.Config.Reuse
	active := make(map[string]bool)
	if !cfg.Enabled || cfg.Precedence == domain.ReusePrecedenceHeuristic {
		return active
	}
	roots := slices.Clone(opts.ReuseRoots)
	if cfg.IncludeTopLevel {
		roots = append(roots, ".")
	}
	for _, root := range roots {
		root = path.Clean(filepath.ToSlash(root))
		info, err := os.Stat(filepath.Join(absDir, filepath.FromSlash(root), reuseDir))
		if err == nil && info.IsDir() {
			active[root] = true
		}
	}
	return active
}

// IsUnwanted reports whether a relative path is excluded by cfg, either by
// itself or through one of its parent directories.
func IsUnwanted(rel string, cfg domain.LicenseConfig) bool {
	rel = path.Clean(filepath.ToSlash(rel))
	if fileExcluded(rel, cfg) {
		return true
	}
	for dir := path.Dir(rel); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if dirExcluded(dir, cfg) {
			return true
		}
	}
	return false
}

// ReuseLicenseMap maps LICENSES/<ID>.<ext> files to the identifier in their
// name. Files whose name is not a valid expression are returned separately.
func ReuseLicenseMap(paths []string) (map[string]string, []string) {
	m := make(map[string]string, len(paths))
	var invalid []string
	for _, p := range paths {
		id := reuseIdentifier(path.Base(filepath.ToSlash(p)))
		expr, err := licensing.Simplify(id, licensing.ParseOptions{Validate: true})
		if err != nil || strings.ContainsAny(expr, " ") {
			invalid = append(invalid, p)
			continue
		}
		m[p] = expr
	}
	return m, invalid
}

// reuseIdentifier strips a file extension such as ".txt" but keeps version
// suffixes like the ".0" of "Apache-2.0".
func reuseIdentifier(base string) string {
	ext := path.Ext(base)
	if len(ext) < 2 {
		return base
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return base
		}
	}
	return strings.TrimSuffix(base, ext)
}

func dirExcluded(rel string, cfg domain.LicenseConfig) bool {
	return matchesAny(rel, cfg.ExcludeDirectories)
}

func fileExcluded(rel string, cfg domain.LicenseConfig) bool {
	return matchesAny(rel, cfg.ExcludeFiles) || matchesAny(rel, cfg.ExcludeGlobs)
}

func matchesAny(rel string, patterns []string) bool {
	for _, pat := range patterns {
		pat = strings.TrimSuffix(filepath.ToSlash(pat), "/")
		if pat == "" {
			continue
		}
		if path.Clean(pat) == rel {
			return true
		}
		if matched, err := doublestar.Match(pat, rel); err == nil && matched {
			return true
		}
	}
	return false
}
