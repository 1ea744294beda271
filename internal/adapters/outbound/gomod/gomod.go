// Package gomod reads vendor/modules.txt.
package gomod

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"

	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
)

// ModulesTxt is the manifest path relative to the source root.
const ModulesTxt = "vendor/modules.txt"

// moduleLine matches "# path version" with an optional "=> replacement".
// The vendor directory is always named after the left-hand path.
var moduleLine = regexp.MustCompile(`^# (\S+)(?: (v\S+))?(?: => .+)?$`)

// Reader implements domain.ModuleLister.
type Reader struct{}

func New() *Reader {
	return &Reader{}
}

// Modules parses the manifest under directory. A missing manifest yields no
// modules. Modules without a vendor directory are skipped.
func (r *Reader) Modules(directory string) ([]domain.Module, error) {
	f, err := os.Open(filepath.Join(directory, filepath.FromSlash(ModulesTxt)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var mods []domain.Module
	seen := make(map[string]bool)
	sc := bufio.NewScanner(f)
	for lineNo := 1; sc.Scan(); lineNo++ {
		m := moduleLine.FindStringSubmatch(strings.TrimRight(sc.Text(), "\r"))
		if m == nil {
			continue
		}
		ipath, version := m[1], m[2]
		if err := module.CheckImportPath(ipath); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", ModulesTxt, lineNo, err)
		}
		if version != "" && !semver.IsValid(version) {
			return nil, fmt.Errorf("%s:%d: invalid version %q for %s", ModulesTxt, lineNo, version, ipath)
		}
		if seen[ipath] {
			continue
		}
		seen[ipath] = true

		dir := path.Join("vendor", ipath)
		if info, err := os.Stat(filepath.Join(directory, filepath.FromSlash(dir))); err != nil || !info.IsDir() {
			continue
		}
		mods = append(mods, domain.Module{Path: ipath, Version: version, Dir: dir})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	slices.SortFunc(mods, func(a, b domain.Module) int { return strings.Compare(a.Dir, b.Dir) })
	return mods, nil
}

// ModuleDirs returns the relative vendor directory of every module.
func (r *Reader) ModuleDirs(directory string) ([]string, error) {
	mods, err := r.Modules(directory)
	if err != nil {
		return nil, err
	}
	dirs := make([]string, len(mods))
	for i, m := range mods {
		dirs[i] = m.Dir
	}
	return dirs, nil
}

// HasManifest reports whether directory has a vendor/modules.txt.
func HasManifest(directory string) bool {
	info, err := os.Stat(filepath.Join(directory, filepath.FromSlash(ModulesTxt)))
	return err == nil && info.Mode().IsRegular()
}
