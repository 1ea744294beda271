package domain

import (
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// Module is one vendored module.
type Module struct {
	Path    string `json:"path"`
	Version string `json:"version,omitempty"`
	// Dir is the vendor directory relative to the source root.
	Dir string `json:"dir"`
}

// UnlicensedModules returns the module directories, plus the top-level
// directory ".", that own none of licensePaths. A license path belongs to
// the deepest module directory containing it, so a nested module never
// licenses its parent.
func UnlicensedModules(moduleDirs, licensePaths []string) []string {
	owned := GroupByModule(moduleDirs, licensePaths)
	var missing []string
	for _, dir := range append([]string{"."}, moduleDirs...) {
		if len(owned[dir]) == 0 {
			missing = append(missing, dir)
		}
	}
	slices.Sort(missing)
	return slices.Compact(missing)
}

// GroupByModule assigns every license path to the deepest module directory
// containing it. Paths outside every module belong to ".".
func GroupByModule(moduleDirs, licensePaths []string) map[string][]string {
	all := append([]string{"."}, moduleDirs...)
	owned := make(map[string][]string, len(all))
	for _, p := range licensePaths {
		p = path.Clean(filepath.ToSlash(p))
		owner := owningModule(p, all)
		owned[owner] = append(owned[owner], p)
	}
	return owned
}

func owningModule(p string, dirs []string) string {
	best := ""
	for _, dir := range dirs {
		if dir != "." && !strings.HasPrefix(p, dir+"/") {
			continue
		}
		if len(dir) > len(best) {
			best = dir
		}
	}
	return best
}
