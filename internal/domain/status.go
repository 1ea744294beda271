package domain

import "strings"

// Status is the set of problem categories a license report found.
type Status uint8

const (
	StatusUndetected Status = 1 << iota
	StatusUnlicensedModules
	StatusStaleOverrides
	StatusVerifyFailed
)

var statusNames = []struct {
	flag Status
	name string
}{
	{StatusUndetected, "undetected-licenses"},
	{StatusUnlicensedModules, "unlicensed-modules"},
	{StatusStaleOverrides, "stale-overrides"},
	{StatusVerifyFailed, "verify-failed"},
}

// Has reports whether every bit of f is set.
func (s Status) Has(f Status) bool { return s&f == f }

// OK reports whether no problem was found.
func (s Status) OK() bool { return s == 0 }

// ExitCode maps the status to a process exit code. 1 is reserved for
// generic errors, so each category occupies the next bit up.
func (s Status) ExitCode() int {
	return int(s) << 1
}

func (s Status) String() string {
	if s == 0 {
		return "ok"
	}
	var names []string
	for _, n := range statusNames {
		if s.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, ",")
}
