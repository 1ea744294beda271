package licensing

import (
	_ "embed"
	"strings"
	"sync"
)

var (
	//go:embed data/licenses.txt
	licenseList string
	//go:embed data/exceptions.txt
	exceptionList string
)

// identifierTable maps lower-cased identifiers to their canonical spelling.
type identifierTable map[string]string

func loadTable(raw string) identifierTable {
	t := make(identifierTable)
	for _, line := range strings.Split(raw, "\n") {
		id := strings.TrimSpace(line)
		if id == "" || strings.HasPrefix(id, "#") {
			continue
		}
		t[strings.ToLower(id)] = id
	}
	return t
}

var (
	knownLicenses   = sync.OnceValue(func() identifierTable { return loadTable(licenseList) })
	knownExceptions = sync.OnceValue(func() identifierTable { return loadTable(exceptionList) })
)

// IsKnownLicense reports whether id is on the SPDX license list.
// A trailing "+" is accepted.
func IsKnownLicense(id string) bool {
	_, ok := canonicalLicense(id)
	return ok
}

// IsKnownException reports whether id is on the SPDX exception list.
func IsKnownException(id string) bool {
	_, ok := knownExceptions()[strings.ToLower(id)]
	return ok
}

func canonicalLicense(id string) (string, bool) {
	base, plus := strings.CutSuffix(id, "+")
	canon, ok := knownLicenses()[strings.ToLower(base)]
	if !ok {
		return id, false
	}
	if plus {
		canon += "+"
	}
	return canon, true
}

func canonicalException(id string) (string, bool) {
	canon, ok := knownExceptions()[strings.ToLower(id)]
	if !ok {
		return id, false
	}
	return canon, true
}

// isUserDefined reports whether id is a LicenseRef (optionally scoped to a
// DocumentRef). These never appear on the license list but are always valid.
func isUserDefined(id string) bool {
	lower := strings.ToLower(id)
	if strings.HasPrefix(lower, "documentref-") {
		_, rest, ok := strings.Cut(lower, ":")
		if !ok {
			return false
		}
		lower = rest
	}
	return strings.HasPrefix(lower, "licenseref-") && len(lower) > len("licenseref-")
}
