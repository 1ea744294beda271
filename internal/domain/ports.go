package domain

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"
)

// Detector determines the license of every license file in a directory.
type Detector interface {
	Name() string
	// PackagesNeeded lists the distribution packages that provide the backend.
	PackagesNeeded() []string
	Detect(ctx context.Context, directory string) (*LicenseData, error)
	// FindLicenseFiles lists license and notice files without detecting them.
	FindLicenseFiles(ctx context.Context, directory string) ([]string, error)
}

// ModuleLister lists the vendored modules of a source tree.
type ModuleLister interface {
	Modules(directory string) ([]Module, error)
	ModuleDirs(directory string) ([]string, error)
}

// ConfigStore loads and saves the configuration document.
type ConfigStore interface {
	Load(path string) (Config, error)
	Save(path string, cfg Config) error
}

// LicenseDataStore persists detection results as JSON.
type LicenseDataStore interface {
	Load(path string) (*LicenseData, error)
	Save(path string, data *LicenseData) error
}

// FileHasher computes the digest that pins a manual license entry to one
// revision of a file.
type FileHasher interface {
	HashFile(path string) (string, error)
}

// Prompter asks the user for the license of a file that was not detected.
// An empty expression means the file has no license; ignore skips the file.
type Prompter interface {
	PromptLicense(path string) (expression string, ignore bool, err error)
}

// GitInfo reads repository metadata.
type GitInfo interface {
	IsGitRepo(dir string) bool
	CommitHash(dir string) (string, error)
	CommitTime(dir string) (time.Time, error)
}

// Command describes one external process invocation.
type Command struct {
	Name  string
	Args  []string
	Dir   string
	Env   []string
	Stdin string
	// Stdout and Stderr stream output when set; otherwise stdout is captured
	// and returned by CommandRunner.Run.
	Stdout io.Writer
	Stderr io.Writer
}

// String renders the command line for logs.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	for _, a := range append([]string{c.Name}, c.Args...) {
		if a == "" || strings.ContainsAny(a, " \t\n'\"$;&|") {
			a = strconv.Quote(a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// CommandRunner runs external processes.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) ([]byte, error)
	LookPath(name string) (string, error)
}

// Archiver writes reproducible source archives and unpacks input ones.
type Archiver interface {
	// Create archives paths relative to root into out. Every entry is
	// placed under prefix when it is not empty and stamped with mtime.
	Create(out, root string, paths []string, prefix string, mtime time.Time) error
	Extract(src, dest string) error
}

// Downloader fetches a URL into a local file.
type Downloader interface {
	Download(ctx context.Context, url, dest string) error
}
