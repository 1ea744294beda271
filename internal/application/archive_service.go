package application

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
)

// ArchiveFiles are the paths shipped in a vendor archive, in order.
var ArchiveFiles = []string{"go.mod", "go.sum", "vendor"}

// ModuleProxyEnv enables the public Go module proxy and checksum database.
var ModuleProxyEnv = []string{
	"GOPROXY=https://proxy.golang.org,direct",
	"GOSUMDB=sum.golang.org",
}

// ArchiveOptions controls one go-vendor-archive run.
type ArchiveOptions struct {
	// Path is a source directory or an archive of one.
	Path   string
	Output string
	// TopLevelDir nests every entry under the source directory's name.
	TopLevelDir    bool
	UseModuleProxy bool
	Config         domain.ArchiveConfig
	// Stdout receives progress lines and command output; Stderr receives
	// command diagnostics.
	Stdout io.Writer
	Stderr io.Writer
}

// ArchiveService vendors a module and writes its vendor archive:
// unpack -> extra files -> pre commands -> tidy/vendor -> post commands -> archive.
type ArchiveService struct {
	runner     domain.CommandRunner
	archiver   domain.Archiver
	downloader domain.Downloader
	git        domain.GitInfo
	logger     *log.Logger
}

func NewArchiveService(
	runner domain.CommandRunner,
	archiver domain.Archiver,
	downloader domain.Downloader,
	git domain.GitInfo,
	logger *log.Logger,
) *ArchiveService {
	return &ArchiveService{
		runner:     runner,
		archiver:   archiver,
		downloader: downloader,
		git:        git,
		logger:     logger,
	}
}

func (s *ArchiveService) Create(ctx context.Context, opts ArchiveOptions) error {
	out := opts.Stdout
	if out == nil {
		out = io.Discard
	}
	output, err := filepath.Abs(opts.Output)
	if err != nil {
		return err
	}

	// 1. Unpack archived sources
	info, err := os.Stat(opts.Path)
	if err != nil {
		return &domain.ArchiveError{Op: "reading source", Err: err}
	}
	cwd := opts.Path
	if !info.IsDir() {
		fmt.Fprintf(out, "* Treating %s as an archive. Unpacking...\n", opts.Path)
		tmp, err := os.MkdirTemp("", "go-vendor-archive-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(tmp)
		if cwd, err = s.unpack(opts.Path, tmp); err != nil {
			return err
		}
	}

	// 2. Extra files
	for _, f := range opts.Config.ExtraFiles {
		fmt.Fprintf(out, "* Downloading %s to %s\n", f.URL, f.Dest)
		if err := s.downloader.Download(ctx, f.URL, filepath.Join(cwd, filepath.FromSlash(f.Dest))); err != nil {
			return &domain.ArchiveError{Op: "downloading extra file", Err: err}
		}
	}

	// 3. Vendor
	var env []string
	if opts.UseModuleProxy {
		env = ModuleProxyEnv
	}
	commands := append([][]string{}, opts.Config.PreCommands...)
	commands = append(commands, []string{"go", "mod", "tidy"}, []string{"go", "mod", "vendor"})
	commands = append(commands, opts.Config.PostCommands...)
	for _, argv := range commands {
		cmd := domain.Command{
			Name:   argv[0],
			Args:   argv[1:],
			Dir:    cwd,
			Env:    env,
			Stdout: out,
			Stderr: opts.Stderr,
		}
		fmt.Fprintf(out, "$ %s\n", cmd)
		if _, err := s.runner.Run(ctx, cmd); err != nil {
			return &domain.ArchiveError{Op: "running " + argv[0], Err: err}
		}
	}

	// 4. Archive
	fmt.Fprintln(out, "Creating archive...")
	paths, err := archivePaths(cwd)
	if err != nil {
		return err
	}
	prefix := ""
	if opts.TopLevelDir {
		abs, err := filepath.Abs(cwd)
		if err != nil {
			return err
		}
		prefix = filepath.Base(abs)
	}
	mtime := SourceDate(cwd, s.git)
	s.logger.Debug("writing archive", "output", output, "files", paths, "mtime", mtime)
	if err := s.archiver.Create(output, cwd, paths, prefix, mtime); err != nil {
		return &domain.ArchiveError{Op: "writing " + filepath.Base(output), Err: err}
	}
	return nil
}

// unpack extracts src into dest and returns its first top-level entry,
// which is where source archives keep the tree.
func (s *ArchiveService) unpack(src, dest string) (string, error) {
	if err := s.archiver.Extract(src, dest); err != nil {
		return "", &domain.ArchiveError{Op: "unpacking " + filepath.Base(src), Err: err}
	}
	entries, err := os.ReadDir(dest)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", &domain.ArchiveError{Op: "unpacking " + filepath.Base(src), Err: fmt.Errorf("archive is empty")}
	}
	return filepath.Join(dest, entries[0].Name()), nil
}

// archivePaths returns the ArchiveFiles present in dir. go.mod is
// required; a module without dependencies has no go.sum or vendor.
func archivePaths(dir string) ([]string, error) {
	var paths []string
	for _, p := range ArchiveFiles {
		_, err := os.Lstat(filepath.Join(dir, p))
		switch {
		case err == nil:
			paths = append(paths, p)
		case p == "go.mod":
			return nil, &domain.ArchiveError{Op: "collecting files", Err: err}
		}
	}
	return paths, nil
}
