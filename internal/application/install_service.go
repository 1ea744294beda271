package application

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
)

// InstallOptions controls where license files are installed.
type InstallOptions struct {
	Directory string
	ReadJSON  string
	// DestDir is the staging root, e.g. %{buildroot}.
	DestDir string
	// InstallDir is the absolute license directory inside DestDir.
	InstallDir string
	// FileList receives the %license manifest.
	FileList string
}

// InstallService copies license material into a package's license
// directory and writes an RPM file list for it.
type InstallService struct {
	detector domain.Detector
	data     domain.LicenseDataStore
	logger   *log.Logger
}

func NewInstallService(detector domain.Detector, data domain.LicenseDataStore, logger *log.Logger) *InstallService {
	return &InstallService{detector: detector, data: data, logger: logger}
}

// Install returns the installed paths relative to InstallDir.
func (s *InstallService) Install(ctx context.Context, opts InstallOptions) ([]string, error) {
	if !path.IsAbs(filepath.ToSlash(opts.InstallDir)) {
		return nil, fmt.Errorf("install directory %q must be absolute", opts.InstallDir)
	}

	// 1. Collect license files
	var data *domain.LicenseData
	var err error
	if opts.ReadJSON != "" {
		data, err = s.data.Load(opts.ReadJSON)
	} else {
		data, err = s.detector.Detect(ctx, opts.Directory)
	}
	if err != nil {
		return nil, err
	}
	files := data.LicenseFilePaths()

	// 2. Copy them below the staging root
	target := filepath.Join(opts.DestDir, filepath.FromSlash(strings.TrimPrefix(filepath.ToSlash(opts.InstallDir), "/")))
	if err := os.MkdirAll(target, 0o755); err != nil {
		return nil, err
	}
	var list strings.Builder
	fmt.Fprintf(&list, "%%license %%dir %s\n", opts.InstallDir)
	for _, rel := range files {
		src := filepath.Join(opts.Directory, filepath.FromSlash(rel))
		dst := filepath.Join(target, filepath.FromSlash(rel))
		if err := copyFile(src, dst); err != nil {
			return nil, fmt.Errorf("installing %s: %w", rel, err)
		}
		fmt.Fprintf(&list, "%%license %s\n", path.Join(filepath.ToSlash(opts.InstallDir), rel))
	}
	s.logger.Debug("installed license files", "count", len(files), "dir", target)

	// 3. Write the file list
	if err := os.WriteFile(opts.FileList, []byte(list.String()), 0o644); err != nil {
		return nil, fmt.Errorf("writing file list: %w", err)
	}
	return files, nil
}

// copyFile copies src to dst with its permission bits and modification
// time.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
