package application

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/mod/modfile"

	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
	"github.com/go-vendor-tools/go-vendor-tools/internal/domain/licensing"
)

// SBOMOptions controls SBOM collection.
type SBOMOptions struct {
	Directory string
	ReadJSON  string
	// Version of the main module. Defaults to the abbreviated HEAD commit.
	Version string
}

// SBOMResult is everything an SBOM writer needs.
type SBOMResult struct {
	MainModule string
	Version    string
	Created    time.Time
	// Modules lists the main module (Dir ".") first, then vendored modules
	// in directory order.
	Modules []domain.ModuleLicense
}

// SBOMService groups detection results by module.
type SBOMService struct {
	detector domain.Detector
	modules  domain.ModuleLister
	data     domain.LicenseDataStore
	git      domain.GitInfo
	logger   *log.Logger
}

func NewSBOMService(
	detector domain.Detector,
	modules domain.ModuleLister,
	data domain.LicenseDataStore,
	git domain.GitInfo,
	logger *log.Logger,
) *SBOMService {
	return &SBOMService{
		detector: detector,
		modules:  modules,
		data:     data,
		git:      git,
		logger:   logger,
	}
}

func (s *SBOMService) Collect(ctx context.Context, opts SBOMOptions) (*SBOMResult, error) {
	// 1. Detect
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

	// 2. Modules
	mods, err := s.modules.Modules(opts.Directory)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ModulesTxt, err)
	}
	dirs := make([]string, len(mods))
	for i, m := range mods {
		dirs[i] = m.Dir
	}
	owned := domain.GroupByModule(dirs, data.LicenseFilePaths())

	res := &SBOMResult{
		MainModule: mainModulePath(opts.Directory),
		Version:    opts.Version,
		Created:    SourceDate(opts.Directory, s.git),
	}
	if res.Version == "" && s.git.IsGitRepo(opts.Directory) {
		if hash, err := s.git.CommitHash(opts.Directory); err == nil && len(hash) >= 12 {
			res.Version = hash[:12]
		}
	}

	// 3. One entry per module
	main := domain.Module{Path: res.MainModule, Version: res.Version, Dir: "."}
	for _, m := range append([]domain.Module{main}, mods...) {
		files := owned[m.Dir]
		slices.Sort(files)
		expr, err := expressionFor(data, files)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", m.Path, err)
		}
		res.Modules = append(res.Modules, domain.ModuleLicense{
			Path:         m.Path,
			Version:      m.Version,
			Dir:          m.Dir,
			Expression:   expr,
			LicenseFiles: files,
		})
	}
	s.logger.Debug("collected module licenses", "modules", len(res.Modules))
	return res, nil
}

func expressionFor(data *domain.LicenseData, files []string) (string, error) {
	var exprs []string
	for _, f := range files {
		if e := data.LicenseMap[f]; e != "" {
			exprs = append(exprs, e)
		}
	}
	return licensing.Combine(licensing.CombineOptions{ParseOptions: licensing.Lenient}, exprs...)
}

// mainModulePath reads the module path from go.mod, falling back to the
// directory name.
func mainModulePath(dir string) string {
	content, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err == nil {
		if p := modfile.ModulePath(content); p != "" {
			return p
		}
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Base(dir)
	}
	return filepath.Base(abs)
}

// SourceDate is the timestamp stamped into generated artifacts:
// SOURCE_DATE_EPOCH when set, else the HEAD commit time, else now.
func SourceDate(dir string, git domain.GitInfo) time.Time {
	if v := os.Getenv("SOURCE_DATE_EPOCH"); v != "" {
		if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Unix(secs, 0).UTC()
		}
	}
	if git != nil && git.IsGitRepo(dir) {
		if t, err := git.CommitTime(dir); err == nil {
			return t
		}
	}
	return time.Now().UTC().Truncate(time.Second)
}
