package application

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
	"github.com/go-vendor-tools/go-vendor-tools/internal/domain/licensing"
)

// ModulesTxt is the vendored module manifest, relative to the source root.
const ModulesTxt = "vendor/modules.txt"

// ReportOptions controls one report run.
type ReportOptions struct {
	Directory string
	Config    domain.Config
	// ConfigPath is where the configuration is written back. Required by
	// WriteConfig and Prompter.
	ConfigPath string

	// ReadJSON loads earlier detection results instead of running the
	// detector.
	ReadJSON  string
	WriteJSON string
	// WriteConfig records the detector name in the configuration.
	WriteConfig bool
	// Prompter, when set, asks for every undetected license and stores the
	// answers as manual entries.
	Prompter domain.Prompter

	Verify         string
	VerifyAdvisory bool

	IgnoreUndetected     bool
	IgnoreUnlicensedMods bool
	IgnoreUnmatched      bool
}

// ReportService orchestrates the report pipeline:
// detect -> unlicensed modules -> prompt -> combine -> verify -> persist.
type ReportService struct {
	detector domain.Detector
	modules  domain.ModuleLister
	hasher   domain.FileHasher
	data     domain.LicenseDataStore
	configs  domain.ConfigStore
	logger   *log.Logger
}

func NewReportService(
	detector domain.Detector,
	modules domain.ModuleLister,
	hasher domain.FileHasher,
	data domain.LicenseDataStore,
	configs domain.ConfigStore,
	logger *log.Logger,
) *ReportService {
	return &ReportService{
		detector: detector,
		modules:  modules,
		hasher:   hasher,
		data:     data,
		configs:  configs,
		logger:   logger,
	}
}

// Run produces the report. Problems found in the tree are recorded in
// Report.Status rather than returned as errors.
func (s *ReportService) Run(ctx context.Context, opts ReportOptions) (*domain.Report, error) {
	writesConfig := opts.WriteConfig || opts.Prompter != nil
	if writesConfig && opts.ConfigPath == "" {
		return nil, &domain.ConfigError{Msg: "a configuration path is required to record the detector or prompted licenses"}
	}
	if !opts.IgnoreUnlicensedMods {
		if _, err := os.Stat(filepath.Join(opts.Directory, filepath.FromSlash(ModulesTxt))); err != nil {
			return nil, fmt.Errorf("%s does not exist in %s", ModulesTxt, opts.Directory)
		}
	}

	// 1. Detect, or reuse earlier results
	data, err := s.load(ctx, opts)
	if err != nil {
		return nil, err
	}

	// 2. Modules without any license file
	var unlicensed []string
	if !opts.IgnoreUnlicensedMods {
		dirs, err := s.modules.ModuleDirs(opts.Directory)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", ModulesTxt, err)
		}
		unlicensed = domain.UnlicensedModules(dirs, data.LicenseFilePaths())
	}

	// 3. Fill in undetected licenses by hand
	cfg := opts.Config
	cfg.Licensing.Licenses = slices.Clone(cfg.Licensing.Licenses)
	if opts.Prompter != nil {
		if err := s.promptUndetected(opts.Prompter, opts.Directory, data, &cfg.Licensing); err != nil {
			return nil, err
		}
	}
	if opts.WriteConfig {
		cfg.Licensing.Detector = data.Detector
	}

	// 4. Combine
	expr, err := data.LicenseExpression()
	if err != nil {
		return nil, err
	}
	rep := &domain.Report{
		Data:              data,
		Expression:        expr,
		UnlicensedModules: unlicensed,
		HideUndetected:    opts.IgnoreUndetected,
	}

	// 5. Verify
	if opts.Verify != "" {
		rep.Expected = opts.Verify
		ok, err := licensing.Compare(expr, opts.Verify)
		if err != nil {
			return nil, &domain.LicenseError{Msg: "comparing with the expected expression", Err: err}
		}
		rep.Verified = ok
	}
	rep.Status = reportStatus(rep, opts)

	// 6. Persist
	if opts.WriteJSON != "" {
		if err := s.data.Save(opts.WriteJSON, data); err != nil {
			return nil, fmt.Errorf("writing license data: %w", err)
		}
	}
	if writesConfig && !rep.Status.Has(domain.StatusVerifyFailed) {
		if err := s.configs.Save(opts.ConfigPath, cfg); err != nil {
			return nil, fmt.Errorf("writing configuration: %w", err)
		}
		s.logger.Debug("configuration written", "path", opts.ConfigPath)
	}
	return rep, nil
}

func (s *ReportService) load(ctx context.Context, opts ReportOptions) (*domain.LicenseData, error) {
	if opts.ReadJSON != "" {
		s.logger.Debug("reading license data", "path", opts.ReadJSON)
		return s.data.Load(opts.ReadJSON)
	}
	s.logger.Debug("running detector", "name", s.detector.Name(), "directory", opts.Directory)
	data, err := s.detector.Detect(ctx, opts.Directory)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// promptUndetected moves every answered file from the undetected set into
// the license map and records it as a manual entry. Ignored files leave the
// undetected set without an entry.
func (s *ReportService) promptUndetected(p domain.Prompter, dir string, data *domain.LicenseData, lc *domain.LicenseConfig) error {
	if data.LicenseMap == nil {
		data.LicenseMap = map[string]string{}
	}
	for _, rel := range data.UndetectedLicenses {
		expr, ignore, err := p.PromptLicense(rel)
		if err != nil {
			return fmt.Errorf("prompting for %s: %w", rel, err)
		}
		if ignore {
			continue
		}
		sum, err := s.hasher.HashFile(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			return err
		}
		lc.UpsertLicense(domain.LicenseEntry{Path: rel, SHA256Sum: sum, Expression: expr})
		data.LicenseMap[rel] = expr
	}
	data.UndetectedLicenses = []string{}
	return nil
}

func reportStatus(rep *domain.Report, opts ReportOptions) domain.Status {
	var st domain.Status
	if len(rep.Data.UndetectedLicenses) > 0 && !opts.IgnoreUndetected {
		st |= domain.StatusUndetected
	}
	if len(rep.UnlicensedModules) > 0 {
		st |= domain.StatusUnlicensedModules
	}
	if len(rep.Data.UnmatchedExtraLicenses) > 0 && !opts.IgnoreUnmatched {
		st |= domain.StatusStaleOverrides
	}
	if rep.Expected != "" && !rep.Verified && !opts.VerifyAdvisory {
		st |= domain.StatusVerifyFailed
	}
	return st
}
