// Package detector implements domain.Detector on top of external license
// scanners (askalono, trivy, scancode) and a built-in content matcher.
package detector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/gomod"
	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/overrides"
	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/runner"
	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/scanner"
	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
)

// DefaultTimeout bounds one detector run unless the "timeout" option is set.
const DefaultTimeout = 10 * time.Minute

type options struct {
	runner      domain.CommandRunner
	modules     domain.ModuleLister
	logger      *log.Logger
	timeout     time.Duration
	concurrency int
}

// Option configures a detector.
type Option func(*options)

// WithRunner replaces the process runner.
func WithRunner(r domain.CommandRunner) Option {
	return func(o *options) { o.runner = r }
}

// WithModuleLister replaces the vendor/modules.txt reader used to find
// REUSE roots.
func WithModuleLister(m domain.ModuleLister) Option {
	return func(o *options) { o.modules = m }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithConcurrency bounds per-file parallelism.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

func newOptions(detectorConfig map[string]string, opts []Option) (options, error) {
	o := options{
		timeout:     DefaultTimeout,
		concurrency: runtime.GOMAXPROCS(0),
		modules:     gomod.New(),
	}
	if raw, ok := detectorConfig["timeout"]; ok && raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return o, &domain.ConfigError{Source: "detector option timeout", Msg: fmt.Sprintf("invalid duration %q", raw)}
		}
		o.timeout = d
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.runner == nil {
		o.runner = runner.New(runner.WithLogger(o.logger))
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard)
	}
	return o, nil
}

// base holds what every backend shares: identity, configuration and the
// discovery/merge pipeline.
type base struct {
	name     string
	packages []string
	cfg      domain.LicenseConfig
	opts     options
	finder   *scanner.Finder
}

func newBase(name string, packages []string, cfg domain.LicenseConfig, o options) base {
	return base{name: name, packages: packages, cfg: cfg, opts: o, finder: scanner.New()}
}

func (b *base) Name() string { return b.name }

func (b *base) PackagesNeeded() []string { return append([]string(nil), b.packages...) }

// FindLicenseFiles lists every license, notice and REUSE file.
func (b *base) FindLicenseFiles(_ context.Context, directory string) ([]string, error) {
	found, err := b.discover(directory)
	if err != nil {
		return nil, err
	}
	return found.All(), nil
}

// locateBinary resolves the backend executable. An explicit <name>_path
// option must exist; otherwise the binary is looked up on PATH.
func locateBinary(name, binary string, detectorConfig map[string]string, r domain.CommandRunner) (string, error) {
	if p := detectorConfig[name+"_path"]; p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", &domain.DetectorNotAvailableError{Detector: name, Reason: fmt.Sprintf("%q does not exist", p)}
		}
		return p, nil
	}
	p, err := r.LookPath(binary)
	if err != nil {
		return "", &domain.DetectorNotAvailableError{Detector: name, Reason: fmt.Sprintf("failed to find %s binary", binary)}
	}
	return p, nil
}

func (b *base) discover(directory string, types ...scanner.FileType) (*scanner.FoundFiles, error) {
	roots, err := b.opts.modules.ModuleDirs(directory)
	if err != nil {
		return nil, fmt.Errorf("reading module list: %w", err)
	}
	found, err := b.finder.Find(directory, scanner.FindOptions{
		Config:     b.cfg,
		ReuseRoots: roots,
		Types:      types,
	})
	if err != nil {
		return nil, fmt.Errorf("finding license files: %w", err)
	}
	return found, nil
}

// withTimeout applies the configured run timeout.
func (b *base) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.opts.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.opts.timeout)
}

// fail wraps a whole-run failure.
func (b *base) fail(err error) error {
	var notAvail *domain.DetectorNotAvailableError
	var cfgErr *domain.ConfigError
	if errors.As(err, &notAvail) || errors.As(err, &cfgErr) {
		return err
	}
	return &domain.DetectorError{Detector: b.name, Err: err}
}

// assemble merges backend results with REUSE files and manual overrides
// into LicenseData:
//
//  1. start from the backend's map
//  2. add REUSE LICENSES/ files
//  3. apply hash-verified overrides, which win over everything
//  4. drop excluded paths
//  5. remove mapped paths from the undetected set
func (b *base) assemble(
	ctx context.Context,
	directory string,
	detected map[string]string,
	undetected []string,
	found *scanner.FoundFiles,
	raw any,
) (*domain.LicenseData, error) {
	manual, err := overrides.Resolve(ctx, b.cfg.Licenses, directory)
	if err != nil {
		return nil, err
	}

	licenseMap := make(map[string]string, len(detected))
	for p, expr := range detected {
		licenseMap[p] = expr
	}

	reuseMap, invalidReuse := scanner.ReuseLicenseMap(found.Reuse)
	for p, expr := range reuseMap {
		licenseMap[p] = expr
	}
	undetected = append(undetected, invalidReuse...)

	for p, expr := range manual.Matched {
		licenseMap[p] = expr
	}

	for p := range licenseMap {
		if scanner.IsUnwanted(p, b.cfg) {
			delete(licenseMap, p)
		}
	}

	var remaining []string
	for _, p := range undetected {
		if _, ok := licenseMap[p]; ok {
			continue
		}
		if _, ok := manual.Matched[p]; ok {
			continue
		}
		if scanner.IsUnwanted(p, b.cfg) {
			continue
		}
		remaining = append(remaining, p)
	}

	var extra []string
	for _, p := range found.Notice {
		if !scanner.IsUnwanted(p, b.cfg) {
			extra = append(extra, p)
		}
	}

	data := &domain.LicenseData{
		Directory:              directory,
		Detector:               b.name,
		LicenseMap:             licenseMap,
		UndetectedLicenses:     remaining,
		UnmatchedExtraLicenses: manual.Unmatched,
		ExtraLicenseFiles:      extra,
	}
	if raw != nil {
		if data.DetectorData, err = json.Marshal(raw); err != nil {
			return nil, fmt.Errorf("encoding %s results: %w", b.name, err)
		}
	}
	data.Normalize()

	b.opts.logger.Debug("detection finished",
		"detector", b.name,
		"licenses", len(data.LicenseMap),
		"undetected", len(data.UndetectedLicenses),
		"stale_overrides", len(data.UnmatchedExtraLicenses),
	)
	return data, nil
}
