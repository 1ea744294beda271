package detector

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/scanner"
	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
	"github.com/go-vendor-tools/go-vendor-tools/internal/domain/licensing"
)

// TrivyName identifies the trivy detector.
const TrivyName = "trivy"

type trivyLicense struct {
	Severity   string  `json:"Severity"`
	Category   string  `json:"Category"`
	PkgName    string  `json:"PkgName"`
	FilePath   string  `json:"FilePath"`
	Name       string  `json:"Name"`
	Confidence float64 `json:"Confidence"`
	Link       string  `json:"Link"`
}

type trivyResult struct {
	Target   string         `json:"Target"`
	Class    string         `json:"Class"`
	Licenses []trivyLicense `json:"Licenses"`
}

type trivyReport struct {
	Results []trivyResult `json:"Results"`
}

// Trivy wraps `trivy fs --scanners license`. Trivy walks the tree itself, so
// local discovery is only used for notice and REUSE files.
type Trivy struct {
	base
	path string
}

func NewTrivy(detectorConfig map[string]string, cfg domain.LicenseConfig, opts ...Option) (*Trivy, error) {
	o, err := newOptions(detectorConfig, opts)
	if err != nil {
		return nil, err
	}
	p, err := locateBinary(TrivyName, "trivy", detectorConfig, o.runner)
	if err != nil {
		return nil, err
	}
	return &Trivy{base: newBase(TrivyName, []string{"trivy"}, cfg, o), path: p}, nil
}

func (d *Trivy) scan(ctx context.Context, directory string) (*trivyResult, error) {
	out, err := d.opts.runner.Run(ctx, domain.Command{
		Name: d.path,
		Args: []string{"fs", "--scanners", "license", "--license-full", "-f", "json", directory},
	})
	if err != nil {
		return nil, err
	}
	var report trivyReport
	if err := json.Unmarshal(out, &report); err != nil {
		return nil, fmt.Errorf("decoding trivy output: %w", err)
	}
	for _, r := range report.Results {
		if r.Class == "license-file" {
			return &r, nil
		}
	}
	return &trivyResult{Class: "license-file"}, nil
}

// licenseMap groups trivy matches by file. Names that are not valid SPDX
// expressions make the file undetected.
func (d *Trivy) licenseMap(directory string, res *trivyResult) (map[string]string, []string) {
	grouped := make(map[string][]string)
	invalid := make(map[string]bool)
	for _, l := range res.Licenses {
		rel := relativeTo(directory, l.FilePath)
		if !licensing.Validate(l.Name) {
			invalid[rel] = true
			continue
		}
		grouped[rel] = append(grouped[rel], l.Name)
	}

	detected := make(map[string]string, len(grouped))
	var undetected []string
	for rel, names := range grouped {
		if invalid[rel] {
			continue
		}
		expr, err := licensing.Combine(licensing.CombineOptions{}, names...)
		if err != nil {
			invalid[rel] = true
			continue
		}
		detected[rel] = expr
	}
	for rel := range invalid {
		undetected = append(undetected, rel)
	}
	slices.Sort(undetected)
	return detected, undetected
}

func (d *Trivy) Detect(ctx context.Context, directory string) (*domain.LicenseData, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	res, err := d.scan(ctx, directory)
	if err != nil {
		return nil, d.fail(err)
	}
	detected, undetected := d.licenseMap(directory, res)

	found, err := d.discover(directory, scanner.TypeNotice, scanner.TypeReuse)
	if err != nil {
		return nil, d.fail(err)
	}
	return d.assemble(ctx, directory, detected, undetected, found, res)
}

// FindLicenseFiles reports every file trivy matched plus notice, REUSE and
// manually configured files.
func (d *Trivy) FindLicenseFiles(ctx context.Context, directory string) ([]string, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	res, err := d.scan(ctx, directory)
	if err != nil {
		return nil, d.fail(err)
	}
	detected, undetected := d.licenseMap(directory, res)
	found, err := d.discover(directory, scanner.TypeNotice, scanner.TypeReuse)
	if err != nil {
		return nil, d.fail(err)
	}

	files := append(found.All(), undetected...)
	for rel := range detected {
		files = append(files, rel)
	}
	for _, e := range d.cfg.Licenses {
		files = append(files, e.Path)
	}
	files = slices.DeleteFunc(files, func(p string) bool { return scanner.IsUnwanted(p, d.cfg) })
	slices.Sort(files)
	return slices.Compact(files), nil
}
