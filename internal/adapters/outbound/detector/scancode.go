package detector

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
	"github.com/go-vendor-tools/go-vendor-tools/internal/domain/licensing"
)

// ScancodeName identifies the scancode detector.
const ScancodeName = "scancode"

type scancodeFile struct {
	Path                          string            `json:"path"`
	Type                          string            `json:"type"`
	DetectedLicenseExpression     string            `json:"detected_license_expression"`
	DetectedLicenseExpressionSPDX string            `json:"detected_license_expression_spdx"`
	LicenseDetections             []json.RawMessage `json:"license_detections"`
	PercentageOfLicenseText       float64           `json:"percentage_of_license_text"`
}

type scancodeReport struct {
	Files []scancodeFile `json:"files"`
}

// Scancode runs scancode-toolkit once per license file. Its SPDX
// expressions are not always simplified, so they are normalised on the way
// in.
type Scancode struct {
	base
	path string
}

func NewScancode(detectorConfig map[string]string, cfg domain.LicenseConfig, opts ...Option) (*Scancode, error) {
	o, err := newOptions(detectorConfig, opts)
	if err != nil {
		return nil, err
	}
	p, err := locateBinary(ScancodeName, "scancode", detectorConfig, o.runner)
	if err != nil {
		return nil, err
	}
	return &Scancode{base: newBase(ScancodeName, []string{"scancode-toolkit"}, cfg, o), path: p}, nil
}

func (d *Scancode) Detect(ctx context.Context, directory string) (*domain.LicenseData, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	found, err := d.discover(directory)
	if err != nil {
		return nil, d.fail(err)
	}

	files := make([]*scancodeFile, len(found.License))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.concurrency)
	for i, rel := range found.License {
		g.Go(func() error {
			f, err := d.scanFile(gctx, directory, rel)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				d.opts.logger.Warn("scancode failed", "path", rel, "err", err)
				return nil
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, d.fail(err)
	}

	detected := make(map[string]string)
	var undetected []string
	var raw []scancodeFile
	for i, rel := range found.License {
		f := files[i]
		if f == nil {
			undetected = append(undetected, rel)
			continue
		}
		raw = append(raw, *f)
		expr, err := licensing.Combine(licensing.CombineOptions{ParseOptions: licensing.Strict, RecursiveSimplify: true}, f.DetectedLicenseExpressionSPDX)
		if err != nil || expr == "" {
			undetected = append(undetected, rel)
			continue
		}
		detected[rel] = expr
	}
	return d.assemble(ctx, directory, detected, undetected, found, raw)
}

func (d *Scancode) scanFile(ctx context.Context, directory, rel string) (*scancodeFile, error) {
	out, err := d.opts.runner.Run(ctx, domain.Command{
		Name: d.path,
		Args: []string{"--license", "--quiet", "--json", "-", rel},
		Dir:  directory,
	})
	if err != nil {
		return nil, err
	}
	var report scancodeReport
	if err := json.Unmarshal(out, &report); err != nil {
		return nil, fmt.Errorf("decoding scancode output: %w", err)
	}
	for i := range report.Files {
		if report.Files[i].Type == "file" {
			f := report.Files[i]
			f.Path = rel
			return &f, nil
		}
	}
	return nil, fmt.Errorf("scancode reported no file entry for %s", rel)
}
