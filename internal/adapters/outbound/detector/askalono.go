package detector

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
	"github.com/go-vendor-tools/go-vendor-tools/internal/domain/licensing"
)

// AskalonoName identifies the askalono detector.
const AskalonoName = "askalono"

type askalonoLicense struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Aliases []string `json:"aliases"`
}

type askalonoContaining struct {
	Score     float64         `json:"score"`
	License   askalonoLicense `json:"license"`
	LineRange []int           `json:"line_range"`
}

type askalonoResult struct {
	Score      float64              `json:"score"`
	License    *askalonoLicense     `json:"license"`
	Containing []askalonoContaining `json:"containing"`
}

// askalonoRecord is one line of `askalono --format json identify --batch`.
type askalonoRecord struct {
	Path   string          `json:"path"`
	Result *askalonoResult `json:"result,omitempty"`
	Error  *string         `json:"error,omitempty"`
}

// licenseName returns the expression askalono found. Containing matches are
// combined; a combination of unknown identifiers yields "".
func (r askalonoRecord) licenseName() string {
	if r.Result == nil {
		return ""
	}
	if len(r.Result.Containing) > 0 {
		names := make([]string, 0, len(r.Result.Containing))
		for _, c := range r.Result.Containing {
			names = append(names, c.License.Name)
		}
		expr, err := licensing.Combine(licensing.CombineOptions{ParseOptions: licensing.Strict}, names...)
		if err != nil {
			return ""
		}
		return expr
	}
	if r.Result.License != nil {
		return r.Result.License.Name
	}
	return ""
}

// Askalono wraps the askalono CLI.
type Askalono struct {
	base
	path string
}

func NewAskalono(detectorConfig map[string]string, cfg domain.LicenseConfig, opts ...Option) (*Askalono, error) {
	o, err := newOptions(detectorConfig, opts)
	if err != nil {
		return nil, err
	}
	p, err := locateBinary(AskalonoName, "askalono", detectorConfig, o.runner)
	if err != nil {
		return nil, err
	}
	return &Askalono{base: newBase(AskalonoName, []string{"askalono-cli"}, cfg, o), path: p}, nil
}

func (d *Askalono) Detect(ctx context.Context, directory string) (*domain.LicenseData, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	found, err := d.discover(directory)
	if err != nil {
		return nil, d.fail(err)
	}

	var records []askalonoRecord
	if len(found.License) > 0 {
		out, err := d.opts.runner.Run(ctx, domain.Command{
			Name:  d.path,
			Args:  []string{"--format", "json", "identify", "--batch"},
			Dir:   directory,
			Stdin: strings.Join(found.License, "\n") + "\n",
		})
		if err != nil {
			return nil, d.fail(err)
		}
		if records, err = parseAskalono(out); err != nil {
			return nil, d.fail(err)
		}
	}

	detected := make(map[string]string)
	var undetected []string
	for _, r := range records {
		rel := relativeTo(directory, r.Path)
		if strings.Contains(r.Path, "/PATENTS") || strings.Contains(r.Path, "/NOTICE") {
			continue
		}
		if name := r.licenseName(); name != "" {
			detected[rel] = name
		} else {
			undetected = append(undetected, rel)
		}
	}
	return d.assemble(ctx, directory, detected, undetected, found, records)
}

func parseAskalono(out []byte) ([]askalonoRecord, error) {
	var records []askalonoRecord
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64<<10), 16<<20)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var r askalonoRecord
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, fmt.Errorf("decoding askalono output: %w", err)
		}
		r.Path = strings.TrimSpace(r.Path)
		records = append(records, r)
	}
	return records, sc.Err()
}

// relativeTo turns an absolute path reported by a tool into a slash path
// relative to directory. Relative paths are only cleaned.
func relativeTo(directory, p string) string {
	if filepath.IsAbs(p) {
		if abs, err := filepath.Abs(directory); err == nil {
			if rel, err := filepath.Rel(abs, p); err == nil {
				return filepath.ToSlash(rel)
			}
		}
	}
	return filepath.ToSlash(filepath.Clean(p))
}
