package detector

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
	"github.com/go-vendor-tools/go-vendor-tools/internal/domain/licensing"
)

// BuiltinName identifies the built-in detector.
const BuiltinName = "builtin"

// maxLicenseRead caps how much of a license file is inspected.
const maxLicenseRead = 64 << 10

const spdxTag = "SPDX-License-Identifier:"

type contentRule struct {
	id    string
	match func(lower string) bool
}

func containsAll(lower string, needles ...string) bool {
	for _, n := range needles {
		if !strings.Contains(lower, n) {
			return false
		}
	}
	return true
}

// contentRules are tried in order. LGPL comes before GPL because LGPL texts
// reference the GPL; MIT comes before BSD because both talk about
// redistribution.
var contentRules = []contentRule{
	{"Apache-2.0", func(l string) bool { return containsAll(l, "apache license", "version 2.0") }},
	{"MIT", func(l string) bool {
		return strings.Contains(l, "mit license") ||
			containsAll(l, "permission is hereby granted, free of charge", "without restriction")
	}},
	{"BSD-3-Clause", func(l string) bool {
		return containsAll(l, "redistribution", "neither the name")
	}},
	{"BSD-2-Clause", func(l string) bool {
		return containsAll(l, "redistribution", "bsd")
	}},
	{"LGPL-3.0-only", func(l string) bool { return containsAll(l, "gnu lesser general public license", "version 3") }},
	{"LGPL-2.1-only", func(l string) bool { return containsAll(l, "gnu lesser general public license", "version 2.1") }},
	{"GPL-3.0-only", func(l string) bool { return containsAll(l, "gnu general public license", "version 3") }},
	{"GPL-2.0-only", func(l string) bool { return containsAll(l, "gnu general public license", "version 2") }},
	{"MPL-2.0", func(l string) bool { return containsAll(l, "mozilla public license", "2.0") }},
	{"ISC", func(l string) bool {
		return strings.Contains(l, "isc license") ||
			containsAll(l, "permission to use, copy, modify", "and/or distribute this software")
	}},
	{"Unlicense", func(l string) bool {
		return strings.Contains(l, "this is free and unencumbered software") ||
			containsAll(l, "public domain", "waive all copyright")
	}},
	{"CC0-1.0", func(l string) bool {
		return strings.Contains(l, "cc0") || containsAll(l, "creative commons", "public domain dedication")
	}},
	{"BSL-1.0", func(l string) bool { return strings.Contains(l, "boost software license") }},
	{"WTFPL", func(l string) bool { return strings.Contains(l, "do what the fuck you want") }},
}

// Builtin detects licenses without external tools. It honours
// SPDX-License-Identifier tags and files whose whole content is an
// expression, then falls back to matching well-known license texts.
type Builtin struct {
	base
}

func NewBuiltin(detectorConfig map[string]string, cfg domain.LicenseConfig, opts ...Option) (*Builtin, error) {
	o, err := newOptions(detectorConfig, opts)
	if err != nil {
		return nil, err
	}
	return &Builtin{base: newBase(BuiltinName, nil, cfg, o)}, nil
}

func (d *Builtin) Detect(ctx context.Context, directory string) (*domain.LicenseData, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	found, err := d.discover(directory)
	if err != nil {
		return nil, d.fail(err)
	}

	ids := make([]string, len(found.License))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.concurrency)
	for i, rel := range found.License {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			id, err := identifyFile(filepath.Join(directory, filepath.FromSlash(rel)))
			if err != nil {
				return err
			}
			ids[i] = id
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, d.fail(err)
	}

	detected := make(map[string]string)
	var undetected []string
	for i, rel := range found.License {
		if ids[i] == "" {
			undetected = append(undetected, rel)
			continue
		}
		detected[rel] = ids[i]
	}
	return d.assemble(ctx, directory, detected, undetected, found, nil)
}

func identifyFile(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()
	content, err := io.ReadAll(io.LimitReader(f, maxLicenseRead))
	if err != nil {
		return "", err
	}
	return Identify(content), nil
}

// Identify returns the SPDX expression for a license text, or "" when the
// text is not recognised.
func Identify(content []byte) string {
	var tagged []string
	sc := bufio.NewScanner(bytes.NewReader(content))
	for sc.Scan() {
		line := sc.Text()
		if i := strings.Index(line, spdxTag); i >= 0 {
			value := strings.TrimSpace(line[i+len(spdxTag):])
			value = strings.TrimSpace(strings.TrimSuffix(value, "*/"))
			if value != "" {
				tagged = append(tagged, value)
			}
		}
	}
	if len(tagged) > 0 {
		if expr, err := licensing.Combine(licensing.CombineOptions{ParseOptions: licensing.Strict}, tagged...); err == nil {
			return expr
		}
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed != "" && !strings.Contains(trimmed, "\n") {
		if expr, err := licensing.Simplify(trimmed, licensing.Strict); err == nil {
			return expr
		}
	}

	lower := strings.Join(strings.Fields(strings.ToLower(string(content))), " ")
	for _, r := range contentRules {
		if r.match(lower) {
			return r.id
		}
	}
	return ""
}

// Builtin needs no binary, so availability never fails.
var _ domain.Detector = (*Builtin)(nil)
