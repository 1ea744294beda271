// Package overrides verifies manual license entries against the files they
// pin.
package overrides

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
)

// Result is the outcome of resolving manual entries.
type Result struct {
	// Matched maps paths whose hash still matches to their expression.
	Matched map[string]string
	// Unmatched lists stale entries in configuration order.
	Unmatched []string
}

// Resolve checks every entry's hash against the file under directory.
// Duplicate paths are a configuration error. A missing file or a hash
// mismatch makes the entry stale; it is never applied.
func Resolve(ctx context.Context, entries []domain.LicenseEntry, directory string) (*Result, error) {
	// 1. reject duplicates before touching the filesystem
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		p := cleanPath(e.Path)
		if seen[p] {
			return nil, &domain.ConfigError{Msg: fmt.Sprintf("%s was specified multiple times in the configuration", e.Path)}
		}
		seen[p] = true
	}

	// 2. hash in parallel; results are stored by index to keep config order
	matches := make([]bool, len(entries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, e := range entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sum, err := HashFile(filepath.Join(directory, filepath.FromSlash(cleanPath(e.Path))))
			matches[i] = err == nil && strings.EqualFold(sum, strings.TrimSpace(e.SHA256Sum))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// 3. split
	res := &Result{Matched: make(map[string]string), Unmatched: []string{}}
	for i, e := range entries {
		p := cleanPath(e.Path)
		if matches[i] {
			res.Matched[p] = e.Expression
		} else {
			res.Unmatched = append(res.Unmatched, p)
		}
	}
	return res, nil
}

// Hasher implements domain.FileHasher.
type Hasher struct{}

func NewHasher() *Hasher {
	return &Hasher{}
}

func (Hasher) HashFile(p string) (string, error) { return HashFile(p) }

// HashFile returns the hex SHA-256 digest of the file at p.
func HashFile(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", p, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func cleanPath(p string) string {
	return path.Clean(filepath.ToSlash(p))
}
