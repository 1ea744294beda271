package tarball_test

import (
	"archive/tar"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/tarball"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
}

func sourceTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"go.mod":                         "module example.com/app\n",
		"go.sum":                         "",
		"main.go":                        "package main\n",
		"vendor/modules.txt":             "# example.com/lib v1.0.0\n",
		"vendor/example.com/lib/LICENSE": "MIT License\n",
		"vendor/example.com/lib/lib.go":  "package lib\n",
		"vendor/example.com/lib/run.sh":  "#!/bin/sh\n",
	})
	require.NoError(t, os.Chmod(filepath.Join(root, "vendor/example.com/lib/run.sh"), 0o700))
	return root
}

func readGzipEntries(t *testing.T, p string) []*tar.Header {
	t.Helper()
	f, err := os.Open(p)
	require.NoError(t, err)
	defer f.Close()
	gr, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gr)
	var hdrs []*tar.Header
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return hdrs
		}
		require.NoError(t, err)
		hdrs = append(hdrs, hdr)
	}
}

func TestCompressionFor(t *testing.T) {
	tests := map[string]tarball.Compression{
		"vendor.tar.xz":  tarball.XZ,
		"vendor.TXZ":     tarball.XZ,
		"vendor.tar.gz":  tarball.Gzip,
		"vendor.tgz":     tarball.Gzip,
		"vendor.tar.zst": tarball.Zstd,
		"vendor.tar":     tarball.None,
	}
	for name, want := range tests {
		got, err := tarball.CompressionFor(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := tarball.CompressionFor("vendor.rar")
	assert.Error(t, err)
}

func TestCreate_EntriesAreNormalized(t *testing.T) {
	root := sourceTree(t)
	out := filepath.Join(t.TempDir(), "vendor.tar.gz")
	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	err := tarball.Create(out, root, []string{"vendor", "go.mod", "go.sum"}, tarball.Options{
		Prefix:  "app-1.0",
		ModTime: mtime,
	})
	require.NoError(t, err)

	hdrs := readGzipEntries(t, out)
	var names []string
	for _, h := range hdrs {
		names = append(names, h.Name)
		assert.Equal(t, 0, h.Uid)
		assert.Equal(t, 0, h.Gid)
		assert.Empty(t, h.Uname)
		assert.True(t, mtime.Equal(h.ModTime), h.Name)
	}
	assert.Equal(t, []string{
		"app-1.0/go.mod",
		"app-1.0/go.sum",
		"app-1.0/vendor/",
		"app-1.0/vendor/example.com/",
		"app-1.0/vendor/example.com/lib/",
		"app-1.0/vendor/example.com/lib/LICENSE",
		"app-1.0/vendor/example.com/lib/lib.go",
		"app-1.0/vendor/example.com/lib/run.sh",
		"app-1.0/vendor/modules.txt",
	}, names)

	modes := map[string]int64{}
	for _, h := range hdrs {
		modes[h.Name] = h.Mode
	}
	assert.Equal(t, int64(0o644), modes["app-1.0/go.mod"])
	assert.Equal(t, int64(0o755), modes["app-1.0/vendor/example.com/lib/run.sh"])
	assert.Equal(t, int64(0o755), modes["app-1.0/vendor/"])
}

func TestCreate_Reproducible(t *testing.T) {
	for _, ext := range []string{".tar.xz", ".tar.gz", ".tar.zst", ".tar"} {
		t.Run(ext, func(t *testing.T) {
			root := sourceTree(t)
			dir := t.TempDir()
			opts := tarball.Options{ModTime: time.Unix(1700000000, 0)}

			a := filepath.Join(dir, "a"+ext)
			b := filepath.Join(dir, "b"+ext)
			require.NoError(t, tarball.Create(a, root, []string{"go.mod", "vendor"}, opts))
			// Touching files must not change the output.
			now := time.Now()
			require.NoError(t, os.Chtimes(filepath.Join(root, "go.mod"), now, now))
			require.NoError(t, tarball.Create(b, root, []string{"vendor", "go.mod"}, opts))

			ab, err := os.ReadFile(a)
			require.NoError(t, err)
			bb, err := os.ReadFile(b)
			require.NoError(t, err)
			assert.Equal(t, ab, bb)
		})
	}
}

func TestCreate_MissingPath(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(t.TempDir(), "vendor.tar.gz")
	err := tarball.Create(out, root, []string{"vendor"}, tarball.Options{})
	require.Error(t, err)
	assert.NoFileExists(t, out)
}

func TestExtract_RoundTrip(t *testing.T) {
	for _, ext := range []string{".tar.xz", ".tar.gz", ".tar.zst", ".tar"} {
		t.Run(ext, func(t *testing.T) {
			root := sourceTree(t)
			out := filepath.Join(t.TempDir(), "src"+ext)
			require.NoError(t, tarball.Create(out, root, []string{"go.mod", "main.go", "vendor"}, tarball.Options{Prefix: "app"}))

			dest := t.TempDir()
			require.NoError(t, tarball.Extract(out, dest))

			got, err := os.ReadFile(filepath.Join(dest, "app", "vendor", "example.com", "lib", "LICENSE"))
			require.NoError(t, err)
			assert.Equal(t, "MIT License\n", string(got))
			assert.FileExists(t, filepath.Join(dest, "app", "main.go"))
		})
	}
}

func TestExtract_RejectsTraversal(t *testing.T) {
	p := filepath.Join(t.TempDir(), "evil.tar")
	f, err := os.Create(p)
	require.NoError(t, err)
	tw := tar.NewWriter(f)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "../escape", Typeflag: tar.TypeReg, Size: 1, Mode: 0o644}))
	_, err = tw.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, f.Close())

	dest := filepath.Join(t.TempDir(), "out")
	err = tarball.Extract(p, dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes")
	assert.NoFileExists(t, filepath.Join(filepath.Dir(dest), "escape"))
}
