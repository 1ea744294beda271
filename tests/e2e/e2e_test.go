package e2e_test

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/tarball"
	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
)

var (
	licenseBinary string
	archiveBinary string
)

func TestMain(m *testing.M) {
	// Build binaries before running tests
	dir, err := os.MkdirTemp("", "go-vendor-tools-e2e")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	licenseBinary = filepath.Join(dir, "go-vendor-license")
	archiveBinary = filepath.Join(dir, "go-vendor-archive")
	for bin, pkg := range map[string]string{
		licenseBinary: "../../cmd/go-vendor-license",
		archiveBinary: "../../cmd/go-vendor-archive",
	} {
		cmd := exec.Command("go", "build", "-o", bin, pkg)
		if out, err := cmd.CombinedOutput(); err != nil {
			panic("build failed: " + string(out))
		}
	}

	os.Exit(m.Run())
}

func fixturePath(name string) string {
	abs, _ := filepath.Abs(filepath.Join("../../testdata/vendored", name))
	return abs
}

func run(t *testing.T, binary string, args ...string) (string, int) {
	t.Helper()
	cmd := exec.Command(binary, args...)
	cmd.Env = append(os.Environ(), "NO_COLOR=1")
	out, err := cmd.Output()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
	}
	return string(out), exitCode
}

func license(t *testing.T, args ...string) (string, int) {
	t.Helper()
	return run(t, licenseBinary, append([]string{"-C", fixturePath("basic"), "-d", "builtin"}, args...)...)
}

// --- Report Tests ---

func TestE2E_ReportExitCode(t *testing.T) {
	out, code := license(t, "report")
	assert.Equal(t, 6, code, "undetected (2) | unlicensed modules (4)")
	assert.Contains(t, out, "- vendor/github.com/odd/one/COPYING")
	assert.Contains(t, out, "- vendor/github.com/baz/qux")
	assert.Contains(t, out, "Apache-2.0 AND BSD-3-Clause AND MIT")
}

func TestE2E_ReportExpression(t *testing.T) {
	out, code := license(t, "report", "expression", "-i", "-L")
	assert.Equal(t, 0, code)
	assert.Equal(t, "Apache-2.0 AND BSD-3-Clause AND MIT\n", out)
}

func TestE2E_ReportVerify(t *testing.T) {
	_, code := license(t, "report", "expression", "-i", "-L", "--verify", "BSD-3-Clause AND MIT AND Apache-2.0")
	assert.Equal(t, 0, code)

	_, code = license(t, "report", "expression", "-i", "-L", "--verify", "GPL-2.0-only")
	assert.Equal(t, 16, code)
}

func TestE2E_ReportJSON(t *testing.T) {
	out, code := license(t, "report", "--json", "-i")
	assert.Equal(t, 4, code)

	var rep domain.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "builtin", rep.Data.Detector)
	assert.Equal(t, domain.StatusUnlicensedModules, rep.Status)
}

func TestE2E_ExplicitThenReport(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "go-vendor-tools.toml")
	_, code := license(t, "-c", cfg, "explicit", "-f", "vendor/github.com/odd/one/COPYING", "BSD-2-Clause")
	require.Equal(t, 0, code)

	out, code := license(t, "-c", cfg, "report", "expression", "-L")
	assert.Equal(t, 0, code)
	assert.Equal(t, "Apache-2.0 AND BSD-2-Clause AND BSD-3-Clause AND MIT\n", out)
}

func TestE2E_Install(t *testing.T) {
	dest := t.TempDir()
	filelist := filepath.Join(t.TempDir(), "files.list")
	_, code := license(t, "install", "--destdir", dest, "--install-directory", "/licenses", "--filelist", filelist)
	require.Equal(t, 0, code)
	assert.FileExists(t, filepath.Join(dest, "licenses", "vendor", "github.com", "foo", "bar", "NOTICE"))
	assert.FileExists(t, filelist)
}

func TestE2E_GenerateBuildRequires(t *testing.T) {
	out, code := run(t, licenseBinary, "-d", "scancode", "generate_buildrequires")
	assert.Equal(t, 0, code)
	assert.Equal(t, "scancode-toolkit\n", out)
}

func TestE2E_Version(t *testing.T) {
	out, code := run(t, licenseBinary, "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "go-vendor-license")
}

func TestE2E_InvalidDirectory(t *testing.T) {
	_, code := run(t, licenseBinary, "-C", "/does/not/exist", "report")
	assert.Equal(t, 1, code)
}

// --- Archive Tests ---

func TestE2E_Archive(t *testing.T) {
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not in PATH")
	}
	src := filepath.Join(t.TempDir(), "app-1.0")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "go.mod"), []byte("module example.com/app\n\ngo 1.21\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644))

	output := filepath.Join(t.TempDir(), "vendor.tar.gz")
	out, code := run(t, archiveBinary, src, "-O", output, "--top-level-dir")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "$ go mod tidy")
	assert.Contains(t, out, "$ go mod vendor")
	assert.Contains(t, out, "Creating archive...")

	dest := t.TempDir()
	require.NoError(t, tarball.Extract(output, dest))
	assert.FileExists(t, filepath.Join(dest, "app-1.0", "go.mod"))
	assert.NoFileExists(t, filepath.Join(dest, "app-1.0", "main.go"))
}

func TestE2E_ArchiveUnsupportedOutput(t *testing.T) {
	_, code := run(t, archiveBinary, t.TempDir(), "-O", "vendor.7z")
	assert.Equal(t, 1, code)
}
