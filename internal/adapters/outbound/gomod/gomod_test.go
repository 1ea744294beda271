package gomod_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/gomod"
	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureDir = "../../../../testdata/vendored/basic"

func TestReader_Modules(t *testing.T) {
	mods, err := gomod.New().Modules(fixtureDir)
	require.NoError(t, err)

	assert.Equal(t, []domain.Module{
		{Path: "github.com/baz/qux", Version: "v0.1.0", Dir: "vendor/github.com/baz/qux"},
		{Path: "github.com/foo/bar", Version: "v1.2.3", Dir: "vendor/github.com/foo/bar"},
		{Path: "github.com/odd/one", Version: "v0.0.0-20240101000000-abcdefabcdef", Dir: "vendor/github.com/odd/one"},
		{Path: "github.com/reuse/mod", Version: "v1.0.0", Dir: "vendor/github.com/reuse/mod"},
	}, mods)
}

func TestReader_ModuleDirs(t *testing.T) {
	dirs, err := gomod.New().ModuleDirs(fixtureDir)
	require.NoError(t, err)
	assert.Len(t, dirs, 4)
	assert.Equal(t, "vendor/github.com/baz/qux", dirs[0])
}

func TestReader_MissingManifest(t *testing.T) {
	dir := t.TempDir()
	mods, err := gomod.New().Modules(dir)
	require.NoError(t, err)
	assert.Empty(t, mods)
	assert.False(t, gomod.HasManifest(dir))
	assert.True(t, gomod.HasManifest(fixtureDir))
}

func TestReader_SkipsModulesWithoutDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "vendor", "example.com", "present"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendor", "modules.txt"), []byte(
		"# example.com/present v1.0.0\n## explicit\nexample.com/present\n"+
			"# example.com/absent v1.0.0\n## explicit\nexample.com/absent\n",
	), 0644))

	dirs, err := gomod.New().ModuleDirs(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"vendor/example.com/present"}, dirs)
}

func TestReader_RejectsInvalidLines(t *testing.T) {
	tests := map[string]string{
		"bad import path": "# example.com//x v1.0.0\n",
		"bad version":     "# example.com/x v1.x\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.MkdirAll(filepath.Join(dir, "vendor"), 0755))
			require.NoError(t, os.WriteFile(filepath.Join(dir, "vendor", "modules.txt"), []byte(content), 0644))
			_, err := gomod.New().Modules(dir)
			assert.Error(t, err)
		})
	}
}
