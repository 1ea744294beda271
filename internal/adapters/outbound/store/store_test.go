package store_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/store"
	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
)

func TestStore_SaveAndLoad(t *testing.T) {
	s := store.New()
	p := filepath.Join(t.TempDir(), "out", "licenses.json")

	original := &domain.LicenseData{
		Directory:          "/src",
		Detector:           "trivy",
		LicenseMap:         map[string]string{"LICENSE": "MIT"},
		UndetectedLicenses: []string{"vendor/b/COPYING", "vendor/a/COPYING"},
		DetectorData:       json.RawMessage(`{"Class":"license-file"}`),
	}
	require.NoError(t, s.Save(p, original))

	loaded, err := s.Load(p)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
	assert.Equal(t, "trivy", loaded.Detector)
	assert.Equal(t, original.LicenseMap, loaded.LicenseMap)
	assert.Equal(t, []string{"vendor/a/COPYING", "vendor/b/COPYING"}, loaded.UndetectedLicenses)
	assert.JSONEq(t, `{"Class":"license-file"}`, string(loaded.DetectorData))
	assert.Empty(t, loaded.ExtraLicenseFiles)
}

func TestStore_LoadErrors(t *testing.T) {
	s := store.New()
	_, err := s.Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	p := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(p, []byte("{"), 0644))
	_, err = s.Load(p)
	assert.ErrorContains(t, err, "parsing")
}

func TestMarshal_StableOutput(t *testing.T) {
	data := &domain.LicenseData{LicenseMap: map[string]string{"b": "MIT", "a": "ISC"}}
	data.Normalize()
	raw, err := store.Marshal(data)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\"a\": \"ISC\",\n    \"b\": \"MIT\"")
	assert.Equal(t, byte('\n'), raw[len(raw)-1])
}
