package application_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/config"
	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/gomod"
	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/overrides"
	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/store"
	"github.com/go-vendor-tools/go-vendor-tools/internal/application"
	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
)

func newReportService(d domain.Detector) *application.ReportService {
	return application.NewReportService(d, gomod.New(), overrides.NewHasher(), store.New(), config.New(), quietLogger())
}

func TestReportService_Run(t *testing.T) {
	det := detecting(fixtureData())
	rep, err := newReportService(det).Run(context.Background(), application.ReportOptions{
		Directory: fixtureDir,
		Config:    domain.DefaultConfig(),
	})
	require.NoError(t, err)

	assert.Equal(t, "Apache-2.0 AND BSD-3-Clause AND MIT", rep.Expression)
	assert.Equal(t, []string{"vendor/github.com/baz/qux"}, rep.UnlicensedModules)
	assert.Equal(t, domain.StatusUndetected|domain.StatusUnlicensedModules, rep.Status)
	assert.Equal(t, 6, rep.Status.ExitCode())
	assert.False(t, rep.HideUndetected)
	det.AssertCalled(t, "Detect", fixtureDir)
}

func TestReportService_IgnoreFlags(t *testing.T) {
	data := fixtureData()
	data.UnmatchedExtraLicenses = []string{"vendor/github.com/gone/LICENSE"}

	rep, err := newReportService(detecting(data)).Run(context.Background(), application.ReportOptions{
		Directory:            fixtureDir,
		Config:               domain.DefaultConfig(),
		IgnoreUndetected:     true,
		IgnoreUnlicensedMods: true,
		IgnoreUnmatched:      true,
	})
	require.NoError(t, err)
	assert.True(t, rep.Status.OK())
	assert.Nil(t, rep.UnlicensedModules)
	assert.True(t, rep.HideUndetected)
}

func TestReportService_StaleOverrides(t *testing.T) {
	data := fixtureData()
	data.UndetectedLicenses = []string{}
	data.UnmatchedExtraLicenses = []string{"vendor/github.com/gone/LICENSE"}

	rep, err := newReportService(detecting(data)).Run(context.Background(), application.ReportOptions{
		Directory:            fixtureDir,
		Config:               domain.DefaultConfig(),
		IgnoreUnlicensedMods: true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusStaleOverrides, rep.Status)
	assert.Equal(t, 8, rep.Status.ExitCode())
}

func TestReportService_Verify(t *testing.T) {
	tests := map[string]struct {
		expected string
		advisory bool
		verified bool
		status   domain.Status
	}{
		"match in another order": {expected: "MIT AND BSD-3-Clause AND Apache-2.0", verified: true},
		"mismatch":               {expected: "MIT", status: domain.StatusVerifyFailed},
		"advisory mismatch":      {expected: "MIT", advisory: true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			data := fixtureData()
			data.UndetectedLicenses = []string{}
			rep, err := newReportService(detecting(data)).Run(context.Background(), application.ReportOptions{
				Directory:            fixtureDir,
				Config:               domain.DefaultConfig(),
				IgnoreUnlicensedMods: true,
				Verify:               tt.expected,
				VerifyAdvisory:       tt.advisory,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.verified, rep.Verified)
			assert.Equal(t, tt.expected, rep.Expected)
			assert.Equal(t, tt.status, rep.Status)
		})
	}
}

func TestReportService_VerifyInvalidExpression(t *testing.T) {
	_, err := newReportService(detecting(fixtureData())).Run(context.Background(), application.ReportOptions{
		Directory:            fixtureDir,
		Config:               domain.DefaultConfig(),
		IgnoreUnlicensedMods: true,
		Verify:               "MIT AND (",
	})
	var licErr *domain.LicenseError
	require.ErrorAs(t, err, &licErr)
}

func TestReportService_PromptWritesConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "go-vendor-tools.toml")
	p := &scriptedPrompter{answers: map[string]string{
		"vendor/github.com/odd/one/COPYING": "BSD-2-Clause",
	}}

	rep, err := newReportService(detecting(fixtureData())).Run(context.Background(), application.ReportOptions{
		Directory:   fixtureDir,
		Config:      domain.DefaultConfig(),
		ConfigPath:  cfgPath,
		Prompter:    p,
		WriteConfig: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"vendor/github.com/odd/one/COPYING"}, p.asked)
	assert.Empty(t, rep.Data.UndetectedLicenses)
	assert.Equal(t, "BSD-2-Clause", rep.Data.LicenseMap["vendor/github.com/odd/one/COPYING"])
	assert.Equal(t, "Apache-2.0 AND BSD-2-Clause AND BSD-3-Clause AND MIT", rep.Expression)
	assert.Equal(t, domain.StatusUnlicensedModules, rep.Status)

	cfg, err := config.New().Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "fake", cfg.Licensing.Detector)
	require.Len(t, cfg.Licensing.Licenses, 1)
	sum, err := overrides.HashFile(filepath.Join(fixtureDir, "vendor/github.com/odd/one/COPYING"))
	require.NoError(t, err)
	assert.Equal(t, domain.LicenseEntry{
		Path:       "vendor/github.com/odd/one/COPYING",
		SHA256Sum:  sum,
		Expression: "BSD-2-Clause",
	}, cfg.Licensing.Licenses[0])
}

func TestReportService_PromptIgnore(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "go-vendor-tools.toml")
	rep, err := newReportService(detecting(fixtureData())).Run(context.Background(), application.ReportOptions{
		Directory:  fixtureDir,
		Config:     domain.DefaultConfig(),
		ConfigPath: cfgPath,
		Prompter:   &scriptedPrompter{},
	})
	require.NoError(t, err)
	assert.Empty(t, rep.Data.UndetectedLicenses)
	assert.NotContains(t, rep.Data.LicenseMap, "vendor/github.com/odd/one/COPYING")

	cfg, err := config.New().Load(cfgPath)
	require.NoError(t, err)
	assert.Empty(t, cfg.Licensing.Licenses)
	assert.Empty(t, cfg.Licensing.Detector, "only WriteConfig records the detector")
}

func TestReportService_VerifyFailureSkipsConfigWrite(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "go-vendor-tools.toml")
	_, err := newReportService(detecting(fixtureData())).Run(context.Background(), application.ReportOptions{
		Directory:   fixtureDir,
		Config:      domain.DefaultConfig(),
		ConfigPath:  cfgPath,
		WriteConfig: true,
		Verify:      "GPL-2.0-only",
	})
	require.NoError(t, err)
	assert.NoFileExists(t, cfgPath)
}

func TestReportService_WriteConfigNeedsPath(t *testing.T) {
	det := &mockDetector{}
	_, err := newReportService(det).Run(context.Background(), application.ReportOptions{
		Directory:   fixtureDir,
		WriteConfig: true,
	})
	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	det.AssertNotCalled(t, "Detect", fixtureDir)
}

func TestReportService_JSONRoundTrip(t *testing.T) {
	jsonPath := filepath.Join(t.TempDir(), "licenses.json")
	first, err := newReportService(detecting(fixtureData())).Run(context.Background(), application.ReportOptions{
		Directory: fixtureDir,
		Config:    domain.DefaultConfig(),
		WriteJSON: jsonPath,
	})
	require.NoError(t, err)

	det := &mockDetector{}
	second, err := newReportService(det).Run(context.Background(), application.ReportOptions{
		Directory: fixtureDir,
		Config:    domain.DefaultConfig(),
		ReadJSON:  jsonPath,
	})
	require.NoError(t, err)
	det.AssertNotCalled(t, "Detect", fixtureDir)

	assert.Equal(t, first.Expression, second.Expression)
	assert.Equal(t, first.Data.LicenseMap, second.Data.LicenseMap)
	assert.Equal(t, first.Status, second.Status)
}

func TestReportService_MissingManifest(t *testing.T) {
	dir := t.TempDir()
	data := &domain.LicenseData{Directory: dir, LicenseMap: map[string]string{}}

	_, err := newReportService(detecting(data)).Run(context.Background(), application.ReportOptions{Directory: dir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vendor/modules.txt")

	rep, err := newReportService(detecting(data)).Run(context.Background(), application.ReportOptions{
		Directory:            dir,
		IgnoreUnlicensedMods: true,
	})
	require.NoError(t, err)
	assert.Empty(t, rep.Expression)
	assert.True(t, rep.Status.OK())
}

func TestStatusError(t *testing.T) {
	assert.NoError(t, application.Err(0))

	err := application.Err(domain.StatusUndetected | domain.StatusVerifyFailed)
	se, ok := application.AsStatusError(err)
	require.True(t, ok)
	assert.Equal(t, 18, se.ExitCode())
	assert.Contains(t, err.Error(), "undetected-licenses,verify-failed")
}
