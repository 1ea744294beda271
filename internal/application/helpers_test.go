package application_test

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/mock"

	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
)

const fixtureDir = "../../testdata/vendored/basic"

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

// fixtureData is what a detector reports for testdata/vendored/basic.
func fixtureData() *domain.LicenseData {
	return &domain.LicenseData{
		Directory: fixtureDir,
		Detector:  "fake",
		LicenseMap: map[string]string{
			"LICENSE":                                               "MIT",
			"vendor/github.com/foo/bar/LICENSE":                     "Apache-2.0",
			"vendor/github.com/reuse/mod/LICENSES/BSD-3-Clause.txt": "BSD-3-Clause",
			"vendor/github.com/reuse/mod/LICENSES/MIT.txt":          "MIT",
		},
		UndetectedLicenses:     []string{"vendor/github.com/odd/one/COPYING"},
		UnmatchedExtraLicenses: []string{},
		ExtraLicenseFiles:      []string{"vendor/github.com/foo/bar/NOTICE"},
	}
}

type mockDetector struct {
	mock.Mock
}

func (m *mockDetector) Name() string { return "fake" }

func (m *mockDetector) PackagesNeeded() []string { return nil }

func (m *mockDetector) Detect(_ context.Context, directory string) (*domain.LicenseData, error) {
	args := m.Called(directory)
	data, _ := args.Get(0).(*domain.LicenseData)
	return data, args.Error(1)
}

func (m *mockDetector) FindLicenseFiles(_ context.Context, directory string) ([]string, error) {
	args := m.Called(directory)
	paths, _ := args.Get(0).([]string)
	return paths, args.Error(1)
}

func detecting(data *domain.LicenseData) *mockDetector {
	d := &mockDetector{}
	d.On("Detect", mock.Anything).Return(data, nil)
	return d
}

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(_ context.Context, cmd domain.Command) ([]byte, error) {
	args := m.Called(cmd)
	out, _ := args.Get(0).([]byte)
	return out, args.Error(1)
}

func (m *mockRunner) LookPath(name string) (string, error) {
	args := m.Called(name)
	return args.String(0), args.Error(1)
}

type mockArchiver struct {
	mock.Mock
}

func (m *mockArchiver) Create(out, root string, paths []string, prefix string, mtime time.Time) error {
	return m.Called(out, root, paths, prefix, mtime).Error(0)
}

func (m *mockArchiver) Extract(src, dest string) error {
	return m.Called(src, dest).Error(0)
}

type mockDownloader struct {
	mock.Mock
}

func (m *mockDownloader) Download(_ context.Context, url, dest string) error {
	return m.Called(url, dest).Error(0)
}

type fakeGit struct {
	repo bool
	hash string
	when time.Time
}

func (g fakeGit) IsGitRepo(string) bool { return g.repo }

func (g fakeGit) CommitHash(string) (string, error) { return g.hash, nil }

func (g fakeGit) CommitTime(string) (time.Time, error) { return g.when, nil }

// scriptedPrompter answers prompts from a map; missing paths are ignored.
type scriptedPrompter struct {
	answers map[string]string
	asked   []string
}

func (p *scriptedPrompter) PromptLicense(path string) (string, bool, error) {
	p.asked = append(p.asked, path)
	expr, ok := p.answers[path]
	if !ok {
		return "", true, nil
	}
	return expr, false, nil
}
