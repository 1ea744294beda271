package tui_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/tui"
)

func TestLinePrompter(t *testing.T) {
	var out bytes.Buffer
	p := tui.NewLinePrompter(strings.NewReader("mit OR apache-2.0\nIGNORE\n\n"), &out)

	expr, ignore, err := p.PromptLicense("vendor/a/COPYING")
	require.NoError(t, err)
	assert.False(t, ignore)
	assert.Equal(t, "Apache-2.0 OR MIT", expr)

	_, ignore, err = p.PromptLicense("vendor/b/COPYING")
	require.NoError(t, err)
	assert.True(t, ignore)

	expr, ignore, err = p.PromptLicense("vendor/c/COPYING")
	require.NoError(t, err)
	assert.False(t, ignore)
	assert.Empty(t, expr)

	assert.Contains(t, out.String(), "* Undetected license: vendor/a/COPYING")
	assert.Contains(t, out.String(), "Enter SPDX expression (or IGNORE): ")
	assert.Contains(t, out.String(), "Ignoring...")
}

func TestLinePrompter_RetriesInvalidInput(t *testing.T) {
	var out bytes.Buffer
	p := tui.NewLinePrompter(strings.NewReader("MIT AND (\nISC\n"), &out)

	expr, _, err := p.PromptLicense("COPYING")
	require.NoError(t, err)
	assert.Equal(t, "ISC", expr)
	assert.Contains(t, out.String(), "Invalid expression")
}

func TestLinePrompter_RejectsUnknownIdentifier(t *testing.T) {
	var out bytes.Buffer
	p := tui.NewLinePrompter(strings.NewReader("Totally-Made-Up\nLicenseRef-Custom\n"), &out)

	expr, _, err := p.PromptLicense("COPYING")
	require.NoError(t, err)
	assert.Equal(t, "LicenseRef-Custom", expr)
	assert.Contains(t, out.String(), "Invalid expression")
	assert.Equal(t, 2, strings.Count(out.String(), "Enter SPDX expression"))
}

func TestLinePrompter_EOF(t *testing.T) {
	p := tui.NewLinePrompter(strings.NewReader(""), &bytes.Buffer{})
	_, _, err := p.PromptLicense("COPYING")
	assert.Error(t, err)
}
