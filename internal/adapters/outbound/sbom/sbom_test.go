package sbom_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/sbom"
	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
)

var meta = sbom.Metadata{
	Name:    "example.com/app",
	Version: "v1.0.0",
	Tool:    "go-vendor-license-dev",
	Created: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
}

var modules = []domain.ModuleLicense{
	{Path: "example.com/app", Dir: ".", Expression: "MIT", LicenseFiles: []string{"LICENSE"}},
	{Path: "github.com/foo/bar", Version: "v1.2.3", Dir: "vendor/github.com/foo/bar", Expression: "Apache-2.0 OR MIT"},
	{Path: "github.com/baz/qux", Version: "v0.1.0", Dir: "vendor/github.com/baz/qux"},
	{Path: "github.com/odd/one", Version: "v0.0.1", Dir: "vendor/github.com/odd/one", Expression: "LicenseRef-Odd"},
}

func TestParseFormat(t *testing.T) {
	f, err := sbom.ParseFormat("CycloneDX")
	require.NoError(t, err)
	assert.Equal(t, sbom.FormatCycloneDX, f)
	_, err = sbom.ParseFormat("swid")
	assert.Error(t, err)
}

func TestWrite_SPDX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sbom.Write(&buf, sbom.FormatSPDX, meta, modules))

	var doc struct {
		SPDXVersion string `json:"spdxVersion"`
		Namespace   string `json:"documentNamespace"`
		Packages    []struct {
			Name             string `json:"name"`
			LicenseDeclared  string `json:"licenseDeclared"`
			LicenseConcluded string `json:"licenseConcluded"`
		} `json:"packages"`
		Relationships []struct {
			Type string `json:"relationshipType"`
		} `json:"relationships"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "SPDX-2.3", doc.SPDXVersion)
	require.Len(t, doc.Packages, 4)
	assert.Equal(t, "Apache-2.0 OR MIT", doc.Packages[1].LicenseDeclared)
	assert.Equal(t, "NOASSERTION", doc.Packages[2].LicenseConcluded)
	require.Len(t, doc.Relationships, 4)
	assert.Equal(t, "DESCRIBES", doc.Relationships[0].Type)
	assert.Equal(t, "DEPENDS_ON", doc.Relationships[1].Type)

	var again bytes.Buffer
	require.NoError(t, sbom.Write(&again, sbom.FormatSPDX, meta, modules))
	assert.Equal(t, buf.String(), again.String(), "output is deterministic")
}

func TestWrite_CycloneDX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sbom.Write(&buf, sbom.FormatCycloneDX, meta, modules))

	var bom struct {
		SerialNumber string `json:"serialNumber"`
		Metadata     struct {
			Component struct {
				Name string `json:"name"`
			} `json:"component"`
		} `json:"metadata"`
		Components []struct {
			Name     string `json:"name"`
			PURL     string `json:"purl"`
			Licenses []struct {
				Expression string `json:"expression"`
				License    *struct {
					ID   string `json:"id"`
					Name string `json:"name"`
				} `json:"license"`
			} `json:"licenses"`
		} `json:"components"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &bom))

	assert.Regexp(t, `^urn:uuid:[0-9a-f-]{36}$`, bom.SerialNumber)
	assert.Equal(t, "example.com/app", bom.Metadata.Component.Name)
	require.Len(t, bom.Components, 3)

	bar := bom.Components[0]
	assert.Equal(t, "pkg:golang/github.com/foo/bar@v1.2.3", bar.PURL)
	require.Len(t, bar.Licenses, 1)
	assert.Equal(t, "Apache-2.0 OR MIT", bar.Licenses[0].Expression)

	assert.Empty(t, bom.Components[1].Licenses)

	odd := bom.Components[2]
	require.Len(t, odd.Licenses, 1)
	require.NotNil(t, odd.Licenses[0].License)
	assert.Equal(t, "LicenseRef-Odd", odd.Licenses[0].License.Name)
}
