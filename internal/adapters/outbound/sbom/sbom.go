// Package sbom exports per-module license results as SPDX 2.3 or
// CycloneDX JSON documents.
package sbom

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/google/uuid"
	"github.com/spdx/tools-golang/spdx"
	"github.com/spdx/tools-golang/spdx/v2/common"
	spdx23 "github.com/spdx/tools-golang/spdx/v2/v2_3"

	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
	"github.com/go-vendor-tools/go-vendor-tools/internal/domain/licensing"
)

// Format is an SBOM output format.
type Format string

const (
	FormatSPDX      Format = "spdx"
	FormatCycloneDX Format = "cyclonedx"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatSPDX:
		return FormatSPDX, nil
	case FormatCycloneDX:
		return FormatCycloneDX, nil
	}
	return "", fmt.Errorf("unknown SBOM format %q (choose from spdx, cyclonedx)", s)
}

// Metadata describes the document being written.
type Metadata struct {
	// Name is the main module path.
	Name    string
	Version string
	Tool    string
	// Created is stamped into the document. Together with the module list it
	// also seeds the document identifiers, so equal inputs give equal output.
	Created time.Time
}

const noAssertion = "NOASSERTION"

// Write encodes mods in format to w.
func Write(w io.Writer, format Format, meta Metadata, mods []domain.ModuleLicense) error {
	switch format {
	case FormatSPDX:
		return writeSPDX(w, meta, mods)
	case FormatCycloneDX:
		return writeCycloneDX(w, meta, mods)
	}
	return fmt.Errorf("unknown SBOM format %q", format)
}

// documentID derives a stable UUID from the metadata and module list.
func documentID(meta Metadata, mods []domain.ModuleLicense) uuid.UUID {
	var b strings.Builder
	fmt.Fprintf(&b, "%s@%s@%d", meta.Name, meta.Version, meta.Created.Unix())
	for _, m := range mods {
		fmt.Fprintf(&b, "\n%s@%s=%s", m.Path, m.Version, m.Expression)
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(b.String()))
}

func purl(m domain.ModuleLicense) string {
	if m.Version == "" {
		return "pkg:golang/" + m.Path
	}
	return fmt.Sprintf("pkg:golang/%s@%s", m.Path, m.Version)
}

// sanitizeID maps s onto the [a-zA-Z0-9.-] alphabet of SPDX element IDs.
func sanitizeID(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteRune('-')
		}
	}
	return b.String()
}

func writeSPDX(w io.Writer, meta Metadata, mods []domain.ModuleLicense) error {
	doc := &spdx23.Document{
		SPDXVersion:       spdx.Version,
		DataLicense:       spdx.DataLicense,
		SPDXIdentifier:    common.ElementID("DOCUMENT"),
		DocumentName:      meta.Name + "-vendor",
		DocumentNamespace: fmt.Sprintf("https://spdx.org/spdxdocs/%s-%s", sanitizeID(meta.Name), documentID(meta, mods)),
		CreationInfo: &spdx23.CreationInfo{
			Created:  meta.Created.UTC().Format(time.RFC3339),
			Creators: []common.Creator{{CreatorType: "Tool", Creator: meta.Tool}},
		},
	}

	for _, m := range mods {
		id := common.ElementID("Package-" + sanitizeID(m.Path))
		license := m.Expression
		if license == "" {
			license = noAssertion
		}
		pkg := &spdx23.Package{
			PackageName:             m.Path,
			PackageSPDXIdentifier:   id,
			PackageVersion:          m.Version,
			PackageDownloadLocation: noAssertion,
			FilesAnalyzed:           false,
			PackageLicenseDeclared:  license,
			PackageLicenseConcluded: license,
			PackageCopyrightText:    noAssertion,
			PackageExternalReferences: []*spdx23.PackageExternalReference{{
				Category: common.CategoryPackageManager,
				RefType:  "purl",
				Locator:  purl(m),
			}},
		}
		if len(m.LicenseFiles) > 0 {
			pkg.PackageComment = "license files: " + strings.Join(m.LicenseFiles, ", ")
		}
		doc.Packages = append(doc.Packages, pkg)
	}
	doc.Relationships = spdxRelationships(doc.Packages, mods)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode SPDX: %w", err)
	}
	return nil
}

// spdxRelationships makes the document describe the main module, which
// depends on every vendored one. Without a main module the document
// describes each package directly.
func spdxRelationships(pkgs []*spdx23.Package, mods []domain.ModuleLicense) []*spdx23.Relationship {
	doc := common.MakeDocElementID("", "DOCUMENT")
	var main *spdx23.Package
	for i, m := range mods {
		if m.Dir == "." {
			main = pkgs[i]
		}
	}

	var rels []*spdx23.Relationship
	for _, p := range pkgs {
		ref := common.MakeDocElementID("", string(p.PackageSPDXIdentifier))
		switch {
		case main == nil, p == main:
			rels = append(rels, &spdx23.Relationship{RefA: doc, RefB: ref, Relationship: "DESCRIBES"})
		default:
			mainRef := common.MakeDocElementID("", string(main.PackageSPDXIdentifier))
			rels = append(rels, &spdx23.Relationship{RefA: mainRef, RefB: ref, Relationship: "DEPENDS_ON"})
		}
	}
	return rels
}

// cdxLicenses uses a license ID for a single SPDX identifier, a name for
// user-defined references and an expression otherwise.
func cdxLicenses(expr string) *cdx.Licenses {
	switch {
	case expr == "":
		return nil
	case strings.ContainsAny(expr, " ()"):
		return &cdx.Licenses{{Expression: expr}}
	case licensing.IsKnownLicense(expr):
		return &cdx.Licenses{{License: &cdx.License{ID: expr}}}
	}
	return &cdx.Licenses{{License: &cdx.License{Name: expr}}}
}

func writeCycloneDX(w io.Writer, meta Metadata, mods []domain.ModuleLicense) error {
	bom := cdx.NewBOM()
	bom.SerialNumber = "urn:uuid:" + documentID(meta, mods).String()
	bom.Version = 1
	bom.Metadata = &cdx.Metadata{
		Timestamp: meta.Created.UTC().Format(time.RFC3339),
		Tools: &cdx.ToolsChoice{
			Components: &[]cdx.Component{{Type: cdx.ComponentTypeApplication, Name: meta.Tool}},
		},
	}

	components := make([]cdx.Component, 0, len(mods))
	for _, m := range mods {
		c := cdx.Component{
			Type:       cdx.ComponentTypeLibrary,
			BOMRef:     purl(m),
			Name:       m.Path,
			Version:    m.Version,
			PackageURL: purl(m),
			Licenses:   cdxLicenses(m.Expression),
		}
		if len(m.LicenseFiles) > 0 {
			c.Properties = &[]cdx.Property{{Name: "go-vendor-tools:license_files", Value: strings.Join(m.LicenseFiles, ",")}}
		}
		if m.Dir == "." {
			c.Type = cdx.ComponentTypeApplication
			main := c
			bom.Metadata.Component = &main
			continue
		}
		components = append(components, c)
	}
	bom.Components = &components

	encoder := cdx.NewBOMEncoder(w, cdx.BOMFileFormatJSON)
	encoder.SetPretty(true)
	if err := encoder.Encode(bom); err != nil {
		return fmt.Errorf("encode CycloneDX: %w", err)
	}
	return nil
}
