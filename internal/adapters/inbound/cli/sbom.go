package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/gitinfo"
	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/gomod"
	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/sbom"
	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/store"
	"github.com/go-vendor-tools/go-vendor-tools/internal/application"
)

func newSBOMCmd(g *globalFlags) *cobra.Command {
	var (
		format      string
		output      string
		readJSON    string
		mainVersion string
	)

	cmd := &cobra.Command{
		Use:   "sbom",
		Short: "Export per-module licenses as an SPDX or CycloneDX document",
		Long:  "Write a software bill of materials with one package per vendored module and its combined license expression. Timestamps honor SOURCE_DATE_EPOCH so that equal trees give equal documents.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := sbom.ParseFormat(format)
			if err != nil {
				return err
			}
			e, err := g.setup(cmd)
			if err != nil {
				return err
			}
			det, err := g.chooseDetector(cmd, e)
			if err != nil {
				return err
			}

			svc := application.NewSBOMService(det, gomod.New(), store.New(), gitinfo.New(), e.logger)
			res, err := svc.Collect(cmd.Context(), application.SBOMOptions{
				Directory: e.directory,
				ReadJSON:  readJSON,
				Version:   mainVersion,
			})
			if err != nil {
				return err
			}
			meta := sbom.Metadata{
				Name:    res.MainModule,
				Version: res.Version,
				Tool:    "go-vendor-license-" + version,
				Created: res.Created,
			}

			if output == "" || output == "-" {
				return sbom.Write(cmd.OutOrStdout(), f, meta, res.Modules)
			}
			return writeFile(output, func(w io.Writer) error {
				return sbom.Write(w, f, meta, res.Modules)
			})
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&format, "format", string(sbom.FormatSPDX), "Document format: spdx or cyclonedx")
	fl.StringVarP(&output, "output", "o", "", "Write the document to a file instead of stdout")
	fl.StringVar(&readJSON, "read-json", "", "Read license data from a JSON file written by report --write-json")
	fl.StringVar(&mainVersion, "main-version", "", "Version of the main module (default: abbreviated HEAD commit)")

	return cmd
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
