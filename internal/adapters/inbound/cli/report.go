package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/config"
	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/gomod"
	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/overrides"
	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/store"
	"github.com/go-vendor-tools/go-vendor-tools/internal/application"
	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
)

func newReportCmd(g *globalFlags) *cobra.Command {
	var (
		verify           string
		verifyAdvisory   bool
		ignoreUndetected bool
		ignoreUnlicensed bool
		ignoreUnmatched  bool
		prompt           bool
		writeJSON        string
		readJSON         string
		writeConfig      bool
		jsonOutput       bool
	)

	cmd := &cobra.Command{
		Use:       "report [all|expression|list]",
		Short:     "Detect licenses and print the combined SPDX expression",
		Long:      "Detect the license of every license file in the tree, report files and modules that need attention, and print the combined SPDX expression. The exit status is a bit set of the problems found.",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(domain.ReportAll), string(domain.ReportExpression), string(domain.ReportList)},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := domain.ReportAll
			if len(args) > 0 {
				m, err := domain.ParseReportMode(args[0])
				if err != nil {
					return err
				}
				mode = m
			}

			e, err := g.setup(cmd)
			if err != nil {
				return err
			}
			det, err := g.chooseDetector(cmd, e)
			if err != nil {
				return err
			}

			opts := application.ReportOptions{
				Directory:            e.directory,
				Config:               e.config,
				ConfigPath:           g.configPath,
				ReadJSON:             readJSON,
				WriteJSON:            writeJSON,
				WriteConfig:          writeConfig,
				Verify:               verify,
				VerifyAdvisory:       verifyAdvisory,
				IgnoreUndetected:     ignoreUndetected,
				IgnoreUnlicensedMods: ignoreUnlicensed,
				IgnoreUnmatched:      ignoreUnmatched,
			}
			if prompt {
				opts.Prompter = prompter(cmd)
			}

			svc := application.NewReportService(det, gomod.New(), overrides.NewHasher(), store.New(), config.New(), e.logger)
			rep, err := svc.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				if err := renderJSON(out, rep); err != nil {
					return err
				}
			} else {
				fmt.Fprint(out, g.renderer(out).RenderReport(rep, mode))
			}
			if rep.Expected != "" && !rep.Verified {
				errOut := cmd.ErrOrStderr()
				fmt.Fprint(errOut, g.renderer(errOut).RenderVerifyFailure(rep.Expected))
			}
			return application.Err(rep.Status)
		},
	}

	f := cmd.Flags()
	f.StringVar(&verify, "verify", "", "Verify that the combined expression matches `EXPRESSION`")
	f.BoolVar(&verifyAdvisory, "verify-advisory", false, "Report a --verify mismatch without failing")
	f.BoolVarP(&ignoreUndetected, "ignore-undetected", "i", false, "Do not report license files whose license could not be determined")
	f.BoolVarP(&ignoreUnlicensed, "ignore-unlicensed-mods", "L", false, "Do not report Go modules without license files")
	f.BoolVar(&ignoreUnmatched, "ignore-unmatched", false, "Do not fail on configured license entries whose file changed")
	f.BoolVar(&prompt, "prompt", false, "Prompt for the license of each undetected file and save the answers to --config")
	f.StringVar(&writeJSON, "write-json", "", "Write license data to a JSON file")
	f.StringVar(&readJSON, "read-json", "", "Read license data from a JSON file written by --write-json instead of detecting")
	f.BoolVar(&writeConfig, "write-config", false, "Record the detector in the file given by --config")
	f.BoolVar(&jsonOutput, "json", false, "Print the report as JSON")
	cmd.MarkFlagsMutuallyExclusive("write-json", "read-json")

	return cmd
}
