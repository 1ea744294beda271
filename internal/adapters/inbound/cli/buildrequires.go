package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBuildRequiresCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "generate-buildrequires",
		Aliases: []string{"generate_buildrequires"},
		Short:   "Print the packages the license detector needs",
		Long:    "Print one package per line that must be installed to run the chosen detector. Without --detector the first installed detector is used, falling back to the preferred one.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.setup(cmd)
			if err != nil {
				return err
			}
			reg, err := g.loadDetectors(e)
			if err != nil {
				return err
			}
			pkgs, err := reg.PackagesFor(g.detectorName(e.config))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range pkgs {
				fmt.Fprintln(out, p)
			}
			return nil
		},
	}
}
