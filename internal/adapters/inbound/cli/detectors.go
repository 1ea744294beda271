package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/detector"
)

func newDetectorsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "detectors",
		Short: "List license detectors and whether they can run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.setup(cmd)
			if err != nil {
				return err
			}
			reg, err := g.loadDetectors(e)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, g.renderer(out).RenderDetectors(reg.Available, reg.Missing, detector.Names()))
			return nil
		},
	}
}
