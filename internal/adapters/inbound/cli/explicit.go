package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/config"
	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/overrides"
	"github.com/go-vendor-tools/go-vendor-tools/internal/application"
)

func newExplicitCmd(g *globalFlags) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "explicit -f FILE EXPRESSION",
		Short: "Add a manual license entry to the configuration file",
		Long:  "Pin the license of FILE to EXPRESSION in the file given by --config. The entry records the file's SHA-256 so that later changes are reported. An empty EXPRESSION records that the file carries no license.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.setup(cmd)
			if err != nil {
				return err
			}
			svc := application.NewExplicitService(config.New(), overrides.NewHasher())
			entry, changed, err := svc.Run(application.ExplicitOptions{
				Directory:  e.directory,
				ConfigPath: g.configPath,
				File:       file,
				Expression: args[0],
			})
			if err != nil {
				return err
			}
			if !changed {
				e.logger.Debug("entry already present", "path", entry.Path)
				return nil
			}
			expr := entry.Expression
			if expr == "" {
				expr = "(no license)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", entry.Path, expr)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "License file to pin")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
