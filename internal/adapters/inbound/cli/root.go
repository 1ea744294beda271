package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/go-vendor-tools/go-vendor-tools/internal/application"
)

var (
	version = "dev"
	commit  = "none"
)

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	cmd := &cobra.Command{
		Use:           "go-vendor-license",
		Short:         "Handle licenses for vendored Go projects",
		Long:          "go-vendor-license detects the licenses of a Go module and everything under its vendor directory and combines them into one SPDX expression.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	g.register(cmd)
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newReportCmd(g))
	cmd.AddCommand(newExplicitCmd(g))
	cmd.AddCommand(newInstallCmd(g))
	cmd.AddCommand(newBuildRequiresCmd(g))
	cmd.AddCommand(newDetectorsCmd(g))
	cmd.AddCommand(newSBOMCmd(g))
	cmd.AddCommand(newMCPCmd(g))
	return cmd
}

// NewRootCmdForTest returns the go-vendor-license root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

// NewArchiveCmdForTest returns the go-vendor-archive root command for testing.
func NewArchiveCmdForTest() *cobra.Command {
	return newArchiveCmd()
}

// Execute runs go-vendor-license.
func Execute() error {
	return execute(newRootCmd())
}

// ExecuteArchive runs go-vendor-archive.
func ExecuteArchive() error {
	return execute(newArchiveCmd())
}

func execute(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		// a failed check has already been reported
		if _, ok := application.AsStatusError(err); !ok {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
	}
	return err
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if se, ok := application.AsStatusError(err); ok {
		return se.ExitCode()
	}
	return 1
}
