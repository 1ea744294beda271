package cli

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/config"
	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/fetch"
	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/gitinfo"
	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/runner"
	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/tarball"
	"github.com/go-vendor-tools/go-vendor-tools/internal/application"
)

// DefaultArchiveOutput is the archive written when -O is not given.
const DefaultArchiveOutput = "vendor.tar.xz"

func newArchiveCmd() *cobra.Command {
	var (
		output         string
		topLevelDir    bool
		useModuleProxy bool
		noModuleProxy  bool
		configPath     string
		verbose        bool
	)

	cmd := &cobra.Command{
		Use:   "go-vendor-archive PATH",
		Short: "Create a vendor archive for a Go module",
		Long: "Run go mod tidy and go mod vendor in PATH and pack go.mod, go.sum and vendor/ into a reproducible archive. " +
			"PATH may be a source directory or an archive of one, which is unpacked first. " +
			"The output format follows its extension: .tar.xz, .tar.gz, .tar.zst or .tar.",
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := tarball.CompressionFor(output); err != nil {
				return err
			}
			cfg, err := config.New().Load(configPath)
			if err != nil {
				return err
			}

			logger := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{Prefix: "go-vendor-archive"})
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}

			proxy := cfg.Archive.UseModuleProxy
			switch {
			case noModuleProxy:
				proxy = false
			case useModuleProxy:
				proxy = true
			}

			svc := application.NewArchiveService(
				runner.New(runner.WithLogger(logger)),
				tarball.New(),
				fetch.New(fetch.WithUserAgent("go-vendor-archive/"+version)),
				gitinfo.New(),
				logger,
			)
			err = svc.Create(cmd.Context(), application.ArchiveOptions{
				Path:           args[0],
				Output:         output,
				TopLevelDir:    topLevelDir,
				UseModuleProxy: proxy,
				Config:         cfg.Archive,
				Stdout:         cmd.OutOrStdout(),
				Stderr:         cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&output, "output", "O", DefaultArchiveOutput, "Archive to write")
	f.BoolVar(&topLevelDir, "top-level-dir", false, "Nest the archive entries under the source directory's name")
	f.BoolVarP(&useModuleProxy, "use-module-proxy", "p", false, "Download modules through proxy.golang.org (default from the configuration)")
	f.BoolVar(&noModuleProxy, "no-use-module-proxy", false, "Do not use the module proxy even if the configuration enables it")
	f.StringVarP(&configPath, "config", "c", "", "Path to the configuration file")
	f.BoolVarP(&verbose, "verbose", "v", false, "Log debug messages to stderr")
	cmd.MarkFlagsMutuallyExclusive("use-module-proxy", "no-use-module-proxy")

	return cmd
}
