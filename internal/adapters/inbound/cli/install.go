package cli

import (
	"github.com/spf13/cobra"

	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/store"
	"github.com/go-vendor-tools/go-vendor-tools/internal/application"
)

func newInstallCmd(g *globalFlags) *cobra.Command {
	var (
		installDir string
		destDir    string
		fileList   string
		readJSON   string
	)

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install license files into a package's license directory",
		Long:  "Copy every detected license file into DESTDIR/INSTALL_DIRECTORY, keeping paths relative to the source tree, and write an RPM %license file list.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.setup(cmd)
			if err != nil {
				return err
			}
			det, err := g.chooseDetector(cmd, e)
			if err != nil {
				return err
			}
			svc := application.NewInstallService(det, store.New(), e.logger)
			files, err := svc.Install(cmd.Context(), application.InstallOptions{
				Directory:  e.directory,
				ReadJSON:   readJSON,
				DestDir:    destDir,
				InstallDir: installDir,
				FileList:   fileList,
			})
			if err != nil {
				return err
			}
			e.logger.Info("installed license files", "count", len(files), "filelist", fileList)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&installDir, "install-directory", "", "Absolute license directory, e.g. %{_licensedir}/NAME")
	f.StringVar(&destDir, "destdir", "/", "Staging root, e.g. %{buildroot}")
	f.StringVar(&fileList, "filelist", "", "File that receives the %license file list")
	f.StringVar(&readJSON, "read-json", "", "Read license data from a JSON file written by report --write-json")
	_ = cmd.MarkFlagRequired("install-directory")
	_ = cmd.MarkFlagRequired("filelist")

	return cmd
}
