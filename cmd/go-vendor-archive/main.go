// Command go-vendor-archive packs a vendored Go module into a reproducible
// archive.
package main

import (
	"os"

	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/inbound/cli"
)

func main() {
	if err := cli.ExecuteArchive(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
