// Command go-vendor-license detects the licenses of a Go module and its
// vendor directory and combines them into one SPDX expression.
package main

import (
	"os"

	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/inbound/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
