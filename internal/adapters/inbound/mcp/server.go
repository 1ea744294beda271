// Package mcp exposes license detection over the Model Context Protocol so
// that coding assistants can query the licensing state of a vendored tree.
package mcp

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/server"
)

// Options selects the tree and detector the server works on.
type Options struct {
	// Directory is the module root with go.mod and vendor/.
	Directory  string
	ConfigPath string
	// Detector is the backend name; empty picks the configured or first
	// available one.
	Detector       string
	DetectorConfig map[string]string
	Version        string
	Logger         *log.Logger
}

// NewServer creates an MCP server with every license tool and resource
// registered.
func NewServer(opts Options) *server.MCPServer {
	if opts.Directory == "" {
		opts.Directory = "."
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	s := server.NewMCPServer(
		"go-vendor-license",
		opts.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	h := &handlers{opts: opts}
	registerTools(s, h)
	registerResources(s, h)

	return s
}
