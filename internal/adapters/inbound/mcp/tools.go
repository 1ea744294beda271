package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/config"
	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/detector"
	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/gomod"
	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/overrides"
	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/store"
	"github.com/go-vendor-tools/go-vendor-tools/internal/application"
	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
	"github.com/go-vendor-tools/go-vendor-tools/internal/domain/licensing"
)

// registerTools registers the license tools on the given server.
func registerTools(s *server.MCPServer, h *handlers) {
	// 1. license_report
	s.AddTool(
		mcplib.NewTool("license_report",
			mcplib.WithDescription("Detect the licenses in the tree and return the report (license map, warnings, combined expression and status) as JSON"),
			mcplib.WithBoolean("ignore_undetected", mcplib.Description("Do not count undetected license files as a failure")),
			mcplib.WithBoolean("ignore_unlicensed_mods", mcplib.Description("Skip the check for vendored modules without license files")),
			mcplib.WithString("verify", mcplib.Description("Expected SPDX expression to compare against")),
		),
		h.report,
	)

	// 2. license_simplify
	s.AddTool(
		mcplib.NewTool("license_simplify",
			mcplib.WithDescription("Simplify an SPDX license expression to its canonical form"),
			mcplib.WithString("expression",
				mcplib.Required(),
				mcplib.Description("SPDX license expression"),
			),
			mcplib.WithBoolean("strict", mcplib.Description("Reject identifiers that are not on the SPDX license list")),
		),
		h.simplify,
	)

	// 3. license_compare
	s.AddTool(
		mcplib.NewTool("license_compare",
			mcplib.WithDescription("Check whether two SPDX license expressions are equivalent"),
			mcplib.WithString("a", mcplib.Required(), mcplib.Description("First expression")),
			mcplib.WithString("b", mcplib.Required(), mcplib.Description("Second expression")),
		),
		h.compare,
	)

	// 4. license_find_files
	s.AddTool(
		mcplib.NewTool("license_find_files",
			mcplib.WithDescription("List license, notice and REUSE files in the tree without detecting their licenses"),
		),
		h.findFiles,
	)
}

// handlers serves the tool calls. Each call reloads the configuration and
// detector for the configured directory.
type handlers struct {
	opts Options
}

// env loads the configuration and detector for one request.
func (h *handlers) env() (domain.Config, domain.Detector, error) {
	cfg, err := config.New().Load(h.opts.ConfigPath)
	if err != nil {
		return domain.Config{}, nil, err
	}
	reg, err := detector.Load(h.opts.DetectorConfig, cfg.Licensing, detector.WithLogger(h.opts.Logger))
	if err != nil {
		return domain.Config{}, nil, err
	}
	name := h.opts.Detector
	if name == "" {
		name = cfg.Licensing.Detector
	}
	det, err := reg.Choose(name)
	if err != nil {
		return domain.Config{}, nil, err
	}
	return cfg, det, nil
}

func (h *handlers) report(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	cfg, det, err := h.env()
	if err != nil {
		return errorResult(err.Error()), nil
	}
	svc := application.NewReportService(det, gomod.New(), overrides.NewHasher(), store.New(), config.New(), h.opts.Logger)
	rep, err := svc.Run(ctx, application.ReportOptions{
		Directory:            h.opts.Directory,
		Config:               cfg,
		Verify:               request.GetString("verify", ""),
		IgnoreUndetected:     request.GetBool("ignore_undetected", false),
		IgnoreUnlicensedMods: request.GetBool("ignore_unlicensed_mods", false),
	})
	if err != nil {
		return errorResult(fmt.Sprintf("report failed: %v", err)), nil
	}
	return jsonResult(rep)
}

func (h *handlers) simplify(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	expr, err := request.RequireString("expression")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	opts := licensing.Lenient
	if request.GetBool("strict", false) {
		opts = licensing.Strict
	}
	simplified, err := licensing.Simplify(expr, opts)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(simplified), nil
}

func (h *handlers) compare(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	a, err := request.RequireString("a")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	b, err := request.RequireString("b")
	if err != nil {
		return errorResult(err.Error()), nil
	}
	equal, err := licensing.Compare(a, b)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(map[string]bool{"equivalent": equal})
}

func (h *handlers) findFiles(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	_, det, err := h.env()
	if err != nil {
		return errorResult(err.Error()), nil
	}
	files, err := det.FindLicenseFiles(ctx, h.opts.Directory)
	if err != nil {
		return errorResult(fmt.Sprintf("finding license files: %v", err)), nil
	}
	return jsonResult(files)
}

// jsonResult marshals v as indented JSON into a tool result.
func jsonResult(v any) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(string(data))},
	}, nil
}

func textResult(text string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(text)},
	}
}

// errorResult returns a tool result that indicates an error occurred.
func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(msg)},
		IsError: true,
	}
}
