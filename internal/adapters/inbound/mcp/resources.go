package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/config"
	"github.com/go-vendor-tools/go-vendor-tools/internal/adapters/outbound/detector"
)

const (
	detectorsURI = "go-vendor-license://detectors"
	configURI    = "go-vendor-license://config"
)

type detectorStatus struct {
	Name      string   `json:"name"`
	Available bool     `json:"available"`
	Packages  []string `json:"packages,omitempty"`
	Reason    string   `json:"reason,omitempty"`
}

func registerResources(s *server.MCPServer, h *handlers) {
	s.AddResource(
		mcplib.NewResource(
			detectorsURI,
			"Detectors",
			mcplib.WithResourceDescription("License detector backends and why unavailable ones cannot run"),
			mcplib.WithMIMEType("application/json"),
		),
		h.detectorsResource,
	)

	s.AddResource(
		mcplib.NewResource(
			configURI,
			"Configuration",
			mcplib.WithResourceDescription("Effective go-vendor-tools configuration with defaults applied"),
			mcplib.WithMIMEType("application/json"),
		),
		h.configResource,
	)
}

func (h *handlers) detectors() ([]detectorStatus, error) {
	cfg, err := config.New().Load(h.opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	reg, err := detector.Load(h.opts.DetectorConfig, cfg.Licensing, detector.WithLogger(h.opts.Logger))
	if err != nil {
		return nil, err
	}
	var out []detectorStatus
	for _, spec := range detector.Known {
		st := detectorStatus{Name: spec.Name, Packages: spec.PackagesNeeded}
		if reason, ok := reg.Missing[spec.Name]; ok {
			st.Reason = reason.Error()
		} else {
			st.Available = true
		}
		out = append(out, st)
	}
	return out, nil
}

func (h *handlers) detectorsResource(_ context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	statuses, err := h.detectors()
	if err != nil {
		return nil, fmt.Errorf("loading detectors: %w", err)
	}
	return jsonResource(detectorsURI, statuses)
}

func (h *handlers) configResource(_ context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	cfg, err := config.New().Load(h.opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return jsonResource(configURI, cfg)
}

func jsonResource(uri string, v any) ([]mcplib.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
