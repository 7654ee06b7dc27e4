package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// registerResources registers all mapaudit MCP resources on the given server.
func registerResources(s *server.MCPServer, projectPath string) {
	// 1. mapaudit://config - the resolved configuration
	s.AddResource(
		mcplib.NewResource(
			"mapaudit://config",
			"Audit Configuration",
			mcplib.WithResourceDescription("The layered configuration the audit will run with"),
			mcplib.WithMIMEType("application/json"),
		),
		handleConfigResource(projectPath),
	)

	// 2. mapaudit://result - a fresh audit result
	s.AddResource(
		mcplib.NewResource(
			"mapaudit://result",
			"Audit Result",
			mcplib.WithResourceDescription("The result of auditing the project's system maps right now"),
			mcplib.WithMIMEType("application/json"),
		),
		handleResultResource(projectPath),
	)
}

func handleConfigResource(projectPath string) server.ResourceHandlerFunc {
	return func(_ context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		cfg, err := resolveConfig(projectPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling config: %w", err)
		}
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      "mapaudit://config",
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	}
}

func handleResultResource(projectPath string) server.ResourceHandlerFunc {
	return func(ctx context.Context, _ mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
		cfg, err := resolveConfig(projectPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		result, err := newService(cfg).Audit(ctx, projectPath, cfg)
		if err != nil {
			return nil, fmt.Errorf("audit failed: %w", err)
		}
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling result: %w", err)
		}
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      "mapaudit://result",
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	}
}
