package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	cacheAdapter "github.com/mapaudit/mapaudit/internal/adapters/outbound/cache"
	configAdapter "github.com/mapaudit/mapaudit/internal/adapters/outbound/config"
	"github.com/mapaudit/mapaudit/internal/adapters/outbound/discovery"
	"github.com/mapaudit/mapaudit/internal/adapters/outbound/gitinfo"
	indexAdapter "github.com/mapaudit/mapaudit/internal/adapters/outbound/index"
	"github.com/mapaudit/mapaudit/internal/adapters/outbound/mapparser"
	"github.com/mapaudit/mapaudit/internal/application"
	"github.com/mapaudit/mapaudit/internal/domain"
	"github.com/mapaudit/mapaudit/internal/domain/validate"
)

// registerTools registers all mapaudit MCP tools on the given server.
func registerTools(s *server.MCPServer, projectPath string) {
	// 1. mapaudit_audit
	s.AddTool(
		mcplib.NewTool("mapaudit_audit",
			mcplib.WithDescription("Run the full system-map audit and return the AuditResult as JSON"),
		),
		handleAudit(projectPath),
	)

	// 2. mapaudit_list_maps
	s.AddTool(
		mcplib.NewTool("mapaudit_list_maps",
			mcplib.WithDescription("List discovered system-map documents under the project root"),
		),
		handleListMaps(projectPath),
	)

	// 3. mapaudit_validate_map
	s.AddTool(
		mcplib.NewTool("mapaudit_validate_map",
			mcplib.WithDescription("Parse and validate a single system-map file, returning its issues"),
			mcplib.WithString("file",
				mcplib.Required(),
				mcplib.Description("Path to the map file, relative to the project root"),
			),
		),
		handleValidateMap(projectPath),
	)
}

// newService wires the standard outbound adapters for one tool call.
func newService(cfg domain.AuditConfig) *application.AuditService {
	var indexCache domain.IndexCache
	if cfg.Performance.CacheEnabled {
		indexCache = cacheAdapter.New()
	}
	return application.NewAuditService(
		discovery.New(),
		mapparser.New(),
		indexAdapter.New(indexCache, zap.NewNop()),
		gitinfo.New(),
		zap.NewNop(),
	)
}

func resolveConfig(projectPath string) (domain.AuditConfig, error) {
	return configAdapter.Resolve(configAdapter.New(), projectPath, domain.ConfigOverlay{})
}

func handleAudit(projectPath string) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		cfg, err := resolveConfig(projectPath)
		if err != nil {
			return errorResult(fmt.Sprintf("loading config: %v", err)), nil
		}
		result, err := newService(cfg).Audit(ctx, projectPath, cfg)
		if err != nil {
			return errorResult(fmt.Sprintf("audit failed: %v", err)), nil
		}
		return jsonResult(result)
	}
}

func handleListMaps(projectPath string) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		cfg, err := resolveConfig(projectPath)
		if err != nil {
			return errorResult(fmt.Sprintf("loading config: %v", err)), nil
		}
		maps, err := discovery.New().Discover(ctx, projectPath, cfg.Scanning)
		if err != nil {
			return errorResult(fmt.Sprintf("discovery failed: %v", err)), nil
		}
		return jsonResult(map[string]any{"maps": maps})
	}
}

func handleValidateMap(projectPath string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		file, err := request.RequireString("file")
		if err != nil {
			return errorResult(err.Error()), nil
		}

		cfg, err := resolveConfig(projectPath)
		if err != nil {
			return errorResult(fmt.Sprintf("loading config: %v", err)), nil
		}

		index, err := indexAdapter.New(nil, zap.NewNop()).Build(ctx, projectPath, cfg.Scanning)
		if err != nil {
			return errorResult(fmt.Sprintf("building index: %v", err)), nil
		}

		systemMap, manifest, issues := mapparser.New().Parse(filepath.Join(projectPath, file), projectPath)
		if systemMap != nil {
			issues = append(issues, validate.Components(systemMap, index, cfg)...)
			issues = append(issues, validate.API(systemMap, index, cfg)...)
			issues = append(issues, validate.Flows(systemMap, index, cfg)...)
		}

		type singleMapReport struct {
			File     string               `json:"file"`
			Map      *domain.SystemMap    `json:"map,omitempty"`
			Manifest *domain.RootManifest `json:"manifest,omitempty"`
			Issues   []domain.Issue       `json:"issues"`
		}
		return jsonResult(singleMapReport{File: file, Map: systemMap, Manifest: manifest, Issues: issues})
	}
}

// jsonResult marshals v to JSON and returns it as a text content result.
func jsonResult(v interface{}) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(string(data))},
	}, nil
}

// errorResult returns a tool result that indicates an error occurred.
func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(msg)},
		IsError: true,
	}
}
