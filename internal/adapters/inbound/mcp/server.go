package mcp

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewMapauditMCPServer creates an MCP server with all mapaudit tools and
// resources registered. The projectPath is the root of the project whose
// system maps are audited.
func NewMapauditMCPServer(projectPath string) *server.MCPServer {
	s := server.NewMCPServer(
		"mapaudit",
		"0.1.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	registerTools(s, projectPath)
	registerResources(s, projectPath)

	return s
}
