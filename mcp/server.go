package mcp

import (
	"fmt"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Server is the MCP tool host. It owns a fixed payment identity and
// exposes the discovery and service-call tools over stdio.
type Server struct {
	mcpServer *mcpserver.MCPServer
	config    *Config
}

// NewServer creates the tool host and registers its tools. The config
// must carry a signer; discovery additionally needs a facilitator URL but
// its absence only fails the discovery tool, not startup.
func NewServer(config *Config) (*Server, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if config.Signer == nil {
		return nil, fmt.Errorf("a payment signer is required")
	}
	if config.Name == "" {
		config.Name = "x402-mcp"
	}
	if config.Version == "" {
		config.Version = "1.0.0"
	}

	s := &Server{
		mcpServer: mcpserver.NewMCPServer(config.Name, config.Version,
			mcpserver.WithToolCapabilities(false)),
		config: config,
	}

	discoveryTool := mcpproto.NewTool(
		"discovery_resource",
		mcpproto.WithDescription("List x402-protected resources from the facilitator's Bazaar catalog, optionally filtered by asset and maximum price"),
		mcpproto.WithString("type", mcpproto.Description("Resource type to filter by (e.g., \"http\")")),
		mcpproto.WithNumber("limit", mcpproto.Description("Maximum number of items to return (default 100)")),
		mcpproto.WithNumber("offset", mcpproto.Description("Number of items to skip")),
		mcpproto.WithString("asset", mcpproto.Description("Only include resources payable in this asset (contract or mint address)")),
		mcpproto.WithNumber("max_price", mcpproto.Description("Only include resources with a payment option at or below this amount, in atomic units")),
	)
	s.mcpServer.AddTool(discoveryTool, s.handleDiscoveryResource)

	callTool := mcpproto.NewTool(
		"call_service",
		mcpproto.WithDescription("Call an x402-protected HTTP endpoint, automatically paying for access when the server requires it"),
		mcpproto.WithString("resource", mcpproto.Required(), mcpproto.Description("Full URL of the resource, e.g. https://api.example.com/weather")),
		mcpproto.WithString("method", mcpproto.Required(), mcpproto.Description("HTTP method: get or post")),
		mcpproto.WithObject("input_data", mcpproto.Description("Request payload: query parameters for GET, JSON body for POST")),
		mcpproto.WithString("custom_network_filter", mcpproto.Description("Override the network used to select a payment option")),
	)
	s.mcpServer.AddTool(callTool, s.handleCallService)

	return s, nil
}

// ServeStdio runs the tool host on standard input and output until the
// client disconnects.
func (s *Server) ServeStdio() error {
	return mcpserver.ServeStdio(s.mcpServer)
}

// MCPServer returns the underlying MCP server for advanced usage.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}
