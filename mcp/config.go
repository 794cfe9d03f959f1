// Package mcp exposes the x402 buyer workflow as an MCP tool host with
// two tools: discovery_resource for browsing the Bazaar catalog and
// call_service for paying and calling x402-protected endpoints.
package mcp

import (
	"log/slog"
	"math/big"
	"time"

	x402 "github.com/protagolabs/x402-mcp"
)

// Config configures the tool host.
type Config struct {
	// Name is the MCP server name announced to clients.
	Name string

	// Version is the MCP server version announced to clients.
	Version string

	// FacilitatorURL is the facilitator base URL used for discovery.
	FacilitatorURL string

	// Signer produces payment authorizations. The server identity is
	// fixed at startup; tool calls never carry key material.
	Signer x402.Signer

	// Timeout bounds each outbound HTTP request. Zero means
	// x402.DefaultRequestTimeout.
	Timeout time.Duration

	// MaxAmount caps the per-payment amount in atomic units, on top of
	// any limit the signer itself enforces. Nil means no extra cap.
	MaxAmount *big.Int

	// Logger receives structured logs. Nil means slog.Default().
	Logger *slog.Logger
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return x402.DefaultRequestTimeout
}
