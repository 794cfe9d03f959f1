package mcp

import (
	"context"
	"encoding/json"
	"math"
	"math/big"

	mcpproto "github.com/mark3labs/mcp-go/mcp"

	x402 "github.com/protagolabs/x402-mcp"
	"github.com/protagolabs/x402-mcp/discovery"
	x402http "github.com/protagolabs/x402-mcp/http"
)

// handleDiscoveryResource serves the discovery_resource tool. Failures
// are reported inside the JSON result so agent frameworks that discard
// protocol errors still see them.
func (s *Server) handleDiscoveryResource(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	logger := s.config.logger()
	args := req.GetArguments()

	opts := discovery.ListOptions{
		Limit:  discovery.DefaultLimit,
		Offset: 0,
	}
	if t, ok := args["type"].(string); ok {
		opts.Type = t
	}
	if limit, ok := args["limit"].(float64); ok && limit > 0 {
		opts.Limit = int(limit)
	}
	if offset, ok := args["offset"].(float64); ok && offset > 0 {
		opts.Offset = int(offset)
	}

	filter := discovery.Filter{}
	if asset, ok := args["asset"].(string); ok {
		filter.Asset = asset
	}
	if raw, ok := args["max_price"]; ok && raw != nil {
		price, err := parseMaxPrice(raw)
		if err != nil {
			return errorResult("max_price must be a non-negative integer in atomic units"), nil
		}
		filter.MaxPrice = price
	}

	if s.config.FacilitatorURL == "" {
		return errorResult("facilitator URL is not configured"), nil
	}

	client := discovery.NewClient(s.config.FacilitatorURL)
	client.HTTPClient.Timeout = s.config.timeout()

	list, err := client.ListResources(ctx, opts)
	if err != nil {
		logger.ErrorContext(ctx, "discovery failed", "error", err)
		return errorResult(err.Error()), nil
	}

	filter.Apply(list)
	logger.InfoContext(ctx, "discovery completed",
		"items", len(list.Items), "total", list.Pagination.Total)

	return jsonResult(list), nil
}

// handleCallService serves the call_service tool. The response is always
// a JSON object: {"result": ..., "hash": ...} on success, {"error": ...}
// on failure.
func (s *Server) handleCallService(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	logger := s.config.logger()
	args := req.GetArguments()

	resource, _ := args["resource"].(string)
	method, _ := args["method"].(string)
	input, _ := args["input_data"].(map[string]interface{})

	network := s.config.Signer.Network()
	if override, ok := args["custom_network_filter"].(string); ok && override != "" {
		network = override
	}

	logger = logger.With("resource", resource, "network", network)

	client, err := s.newPaymentClient(network)
	if err != nil {
		logger.ErrorContext(ctx, "failed to create payment client", "error", err)
		return errorResult(err.Error()), nil
	}

	result, err := client.CallService(ctx, x402http.ServiceRequest{
		Resource: resource,
		Method:   method,
		Input:    input,
	})
	if err != nil {
		logger.ErrorContext(ctx, "service call failed", "error", err)
		return errorResult(err.Error()), nil
	}

	if result.SettlementWarning != nil {
		logger.WarnContext(ctx, "settlement receipt could not be decoded",
			"error", result.SettlementWarning)
	}

	// Pass JSON bodies through structured; anything else stays a string.
	var body interface{}
	if err := json.Unmarshal([]byte(result.Body), &body); err != nil {
		body = result.Body
	}

	// A free resource has no receipt; the hash is null, not "".
	var hash interface{}
	if result.Settlement != nil {
		hash = result.Settlement.Transaction
	}

	return jsonResult(map[string]interface{}{
		"result": body,
		"hash":   hash,
	}), nil
}

// newPaymentClient builds a fresh payment client for one call. Payment
// state is never shared between calls.
func (s *Server) newPaymentClient(network string) (*x402http.Client, error) {
	logger := s.config.logger()

	filter := x402.RequirementFilter{Network: network}
	if s.config.MaxAmount != nil {
		filter.MaxValue = new(big.Int).Set(s.config.MaxAmount)
	}

	return x402http.NewClient(
		x402http.WithSigner(s.config.Signer),
		x402http.WithFilter(filter),
		x402http.WithTimeout(s.config.timeout()),
		x402http.WithPaymentCallbacks(
			func(event x402.PaymentEvent) {
				logger.Info("payment attempt",
					"url", event.URL, "network", event.Network,
					"amount", event.Amount, "asset", event.Asset,
					"recipient", event.Recipient)
			},
			func(event x402.PaymentEvent) {
				logger.Info("payment settled",
					"url", event.URL, "network", event.Network,
					"transaction", event.Transaction,
					"duration", event.Duration)
			},
			func(event x402.PaymentEvent) {
				logger.Error("payment failed",
					"url", event.URL, "network", event.Network,
					"error", event.Error)
			},
		),
	)
}

// parseMaxPrice converts the max_price argument to atomic units. JSON
// numbers arrive as float64; decimal strings are accepted as well for
// amounts beyond float precision.
func parseMaxPrice(raw interface{}) (*big.Int, error) {
	switch v := raw.(type) {
	case float64:
		if v < 0 || v != math.Trunc(v) {
			return nil, x402.NewPaymentError(x402.ErrCodeValidation, "max_price must be a non-negative integer", x402.ErrValidation)
		}
		return new(big.Int).SetInt64(int64(v)), nil
	case string:
		if v == "" {
			return nil, nil
		}
		return x402.ParseAmount(v)
	default:
		return nil, x402.NewPaymentError(x402.ErrCodeValidation, "max_price must be a number", x402.ErrValidation)
	}
}

func jsonResult(v interface{}) *mcpproto.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult("failed to encode result")
	}
	return &mcpproto.CallToolResult{
		Content: []mcpproto.Content{
			mcpproto.NewTextContent(string(data)),
		},
	}
}

func errorResult(message string) *mcpproto.CallToolResult {
	data, _ := json.Marshal(map[string]string{"error": message})
	return &mcpproto.CallToolResult{
		Content: []mcpproto.Content{
			mcpproto.NewTextContent(string(data)),
		},
	}
}
