// Command x402-mcp runs the x402 MCP tool host over stdio.
//
// Configuration comes from the environment, read once at startup:
//
//	X402_PRIVATE_KEY     payment key (hex for EVM, base58 for Solana), required
//	X402_NETWORK         network identifier (default "base")
//	X402_FACILITATOR_URL facilitator base URL for discovery
//	X402_TIMEOUT         per-request timeout, e.g. "30s"
//	X402_MAX_AMOUNT      per-payment cap in atomic units
//	X402_LOG_LEVEL       debug, info, warn, or error (default "info")
package main

import (
	"log/slog"
	"math/big"
	"os"
	"time"

	x402 "github.com/protagolabs/x402-mcp"
	"github.com/protagolabs/x402-mcp/mcp"
	"github.com/protagolabs/x402-mcp/signers/evm"
	"github.com/protagolabs/x402-mcp/signers/svm"
)

const defaultFacilitatorURL = "https://x402.org/facilitator"

func main() {
	logger := newLogger(os.Getenv("X402_LOG_LEVEL"))

	config, err := loadConfig(logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	server, err := mcp.NewServer(config)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	logger.Info("serving MCP tools on stdio",
		"network", config.Signer.Network(),
		"facilitator", config.FacilitatorURL)

	if err := server.ServeStdio(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func loadConfig(logger *slog.Logger) (*mcp.Config, error) {
	privateKey := os.Getenv("X402_PRIVATE_KEY")
	if privateKey == "" {
		return nil, errMissingKey
	}

	network := os.Getenv("X402_NETWORK")
	if network == "" {
		network = x402.NetworkBase
	}

	facilitatorURL := os.Getenv("X402_FACILITATOR_URL")
	if facilitatorURL == "" {
		facilitatorURL = defaultFacilitatorURL
	}

	var timeout time.Duration
	if raw := os.Getenv("X402_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, errBadTimeout
		}
		timeout = d
	}

	var maxAmount *big.Int
	if raw := os.Getenv("X402_MAX_AMOUNT"); raw != "" {
		amount, err := x402.ParseAmount(raw)
		if err != nil {
			return nil, errBadMaxAmount
		}
		maxAmount = amount
	}

	signer, err := newSigner(network, privateKey, maxAmount)
	if err != nil {
		return nil, err
	}

	return &mcp.Config{
		Name:           "x402-mcp",
		Version:        "1.0.0",
		FacilitatorURL: facilitatorURL,
		Signer:         signer,
		Timeout:        timeout,
		MaxAmount:      maxAmount,
		Logger:         logger,
	}, nil
}

// newSigner builds the signer matching the network's virtual machine type.
func newSigner(network, privateKey string, maxAmount *big.Int) (x402.Signer, error) {
	switch x402.NetworkTypeOf(network) {
	case x402.NetworkTypeEVM:
		var opts []evm.Option
		if maxAmount != nil {
			opts = append(opts, evm.WithMaxAmount(maxAmount))
		}
		return evm.NewSigner(network, privateKey, nil, opts...)
	case x402.NetworkTypeSVM:
		var opts []svm.Option
		if maxAmount != nil {
			opts = append(opts, svm.WithMaxAmount(maxAmount))
		}
		return svm.NewSigner(network, privateKey, nil, opts...)
	default:
		return nil, x402.NewPaymentError(x402.ErrCodeValidation, "unsupported network: "+network, x402.ErrInvalidNetwork)
	}
}

// newLogger builds a JSON logger on stderr. Stdout belongs to the MCP
// protocol and must stay clean.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

var (
	errMissingKey   = x402.NewPaymentError(x402.ErrCodeValidation, "X402_PRIVATE_KEY must be set", x402.ErrInvalidKey)
	errBadTimeout   = x402.NewPaymentError(x402.ErrCodeValidation, "X402_TIMEOUT must be a positive duration", x402.ErrValidation)
	errBadMaxAmount = x402.NewPaymentError(x402.ErrCodeValidation, "X402_MAX_AMOUNT must be a non-negative integer", x402.ErrValidation)
)
