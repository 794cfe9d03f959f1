package x402

import "math/big"

// Signer creates signed payment payloads for a specific network.
// Implementations handle blockchain-specific signing for EVM
// (Ethereum-compatible chains) and SVM (Solana) networks.
type Signer interface {
	// Network returns the network identifier the signer pays on (e.g., "base").
	Network() string

	// Scheme returns the payment scheme identifier (e.g., "exact").
	Scheme() string

	// CanSign checks if this signer can satisfy the given payment requirement.
	// Returns true if the signer supports the required network, scheme, and token.
	CanSign(req *PaymentRequirement) bool

	// Sign creates a signed PaymentPayload for the given requirement.
	// Returns an error if signing fails or the payment exceeds configured limits.
	Sign(req *PaymentRequirement) (*PaymentPayload, error)

	// GetTokens returns the list of tokens supported by this signer.
	GetTokens() []TokenConfig

	// GetMaxAmount returns the per-call spending limit, or nil if no limit is set.
	GetMaxAmount() *big.Int
}
