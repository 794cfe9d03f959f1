// Package x402 implements the buyer side of the x402 payment protocol:
// typed payment requirements, payment payload construction, and the
// selection logic used when a server answers 402 Payment Required.
//
// The wire format follows x402 protocol version 1. Network identifiers use
// the v1 short names (e.g., "base", "base-sepolia", "solana").
//
// Import path: github.com/protagolabs/x402-mcp
package x402

import "math/big"

// X402Version is the protocol version this package speaks.
const X402Version = 1

// PaymentRequirement defines a single acceptable payment option.
// This is an element in the "accepts" array of a 402 response and of a
// Bazaar discovery entry.
type PaymentRequirement struct {
	// Scheme is the payment scheme identifier (e.g., "exact").
	Scheme string `json:"scheme"`

	// Network is the blockchain network identifier (e.g., "base").
	Network string `json:"network"`

	// MaxAmountRequired is the maximum payment amount in atomic units,
	// encoded as a decimal string. An empty string means zero.
	MaxAmountRequired string `json:"maxAmountRequired"`

	// Resource is the URL of the protected resource.
	Resource string `json:"resource"`

	// Description is an optional human-readable description.
	Description string `json:"description,omitempty"`

	// MimeType is the content type of the protected resource.
	MimeType string `json:"mimeType,omitempty"`

	// OutputSchema optionally documents the resource's response shape.
	OutputSchema map[string]interface{} `json:"outputSchema,omitempty"`

	// PayTo is the recipient address for the payment.
	PayTo string `json:"payTo"`

	// MaxTimeoutSeconds is the validity period for the payment authorization.
	MaxTimeoutSeconds int `json:"maxTimeoutSeconds"`

	// Asset is the token contract address (EVM) or mint address (Solana).
	Asset string `json:"asset"`

	// Extra contains scheme-specific additional data (e.g., EIP-3009
	// domain name/version for EVM, feePayer for Solana).
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// MaxAmount parses MaxAmountRequired into atomic units.
// An empty string is treated as zero. Returns ErrSchema (wrapped in a
// PaymentError) for anything that is not a non-negative decimal integer.
func (r *PaymentRequirement) MaxAmount() (*big.Int, error) {
	return ParseAmount(r.MaxAmountRequired)
}

// Validate checks the requirement against the protocol schema: required
// fields must be present and MaxAmountRequired must parse as a
// non-negative integer. Returns a SCHEMA_ERROR PaymentError on failure.
func (r *PaymentRequirement) Validate() error {
	if r.Scheme == "" {
		return NewPaymentError(ErrCodeSchema, "payment requirement missing scheme", ErrSchema)
	}
	if r.Network == "" {
		return NewPaymentError(ErrCodeSchema, "payment requirement missing network", ErrSchema)
	}
	if r.PayTo == "" {
		return NewPaymentError(ErrCodeSchema, "payment requirement missing payTo", ErrSchema)
	}
	if r.Asset == "" {
		return NewPaymentError(ErrCodeSchema, "payment requirement missing asset", ErrSchema)
	}
	if _, err := ParseAmount(r.MaxAmountRequired); err != nil {
		return err
	}
	return nil
}

// PaymentRequired is the 402 response body sent by resource servers.
type PaymentRequired struct {
	// X402Version is the protocol version (1 for v1).
	X402Version int `json:"x402Version"`

	// Error is a human-readable error message.
	Error string `json:"error,omitempty"`

	// Accepts is an array of payment options the server will accept.
	Accepts []PaymentRequirement `json:"accepts"`
}

// PaymentPayload is the signed authorization a client attaches to the paid
// retry. It is bound to one PaymentRequirement and one payer address, and
// is single-use: never cached or reused across attempts.
type PaymentPayload struct {
	// X402Version is the protocol version (1 for v1).
	X402Version int `json:"x402Version"`

	// Scheme is the payment scheme of the selected requirement.
	Scheme string `json:"scheme"`

	// Network is the network of the selected requirement.
	Network string `json:"network"`

	// Payload contains the blockchain-specific signed payment data.
	// For EVM: ExactEVMPayload with signature and authorization.
	// For Solana: SVMPayload with a partially signed transaction.
	Payload interface{} `json:"payload"`
}

// ExactEVMPayload contains EIP-3009 authorization data for EVM payments
// under the "exact" scheme.
type ExactEVMPayload struct {
	// Signature is the hex-encoded EIP-712 signature.
	Signature string `json:"signature"`

	// Authorization contains the transferWithAuthorization parameters.
	Authorization EVMAuthorization `json:"authorization"`
}

// EVMAuthorization contains EIP-3009 transferWithAuthorization parameters.
type EVMAuthorization struct {
	// From is the payer's address.
	From string `json:"from"`

	// To is the recipient's address.
	To string `json:"to"`

	// Value is the payment amount in atomic units (wei).
	Value string `json:"value"`

	// ValidAfter is the unix timestamp after which the authorization is valid.
	ValidAfter string `json:"validAfter"`

	// ValidBefore is the unix timestamp before which the authorization is valid.
	ValidBefore string `json:"validBefore"`

	// Nonce is a unique 32-byte hex string to prevent replay attacks.
	Nonce string `json:"nonce"`
}

// SVMPayload contains a partially signed Solana transaction. The client
// signs with their private key and the facilitator adds the fee payer
// signature.
type SVMPayload struct {
	// Transaction is the base64-encoded partially signed transaction.
	Transaction string `json:"transaction"`
}

// SettlementResponse is the settlement receipt decoded from the
// X-PAYMENT-RESPONSE header of a paid response.
type SettlementResponse struct {
	// Success indicates whether the payment was successfully settled.
	Success bool `json:"success"`

	// Transaction is the blockchain transaction hash.
	Transaction string `json:"transaction"`

	// Network is the network where the payment was settled.
	Network string `json:"network,omitempty"`

	// Payer is the address that made the payment.
	Payer string `json:"payer,omitempty"`

	// ErrorReason provides a short error code if settlement failed.
	ErrorReason string `json:"errorReason,omitempty"`
}

// TokenConfig defines a token a signer is willing to pay with.
type TokenConfig struct {
	// Address is the token contract address (EVM) or mint address (Solana).
	Address string

	// Symbol is the token symbol (e.g., "USDC").
	Symbol string

	// Decimals is the number of decimal places for the token.
	Decimals int
}

// ParseAmount parses an atomic-unit amount string into a *big.Int.
// The empty string is treated as zero. Any string that is not a
// non-negative decimal integer fails with a SCHEMA_ERROR PaymentError.
func ParseAmount(amount string) (*big.Int, error) {
	if amount == "" {
		return big.NewInt(0), nil
	}

	value, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return nil, NewPaymentError(ErrCodeSchema, "amount is not an integer", ErrSchema).
			WithDetails("amount", amount)
	}
	if value.Sign() < 0 {
		return nil, NewPaymentError(ErrCodeSchema, "amount is negative", ErrSchema).
			WithDetails("amount", amount)
	}
	return value, nil
}
