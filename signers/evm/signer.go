// Package evm provides a payment signer for EVM chains using EIP-3009
// transferWithAuthorization signatures.
package evm

import (
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	x402 "github.com/protagolabs/x402-mcp"
	"github.com/protagolabs/x402-mcp/internal/eip3009"
)

// Signer signs "exact" scheme payments on one EVM network with one key.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	network    string
	chainID    int64
	tokens     []x402.TokenConfig
	maxAmount  *big.Int
}

// Option configures a Signer.
type Option func(*Signer) error

// NewSigner creates a signer from a hex-encoded private key. The network
// must be a supported EVM network identifier. When tokens is nil the
// network's USDC token is used.
func NewSigner(network string, privateKeyHex string, tokens []x402.TokenConfig, opts ...Option) (*Signer, error) {
	privateKeyHex = strings.TrimPrefix(privateKeyHex, "0x")
	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, x402.NewPaymentError(x402.ErrCodeSigning, "invalid EVM private key", x402.ErrInvalidKey)
	}
	return NewSignerFromKey(network, privateKey, tokens, opts...)
}

// NewSignerFromKey creates a signer from an already-parsed private key.
func NewSignerFromKey(network string, key *ecdsa.PrivateKey, tokens []x402.TokenConfig, opts ...Option) (*Signer, error) {
	chain, err := x402.GetChainConfig(network)
	if err != nil || chain.Type != x402.NetworkTypeEVM {
		return nil, x402.NewPaymentError(x402.ErrCodeSigning, "unsupported EVM network", x402.ErrInvalidNetwork).
			WithDetails("network", network)
	}

	if tokens == nil {
		tokens = []x402.TokenConfig{{
			Address:  chain.USDCAddress,
			Symbol:   "USDC",
			Decimals: chain.Decimals,
		}}
	}

	s := &Signer{
		privateKey: key,
		address:    crypto.PubkeyToAddress(key.PublicKey),
		network:    network,
		chainID:    chain.ChainID,
		tokens:     tokens,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// WithMaxAmount caps the amount the signer will authorize per payment,
// in atomic units.
func WithMaxAmount(amount *big.Int) Option {
	return func(s *Signer) error {
		s.maxAmount = amount
		return nil
	}
}

// Network returns the network this signer pays on.
func (s *Signer) Network() string {
	return s.network
}

// Scheme returns the payment scheme this signer supports.
func (s *Signer) Scheme() string {
	return "exact"
}

// Address returns the payer address derived from the private key.
func (s *Signer) Address() common.Address {
	return s.address
}

// CanSign reports whether the signer can satisfy a requirement: same
// scheme, same network, and an asset in the signer's token list.
func (s *Signer) CanSign(req *x402.PaymentRequirement) bool {
	if req == nil || req.Scheme != "exact" || req.Network != s.network {
		return false
	}
	for _, token := range s.tokens {
		if strings.EqualFold(token.Address, req.Asset) {
			return true
		}
	}
	return false
}

// Sign produces a single-use payment payload for the requirement. The
// authorization is valid from 10 seconds in the past until the
// requirement's MaxTimeoutSeconds in the future.
func (s *Signer) Sign(req *x402.PaymentRequirement) (*x402.PaymentPayload, error) {
	if !s.CanSign(req) {
		return nil, x402.NewPaymentError(x402.ErrCodeSigning, "requirement not signable by this signer", x402.ErrSigning).
			WithDetails("network", req.Network).
			WithDetails("asset", req.Asset)
	}

	amount, err := req.MaxAmount()
	if err != nil {
		return nil, err
	}

	if s.maxAmount != nil && amount.Cmp(s.maxAmount) > 0 {
		return nil, x402.NewPaymentError(x402.ErrCodeSigning, "payment amount exceeds configured limit", x402.ErrAmountExceeded).
			WithDetails("amount", amount.String()).
			WithDetails("limit", s.maxAmount.String())
	}

	tokenAddress := common.HexToAddress(req.Asset)

	name, version, err := s.eip3009Params(req)
	if err != nil {
		return nil, err
	}

	auth, err := eip3009.CreateAuthorization(
		s.address,
		common.HexToAddress(req.PayTo),
		amount,
		req.MaxTimeoutSeconds,
	)
	if err != nil {
		return nil, x402.NewPaymentError(x402.ErrCodeSigning, "failed to create authorization", err)
	}

	signature, err := eip3009.SignAuthorization(s.privateKey, tokenAddress, big.NewInt(s.chainID), auth, name, version)
	if err != nil {
		return nil, x402.NewPaymentError(x402.ErrCodeSigning, "failed to sign authorization", err)
	}

	return &x402.PaymentPayload{
		X402Version: x402.X402Version,
		Scheme:      req.Scheme,
		Network:     req.Network,
		Payload: x402.ExactEVMPayload{
			Signature: signature,
			Authorization: x402.EVMAuthorization{
				From:        auth.From.Hex(),
				To:          auth.To.Hex(),
				Value:       auth.Value.String(),
				ValidAfter:  auth.ValidAfter.String(),
				ValidBefore: auth.ValidBefore.String(),
				Nonce:       common.BytesToHash(auth.Nonce[:]).Hex(),
			},
		},
	}, nil
}

// GetTokens returns the tokens this signer will pay with.
func (s *Signer) GetTokens() []x402.TokenConfig {
	return s.tokens
}

// GetMaxAmount returns the per-payment limit, or nil when unlimited.
func (s *Signer) GetMaxAmount() *big.Int {
	return s.maxAmount
}

// eip3009Params resolves the token's EIP-712 domain name and version,
// preferring values from the requirement's extra field over the known
// chain defaults.
func (s *Signer) eip3009Params(req *x402.PaymentRequirement) (name, version string, err error) {
	if req.Extra != nil {
		nameVal, nameOK := req.Extra["name"].(string)
		versionVal, versionOK := req.Extra["version"].(string)
		if nameOK && versionOK {
			return nameVal, versionVal, nil
		}
	}

	chain, cfgErr := x402.GetChainConfig(req.Network)
	if cfgErr == nil && strings.EqualFold(chain.USDCAddress, req.Asset) {
		return chain.EIP3009Name, chain.EIP3009Version, nil
	}

	return "", "", x402.NewPaymentError(x402.ErrCodeSigning,
		"missing EIP-3009 domain parameters for asset", x402.ErrSigning).
		WithDetails("asset", req.Asset)
}
