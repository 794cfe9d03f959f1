// Package svm provides a payment signer for Solana using partially signed
// SPL token transfers.
package svm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	x402 "github.com/protagolabs/x402-mcp"
	solutil "github.com/protagolabs/x402-mcp/internal/solana"
)

// RPCClient is the subset of Solana RPC operations the signer needs.
type RPCClient interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
}

// Signer signs "exact" scheme payments on one Solana network with one key.
// The transaction is only partially signed: the facilitator named in the
// requirement's feePayer field adds the remaining signature and submits.
type Signer struct {
	privateKey solana.PrivateKey
	publicKey  solana.PublicKey
	network    string
	tokens     []x402.TokenConfig
	maxAmount  *big.Int
	rpcClient  RPCClient
}

// Option configures a Signer.
type Option func(*Signer) error

// NewSigner creates a Solana signer from a base58-encoded private key.
// When tokens is nil the network's USDC mint is used.
func NewSigner(network string, privateKeyBase58 string, tokens []x402.TokenConfig, opts ...Option) (*Signer, error) {
	privateKey, err := solana.PrivateKeyFromBase58(privateKeyBase58)
	if err != nil {
		return nil, x402.NewPaymentError(x402.ErrCodeSigning, "invalid Solana private key", x402.ErrInvalidKey)
	}
	return NewSignerFromKey(network, privateKey, tokens, opts...)
}

// NewSignerFromKey creates a Solana signer from an existing private key.
func NewSignerFromKey(network string, key solana.PrivateKey, tokens []x402.TokenConfig, opts ...Option) (*Signer, error) {
	chain, err := x402.GetChainConfig(network)
	if err != nil || chain.Type != x402.NetworkTypeSVM {
		return nil, x402.NewPaymentError(x402.ErrCodeSigning, "unsupported Solana network", x402.ErrInvalidNetwork).
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
		publicKey:  key.PublicKey(),
		network:    network,
		tokens:     tokens,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// NewSignerFromKeygenFile creates a Solana signer from a solana-keygen JSON
// file (an array of 64 key bytes).
func NewSignerFromKeygenFile(network string, path string, tokens []x402.TokenConfig, opts ...Option) (*Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, x402.NewPaymentError(x402.ErrCodeSigning, "failed to read keygen file", err)
	}

	var keyBytes []byte
	if err := json.Unmarshal(data, &keyBytes); err != nil {
		return nil, x402.NewPaymentError(x402.ErrCodeSigning, "keygen file is not a JSON byte array", x402.ErrInvalidKey)
	}

	if len(keyBytes) != 64 {
		return nil, x402.NewPaymentError(x402.ErrCodeSigning, "keygen file must contain 64 key bytes", x402.ErrInvalidKey)
	}

	return NewSignerFromKey(network, solana.PrivateKey(keyBytes), tokens, opts...)
}

// WithMaxAmount caps the amount the signer will authorize per payment,
// in atomic units.
func WithMaxAmount(amount *big.Int) Option {
	return func(s *Signer) error {
		s.maxAmount = amount
		return nil
	}
}

// WithRPCClient sets a custom RPC client, used to fetch recent blockhashes.
func WithRPCClient(client RPCClient) Option {
	return func(s *Signer) error {
		s.rpcClient = client
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

// Address returns the signer's public key.
func (s *Signer) Address() solana.PublicKey {
	return s.publicKey
}

// CanSign reports whether the signer can satisfy a requirement: same
// scheme, same network, and an asset in the signer's token list. Mint
// comparison is case-sensitive since base58 addresses are.
func (s *Signer) CanSign(req *x402.PaymentRequirement) bool {
	if req == nil || req.Scheme != "exact" || req.Network != s.network {
		return false
	}
	for _, token := range s.tokens {
		if token.Address == req.Asset {
			return true
		}
	}
	return false
}

// Sign builds a partially signed SPL transfer for the requirement and
// returns it base64-encoded in the payment payload.
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
	if amount.Sign() <= 0 {
		return nil, x402.NewPaymentError(x402.ErrCodeSigning, "payment amount must be positive", x402.ErrSigning).
			WithDetails("amount", req.MaxAmountRequired)
	}

	if s.maxAmount != nil && amount.Cmp(s.maxAmount) > 0 {
		return nil, x402.NewPaymentError(x402.ErrCodeSigning, "payment amount exceeds configured limit", x402.ErrAmountExceeded).
			WithDetails("amount", amount.String()).
			WithDetails("limit", s.maxAmount.String())
	}

	maxUint64 := new(big.Int).SetUint64(^uint64(0))
	if amount.Cmp(maxUint64) > 0 {
		return nil, x402.NewPaymentError(x402.ErrCodeSigning, "payment amount overflows uint64", x402.ErrAmountExceeded)
	}

	mintAddress, err := solana.PublicKeyFromBase58(req.Asset)
	if err != nil {
		return nil, x402.NewPaymentError(x402.ErrCodeSigning, "invalid mint address", err)
	}

	recipient, err := solana.PublicKeyFromBase58(req.PayTo)
	if err != nil {
		return nil, x402.NewPaymentError(x402.ErrCodeSigning, "invalid recipient address", err)
	}

	var decimals uint8
	for _, token := range s.tokens {
		if token.Address == req.Asset {
			decimals = uint8(token.Decimals)
			break
		}
	}

	feePayer, err := extractFeePayer(req)
	if err != nil {
		return nil, err
	}

	client := s.rpcClient
	if client == nil {
		rpcURL, err := solutil.GetRPCURL(s.network)
		if err != nil {
			return nil, x402.NewPaymentError(x402.ErrCodeSigning, "no RPC endpoint for network", err)
		}
		client = rpc.New(rpcURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), x402.DefaultRequestTimeout)
	defer cancel()
	recent, err := client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return nil, x402.NewPaymentError(x402.ErrCodeSigning, "failed to fetch recent blockhash", err)
	}

	txBase64, err := buildPartiallySignedTransfer(
		s.privateKey,
		s.publicKey,
		mintAddress,
		recipient,
		amount.Uint64(),
		decimals,
		feePayer,
		recent.Value.Blockhash,
	)
	if err != nil {
		return nil, x402.NewPaymentError(x402.ErrCodeSigning, "failed to build transaction", err)
	}

	return &x402.PaymentPayload{
		X402Version: x402.X402Version,
		Scheme:      req.Scheme,
		Network:     req.Network,
		Payload: x402.SVMPayload{
			Transaction: txBase64,
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

// extractFeePayer reads the facilitator's fee payer address from the
// requirement's extra field.
func extractFeePayer(req *x402.PaymentRequirement) (solana.PublicKey, error) {
	if req.Extra == nil {
		return solana.PublicKey{}, x402.NewPaymentError(x402.ErrCodeSigning, "missing extra field with feePayer", x402.ErrSigning)
	}

	feePayerStr, ok := req.Extra["feePayer"].(string)
	if !ok {
		return solana.PublicKey{}, x402.NewPaymentError(x402.ErrCodeSigning, "feePayer missing or not a string", x402.ErrSigning)
	}

	feePayer, err := solana.PublicKeyFromBase58(feePayerStr)
	if err != nil {
		return solana.PublicKey{}, x402.NewPaymentError(x402.ErrCodeSigning, "invalid feePayer address", err)
	}

	return feePayer, nil
}

// buildPartiallySignedTransfer creates a partially signed SPL transfer.
// The client signs with their key; the facilitator adds the fee payer
// signature before submitting.
func buildPartiallySignedTransfer(
	clientPrivateKey solana.PrivateKey,
	clientPublicKey solana.PublicKey,
	mint solana.PublicKey,
	recipient solana.PublicKey,
	amount uint64,
	decimals uint8,
	feePayer solana.PublicKey,
	blockhash solana.Hash,
) (string, error) {
	sourceATA, err := solutil.DeriveAssociatedTokenAddress(clientPublicKey, mint)
	if err != nil {
		return "", fmt.Errorf("failed to find source ATA: %w", err)
	}

	destATA, err := solutil.DeriveAssociatedTokenAddress(recipient, mint)
	if err != nil {
		return "", fmt.Errorf("failed to find destination ATA: %w", err)
	}

	createATAInstruction, err := solutil.BuildCreateIdempotentATAInstruction(feePayer, recipient, mint)
	if err != nil {
		return "", fmt.Errorf("failed to build ATA creation instruction: %w", err)
	}

	instructions := []solana.Instruction{
		solutil.BuildSetComputeUnitLimitInstruction(solutil.DefaultComputeUnits),
		solutil.BuildSetComputeUnitPriceInstruction(solutil.DefaultComputeUnitPrice),
		// Idempotent so the transfer works whether or not the
		// destination ATA already exists.
		createATAInstruction,
		solutil.BuildTransferCheckedInstruction(sourceATA, mint, destATA, clientPublicKey, amount, decimals),
	}

	tx, err := solana.NewTransaction(
		instructions,
		blockhash,
		solana.TransactionPayer(feePayer),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create transaction: %w", err)
	}

	// Sign only with the client key, leaving the fee payer slot empty.
	_, err = tx.PartialSign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(clientPublicKey) {
			return &clientPrivateKey
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	txBytes, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to marshal transaction: %w", err)
	}

	return base64.StdEncoding.EncodeToString(txBytes), nil
}
