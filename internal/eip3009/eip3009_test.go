package eip3009

import (
	"bytes"
	"encoding/hex"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// testPrivateKey is the Foundry/Anvil first default account private key.
// This is a well-known test key - NEVER use in production.
const testPrivateKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func TestGenerateNonce(t *testing.T) {
	t.Run("returns 32 byte nonce", func(t *testing.T) {
		nonce, err := GenerateNonce()
		if err != nil {
			t.Fatalf("GenerateNonce failed: %v", err)
		}
		if len(nonce[:]) != 32 {
			t.Errorf("expected 32 bytes, got %d", len(nonce[:]))
		}
	})

	t.Run("generates unique nonces", func(t *testing.T) {
		nonces := make(map[string]bool)
		for i := 0; i < 100; i++ {
			nonce, err := GenerateNonce()
			if err != nil {
				t.Fatalf("GenerateNonce failed: %v", err)
			}
			key := hex.EncodeToString(nonce[:])
			if nonces[key] {
				t.Errorf("duplicate nonce: %s", key)
			}
			nonces[key] = true
		}
	})

	t.Run("generates non-zero nonces", func(t *testing.T) {
		var zero [32]byte
		for i := 0; i < 10; i++ {
			nonce, err := GenerateNonce()
			if err != nil {
				t.Fatalf("GenerateNonce failed: %v", err)
			}
			if bytes.Equal(nonce[:], zero[:]) {
				t.Error("generated zero nonce")
			}
		}
	})
}

func TestCreateAuthorization(t *testing.T) {
	from := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	to := common.HexToAddress("0x209693Bc6afc0C5328bA36FaF03C514EF312287C")
	value := big.NewInt(10000)

	before := time.Now().Unix()
	auth, err := CreateAuthorization(from, to, value, 60)
	if err != nil {
		t.Fatalf("CreateAuthorization failed: %v", err)
	}
	after := time.Now().Unix()

	if auth.From != from || auth.To != to {
		t.Error("addresses not carried through")
	}
	if auth.Value.Cmp(value) != 0 {
		t.Errorf("expected value %v, got %v", value, auth.Value)
	}

	// validAfter sits 10 seconds in the past to tolerate clock skew.
	if auth.ValidAfter.Int64() > before-9 {
		t.Errorf("validAfter too recent: %v", auth.ValidAfter)
	}
	if auth.ValidBefore.Int64() < before+60 || auth.ValidBefore.Int64() > after+60 {
		t.Errorf("validBefore out of expected window: %v", auth.ValidBefore)
	}
}

func TestSignAuthorization(t *testing.T) {
	privateKey, err := crypto.HexToECDSA(testPrivateKey)
	if err != nil {
		t.Fatalf("failed to parse test key: %v", err)
	}

	tokenAddress := common.HexToAddress("0x036CbD53842c5426634e7929541eC2318f3dCF7e")
	from := crypto.PubkeyToAddress(privateKey.PublicKey)
	to := common.HexToAddress("0x209693Bc6afc0C5328bA36FaF03C514EF312287C")

	auth, err := CreateAuthorization(from, to, big.NewInt(10000), 60)
	if err != nil {
		t.Fatalf("CreateAuthorization failed: %v", err)
	}

	signature, err := SignAuthorization(privateKey, tokenAddress, big.NewInt(84532), auth, "USDC", "2")
	if err != nil {
		t.Fatalf("SignAuthorization failed: %v", err)
	}

	if !strings.HasPrefix(signature, "0x") {
		t.Errorf("expected 0x prefix, got %q", signature)
	}

	sigBytes, err := hex.DecodeString(strings.TrimPrefix(signature, "0x"))
	if err != nil {
		t.Fatalf("signature is not hex: %v", err)
	}
	if len(sigBytes) != 65 {
		t.Fatalf("expected 65-byte signature, got %d", len(sigBytes))
	}

	// Contracts expect the legacy 27/28 recovery value.
	if v := sigBytes[64]; v != 27 && v != 28 {
		t.Errorf("expected v of 27 or 28, got %d", v)
	}
}

func TestSignAuthorization_Deterministic(t *testing.T) {
	privateKey, err := crypto.HexToECDSA(testPrivateKey)
	if err != nil {
		t.Fatalf("failed to parse test key: %v", err)
	}

	tokenAddress := common.HexToAddress("0x036CbD53842c5426634e7929541eC2318f3dCF7e")
	from := crypto.PubkeyToAddress(privateKey.PublicKey)
	to := common.HexToAddress("0x209693Bc6afc0C5328bA36FaF03C514EF312287C")

	auth := &Authorization{
		From:        from,
		To:          to,
		Value:       big.NewInt(10000),
		ValidAfter:  big.NewInt(1700000000),
		ValidBefore: big.NewInt(1700000600),
	}

	first, err := SignAuthorization(privateKey, tokenAddress, big.NewInt(84532), auth, "USDC", "2")
	if err != nil {
		t.Fatalf("SignAuthorization failed: %v", err)
	}
	second, err := SignAuthorization(privateKey, tokenAddress, big.NewInt(84532), auth, "USDC", "2")
	if err != nil {
		t.Fatalf("SignAuthorization failed: %v", err)
	}
	if first != second {
		t.Error("identical authorizations must produce identical signatures")
	}

	// A different chain ID changes the EIP-712 domain and the signature.
	other, err := SignAuthorization(privateKey, tokenAddress, big.NewInt(8453), auth, "USDC", "2")
	if err != nil {
		t.Fatalf("SignAuthorization failed: %v", err)
	}
	if other == first {
		t.Error("chain ID must be bound into the signature")
	}
}
