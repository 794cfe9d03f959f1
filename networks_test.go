package x402

import (
	"errors"
	"testing"
)

func TestGetChainConfig(t *testing.T) {
	cfg, err := GetChainConfig(NetworkBase)
	if err != nil {
		t.Fatalf("GetChainConfig(base) failed: %v", err)
	}
	if cfg.ChainID != 8453 {
		t.Errorf("expected chain ID 8453, got %d", cfg.ChainID)
	}
	if cfg.Type != NetworkTypeEVM {
		t.Errorf("expected EVM type, got %v", cfg.Type)
	}
	if cfg.USDCAddress == "" || cfg.Decimals != 6 {
		t.Errorf("unexpected USDC config: %+v", cfg)
	}

	_, err = GetChainConfig("lightning")
	if !errors.Is(err, ErrInvalidNetwork) {
		t.Errorf("expected ErrInvalidNetwork, got %v", err)
	}
}

func TestNetworkTypeOf(t *testing.T) {
	tests := []struct {
		network string
		want    NetworkType
	}{
		{NetworkBase, NetworkTypeEVM},
		{NetworkBaseSepolia, NetworkTypeEVM},
		{NetworkPolygon, NetworkTypeEVM},
		{NetworkSolanaMainnet, NetworkTypeSVM},
		{NetworkSolanaDevnet, NetworkTypeSVM},
		{"unknown-chain", NetworkTypeUnknown},
		{"", NetworkTypeUnknown},
	}

	for _, tt := range tests {
		if got := NetworkTypeOf(tt.network); got != tt.want {
			t.Errorf("NetworkTypeOf(%q) = %v, want %v", tt.network, got, tt.want)
		}
	}
}

func TestSupportedNetworks(t *testing.T) {
	networks := SupportedNetworks()
	if len(networks) == 0 {
		t.Fatal("expected at least one supported network")
	}

	seen := make(map[string]bool, len(networks))
	for _, network := range networks {
		seen[network] = true
	}
	for _, want := range []string{NetworkBase, NetworkBaseSepolia, NetworkSolanaMainnet} {
		if !seen[want] {
			t.Errorf("expected %s in supported networks", want)
		}
	}
}
