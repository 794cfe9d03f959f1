package x402

// NetworkType represents the blockchain virtual machine type.
type NetworkType int

const (
	// NetworkTypeUnknown represents an unrecognized network.
	NetworkTypeUnknown NetworkType = iota
	// NetworkTypeEVM represents Ethereum Virtual Machine chains.
	NetworkTypeEVM
	// NetworkTypeSVM represents Solana Virtual Machine chains.
	NetworkTypeSVM
)

// x402 v1 network identifiers.
const (
	// EVM mainnets
	NetworkBase      = "base"
	NetworkPolygon   = "polygon"
	NetworkAvalanche = "avalanche"
	NetworkEthereum  = "ethereum"

	// EVM testnets
	NetworkBaseSepolia   = "base-sepolia"
	NetworkPolygonAmoy   = "polygon-amoy"
	NetworkAvalancheFuji = "avalanche-fuji"
	NetworkSepolia       = "sepolia"

	// Solana networks
	NetworkSolanaMainnet = "solana"
	NetworkSolanaDevnet  = "solana-devnet"
)

// ChainConfig holds configuration for a specific blockchain.
type ChainConfig struct {
	// Network is the x402 v1 network identifier.
	Network string

	// Type is the virtual machine type of the chain.
	Type NetworkType

	// ChainID is the EVM chain ID (zero for non-EVM chains).
	ChainID int64

	// USDCAddress is the official Circle USDC contract or mint address.
	USDCAddress string

	// Decimals is the number of decimal places for USDC (always 6).
	Decimals int

	// EIP3009Name is the EIP-3009 domain parameter "name" (empty for non-EVM chains).
	EIP3009Name string

	// EIP3009Version is the EIP-3009 domain parameter "version" (empty for non-EVM chains).
	EIP3009Version string
}

var chainConfigs = map[string]ChainConfig{
	NetworkBase: {
		Network:        NetworkBase,
		Type:           NetworkTypeEVM,
		ChainID:        8453,
		USDCAddress:    "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
		Decimals:       6,
		EIP3009Name:    "USD Coin",
		EIP3009Version: "2",
	},
	NetworkPolygon: {
		Network:        NetworkPolygon,
		Type:           NetworkTypeEVM,
		ChainID:        137,
		USDCAddress:    "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359",
		Decimals:       6,
		EIP3009Name:    "USD Coin",
		EIP3009Version: "2",
	},
	NetworkAvalanche: {
		Network:        NetworkAvalanche,
		Type:           NetworkTypeEVM,
		ChainID:        43114,
		USDCAddress:    "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E",
		Decimals:       6,
		EIP3009Name:    "USD Coin",
		EIP3009Version: "2",
	},
	NetworkEthereum: {
		Network:        NetworkEthereum,
		Type:           NetworkTypeEVM,
		ChainID:        1,
		USDCAddress:    "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		Decimals:       6,
		EIP3009Name:    "USD Coin",
		EIP3009Version: "2",
	},
	NetworkBaseSepolia: {
		Network:        NetworkBaseSepolia,
		Type:           NetworkTypeEVM,
		ChainID:        84532,
		USDCAddress:    "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		Decimals:       6,
		EIP3009Name:    "USDC",
		EIP3009Version: "2",
	},
	NetworkPolygonAmoy: {
		Network:        NetworkPolygonAmoy,
		Type:           NetworkTypeEVM,
		ChainID:        80002,
		USDCAddress:    "0x41E94Eb019C0762f9Bfcf9Fb1E58725BfB0e7582",
		Decimals:       6,
		EIP3009Name:    "USDC",
		EIP3009Version: "2",
	},
	NetworkAvalancheFuji: {
		Network:        NetworkAvalancheFuji,
		Type:           NetworkTypeEVM,
		ChainID:        43113,
		USDCAddress:    "0x5425890298aed601595a70AB815c96711a31Bc65",
		Decimals:       6,
		EIP3009Name:    "USD Coin",
		EIP3009Version: "2",
	},
	NetworkSepolia: {
		Network:        NetworkSepolia,
		Type:           NetworkTypeEVM,
		ChainID:        11155111,
		USDCAddress:    "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238",
		Decimals:       6,
		EIP3009Name:    "USDC",
		EIP3009Version: "2",
	},
	NetworkSolanaMainnet: {
		Network:     NetworkSolanaMainnet,
		Type:        NetworkTypeSVM,
		USDCAddress: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Decimals:    6,
	},
	NetworkSolanaDevnet: {
		Network:     NetworkSolanaDevnet,
		Type:        NetworkTypeSVM,
		USDCAddress: "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU",
		Decimals:    6,
	},
}

// GetChainConfig returns the configuration for a known network identifier.
// Returns ErrInvalidNetwork for unknown networks.
func GetChainConfig(network string) (ChainConfig, error) {
	cfg, ok := chainConfigs[network]
	if !ok {
		return ChainConfig{}, ErrInvalidNetwork
	}
	return cfg, nil
}

// NetworkTypeOf reports the virtual machine type of a network identifier.
// Unknown networks report NetworkTypeUnknown.
func NetworkTypeOf(network string) NetworkType {
	cfg, ok := chainConfigs[network]
	if !ok {
		return NetworkTypeUnknown
	}
	return cfg.Type
}

// SupportedNetworks returns the identifiers of all known networks.
func SupportedNetworks() []string {
	networks := make([]string, 0, len(chainConfigs))
	for network := range chainConfigs {
		networks = append(networks, network)
	}
	return networks
}
