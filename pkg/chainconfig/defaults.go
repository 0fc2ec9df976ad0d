package chainconfig

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/chainreceipt/txclassify/pkg/chaintypes"
)

// defaultDustThreshold is used by the fallback entry for unrecognized
// chains, per the interface contract ("dustThreshold = 1000").
var defaultDustThreshold = uint256.NewInt(1000)

// unknownChainEntry is served for any chain id the embedded table does not
// carry. It is never an error to ask for it (spec §7, "Unknown chain").
func unknownChainEntry(chainID uint64) chaintypes.ChainConfig {
	return chaintypes.ChainConfig{
		ChainID:               chainID,
		Class:                 chaintypes.ChainClassL1,
		NativeSymbol:          "ETH",
		WrappedNative:         chaintypes.NativeSentinel,
		DustThreshold:         defaultDustThreshold.Clone(),
		CanonicalBridges:      map[common.Address]struct{}{},
		KnownRouters:          map[common.Address]struct{}{},
		KnownLendingProtocols: map[common.Address]struct{}{},
		KnownStakingPools:     map[common.Address]struct{}{},
		EntryPoints:           map[common.Address]struct{}{},
		ProtocolLabels:        map[common.Address]string{},
	}
}

// addr builds a common.Address from a hex literal. It does not validate:
// common.HexToAddress never fails, and malformed input yields whatever
// address its bytes decode to.
func addr(hex string) common.Address {
	return common.HexToAddress(hex)
}

func addrSet(hexes ...string) map[common.Address]struct{} {
	set := make(map[common.Address]struct{}, len(hexes))
	for _, h := range hexes {
		set[addr(h)] = struct{}{}
	}
	return set
}

// embeddedDefaults is the built-in chain-configuration table. Real address
// books in production would ship larger, better-maintained sets; these are
// enough to exercise every rule in the canonical set end to end.
func embeddedDefaults() map[uint64]chaintypes.ChainConfig {
	return map[uint64]chaintypes.ChainConfig{
		1: {
			ChainID:       1,
			Class:         chaintypes.ChainClassL1,
			NativeSymbol:  "ETH",
			WrappedNative: addr("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
			DustThreshold: uint256.NewInt(1000),
			CanonicalBridges: addrSet(
				"0x99C9fc46f92E8a1c0deC1b1747d010903E884bE1", // Optimism L1 standard bridge
				"0xA0c68C638235ee32657e8f720a23ceC1bFc77C77", // Polygon PoS bridge
			),
			KnownRouters: addrSet(
				"0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D", // Uniswap V2 router
				"0xE592427A0AEce92De3Edee1F18E0157C05861564", // Uniswap V3 router
			),
			KnownLendingProtocols: addrSet(
				"0x7d2768dE32b0b80b7a3454c06BdAc94A69DDc7A9", // Aave V2 lending pool
				"0x87870Bca3F3fD6335C3F4ce8392D69350B4fA4E2", // Aave V3 pool
				"0x3d9819210A31b4961b30EF54bE2aeD79B9c9Cd3B", // Compound comptroller
			),
			KnownStakingPools: addrSet(
				"0x00000000219ab540356cBB839Cbe05303d7705Fa", // beacon deposit contract
			),
			EntryPoints: addrSet(
				"0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789", // ERC-4337 entry point v0.6
			),
			ProtocolLabels: map[common.Address]string{
				addr("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"): "Uniswap V2",
				addr("0xE592427A0AEce92De3Edee1F18E0157C05861564"): "Uniswap V3",
				addr("0x7d2768dE32b0b80b7a3454c06BdAc94A69DDc7A9"): "Aave V2",
				addr("0x87870Bca3F3fD6335C3F4ce8392D69350B4fA4E2"): "Aave V3",
				addr("0x3d9819210A31b4961b30EF54bE2aeD79B9c9Cd3B"): "Compound",
			},
		},
		10: optimismLike(10, "0x99C9fc46f92E8a1c0deC1b1747d010903E884bE1"),
		8453: optimismLike(8453, "0x3154Cf16ccdb4C6d922629664174b904d80F2C35"),
		42161: {
			ChainID:       42161,
			Class:         chaintypes.ChainClassL2,
			NativeSymbol:  "ETH",
			WrappedNative: addr("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"),
			DustThreshold: uint256.NewInt(1000),
			CanonicalBridges: addrSet(
				"0x8315177aB297bA92A06054cE80a67Ed4DBd7ed3a", // Arbitrum gateway router
			),
			KnownRouters:          addrSet("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"),
			KnownLendingProtocols: addrSet("0x794a61358D6845594F94dc1DB02A252b5b4814aD"), // Aave V3
			KnownStakingPools:     addrSet(),
			EntryPoints:           addrSet("0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789"),
			ProtocolLabels: map[common.Address]string{
				addr("0x794a61358D6845594F94dc1DB02A252b5b4814aD"): "Aave V3",
			},
		},
		56: {
			ChainID:               56,
			Class:                 chaintypes.ChainClassL1,
			NativeSymbol:          "BNB",
			WrappedNative:         addr("0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c"),
			DustThreshold:         uint256.NewInt(1000),
			CanonicalBridges:      addrSet(),
			KnownRouters:          addrSet("0x10ED43C718714eb63d5aA57B78B54704E256024E"), // PancakeSwap router
			KnownLendingProtocols: addrSet(),
			KnownStakingPools:     addrSet(),
			EntryPoints:           addrSet(),
			ProtocolLabels: map[common.Address]string{
				addr("0x10ED43C718714eb63d5aA57B78B54704E256024E"): "PancakeSwap",
			},
		},
	}
}

// optimismLike fills in the common shape shared by OP-stack L2 entries,
// parameterized only by chain id and that chain's L1 standard bridge
// address (the one piece that genuinely differs per rollup).
func optimismLike(chainID uint64, l1Bridge string) chaintypes.ChainConfig {
	return chaintypes.ChainConfig{
		ChainID:               chainID,
		Class:                 chaintypes.ChainClassL2,
		NativeSymbol:          "ETH",
		WrappedNative:         chaintypes.NativeSentinel,
		DustThreshold:         uint256.NewInt(1000),
		CanonicalBridges:      addrSet(l1Bridge),
		KnownRouters:          addrSet(),
		KnownLendingProtocols: addrSet(),
		KnownStakingPools:     addrSet(),
		EntryPoints:           addrSet("0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789"),
		ProtocolLabels:        map[common.Address]string{},
	}
}
