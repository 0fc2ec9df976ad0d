// Package chainconfig loads the static, per-chain configuration registry
// the classifier consults for known-address evidence. The embedded table
// covers a handful of major chains out of the box; an optional YAML file
// can add or override entries, in the teacher's config-loading idiom
// (env-substituted YAML, applied over sensible defaults).
package chainconfig

import (
	"fmt"
	"os"
	"regexp"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gopkg.in/yaml.v3"

	"github.com/chainreceipt/txclassify/pkg/chaintypes"
)

// Registry is a read-only, chain-id-keyed configuration table. Once built
// it is never mutated; Get is safe for concurrent use by any number of
// classify calls.
type Registry struct {
	mu      sync.RWMutex
	entries map[uint64]chaintypes.ChainConfig
}

// NewRegistry wraps a pre-built table. Intended for tests that want to hand
// in a minimal, synthetic set of chain entries.
func NewRegistry(entries map[uint64]chaintypes.ChainConfig) *Registry {
	cp := make(map[uint64]chaintypes.ChainConfig, len(entries))
	for k, v := range entries {
		cp[k] = v
	}
	return &Registry{entries: cp}
}

// Default returns a Registry seeded with the embedded chain table.
func Default() *Registry {
	return NewRegistry(embeddedDefaults())
}

// Get returns the configuration for chainID, falling back to the default
// unknown-chain entry. This never errors, per the interface contract.
func (r *Registry) Get(chainID uint64) chaintypes.ChainConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cfg, ok := r.entries[chainID]; ok {
		return cfg
	}
	return unknownChainEntry(chainID)
}

// envVarPattern matches ${VAR_NAME} and ${VAR_NAME:-default} references
// inside a YAML override file, mirroring the teacher's config substitution
// helper.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 4 {
			defaultValue = groups[3]
		}
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// yamlChainEntry is the override-file shape for a single chain entry. Every
// field is optional; unset fields keep the embedded default (or the
// unknown-chain fallback, for a chain id not already in the table).
type yamlChainEntry struct {
	ChainID               uint64   `yaml:"chain_id"`
	Class                 string   `yaml:"class"` // "L1" or "L2"
	NativeSymbol          string   `yaml:"native_symbol"`
	WrappedNative         string   `yaml:"wrapped_native_address"`
	DustThreshold         string   `yaml:"dust_threshold"` // decimal string, arbitrary precision
	CanonicalBridges      []string `yaml:"canonical_bridges"`
	KnownRouters          []string `yaml:"known_routers"`
	KnownLendingProtocols []string `yaml:"known_lending_protocols"`
	KnownStakingPools     []string `yaml:"known_staking_pools"`
	EntryPoints           []string `yaml:"entry_points"`
	ProtocolLabels        map[string]string `yaml:"protocol_labels"`
}

type yamlOverrideFile struct {
	Chains []yamlChainEntry `yaml:"chains"`
}

// Load builds a Registry from the embedded defaults, optionally merging in
// overrides read from a YAML file at path. An empty path returns the
// embedded defaults unchanged.
func Load(path string) (*Registry, error) {
	base := embeddedDefaults()
	if path == "" {
		return NewRegistry(base), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("chainconfig: read override file %s: %w", path, err)
	}

	expanded := substituteEnvVars(string(data))

	var override yamlOverrideFile
	if err := yaml.Unmarshal([]byte(expanded), &override); err != nil {
		return nil, fmt.Errorf("chainconfig: parse override file %s: %w", path, err)
	}

	for _, entry := range override.Chains {
		merged, err := mergeEntry(base[entry.ChainID], entry)
		if err != nil {
			return nil, fmt.Errorf("chainconfig: chain %d: %w", entry.ChainID, err)
		}
		base[entry.ChainID] = merged
	}

	return NewRegistry(base), nil
}

func mergeEntry(existing chaintypes.ChainConfig, override yamlChainEntry) (chaintypes.ChainConfig, error) {
	cfg := existing
	if cfg.CanonicalBridges == nil {
		cfg = unknownChainEntry(override.ChainID)
	}
	cfg.ChainID = override.ChainID

	if override.Class != "" {
		if override.Class == "L2" {
			cfg.Class = chaintypes.ChainClassL2
		} else {
			cfg.Class = chaintypes.ChainClassL1
		}
	}
	if override.NativeSymbol != "" {
		cfg.NativeSymbol = override.NativeSymbol
	}
	if override.WrappedNative != "" {
		cfg.WrappedNative = addr(override.WrappedNative)
	}
	if override.DustThreshold != "" {
		dust, err := uint256.FromDecimal(override.DustThreshold)
		if err != nil {
			return cfg, fmt.Errorf("invalid dust_threshold %q: %w", override.DustThreshold, err)
		}
		cfg.DustThreshold = dust
	}
	if len(override.CanonicalBridges) > 0 {
		cfg.CanonicalBridges = addrSet(override.CanonicalBridges...)
	}
	if len(override.KnownRouters) > 0 {
		cfg.KnownRouters = addrSet(override.KnownRouters...)
	}
	if len(override.KnownLendingProtocols) > 0 {
		cfg.KnownLendingProtocols = addrSet(override.KnownLendingProtocols...)
	}
	if len(override.KnownStakingPools) > 0 {
		cfg.KnownStakingPools = addrSet(override.KnownStakingPools...)
	}
	if len(override.EntryPoints) > 0 {
		cfg.EntryPoints = addrSet(override.EntryPoints...)
	}
	if len(override.ProtocolLabels) > 0 {
		cfg.ProtocolLabels = convertLabels(override.ProtocolLabels)
	}
	return cfg, nil
}

// convertLabels turns a hex-string-keyed label map (the YAML wire shape)
// into the common.Address-keyed map ChainConfig carries.
func convertLabels(in map[string]string) map[common.Address]string {
	out := make(map[common.Address]string, len(in))
	for hexAddr, label := range in {
		out[addr(hexAddr)] = label
	}
	return out
}
