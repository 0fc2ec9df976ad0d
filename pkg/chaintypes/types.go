// Package chaintypes defines the value types the classifier pipeline is
// built from: transactions, receipts, logs, chain configuration, token
// movements and the classification verdict. Nothing in this package touches
// the network; every type here is a plain value type.
package chaintypes

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// EnvelopeType is the transaction serialization variant. It affects fee
// semantics only; the classifier never branches on it.
type EnvelopeType uint8

const (
	EnvelopeLegacy EnvelopeType = iota
	EnvelopeEIP2930
	EnvelopeEIP1559
	EnvelopeEIP4844
)

// Transaction is the subset of an EVM transaction the classifier needs.
type Transaction struct {
	Hash     common.Hash
	From     common.Address
	To       *common.Address // nil for contract creation
	Value    *uint256.Int
	Input    []byte
	Envelope EnvelopeType
}

// Status is the outcome recorded by the execution receipt.
type Status uint8

const (
	StatusFailure Status = iota
	StatusSuccess
)

// Log is a single emitted event.
type Log struct {
	Address common.Address
	Topics  []common.Hash // Topics[0] is the event signature hash, when present
	Data    []byte
}

// Topic returns the topic at i, or the zero hash if absent.
func (l Log) Topic(i int) common.Hash {
	if i < 0 || i >= len(l.Topics) {
		return common.Hash{}
	}
	return l.Topics[i]
}

// Receipt is the execution outcome of a Transaction.
type Receipt struct {
	Status          Status
	BlockNumber     uint64
	CreatedContract *common.Address // populated only on contract creation
	Logs            []Log
}

// InternalTransfer is a single native-value sub-transfer captured by a trace.
type InternalTransfer struct {
	From  common.Address
	To    common.Address
	Value *uint256.Int
}

// InternalTx is the ordered list of internal native transfers for a
// transaction. A nil or empty slice means no trace was supplied.
type InternalTx []InternalTransfer

// ChainClass distinguishes L1 settlement chains from L2 rollups; used by
// rules that weight canonical-bridge evidence differently (none currently
// do, but the field is part of the wire contract).
type ChainClass uint8

const (
	ChainClassL1 ChainClass = iota
	ChainClassL2
)

// NativeSentinel is the asset identifier used for the chain's native asset
// in TokenMovement.Asset, matching ChainConfig.WrappedNative's sentinel use.
var NativeSentinel = common.Address{}

// ChainConfig is the static, per-chain registry entry consulted by the
// resolver and rules. It is read-only after construction.
type ChainConfig struct {
	ChainID               uint64
	Class                 ChainClass
	NativeSymbol          string
	WrappedNative         common.Address // NativeSentinel if the chain has no canonical wrapped asset
	DustThreshold         *uint256.Int
	CanonicalBridges      map[common.Address]struct{}
	KnownRouters          map[common.Address]struct{}
	KnownLendingProtocols map[common.Address]struct{}
	KnownStakingPools     map[common.Address]struct{}
	EntryPoints           map[common.Address]struct{}
	ProtocolLabels        map[common.Address]string
}

// HasBridge reports whether addr is a recognized canonical bridge contract.
func (c ChainConfig) HasBridge(addr common.Address) bool {
	_, ok := c.CanonicalBridges[addr]
	return ok
}

// HasRouter reports whether addr is a recognized DEX router contract.
func (c ChainConfig) HasRouter(addr common.Address) bool {
	_, ok := c.KnownRouters[addr]
	return ok
}

// HasLendingProtocol reports whether addr is a recognized lending pool.
func (c ChainConfig) HasLendingProtocol(addr common.Address) bool {
	_, ok := c.KnownLendingProtocols[addr]
	return ok
}

// HasStakingPool reports whether addr is a recognized staking pool.
func (c ChainConfig) HasStakingPool(addr common.Address) bool {
	_, ok := c.KnownStakingPools[addr]
	return ok
}

// IsEntryPoint reports whether addr is a recognized ERC-4337 entry point.
func (c ChainConfig) IsEntryPoint(addr common.Address) bool {
	_, ok := c.EntryPoints[addr]
	return ok
}

// ProtocolLabel returns the human label for addr, if known.
func (c ChainConfig) ProtocolLabel(addr common.Address) (string, bool) {
	label, ok := c.ProtocolLabels[addr]
	return label, ok
}

// ExecutionType is the merged verdict of the execution resolver.
type ExecutionType uint8

const (
	ExecutionUnknown ExecutionType = iota
	ExecutionDirect
	ExecutionMultisig
	ExecutionAccountAbstraction
	ExecutionRelayed
)

func (e ExecutionType) String() string {
	switch e {
	case ExecutionDirect:
		return "Direct"
	case ExecutionMultisig:
		return "Multisig"
	case ExecutionAccountAbstraction:
		return "AccountAbstraction"
	case ExecutionRelayed:
		return "Relayed"
	default:
		return "Unknown"
	}
}

// ExecutionDetails is the output of Phase 1, the execution resolver.
type ExecutionDetails struct {
	EffectiveTo      common.Address
	Type             ExecutionType
	IsProxy          bool
	IsMultisig       bool
	IsAccountAbstract bool
	Implementation   *common.Address // proxy implementation/beacon, if detected
	InnerSender      *common.Address // AA smart-account sender, if detected
	ResolutionMethod string
}

// AssetKind is the token standard a movement belongs to.
type AssetKind uint8

const (
	AssetNative AssetKind = iota
	AssetERC20
	AssetERC721
	AssetERC1155
)

func (k AssetKind) String() string {
	switch k {
	case AssetNative:
		return "Native"
	case AssetERC20:
		return "ERC-20"
	case AssetERC721:
		return "ERC-721"
	case AssetERC1155:
		return "ERC-1155"
	default:
		return "Unknown"
	}
}

// RoleTag classifies a movement relative to the transaction originator.
type RoleTag uint8

const (
	RoleProtocolInternal RoleTag = iota
	RoleUserOut
	RoleUserIn
)

// TokenMovement is a single decoded asset transfer.
type TokenMovement struct {
	Asset   common.Address // NativeSentinel for the native asset
	Kind    AssetKind
	TokenID *uint256.Int // ERC-721/1155 only
	From    common.Address
	To      common.Address
	Amount  *uint256.Int
	Role    RoleTag
}

// Approval is a recorded ERC-20/721 approval signal; it carries no asset
// movement and is never subject to the dust filter.
type Approval struct {
	Asset   common.Address
	Owner   common.Address
	Spender common.Address
}

// AddressFlow is the incoming/outgoing movement set for one address.
type AddressFlow struct {
	Incoming []TokenMovement
	Outgoing []TokenMovement
}

// FlowGraph is the decoded token-movement graph produced by Phase 2. Every
// movement appears in exactly two places: its sender's Outgoing and its
// receiver's Incoming (invariant I2 of the classification contract).
type FlowGraph struct {
	byAddress map[common.Address]*AddressFlow
	Approvals []Approval
}

// NewFlowGraph returns an empty graph ready for Add.
func NewFlowGraph() *FlowGraph {
	return &FlowGraph{byAddress: make(map[common.Address]*AddressFlow)}
}

func (g *FlowGraph) entry(addr common.Address) *AddressFlow {
	e, ok := g.byAddress[addr]
	if !ok {
		e = &AddressFlow{}
		g.byAddress[addr] = e
	}
	return e
}

// Add records m in both its sender's outgoing set and its receiver's
// incoming set.
func (g *FlowGraph) Add(m TokenMovement) {
	g.entry(m.From).Outgoing = append(g.entry(m.From).Outgoing, m)
	g.entry(m.To).Incoming = append(g.entry(m.To).Incoming, m)
}

// AddApproval records an approval annotation; it participates in no flow
// duality invariant since it carries no movement.
func (g *FlowGraph) AddApproval(a Approval) {
	g.Approvals = append(g.Approvals, a)
}

// Flow returns the incoming/outgoing movements recorded for addr.
func (g *FlowGraph) Flow(addr common.Address) AddressFlow {
	if e, ok := g.byAddress[addr]; ok {
		return *e
	}
	return AddressFlow{}
}

// Addresses returns every address that appears in the graph, sorted by hex
// string so iteration never leaks map insertion order into a verdict.
func (g *FlowGraph) Addresses() []common.Address {
	out := make([]common.Address, 0, len(g.byAddress))
	for addr := range g.byAddress {
		out = append(out, addr)
	}
	sortAddresses(out)
	return out
}

func sortAddresses(addrs []common.Address) {
	for i := 1; i < len(addrs); i++ {
		for j := i; j > 0 && strings.Compare(addrs[j-1].Hex(), addrs[j].Hex()) > 0; j-- {
			addrs[j-1], addrs[j] = addrs[j], addrs[j-1]
		}
	}
}

// FunctionalType is the closed classification outcome enum. Values are
// stable wire strings per the interface contract.
type FunctionalType string

const (
	ContractDeployment  FunctionalType = "ContractDeployment"
	Swap                FunctionalType = "Swap"
	AddLiquidity        FunctionalType = "AddLiquidity"
	RemoveLiquidity     FunctionalType = "RemoveLiquidity"
	BridgeDeposit       FunctionalType = "BridgeDeposit"
	BridgeWithdraw      FunctionalType = "BridgeWithdraw"
	LendingDeposit      FunctionalType = "LendingDeposit"
	LendingWithdraw     FunctionalType = "LendingWithdraw"
	LendingBorrow       FunctionalType = "LendingBorrow"
	LendingRepay        FunctionalType = "LendingRepay"
	LendingLiquidation  FunctionalType = "LendingLiquidation"
	StakingDeposit      FunctionalType = "StakingDeposit"
	StakingWithdraw     FunctionalType = "StakingWithdraw"
	StakingClaimRewards FunctionalType = "StakingClaimRewards"
	NftMint             FunctionalType = "NftMint"
	NftSale             FunctionalType = "NftSale"
	NftTransfer         FunctionalType = "NftTransfer"
	TokenTransfer       FunctionalType = "TokenTransfer"
	TokenApproval       FunctionalType = "TokenApproval"
	TokenMint           FunctionalType = "TokenMint"
	TokenBurn           FunctionalType = "TokenBurn"
	NativeTransfer      FunctionalType = "NativeTransfer"
	BulkTransfer        FunctionalType = "BulkTransfer"
	GovernanceVote      FunctionalType = "GovernanceVote"
	GovernanceProposal  FunctionalType = "GovernanceProposal"
	GovernanceDelegation FunctionalType = "GovernanceDelegation"
	GovernanceExecution FunctionalType = "GovernanceExecution"
	ContractInteraction FunctionalType = "ContractInteraction"
	UnclassifiedComplex FunctionalType = "UnclassifiedComplex"
	Unknown             FunctionalType = "Unknown"
)

// EvidenceBreakdown is the per-channel contribution to a verdict's
// confidence, each in [0,1].
type EvidenceBreakdown struct {
	EventMatch     float64
	MethodMatch    float64
	AddressMatch   float64
	TokenFlowMatch float64
	ExecutionMatch float64
}

// RuleVerdict is the output of a single rule's classify step.
type RuleVerdict struct {
	Type       FunctionalType
	Confidence float64
	Evidence   EvidenceBreakdown
	Protocol   string
	Reasons    []string
	RulePriority int
	RuleName   string
}

// SecondaryMatch is a non-primary verdict surfaced alongside the primary. It
// never nests further secondary matches.
type SecondaryMatch struct {
	Type       FunctionalType
	Confidence float64
	Protocol   string
	Reasons    []string
}

// Confidence carries the final score and its human-readable justification.
type Confidence struct {
	Score   float64
	Reasons []string
}

// RuleTrace records one rule's attempt, populated only when debug tracing is
// requested.
type RuleTrace struct {
	RuleName string
	Matched  bool
	Verdict  *RuleVerdict
	Err      error
}

// ClassificationResult is the shaped, final output of Classify.
type ClassificationResult struct {
	PrimaryType    FunctionalType
	ExecutionType  ExecutionType
	Confidence     Confidence
	Protocol       string
	EffectiveTo    common.Address
	IsProxy        bool
	IsMultisig     bool
	Implementation *common.Address
	Secondary      []SecondaryMatch
	DebugTrace     []RuleTrace
	DebugTraceID   string // populated only when debug tracing is requested
}

// Lowercase returns the lowercase hex form used for role-tagging, matching
// the flow analyzer's normalization rule.
func Lowercase(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}
