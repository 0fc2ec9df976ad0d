// Package events centralizes the fixed topic hashes and method selectors the
// rule engine and execution resolver match against. Every hash here is
// derived the same way the EVM itself derives them — Keccak-256 over the
// canonical Solidity signature — rather than hand-copied hex, so the
// constants can be audited against the signature string sitting right next
// to them.
package events

import "github.com/ethereum/go-ethereum/crypto"

// topicHash returns the 32-byte event ID the EVM would log as topic0 for an
// event declared with the given canonical signature.
func topicHash(signature string) [32]byte {
	return crypto.Keccak256Hash([]byte(signature))
}

// selector returns the 4-byte function selector for a canonical signature.
func selector(signature string) [4]byte {
	h := crypto.Keccak256Hash([]byte(signature))
	var sel [4]byte
	copy(sel[:], h[:4])
	return sel
}

// Token standard events (ERC-20 / ERC-721 share a signature; topic count
// distinguishes them — see flowanalyzer).
var (
	TransferTopic      = topicHash("Transfer(address,address,uint256)")
	ApprovalTopic      = topicHash("Approval(address,address,uint256)")
	TransferSingleTopic = topicHash("TransferSingle(address,address,address,uint256,uint256)")
	TransferBatchTopic  = topicHash("TransferBatch(address,address,address,uint256[],uint256[])")
)

// EIP-1967 proxy events.
var (
	UpgradedTopic       = topicHash("Upgraded(address)")
	BeaconUpgradedTopic = topicHash("BeaconUpgraded(address)")
)

// Gnosis Safe / Argent multisig signals.
var (
	ExecTransactionSelector = selector("execTransaction(address,uint256,bytes,uint8,uint256,uint256,uint256,address,address,bytes)")
	ArgentExecuteSelector   = selector("execute(address,uint256,bytes)")
	ExecutionSuccessTopic   = topicHash("ExecutionSuccess(bytes32,uint256)")
	ExecutionFailureTopic   = topicHash("ExecutionFailure(bytes32,uint256)")
)

// ERC-4337 account abstraction signals.
var (
	HandleOpsSelector           = selector("handleOps((address,uint256,bytes,bytes,uint256,uint256,uint256,uint256,uint256,bytes,bytes)[],address)")
	HandleAggregatedOpsSelector = selector("handleAggregatedOps((address,uint256,bytes,bytes,uint256,uint256,uint256,uint256,uint256,bytes,bytes)[][],address)")
	UserOperationEventTopic     = topicHash("UserOperationEvent(bytes32,address,address,uint256,bool,uint256,uint256)")
)

// Canonical DEX swap events.
var (
	UniswapV2SwapTopic = topicHash("Swap(address,uint256,uint256,uint256,uint256,address)")
	UniswapV3SwapTopic = topicHash("Swap(address,address,int256,int256,uint160,uint128,int24)")
)

// Canonical bridge messaging events.
var (
	DepositFinalizedTopic    = topicHash("DepositFinalized(address,address,address,address,uint256,bytes)")
	WithdrawalFinalizedTopic = topicHash("WithdrawalFinalized(address,address,address,address,uint256,bytes)")
)

// Aave-style lending events.
var (
	AaveSupplyTopic           = topicHash("Supply(address,address,address,uint256,uint16)")
	AaveWithdrawTopic         = topicHash("Withdraw(address,address,address,uint256)")
	AaveBorrowTopic           = topicHash("Borrow(address,address,address,uint256,uint8,uint256,uint16)")
	AaveRepayTopic            = topicHash("Repay(address,address,address,uint256,bool)")
	AaveLiquidationCallTopic  = topicHash("LiquidationCall(address,address,address,uint256,uint256,address,bool)")
)

// Compound-style lending events.
var (
	CompoundMintTopic       = topicHash("Mint(address,uint256,uint256)")
	CompoundRedeemTopic     = topicHash("Redeem(address,uint256,uint256)")
	CompoundBorrowTopic     = topicHash("Borrow(address,uint256,uint256,uint256)")
	CompoundRepayBorrowTopic = topicHash("RepayBorrow(address,address,uint256,uint256,uint256)")
)

// Governance events and selectors (OpenZeppelin Governor shape).
var (
	VoteCastTopic            = topicHash("VoteCast(address,uint256,uint8,uint256,string)")
	ProposalCreatedTopic     = topicHash("ProposalCreated(uint256,address,address[],uint256[],string[],bytes[],uint256,uint256,string)")
	ProposalExecutedTopic    = topicHash("ProposalExecuted(uint256)")
	DelegateChangedTopic     = topicHash("DelegateChanged(address,address,address)")
	DelegateVotesChangedTopic = topicHash("DelegateVotesChanged(address,uint256,uint256)")

	CastVoteSelector            = selector("castVote(uint256,uint8)")
	CastVoteWithReasonSelector  = selector("castVoteWithReason(uint256,uint8,string)")
	ProposeSelector             = selector("propose(address[],uint256[],bytes[],string)")
	DelegateSelector            = selector("delegate(address)")
	ExecuteSelector             = selector("execute(uint256)")
)

// NFT marketplace events.
var (
	SeaportOrderFulfilledTopic = topicHash("OrderFulfilled(bytes32,address,address,address,(uint8,address,uint256,uint256)[],(uint8,address,uint256,uint256,address)[])")
	LooksRareTakerAskTopic     = topicHash("TakerAsk((bytes32,address,address,uint256,uint256,uint256),bytes32,address,address,address,address,uint256,uint256,uint256)")
	LooksRareTakerBidTopic     = topicHash("TakerBid((bytes32,address,address,uint256,uint256,uint256),bytes32,address,address,address,address,uint256,uint256,uint256)")
	BlurOrdersMatchedTopic     = topicHash("OrdersMatched(address,address,(address,address,address,uint256,uint256,uint256,uint256,uint8,uint8,uint8,uint256,bytes,bytes,bytes,bytes,bytes,uint8,bytes32,bytes32),(address,address,address,uint256,uint256,uint256,uint256,uint8,uint8,uint8,uint256,bytes,bytes,bytes,bytes,bytes,uint8,bytes32,bytes32))")
	OpenSeaOrdersMatchedTopic  = topicHash("OrdersMatched(bytes32,bytes32,address,address,uint256,bytes32)")
)

// Staking events.
var (
	StakedTopic    = topicHash("Staked(address,uint256)")
	WithdrawnTopic = topicHash("Withdrawn(address,uint256)")
	RewardPaidTopic = topicHash("RewardPaid(address,uint256)")
)
