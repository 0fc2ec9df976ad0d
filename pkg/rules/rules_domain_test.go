package rules

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/chainreceipt/txclassify/pkg/chaintypes"
	"github.com/chainreceipt/txclassify/pkg/classifyctx"
	"github.com/chainreceipt/txclassify/pkg/events"
)

var pool = common.HexToAddress("0x5555555555555555555555555555555555555555")

func TestLendingRuleLiquidationTrumpsDeposit(t *testing.T) {
	tx := chaintypes.Transaction{Hash: common.HexToHash("0x1"), From: user, To: &pool}
	receipt := chaintypes.Receipt{
		Status: chaintypes.StatusSuccess,
		Logs: []chaintypes.Log{
			{Address: pool, Topics: []common.Hash{events.AaveLiquidationCallTopic}},
			{Address: pool, Topics: []common.Hash{events.AaveSupplyTopic}},
		},
	}
	cfg := chaintypes.ChainConfig{
		DustThreshold:         uint256.NewInt(1000),
		KnownLendingProtocols: map[common.Address]struct{}{pool: {}},
	}
	ctx := classifyctx.Assemble(tx, receipt, nil, cfg, false)

	outcome := LendingRule{}.Classify(ctx)
	if outcome.Verdict.Type != chaintypes.LendingLiquidation {
		t.Fatalf("expected liquidation to trump a concurrent supply event, got %s", outcome.Verdict.Type)
	}
	if !outcome.Emit {
		t.Fatalf("expected a known pool plus liquidation event to clear the 0.70 gate, got %+v", outcome.Verdict)
	}
}

func TestLendingRuleDepositFlowMatchesEvent(t *testing.T) {
	tx := chaintypes.Transaction{Hash: common.HexToHash("0x1"), From: user, To: &pool}
	receipt := chaintypes.Receipt{
		Status: chaintypes.StatusSuccess,
		Logs: []chaintypes.Log{
			{Address: pool, Topics: []common.Hash{events.AaveSupplyTopic}},
		},
	}
	internalMovement := chaintypes.InternalTx{{From: user, To: pool, Value: uint256.NewInt(5000)}}
	cfg := chaintypes.ChainConfig{
		DustThreshold:         uint256.NewInt(1000),
		KnownLendingProtocols: map[common.Address]struct{}{pool: {}},
	}
	ctx := classifyctx.Assemble(tx, receipt, internalMovement, cfg, false)

	outcome := LendingRule{}.Classify(ctx)
	if !outcome.Emit || outcome.Verdict.Type != chaintypes.LendingDeposit {
		t.Fatalf("expected a confident LendingDeposit verdict, got %+v", outcome.Verdict)
	}
}

func TestStakingRuleWithdrawFlow(t *testing.T) {
	tx := chaintypes.Transaction{Hash: common.HexToHash("0x1"), From: user, To: &pool}
	receipt := chaintypes.Receipt{
		Status: chaintypes.StatusSuccess,
		Logs: []chaintypes.Log{
			{Address: pool, Topics: []common.Hash{events.WithdrawnTopic}},
		},
	}
	internalMovement := chaintypes.InternalTx{{From: pool, To: user, Value: uint256.NewInt(5000)}}
	cfg := chaintypes.ChainConfig{
		DustThreshold:     uint256.NewInt(1000),
		KnownStakingPools: map[common.Address]struct{}{pool: {}},
	}
	ctx := classifyctx.Assemble(tx, receipt, internalMovement, cfg, false)

	outcome := StakingRule{}.Classify(ctx)
	if !outcome.Emit || outcome.Verdict.Type != chaintypes.StakingWithdraw {
		t.Fatalf("expected a confident StakingWithdraw verdict, got %+v", outcome.Verdict)
	}
}

func TestGovernanceRuleVoteSelector(t *testing.T) {
	governor := common.HexToAddress("0x6666666666666666666666666666666666666666")
	input := append(append([]byte{}, events.CastVoteSelector[:]...), make([]byte, 64)...)
	tx := chaintypes.Transaction{Hash: common.HexToHash("0x1"), From: user, To: &governor, Input: input}
	receipt := chaintypes.Receipt{
		Status: chaintypes.StatusSuccess,
		Logs: []chaintypes.Log{
			{Address: governor, Topics: []common.Hash{events.VoteCastTopic}},
		},
	}
	cfg := chaintypes.ChainConfig{
		DustThreshold:  uint256.NewInt(1000),
		ProtocolLabels: map[common.Address]string{governor: "Test Governor"},
	}
	ctx := classifyctx.Assemble(tx, receipt, nil, cfg, false)

	outcome := GovernanceRule{}.Classify(ctx)
	if !outcome.Emit || outcome.Verdict.Type != chaintypes.GovernanceVote {
		t.Fatalf("expected a confident GovernanceVote verdict, got %+v", outcome.Verdict)
	}
}

func TestGovernanceRuleYieldsToLendingSignal(t *testing.T) {
	governor := common.HexToAddress("0x6666666666666666666666666666666666666666")
	input := append(append([]byte{}, events.CastVoteSelector[:]...), make([]byte, 64)...)
	tx := chaintypes.Transaction{Hash: common.HexToHash("0x1"), From: user, To: &governor, Input: input}
	receipt := chaintypes.Receipt{
		Status: chaintypes.StatusSuccess,
		Logs: []chaintypes.Log{
			{Address: governor, Topics: []common.Hash{events.VoteCastTopic}},
			{Address: pool, Topics: []common.Hash{events.AaveSupplyTopic}},
		},
	}
	cfg := chaintypes.ChainConfig{DustThreshold: uint256.NewInt(1000)}
	ctx := classifyctx.Assemble(tx, receipt, nil, cfg, false)

	outcome := GovernanceRule{}.Classify(ctx)
	if outcome.Emit {
		t.Fatalf("expected the concurrent lending signal penalty to keep Governance from emitting, got %+v", outcome.Verdict)
	}
}
