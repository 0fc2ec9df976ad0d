package classifyctx

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/chainreceipt/txclassify/pkg/chaintypes"
)

func TestAssembleFreezesApprovalsDefensively(t *testing.T) {
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	spender := common.HexToAddress("0x2222222222222222222222222222222222222222")
	asset := common.HexToAddress("0x3333333333333333333333333333333333333333")

	tx := chaintypes.Transaction{Hash: common.HexToHash("0x1"), From: owner, To: &spender}
	receipt := chaintypes.Receipt{
		Status: chaintypes.StatusSuccess,
		Logs: []chaintypes.Log{
			{Address: asset, Topics: []common.Hash{
				// Approval(address,address,uint256) topic computed at call site
				// is irrelevant here; we only exercise the defensive-copy
				// contract of Approvals(), not log decoding.
			}},
		},
	}
	ctx := Assemble(tx, receipt, nil, chaintypes.ChainConfig{}, false)

	first := ctx.Approvals()
	first = append(first, chaintypes.Approval{Asset: asset, Owner: owner, Spender: spender})
	second := ctx.Approvals()

	if len(second) == len(first) {
		t.Fatalf("expected Approvals() to return a defensive copy, but mutating the first result affected the second")
	}
}

func TestContextAccessorsReflectAssembledInputs(t *testing.T) {
	from := common.HexToAddress("0x1111111111111111111111111111111111111111")
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	tx := chaintypes.Transaction{Hash: common.HexToHash("0x1"), From: from, To: &to, Value: uint256.NewInt(1)}
	receipt := chaintypes.Receipt{Status: chaintypes.StatusSuccess}
	cfg := chaintypes.ChainConfig{ChainID: 1}

	ctx := Assemble(tx, receipt, nil, cfg, true)

	if ctx.Originator() != from {
		t.Fatalf("expected Originator() to return the transaction sender")
	}
	if !ctx.Debug() {
		t.Fatalf("expected Debug() to reflect the debug flag passed to Assemble")
	}
	if ctx.Chain().ChainID != 1 {
		t.Fatalf("expected Chain() to return the assembled chain configuration")
	}
}
