package execresolver

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/chainreceipt/txclassify/pkg/chaintypes"
	"github.com/chainreceipt/txclassify/pkg/events"
)

var (
	target       = common.HexToAddress("0x1111111111111111111111111111111111111111")
	entryPoint   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	smartAccount = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func baseTx() chaintypes.Transaction {
	return chaintypes.Transaction{
		Hash:  common.HexToHash("0xaa"),
		From:  common.HexToAddress("0x9999999999999999999999999999999999999999"),
		To:    &target,
		Value: uint256.NewInt(0),
	}
}

func TestResolveContractCreation(t *testing.T) {
	tx := baseTx()
	tx.To = nil
	created := common.HexToAddress("0x4444444444444444444444444444444444444444")
	receipt := chaintypes.Receipt{Status: chaintypes.StatusSuccess, CreatedContract: &created}

	exec := Resolve(tx, receipt, chaintypes.ChainConfig{})
	if exec.Type != chaintypes.ExecutionDirect {
		t.Fatalf("expected Direct for contract creation, got %s", exec.Type)
	}
	if exec.EffectiveTo != created {
		t.Fatalf("expected EffectiveTo to be the created contract address")
	}
}

func TestResolvePlainDirectCall(t *testing.T) {
	tx := baseTx()
	receipt := chaintypes.Receipt{Status: chaintypes.StatusSuccess}
	exec := Resolve(tx, receipt, chaintypes.ChainConfig{})
	if exec.Type != chaintypes.ExecutionDirect {
		t.Fatalf("expected Direct execution with no signals, got %s", exec.Type)
	}
	if exec.IsProxy || exec.IsMultisig || exec.IsAccountAbstract {
		t.Fatalf("expected no detector to fire on a plain call")
	}
}

func TestResolveProxyDetection(t *testing.T) {
	tx := baseTx()
	impl := common.HexToAddress("0x5555555555555555555555555555555555555555")
	receipt := chaintypes.Receipt{
		Status: chaintypes.StatusSuccess,
		Logs: []chaintypes.Log{
			{Address: target, Topics: []common.Hash{events.UpgradedTopic, common.BytesToHash(impl.Bytes())}},
		},
	}
	exec := Resolve(tx, receipt, chaintypes.ChainConfig{})
	if !exec.IsProxy {
		t.Fatalf("expected proxy detection to fire on an Upgraded event from the target")
	}
	if exec.Implementation == nil || *exec.Implementation != impl {
		t.Fatalf("expected implementation address to be extracted from topic[1]")
	}
	if exec.EffectiveTo != impl {
		t.Fatalf("expected EffectiveTo to follow to the implementation address")
	}
}

func TestResolveMultisigSelectorBeatsProxy(t *testing.T) {
	tx := baseTx()
	tx.Input = append(events.ExecTransactionSelector[:], make([]byte, 32)...)
	impl := common.HexToAddress("0x6666666666666666666666666666666666666666")
	receipt := chaintypes.Receipt{
		Status: chaintypes.StatusSuccess,
		Logs: []chaintypes.Log{
			{Address: target, Topics: []common.Hash{events.UpgradedTopic, common.BytesToHash(impl.Bytes())}},
		},
	}
	exec := Resolve(tx, receipt, chaintypes.ChainConfig{})
	if exec.Type != chaintypes.ExecutionMultisig {
		t.Fatalf("expected Multisig to take precedence over Relayed(Proxy), got %s", exec.Type)
	}
	if exec.ResolutionMethod != "Multisig+Proxy" {
		t.Fatalf("expected resolution method to record the combined signal, got %s", exec.ResolutionMethod)
	}
}

func TestResolveAccountAbstraction(t *testing.T) {
	tx := baseTx()
	tx.To = &entryPoint
	tx.Input = append(events.HandleOpsSelector[:], make([]byte, 64)...)
	cfg := chaintypes.ChainConfig{EntryPoints: map[common.Address]struct{}{entryPoint: {}}}

	receipt := chaintypes.Receipt{
		Status: chaintypes.StatusSuccess,
		Logs: []chaintypes.Log{
			{
				Address: entryPoint,
				Topics: []common.Hash{
					events.UserOperationEventTopic,
					common.HexToHash("0xabc123"),
					common.BytesToHash(smartAccount.Bytes()),
					common.Hash{},
				},
			},
		},
	}
	exec := Resolve(tx, receipt, cfg)
	if exec.Type != chaintypes.ExecutionAccountAbstraction {
		t.Fatalf("expected AccountAbstraction execution, got %s", exec.Type)
	}
	if exec.InnerSender == nil || *exec.InnerSender != smartAccount {
		t.Fatalf("expected inner sender extracted from the UserOperationEvent topics")
	}
}
