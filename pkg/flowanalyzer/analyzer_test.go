package flowanalyzer

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/chainreceipt/txclassify/pkg/chaintypes"
	"github.com/chainreceipt/txclassify/pkg/events"
)

var (
	user  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	other = common.HexToAddress("0x2222222222222222222222222222222222222222")
	asset = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func wordUint(v uint64) []byte {
	amt := uint256.NewInt(v)
	b := amt.Bytes32()
	return b[:]
}

func TestAnalyzeDustFilter(t *testing.T) {
	cfg := chaintypes.ChainConfig{DustThreshold: uint256.NewInt(1000)}
	log := chaintypes.Log{
		Address: asset,
		Topics:  []common.Hash{events.TransferTopic, common.BytesToHash(user.Bytes()), common.BytesToHash(other.Bytes())},
		Data:    wordUint(500), // below the dust threshold
	}
	graph := Analyze([]chaintypes.Log{log}, nil, user, nil, nil, cfg)
	if len(graph.Flow(user).Outgoing) != 0 {
		t.Fatalf("expected a below-dust movement to be discarded")
	}
}

func TestAnalyzeAboveDustRecorded(t *testing.T) {
	cfg := chaintypes.ChainConfig{DustThreshold: uint256.NewInt(1000)}
	log := chaintypes.Log{
		Address: asset,
		Topics:  []common.Hash{events.TransferTopic, common.BytesToHash(user.Bytes()), common.BytesToHash(other.Bytes())},
		Data:    wordUint(5000),
	}
	graph := Analyze([]chaintypes.Log{log}, nil, user, nil, nil, cfg)
	out := graph.Flow(user).Outgoing
	if len(out) != 1 {
		t.Fatalf("expected the above-dust ERC-20 transfer to be recorded, got %d movements", len(out))
	}
	if out[0].Role != chaintypes.RoleUserOut {
		t.Fatalf("expected the originator's own outgoing movement to be tagged UserOut")
	}
}

func TestAnalyzeERC721Transfer(t *testing.T) {
	tokenID := common.BigToHash(uint256.NewInt(42).ToBig())
	log := chaintypes.Log{
		Address: asset,
		Topics: []common.Hash{
			events.TransferTopic,
			common.BytesToHash(user.Bytes()),
			common.BytesToHash(other.Bytes()),
			tokenID,
		},
	}
	graph := Analyze([]chaintypes.Log{log}, nil, user, nil, nil, chaintypes.ChainConfig{})
	out := graph.Flow(user).Outgoing
	if len(out) != 1 || out[0].Kind != chaintypes.AssetERC721 {
		t.Fatalf("expected a single ERC-721 movement, got %+v", out)
	}
	if out[0].TokenID == nil || out[0].TokenID.Uint64() != 42 {
		t.Fatalf("expected token id 42, got %v", out[0].TokenID)
	}
}

func TestAnalyzeApprovalCarriesNoMovement(t *testing.T) {
	log := chaintypes.Log{
		Address: asset,
		Topics:  []common.Hash{events.ApprovalTopic, common.BytesToHash(user.Bytes()), common.BytesToHash(other.Bytes())},
	}
	graph := Analyze([]chaintypes.Log{log}, nil, user, nil, nil, chaintypes.ChainConfig{})
	if len(graph.Approvals) != 1 {
		t.Fatalf("expected one approval annotation, got %d", len(graph.Approvals))
	}
	if len(graph.Flow(user).Outgoing) != 0 {
		t.Fatalf("an Approval event must not register as a movement")
	}
}

func TestAnalyzeTransferBatchMismatchedLengthDiscarded(t *testing.T) {
	// ids[] has 2 elements, values[] has 1: a malformed/adversarial log the
	// decoder must discard rather than partially apply.
	data := make([]byte, 0)
	data = append(data, wordUint(64)...)  // offset to ids tail
	data = append(data, wordUint(160)...) // offset to values tail
	data = append(data, wordUint(2)...)   // ids length = 2, occupies bytes [64,160)
	data = append(data, wordUint(10)...)
	data = append(data, wordUint(11)...)
	data = append(data, wordUint(1)...) // values length = 1, at byte 160
	data = append(data, wordUint(99)...)

	log := chaintypes.Log{
		Address: asset,
		Topics: []common.Hash{
			events.TransferBatchTopic,
			common.BytesToHash(user.Bytes()),
			common.BytesToHash(user.Bytes()),
			common.BytesToHash(other.Bytes()),
		},
		Data: data,
	}
	graph := Analyze([]chaintypes.Log{log}, nil, user, nil, nil, chaintypes.ChainConfig{})
	if len(graph.Flow(user).Outgoing) != 0 {
		t.Fatalf("expected a length-mismatched TransferBatch to be discarded entirely")
	}
}

func TestAnalyzeNativeValueAndInternalTransfers(t *testing.T) {
	target := other
	internal := chaintypes.InternalTx{
		{From: other, To: user, Value: uint256.NewInt(2000)},
	}
	graph := Analyze(nil, uint256.NewInt(3000), user, &target, internal, chaintypes.ChainConfig{DustThreshold: uint256.NewInt(100)})

	if len(graph.Flow(user).Outgoing) != 1 {
		t.Fatalf("expected the top-level native value to register as a user-out movement")
	}
	if len(graph.Flow(user).Incoming) != 1 {
		t.Fatalf("expected the internal transfer back to the user to register as incoming")
	}
}

func TestRoleForThirdPartyIsProtocolInternal(t *testing.T) {
	third := common.HexToAddress("0x4444444444444444444444444444444444444444")
	role := roleFor(user, other, third)
	if role != chaintypes.RoleProtocolInternal {
		t.Fatalf("expected a movement between two non-originator addresses to be ProtocolInternal, got %v", role)
	}
}
