package classifier

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/chainreceipt/txclassify/pkg/chainconfig"
	"github.com/chainreceipt/txclassify/pkg/chaintypes"
	"github.com/chainreceipt/txclassify/pkg/events"
)

var (
	user   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	router = common.HexToAddress("0x2222222222222222222222222222222222222222")
	tokenA = common.HexToAddress("0x3333333333333333333333333333333333333333")
	tokenB = common.HexToAddress("0x4444444444444444444444444444444444444444")
)

func word(v uint64) []byte {
	b := uint256.NewInt(v).Bytes32()
	return b[:]
}

func testRegistry() *chainconfig.Registry {
	return chainconfig.NewRegistry(map[uint64]chaintypes.ChainConfig{
		1: {
			ChainID:       1,
			DustThreshold: uint256.NewInt(1000),
			KnownRouters:  map[common.Address]struct{}{router: {}},
			ProtocolLabels: map[common.Address]string{router: "Test DEX"},
		},
	})
}

func swapTx(hash common.Hash) (chaintypes.Transaction, chaintypes.Receipt) {
	tx := chaintypes.Transaction{Hash: hash, From: user, To: &router}
	receipt := chaintypes.Receipt{
		Status: chaintypes.StatusSuccess,
		Logs: []chaintypes.Log{
			{Address: router, Topics: []common.Hash{events.UniswapV2SwapTopic}},
			{Address: tokenA, Topics: []common.Hash{events.TransferTopic, common.BytesToHash(user.Bytes()), common.BytesToHash(router.Bytes())}, Data: word(5000)},
			{Address: tokenB, Topics: []common.Hash{events.TransferTopic, common.BytesToHash(router.Bytes()), common.BytesToHash(user.Bytes())}, Data: word(5000)},
		},
	}
	return tx, receipt
}

func TestClassifyFailureDominatesAllOtherSignals(t *testing.T) {
	c := New(testRegistry(), NewCache(10))
	tx, receipt := swapTx(common.HexToHash("0xaa"))
	receipt.Status = chaintypes.StatusFailure

	result := c.Classify(context.Background(), tx, receipt, nil, 1)
	if result.PrimaryType != chaintypes.Unknown || result.Confidence.Score != 0 {
		t.Fatalf("expected a failed transaction to classify as Unknown at zero confidence, got %+v", result)
	}
}

func TestClassifyContractCreationShortCircuits(t *testing.T) {
	c := New(testRegistry(), NewCache(10))
	tx := chaintypes.Transaction{Hash: common.HexToHash("0xbb"), From: user}
	created := common.HexToAddress("0x9999999999999999999999999999999999999999")
	receipt := chaintypes.Receipt{Status: chaintypes.StatusSuccess, CreatedContract: &created}

	result := c.Classify(context.Background(), tx, receipt, nil, 1)
	if result.PrimaryType != chaintypes.ContractDeployment || result.Confidence.Score != 1.0 {
		t.Fatalf("expected ContractDeployment at full confidence, got %+v", result)
	}
}

func TestClassifySwapEndToEnd(t *testing.T) {
	c := New(testRegistry(), NewCache(10))
	tx, receipt := swapTx(common.HexToHash("0xcc"))

	result := c.Classify(context.Background(), tx, receipt, nil, 1)
	if result.PrimaryType != chaintypes.Swap {
		t.Fatalf("expected Swap, got %s (reasons: %v)", result.PrimaryType, result.Confidence.Reasons)
	}
	if result.Protocol != "Test DEX" {
		t.Fatalf("expected protocol label to be surfaced, got %q", result.Protocol)
	}
}

func TestClassifyCacheTransparency(t *testing.T) {
	c := New(testRegistry(), NewCache(10))
	tx, receipt := swapTx(common.HexToHash("0xdd"))

	first := c.Classify(context.Background(), tx, receipt, nil, 1)
	if c.cache.Len() != 1 {
		t.Fatalf("expected the first call to populate the cache, got length %d", c.cache.Len())
	}

	// Mutate the receipt after the first call; a cache hit must return the
	// original verdict rather than recomputing against the mutated input.
	mutated := receipt
	mutated.Logs = nil
	second := c.Classify(context.Background(), tx, mutated, nil, 1)

	if second.PrimaryType != first.PrimaryType || second.Confidence.Score != first.Confidence.Score {
		t.Fatalf("expected a cache hit to return the original verdict verbatim, got first=%+v second=%+v", first, second)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	tx, receipt := swapTx(common.HexToHash("0xee"))

	c1 := New(testRegistry(), nil)
	c2 := New(testRegistry(), nil)
	r1 := c1.Classify(context.Background(), tx, receipt, nil, 1)
	r2 := c2.Classify(context.Background(), tx, receipt, nil, 1)

	if r1.PrimaryType != r2.PrimaryType || r1.Confidence.Score != r2.Confidence.Score {
		t.Fatalf("expected two independent classifiers to agree on the same input: %+v vs %+v", r1, r2)
	}
}

func TestClassifyUnclassifiedComplexFallback(t *testing.T) {
	c := New(testRegistry(), nil)
	// No To, is handled by ContractCreation; use a To with no recognizable
	// signal at all: no logs, no value, no known address.
	stranger := common.HexToAddress("0x7777777777777777777777777777777777777777")
	tx := chaintypes.Transaction{Hash: common.HexToHash("0xff"), From: user, To: &stranger, Input: []byte{0x01, 0x02, 0x03, 0x04}}
	receipt := chaintypes.Receipt{Status: chaintypes.StatusSuccess}

	result := c.Classify(context.Background(), tx, receipt, nil, 1)
	if result.PrimaryType != chaintypes.UnclassifiedComplex {
		t.Fatalf("expected a signal-free call to fall through to UnclassifiedComplex, got %s", result.PrimaryType)
	}
}

func TestWithDebugPopulatesTrace(t *testing.T) {
	c := New(testRegistry(), nil)
	tx, receipt := swapTx(common.HexToHash("0x10"))

	ctx := WithDebug(context.Background())
	result := c.Classify(ctx, tx, receipt, nil, 1)
	if result.DebugTraceID == "" {
		t.Fatalf("expected a debug trace ID when WithDebug is set")
	}
	if len(result.DebugTrace) == 0 {
		t.Fatalf("expected a populated debug trace when WithDebug is set")
	}
}

func TestClassifyWithoutDebugOmitsTrace(t *testing.T) {
	c := New(testRegistry(), nil)
	tx, receipt := swapTx(common.HexToHash("0x11"))

	result := c.Classify(context.Background(), tx, receipt, nil, 1)
	if result.DebugTraceID != "" || result.DebugTrace != nil {
		t.Fatalf("expected no debug trace without WithDebug, got %+v", result)
	}
}
