// Package flowanalyzer implements Phase 2 of the classification pipeline:
// decoding every native and token-standard asset movement a transaction
// caused into a per-address flow graph, tagged relative to the
// transaction's originator.
package flowanalyzer

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/chainreceipt/txclassify/pkg/chaintypes"
	"github.com/chainreceipt/txclassify/pkg/events"
)

const wordSize = 32

// Analyze decodes logs, the top-level native value, and any internal
// native transfers into a FlowGraph. Malformed logs are skipped; this
// function never fails.
func Analyze(
	logs []chaintypes.Log,
	nativeValue *uint256.Int,
	originator common.Address,
	target *common.Address,
	internal chaintypes.InternalTx,
	cfg chaintypes.ChainConfig,
) *chaintypes.FlowGraph {
	graph := chaintypes.NewFlowGraph()

	if target != nil && nativeValue != nil && !nativeValue.IsZero() {
		addMovement(graph, cfg, chaintypes.TokenMovement{
			Asset:  chaintypes.NativeSentinel,
			Kind:   chaintypes.AssetNative,
			From:   originator,
			To:     *target,
			Amount: nativeValue,
			Role:   roleFor(originator, originator, *target),
		})
	}

	for _, xfer := range internal {
		if xfer.Value == nil || xfer.Value.IsZero() {
			continue
		}
		addMovement(graph, cfg, chaintypes.TokenMovement{
			Asset:  chaintypes.NativeSentinel,
			Kind:   chaintypes.AssetNative,
			From:   xfer.From,
			To:     xfer.To,
			Amount: xfer.Value,
			Role:   roleFor(originator, xfer.From, xfer.To),
		})
	}

	for _, log := range logs {
		decodeLog(graph, cfg, originator, log)
	}

	return graph
}

func decodeLog(graph *chaintypes.FlowGraph, cfg chaintypes.ChainConfig, originator common.Address, log chaintypes.Log) {
	topic0 := log.Topic(0)
	switch {
	case topic0 == events.TransferTopic && len(log.Topics) == 3:
		decodeERC20Transfer(graph, cfg, originator, log)
	case topic0 == events.TransferTopic && len(log.Topics) == 4:
		decodeERC721Transfer(graph, cfg, originator, log)
	case topic0 == events.ApprovalTopic && (len(log.Topics) == 3 || len(log.Topics) == 4):
		decodeApproval(graph, log)
	case topic0 == events.TransferSingleTopic && len(log.Topics) == 4:
		decodeTransferSingle(graph, cfg, originator, log)
	case topic0 == events.TransferBatchTopic && len(log.Topics) == 4:
		decodeTransferBatch(graph, cfg, originator, log)
	}
}

func decodeERC20Transfer(graph *chaintypes.FlowGraph, cfg chaintypes.ChainConfig, originator common.Address, log chaintypes.Log) {
	if len(log.Data) < wordSize {
		return
	}
	from := common.BytesToAddress(log.Topics[1].Bytes())
	to := common.BytesToAddress(log.Topics[2].Bytes())
	amount := new(uint256.Int).SetBytes(log.Data[:wordSize])
	addMovement(graph, cfg, chaintypes.TokenMovement{
		Asset:  log.Address,
		Kind:   chaintypes.AssetERC20,
		From:   from,
		To:     to,
		Amount: amount,
		Role:   roleFor(originator, from, to),
	})
}

func decodeERC721Transfer(graph *chaintypes.FlowGraph, cfg chaintypes.ChainConfig, originator common.Address, log chaintypes.Log) {
	from := common.BytesToAddress(log.Topics[1].Bytes())
	to := common.BytesToAddress(log.Topics[2].Bytes())
	tokenID := new(uint256.Int).SetBytes(log.Topics[3].Bytes())
	addMovement(graph, cfg, chaintypes.TokenMovement{
		Asset:   log.Address,
		Kind:    chaintypes.AssetERC721,
		TokenID: tokenID,
		From:    from,
		To:      to,
		Amount:  uint256.NewInt(1),
		Role:    roleFor(originator, from, to),
	})
}

func decodeApproval(graph *chaintypes.FlowGraph, log chaintypes.Log) {
	owner := common.BytesToAddress(log.Topics[1].Bytes())
	spender := common.BytesToAddress(log.Topics[2].Bytes())
	graph.AddApproval(chaintypes.Approval{Asset: log.Address, Owner: owner, Spender: spender})
}

func decodeTransferSingle(graph *chaintypes.FlowGraph, cfg chaintypes.ChainConfig, originator common.Address, log chaintypes.Log) {
	if len(log.Data) < wordSize*2 {
		return
	}
	from := common.BytesToAddress(log.Topics[2].Bytes())
	to := common.BytesToAddress(log.Topics[3].Bytes())
	id := new(uint256.Int).SetBytes(log.Data[:wordSize])
	value := new(uint256.Int).SetBytes(log.Data[wordSize : wordSize*2])
	addMovement(graph, cfg, chaintypes.TokenMovement{
		Asset:   log.Address,
		Kind:    chaintypes.AssetERC1155,
		TokenID: id,
		From:    from,
		To:      to,
		Amount:  value,
		Role:    roleFor(originator, from, to),
	})
}

// decodeTransferBatch decodes TransferBatch(operator, from, to, ids[],
// values[]). The ABI-encoded data section is two dynamic arrays: a head of
// two tail offsets, followed by each array's length-prefixed elements.
// Arrays of mismatched length are discarded per contract.
func decodeTransferBatch(graph *chaintypes.FlowGraph, cfg chaintypes.ChainConfig, originator common.Address, log chaintypes.Log) {
	from := common.BytesToAddress(log.Topics[2].Bytes())
	to := common.BytesToAddress(log.Topics[3].Bytes())

	ids, ok := decodeDynamicUint256Array(log.Data, 0)
	if !ok {
		return
	}
	values, ok := decodeDynamicUint256Array(log.Data, wordSize)
	if !ok {
		return
	}
	if len(ids) != len(values) {
		return
	}

	for i := range ids {
		addMovement(graph, cfg, chaintypes.TokenMovement{
			Asset:   log.Address,
			Kind:    chaintypes.AssetERC1155,
			TokenID: ids[i],
			From:    from,
			To:      to,
			Amount:  values[i],
			Role:    roleFor(originator, from, to),
		})
	}
}

// decodeDynamicUint256Array reads the offset word at headOffset, then
// decodes the uint256[] found at that (data-relative) tail position.
func decodeDynamicUint256Array(data []byte, headOffset int) ([]*uint256.Int, bool) {
	if headOffset+wordSize > len(data) {
		return nil, false
	}
	tailOffset := int(new(uint256.Int).SetBytes(data[headOffset : headOffset+wordSize]).Uint64())
	if tailOffset+wordSize > len(data) {
		return nil, false
	}
	length := int(new(uint256.Int).SetBytes(data[tailOffset : tailOffset+wordSize]).Uint64())
	elementsStart := tailOffset + wordSize
	needed := elementsStart + length*wordSize
	if needed > len(data) || needed < elementsStart {
		return nil, false
	}
	out := make([]*uint256.Int, length)
	for i := 0; i < length; i++ {
		start := elementsStart + i*wordSize
		out[i] = new(uint256.Int).SetBytes(data[start : start+wordSize])
	}
	return out, true
}

// addMovement applies the dust filter (invariant I1) before inserting m
// into the graph.
func addMovement(graph *chaintypes.FlowGraph, cfg chaintypes.ChainConfig, m chaintypes.TokenMovement) {
	if m.Amount == nil || m.Amount.IsZero() {
		return
	}
	if cfg.DustThreshold != nil && m.Amount.Cmp(cfg.DustThreshold) <= 0 {
		return
	}
	graph.Add(m)
}

func roleFor(originator, from, to common.Address) chaintypes.RoleTag {
	u := chaintypes.Lowercase(originator)
	if chaintypes.Lowercase(from) == u {
		return chaintypes.RoleUserOut
	}
	if chaintypes.Lowercase(to) == u {
		return chaintypes.RoleUserIn
	}
	return chaintypes.RoleProtocolInternal
}
