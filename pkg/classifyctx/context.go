// Package classifyctx implements Phase 3 of the classification pipeline:
// freezing the transaction, receipt, flow graph, chain configuration and
// execution details into the immutable context every rule evaluates
// against.
package classifyctx

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/chainreceipt/txclassify/pkg/chaintypes"
	"github.com/chainreceipt/txclassify/pkg/execresolver"
	"github.com/chainreceipt/txclassify/pkg/flowanalyzer"
)

// Context is the frozen tuple every rule reads. It exposes only value
// copies and read-only accessors; nothing in this package or pkg/rules
// holds a pointer into a mutable field, satisfying invariant I4.
type Context struct {
	tx        chaintypes.Transaction
	receipt   chaintypes.Receipt
	flow      *chaintypes.FlowGraph
	chain     chaintypes.ChainConfig
	execution chaintypes.ExecutionDetails
	internal  chaintypes.InternalTx
	debug     bool
}

// Assemble runs Phase 1 and Phase 2 and freezes their output alongside the
// transaction, receipt and chain configuration into a Context.
func Assemble(tx chaintypes.Transaction, receipt chaintypes.Receipt, internal chaintypes.InternalTx, cfg chaintypes.ChainConfig, debug bool) Context {
	exec := execresolver.Resolve(tx, receipt, cfg)
	flow := flowanalyzer.Analyze(receipt.Logs, tx.Value, tx.From, tx.To, internal, cfg)
	return Context{
		tx:        tx,
		receipt:   receipt,
		flow:      flow,
		chain:     cfg,
		execution: exec,
		internal:  internal,
		debug:     debug,
	}
}

func (c Context) Tx() chaintypes.Transaction           { return c.tx }
func (c Context) Receipt() chaintypes.Receipt          { return c.receipt }
func (c Context) Chain() chaintypes.ChainConfig        { return c.chain }
func (c Context) Execution() chaintypes.ExecutionDetails { return c.execution }
func (c Context) Internal() chaintypes.InternalTx      { return c.internal }
func (c Context) Debug() bool                          { return c.debug }

// Originator returns the transaction's sender, the user every role tag is
// relative to.
func (c Context) Originator() common.Address { return c.tx.From }

// Flow returns the movements recorded for addr.
func (c Context) Flow(addr common.Address) chaintypes.AddressFlow { return c.flow.Flow(addr) }

// UserFlow returns the movements recorded for the originator.
func (c Context) UserFlow() chaintypes.AddressFlow { return c.flow.Flow(c.tx.From) }

// Approvals returns every approval annotation recorded by the flow
// analyzer.
func (c Context) Approvals() []chaintypes.Approval {
	out := make([]chaintypes.Approval, len(c.flow.Approvals))
	copy(out, c.flow.Approvals)
	return out
}

// Addresses returns every address that appears in the flow graph, in
// sorted order.
func (c Context) Addresses() []common.Address { return c.flow.Addresses() }

// AllMovements returns every movement in the graph exactly once (by
// iterating outgoing sets over sorted addresses — every movement has
// exactly one sender, per I2).
func (c Context) AllMovements() []chaintypes.TokenMovement {
	var out []chaintypes.TokenMovement
	for _, a := range c.flow.Addresses() {
		out = append(out, c.flow.Flow(a).Outgoing...)
	}
	return out
}
