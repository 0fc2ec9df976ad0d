// Package rules implements the canonical rule set the engine evaluates in
// priority order (spec table in SPEC_FULL.md §4.3). Each rule is a pure
// function of the frozen classification context: a fast gate (Matches)
// and a deep scorer (Classify) that always computes a verdict once the
// gate passes, so near-miss evidence is available even when the rule's
// own emission threshold is not cleared.
package rules

import (
	"github.com/chainreceipt/txclassify/pkg/chaintypes"
	"github.com/chainreceipt/txclassify/pkg/classifyctx"
)

// Rule is the interface every classification rule implements. Matches is a
// cheap gate; Classify is only called when Matches returns true, and never
// mutates the context.
type Rule interface {
	Name() string
	Priority() int
	Matches(ctx classifyctx.Context) bool
	Classify(ctx classifyctx.Context) Outcome
}

// Outcome is a rule's deep-evaluation result. Verdict is always populated
// when Classify is called; Emit reports whether the rule's own confidence
// gate was cleared (the engine only treats Emit==true outcomes as
// candidates, but keeps the verdict around for near-miss reporting).
type Outcome struct {
	Verdict chaintypes.RuleVerdict
	Emit    bool
}

// Canonical returns the canonical rule set in the table's priority order
// (ties are broken by table order, which is already priority-descending).
func Canonical() []Rule {
	return []Rule{
		ContractCreationRule{},
		BridgeRule{},
		LendingRule{},
		GovernanceRule{},
		SwapRule{},
		StakingRule{},
		NftSaleRule{},
		TransferRule{},
	}
}
