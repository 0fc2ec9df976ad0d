package rules

import (
	"github.com/chainreceipt/txclassify/pkg/chaintypes"
	"github.com/chainreceipt/txclassify/pkg/classifyctx"
)

// ContractCreationRule matches a transaction with no target. The engine
// short-circuits on this rule's verdict (step 5 of the evaluation
// algorithm) so no other rule ever second-guesses a deployment.
type ContractCreationRule struct{}

func (ContractCreationRule) Name() string { return "ContractCreation" }
func (ContractCreationRule) Priority() int { return 100 }

func (ContractCreationRule) Matches(ctx classifyctx.Context) bool {
	return ctx.Tx().To == nil
}

func (ContractCreationRule) Classify(ctx classifyctx.Context) Outcome {
	reasons := []string{"Transaction target absent: contract creation"}
	return Outcome{
		Verdict: chaintypes.RuleVerdict{
			Type:       chaintypes.ContractDeployment,
			Confidence: 1.0,
			Evidence:   chaintypes.EvidenceBreakdown{ExecutionMatch: 1.0},
			Reasons:    reasons,
			RuleName:   "ContractCreation",
			RulePriority: 100,
		},
		Emit: true,
	}
}
