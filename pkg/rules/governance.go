package rules

import (
	"github.com/chainreceipt/txclassify/pkg/chaintypes"
	"github.com/chainreceipt/txclassify/pkg/classifyctx"
	"github.com/chainreceipt/txclassify/pkg/events"
)

// GovernanceRule detects on-chain governance actions: voting, proposing,
// delegating and executing a passed proposal.
type GovernanceRule struct{}

func (GovernanceRule) Name() string  { return "Governance" }
func (GovernanceRule) Priority() int { return 90 }

func governanceSelector(input []byte) (chaintypes.FunctionalType, bool) {
	switch {
	case matchesSelector(input, events.CastVoteSelector), matchesSelector(input, events.CastVoteWithReasonSelector):
		return chaintypes.GovernanceVote, true
	case matchesSelector(input, events.ProposeSelector):
		return chaintypes.GovernanceProposal, true
	case matchesSelector(input, events.DelegateSelector):
		return chaintypes.GovernanceDelegation, true
	case matchesSelector(input, events.ExecuteSelector):
		return chaintypes.GovernanceExecution, true
	default:
		return "", false
	}
}

func matchesSelector(input []byte, sel [4]byte) bool {
	if len(input) < 4 {
		return false
	}
	return input[0] == sel[0] && input[1] == sel[1] && input[2] == sel[2] && input[3] == sel[3]
}

func governanceEvent(ctx classifyctx.Context) (chaintypes.FunctionalType, bool) {
	for _, log := range ctx.Receipt().Logs {
		switch log.Topic(0) {
		case events.VoteCastTopic:
			return chaintypes.GovernanceVote, true
		case events.ProposalCreatedTopic:
			return chaintypes.GovernanceProposal, true
		case events.DelegateChangedTopic, events.DelegateVotesChangedTopic:
			return chaintypes.GovernanceDelegation, true
		case events.ProposalExecutedTopic:
			return chaintypes.GovernanceExecution, true
		}
	}
	return "", false
}

func (GovernanceRule) Matches(ctx classifyctx.Context) bool {
	if _, ok := governanceSelector(ctx.Tx().Input); ok {
		return true
	}
	_, ok := governanceEvent(ctx)
	return ok
}

func (GovernanceRule) Classify(ctx classifyctx.Context) Outcome {
	reasons := []string{}
	var functional chaintypes.FunctionalType

	selType, selOK := governanceSelector(ctx.Tx().Input)
	base := 0.0
	if selOK {
		base = 0.30
		functional = selType
		reasons = append(reasons, "known governance selector matched")
	}

	evtType, evtOK := governanceEvent(ctx)
	if evtOK && functional == "" {
		functional = evtType
	}
	if evtOK {
		reasons = append(reasons, "canonical governance event present")
	}

	// Any target with a protocol label counts as a known address here; the
	// chain configuration carries no separate governance address set.
	target := ctx.Execution().EffectiveTo
	_, addrKnown := ctx.Chain().ProtocolLabel(target)
	if addrKnown {
		reasons = append(reasons, "target has a known protocol label")
	}

	additions := boolToScore(selOK, 0.20) + boolToScore(evtOK, 0.25) + boolToScore(addrKnown, 0.35)
	additions = capSum(additions, 0.45)
	total := base + additions

	if functional == "" {
		functional = chaintypes.GovernanceVote
	}

	// Defer to Bridge/Lending when those rules would also match strongly;
	// priority + conflict dampening in the engine resolves the rest.
	if anyLogTopicMatches(ctx, nil,
		events.DepositFinalizedTopic, events.WithdrawalFinalizedTopic,
		events.AaveSupplyTopic, events.AaveWithdrawTopic, events.AaveBorrowTopic, events.AaveRepayTopic,
	) {
		total -= 0.50
		reasons = append(reasons, "penalty: bridge/lending signals also present")
	}

	verdict := chaintypes.RuleVerdict{
		Type:       functional,
		Confidence: total,
		Evidence: chaintypes.EvidenceBreakdown{
			MethodMatch:  base,
			EventMatch:   boolToScore(evtOK, 0.25),
			AddressMatch: boolToScore(addrKnown, 0.35),
		},
		Reasons:      reasons,
		RuleName:     "Governance",
		RulePriority: 90,
	}
	return Outcome{Verdict: verdict, Emit: total >= 0.70}
}
