package rules

import (
	"github.com/chainreceipt/txclassify/pkg/chaintypes"
	"github.com/chainreceipt/txclassify/pkg/classifyctx"
	"github.com/chainreceipt/txclassify/pkg/events"
)

// StakingRule detects staking deposits, withdrawals and reward claims.
// It is not part of spec.md's original canonical table; SPEC_FULL.md adds
// it at the same priority and with the same evidence-channel shape as
// Lending, since StakingDeposit/Withdraw/ClaimRewards are part of the
// closed functional-type enum but otherwise had no scoring recipe.
type StakingRule struct{}

func (StakingRule) Name() string  { return "Staking" }
func (StakingRule) Priority() int { return 90 }

func (StakingRule) Matches(ctx classifyctx.Context) bool {
	target := ctx.Execution().EffectiveTo
	if ctx.Chain().HasStakingPool(target) {
		return true
	}
	return anyLogTopicMatches(ctx, nil, events.StakedTopic, events.WithdrawnTopic, events.RewardPaidTopic)
}

func (StakingRule) Classify(ctx classifyctx.Context) Outcome {
	target := ctx.Execution().EffectiveTo
	reasons := []string{}

	var addrSignal float64
	if ctx.Chain().HasStakingPool(target) {
		addrSignal += 0.35
		reasons = append(reasons, "effective target is a known staking pool")
	}
	stakedEvent := anyLogTopicMatches(ctx, nil, events.StakedTopic)
	withdrawnEvent := anyLogTopicMatches(ctx, nil, events.WithdrawnTopic)
	rewardEvent := anyLogTopicMatches(ctx, nil, events.RewardPaidTopic)
	if stakedEvent || withdrawnEvent || rewardEvent {
		addrSignal += 0.25
		reasons = append(reasons, "canonical staking event present")
	}
	addrSignal = capSum(addrSignal, 0.45)

	flow := userFlow(ctx)

	var functional chaintypes.FunctionalType
	var flowBase float64
	switch {
	case flow.outOnly() && stakedEvent:
		functional, flowBase = chaintypes.StakingDeposit, 0.40
		reasons = append(reasons, "user-out flow matches Staked event")
	case flow.inOnly() && withdrawnEvent:
		functional, flowBase = chaintypes.StakingWithdraw, 0.40
		reasons = append(reasons, "user-in flow matches Withdrawn event")
	case flow.inOnly() && rewardEvent && !withdrawnEvent:
		functional, flowBase = chaintypes.StakingClaimRewards, 0.40
		reasons = append(reasons, "user-in flow matches RewardPaid event with no principal withdrawal")
	case flow.bidirectional():
		return Outcome{
			Verdict: chaintypes.RuleVerdict{Type: chaintypes.StakingDeposit, RuleName: "Staking", RulePriority: 90, Reasons: []string{"bidirectional flow without a clean staking action"}},
			Emit:    false,
		}
	default:
		functional = chaintypes.StakingDeposit
	}

	score := addrSignal + flowBase
	verdict := chaintypes.RuleVerdict{
		Type:       functional,
		Confidence: score,
		Evidence:   chaintypes.EvidenceBreakdown{AddressMatch: addrSignal, TokenFlowMatch: flowBase},
		Reasons:    reasons,
		RuleName:   "Staking",
		RulePriority: 90,
	}
	return Outcome{Verdict: verdict, Emit: score >= 0.70}
}
