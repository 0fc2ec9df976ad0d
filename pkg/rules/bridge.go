package rules

import (
	"github.com/chainreceipt/txclassify/pkg/chaintypes"
	"github.com/chainreceipt/txclassify/pkg/classifyctx"
	"github.com/chainreceipt/txclassify/pkg/events"
)

// BridgeRule detects canonical bridge deposits and withdrawals.
type BridgeRule struct{}

func (BridgeRule) Name() string  { return "Bridge" }
func (BridgeRule) Priority() int { return 90 }

func (BridgeRule) Matches(ctx classifyctx.Context) bool {
	target := ctx.Execution().EffectiveTo
	if ctx.Chain().HasBridge(target) {
		return true
	}
	if anyLogTopicMatches(ctx, nil, events.DepositFinalizedTopic, events.WithdrawalFinalizedTopic) {
		return true
	}
	return false
}

func (BridgeRule) Classify(ctx classifyctx.Context) Outcome {
	target := ctx.Execution().EffectiveTo
	reasons := []string{}

	var addrSignal float64
	if ctx.Chain().HasBridge(target) {
		addrSignal += 0.35
		reasons = append(reasons, "effective target is a known canonical bridge")
	}
	hasBridgeEvent := anyLogTopicMatches(ctx, nil, events.DepositFinalizedTopic, events.WithdrawalFinalizedTopic)
	if hasBridgeEvent {
		addrSignal += 0.25
		reasons = append(reasons, "canonical bridge event present")
	}
	if logEmitterOtherThan(ctx, target, events.DepositFinalizedTopic, events.WithdrawalFinalizedTopic) {
		addrSignal += 0.20
		reasons = append(reasons, "bridge event emitted by a contract other than the target")
	}
	addrSignal = capSum(addrSignal, 0.45)

	flow := userFlow(ctx)

	var flowBase float64
	var functional chaintypes.FunctionalType
	switch {
	case flow.outOnly():
		flowBase = 0.40
		functional = chaintypes.BridgeDeposit
		reasons = append(reasons, "strictly unidirectional outgoing user flow")
	case flow.inOnly():
		flowBase = 0.40
		functional = chaintypes.BridgeWithdraw
		reasons = append(reasons, "strictly unidirectional incoming user flow")
	case flow.bidirectional():
		// Bidirectional user flow is not a bridge signal; force to zero.
		return Outcome{Verdict: chaintypes.RuleVerdict{Type: chaintypes.BridgeDeposit, RuleName: "Bridge", RulePriority: 90, Reasons: []string{"bidirectional user flow disqualifies bridge"}}, Emit: false}
	default:
		functional = chaintypes.BridgeDeposit
	}

	score := addrSignal + flowBase
	if !hasBridgeEvent {
		score -= 0.25
		reasons = append(reasons, "penalty: no bridge event present")
	}
	if score < 0 {
		score = 0
	}

	verdict := chaintypes.RuleVerdict{
		Type:       functional,
		Confidence: score,
		Evidence: chaintypes.EvidenceBreakdown{
			EventMatch:     boolToScore(hasBridgeEvent, 0.25),
			AddressMatch:   addrSignal,
			TokenFlowMatch: flowBase,
		},
		Reasons:      reasons,
		RuleName:     "Bridge",
		RulePriority: 90,
	}
	return Outcome{Verdict: verdict, Emit: score >= 0.70}
}

func boolToScore(b bool, v float64) float64 {
	if b {
		return v
	}
	return 0
}
