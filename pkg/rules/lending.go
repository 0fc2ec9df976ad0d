package rules

import (
	"github.com/chainreceipt/txclassify/pkg/chaintypes"
	"github.com/chainreceipt/txclassify/pkg/classifyctx"
	"github.com/chainreceipt/txclassify/pkg/events"
)

// LendingRule detects Aave/Compound-style lending pool interactions:
// deposit, withdraw, borrow, repay and liquidation.
type LendingRule struct{}

func (LendingRule) Name() string  { return "Lending" }
func (LendingRule) Priority() int { return 90 }

func (LendingRule) Matches(ctx classifyctx.Context) bool {
	target := ctx.Execution().EffectiveTo
	if ctx.Chain().HasLendingProtocol(target) {
		return true
	}
	return anyLogTopicMatches(ctx, nil,
		events.AaveSupplyTopic, events.AaveWithdrawTopic, events.AaveBorrowTopic,
		events.AaveRepayTopic, events.AaveLiquidationCallTopic,
		events.CompoundMintTopic, events.CompoundRedeemTopic,
		events.CompoundBorrowTopic, events.CompoundRepayBorrowTopic,
	)
}

func (LendingRule) Classify(ctx classifyctx.Context) Outcome {
	target := ctx.Execution().EffectiveTo
	reasons := []string{}

	var addrSignal float64
	if ctx.Chain().HasLendingProtocol(target) {
		addrSignal += 0.35
		reasons = append(reasons, "effective target is a known lending pool")
	}

	depositEvent := anyLogTopicMatches(ctx, nil, events.AaveSupplyTopic, events.CompoundMintTopic)
	withdrawEvent := anyLogTopicMatches(ctx, nil, events.AaveWithdrawTopic, events.CompoundRedeemTopic)
	borrowEvent := anyLogTopicMatches(ctx, nil, events.AaveBorrowTopic, events.CompoundBorrowTopic)
	repayEvent := anyLogTopicMatches(ctx, nil, events.AaveRepayTopic, events.CompoundRepayBorrowTopic)
	liquidationEvent := anyLogTopicMatches(ctx, nil, events.AaveLiquidationCallTopic)

	if depositEvent || withdrawEvent || borrowEvent || repayEvent || liquidationEvent {
		addrSignal += 0.25
		reasons = append(reasons, "canonical lending event present")
	}
	if logEmitterOtherThan(ctx, target,
		events.AaveSupplyTopic, events.AaveWithdrawTopic, events.AaveBorrowTopic,
		events.AaveRepayTopic, events.AaveLiquidationCallTopic,
		events.CompoundMintTopic, events.CompoundRedeemTopic,
		events.CompoundBorrowTopic, events.CompoundRepayBorrowTopic) {
		addrSignal += 0.20
		reasons = append(reasons, "lending event emitted by a pool other than the target")
	}
	addrSignal = capSum(addrSignal, 0.45)

	flow := userFlow(ctx)

	if liquidationEvent {
		score := addrSignal + 0.40
		reasons = append(reasons, "liquidation event trumps all other lending actions")
		return emitLending(chaintypes.LendingLiquidation, score, addrSignal, reasons)
	}

	var functional chaintypes.FunctionalType
	var flowBase float64
	switch {
	case flow.outOnly() && depositEvent:
		functional, flowBase = chaintypes.LendingDeposit, 0.40
		reasons = append(reasons, "user-out flow matches deposit event")
	case flow.inOnly() && withdrawEvent:
		functional, flowBase = chaintypes.LendingWithdraw, 0.40
		reasons = append(reasons, "user-in flow matches withdraw event")
	case flow.inOnly() && !withdrawEvent && borrowEvent:
		functional, flowBase = chaintypes.LendingBorrow, 0.40
		reasons = append(reasons, "user-in-only flow with borrow event")
	case flow.outOnly() && !depositEvent && repayEvent:
		functional, flowBase = chaintypes.LendingRepay, 0.40
		reasons = append(reasons, "user-out-only flow with repay event")
	case flow.bidirectional() && withdrawEvent:
		functional, flowBase = chaintypes.LendingWithdraw, 0.40
		reasons = append(reasons, "bidirectional flow with withdraw event")
	case flow.bidirectional() && depositEvent:
		functional, flowBase = chaintypes.LendingDeposit, 0.40
		reasons = append(reasons, "bidirectional flow with deposit event")
	case flow.bidirectional():
		return emitLending(chaintypes.LendingDeposit, 0, addrSignal, append(reasons, "bidirectional flow without a lending event"))
	default:
		functional = chaintypes.LendingDeposit
	}

	score := addrSignal + flowBase
	return emitLending(functional, score, addrSignal, reasons)
}

func emitLending(t chaintypes.FunctionalType, score, addrSignal float64, reasons []string) Outcome {
	verdict := chaintypes.RuleVerdict{
		Type:       t,
		Confidence: score,
		Evidence:   chaintypes.EvidenceBreakdown{AddressMatch: addrSignal, TokenFlowMatch: score - addrSignal},
		Reasons:    reasons,
		RuleName:   "Lending",
		RulePriority: 90,
	}
	return Outcome{Verdict: verdict, Emit: score >= 0.70}
}
