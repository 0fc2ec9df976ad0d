package rules

import (
	"github.com/chainreceipt/txclassify/pkg/chaintypes"
	"github.com/chainreceipt/txclassify/pkg/classifyctx"
	"github.com/chainreceipt/txclassify/pkg/events"
)

// SwapRule detects DEX swaps: a canonical swap event, or a user flow that
// both sends and receives above-dust assets.
type SwapRule struct{}

func (SwapRule) Name() string  { return "Swap" }
func (SwapRule) Priority() int { return 90 }

func hasSwapEvent(ctx classifyctx.Context) bool {
	return anyLogTopicMatches(ctx, nil, events.UniswapV2SwapTopic, events.UniswapV3SwapTopic)
}

func (SwapRule) Matches(ctx classifyctx.Context) bool {
	if hasSwapEvent(ctx) {
		return true
	}
	flow := userFlow(ctx)
	return flow.bidirectional()
}

func (SwapRule) Classify(ctx classifyctx.Context) Outcome {
	flow := userFlow(ctx)
	reasons := []string{}

	swapEvent := hasSwapEvent(ctx)
	var score float64
	if swapEvent {
		score += 0.25
		reasons = append(reasons, "canonical DEX swap event present")
	}

	if !flow.bidirectional() {
		return Outcome{
			Verdict: chaintypes.RuleVerdict{
				Type: chaintypes.Swap, RuleName: "Swap", RulePriority: 90,
				Reasons: []string{"user flow is not bidirectional above dust"},
			},
			Emit: false,
		}
	}
	score += 0.40
	reasons = append(reasons, "bidirectional above-dust user flow")

	target := ctx.Execution().EffectiveTo
	if anyLogTopicMatches(ctx, &target, events.UniswapV2SwapTopic, events.UniswapV3SwapTopic) {
		score += 0.10
		reasons = append(reasons, "swap event emitted by effective target")
	}

	receivedAssets := distinctAssets(flow.in) // what the user received
	if len(receivedAssets) == 1 {
		score += 0.15
		reasons = append(reasons, "single dominant output asset")
	}

	sentAssets := distinctAssets(flow.out)
	if len(sentAssets) == 1 && len(receivedAssets) == 1 {
		var sentAsset, receivedAsset chaintypes.TokenMovement
		for _, m := range flow.out {
			sentAsset = m
			break
		}
		for _, m := range flow.in {
			receivedAsset = m
			break
		}
		if sentAsset.Asset == receivedAsset.Asset {
			score -= 0.40
			reasons = append(reasons, "penalty: single asset wrapped/unwrapped, not swapped")
		}
	}

	protocol := ""
	if label, ok := ctx.Chain().ProtocolLabel(target); ok {
		protocol = label
	} else if swapEvent {
		protocol = "DEX"
	}

	verdict := chaintypes.RuleVerdict{
		Type:       chaintypes.Swap,
		Confidence: score,
		Evidence: chaintypes.EvidenceBreakdown{
			EventMatch:     boolToScore(swapEvent, 0.25),
			TokenFlowMatch: 0.40,
			ExecutionMatch: boolToScore(ctx.Chain().HasRouter(target), 1.0),
		},
		Protocol:     protocol,
		Reasons:      reasons,
		RuleName:     "Swap",
		RulePriority: 90,
	}
	return Outcome{Verdict: verdict, Emit: score >= 0.55}
}
