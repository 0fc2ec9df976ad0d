package rules

import (
	"github.com/chainreceipt/txclassify/pkg/chaintypes"
	"github.com/chainreceipt/txclassify/pkg/classifyctx"
)

// TransferRule is the lowest-priority fallback: plain native, ERC-20 and
// NFT transfers that no higher-priority rule claimed.
type TransferRule struct{}

func (TransferRule) Name() string  { return "Transfer" }
func (TransferRule) Priority() int { return 40 }

func (TransferRule) Matches(ctx classifyctx.Context) bool {
	flow := userFlow(ctx)
	// Bidirectional user flow is Swap/Lending/Staking territory.
	return !flow.bidirectional()
}

func (TransferRule) Classify(ctx classifyctx.Context) Outcome {
	flow := userFlow(ctx)
	tx := ctx.Tx()

	if len(tx.Input) == 0 && tx.Value != nil && !tx.Value.IsZero() &&
		len(flow.out) == 1 && flow.out[0].Kind == chaintypes.AssetNative &&
		len(ctx.Receipt().Logs) == 0 {
		return Outcome{
			Verdict: chaintypes.RuleVerdict{
				Type: chaintypes.NativeTransfer, Confidence: 0.60,
				Evidence: chaintypes.EvidenceBreakdown{TokenFlowMatch: 0.60},
				Reasons:  []string{"single native value movement, no calldata, no logs"},
				RuleName: "Transfer", RulePriority: 40,
			},
			Emit: true,
		}
	}

	erc20Movements := onlyKind(append(flow.out, flow.in...), chaintypes.AssetERC20)
	if len(erc20Movements) == 1 && (flow.outOnly() || flow.inOnly()) {
		return Outcome{
			Verdict: chaintypes.RuleVerdict{
				Type: chaintypes.TokenTransfer, Confidence: 0.60,
				Evidence: chaintypes.EvidenceBreakdown{TokenFlowMatch: 0.60},
				Reasons:  []string{"single ERC-20 movement, user exclusively sender or receiver"},
				RuleName: "Transfer", RulePriority: 40,
			},
			Emit: true,
		}
	}

	nftMoves := nftMovements(flow)
	if len(nftMoves) == 1 && (flow.outOnly() || flow.inOnly()) {
		return Outcome{
			Verdict: chaintypes.RuleVerdict{
				Type: chaintypes.NftTransfer, Confidence: 0.60,
				Evidence: chaintypes.EvidenceBreakdown{TokenFlowMatch: 0.60},
				Reasons:  []string{"single NFT movement, user exclusively sender or receiver"},
				RuleName: "Transfer", RulePriority: 40,
			},
			Emit: true,
		}
	}

	if !flow.hasOut() && !flow.hasIn() && len(ctx.Approvals()) > 0 {
		return Outcome{
			Verdict: chaintypes.RuleVerdict{
				Type: chaintypes.TokenApproval, Confidence: 0.60,
				Evidence: chaintypes.EvidenceBreakdown{EventMatch: 0.60},
				Reasons:  []string{"only approval events present, no asset movement"},
				RuleName: "Transfer", RulePriority: 40,
			},
			Emit: true,
		}
	}

	return Outcome{Verdict: chaintypes.RuleVerdict{Type: chaintypes.ContractInteraction, RuleName: "Transfer", RulePriority: 40, Reasons: []string{"no qualifying single-movement transfer pattern"}}, Emit: false}
}

func onlyKind(ms []chaintypes.TokenMovement, kind chaintypes.AssetKind) []chaintypes.TokenMovement {
	var out []chaintypes.TokenMovement
	for _, m := range ms {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}
