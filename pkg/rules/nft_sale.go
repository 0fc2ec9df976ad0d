package rules

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/chainreceipt/txclassify/pkg/chaintypes"
	"github.com/chainreceipt/txclassify/pkg/classifyctx"
	"github.com/chainreceipt/txclassify/pkg/events"
)

// NftSaleRule detects marketplace sales, standard EVM mints, and falls back
// to a plain NftTransfer when an NFT moved but no sale correlates with it.
type NftSaleRule struct{}

func (NftSaleRule) Name() string  { return "NftSale" }
func (NftSaleRule) Priority() int { return 80 }

func hasMarketplaceEvent(ctx classifyctx.Context) bool {
	return anyLogTopicMatches(ctx, nil,
		events.SeaportOrderFulfilledTopic, events.LooksRareTakerAskTopic, events.LooksRareTakerBidTopic,
		events.BlurOrdersMatchedTopic, events.OpenSeaOrdersMatchedTopic,
	)
}

func nftMovements(flow flowShape) []chaintypes.TokenMovement {
	var out []chaintypes.TokenMovement
	for _, m := range flow.out {
		if isNFT(m) {
			out = append(out, m)
		}
	}
	for _, m := range flow.in {
		if isNFT(m) {
			out = append(out, m)
		}
	}
	return out
}

func paymentMovements(ms []chaintypes.TokenMovement) []chaintypes.TokenMovement {
	var out []chaintypes.TokenMovement
	for _, m := range ms {
		if isPayment(m) {
			out = append(out, m)
		}
	}
	return out
}

var zeroAddress common.Address

func (NftSaleRule) Matches(ctx classifyctx.Context) bool {
	if hasMarketplaceEvent(ctx) {
		return true
	}
	return len(nftMovements(userFlow(ctx))) > 0
}

func (NftSaleRule) Classify(ctx classifyctx.Context) Outcome {
	flow := userFlow(ctx)
	nfts := nftMovements(flow)

	// Mint detection precedes sale scoring so a mint is never miscoded.
	for _, nft := range nfts {
		if nft.From != zeroAddress {
			continue
		}
		if len(paymentMovements(flow.out)) > 0 {
			return Outcome{
				Verdict: chaintypes.RuleVerdict{
					Type:       chaintypes.NftMint,
					Confidence: 0.80,
					Evidence:   chaintypes.EvidenceBreakdown{TokenFlowMatch: 0.80},
					Reasons:    []string{"NFT minted from the zero address against a user payment"},
					RuleName:   "NftSale",
					RulePriority: 80,
				},
				Emit: true,
			}
		}
	}

	marketplace := hasMarketplaceEvent(ctx)
	reasons := []string{}
	score := 0.50
	if marketplace {
		score += 0.30
		reasons = append(reasons, "marketplace event present")
	}

	sentNFT := false
	receivedNFT := false
	for _, m := range flow.out {
		if isNFT(m) {
			sentNFT = true
		}
	}
	for _, m := range flow.in {
		if isNFT(m) {
			receivedNFT = true
		}
	}
	sentPayment := len(paymentMovements(flow.out)) > 0
	receivedPayment := len(paymentMovements(flow.in)) > 0

	correlated := (sentNFT && receivedPayment) || (receivedNFT && sentPayment)
	if correlated {
		score += 0.40
		reasons = append(reasons, "correlated NFT and payment flow")

		collections := distinctAssets(nfts)
		if len(collections) == 1 {
			score += 0.15
			reasons = append(reasons, "all NFT movements share one collection")
		} else if len(collections) > 1 {
			score -= 0.15
			reasons = append(reasons, "penalty: mixed collections")
		}

		var paymentAssets map[common.Address]struct{}
		if sentNFT {
			paymentAssets = distinctAssets(paymentMovements(flow.in))
		} else {
			paymentAssets = distinctAssets(paymentMovements(flow.out))
		}
		if len(paymentAssets) > 1 {
			score -= 0.10
			reasons = append(reasons, "penalty: payment uses more than one asset")
		}
	} else {
		score = 0
		reasons = append(reasons, "no payment/NFT correlation")
	}

	if score > 1.0 {
		score = 1.0
	}

	if score >= 0.70 {
		protocol := ""
		if marketplace {
			protocol = "NFT Marketplace"
		}
		verdict := chaintypes.RuleVerdict{
			Type:       chaintypes.NftSale,
			Confidence: score,
			Evidence:   chaintypes.EvidenceBreakdown{EventMatch: boolToScore(marketplace, 0.30), TokenFlowMatch: 0.40},
			Protocol:   protocol,
			Reasons:    reasons,
			RuleName:   "NftSale",
			RulePriority: 80,
		}
		return Outcome{Verdict: verdict, Emit: true}
	}

	if len(nfts) > 0 {
		return Outcome{
			Verdict: chaintypes.RuleVerdict{
				Type:       chaintypes.NftTransfer,
				Confidence: 0.90,
				Evidence:   chaintypes.EvidenceBreakdown{TokenFlowMatch: 0.90},
				Reasons:    append(reasons, "fallback: NFT moved without a qualifying sale correlation"),
				RuleName:   "NftSale",
				RulePriority: 80,
			},
			Emit: true,
		}
	}

	return Outcome{Verdict: chaintypes.RuleVerdict{Type: chaintypes.NftSale, RuleName: "NftSale", RulePriority: 80, Reasons: []string{"below sale threshold, no NFT to fall back to"}}, Emit: false}
}
