package rules

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/chainreceipt/txclassify/pkg/chaintypes"
	"github.com/chainreceipt/txclassify/pkg/classifyctx"
)

// flowShape summarizes the user's own flow for the scoring recipes, which
// repeatedly ask the same three questions: did the user send anything, did
// the user receive anything, and is that bidirectional.
type flowShape struct {
	out []chaintypes.TokenMovement
	in  []chaintypes.TokenMovement
}

func userFlow(ctx classifyctx.Context) flowShape {
	f := ctx.UserFlow()
	return flowShape{out: f.Outgoing, in: f.Incoming}
}

func (f flowShape) hasOut() bool          { return len(f.out) > 0 }
func (f flowShape) hasIn() bool           { return len(f.in) > 0 }
func (f flowShape) bidirectional() bool   { return f.hasOut() && f.hasIn() }
func (f flowShape) outOnly() bool         { return f.hasOut() && !f.hasIn() }
func (f flowShape) inOnly() bool          { return f.hasIn() && !f.hasOut() }

// distinctAssets returns the set of distinct asset addresses among ms,
// native movements included via the zero-address sentinel.
func distinctAssets(ms []chaintypes.TokenMovement) map[common.Address]struct{} {
	set := make(map[common.Address]struct{})
	for _, m := range ms {
		set[m.Asset] = struct{}{}
	}
	return set
}

// anyLogTopicMatches reports whether any log in the receipt carries topic0
// equal to one of wanted, optionally restricted to logs emitted by
// emittedBy (a nil emittedBy matches any address).
func anyLogTopicMatches(ctx classifyctx.Context, emittedBy *common.Address, wanted ...common.Hash) bool {
	for _, log := range ctx.Receipt().Logs {
		if emittedBy != nil && log.Address != *emittedBy {
			continue
		}
		t0 := log.Topic(0)
		for _, w := range wanted {
			if t0 == w {
				return true
			}
		}
	}
	return false
}

// logEmitterOtherThan reports whether any log matching one of wanted is
// emitted by an address other than exclude.
func logEmitterOtherThan(ctx classifyctx.Context, exclude common.Address, wanted ...common.Hash) bool {
	for _, log := range ctx.Receipt().Logs {
		if log.Address == exclude {
			continue
		}
		t0 := log.Topic(0)
		for _, w := range wanted {
			if t0 == w {
				return true
			}
		}
	}
	return false
}

func capSum(v, cap float64) float64 {
	if v > cap {
		return cap
	}
	return v
}

func isNFT(m chaintypes.TokenMovement) bool {
	return m.Kind == chaintypes.AssetERC721 || m.Kind == chaintypes.AssetERC1155
}

func isPayment(m chaintypes.TokenMovement) bool {
	return m.Kind == chaintypes.AssetNative || m.Kind == chaintypes.AssetERC20
}
