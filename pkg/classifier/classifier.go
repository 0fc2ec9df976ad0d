// Package classifier implements Phase 4 (rule engine evaluation) and
// Phase 5 (result shaping and the bounded LRU cache) of the classification
// pipeline, and exposes the single public entry point, Classify.
package classifier

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/chainreceipt/txclassify/pkg/chainconfig"
	"github.com/chainreceipt/txclassify/pkg/chaintypes"
	"github.com/chainreceipt/txclassify/pkg/classifyctx"
	"github.com/chainreceipt/txclassify/pkg/rules"
)

// globalFloor is τ, the minimum confidence any non-Unknown,
// non-UnclassifiedComplex result must clear.
const globalFloor = 0.55

// conflictDampeningMargin is the confidence gap below which the top
// candidate is dampened before re-sorting (step 7 of the evaluation
// algorithm).
const conflictDampeningMargin = 0.10

const conflictDampeningFactor = 0.9

// fallbackConfidence is the confidence assigned to UnclassifiedComplex when
// no rule clears the floor on a successful transaction.
const fallbackConfidence = 0.3

type debugKey struct{}

// WithDebug returns a context that requests a populated DebugTrace on the
// result. It gates whether the trace is attached; a result shaped with debug
// on also carries a random DebugTraceID, which no classification field
// depends on.
func WithDebug(ctx context.Context) context.Context {
	return context.WithValue(ctx, debugKey{}, true)
}

func debugRequested(ctx context.Context) bool {
	v, _ := ctx.Value(debugKey{}).(bool)
	return v
}

// Classifier ties a chain-configuration registry to a bounded result cache
// and evaluates the canonical rule set. A zero-value Classifier is not
// usable; construct one with New.
type Classifier struct {
	registry *chainconfig.Registry
	cache    *Cache
	rules    []rules.Rule
}

// New returns a Classifier backed by registry and cache. A nil registry
// uses chainconfig.Default(); a nil cache disables caching entirely (every
// call recomputes). Pass NewCache(n) to size the cache explicitly.
func New(registry *chainconfig.Registry, cache *Cache) *Classifier {
	if registry == nil {
		registry = chainconfig.Default()
	}
	return &Classifier{registry: registry, cache: cache, rules: rules.Canonical()}
}

// Classify runs the five-phase pipeline and returns a well-formed result.
// It never panics and never returns an error: the contract is total.
func (c *Classifier) Classify(
	ctx context.Context,
	tx chaintypes.Transaction,
	receipt chaintypes.Receipt,
	internal chaintypes.InternalTx,
	chainID uint64,
) chaintypes.ClassificationResult {
	// Step 1: failure dominance (I6/P5) — no other signal matters.
	if receipt.Status == chaintypes.StatusFailure {
		return chaintypes.ClassificationResult{
			PrimaryType: chaintypes.Unknown,
			Confidence:  chaintypes.Confidence{Score: 0, Reasons: []string{"Transaction Failed"}},
		}
	}

	// Step 2: cache lookup bypasses all remaining phases (P2).
	if c.cache != nil {
		if cached, ok := c.cache.Get(chainID, tx.Hash); ok {
			return cached
		}
	}

	// Step 3: build the frozen context (Phases 1 and 2).
	cfg := c.registry.Get(chainID)
	debug := debugRequested(ctx)
	cctx := classifyctx.Assemble(tx, receipt, internal, cfg, debug)

	result := c.evaluate(cctx)

	if c.cache != nil {
		c.cache.Put(chainID, tx.Hash, result)
	}
	return result
}

func (c *Classifier) evaluate(cctx classifyctx.Context) chaintypes.ClassificationResult {
	var candidates []chaintypes.RuleVerdict
	var nearMisses []chaintypes.RuleVerdict
	var trace []chaintypes.RuleTrace
	debug := cctx.Debug()

	for _, rule := range c.rules {
		if !rule.Matches(cctx) {
			if debug {
				trace = append(trace, chaintypes.RuleTrace{RuleName: rule.Name(), Matched: false})
			}
			continue
		}

		outcome, err := safeClassify(rule, cctx)
		if debug {
			t := chaintypes.RuleTrace{RuleName: rule.Name(), Matched: true, Err: err}
			if err == nil {
				v := outcome.Verdict
				t.Verdict = &v
			}
			trace = append(trace, t)
		}
		if err != nil {
			continue
		}

		// Step 5: ContractCreation short-circuits immediately at full
		// confidence, per I6's creation case and to avoid misreading
		// deployed-contract constructor logs as activity.
		if rule.Name() == "ContractCreation" && outcome.Emit {
			return c.shape(cctx, outcome.Verdict, nil, trace)
		}

		if outcome.Emit && outcome.Verdict.Confidence >= globalFloor {
			candidates = append(candidates, outcome.Verdict)
		} else if outcome.Verdict.Confidence > 0 {
			nearMisses = append(nearMisses, outcome.Verdict)
		}
	}

	sortCandidates(candidates)

	if len(candidates) == 0 {
		return c.shapeFallback(cctx, nearMisses, trace)
	}

	// Step 7: conflict dampening.
	if len(candidates) > 1 && candidates[0].Confidence-candidates[1].Confidence < conflictDampeningMargin {
		candidates[0].Confidence *= conflictDampeningFactor
		sortCandidates(candidates)
	}

	top := candidates[0]
	if top.Confidence < globalFloor {
		return c.shapeFallback(cctx, append(nearMisses, candidates...), trace)
	}

	return c.shape(cctx, top, candidates[1:], trace)
}

// sortCandidates orders by (confidence desc, priority desc) — P7, priority
// monotonicity on ties.
func sortCandidates(candidates []chaintypes.RuleVerdict) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		return candidates[i].RulePriority > candidates[j].RulePriority
	})
}

func (c *Classifier) shape(cctx classifyctx.Context, primary chaintypes.RuleVerdict, rest []chaintypes.RuleVerdict, trace []chaintypes.RuleTrace) chaintypes.ClassificationResult {
	exec := cctx.Execution()
	secondary := make([]chaintypes.SecondaryMatch, 0, len(rest))
	for _, v := range rest {
		secondary = append(secondary, chaintypes.SecondaryMatch{
			Type:       v.Type,
			Confidence: v.Confidence,
			Protocol:   v.Protocol,
			Reasons:    v.Reasons,
		})
	}

	result := chaintypes.ClassificationResult{
		PrimaryType:    primary.Type,
		ExecutionType:  exec.Type,
		Confidence:     chaintypes.Confidence{Score: primary.Confidence, Reasons: primary.Reasons},
		Protocol:       primary.Protocol,
		EffectiveTo:    exec.EffectiveTo,
		IsProxy:        exec.IsProxy,
		IsMultisig:     exec.IsMultisig,
		Implementation: exec.Implementation,
		Secondary:      secondary,
	}
	if cctx.Debug() {
		result.DebugTrace = trace
		result.DebugTraceID = uuid.NewString()
	}
	return result
}

// shapeFallback implements step 9: a successful transaction with no
// qualifying rule becomes UnclassifiedComplex, with reasons drawn from the
// highest-scoring near misses.
func (c *Classifier) shapeFallback(cctx classifyctx.Context, nearMisses []chaintypes.RuleVerdict, trace []chaintypes.RuleTrace) chaintypes.ClassificationResult {
	exec := cctx.Execution()
	reasons := []string{"no rule reached its confidence gate"}
	sortCandidates(nearMisses)
	for _, v := range nearMisses {
		reasons = append(reasons, fmt.Sprintf("near miss: %s scored %.2f toward %s", v.RuleName, v.Confidence, v.Type))
	}

	result := chaintypes.ClassificationResult{
		PrimaryType:    chaintypes.UnclassifiedComplex,
		ExecutionType:  exec.Type,
		Confidence:     chaintypes.Confidence{Score: fallbackConfidence, Reasons: reasons},
		EffectiveTo:    exec.EffectiveTo,
		IsProxy:        exec.IsProxy,
		IsMultisig:     exec.IsMultisig,
		Implementation: exec.Implementation,
	}
	if cctx.Debug() {
		result.DebugTrace = trace
		result.DebugTraceID = uuid.NewString()
	}
	return result
}

// safeClassify recovers a rule panicking during deep evaluation (an
// unexpected decode or arithmetic condition) and reports it as a non-fatal
// rule evaluation error instead of letting it escape Classify (§4.5).
func safeClassify(rule rules.Rule, cctx classifyctx.Context) (outcome rules.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rule %s panicked: %v", rule.Name(), r)
		}
	}()
	outcome = rule.Classify(cctx)
	return outcome, nil
}
