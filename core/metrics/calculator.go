// Package metrics turns a matching assignment into the full per-document
// metric record: set metrics, rates, graph edit distance, semantic score and
// per-type breakdowns.
package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/relgraph/releval/core/match"
	"github.com/relgraph/releval/model"
)

// Calculator computes per-document evaluation results. The semantic scorer
// and the name lookup are optional; without a scorer the semantic score is
// reported as missing.
type Calculator struct {
	scorer        ScoreFunc
	scorerTimeout time.Duration
	nameOf        NameFunc
	log           *slog.Logger
}

// NewCalculator creates a calculator. scorer and nameOf may be nil.
func NewCalculator(scorer ScoreFunc, nameOf NameFunc, config model.EvalConfig, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Calculator{
		scorer:        scorer,
		scorerTimeout: config.ScorerTimeout,
		nameOf:        nameOf,
		log:           logger,
	}
}

// Compute evaluates one document's predictions against its gold relations
// under the given primary policy. It never errors on empty sets; every ratio
// has a defined zero-denominator value of 0.
func (c *Calculator) Compute(ctx context.Context, docID string, technique model.Technique, predicted []model.PredictedRelation, gold []model.Relation, policy model.MatchPolicy) (*model.EvaluationResult, error) {
	primary, err := match.Match(predicted, gold, policy)
	if err != nil {
		return nil, err
	}

	// The exact-match rate is always computed under EXACT, reusing the
	// primary assignment when the policies coincide.
	exact := primary
	if policy != model.PolicyExact {
		exact, err = match.Match(predicted, gold, model.PolicyExact)
		if err != nil {
			return nil, err
		}
	}

	result := &model.EvaluationResult{
		DocID:     docID,
		Technique: technique,
		Policy:    policy,
		PerType:   make(map[model.RelationType]model.TypeMetrics),
	}

	unresolvedFP := 0
	for i, outcome := range primary.Outcomes {
		if outcome.Matched() {
			result.TruePositives = append(result.TruePositives, model.MatchedPair{
				Predicted: predicted[i],
				Gold:      gold[outcome.GoldIndex],
			})
			continue
		}
		if outcome.Reason == model.MissUnresolvedEntity {
			unresolvedFP++
		}
		result.FalsePositives = append(result.FalsePositives, model.FalsePositive{
			Predicted: predicted[i],
			Reason:    outcome.Reason,
		})
	}
	for _, j := range primary.UnclaimedGold {
		result.FalseNegatives = append(result.FalseNegatives, gold[j])
	}

	tp := len(result.TruePositives)
	fp := len(result.FalsePositives)
	fn := len(result.FalseNegatives)

	result.Precision = safeDiv(float64(tp), float64(tp+fp))
	result.Recall = safeDiv(float64(tp), float64(tp+fn))
	result.F1 = harmonicMean(result.Precision, result.Recall)

	exactTP := 0
	for _, outcome := range exact.Outcomes {
		if outcome.Matched() {
			exactTP++
		}
	}
	result.ExactMatchRate = safeDiv(float64(exactTP), float64(len(gold)))
	result.OmissionRate = safeDiv(float64(fn), float64(len(gold)))
	result.HallucinationRate = safeDiv(float64(fp), float64(len(predicted)))
	result.UnresolvedRate = safeDiv(float64(unresolvedFP), float64(len(predicted)))
	result.RedundancyRate = redundancyRate(predicted)
	result.GraphEditDistance = GraphEditDistance(predicted, gold)

	c.scoreSemantic(ctx, result, predicted, gold, primary)
	c.computePerType(result, predicted, gold, policy)

	return result, nil
}

// safeDiv divides with the zero-denominator convention: 0, never NaN
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func harmonicMean(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}

// redundancyRate measures repeated predicted tuples, independent of
// correctness. Unresolved predictions are keyed by mention text so distinct
// failed mentions are not collapsed together.
func redundancyRate(predicted []model.PredictedRelation) float64 {
	if len(predicted) == 0 {
		return 0
	}

	type key struct {
		tuple       model.RelationTuple
		headMention string
		tailMention string
	}
	distinct := make(map[key]bool)
	for _, p := range predicted {
		k := key{}
		if p.Resolved() {
			k.tuple = p.Tuple()
		} else {
			k.tuple = model.RelationTuple{Type: p.Type}
			k.headMention = p.HeadMention
			k.tailMention = p.TailMention
		}
		distinct[k] = true
	}

	return float64(len(predicted)-len(distinct)) / float64(len(predicted))
}

// scoreSemantic averages scorer(predicted text, aligned gold text) over all
// predictions. Matched predictions align with their claimed gold relation;
// unmatched ones with the nearest gold relation. A scorer timeout or error
// is a soft failure: the pair is skipped and, if nothing could be scored,
// the result is flagged as missing rather than aborting the evaluation.
func (c *Calculator) scoreSemantic(ctx context.Context, result *model.EvaluationResult, predicted []model.PredictedRelation, gold []model.Relation, assignment *match.Assignment) {
	if c.scorer == nil || len(predicted) == 0 || len(gold) == 0 {
		result.SemanticScoreMissing = true
		return
	}

	total := 0.0
	scored := 0

	for i, p := range predicted {
		goldIdx := assignment.Outcomes[i].GoldIndex
		if goldIdx < 0 {
			goldIdx = nearestGold(p, gold, c.nameOf)
		}
		if goldIdx < 0 {
			continue
		}

		// A zero timeout means no deadline
		scoreCtx, cancel := ctx, func() {}
		if c.scorerTimeout > 0 {
			scoreCtx, cancel = context.WithTimeout(ctx, c.scorerTimeout)
		}
		score, err := c.scorer(scoreCtx, renderPredicted(p, c.nameOf), renderGold(gold[goldIdx], c.nameOf))
		cancel()
		if err != nil {
			c.log.Warn("semantic scorer failed, skipping pair",
				slog.String("doc_id", result.DocID), slog.Any("error", err))
			continue
		}

		total += clamp01(score)
		scored++
	}

	if scored == 0 {
		result.SemanticScoreMissing = true
		return
	}
	result.SemanticScore = total / float64(scored)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// computePerType reruns the matching restricted to each relation type.
// Types present in gold but never predicted still appear, with recall 0.
func (c *Calculator) computePerType(result *model.EvaluationResult, predicted []model.PredictedRelation, gold []model.Relation, policy model.MatchPolicy) {
	types := make(map[model.RelationType]bool)
	for _, p := range predicted {
		types[p.Type] = true
	}
	for _, g := range gold {
		types[g.Type] = true
	}

	for relType := range types {
		var predSubset []model.PredictedRelation
		for _, p := range predicted {
			if p.Type == relType {
				predSubset = append(predSubset, p)
			}
		}
		var goldSubset []model.Relation
		for _, g := range gold {
			if g.Type == relType {
				goldSubset = append(goldSubset, g)
			}
		}

		assignment, err := match.Match(predSubset, goldSubset, policy)
		if err != nil {
			// Subset matching can only violate invariants if the full
			// matching already did; Compute surfaces that first.
			continue
		}

		tp := 0
		for _, o := range assignment.Outcomes {
			if o.Matched() {
				tp++
			}
		}
		fp := len(predSubset) - tp
		fn := len(assignment.UnclaimedGold)

		precision := safeDiv(float64(tp), float64(tp+fp))
		recall := safeDiv(float64(tp), float64(tp+fn))

		result.PerType[relType] = model.TypeMetrics{
			Precision: precision,
			Recall:    recall,
			F1:        harmonicMean(precision, recall),
			TP:        tp,
			FP:        fp,
			FN:        fn,
		}
	}
}
