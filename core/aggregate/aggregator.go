// Package aggregate folds per-document evaluation results into corpus-level
// statistics per technique.
package aggregate

import "github.com/relgraph/releval/model"

// Aggregate recomputes corpus-level statistics from scratch over the given
// per-document results. It is a pure function of the input set; ordering of
// the slice does not affect any aggregate value. An empty input yields all
// zeroes.
//
// Macro metrics average the per-document values, weighting every document
// equally. Micro metrics pool the TP/FP/FN counts across documents before
// computing ratios, weighting every relation equally. The semantic average
// covers only documents where a score was actually produced.
func Aggregate(technique model.Technique, results []*model.EvaluationResult) *model.AggregateResults {
	agg := &model.AggregateResults{
		Technique: technique,
		Documents: results,
	}
	if len(results) == 0 {
		return agg
	}

	n := float64(len(results))
	totalTP, totalFP, totalFN := 0, 0, 0
	semanticTotal := 0.0

	for _, r := range results {
		agg.MacroPrecision += r.Precision / n
		agg.MacroRecall += r.Recall / n
		agg.MacroF1 += r.F1 / n

		agg.AvgExactMatchRate += r.ExactMatchRate / n
		agg.AvgOmissionRate += r.OmissionRate / n
		agg.AvgHallucinationRate += r.HallucinationRate / n
		agg.AvgUnresolvedRate += r.UnresolvedRate / n
		agg.AvgRedundancyRate += r.RedundancyRate / n
		agg.AvgGraphEditDistance += r.GraphEditDistance / n

		totalTP += len(r.TruePositives)
		totalFP += len(r.FalsePositives)
		totalFN += len(r.FalseNegatives)

		if !r.SemanticScoreMissing {
			semanticTotal += r.SemanticScore
			agg.SemanticScoredDocs++
		}
	}

	agg.MicroPrecision = safeDiv(float64(totalTP), float64(totalTP+totalFP))
	agg.MicroRecall = safeDiv(float64(totalTP), float64(totalTP+totalFN))
	if agg.MicroPrecision+agg.MicroRecall > 0 {
		agg.MicroF1 = 2 * agg.MicroPrecision * agg.MicroRecall / (agg.MicroPrecision + agg.MicroRecall)
	}

	if agg.SemanticScoredDocs > 0 {
		agg.AvgSemanticScore = semanticTotal / float64(agg.SemanticScoredDocs)
	}

	return agg
}

// AggregateAll groups results by technique and aggregates each group
func AggregateAll(results []*model.EvaluationResult) map[model.Technique]*model.AggregateResults {
	byTechnique := make(map[model.Technique][]*model.EvaluationResult)
	for _, r := range results {
		byTechnique[r.Technique] = append(byTechnique[r.Technique], r)
	}

	aggregates := make(map[model.Technique]*model.AggregateResults, len(byTechnique))
	for technique, group := range byTechnique {
		aggregates[technique] = Aggregate(technique, group)
	}
	return aggregates
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
