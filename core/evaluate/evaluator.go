// Package evaluate drives the per-document pipeline: resolve surface
// relations against the registry, match them to gold and compute metrics,
// fanning out over documents with a bounded worker pool.
package evaluate

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/relgraph/releval/core/match"
	"github.com/relgraph/releval/core/metrics"
	"github.com/relgraph/releval/core/resolve"
	"github.com/relgraph/releval/model"
	"github.com/relgraph/releval/registry"
)

// DocumentPrediction is one model output for one document: the surface
// relations parsed from the response of a single technique.
type DocumentPrediction struct {
	DocID     string                  `json:"doc_id"`
	Technique model.Technique         `json:"technique"`
	Relations []model.SurfaceRelation `json:"relations"`
}

// Evaluator binds the frozen registry, the resolver and the metrics
// calculator for a corpus run. Safe for concurrent use.
type Evaluator struct {
	resolver   *resolve.Resolver
	calculator *metrics.Calculator
	config     model.EvalConfig
	log        *slog.Logger
}

// NewEvaluator creates an evaluator over a frozen registry. scorer may be
// nil, in which case semantic scores are reported as missing.
func NewEvaluator(reg *registry.Registry, scorer metrics.ScoreFunc, config model.EvalConfig, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	nameOf := func(id string) string {
		if entity := reg.Entity(id); entity != nil {
			return entity.CanonicalName
		}
		return ""
	}
	return &Evaluator{
		resolver:   resolve.NewResolver(reg, config),
		calculator: metrics.NewCalculator(scorer, nameOf, config, logger),
		config:     config,
		log:        logger,
	}
}

// EvaluateDocument resolves and evaluates one document's predictions
// against its gold relations.
func (e *Evaluator) EvaluateDocument(ctx context.Context, prediction DocumentPrediction, gold []model.Relation) (*model.EvaluationResult, error) {
	resolved := make([]model.PredictedRelation, 0, len(prediction.Relations))
	for _, surface := range prediction.Relations {
		predicted := e.resolver.ResolveRelation(surface)
		if !predicted.Resolved() {
			e.log.Debug("entity resolution failed",
				slog.String("doc_id", prediction.DocID),
				slog.String("head", surface.HeadText),
				slog.String("tail", surface.TailText))
		}
		resolved = append(resolved, predicted)
	}

	result, err := e.calculator.Compute(ctx, prediction.DocID, prediction.Technique, resolved, gold, e.config.Policy)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// EvaluateCorpus evaluates all predictions in parallel with at most
// config.Workers documents in flight. Results keep the input order and
// share one generated run ID.
// Documents whose matching violates the one-to-one assignment invariant
// are logged and excluded; any other error aborts the run.
func (e *Evaluator) EvaluateCorpus(ctx context.Context, predictions []DocumentPrediction, gold map[string][]model.Relation) ([]*model.EvaluationResult, error) {
	runID := uuid.New().String()
	slots := make([]*model.EvaluationResult, len(predictions))

	group, groupCtx := errgroup.WithContext(ctx)
	workers := e.config.Workers
	if workers < 1 {
		workers = 1
	}
	group.SetLimit(workers)

	for i, prediction := range predictions {
		group.Go(func() error {
			result, err := e.EvaluateDocument(groupCtx, prediction, gold[prediction.DocID])
			if err != nil {
				if errors.Is(err, match.ErrPolicyViolation) {
					e.log.Error("skipping document after matching violation",
						slog.String("doc_id", prediction.DocID),
						slog.String("technique", string(prediction.Technique)),
						slog.Any("error", err))
					return nil
				}
				return err
			}
			result.RunID = runID
			slots[i] = result
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	results := make([]*model.EvaluationResult, 0, len(slots))
	for _, result := range slots {
		if result != nil {
			results = append(results, result)
		}
	}
	return results, nil
}
