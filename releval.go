// Package releval evaluates LLM-extracted biomedical relation graphs
// against gold annotations. The facade wires the registry, resolver,
// matcher, metrics and aggregation together, with optional PostgreSQL
// persistence for results and cached embeddings.
package releval

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/relgraph/releval/core/aggregate"
	"github.com/relgraph/releval/core/evaluate"
	"github.com/relgraph/releval/core/metrics"
	"github.com/relgraph/releval/database"
	"github.com/relgraph/releval/helper"
	"github.com/relgraph/releval/model"
	"github.com/relgraph/releval/registry"
	"github.com/relgraph/releval/retrieval"
	loadSql "github.com/relgraph/releval/sql"
)

// EmbeddingDim is the dimensionality of the default sentence transformer
// (all-MiniLM-L6-v2)
const EmbeddingDim = 384

// Releval provides a unified interface to the evaluation pipeline
type Releval struct {
	DB         *helper.Database
	Results    *database.ResultsDBHandler
	Embeddings *database.EmbeddingsDBHandler
	Registry   *registry.Registry
	Store      *retrieval.VectorStore

	config    model.EvalConfig
	scorer    metrics.ScoreFunc
	evaluator *evaluate.Evaluator
	// Logging
	log *slog.Logger
}

// NewReleval creates an in-memory evaluation engine without persistence
func NewReleval(config model.EvalConfig) *Releval {
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	return &Releval{
		config: config,
		log:    logger,
	}
}

// NewRelevalWithDatabase creates an evaluation engine backed by PostgreSQL:
// results are persisted and embeddings are cached across runs.
func NewRelevalWithDatabase(config model.EvalConfig, dbConfig *helper.DatabaseConfiguration) (*Releval, error) {
	r := NewReleval(config)

	db := helper.NewDatabase("releval", dbConfig, r.log)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// force=false to not reload if functions already exist
	results, err := database.NewResultsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create results handler", err)
	}

	embeddings, err := database.NewEmbeddingsDBHandler(db, EmbeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create embeddings handler", err)
	}

	r.DB = db
	r.Results = results
	r.Embeddings = embeddings
	return r, nil
}

// Close closes the database connection
func (r *Releval) Close() error {
	if r.DB != nil && r.DB.Instance != nil {
		return r.DB.Instance.Close()
	}
	return nil
}

// BuildRegistry folds every document's gold entities into the global
// registry and freezes it. Must be called before evaluation; a type
// conflict across documents aborts the build.
func (r *Releval) BuildRegistry(golds []*model.GoldRelations) error {
	builder := registry.NewBuilder()
	for _, gold := range golds {
		if err := builder.AddDocument(gold); err != nil {
			return helper.NewError("build registry", err)
		}
	}

	r.Registry = builder.Freeze()
	r.evaluator = nil

	r.log.Info("Built global entity registry",
		slog.Int("entities", r.Registry.Len()),
		slog.Int("documents", len(golds)))
	return nil
}

// SetScorer installs a semantic similarity scorer for evaluation
func (r *Releval) SetScorer(scorer metrics.ScoreFunc) {
	r.scorer = scorer
	r.evaluator = nil
}

// UseDefaultScorer installs the embedding-based semantic scorer, caching
// embeddings in the database when one is configured.
func (r *Releval) UseDefaultScorer() error {
	embed, err := retrieval.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}
	if r.Embeddings != nil {
		embed = retrieval.CachedEmbedder(embed, r.Embeddings, r.log)
	}

	r.SetScorer(retrieval.NewEmbeddingScorer(embed))
	return nil
}

// SetupVectorStore indexes the given documents for retrieval-augmented
// prompting. The store satisfies the RAG prompter's retriever contract.
func (r *Releval) SetupVectorStore(documents []model.Document) error {
	embed, err := retrieval.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}
	if r.Embeddings != nil {
		embed = retrieval.CachedEmbedder(embed, r.Embeddings, r.log)
	}

	store, err := retrieval.NewVectorStore(embed)
	if err != nil {
		return helper.NewError("create vector store", err)
	}
	for _, doc := range documents {
		if err := store.AddDocument(doc); err != nil {
			return helper.NewError("index document", err)
		}
	}

	r.Store = store
	r.log.Info("Indexed documents for retrieval", slog.Int("passages", store.Len()))
	return nil
}

// EvaluateDocument evaluates one document's predictions against its gold
// relations. Requires a built registry.
func (r *Releval) EvaluateDocument(ctx context.Context, prediction evaluate.DocumentPrediction, gold []model.Relation) (*model.EvaluationResult, error) {
	evaluator, err := r.getEvaluator()
	if err != nil {
		return nil, err
	}
	return evaluator.EvaluateDocument(ctx, prediction, gold)
}

// EvaluateCorpus evaluates all predictions in parallel and, when a database
// is configured, persists every per-document result.
func (r *Releval) EvaluateCorpus(ctx context.Context, predictions []evaluate.DocumentPrediction, gold map[string][]model.Relation) ([]*model.EvaluationResult, error) {
	evaluator, err := r.getEvaluator()
	if err != nil {
		return nil, err
	}

	results, err := evaluator.EvaluateCorpus(ctx, predictions, gold)
	if err != nil {
		return nil, err
	}

	if r.Results != nil {
		for _, result := range results {
			if _, err := r.Results.InsertResult(result); err != nil {
				return nil, helper.NewError("persist result", err)
			}
		}
	}

	return results, nil
}

// Aggregate folds per-document results into corpus-level statistics per
// technique and, when a database is configured, persists one aggregate row
// per (run, technique).
func (r *Releval) Aggregate(results []*model.EvaluationResult) (map[model.Technique]*model.AggregateResults, error) {
	aggregates := aggregate.AggregateAll(results)

	if r.Results != nil {
		for technique, agg := range aggregates {
			runID := ""
			for _, doc := range agg.Documents {
				if doc.RunID != "" {
					runID = doc.RunID
					break
				}
			}
			if _, err := r.Results.InsertAggregate(runID, r.config.Policy, agg); err != nil {
				return nil, helper.NewError(fmt.Sprintf("persist aggregate %s", technique), err)
			}
		}
	}

	return aggregates, nil
}

func (r *Releval) getEvaluator() (*evaluate.Evaluator, error) {
	if r.Registry == nil {
		return nil, helper.NewError("evaluate", fmt.Errorf("registry not built, use BuildRegistry() first"))
	}
	if r.evaluator == nil {
		r.evaluator = evaluate.NewEvaluator(r.Registry, r.scorer, r.config, r.log)
	}
	return r.evaluator, nil
}
