package database

import (
	"testing"
	"time"

	"github.com/relgraph/releval/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult(docID string, technique model.Technique) *model.EvaluationResult {
	return &model.EvaluationResult{
		DocID:     docID,
		Technique: technique,
		Policy:    model.PolicyExact,
		TruePositives: []model.MatchedPair{
			{
				Gold: model.Relation{ID: "R1", HeadID: "A", TailID: "B", Type: model.RelationAssociation},
			},
		},
		Precision:     1.0,
		Recall:        0.5,
		F1:            2.0 / 3.0,
		SemanticScore: 0.8,
		PerType: map[model.RelationType]model.TypeMetrics{
			model.RelationAssociation: {Precision: 1.0, Recall: 0.5, F1: 2.0 / 3.0, TP: 1, FN: 1},
		},
	}
}

func TestResultsNewResultsDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewResultsDBHandler", func(t *testing.T) {
		resultsDbHandler, err := NewResultsDBHandler(database, true)
		assert.NoError(t, err, "Expected NewResultsDBHandler to not return an error")
		require.NotNil(t, resultsDbHandler, "Expected NewResultsDBHandler to return a non-nil instance")
		require.NotNil(t, resultsDbHandler.db, "Expected NewResultsDBHandler to have a non-nil database instance")
	})

	t.Run("Invalid call NewResultsDBHandler with nil database", func(t *testing.T) {
		_, err := NewResultsDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating ResultsDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestResultsInsert(t *testing.T) {
	database := initDB(t)

	resultsDbHandler, err := NewResultsDBHandler(database, true)
	require.NoError(t, err, "Expected NewResultsDBHandler to not return an error")

	t.Run("Insert result", func(t *testing.T) {
		stored, err := resultsDbHandler.InsertResult(sampleResult("doc1", model.TechniqueIO))
		assert.NoError(t, err, "Expected Insert to not return an error")
		require.NotNil(t, stored)
		assert.NotEmpty(t, stored.ID, "Expected inserted result to have an ID")
		assert.WithinDuration(t, stored.CreatedAt, time.Now(), 2*time.Second, "Expected CreatedAt to be set")
		assert.Equal(t, "doc1", stored.Result.DocID, "Expected payload round trip")
	})

	t.Run("Insert replaces an existing run", func(t *testing.T) {
		updated := sampleResult("doc1", model.TechniqueIO)
		updated.F1 = 1.0

		stored, err := resultsDbHandler.InsertResult(updated)
		require.NoError(t, err, "Expected upsert to not return an error")
		assert.Equal(t, 1.0, stored.Result.F1, "Expected updated payload")

		results, err := resultsDbHandler.SelectResultsByTechnique(model.TechniqueIO, model.PolicyExact)
		require.NoError(t, err)
		assert.Len(t, results, 1, "Expected a single row per (doc, technique, policy)")
	})

	t.Run("Insert result with missing semantic score", func(t *testing.T) {
		result := sampleResult("doc2", model.TechniqueIO)
		result.SemanticScore = 0
		result.SemanticScoreMissing = true

		stored, err := resultsDbHandler.InsertResult(result)
		require.NoError(t, err)
		assert.True(t, stored.Result.SemanticScoreMissing, "Expected missing flag round trip")
	})
}

func TestResultsSelect(t *testing.T) {
	database := initDB(t)

	resultsDbHandler, err := NewResultsDBHandler(database, true)
	require.NoError(t, err, "Expected NewResultsDBHandler to not return an error")

	_, err = resultsDbHandler.InsertResult(sampleResult("doc1", model.TechniqueCoT))
	require.NoError(t, err)
	_, err = resultsDbHandler.InsertResult(sampleResult("doc2", model.TechniqueCoT))
	require.NoError(t, err)
	_, err = resultsDbHandler.InsertResult(sampleResult("doc1", model.TechniqueRAG))
	require.NoError(t, err)

	t.Run("Select single result", func(t *testing.T) {
		stored, err := resultsDbHandler.SelectResult("doc1", model.TechniqueCoT, model.PolicyExact)
		require.NoError(t, err)
		require.NotNil(t, stored, "Expected a stored result")
		assert.Equal(t, model.TechniqueCoT, stored.Result.Technique, "Expected the requested technique")
		require.Len(t, stored.Result.TruePositives, 1, "Expected payload details preserved")
		assert.Equal(t, "R1", stored.Result.TruePositives[0].Gold.ID, "Expected nested gold relation preserved")
	})

	t.Run("Select absent result returns nil", func(t *testing.T) {
		stored, err := resultsDbHandler.SelectResult("missing", model.TechniqueCoT, model.PolicyExact)
		require.NoError(t, err)
		assert.Nil(t, stored, "Expected nil for an absent row")
	})

	t.Run("Select by technique is ordered by doc id", func(t *testing.T) {
		results, err := resultsDbHandler.SelectResultsByTechnique(model.TechniqueCoT, model.PolicyExact)
		require.NoError(t, err)
		require.Len(t, results, 2, "Expected both CoT rows")
		assert.Equal(t, "doc1", results[0].Result.DocID, "Expected ordering by doc id")
		assert.Equal(t, "doc2", results[1].Result.DocID, "Expected ordering by doc id")
	})

	t.Run("Delete by technique removes only that technique", func(t *testing.T) {
		err := resultsDbHandler.DeleteResultsByTechnique(model.TechniqueCoT)
		require.NoError(t, err)

		results, err := resultsDbHandler.SelectResultsByTechnique(model.TechniqueCoT, model.PolicyExact)
		require.NoError(t, err)
		assert.Empty(t, results, "Expected CoT rows deleted")

		remaining, err := resultsDbHandler.SelectResultsByTechnique(model.TechniqueRAG, model.PolicyExact)
		require.NoError(t, err)
		assert.Len(t, remaining, 1, "Expected RAG rows untouched")
	})
}

func TestResultsSelectByRun(t *testing.T) {
	database := initDB(t)

	resultsDbHandler, err := NewResultsDBHandler(database, true)
	require.NoError(t, err, "Expected NewResultsDBHandler to not return an error")

	first := sampleResult("doc1", model.TechniqueIO)
	first.RunID = "run-a"
	second := sampleResult("doc2", model.TechniqueIO)
	second.RunID = "run-a"
	other := sampleResult("doc1", model.TechniqueCoT)
	other.RunID = "run-b"

	for _, result := range []*model.EvaluationResult{first, second, other} {
		_, err := resultsDbHandler.InsertResult(result)
		require.NoError(t, err)
	}

	t.Run("Select by run returns only that run", func(t *testing.T) {
		results, err := resultsDbHandler.SelectResultsByRun("run-a")
		require.NoError(t, err)
		require.Len(t, results, 2, "Expected both run-a rows")
		assert.Equal(t, "run-a", results[0].RunID, "Expected run id on the stored row")
		assert.Equal(t, "doc1", results[0].Result.DocID, "Expected ordering by technique then doc id")
		assert.Equal(t, "doc2", results[1].Result.DocID, "Expected ordering by technique then doc id")
	})

	t.Run("Select by unknown run returns nothing", func(t *testing.T) {
		results, err := resultsDbHandler.SelectResultsByRun("run-missing")
		require.NoError(t, err)
		assert.Empty(t, results, "Expected no rows for an unknown run")
	})
}

func TestResultsAggregates(t *testing.T) {
	database := initDB(t)

	resultsDbHandler, err := NewResultsDBHandler(database, true)
	require.NoError(t, err, "Expected NewResultsDBHandler to not return an error")

	aggregate := &model.AggregateResults{
		Technique:      model.TechniqueIO,
		MacroPrecision: 0.75,
		MacroRecall:    0.5,
		MacroF1:        0.6,
		MicroF1:        0.55,
	}

	t.Run("Insert and select aggregate", func(t *testing.T) {
		stored, err := resultsDbHandler.InsertAggregate("run-a", model.PolicyExact, aggregate)
		require.NoError(t, err, "Expected InsertAggregate to not return an error")
		assert.NotEmpty(t, stored.ID, "Expected inserted aggregate to have an ID")
		assert.Equal(t, "run-a", stored.RunID, "Expected run id on the stored row")
		assert.Equal(t, model.PolicyExact, stored.Policy, "Expected policy on the stored row")

		selected, err := resultsDbHandler.SelectAggregate("run-a", model.TechniqueIO, model.PolicyExact)
		require.NoError(t, err)
		require.NotNil(t, selected, "Expected a stored aggregate")
		assert.Equal(t, 0.75, selected.Result.MacroPrecision, "Expected payload round trip")
	})

	t.Run("Insert replaces an existing aggregate", func(t *testing.T) {
		updated := *aggregate
		updated.MacroF1 = 0.9

		_, err := resultsDbHandler.InsertAggregate("run-a", model.PolicyExact, &updated)
		require.NoError(t, err)

		aggregates, err := resultsDbHandler.SelectAggregatesByRun("run-a")
		require.NoError(t, err)
		require.Len(t, aggregates, 1, "Expected a single row per (run, technique, policy)")
		assert.Equal(t, 0.9, aggregates[0].Result.MacroF1, "Expected updated payload")
	})

	t.Run("Select absent aggregate returns nil", func(t *testing.T) {
		stored, err := resultsDbHandler.SelectAggregate("run-missing", model.TechniqueIO, model.PolicyExact)
		require.NoError(t, err)
		assert.Nil(t, stored, "Expected nil for an absent row")
	})

	t.Run("Aggregates by run are ordered by technique", func(t *testing.T) {
		react := *aggregate
		react.Technique = model.TechniqueReAct
		_, err := resultsDbHandler.InsertAggregate("run-a", model.PolicyExact, &react)
		require.NoError(t, err)

		aggregates, err := resultsDbHandler.SelectAggregatesByRun("run-a")
		require.NoError(t, err)
		require.Len(t, aggregates, 2)
		assert.Equal(t, model.TechniqueIO, aggregates[0].Result.Technique, "Expected ordering by technique")
		assert.Equal(t, model.TechniqueReAct, aggregates[1].Result.Technique, "Expected ordering by technique")
	})
}
