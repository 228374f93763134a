// Package database contains the PostgreSQL handlers for persisted
// evaluation results and the embedding cache. All table access goes through
// SQL functions loaded from the embedded .sql files.
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/relgraph/releval/helper"
	"github.com/relgraph/releval/model"
	loadSql "github.com/relgraph/releval/sql"
)

// ResultsDBHandlerFunctions defines the interface for results database operations.
type ResultsDBHandlerFunctions interface {
	InsertResult(result *model.EvaluationResult) (*model.StoredEvaluation, error)
	SelectResult(docID string, technique model.Technique, policy model.MatchPolicy) (*model.StoredEvaluation, error)
	SelectResultsByTechnique(technique model.Technique, policy model.MatchPolicy) ([]*model.StoredEvaluation, error)
	SelectResultsByRun(runID string) ([]*model.StoredEvaluation, error)
	DeleteResultsByTechnique(technique model.Technique) error
	InsertAggregate(runID string, policy model.MatchPolicy, aggregate *model.AggregateResults) (*model.StoredAggregate, error)
	SelectAggregate(runID string, technique model.Technique, policy model.MatchPolicy) (*model.StoredAggregate, error)
	SelectAggregatesByRun(runID string) ([]*model.StoredAggregate, error)
}

// ResultsDBHandler handles evaluation result database operations
type ResultsDBHandler struct {
	db *helper.Database
}

// NewResultsDBHandler creates a new results database handler.
// It initializes the database connection and loads result-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewResultsDBHandler(db *helper.Database, force bool) (*ResultsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	resultsDbHandler := &ResultsDBHandler{
		db: db,
	}

	err := loadSql.LoadResultsSql(resultsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load results sql", err)
	}

	err = resultsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ResultsDBHandler")

	return resultsDbHandler, nil
}

// CreateTable creates the 'results' and 'aggregates' tables in the database.
// If the tables already exist, it does not create them again.
func (h *ResultsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_results();`)
	if err != nil {
		log.Panicf("error initializing results table: %#v", err)
	}

	_, err = h.db.Instance.ExecContext(ctx, `SELECT init_aggregates();`)
	if err != nil {
		log.Panicf("error initializing aggregates table: %#v", err)
	}

	h.db.Logger.Info("Checked/created tables results and aggregates")

	return nil
}

// InsertResult inserts or replaces the result for one (document, technique,
// policy) run
func (h *ResultsDBHandler) InsertResult(result *model.EvaluationResult) (*model.StoredEvaluation, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, helper.NewError("marshal payload", err)
	}

	var semanticScore sql.NullFloat64
	if !result.SemanticScoreMissing {
		semanticScore = sql.NullFloat64{Float64: result.SemanticScore, Valid: true}
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_result($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		result.RunID,
		result.DocID,
		string(result.Technique),
		string(result.Policy),
		result.Precision,
		result.Recall,
		result.F1,
		semanticScore,
		payload,
	)

	return scanStoredEvaluation(row)
}

// SelectResult retrieves one stored result, or nil if absent
func (h *ResultsDBHandler) SelectResult(docID string, technique model.Technique, policy model.MatchPolicy) (*model.StoredEvaluation, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_result($1, $2, $3)`,
		docID,
		string(technique),
		string(policy),
	)

	stored, err := scanStoredEvaluation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return stored, err
}

// SelectResultsByTechnique retrieves all stored results for one technique
// and policy, ordered by doc id
func (h *ResultsDBHandler) SelectResultsByTechnique(technique model.Technique, policy model.MatchPolicy) ([]*model.StoredEvaluation, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_results_by_technique($1, $2)`,
		string(technique),
		string(policy),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var results []*model.StoredEvaluation
	for rows.Next() {
		stored, err := scanStoredEvaluation(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, stored)
	}
	if err := rows.Err(); err != nil {
		return nil, helper.NewError("rows", err)
	}

	return results, nil
}

// SelectResultsByRun retrieves all stored results sharing one run id,
// ordered by technique then doc id
func (h *ResultsDBHandler) SelectResultsByRun(runID string) ([]*model.StoredEvaluation, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_results_by_run($1)`,
		runID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var results []*model.StoredEvaluation
	for rows.Next() {
		stored, err := scanStoredEvaluation(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, stored)
	}
	if err := rows.Err(); err != nil {
		return nil, helper.NewError("rows", err)
	}

	return results, nil
}

// DeleteResultsByTechnique deletes all stored results for one technique
func (h *ResultsDBHandler) DeleteResultsByTechnique(technique model.Technique) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_results_by_technique($1)`,
		string(technique),
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// InsertAggregate inserts or replaces the corpus aggregate for one
// (run, technique, policy)
func (h *ResultsDBHandler) InsertAggregate(runID string, policy model.MatchPolicy, aggregate *model.AggregateResults) (*model.StoredAggregate, error) {
	payload, err := json.Marshal(aggregate)
	if err != nil {
		return nil, helper.NewError("marshal payload", err)
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_aggregate($1, $2, $3, $4, $5, $6)`,
		runID,
		string(aggregate.Technique),
		string(policy),
		aggregate.MacroF1,
		aggregate.MicroF1,
		payload,
	)

	return scanStoredAggregate(row)
}

// SelectAggregate retrieves one stored aggregate, or nil if absent
func (h *ResultsDBHandler) SelectAggregate(runID string, technique model.Technique, policy model.MatchPolicy) (*model.StoredAggregate, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_aggregate($1, $2, $3)`,
		runID,
		string(technique),
		string(policy),
	)

	stored, err := scanStoredAggregate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return stored, err
}

// SelectAggregatesByRun retrieves all stored aggregates for one run,
// ordered by technique
func (h *ResultsDBHandler) SelectAggregatesByRun(runID string) ([]*model.StoredAggregate, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_aggregates_by_run($1)`,
		runID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var aggregates []*model.StoredAggregate
	for rows.Next() {
		stored, err := scanStoredAggregate(rows)
		if err != nil {
			return nil, err
		}
		aggregates = append(aggregates, stored)
	}
	if err := rows.Err(); err != nil {
		return nil, helper.NewError("rows", err)
	}

	return aggregates, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStoredEvaluation(row rowScanner) (*model.StoredEvaluation, error) {
	stored := &model.StoredEvaluation{}
	var (
		docID, technique, policy string
		precision, recall, f1    float64
		semanticScore            sql.NullFloat64
		payload                  []byte
	)

	err := row.Scan(
		&stored.ID,
		&stored.RunID,
		&docID,
		&technique,
		&policy,
		&precision,
		&recall,
		&f1,
		&semanticScore,
		&payload,
		&stored.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	result := &model.EvaluationResult{}
	if err := json.Unmarshal(payload, result); err != nil {
		return nil, helper.NewError("unmarshal payload", err)
	}
	stored.Result = result

	return stored, nil
}

func scanStoredAggregate(row rowScanner) (*model.StoredAggregate, error) {
	stored := &model.StoredAggregate{}
	var (
		technique, policy string
		macroF1, microF1  float64
		payload           []byte
	)

	err := row.Scan(
		&stored.ID,
		&stored.RunID,
		&technique,
		&policy,
		&macroF1,
		&microF1,
		&payload,
		&stored.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	stored.Policy = model.MatchPolicy(policy)
	aggregate := &model.AggregateResults{}
	if err := json.Unmarshal(payload, aggregate); err != nil {
		return nil, helper.NewError("unmarshal payload", err)
	}
	stored.Result = aggregate

	return stored, nil
}
