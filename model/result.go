package model

import "time"

// MatchPolicy selects the equivalence criterion for relation matching
type MatchPolicy string

const (
	// PolicyExact requires identical (head, tail, type)
	PolicyExact MatchPolicy = "exact"
	// PolicyPartial requires identical (head, tail), ignoring type
	PolicyPartial MatchPolicy = "partial"
)

// Technique is the closed set of prompting techniques under evaluation
type Technique string

const (
	TechniqueIO    Technique = "io"
	TechniqueCoT   Technique = "cot"
	TechniqueRAG   Technique = "rag"
	TechniqueReAct Technique = "react"
)

// Techniques lists all techniques in a fixed order
func Techniques() []Technique {
	return []Technique{TechniqueIO, TechniqueCoT, TechniqueRAG, TechniqueReAct}
}

// MatchedPair is a true positive: a prediction together with the gold
// relation it claimed
type MatchedPair struct {
	Predicted PredictedRelation `json:"predicted"`
	Gold      Relation          `json:"gold"`
}

// FalsePositive is an unmatched prediction together with the reason it
// failed to match
type FalsePositive struct {
	Predicted PredictedRelation `json:"predicted"`
	Reason    MissReason        `json:"reason"`
}

// MissReason distinguishes why a prediction entered the false-positive set
type MissReason string

const (
	// MissUnresolvedEntity marks predictions with an unresolvable endpoint
	MissUnresolvedEntity MissReason = "unresolved-entity"
	// MissNoMatchingGold marks resolved predictions with no gold counterpart
	MissNoMatchingGold MissReason = "no-matching-gold"
)

// TypeMetrics holds precision/recall/F1 restricted to one relation type
type TypeMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	TP        int     `json:"tp"`
	FP        int     `json:"fp"`
	FN        int     `json:"fn"`
}

// EvaluationResult is the full per-document metric record for one technique.
// Never mutated after creation.
type EvaluationResult struct {
	DocID     string      `json:"doc_id"`
	Technique Technique   `json:"technique"`
	Policy    MatchPolicy `json:"policy"`
	// RunID groups all documents of one corpus evaluation
	RunID string `json:"run_id,omitempty"`

	TruePositives  []MatchedPair   `json:"true_positives"`
	FalsePositives []FalsePositive `json:"false_positives"`
	FalseNegatives []Relation      `json:"false_negatives"`

	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`

	ExactMatchRate    float64 `json:"exact_match_rate"`
	OmissionRate      float64 `json:"omission_rate"`
	HallucinationRate float64 `json:"hallucination_rate"`
	UnresolvedRate    float64 `json:"unresolved_rate"`
	RedundancyRate    float64 `json:"redundancy_rate"`
	GraphEditDistance float64 `json:"graph_edit_distance"`

	SemanticScore        float64 `json:"semantic_score"`
	SemanticScoreMissing bool    `json:"semantic_score_missing"`

	PerType map[RelationType]TypeMetrics `json:"per_type"`
}

// StoredEvaluation is a persisted evaluation result row
type StoredEvaluation struct {
	ID        int               `json:"id"`
	RunID     string            `json:"run_id"`
	Result    *EvaluationResult `json:"result"`
	CreatedAt time.Time         `json:"created_at"`
}

// StoredAggregate is a persisted corpus-level aggregate row
type StoredAggregate struct {
	ID        int               `json:"id"`
	RunID     string            `json:"run_id"`
	Policy    MatchPolicy       `json:"policy"`
	Result    *AggregateResults `json:"result"`
	CreatedAt time.Time         `json:"created_at"`
}

// AggregateResults holds corpus-level statistics for one technique,
// recomputed from scratch whenever the contributing set changes
type AggregateResults struct {
	Technique Technique `json:"technique"`

	MacroPrecision float64 `json:"macro_precision"`
	MacroRecall    float64 `json:"macro_recall"`
	MacroF1        float64 `json:"macro_f1"`

	MicroPrecision float64 `json:"micro_precision"`
	MicroRecall    float64 `json:"micro_recall"`
	MicroF1        float64 `json:"micro_f1"`

	AvgExactMatchRate    float64 `json:"avg_exact_match_rate"`
	AvgOmissionRate      float64 `json:"avg_omission_rate"`
	AvgHallucinationRate float64 `json:"avg_hallucination_rate"`
	AvgUnresolvedRate    float64 `json:"avg_unresolved_rate"`
	AvgRedundancyRate    float64 `json:"avg_redundancy_rate"`
	AvgGraphEditDistance float64 `json:"avg_graph_edit_distance"`
	AvgSemanticScore     float64 `json:"avg_semantic_score"`
	// Number of documents with a usable semantic score
	SemanticScoredDocs int `json:"semantic_scored_docs"`

	Documents []*EvaluationResult `json:"documents"`
}
