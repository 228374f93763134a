package model

// RelationType is the fixed set of relation labels
type RelationType string

const (
	RelationAssociation         RelationType = "Association"
	RelationPositiveCorrelation RelationType = "Positive_Correlation"
	RelationNegativeCorrelation RelationType = "Negative_Correlation"
	RelationBind                RelationType = "Bind"
	RelationCotreatment         RelationType = "Cotreatment"
	RelationComparison          RelationType = "Comparison"
	RelationDrugInteraction     RelationType = "Drug_Interaction"
	RelationConversion          RelationType = "Conversion"
)

// ValidRelationType reports whether t is one of the known relation types
func ValidRelationType(t RelationType) bool {
	switch t {
	case RelationAssociation, RelationPositiveCorrelation, RelationNegativeCorrelation,
		RelationBind, RelationCotreatment, RelationComparison,
		RelationDrugInteraction, RelationConversion:
		return true
	}
	return false
}

// Relation is a directed, typed edge between two global entity identifiers.
// Head/tail order matters; no relation type is treated as symmetric.
type Relation struct {
	ID     string       `json:"id"`
	HeadID string       `json:"head_id"`
	TailID string       `json:"tail_id"`
	Type   RelationType `json:"relation_type"`
	Novel  bool         `json:"novel"`
}

// Tuple returns the (head, tail, type) triple used for exact comparison
func (r Relation) Tuple() RelationTuple {
	return RelationTuple{HeadID: r.HeadID, TailID: r.TailID, Type: r.Type}
}

// RelationTuple is the comparable identity of a relation
type RelationTuple struct {
	HeadID string
	TailID string
	Type   RelationType
}

// GoldRelations holds one document's gold annotations: its entities and the
// relations between them. Immutable after loading.
type GoldRelations struct {
	DocID     string     `json:"doc_id"`
	Entities  []*Entity  `json:"entities"`
	Relations []Relation `json:"relations"`
}

// SurfaceRelation is a raw triple as produced by the response parser, before
// entity resolution. Type hints are optional and may be empty.
type SurfaceRelation struct {
	HeadText     string       `json:"head_mention"`
	TailText     string       `json:"tail_mention"`
	Type         RelationType `json:"relation_type"`
	HeadTypeHint EntityType   `json:"head_type,omitempty"`
	TailTypeHint EntityType   `json:"tail_type,omitempty"`
}

// PredictedRelation is a surface relation with resolved endpoints. A nil
// HeadID/TailID means resolution failed; the mention text is kept either way
// for diagnostics. An unresolved prediction can never be a true positive.
type PredictedRelation struct {
	HeadID         *string      `json:"head_id"`
	TailID         *string      `json:"tail_id"`
	Type           RelationType `json:"relation_type"`
	HeadMention    string       `json:"head_mention"`
	TailMention    string       `json:"tail_mention"`
	HeadConfidence float64      `json:"head_confidence,omitempty"`
	TailConfidence float64      `json:"tail_confidence,omitempty"`
}

// Resolved reports whether both endpoints resolved to global identifiers
func (p PredictedRelation) Resolved() bool {
	return p.HeadID != nil && p.TailID != nil
}

// Tuple returns the comparable identity of a resolved prediction.
// Only meaningful when Resolved() is true.
func (p PredictedRelation) Tuple() RelationTuple {
	t := RelationTuple{Type: p.Type}
	if p.HeadID != nil {
		t.HeadID = *p.HeadID
	}
	if p.TailID != nil {
		t.TailID = *p.TailID
	}
	return t
}
