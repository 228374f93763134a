package model

// EntityType is the fixed set of semantic categories entities can have
type EntityType string

const (
	EntityTypeGene     EntityType = "GeneOrGeneProduct"
	EntityTypeDisease  EntityType = "DiseaseOrPhenotypicFeature"
	EntityTypeChemical EntityType = "ChemicalEntity"
	EntityTypeVariant  EntityType = "SequenceVariant"
	EntityTypeOrganism EntityType = "OrganismTaxon"
	EntityTypeCellLine EntityType = "CellLine"
)

// ValidEntityType reports whether t is one of the known entity types
func ValidEntityType(t EntityType) bool {
	switch t {
	case EntityTypeGene, EntityTypeDisease, EntityTypeChemical,
		EntityTypeVariant, EntityTypeOrganism, EntityTypeCellLine:
		return true
	}
	return false
}

// Mention is a single text span referring to an entity within a document
type Mention struct {
	Text         string `json:"text"`
	PassageIndex int    `json:"passage_index"`
	CharOffset   int    `json:"char_offset"`
	Length       int    `json:"length"`
}

// Entity is a document-scoped entity: a stable global identifier together
// with the mentions referring to it, in order of appearance
type Entity struct {
	ID       string     `json:"id"`
	Type     EntityType `json:"entity_type"`
	Mentions []Mention  `json:"mentions"`
}

// GlobalEntity is a corpus-scoped entity built by folding every document's
// entities into the registry. AllMentions maps each distinct surface form to
// the number of times it was seen anywhere in the corpus.
type GlobalEntity struct {
	ID            string         `json:"id"`
	Type          EntityType     `json:"entity_type"`
	AllMentions   map[string]int `json:"all_mentions"`
	CanonicalName string         `json:"canonical_name"`
	DocumentCount int            `json:"document_count"`
}
