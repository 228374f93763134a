package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/relgraph/releval/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const validGoldJSON = `{
	"doc_id": "12345",
	"title": "Aspirin and headache",
	"body": "Aspirin relieves headache.",
	"entities": [
		{
			"id": "MESH:D001241",
			"type": "ChemicalEntity",
			"mentions": [
				{"text": "Aspirin", "passage_index": 0, "char_offset": 0, "length": 7}
			]
		},
		{
			"id": "MESH:D006261",
			"type": "DiseaseOrPhenotypicFeature",
			"mentions": [
				{"text": "headache", "passage_index": 1, "char_offset": 17, "length": 8}
			]
		}
	],
	"relations": [
		{"id": "R1", "head_id": "MESH:D001241", "tail_id": "MESH:D006261", "type": "Association", "novel": "Novel"}
	]
}`

func TestLoadGoldJSON(t *testing.T) {
	t.Run("Valid gold graph is loaded", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "12345.json", validGoldJSON)

		gold, err := LoadGoldJSON(path)
		require.NoError(t, err)

		assert.Equal(t, "12345", gold.DocID, "Expected doc id from JSON")
		require.Len(t, gold.Entities, 2, "Expected two entities")
		assert.Equal(t, model.EntityTypeChemical, gold.Entities[0].Type, "Expected chemical entity type")
		assert.Equal(t, "Aspirin", gold.Entities[0].Mentions[0].Text, "Expected mention text")
		require.Len(t, gold.Relations, 1, "Expected one relation")
		assert.True(t, gold.Relations[0].Novel, "Expected novel flag parsed")
	})

	t.Run("Unknown entity type is an error", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "bad.json",
			`{"doc_id": "1", "entities": [{"id": "X", "type": "Protein", "mentions": []}], "relations": []}`)

		_, err := LoadGoldJSON(path)
		require.Error(t, err, "Expected an error for an unknown entity type")
		assert.Contains(t, err.Error(), "unknown entity type", "Expected descriptive error")
	})

	t.Run("Unknown relation type is an error", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "bad.json",
			`{"doc_id": "1", "entities": [], "relations": [{"id": "R1", "head_id": "A", "tail_id": "B", "type": "Causes"}]}`)

		_, err := LoadGoldJSON(path)
		require.Error(t, err, "Expected an error for an unknown relation type")
		assert.Contains(t, err.Error(), "unknown relation type", "Expected descriptive error")
	})

	t.Run("Duplicate relation ids are an error", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "bad.json",
			`{"doc_id": "1", "entities": [], "relations": [
				{"id": "R1", "head_id": "A", "tail_id": "B", "type": "Association"},
				{"id": "R1", "head_id": "A", "tail_id": "C", "type": "Bind"}
			]}`)

		_, err := LoadGoldJSON(path)
		require.Error(t, err, "Expected an error for duplicate relation ids")
		assert.Contains(t, err.Error(), "duplicate relation id", "Expected descriptive error")
	})

	t.Run("Missing doc id falls back to filename", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "98765.json", `{"entities": [], "relations": []}`)

		gold, err := LoadGoldJSON(path)
		require.NoError(t, err)
		assert.Equal(t, "98765", gold.DocID, "Expected filename-derived doc id")
	})
}

func TestLoadGoldDir(t *testing.T) {
	t.Run("Directory is loaded sorted by doc id", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "222.json", `{"doc_id": "222", "entities": [], "relations": []}`)
		writeFile(t, dir, "111.json", `{"doc_id": "111", "entities": [], "relations": []}`)
		writeFile(t, dir, "notes.txt", "not gold data")

		golds, err := LoadGoldDir(dir)
		require.NoError(t, err)

		require.Len(t, golds, 2, "Expected only JSON files loaded")
		assert.Equal(t, "111", golds[0].DocID, "Expected sorted order")
	})
}

const pubtatorSample = `12345|t|Aspirin and headache.
12345|a|Aspirin relieves headache in most patients.
12345	0	7	Aspirin	ChemicalEntity	MESH:D001241
12345	39	47	headache	DiseaseOrPhenotypicFeature	MESH:D006261
12345	Association	MESH:D001241	MESH:D006261	Novel

67890|t|Insulin and diabetes.
67890	0	7	Insulin	GeneOrGeneProduct	GENE:3630
67890	12	20	diabetes	DiseaseOrPhenotypicFeature	MESH:D003920
67890	Positive_Correlation	GENE:3630	MESH:D003920	No
`

func TestLoadPubTator(t *testing.T) {
	t.Run("Corpus file yields documents and gold graphs", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "corpus.pubtator", pubtatorSample)

		documents, golds, err := LoadPubTator(path)
		require.NoError(t, err)

		require.Len(t, documents, 2, "Expected two documents")
		require.Len(t, golds, 2, "Expected two gold graphs")

		assert.Equal(t, "12345", documents[0].DocID, "Expected first doc id")
		assert.Equal(t, "Aspirin and headache.\n\nAspirin relieves headache in most patients.", documents[0].Text,
			"Expected title and abstract joined by a blank line")

		require.Len(t, golds[0].Entities, 2, "Expected two entities in first document")
		require.Len(t, golds[0].Relations, 1, "Expected one relation in first document")
		assert.True(t, golds[0].Relations[0].Novel, "Expected novel flag")
		assert.False(t, golds[1].Relations[0].Novel, "Expected non-novel flag")
		assert.Equal(t, model.RelationPositiveCorrelation, golds[1].Relations[0].Type, "Expected relation type")
	})

	t.Run("Repeated identifiers merge into one entity", func(t *testing.T) {
		sample := `1|t|ALDH2 and ALDH2 variants.
1	0	5	ALDH2	GeneOrGeneProduct	GENE:217
1	10	15	ALDH2	GeneOrGeneProduct	GENE:217
`
		path := writeFile(t, t.TempDir(), "corpus.pubtator", sample)

		_, golds, err := LoadPubTator(path)
		require.NoError(t, err)

		require.Len(t, golds[0].Entities, 1, "Expected mentions merged into one entity")
		assert.Len(t, golds[0].Entities[0].Mentions, 2, "Expected both mentions kept")
	})

	t.Run("Annotations without identifiers are skipped", func(t *testing.T) {
		sample := `1|t|Some title.
1	0	4	Some	ChemicalEntity	-
`
		path := writeFile(t, t.TempDir(), "corpus.pubtator", sample)

		_, golds, err := LoadPubTator(path)
		require.NoError(t, err)
		assert.Empty(t, golds[0].Entities, "Expected unidentified annotation skipped")
	})

	t.Run("Unknown entity type is an error", func(t *testing.T) {
		sample := `1|t|Some title.
1	0	4	Some	Protein	X:1
`
		path := writeFile(t, t.TempDir(), "corpus.pubtator", sample)

		_, _, err := LoadPubTator(path)
		assert.Error(t, err, "Expected an error for unknown entity type")
	})

	t.Run("Conflicting entity types are an error", func(t *testing.T) {
		sample := `1|t|Some title.
1	0	4	Some	ChemicalEntity	X:1
1	5	9	Some	GeneOrGeneProduct	X:1
`
		path := writeFile(t, t.TempDir(), "corpus.pubtator", sample)

		_, _, err := LoadPubTator(path)
		assert.Error(t, err, "Expected an error for conflicting entity types")
	})
}

func TestLoadDocumentsTextFiles(t *testing.T) {
	t.Run("Text files become documents sorted by id", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "222.txt", "second document")
		writeFile(t, dir, "111.txt", "first document")
		writeFile(t, dir, "gold.json", "{}")

		documents, err := LoadDocuments(dir)
		require.NoError(t, err)

		require.Len(t, documents, 2, "Expected only text files loaded")
		assert.Equal(t, "111", documents[0].DocID, "Expected sorted order")
		assert.Equal(t, "first document", documents[0].Text, "Expected file content")
	})
}
