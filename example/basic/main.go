package main

import (
	"context"
	"fmt"
	"log"

	"github.com/relgraph/releval"
	"github.com/relgraph/releval/core/evaluate"
	"github.com/relgraph/releval/helper"
	"github.com/relgraph/releval/model"
	"github.com/relgraph/releval/prompt"
)

const sampleResponse = `Here are the relations I extracted:

[
  {"head_mention": "aspirin", "tail_mention": "headache", "relation_type": "Association"},
  {"head_mention": "aspirin", "tail_mention": "stomach irritation", "relation_type": "Positive_Correlation"}
]`

func main() {
	// Start a test PostgreSQL container for result persistence
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	r, err := releval.NewRelevalWithDatabase(model.DefaultEvalConfig(), dbConfig)
	if err != nil {
		log.Fatalf("Failed to create evaluation engine: %v", err)
	}
	defer r.Close()

	// Gold annotations for one document
	gold := &model.GoldRelations{
		DocID: "12345",
		Entities: []*model.Entity{
			{
				ID:   "MESH:D001241",
				Type: model.EntityTypeChemical,
				Mentions: []model.Mention{
					{Text: "aspirin", PassageIndex: 0, CharOffset: 0, Length: 7},
				},
			},
			{
				ID:   "MESH:D006261",
				Type: model.EntityTypeDisease,
				Mentions: []model.Mention{
					{Text: "headache", PassageIndex: 0, CharOffset: 17, Length: 8},
				},
			},
		},
		Relations: []model.Relation{
			{ID: "R1", HeadID: "MESH:D001241", TailID: "MESH:D006261", Type: model.RelationAssociation},
		},
	}

	if err := r.BuildRegistry([]*model.GoldRelations{gold}); err != nil {
		log.Fatalf("Failed to build registry: %v", err)
	}

	// Parse a raw model response into surface relations
	parsed := prompt.ParseResponse(sampleResponse, gold.DocID, nil)
	fmt.Printf("Parsed %d relations from the model response\n", len(parsed.Relations))

	// Evaluate against gold
	predictions := []evaluate.DocumentPrediction{
		{
			DocID:     gold.DocID,
			Technique: model.TechniqueIO,
			Relations: parsed.Relations,
		},
	}
	goldByDoc := map[string][]model.Relation{gold.DocID: gold.Relations}

	results, err := r.EvaluateCorpus(context.Background(), predictions, goldByDoc)
	if err != nil {
		log.Fatalf("Failed to evaluate: %v", err)
	}

	for _, result := range results {
		fmt.Printf("\nDocument %s (%s, %s policy):\n", result.DocID, result.Technique, result.Policy)
		fmt.Printf("  Precision: %.3f  Recall: %.3f  F1: %.3f\n", result.Precision, result.Recall, result.F1)
		fmt.Printf("  Hallucination rate: %.3f  Omission rate: %.3f\n", result.HallucinationRate, result.OmissionRate)
		fmt.Printf("  Graph edit distance: %.0f\n", result.GraphEditDistance)
		for _, fp := range result.FalsePositives {
			fmt.Printf("  False positive (%s): %s -> %s\n", fp.Reason, fp.Predicted.HeadMention, fp.Predicted.TailMention)
		}
	}

	// Corpus-level aggregates per technique
	aggregates, err := r.Aggregate(results)
	if err != nil {
		log.Fatalf("Failed to aggregate: %v", err)
	}
	for technique, agg := range aggregates {
		fmt.Printf("\nTechnique %s: macro F1 %.3f, micro F1 %.3f over %d documents\n",
			technique, agg.MacroF1, agg.MicroF1, len(agg.Documents))
	}
}
