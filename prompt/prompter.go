package prompt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/relgraph/releval/helper"
	"github.com/relgraph/releval/model"
)

// Retriever supplies supporting passages for retrieval-augmented prompting.
// The query is the document text; topK bounds the number of passages.
type Retriever interface {
	RetrieveContext(ctx context.Context, query string, topK int) (string, error)
}

// Prompter produces raw model responses for one prompting technique. The
// retriever is used only for the RAG technique and may be nil otherwise.
type Prompter struct {
	technique model.Technique
	generator Generator
	retriever Retriever
	topK      int
	log       *slog.Logger
}

// NewPrompter creates a prompter for the given technique. A RAG prompter
// requires a retriever.
func NewPrompter(technique model.Technique, generator Generator, retriever Retriever, config model.EvalConfig, logger *slog.Logger) (*Prompter, error) {
	if generator == nil {
		return nil, helper.NewError("NewPrompter", fmt.Errorf("generator must not be nil"))
	}
	if technique == model.TechniqueRAG && retriever == nil {
		return nil, helper.NewError("NewPrompter", fmt.Errorf("rag technique requires a retriever"))
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Prompter{
		technique: technique,
		generator: generator,
		retriever: retriever,
		topK:      config.RAGTopK,
		log:       logger,
	}, nil
}

// Technique returns the prompting technique this prompter implements
func (p *Prompter) Technique() model.Technique {
	return p.technique
}

// GetResponse builds the technique's prompt for one document and returns
// the raw model response.
func (p *Prompter) GetResponse(ctx context.Context, doc model.Document) (string, error) {
	prompt, err := p.buildPrompt(ctx, doc)
	if err != nil {
		return "", helper.NewError("GetResponse build prompt", err)
	}

	p.log.Debug("prompting model",
		slog.String("technique", string(p.technique)),
		slog.String("doc_id", doc.DocID),
		slog.Int("prompt_len", len(prompt)))

	response, err := p.generator.Generate(ctx, prompt)
	if err != nil {
		return "", helper.NewError("GetResponse", err)
	}

	p.log.Debug("received model response",
		slog.String("technique", string(p.technique)),
		slog.String("doc_id", doc.DocID),
		slog.Int("response_len", len(response)))
	return response, nil
}

func (p *Prompter) buildPrompt(ctx context.Context, doc model.Document) (string, error) {
	var b strings.Builder
	b.WriteString("Extract biomedical relations from the following text.\n\n")
	if doc.DocID != "" {
		fmt.Fprintf(&b, "Document ID: %s\n\n", doc.DocID)
	}
	b.WriteString("IMPORTANT: When extracting entities, use the EXACT text spans from the document.\n")
	b.WriteString("Do not paraphrase or modify the entity mentions. Copy them exactly as they appear in the text.\n\n")
	fmt.Fprintf(&b, "Text:\n%s\n\n", doc.Text)

	switch p.technique {
	case model.TechniqueIO:
		b.WriteString(ioInstructions)
	case model.TechniqueCoT:
		b.WriteString(cotInstructions)
	case model.TechniqueRAG:
		retrieved, err := p.retriever.RetrieveContext(ctx, doc.Text, p.topK)
		if err != nil {
			return "", err
		}
		if retrieved == "" {
			retrieved = "No relevant context found."
		}
		fmt.Fprintf(&b, "Relevant Context from Knowledge Base:\n%s\n\n---\n\n", retrieved)
		b.WriteString(ragInstructions)
	case model.TechniqueReAct:
		b.WriteString(reactInstructions)
	default:
		return "", fmt.Errorf("unknown technique: %s", p.technique)
	}

	return b.String(), nil
}

const jsonFormat = `[
  {
    "head_mention": "exact text from document",
    "tail_mention": "exact text from document",
    "relation_type": "Association"
  }
]`

const ioInstructions = `Extract all biomedical relations from the text above.

For each relation, identify:
1. Head entity (exact text span from the document)
2. Tail entity (exact text span from the document)
3. Relation type (e.g., Association, Positive_Correlation, Negative_Correlation)

Return the results as a JSON array with the following format:
` + jsonFormat + `

IMPORTANT: Use EXACT text spans from the document for entity mentions. Do not paraphrase or modify the text.
`

const cotInstructions = `Extract all biomedical relations from the text above. Think step by step:

1. First, identify all biomedical entities mentioned in the text and their exact text spans.
2. Then, for each pair of entities, consider whether the text states or implies a relation between them.
3. Finally, determine the relation type (e.g., Association, Positive_Correlation, Negative_Correlation).

Write out your reasoning, then provide your final answer as a JSON array:
` + jsonFormat + `

IMPORTANT: Use EXACT text spans from the document for entity mentions. Do not paraphrase or modify the text.
`

const ragInstructions = `Now extract all biomedical relations from the text above. The context provided above may help you understand the entities and relations better, but you must extract entity mentions as EXACT text spans from the original document text (not from the context).

For each relation, identify:
1. Head entity (exact text span from the ORIGINAL document)
2. Tail entity (exact text span from the ORIGINAL document)
3. Relation type (e.g., Association, Positive_Correlation, Negative_Correlation)

Return the results as a JSON array:
` + jsonFormat + `

IMPORTANT: Use EXACT text spans from the original document for entity mentions. The context is only for understanding - do not copy entity mentions from the context.
`

const reactInstructions = `Extract all biomedical relations from the text above using a reasoning and action approach.

You can use the following format:
Thought: [Your reasoning about what to do next]
Action: [Action to take, e.g., IDENTIFY_ENTITY, VERIFY_TYPE, EXTRACT_RELATION]
Observation: [Result of the action]

Available actions:
- IDENTIFY_ENTITY: Identify an entity and extract its exact text span from the document
- VERIFY_TYPE: Verify the type of an identified entity
- EXTRACT_RELATION: Extract a relation between two entities

After reasoning through the text, provide your final answer as a JSON array:

` + jsonFormat + `

IMPORTANT: Use EXACT text spans from the document for entity mentions. Do not paraphrase or modify the text.
`
