package prompt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/relgraph/releval/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	lastPrompt string
	response   string
	err        error
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	return s.response, s.err
}

type stubRetriever struct {
	context string
	err     error
}

func (s *stubRetriever) RetrieveContext(ctx context.Context, query string, topK int) (string, error) {
	return s.context, s.err
}

func testDocument() model.Document {
	return model.Document{
		DocID: "doc1",
		Text:  "Aspirin relieves headache in most patients.",
	}
}

func TestNewPrompter(t *testing.T) {
	t.Run("Generator is required", func(t *testing.T) {
		_, err := NewPrompter(model.TechniqueIO, nil, nil, model.DefaultEvalConfig(), nil)
		assert.Error(t, err, "Expected an error without a generator")
	})

	t.Run("RAG requires a retriever", func(t *testing.T) {
		_, err := NewPrompter(model.TechniqueRAG, &stubGenerator{}, nil, model.DefaultEvalConfig(), nil)
		assert.Error(t, err, "Expected an error for RAG without a retriever")
	})

	t.Run("Other techniques work without a retriever", func(t *testing.T) {
		prompter, err := NewPrompter(model.TechniqueCoT, &stubGenerator{}, nil, model.DefaultEvalConfig(), nil)
		require.NoError(t, err)
		assert.Equal(t, model.TechniqueCoT, prompter.Technique(), "Expected the configured technique")
	})
}

func TestGetResponse(t *testing.T) {
	ctx := context.Background()

	t.Run("Prompt contains the document text and id", func(t *testing.T) {
		generator := &stubGenerator{response: "[]"}
		prompter, err := NewPrompter(model.TechniqueIO, generator, nil, model.DefaultEvalConfig(), nil)
		require.NoError(t, err)

		_, err = prompter.GetResponse(ctx, testDocument())
		require.NoError(t, err)

		assert.Contains(t, generator.lastPrompt, "Aspirin relieves headache", "Expected document text in prompt")
		assert.Contains(t, generator.lastPrompt, "Document ID: doc1", "Expected document id in prompt")
		assert.Contains(t, generator.lastPrompt, "EXACT text spans", "Expected exact-span instruction")
	})

	t.Run("CoT prompt asks for stepwise reasoning", func(t *testing.T) {
		generator := &stubGenerator{response: "[]"}
		prompter, err := NewPrompter(model.TechniqueCoT, generator, nil, model.DefaultEvalConfig(), nil)
		require.NoError(t, err)

		_, err = prompter.GetResponse(ctx, testDocument())
		require.NoError(t, err)

		assert.Contains(t, generator.lastPrompt, "step by step", "Expected reasoning instruction")
	})

	t.Run("RAG prompt embeds retrieved context", func(t *testing.T) {
		generator := &stubGenerator{response: "[]"}
		retriever := &stubRetriever{context: "[Context 1] Aspirin is a nonsteroidal anti-inflammatory drug."}
		prompter, err := NewPrompter(model.TechniqueRAG, generator, retriever, model.DefaultEvalConfig(), nil)
		require.NoError(t, err)

		_, err = prompter.GetResponse(ctx, testDocument())
		require.NoError(t, err)

		assert.Contains(t, generator.lastPrompt, "nonsteroidal anti-inflammatory", "Expected retrieved context in prompt")
		assert.Contains(t, generator.lastPrompt, "Relevant Context from Knowledge Base", "Expected context section header")
	})

	t.Run("Empty retrieval falls back to a placeholder", func(t *testing.T) {
		generator := &stubGenerator{response: "[]"}
		prompter, err := NewPrompter(model.TechniqueRAG, generator, &stubRetriever{}, model.DefaultEvalConfig(), nil)
		require.NoError(t, err)

		_, err = prompter.GetResponse(ctx, testDocument())
		require.NoError(t, err)

		assert.Contains(t, generator.lastPrompt, "No relevant context found.", "Expected placeholder for empty retrieval")
	})

	t.Run("Retriever failure aborts the prompt", func(t *testing.T) {
		retriever := &stubRetriever{err: errors.New("vector store down")}
		prompter, err := NewPrompter(model.TechniqueRAG, &stubGenerator{}, retriever, model.DefaultEvalConfig(), nil)
		require.NoError(t, err)

		_, err = prompter.GetResponse(ctx, testDocument())
		assert.Error(t, err, "Expected retriever failure to propagate")
	})

	t.Run("ReAct prompt lists the action vocabulary", func(t *testing.T) {
		generator := &stubGenerator{response: "[]"}
		prompter, err := NewPrompter(model.TechniqueReAct, generator, nil, model.DefaultEvalConfig(), nil)
		require.NoError(t, err)

		_, err = prompter.GetResponse(ctx, testDocument())
		require.NoError(t, err)

		for _, action := range []string{"IDENTIFY_ENTITY", "VERIFY_TYPE", "EXTRACT_RELATION"} {
			assert.True(t, strings.Contains(generator.lastPrompt, action), "Expected action %s in prompt", action)
		}
	})

	t.Run("Generator errors propagate", func(t *testing.T) {
		generator := &stubGenerator{err: errors.New("rate limited")}
		prompter, err := NewPrompter(model.TechniqueIO, generator, nil, model.DefaultEvalConfig(), nil)
		require.NoError(t, err)

		_, err = prompter.GetResponse(ctx, testDocument())
		assert.Error(t, err, "Expected generator failure to propagate")
	})
}
