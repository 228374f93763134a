package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/relgraph/releval/helper"
	loadSql "github.com/relgraph/releval/sql"
)

// EmbeddingsDBHandlerFunctions defines the interface for embedding cache
// database operations. It satisfies the retrieval package's embedding store
// contract.
type EmbeddingsDBHandlerFunctions interface {
	GetEmbedding(contentHash string) ([]float32, error)
	PutEmbedding(contentHash string, text string, embedding []float32) error
	DeleteEmbedding(contentHash string) error
}

// EmbeddingsDBHandler handles embedding cache database operations
type EmbeddingsDBHandler struct {
	db *helper.Database
}

// NewEmbeddingsDBHandler creates a new embeddings database handler.
// It initializes the database connection and loads embedding-related SQL
// functions. If force is true, it will reload the SQL functions even if
// they already exist.
func NewEmbeddingsDBHandler(db *helper.Database, embeddingDim int, force bool) (*EmbeddingsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	embeddingsDbHandler := &EmbeddingsDBHandler{
		db: db,
	}

	err := loadSql.LoadEmbeddingsSql(embeddingsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load embeddings sql", err)
	}

	err = embeddingsDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EmbeddingsDBHandler")

	return embeddingsDbHandler, nil
}

// CreateTable creates the 'embeddings' table in the database.
// If the table already exists, it does not create it again.
func (h *EmbeddingsDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_embeddings($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing embeddings table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table embeddings")

	return nil
}

// GetEmbedding retrieves a cached embedding by content hash.
// Returns nil without error on a cache miss.
func (h *EmbeddingsDBHandler) GetEmbedding(contentHash string) ([]float32, error) {
	row := h.db.Instance.QueryRow(
		`SELECT embedding FROM select_embedding($1)`,
		contentHash,
	)

	var embedding pgvector.Vector
	err := row.Scan(&embedding)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return embedding.Slice(), nil
}

// PutEmbedding stores an embedding keyed by content hash
func (h *EmbeddingsDBHandler) PutEmbedding(contentHash string, text string, embedding []float32) error {
	_, err := h.db.Instance.Exec(
		`SELECT insert_embedding($1, $2, $3)`,
		contentHash,
		text,
		pgvector.NewVector(embedding),
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// DeleteEmbedding removes one cached embedding
func (h *EmbeddingsDBHandler) DeleteEmbedding(contentHash string) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_embedding($1)`,
		contentHash,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
