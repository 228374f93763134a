package model

import (
	"os"
	"path/filepath"
)

// Document is a source document to evaluate against
type Document struct {
	DocID string `json:"doc_id"`
	Text  string `json:"text"`
}

// NewDocumentFromFile reads a file and creates a Document.
// The doc id defaults to the filename without extension.
func NewDocumentFromFile(filePath string) (*Document, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	filename := filepath.Base(filePath)
	docID := filename[:len(filename)-len(filepath.Ext(filename))]
	if docID == "" {
		docID = filename
	}

	return &Document{
		DocID: docID,
		Text:  string(content),
	}, nil
}
