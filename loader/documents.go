// Package loader reads evaluation inputs from disk: plain-text documents,
// per-document gold graph JSON and PubTator corpus files.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/relgraph/releval/helper"
	"github.com/relgraph/releval/model"
)

// LoadDocuments reads every .txt file in a directory as one document. The
// doc id is the filename without extension. Results are sorted by doc id.
func LoadDocuments(dir string) ([]model.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, helper.NewError("LoadDocuments read dir", err)
	}

	var documents []model.Document
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".txt" {
			continue
		}
		doc, err := model.NewDocumentFromFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, helper.NewError(fmt.Sprintf("LoadDocuments read %s", entry.Name()), err)
		}
		documents = append(documents, *doc)
	}

	sort.Slice(documents, func(i, j int) bool {
		return documents[i].DocID < documents[j].DocID
	})
	return documents, nil
}
