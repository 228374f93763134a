package loader

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/relgraph/releval/helper"
	"github.com/relgraph/releval/model"
)

// goldDocument mirrors the on-disk gold graph JSON layout
type goldDocument struct {
	DocID    string `json:"doc_id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Entities []struct {
		ID       string `json:"id"`
		Type     string `json:"type"`
		Mentions []struct {
			Text         string `json:"text"`
			PassageIndex int    `json:"passage_index"`
			CharOffset   int    `json:"char_offset"`
			Length       int    `json:"length"`
		} `json:"mentions"`
	} `json:"entities"`
	Relations []struct {
		ID     string `json:"id"`
		HeadID string `json:"head_id"`
		TailID string `json:"tail_id"`
		Type   string `json:"type"`
		Novel  string `json:"novel"`
	} `json:"relations"`
}

// LoadGoldJSON reads one document's gold graph from a JSON file and
// validates its entity and relation types.
func LoadGoldJSON(filePath string) (*model.GoldRelations, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, helper.NewError("LoadGoldJSON read file", err)
	}

	var raw goldDocument
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, helper.NewError("LoadGoldJSON unmarshal", err)
	}

	gold := &model.GoldRelations{DocID: raw.DocID}
	if gold.DocID == "" {
		filename := filepath.Base(filePath)
		gold.DocID = strings.TrimSuffix(filename, filepath.Ext(filename))
	}

	for _, e := range raw.Entities {
		entityType := model.EntityType(e.Type)
		if !model.ValidEntityType(entityType) {
			return nil, helper.NewError("LoadGoldJSON",
				fmt.Errorf("document %s: unknown entity type %q for entity %s", gold.DocID, e.Type, e.ID))
		}
		entity := &model.Entity{ID: e.ID, Type: entityType}
		for _, m := range e.Mentions {
			entity.Mentions = append(entity.Mentions, model.Mention{
				Text:         m.Text,
				PassageIndex: m.PassageIndex,
				CharOffset:   m.CharOffset,
				Length:       m.Length,
			})
		}
		gold.Entities = append(gold.Entities, entity)
	}

	seenRelationIDs := map[string]bool{}
	for _, r := range raw.Relations {
		relationType := model.RelationType(r.Type)
		if !model.ValidRelationType(relationType) {
			return nil, helper.NewError("LoadGoldJSON",
				fmt.Errorf("document %s: unknown relation type %q for relation %s", gold.DocID, r.Type, r.ID))
		}
		if seenRelationIDs[r.ID] {
			return nil, helper.NewError("LoadGoldJSON",
				fmt.Errorf("document %s: duplicate relation id %s", gold.DocID, r.ID))
		}
		seenRelationIDs[r.ID] = true
		gold.Relations = append(gold.Relations, model.Relation{
			ID:     r.ID,
			HeadID: r.HeadID,
			TailID: r.TailID,
			Type:   relationType,
			Novel:  strings.EqualFold(r.Novel, "Novel"),
		})
	}

	return gold, nil
}

// LoadGoldDir reads every .json gold graph in a directory, sorted by doc id
func LoadGoldDir(dir string) ([]*model.GoldRelations, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, helper.NewError("LoadGoldDir read dir", err)
	}

	var golds []*model.GoldRelations
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		gold, err := LoadGoldJSON(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		golds = append(golds, gold)
	}

	sort.Slice(golds, func(i, j int) bool {
		return golds[i].DocID < golds[j].DocID
	})
	return golds, nil
}

// LoadPubTator parses a PubTator corpus file into documents and their gold
// graphs. The format interleaves title/abstract lines with tab-separated
// annotation and relation lines:
//
//	<docid>|t|<title>
//	<docid>|a|<abstract>
//	<docid>	<start>	<end>	<text>	<type>	<identifier>
//	<docid>	<type>	<id1>	<id2>	<novel>
//
// Documents are separated by blank lines. Annotations without an identifier
// (or marked "-") are skipped; unknown types are errors.
func LoadPubTator(filePath string) ([]model.Document, []*model.GoldRelations, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, nil, helper.NewError("LoadPubTator open", err)
	}
	defer file.Close()

	var documents []model.Document
	var golds []*model.GoldRelations

	titles := map[string]string{}
	abstracts := map[string]string{}
	goldByID := map[string]*model.GoldRelations{}
	entityByDocAndID := map[string]map[string]*model.Entity{}
	relationCounter := map[string]int{}
	var order []string

	goldFor := func(docID string) *model.GoldRelations {
		if gold, ok := goldByID[docID]; ok {
			return gold
		}
		gold := &model.GoldRelations{DocID: docID}
		goldByID[docID] = gold
		entityByDocAndID[docID] = map[string]*model.Entity{}
		order = append(order, docID)
		return gold
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if parts := strings.SplitN(line, "|", 3); len(parts) == 3 && (parts[1] == "t" || parts[1] == "a") {
			goldFor(parts[0])
			if parts[1] == "t" {
				titles[parts[0]] = parts[2]
			} else {
				abstracts[parts[0]] = parts[2]
			}
			continue
		}

		fields := strings.Split(line, "\t")
		switch {
		case len(fields) >= 6 && isOffset(fields[1]) && isOffset(fields[2]):
			// Annotation line
			docID, text, typeName, identifier := fields[0], fields[3], fields[4], fields[5]
			if identifier == "" || identifier == "-" {
				continue
			}
			entityType := model.EntityType(typeName)
			if !model.ValidEntityType(entityType) {
				return nil, nil, helper.NewError("LoadPubTator",
					fmt.Errorf("line %d: unknown entity type %q", lineNo, typeName))
			}
			gold := goldFor(docID)
			start, _ := strconv.Atoi(fields[1])
			end, _ := strconv.Atoi(fields[2])

			entity, ok := entityByDocAndID[docID][identifier]
			if !ok {
				entity = &model.Entity{ID: identifier, Type: entityType}
				entityByDocAndID[docID][identifier] = entity
				gold.Entities = append(gold.Entities, entity)
			} else if entity.Type != entityType {
				return nil, nil, helper.NewError("LoadPubTator",
					fmt.Errorf("line %d: entity %s annotated as both %s and %s", lineNo, identifier, entity.Type, entityType))
			}
			entity.Mentions = append(entity.Mentions, model.Mention{
				Text:       text,
				CharOffset: start,
				Length:     end - start,
			})

		case len(fields) >= 4:
			// Relation line
			docID, typeName, headID, tailID := fields[0], fields[1], fields[2], fields[3]
			relationType := model.RelationType(typeName)
			if !model.ValidRelationType(relationType) {
				return nil, nil, helper.NewError("LoadPubTator",
					fmt.Errorf("line %d: unknown relation type %q", lineNo, typeName))
			}
			gold := goldFor(docID)
			relationCounter[docID]++
			novel := len(fields) >= 5 && strings.EqualFold(fields[4], "Novel")
			gold.Relations = append(gold.Relations, model.Relation{
				ID:     fmt.Sprintf("%s.R%d", docID, relationCounter[docID]),
				HeadID: headID,
				TailID: tailID,
				Type:   relationType,
				Novel:  novel,
			})

		default:
			return nil, nil, helper.NewError("LoadPubTator",
				fmt.Errorf("line %d: unparseable line", lineNo))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, helper.NewError("LoadPubTator scan", err)
	}

	for _, docID := range order {
		text := titles[docID]
		if abstract := abstracts[docID]; abstract != "" {
			if text != "" {
				text += "\n\n"
			}
			text += abstract
		}
		documents = append(documents, model.Document{DocID: docID, Text: text})
		golds = append(golds, goldByID[docID])
	}
	return documents, golds, nil
}

func isOffset(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
