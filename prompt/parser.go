package prompt

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/relgraph/releval/model"
)

// ParsedResponse is the structured form of one raw model response. Parsing
// is lenient: malformed pieces are reported in Errors rather than failing
// the whole response.
type ParsedResponse struct {
	DocID     string                  `json:"doc_id"`
	Relations []model.SurfaceRelation `json:"relations"`
	Errors    []string                `json:"errors,omitempty"`
}

// Model responses often bury the JSON in prose or reasoning traces, so the
// extractor scans for array and object spans before giving up.
var (
	jsonArrayPattern  = regexp.MustCompile(`\[[\s\S]*\]`)
	jsonObjectPattern = regexp.MustCompile(`\{[\s\S]*\}`)
	// Fallback for plain-text responses like "aspirin -> headache: Association"
	textRelationPattern = regexp.MustCompile(`([^->:\n]+)\s*->\s*([^->:\n]+)\s*:\s*([^\n]+)`)
)

// ParseResponse extracts surface relations from a raw model response. It
// first looks for a JSON array or object anywhere in the text; if no JSON
// can be decoded it falls back to line-based "head -> tail: type" parsing.
// Relations with an empty mention or type are dropped.
func ParseResponse(response, docID string, logger *slog.Logger) *ParsedResponse {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	parsed := &ParsedResponse{DocID: docID}

	if raw, ok := extractJSON(response); ok {
		parsed.Relations = decodeRelations(raw, parsed)
		logger.Debug("parsed relations from json",
			slog.String("doc_id", docID), slog.Int("count", len(parsed.Relations)))
		return parsed
	}

	parsed.Errors = append(parsed.Errors, "no JSON found, attempting text parsing")
	parsed.Relations = parseTextFormat(response)
	logger.Debug("parsed relations from text fallback",
		slog.String("doc_id", docID), slog.Int("count", len(parsed.Relations)))
	return parsed
}

func extractJSON(text string) (json.RawMessage, bool) {
	for _, pattern := range []*regexp.Regexp{jsonArrayPattern, jsonObjectPattern} {
		if match := pattern.FindString(text); match != "" && json.Valid([]byte(match)) {
			return json.RawMessage(match), true
		}
	}
	trimmed := strings.TrimSpace(text)
	if json.Valid([]byte(trimmed)) && trimmed != "" {
		return json.RawMessage(trimmed), true
	}
	return nil, false
}

func decodeRelations(raw json.RawMessage, parsed *ParsedResponse) []model.SurfaceRelation {
	var items []model.SurfaceRelation

	var asList []model.SurfaceRelation
	if err := json.Unmarshal(raw, &asList); err == nil {
		items = asList
	} else {
		// Either {"relations": [...]} or a single bare relation object.
		var wrapper struct {
			Relations []model.SurfaceRelation `json:"relations"`
		}
		if err := json.Unmarshal(raw, &wrapper); err == nil && wrapper.Relations != nil {
			items = wrapper.Relations
		} else {
			var single model.SurfaceRelation
			if err := json.Unmarshal(raw, &single); err == nil {
				items = []model.SurfaceRelation{single}
			} else {
				parsed.Errors = append(parsed.Errors, "error parsing JSON: "+err.Error())
				return nil
			}
		}
	}

	var relations []model.SurfaceRelation
	for _, item := range items {
		item.HeadText = strings.TrimSpace(item.HeadText)
		item.TailText = strings.TrimSpace(item.TailText)
		item.Type = model.RelationType(strings.TrimSpace(string(item.Type)))
		if item.HeadText == "" || item.TailText == "" || item.Type == "" {
			continue
		}
		relations = append(relations, item)
	}
	return relations
}

func parseTextFormat(text string) []model.SurfaceRelation {
	var relations []model.SurfaceRelation
	for _, match := range textRelationPattern.FindAllStringSubmatch(text, -1) {
		relations = append(relations, model.SurfaceRelation{
			HeadText: strings.TrimSpace(match[1]),
			TailText: strings.TrimSpace(match[2]),
			Type:     model.RelationType(strings.TrimSpace(match[3])),
		})
	}
	return relations
}
