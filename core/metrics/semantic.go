package metrics

import (
	"context"
	"strings"

	"github.com/relgraph/releval/model"
)

// ScoreFunc is the black-box semantic similarity scorer contract: given two
// rendered relation texts it returns a similarity in [0,1]. Implementations
// may be slow or remote; the calculator bounds every call with a timeout.
type ScoreFunc func(ctx context.Context, a, b string) (float64, error)

// NameFunc maps a global entity id to a display name (typically the
// registry's canonical name). May return "" for unknown ids.
type NameFunc func(id string) string

// renderPredicted turns a prediction into scoring text, preferring canonical
// names, then mention text, then raw ids
func renderPredicted(p model.PredictedRelation, nameOf NameFunc) string {
	head := p.HeadMention
	if p.HeadID != nil {
		if name := lookupName(*p.HeadID, nameOf); name != "" {
			head = name
		}
	}
	tail := p.TailMention
	if p.TailID != nil {
		if name := lookupName(*p.TailID, nameOf); name != "" {
			tail = name
		}
	}
	return renderTriple(head, tail, p.Type)
}

// renderGold turns a gold relation into scoring text
func renderGold(g model.Relation, nameOf NameFunc) string {
	head := lookupName(g.HeadID, nameOf)
	if head == "" {
		head = g.HeadID
	}
	tail := lookupName(g.TailID, nameOf)
	if tail == "" {
		tail = g.TailID
	}
	return renderTriple(head, tail, g.Type)
}

func lookupName(id string, nameOf NameFunc) string {
	if nameOf == nil {
		return ""
	}
	return nameOf(id)
}

func renderTriple(head, tail string, relType model.RelationType) string {
	label := strings.ReplaceAll(string(relType), "_", " ")
	return head + " " + label + " " + tail
}

// nearestGold picks the gold relation best aligned with an unmatched
// prediction: most shared endpoints first, then lexicographic rendering for
// determinism. Returns -1 when gold is empty.
func nearestGold(p model.PredictedRelation, gold []model.Relation, nameOf NameFunc) int {
	bestIdx := -1
	bestShared := -1
	bestText := ""

	for j, g := range gold {
		shared := 0
		if p.HeadID != nil && *p.HeadID == g.HeadID {
			shared++
		}
		if p.TailID != nil && *p.TailID == g.TailID {
			shared++
		}
		text := renderGold(g, nameOf)
		if shared > bestShared || (shared == bestShared && text < bestText) {
			bestIdx = j
			bestShared = shared
			bestText = text
		}
	}

	return bestIdx
}
