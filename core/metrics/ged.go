package metrics

import "github.com/relgraph/releval/model"

// GraphEditDistance computes the edit distance between the predicted and
// gold relation graphs, both directed labeled multigraphs over entity-id
// nodes with relation-type-labeled edges.
//
// Because both graphs share the same global identifier space, node
// correspondence is given rather than searched, and the minimum edit cost
// decomposes exactly into the node-set and edge-multiset symmetric
// differences under unit cost per operation. The result is exact under that
// identity assumption and an approximation when resolution failures put
// wrong identifiers in the predicted graph. Unresolved predictions carry no
// identifiers and contribute no nodes or edges.
func GraphEditDistance(predicted []model.PredictedRelation, gold []model.Relation) float64 {
	predNodes := make(map[string]bool)
	predEdges := make(map[model.RelationTuple]int)
	for _, p := range predicted {
		if !p.Resolved() {
			continue
		}
		predNodes[*p.HeadID] = true
		predNodes[*p.TailID] = true
		predEdges[p.Tuple()]++
	}

	goldNodes := make(map[string]bool)
	goldEdges := make(map[model.RelationTuple]int)
	for _, g := range gold {
		goldNodes[g.HeadID] = true
		goldNodes[g.TailID] = true
		goldEdges[g.Tuple()]++
	}

	nodeCost := 0
	for id := range predNodes {
		if !goldNodes[id] {
			nodeCost++
		}
	}
	for id := range goldNodes {
		if !predNodes[id] {
			nodeCost++
		}
	}

	edgeCost := 0
	for tuple, count := range predEdges {
		diff := count - goldEdges[tuple]
		if diff > 0 {
			edgeCost += diff
		}
	}
	for tuple, count := range goldEdges {
		diff := count - predEdges[tuple]
		if diff > 0 {
			edgeCost += diff
		}
	}

	return float64(nodeCost + edgeCost)
}
