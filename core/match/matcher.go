// Package match assigns predicted relations to gold relations one-to-one
// under a configurable equivalence policy.
package match

import (
	"errors"
	"fmt"

	"github.com/relgraph/releval/model"
)

// ErrPolicyViolation signals a broken matching invariant (a gold relation
// claimed twice). It indicates a bug, not bad input.
var ErrPolicyViolation = errors.New("match policy violation")

// Outcome records the fate of one predicted relation
type Outcome struct {
	// Index of the claimed gold relation, -1 if unmatched
	GoldIndex int `json:"gold_index"`
	// Reason the prediction failed to match; empty when matched
	Reason model.MissReason `json:"reason,omitempty"`
}

// Matched reports whether the prediction claimed a gold relation
func (o Outcome) Matched() bool {
	return o.GoldIndex >= 0
}

// Assignment is the result of matching one predicted set against one gold
// set: a per-prediction outcome plus the gold relations left unclaimed.
type Assignment struct {
	Policy   model.MatchPolicy `json:"policy"`
	Outcomes []Outcome         `json:"outcomes"`
	// Indices into the gold set that no prediction claimed
	UnclaimedGold []int `json:"unclaimed_gold"`
}

// Match performs a greedy one-to-one bipartite assignment. Predictions are
// visited in production order; each claims the first unclaimed gold relation
// satisfying the policy predicate. Earlier predictions win ties. Unresolved
// predictions never match and are tagged unresolved-entity.
func Match(predicted []model.PredictedRelation, gold []model.Relation, policy model.MatchPolicy) (*Assignment, error) {
	assignment := &Assignment{
		Policy:   policy,
		Outcomes: make([]Outcome, len(predicted)),
	}

	claimed := make([]bool, len(gold))

	for i, p := range predicted {
		assignment.Outcomes[i] = Outcome{GoldIndex: -1}

		if !p.Resolved() {
			assignment.Outcomes[i].Reason = model.MissUnresolvedEntity
			continue
		}

		matched := false
		for j, g := range gold {
			if claimed[j] {
				continue
			}
			if !equivalent(p, g, policy) {
				continue
			}
			claimed[j] = true
			assignment.Outcomes[i].GoldIndex = j
			matched = true
			break
		}

		if !matched {
			assignment.Outcomes[i].Reason = model.MissNoMatchingGold
		}
	}

	for j := range gold {
		if !claimed[j] {
			assignment.UnclaimedGold = append(assignment.UnclaimedGold, j)
		}
	}

	if err := verify(assignment, len(predicted), len(gold)); err != nil {
		return nil, err
	}

	return assignment, nil
}

// equivalent applies the policy predicate. EXACT compares (head, tail, type);
// PARTIAL compares (head, tail) only. Head/tail order always matters.
func equivalent(p model.PredictedRelation, g model.Relation, policy model.MatchPolicy) bool {
	if *p.HeadID != g.HeadID || *p.TailID != g.TailID {
		return false
	}
	if policy == model.PolicyPartial {
		return true
	}
	return p.Type == g.Type
}

// verify checks the assignment partition invariants: every gold relation
// claimed at most once, TP+FP = |predicted|, TP+FN = |gold|
func verify(a *Assignment, numPredicted, numGold int) error {
	seen := make(map[int]bool)
	matched := 0
	for _, o := range a.Outcomes {
		if !o.Matched() {
			continue
		}
		if seen[o.GoldIndex] {
			return fmt.Errorf("%w: gold relation %d claimed twice", ErrPolicyViolation, o.GoldIndex)
		}
		seen[o.GoldIndex] = true
		matched++
	}
	if matched+len(a.UnclaimedGold) != numGold {
		return fmt.Errorf("%w: %d matched + %d unclaimed != %d gold", ErrPolicyViolation, matched, len(a.UnclaimedGold), numGold)
	}
	if len(a.Outcomes) != numPredicted {
		return fmt.Errorf("%w: %d outcomes for %d predictions", ErrPolicyViolation, len(a.Outcomes), numPredicted)
	}
	return nil
}
