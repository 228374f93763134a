// Package resolve maps free-text entity mentions to global entity
// identifiers using the frozen registry.
package resolve

import (
	"sort"
	"strings"
	"unicode"

	"github.com/relgraph/releval/model"
	"github.com/relgraph/releval/registry"
)

// Method names the resolution stage that produced a candidate
type Method string

const (
	MethodExact     Method = "exact"
	MethodExactFold Method = "exact-fold"
	MethodFuzzy     Method = "fuzzy"
	MethodAcronym   Method = "acronym"
)

// Candidate is one possible resolution of a mention, with its confidence
type Candidate struct {
	EntityID   string  `json:"entity_id"`
	Confidence float64 `json:"confidence"`
	Method     Method  `json:"method"`
}

// Resolver resolves mentions against a frozen registry. It is purely
// functional and safe for concurrent use.
type Resolver struct {
	registry       *registry.Registry
	fuzzyThreshold float64
	acronymMaxLen  int
}

// NewResolver creates a resolver over a frozen registry
func NewResolver(reg *registry.Registry, config model.EvalConfig) *Resolver {
	return &Resolver{
		registry:       reg,
		fuzzyThreshold: config.FuzzyThreshold,
		acronymMaxLen:  config.AcronymMaxLen,
	}
}

// Resolve maps a mention to candidate entity ids, ordered by confidence
// descending. Stages run in strict precedence order and short-circuit at the
// first stage producing any candidate: exact match, type-filtered fuzzy
// match, acronym heuristic. An empty result signals resolution failure and
// must be recorded by the caller, not silently dropped.
func (r *Resolver) Resolve(mentionText string, typeHint model.EntityType) []Candidate {
	mentionText = strings.TrimSpace(mentionText)
	if mentionText == "" {
		return nil
	}

	if candidates := r.exactStage(mentionText); len(candidates) > 0 {
		return r.rank(candidates)
	}

	if candidates := r.fuzzyStage(mentionText, typeHint); len(candidates) > 0 {
		return r.rank(candidates)
	}

	if candidates := r.acronymStage(mentionText); len(candidates) > 0 {
		return r.rank(candidates)
	}

	return nil
}

// exactStage looks the mention up literally: case-sensitive hits score 1.0,
// hits found only under case folding score 0.95
func (r *Resolver) exactStage(mentionText string) []Candidate {
	var candidates []Candidate

	sensitive := make(map[string]bool)
	for _, id := range r.registry.LookupSurface(mentionText) {
		sensitive[id] = true
		candidates = append(candidates, Candidate{EntityID: id, Confidence: 1.0, Method: MethodExact})
	}

	for _, id := range r.registry.LookupSurfaceFold(mentionText) {
		if !sensitive[id] {
			candidates = append(candidates, Candidate{EntityID: id, Confidence: 0.95, Method: MethodExactFold})
		}
	}

	return candidates
}

// fuzzyStage compares the mention to every known surface form, restricted to
// the hinted type when one is given. Candidates at or above the acceptance
// threshold keep their similarity as confidence.
func (r *Resolver) fuzzyStage(mentionText string, typeHint model.EntityType) []Candidate {
	var candidates []Candidate

	for _, entity := range r.registry.EntitiesByType(typeHint) {
		best := 0.0
		for surface := range entity.AllMentions {
			if sim := Similarity(mentionText, surface); sim > best {
				best = sim
			}
		}
		if best >= r.fuzzyThreshold {
			candidates = append(candidates, Candidate{EntityID: entity.ID, Confidence: best, Method: MethodFuzzy})
		}
	}

	return candidates
}

// acronymStage matches short all-uppercase mentions against the initials of
// multi-word canonical names
func (r *Resolver) acronymStage(mentionText string) []Candidate {
	if !isAcronym(mentionText, r.acronymMaxLen) {
		return nil
	}

	var candidates []Candidate
	for _, entity := range r.registry.EntitiesByType("") {
		if initials(entity.CanonicalName) == strings.ToUpper(mentionText) {
			candidates = append(candidates, Candidate{EntityID: entity.ID, Confidence: 0.7, Method: MethodAcronym})
		}
	}

	return candidates
}

// rank orders candidates by confidence descending, breaking ties by higher
// document count, then lexicographic id for determinism
func (r *Resolver) rank(candidates []Candidate) []Candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		docsA := r.registry.Entity(a.EntityID).DocumentCount
		docsB := r.registry.Entity(b.EntityID).DocumentCount
		if docsA != docsB {
			return docsA > docsB
		}
		return a.EntityID < b.EntityID
	})
	return candidates
}

// ResolveRelation resolves both endpoints of a surface relation. Endpoints
// that fail resolution keep a nil id with the mention text preserved for
// diagnostics.
func (r *Resolver) ResolveRelation(surface model.SurfaceRelation) model.PredictedRelation {
	predicted := model.PredictedRelation{
		Type:        surface.Type,
		HeadMention: surface.HeadText,
		TailMention: surface.TailText,
	}

	if candidates := r.Resolve(surface.HeadText, surface.HeadTypeHint); len(candidates) > 0 {
		id := candidates[0].EntityID
		predicted.HeadID = &id
		predicted.HeadConfidence = candidates[0].Confidence
	}

	if candidates := r.Resolve(surface.TailText, surface.TailTypeHint); len(candidates) > 0 {
		id := candidates[0].EntityID
		predicted.TailID = &id
		predicted.TailConfidence = candidates[0].Confidence
	}

	return predicted
}

// isAcronym reports whether the mention looks like an abbreviation:
// all-uppercase letters (digits allowed), at most maxLen characters
func isAcronym(s string, maxLen int) bool {
	if len(s) == 0 || len(s) > maxLen {
		return false
	}
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) || unicode.IsSpace(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

// initials builds the uppercase initials of a multi-word name, skipping
// single-word names (their initials are never a useful acronym target).
// Hyphens and slashes count as word separators, so "sodium/iodide
// symporter" yields "NIS".
func initials(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '/'
	})
	if len(words) < 2 {
		return ""
	}

	var b strings.Builder
	for _, word := range words {
		for _, r := range word {
			b.WriteRune(unicode.ToUpper(r))
			break
		}
	}
	return b.String()
}
