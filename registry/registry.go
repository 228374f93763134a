// Package registry builds and serves the corpus-wide entity index.
//
// Construction is two-phase: a Builder accumulates entities document by
// document (single-threaded), then Freeze produces an immutable Registry
// that all resolution calls share read-only with no locking.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/relgraph/releval/model"
)

// DataIntegrityError reports a global identifier appearing with conflicting
// types across documents. Fatal at build time, never at evaluation time.
type DataIntegrityError struct {
	EntityID     string
	ExistingType model.EntityType
	ConflictType model.EntityType
	DocID        string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("entity %s has conflicting types: %s (registered) vs %s (document %s)",
		e.EntityID, e.ExistingType, e.ConflictType, e.DocID)
}

// accum is the mutable build-phase record for one entity
type accum struct {
	id            string
	entityType    model.EntityType
	mentionCounts map[string]int
	firstSeen     map[string]int
	documentCount int
	nextSeen      int
}

// Builder accumulates entities from gold annotations before freezing
type Builder struct {
	entities map[string]*accum
}

// NewBuilder creates an empty registry builder
func NewBuilder() *Builder {
	return &Builder{entities: make(map[string]*accum)}
}

// AddDocument folds one document's entities into the builder.
// A type conflict for an already-registered id is a DataIntegrityError.
func (b *Builder) AddDocument(gold *model.GoldRelations) error {
	seenInDoc := make(map[string]bool)

	for _, entity := range gold.Entities {
		a, ok := b.entities[entity.ID]
		if !ok {
			a = &accum{
				id:            entity.ID,
				entityType:    entity.Type,
				mentionCounts: make(map[string]int),
				firstSeen:     make(map[string]int),
			}
			b.entities[entity.ID] = a
		} else if a.entityType != entity.Type {
			return &DataIntegrityError{
				EntityID:     entity.ID,
				ExistingType: a.entityType,
				ConflictType: entity.Type,
				DocID:        gold.DocID,
			}
		}

		if !seenInDoc[entity.ID] {
			seenInDoc[entity.ID] = true
			a.documentCount++
		}

		for _, mention := range entity.Mentions {
			text := strings.TrimSpace(mention.Text)
			if text == "" {
				continue
			}
			if _, seen := a.firstSeen[text]; !seen {
				a.firstSeen[text] = a.nextSeen
				a.nextSeen++
			}
			a.mentionCounts[text]++
		}
	}

	return nil
}

// Freeze builds the immutable registry. The builder must not be used after.
func (b *Builder) Freeze() *Registry {
	r := &Registry{
		byID:      make(map[string]*model.GlobalEntity, len(b.entities)),
		bySurface: make(map[string][]string),
		byFolded:  make(map[string][]string),
	}

	for id, a := range b.entities {
		entity := &model.GlobalEntity{
			ID:            a.id,
			Type:          a.entityType,
			AllMentions:   a.mentionCounts,
			CanonicalName: canonicalName(a),
			DocumentCount: a.documentCount,
		}
		r.byID[id] = entity

		for surface := range a.mentionCounts {
			r.bySurface[surface] = append(r.bySurface[surface], id)
			folded := strings.ToLower(surface)
			r.byFolded[folded] = append(r.byFolded[folded], id)
		}
	}

	// Deterministic candidate order for every surface form
	for _, ids := range r.bySurface {
		sort.Strings(ids)
	}
	for surface, ids := range r.byFolded {
		sort.Strings(ids)
		r.byFolded[surface] = dedupe(ids)
	}

	r.ids = make([]string, 0, len(r.byID))
	for id := range r.byID {
		r.ids = append(r.ids, id)
	}
	sort.Strings(r.ids)

	return r
}

// canonicalName picks the highest-frequency surface form, breaking ties by
// first-seen order
func canonicalName(a *accum) string {
	best := ""
	bestCount := -1
	bestSeen := 0
	for surface, count := range a.mentionCounts {
		seen := a.firstSeen[surface]
		if count > bestCount || (count == bestCount && seen < bestSeen) {
			best = surface
			bestCount = count
			bestSeen = seen
		}
	}
	return best
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, id := range sorted {
		if i == 0 || sorted[i-1] != id {
			out = append(out, id)
		}
	}
	return out
}

// Registry is the frozen, read-only entity index shared by all resolution
// calls of a run
type Registry struct {
	byID      map[string]*model.GlobalEntity
	bySurface map[string][]string
	byFolded  map[string][]string
	ids       []string
}

// Entity returns the entity for a global identifier, or nil
func (r *Registry) Entity(id string) *model.GlobalEntity {
	return r.byID[id]
}

// LookupSurface returns ids whose mentions contain text, case-sensitive,
// ordered lexicographically
func (r *Registry) LookupSurface(text string) []string {
	return r.bySurface[text]
}

// LookupSurfaceFold returns ids whose mentions contain text under case
// folding, ordered lexicographically
func (r *Registry) LookupSurfaceFold(text string) []string {
	return r.byFolded[strings.ToLower(text)]
}

// IDs returns all entity ids in lexicographic order
func (r *Registry) IDs() []string {
	return r.ids
}

// EntitiesByType returns all entities of the given type, in id order.
// A zero-value type returns every entity.
func (r *Registry) EntitiesByType(entityType model.EntityType) []*model.GlobalEntity {
	var entities []*model.GlobalEntity
	for _, id := range r.ids {
		entity := r.byID[id]
		if entityType == "" || entity.Type == entityType {
			entities = append(entities, entity)
		}
	}
	return entities
}

// Len returns the number of distinct entities in the registry
func (r *Registry) Len() int {
	return len(r.byID)
}
