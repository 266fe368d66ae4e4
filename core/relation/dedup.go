// Package relation deduplicates extracted relationships. Predicates run
// through a synonym table before the triple key is formed, so semantically
// equal edges collapse regardless of the verb the extractor chose.
package relation

import (
	"strings"
	"sync"
	"time"

	"github.com/siherrmann/resolver/model"
)

// predicateSynonyms maps predicate variants to their canonical form
var predicateSynonyms = map[string]string{
	"support":      "supports",
	"supports":     "supports",
	"evidencefor":  "supports",
	"evidence_for": "supports",
	"oppose":       "opposes",
	"opposes":      "opposes",
	"contradicts":  "opposes",
	"refutes":      "opposes",
	"address":      "addresses",
	"addresses":    "addresses",
	"answers":      "addresses",
}

// NormalizePredicate lowercases a predicate and maps it through the synonym
// table. Unknown predicates pass through lowercased.
func NormalizePredicate(predicate string) string {
	p := strings.ToLower(strings.TrimSpace(predicate))
	if canonical, ok := predicateSynonyms[p]; ok {
		return canonical
	}
	return p
}

// Deduplicator collects relationships keyed by their normalized triple.
// Re-adding an existing triple merges properties first-write-wins instead of
// creating a second edge.
type Deduplicator struct {
	mu    sync.Mutex
	byKey map[string]*model.Relationship
	order []string
}

// NewDeduplicator creates an empty relationship deduplicator
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{
		byKey: map[string]*model.Relationship{},
	}
}

func tripleKey(subject, predicate, object string) string {
	return subject + "\x00" + predicate + "\x00" + object
}

// Add stores a relationship under its normalized triple. Returns the stored
// relationship and whether a new edge was created.
func (d *Deduplicator) Add(subject, predicate, object string, properties model.Properties) (*model.Relationship, bool) {
	normalized := NormalizePredicate(predicate)
	key := tripleKey(subject, normalized, object)

	d.mu.Lock()
	defer d.mu.Unlock()

	if existing, ok := d.byKey[key]; ok {
		mergeProperties(existing, properties)
		return existing.Copy(), false
	}

	rel := &model.Relationship{
		Subject:    subject,
		Predicate:  normalized,
		Object:     object,
		Properties: properties.Copy(),
		CreatedAt:  time.Now().UTC(),
	}
	if rel.Properties == nil {
		rel.Properties = model.Properties{}
	}
	d.byKey[key] = rel
	d.order = append(d.order, key)
	return rel.Copy(), true
}

// mergeProperties adds keys the existing edge does not carry yet
func mergeProperties(rel *model.Relationship, properties model.Properties) {
	for k, v := range properties {
		if model.IsEmptyValue(v) {
			continue
		}
		if existing, ok := rel.Properties[k]; ok && !model.IsEmptyValue(existing) {
			continue
		}
		rel.Properties[k] = v
	}
}

// Relationships returns deep copies of all edges in insertion order
func (d *Deduplicator) Relationships() []*model.Relationship {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]*model.Relationship, 0, len(d.order))
	for _, key := range d.order {
		out = append(out, d.byKey[key].Copy())
	}
	return out
}

// Len returns the number of distinct edges
func (d *Deduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.order)
}
