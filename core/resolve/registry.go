// Package resolve owns the observation registry and all canonical-entity
// mutation: merging matched observations and minting new canonical entities.
package resolve

import (
	"fmt"
	"sort"

	"github.com/siherrmann/resolver/core/normalize"
	"github.com/siherrmann/resolver/model"
)

// Registry is the in-memory store of observations, canonical entities, and
// resolution records, with secondary indices by normalized name, type, and
// source document. It is a plain data structure and not safe for concurrent
// use; the Engine serializes all access.
type Registry struct {
	observations     map[string]*model.Observation
	observationOrder []string
	canonicals       map[string]*model.CanonicalEntity
	resolutions      map[string]*model.ResolutionRecord
	resolutionOrder  []string

	// Secondary indices
	nameIndex map[string][]string // normalized primary name -> canonical ids
	typeIndex map[string][]string // entity type -> canonical ids
	obsByName map[string][]string // normalized name -> observation ids
	obsByDoc  map[string][]string // source document -> observation ids
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		observations: map[string]*model.Observation{},
		canonicals:   map[string]*model.CanonicalEntity{},
		resolutions:  map[string]*model.ResolutionRecord{},
		nameIndex:    map[string][]string{},
		typeIndex:    map[string][]string{},
		obsByName:    map[string][]string{},
		obsByDoc:     map[string][]string{},
	}
}

// AddObservation appends an observation to the ledger. Observations are
// immutable; recording the same id twice returns ErrDuplicateObservation.
func (r *Registry) AddObservation(obs *model.Observation) error {
	if obs == nil || obs.ID == "" {
		return fmt.Errorf("observation must have an id")
	}
	if _, exists := r.observations[obs.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateObservation, obs.ID)
	}

	r.observations[obs.ID] = obs.Copy()
	r.observationOrder = append(r.observationOrder, obs.ID)
	r.obsByName[normalize.Normalize(obs.Name)] = append(r.obsByName[normalize.Normalize(obs.Name)], obs.ID)
	if obs.SourceDocument != "" {
		r.obsByDoc[obs.SourceDocument] = append(r.obsByDoc[obs.SourceDocument], obs.ID)
	}

	return nil
}

// Observation returns the observation with the given id
func (r *Registry) Observation(id string) (*model.Observation, bool) {
	obs, ok := r.observations[id]
	return obs, ok
}

// Observations returns all observations in insertion order
func (r *Registry) Observations() []*model.Observation {
	out := make([]*model.Observation, 0, len(r.observationOrder))
	for _, id := range r.observationOrder {
		out = append(out, r.observations[id])
	}
	return out
}

// ObservationsByDocument returns the observation ids recorded for a source document
func (r *Registry) ObservationsByDocument(sourceDocument string) []string {
	return append([]string(nil), r.obsByDoc[sourceDocument]...)
}

// ObservationsByNormalizedName returns the observation ids recorded under a
// normalized name
func (r *Registry) ObservationsByNormalizedName(normalized string) []string {
	return append([]string(nil), r.obsByName[normalized]...)
}

// Canonical returns the canonical entity with the given id
func (r *Registry) Canonical(id string) (*model.CanonicalEntity, bool) {
	c, ok := r.canonicals[id]
	return c, ok
}

// Canonicals returns all canonical entities sorted by id
func (r *Registry) Canonicals() []*model.CanonicalEntity {
	ids := make([]string, 0, len(r.canonicals))
	for id := range r.canonicals {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]*model.CanonicalEntity, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.canonicals[id])
	}
	return out
}

// CanonicalsByNormalizedName implements the matcher's name index over
// normalized primary names
func (r *Registry) CanonicalsByNormalizedName(normalized string) []*model.CanonicalEntity {
	var out []*model.CanonicalEntity
	for _, id := range r.nameIndex[normalized] {
		out = append(out, r.canonicals[id])
	}
	return out
}

// CanonicalsByType implements the matcher's type index
func (r *Registry) CanonicalsByType(entityType string) []*model.CanonicalEntity {
	var out []*model.CanonicalEntity
	for _, id := range r.typeIndex[entityType] {
		out = append(out, r.canonicals[id])
	}
	return out
}

// ObservationCount returns the number of observations contributing to a canonical
func (r *Registry) ObservationCount(canonicalID string) int {
	if c, ok := r.canonicals[canonicalID]; ok {
		return len(c.ObservationIDs)
	}
	return 0
}

// AddResolution appends a resolution record and links it to its canonical
func (r *Registry) AddResolution(rec *model.ResolutionRecord) {
	r.resolutions[rec.ID] = rec
	r.resolutionOrder = append(r.resolutionOrder, rec.ID)
	if c, ok := r.canonicals[rec.CanonicalID]; ok {
		c.ResolutionIDs = append(c.ResolutionIDs, rec.ID)
	}
}

// Resolution returns the resolution record with the given id
func (r *Registry) Resolution(id string) (*model.ResolutionRecord, bool) {
	rec, ok := r.resolutions[id]
	return rec, ok
}

// Resolutions returns all resolution records in insertion order
func (r *Registry) Resolutions() []*model.ResolutionRecord {
	out := make([]*model.ResolutionRecord, 0, len(r.resolutionOrder))
	for _, id := range r.resolutionOrder {
		out = append(out, r.resolutions[id])
	}
	return out
}

// Apply merges an observation into the canonical entity with the given id,
// creating the entity if it does not exist yet. This is the single
// deterministic mutation primitive: live resolution and ledger replay both go
// through it, so the canonical state derived from a log replay is equivalent
// to the live state.
//
// Creation initializes the entity from the observation. Merging applies the
// documented rules: fold and normalized name variants join the alias set,
// properties merge first-write-wins with list union, and the aggregate
// confidence becomes (old + score) / 2.
func (r *Registry) Apply(obs *model.Observation, canonicalID string, score float64) *model.CanonicalEntity {
	canonical, exists := r.canonicals[canonicalID]
	if !exists {
		canonical = &model.CanonicalEntity{
			ID:         canonicalID,
			Name:       obs.Name,
			Type:       obs.Type,
			Properties: model.Properties{},
			Confidence: obs.Confidence,
			CreatedAt:  obs.ExtractedAt,
			UpdatedAt:  obs.ExtractedAt,
		}
		canonical.AddAlias(normalize.Fold(obs.Name))
		canonical.AddAlias(normalize.Normalize(obs.Name))
		r.canonicals[canonicalID] = canonical

		if normalized := normalize.Normalize(obs.Name); normalized != "" {
			r.nameIndex[normalized] = append(r.nameIndex[normalized], canonicalID)
		}
		r.typeIndex[obs.Type] = append(r.typeIndex[obs.Type], canonicalID)

		r.mergeProperties(canonical, obs)
		canonical.ObservationIDs = append(canonical.ObservationIDs, obs.ID)
		return canonical
	}

	canonical.AddAlias(normalize.Fold(obs.Name))
	canonical.AddAlias(normalize.Normalize(obs.Name))
	r.mergeProperties(canonical, obs)

	if !containsString(canonical.ObservationIDs, obs.ID) {
		canonical.ObservationIDs = append(canonical.ObservationIDs, obs.ID)
	}

	canonical.Confidence = (canonical.Confidence + score) / 2
	canonical.UpdatedAt = obs.ExtractedAt

	return canonical
}

// mergeProperties applies the first-write-wins / list-union merge rule.
// Keys are visited in sorted order so merging is deterministic.
func (r *Registry) mergeProperties(canonical *model.CanonicalEntity, obs *model.Observation) {
	keys := make([]string, 0, len(obs.Properties))
	for k := range obs.Properties {
		if _, reserved := model.ReservedPropertyKeys[k]; reserved {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := obs.Properties[key]
		if model.IsEmptyValue(value) {
			continue
		}

		existing, ok := canonical.Properties[key]
		if !ok || model.IsEmptyValue(existing) {
			canonical.Properties[key] = value
			continue
		}

		existingList, existingIsList := asList(existing)
		newList, newIsList := asList(value)
		if existingIsList && newIsList {
			canonical.Properties[key] = unionLists(existingList, newList)
		}
		// Otherwise first write wins.
	}
}

func asList(v interface{}) ([]interface{}, bool) {
	switch val := v.(type) {
	case []interface{}:
		return val, true
	case []string:
		out := make([]interface{}, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// unionLists merges two lists keeping existing order first, then unseen new
// values in their original order
func unionLists(existing, incoming []interface{}) []interface{} {
	seen := make(map[string]struct{}, len(existing))
	out := make([]interface{}, 0, len(existing)+len(incoming))
	for _, v := range existing {
		key := fmt.Sprintf("%v", v)
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			out = append(out, v)
		}
	}
	for _, v := range incoming {
		key := fmt.Sprintf("%v", v)
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
