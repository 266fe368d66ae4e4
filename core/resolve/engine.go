package resolve

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/siherrmann/resolver/core/match"
	"github.com/siherrmann/resolver/model"
)

// Engine applies the threshold policy to matching results and owns all
// canonical-entity mutation. It serializes resolution behind a single write
// lock, so two observations that could match the same canonical entity are
// never resolved concurrently. Reads return deep copies taken under the read
// lock and never observe a partially applied merge.
type Engine struct {
	mu       sync.RWMutex
	registry *Registry
	matcher  *match.Engine
	config   model.ResolverConfig

	merges         int
	mints          int
	emptyNameMints int
}

// NewEngine creates a resolution engine with an empty registry.
// A nil config uses the defaults.
func NewEngine(config *model.ResolverConfig) *Engine {
	cfg := model.DefaultResolverConfig()
	if config != nil {
		cfg = *config
	}

	registry := NewRegistry()
	return &Engine{
		registry: registry,
		matcher:  match.NewEngine(registry, &cfg),
		config:   cfg,
	}
}

// Config returns the engine configuration
func (e *Engine) Config() model.ResolverConfig {
	return e.config
}

// Record appends an observation to the registry without resolving it
func (e *Engine) Record(obs *model.Observation) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.AddObservation(obs)
}

// Resolve matches an observation against the registry and either merges it
// into the best candidate at or above the threshold or mints a new canonical
// entity. The observation is recorded first if it is not yet known. The
// returned resolution record carries the decision, its confidence, and the
// matching evidence.
func (e *Engine) Resolve(obs *model.Observation) (*model.ResolutionRecord, error) {
	if obs == nil {
		return nil, fmt.Errorf("observation is nil")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, known := e.registry.Observation(obs.ID); !known {
		if err := e.registry.AddObservation(obs); err != nil {
			return nil, err
		}
	}

	return e.resolveLocked(obs), nil
}

// resolveLocked runs the match-then-merge step. The caller holds the write lock.
func (e *Engine) resolveLocked(obs *model.Observation) *model.ResolutionRecord {
	// Unnamed observations always mint; no matching is attempted against them.
	if obs.Name == "" {
		e.emptyNameMints++
		return e.mintLocked(obs, model.Properties{"reason": "empty_name"})
	}

	candidates := e.matcher.FindCandidates(obs)
	if len(candidates) > 0 && candidates[0].Score >= e.config.SimilarityThreshold {
		top := candidates[0]
		return e.mergeLocked(obs, top.CanonicalID, top.Score, top.Method, top.Evidence)
	}

	return e.mintLocked(obs, model.Properties{"reason": "no_match"})
}

// mintLocked creates a new canonical entity for the observation
func (e *Engine) mintLocked(obs *model.Observation, evidence model.Properties) *model.ResolutionRecord {
	var canonicalID string
	if obs.Name == "" {
		canonicalID = UniqueCanonicalID(obs.Type, obs.ID)
	} else {
		canonicalID = CanonicalID(obs.Type, obs.Name)
	}

	e.registry.Apply(obs, canonicalID, obs.Confidence)
	e.mints++

	rec := &model.ResolutionRecord{
		ID:             model.NewResolutionID(),
		CanonicalID:    canonicalID,
		ObservationIDs: []string{obs.ID},
		Method:         model.MethodNewEntity,
		Confidence:     obs.Confidence,
		ResolvedAt:     time.Now().UTC(),
		Evidence:       evidence,
	}
	e.registry.AddResolution(rec)
	return rec
}

// mergeLocked merges the observation into an existing canonical entity
func (e *Engine) mergeLocked(obs *model.Observation, canonicalID string, score float64, method model.ResolutionMethod, evidence model.Properties) *model.ResolutionRecord {
	e.registry.Apply(obs, canonicalID, score)
	e.merges++

	rec := &model.ResolutionRecord{
		ID:             model.NewResolutionID(),
		CanonicalID:    canonicalID,
		ObservationIDs: []string{obs.ID},
		Method:         method,
		Confidence:     score,
		ResolvedAt:     time.Now().UTC(),
		Evidence:       evidence,
	}
	e.registry.AddResolution(rec)
	return rec
}

// ResolveBatch resolves a closed batch of observations together using graph
// clustering: the batch similarity graph is built once, each connected
// component is treated as a coreference cluster, and every component is
// resolved atomically. Components are disjoint, so resolving them in order
// inside one lock acquisition preserves the ordering guarantee.
//
// Returns ErrConflictingMerge if a cluster links observations of different
// types, which can only happen with caller-constructed candidate groups.
func (e *Engine) ResolveBatch(batch []*model.Observation) ([]*model.ResolutionRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, obs := range batch {
		if _, known := e.registry.Observation(obs.ID); !known {
			if err := e.registry.AddObservation(obs); err != nil {
				return nil, err
			}
		}
	}

	clusters := e.matcher.BuildClusters(batch)
	var records []*model.ResolutionRecord

	for _, cluster := range clusters {
		if len(cluster.Members) == 1 {
			records = append(records, e.resolveLocked(batch[cluster.Members[0]]))
			continue
		}

		first := batch[cluster.Members[0]]
		for _, member := range cluster.Members[1:] {
			if batch[member].Type != first.Type {
				return records, fmt.Errorf("%w: %q vs %q", ErrConflictingMerge, first.Type, batch[member].Type)
			}
		}

		ordered := orderByDocument(batch, cluster.Members)
		seed := batch[ordered[0]]
		seedRec := e.resolveLocked(seed)
		records = append(records, seedRec)

		for _, member := range ordered[1:] {
			obs := batch[member]
			score := cluster.MaxIncidentWeight(member)
			rec := e.mergeLocked(obs, seedRec.CanonicalID, score, model.MethodGraphCluster, model.Properties{
				"matched_on":   "graph_component",
				"cluster_size": len(cluster.Members),
				"score":        score,
				"threshold":    e.config.SimilarityThreshold,
			})
			records = append(records, rec)
		}
	}

	return records, nil
}

// orderByDocument sorts cluster members by source document, then position,
// then batch index, so the seed choice and merge order are deterministic
func orderByDocument(batch []*model.Observation, members []int) []int {
	ordered := append([]int(nil), members...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := batch[ordered[i]], batch[ordered[j]]
		if a.SourceDocument != b.SourceDocument {
			return a.SourceDocument < b.SourceDocument
		}
		return positionIndex(a) < positionIndex(b)
	})
	return ordered
}

func positionIndex(obs *model.Observation) int {
	if obs.Position == nil {
		return 0
	}
	return obs.Position.Index
}

// Canonical returns a deep copy of the canonical entity with the given id
func (e *Engine) Canonical(id string) (*model.CanonicalEntity, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	c, ok := e.registry.Canonical(id)
	if !ok {
		return nil, false
	}
	return c.Copy(), true
}

// Canonicals returns deep copies of all canonical entities sorted by id
func (e *Engine) Canonicals() []*model.CanonicalEntity {
	e.mu.RLock()
	defer e.mu.RUnlock()

	canonicals := e.registry.Canonicals()
	out := make([]*model.CanonicalEntity, 0, len(canonicals))
	for _, c := range canonicals {
		out = append(out, c.Copy())
	}
	return out
}

// Observation returns a deep copy of the observation with the given id
func (e *Engine) Observation(id string) (*model.Observation, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	obs, ok := e.registry.Observation(id)
	if !ok {
		return nil, false
	}
	return obs.Copy(), true
}

// Observations returns deep copies of all observations in insertion order
func (e *Engine) Observations() []*model.Observation {
	e.mu.RLock()
	defer e.mu.RUnlock()

	observations := e.registry.Observations()
	out := make([]*model.Observation, 0, len(observations))
	for _, obs := range observations {
		out = append(out, obs.Copy())
	}
	return out
}

// Resolutions returns deep copies of all resolution records in insertion order
func (e *Engine) Resolutions() []*model.ResolutionRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()

	resolutions := e.registry.Resolutions()
	out := make([]*model.ResolutionRecord, 0, len(resolutions))
	for _, rec := range resolutions {
		out = append(out, rec.Copy())
	}
	return out
}

// ResolutionsFor returns deep copies of the resolution records that touched a
// canonical entity, in decision order
func (e *Engine) ResolutionsFor(canonicalID string) []*model.ResolutionRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []*model.ResolutionRecord
	for _, rec := range e.registry.Resolutions() {
		if rec.CanonicalID == canonicalID {
			out = append(out, rec.Copy())
		}
	}
	return out
}

// Counts returns the number of observations, canonical entities, and
// resolution records
func (e *Engine) Counts() (int, int, int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.registry.observations), len(e.registry.canonicals), len(e.registry.resolutions)
}

// Statistics summarizes the registry state and the engine counters
func (e *Engine) Statistics() model.Statistics {
	e.mu.RLock()
	defer e.mu.RUnlock()

	stats := model.Statistics{
		TotalObservations:      len(e.registry.observations),
		TotalCanonicalEntities: len(e.registry.canonicals),
		TotalResolutions:       len(e.registry.resolutions),
		TypeDistribution:       map[string]int{},
		Merges:                 e.merges,
		Mints:                  e.mints,
		EmptyNameMints:         e.emptyNameMints,
	}

	documents := map[string]struct{}{}
	for _, obs := range e.registry.observations {
		if obs.SourceDocument != "" {
			documents[obs.SourceDocument] = struct{}{}
		}
	}
	stats.TotalSourceDocuments = len(documents)

	var confidenceSum float64
	for _, c := range e.registry.canonicals {
		stats.TotalAliases += len(c.Aliases)
		stats.TypeDistribution[c.Type]++
		confidenceSum += c.Confidence
	}
	if len(e.registry.canonicals) > 0 {
		stats.AverageConfidence = confidenceSum / float64(len(e.registry.canonicals))
		stats.DeduplicationRatio = float64(stats.TotalAliases) / float64(len(e.registry.canonicals))
	}

	return stats
}

// ExportCanonicalSummaries returns the canonical-entity export consumed by
// downstream graph loaders: every canonical entity with aliases, merged
// properties, confidence, and contributing source documents
func (e *Engine) ExportCanonicalSummaries() []*model.CanonicalSummary {
	e.mu.RLock()
	defer e.mu.RUnlock()

	canonicals := e.registry.Canonicals()
	out := make([]*model.CanonicalSummary, 0, len(canonicals))
	for _, c := range canonicals {
		summary := &model.CanonicalSummary{
			ID:               c.ID,
			Name:             c.Name,
			Type:             c.Type,
			Aliases:          append([]string(nil), c.Aliases...),
			Properties:       c.Properties.Copy(),
			Confidence:       c.Confidence,
			ObservationCount: len(c.ObservationIDs),
		}

		seen := map[string]struct{}{}
		for _, obsID := range c.ObservationIDs {
			if obs, ok := e.registry.Observation(obsID); ok && obs.SourceDocument != "" {
				if _, dup := seen[obs.SourceDocument]; !dup {
					seen[obs.SourceDocument] = struct{}{}
					summary.SourceDocuments = append(summary.SourceDocuments, obs.SourceDocument)
				}
			}
		}

		out = append(out, summary)
	}
	return out
}
