// Package match generates ranked canonical-entity candidates for new
// observations using exact, fuzzy, property, and batch graph strategies.
package match

import (
	"sort"

	"github.com/siherrmann/resolver/core/normalize"
	"github.com/siherrmann/resolver/model"
)

// Candidate is one proposed canonical entity for an observation
type Candidate struct {
	CanonicalID string                 `json:"canonical_id"`
	Score       float64                `json:"score"`
	Method      model.ResolutionMethod `json:"method"`
	Evidence    model.Properties       `json:"evidence"`
}

// Index is the read view of the canonical registry the matcher runs against.
// Implementations are not required to be safe for concurrent use; the caller
// serializes access.
type Index interface {
	CanonicalsByNormalizedName(normalized string) []*model.CanonicalEntity
	CanonicalsByType(entityType string) []*model.CanonicalEntity
	ObservationCount(canonicalID string) int
}

// propertyScores maps high-value identifying property keys to their match score
func propertyScores(config *model.ResolverConfig) map[string]float64 {
	return map[string]float64{
		"identifier": config.IdentifierMatchScore,
		"email":      config.ContactMatchScore,
		"website":    config.ContactMatchScore,
	}
}

// Engine produces ranked candidate lists for observations
type Engine struct {
	index  Index
	config model.ResolverConfig
}

// NewEngine creates a matching engine over the given canonical index.
// A nil config uses the defaults.
func NewEngine(index Index, config *model.ResolverConfig) *Engine {
	cfg := model.DefaultResolverConfig()
	if config != nil {
		cfg = *config
	}
	return &Engine{
		index:  index,
		config: cfg,
	}
}

// Threshold returns the configured similarity threshold
func (e *Engine) Threshold() float64 {
	return e.config.SimilarityThreshold
}

// FindCandidates returns candidate canonical entities for the observation,
// deduplicated by canonical id (highest score per id retained) and sorted by
// descending score. Observations with an empty name only produce property
// candidates, and matching is always restricted to the observation's type.
func (e *Engine) FindCandidates(obs *model.Observation) []Candidate {
	var candidates []Candidate

	if obs.Name != "" {
		candidates = append(candidates, e.exactCandidates(obs)...)
		candidates = append(candidates, e.fuzzyCandidates(obs)...)
	}
	candidates = append(candidates, e.propertyCandidates(obs)...)

	return e.rank(candidates)
}

// exactCandidates matches the normalized name against the name index
func (e *Engine) exactCandidates(obs *model.Observation) []Candidate {
	normalized := normalize.Normalize(obs.Name)
	if normalized == "" {
		return nil
	}

	var out []Candidate
	for _, canonical := range e.index.CanonicalsByNormalizedName(normalized) {
		if canonical.Type != obs.Type {
			continue
		}
		out = append(out, Candidate{
			CanonicalID: canonical.ID,
			Score:       1.0,
			Method:      model.MethodExactMatch,
			Evidence: model.Properties{
				"matched_on": "name",
				"normalized": normalized,
			},
		})
	}
	return out
}

// fuzzyCandidates scores the observation name against the primary name and
// every alias of each same-type canonical, keeping the max per canonical
func (e *Engine) fuzzyCandidates(obs *model.Observation) []Candidate {
	var out []Candidate

	for _, canonical := range e.index.CanonicalsByType(obs.Type) {
		best := 0.0
		bestName := ""

		names := append([]string{canonical.Name}, canonical.Aliases...)
		for _, name := range names {
			score := normalize.SimilarityNGram(obs.Name, name, e.config.NGramMin, e.config.NGramMax)
			if score > best {
				best = score
				bestName = name
			}
		}

		if best >= e.config.SimilarityThreshold {
			out = append(out, Candidate{
				CanonicalID: canonical.ID,
				Score:       best,
				Method:      model.MethodFuzzyMatch,
				Evidence: model.Properties{
					"matched_on":   "similarity",
					"matched_name": bestName,
					"score":        best,
					"threshold":    e.config.SimilarityThreshold,
				},
			})
		}
	}
	return out
}

// propertyCandidates matches high-value identifying properties (identifier,
// email, website) for exact equality against same-type canonicals
func (e *Engine) propertyCandidates(obs *model.Observation) []Candidate {
	scores := propertyScores(&e.config)

	var keys []string
	for key := range scores {
		if _, ok := obs.Properties.StringValue(key); ok {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)

	var out []Candidate
	for _, canonical := range e.index.CanonicalsByType(obs.Type) {
		for _, key := range keys {
			obsValue, _ := obs.Properties.StringValue(key)
			canonicalValue, ok := canonical.Properties.StringValue(key)
			if !ok || canonicalValue != obsValue {
				continue
			}
			out = append(out, Candidate{
				CanonicalID: canonical.ID,
				Score:       scores[key],
				Method:      model.MethodPropertyMatch,
				Evidence: model.Properties{
					"matched_on": key,
					"value":      obsValue,
				},
			})
		}
	}
	return out
}

// rank deduplicates by canonical id keeping the highest score, then sorts by
// score descending. Ties are broken by prior observation count (more evidence
// first), then by canonical id, so the ordering is deterministic.
func (e *Engine) rank(candidates []Candidate) []Candidate {
	best := make(map[string]Candidate, len(candidates))
	for _, c := range candidates {
		if existing, ok := best[c.CanonicalID]; !ok || c.Score > existing.Score {
			best[c.CanonicalID] = c
		}
	}

	out := make([]Candidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		ci := e.index.ObservationCount(out[i].CanonicalID)
		cj := e.index.ObservationCount(out[j].CanonicalID)
		if ci != cj {
			return ci > cj
		}
		return out[i].CanonicalID < out[j].CanonicalID
	})

	return out
}
