package model

import "time"

// ResolutionMethod identifies the matching strategy behind a resolution decision
type ResolutionMethod string

const (
	MethodExactMatch    ResolutionMethod = "exact_match"
	MethodFuzzyMatch    ResolutionMethod = "fuzzy_match"
	MethodPropertyMatch ResolutionMethod = "property_match"
	MethodGraphCluster  ResolutionMethod = "graph_cluster"
	// MethodNewEntity records the minting of a fresh canonical entity when no
	// candidate reached the threshold.
	MethodNewEntity ResolutionMethod = "new_entity"
)

// ResolutionRecord is an append-only audit entry describing one merge (or
// mint) decision. It is created once per decision and never mutated.
type ResolutionRecord struct {
	ID             string           `json:"id"`
	CanonicalID    string           `json:"canonical_id"`
	ObservationIDs []string         `json:"observation_ids"`
	Method         ResolutionMethod `json:"method"`
	Confidence     float64          `json:"confidence"`
	ResolvedAt     time.Time        `json:"resolved_at"`
	Evidence       Properties       `json:"evidence,omitempty"`
}

// Copy returns a deep copy of the resolution record
func (r *ResolutionRecord) Copy() *ResolutionRecord {
	out := *r
	out.ObservationIDs = append([]string(nil), r.ObservationIDs...)
	out.Evidence = r.Evidence.Copy()
	return &out
}
