package model

import "time"

// ProvenanceStatistics summarizes the history of one canonical entity
type ProvenanceStatistics struct {
	TotalObservations int       `json:"total_observations"`
	UniqueSources     int       `json:"unique_sources"`
	NameVariations    int       `json:"name_variations"`
	CreatedAt         time.Time `json:"created_at"`
	LastUpdated       time.Time `json:"last_updated"`
}

// ProvenanceReport is the full audit history of one canonical entity: its
// current merged view, every contributing observation with its source, every
// resolution decision that touched it, and every transformation that produced
// or consumed its state.
type ProvenanceReport struct {
	CanonicalID     string                  `json:"canonical_id"`
	Canonical       *CanonicalEntity        `json:"canonical"`
	Observations    []*Observation          `json:"observations"`
	Resolutions     []*ResolutionRecord     `json:"resolutions"`
	Transformations []*TransformationRecord `json:"transformations"`
	Statistics      ProvenanceStatistics    `json:"statistics"`
}

// ProvenanceGraph is the whole-graph export consumed by audit tooling
type ProvenanceGraph struct {
	GeneratedAt            time.Time                    `json:"generated_at"`
	TotalObservations      int                          `json:"total_observations"`
	TotalResolutions       int                          `json:"total_resolutions"`
	TotalCanonicalEntities int                          `json:"total_canonical_entities"`
	TotalTransformations   int                          `json:"total_transformations"`
	CanonicalEntities      []*CanonicalSummary          `json:"canonical_entities"`
	Transformations        []*TransformationRecord      `json:"transformations"`
	Provenance             map[string]*ProvenanceReport `json:"provenance"`
}
