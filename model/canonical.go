package model

import "time"

// CanonicalEntity is the resolved, deduplicated representation of a
// real-world entity. It is created on the first observation that finds no
// match and mutated only by the resolution engine when further observations
// are merged in. It is never deleted.
type CanonicalEntity struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Type          string     `json:"entity_type"`
	Aliases       []string   `json:"aliases"`
	Properties    Properties `json:"properties"`
	ObservationIDs []string  `json:"observation_ids"`
	ResolutionIDs []string   `json:"resolution_ids"`
	Confidence    float64    `json:"confidence"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// HasAlias reports whether the alias set contains the given name variant
func (c *CanonicalEntity) HasAlias(name string) bool {
	for _, a := range c.Aliases {
		if a == name {
			return true
		}
	}
	return false
}

// AddAlias appends a name variant if it is non-empty and not yet present
func (c *CanonicalEntity) AddAlias(name string) {
	if name == "" || c.HasAlias(name) {
		return
	}
	c.Aliases = append(c.Aliases, name)
}

// Copy returns a deep copy of the canonical entity
func (c *CanonicalEntity) Copy() *CanonicalEntity {
	out := *c
	out.Aliases = append([]string(nil), c.Aliases...)
	out.Properties = c.Properties.Copy()
	out.ObservationIDs = append([]string(nil), c.ObservationIDs...)
	out.ResolutionIDs = append([]string(nil), c.ResolutionIDs...)
	return &out
}

// CanonicalSummary is the compact export shape of a canonical entity
type CanonicalSummary struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Type             string     `json:"entity_type"`
	Aliases          []string   `json:"aliases"`
	Properties       Properties `json:"properties"`
	Confidence       float64    `json:"confidence"`
	SourceDocuments  []string   `json:"source_documents"`
	ObservationCount int        `json:"observation_count"`
}
