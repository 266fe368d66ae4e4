package model

import "time"

// Relationship is a deduplicated (subject, predicate, object) triple with
// merged properties. The predicate is already normalized through the synonym
// table when the triple is stored.
type Relationship struct {
	ID         int64      `json:"id,omitempty"`
	Subject    string     `json:"subject"`
	Predicate  string     `json:"predicate"`
	Object     string     `json:"object"`
	Properties Properties `json:"properties,omitempty"`
	CreatedAt  time.Time  `json:"created_at,omitempty"`
}

// Copy returns a deep copy of the relationship
func (r *Relationship) Copy() *Relationship {
	out := *r
	out.Properties = r.Properties.Copy()
	return &out
}
