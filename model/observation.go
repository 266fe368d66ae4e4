package model

import "time"

// Position is an optional hint describing where in a document an entity was observed
type Position struct {
	Index  int `json:"index"`
	Line   int `json:"line,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// Observation is one raw, immutable sighting of an entity in a single source
// document. Observations are created exactly once at ingestion time and are
// never mutated or deleted; that immutability is what makes audit replay
// possible.
type Observation struct {
	ID             string     `json:"id"`
	Type           string     `json:"entity_type"`
	Name           string     `json:"name"`
	Properties     Properties `json:"properties,omitempty"`
	SourceDocument string     `json:"source_document"`
	SourceCID      string     `json:"source_cid"`
	ExtractedAt    time.Time  `json:"extracted_at"`
	Method         string     `json:"method"`
	Position       *Position  `json:"position,omitempty"`
	Confidence     float64    `json:"confidence"`
}

// EntityRecord is the raw entity shape consumed from the external extraction
// component, before it is turned into an Observation.
type EntityRecord struct {
	Type       string     `json:"entity_type"`
	Name       string     `json:"name"`
	Properties Properties `json:"properties,omitempty"`
	Confidence float64    `json:"confidence,omitempty"`
}

// NewObservation creates an observation for an entity record extracted from a
// source document. Reserved keys are stripped from the property bag and the
// confidence defaults to 1.0.
func NewObservation(record EntityRecord, sourceDocument string, sourceCID string, method string, position *Position) *Observation {
	properties := Properties{}
	for k, v := range record.Properties {
		if _, reserved := ReservedPropertyKeys[k]; reserved {
			continue
		}
		properties[k] = v
	}

	confidence := record.Confidence
	if confidence <= 0 {
		confidence = 1.0
	}

	return &Observation{
		ID:             NewObservationID(),
		Type:           record.Type,
		Name:           record.Name,
		Properties:     properties,
		SourceDocument: sourceDocument,
		SourceCID:      sourceCID,
		ExtractedAt:    time.Now().UTC(),
		Method:         method,
		Position:       position,
		Confidence:     confidence,
	}
}

// Copy returns a deep copy of the observation
func (o *Observation) Copy() *Observation {
	out := *o
	out.Properties = o.Properties.Copy()
	if o.Position != nil {
		pos := *o.Position
		out.Position = &pos
	}
	return &out
}
