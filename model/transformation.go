package model

import (
	"fmt"
	"strings"
	"time"
)

// Process is the kind of event a transformation record describes
type Process string

const (
	ProcessExtract Process = "Extract"
	ProcessResolve Process = "Resolve"
)

// TransformationRecord is a content-addressed audit log entry covering both
// extraction and resolution events. Records are append-only; the CID is a
// pure function of the record's semantic fields, so two records describing
// the same event hash identically regardless of their assigned identifiers.
type TransformationRecord struct {
	ID         string    `json:"id"`
	Process    Process   `json:"process"`
	FromStates []string  `json:"from_states"`
	ToState    string    `json:"to_state"`
	Method     string    `json:"method"`
	Timestamp  time.Time `json:"timestamp"`
	Confidence float64   `json:"confidence"`
	CID        string    `json:"cid"`
}

// CanonicalString returns the stable serialization the content hash is
// computed over. Field order is fixed; the ID and CID are excluded so that
// semantically identical records serialize identically.
func (t *TransformationRecord) CanonicalString() string {
	return fmt.Sprintf(
		"process=%s|from=%s|to=%s|method=%s|timestamp=%s|confidence=%.6f",
		t.Process,
		strings.Join(t.FromStates, ","),
		t.ToState,
		t.Method,
		t.Timestamp.UTC().Format(time.RFC3339Nano),
		t.Confidence,
	)
}

// Copy returns a deep copy of the transformation record
func (t *TransformationRecord) Copy() *TransformationRecord {
	out := *t
	out.FromStates = append([]string(nil), t.FromStates...)
	return &out
}
