package provenance

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/resolver/core/resolve"
	"github.com/siherrmann/resolver/model"
)

// ErrLedgerInconsistent is returned by Audit when a stored content identifier
// no longer matches the record it was computed from.
var ErrLedgerInconsistent = errors.New("ledger inconsistent")

// Source is the read side of the resolution engine the ledger reports over
type Source interface {
	Canonical(id string) (*model.CanonicalEntity, bool)
	Canonicals() []*model.CanonicalEntity
	Observation(id string) (*model.Observation, bool)
	ResolutionsFor(canonicalID string) []*model.ResolutionRecord
	ExportCanonicalSummaries() []*model.CanonicalSummary
}

// Ledger is the append-only transformation log. Every extraction and every
// resolution decision lands here as a content-addressed record; records with
// an identical content hash are stored once.
type Ledger struct {
	mu      sync.RWMutex
	source  Source
	records []*model.TransformationRecord
	byCID   map[string]*model.TransformationRecord
}

// NewLedger creates an empty ledger reporting over the given source
func NewLedger(source Source) *Ledger {
	return &Ledger{
		source: source,
		byCID:  map[string]*model.TransformationRecord{},
	}
}

// RecordExtraction logs that an observation was extracted from its source
// document. From state is the document content id, to state the observation.
func (l *Ledger) RecordExtraction(obs *model.Observation) *model.TransformationRecord {
	record := &model.TransformationRecord{
		ID:         "urn:uuid:" + uuid.NewString(),
		Process:    model.ProcessExtract,
		FromStates: []string{obs.SourceCID},
		ToState:    obs.ID,
		Method:     obs.Method,
		Timestamp:  obs.ExtractedAt,
		Confidence: obs.Confidence,
	}
	return l.append(record)
}

// RecordResolution logs a resolution decision. From states are the resolved
// observations, to state the canonical entity they landed on.
func (l *Ledger) RecordResolution(rec *model.ResolutionRecord) *model.TransformationRecord {
	record := &model.TransformationRecord{
		ID:         "urn:uuid:" + uuid.NewString(),
		Process:    model.ProcessResolve,
		FromStates: append([]string(nil), rec.ObservationIDs...),
		ToState:    rec.CanonicalID,
		Method:     string(rec.Method),
		Timestamp:  rec.ResolvedAt,
		Confidence: rec.Confidence,
	}
	return l.append(record)
}

// append hashes the record and stores it unless an identical record exists
func (l *Ledger) append(record *model.TransformationRecord) *model.TransformationRecord {
	record.CID = ContentHash(record)

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.byCID[record.CID]; ok {
		return existing.Copy()
	}

	l.records = append(l.records, record)
	l.byCID[record.CID] = record
	return record.Copy()
}

// Records returns deep copies of all transformation records in append order
func (l *Ledger) Records() []*model.TransformationRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*model.TransformationRecord, 0, len(l.records))
	for _, record := range l.records {
		out = append(out, record.Copy())
	}
	return out
}

// Len returns the number of stored records
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Provenance assembles the full audit history of one canonical entity: the
// merged view, every contributing observation, every resolution decision, and
// every transformation record that produced or consumed one of its states.
func (l *Ledger) Provenance(canonicalID string) (*model.ProvenanceReport, error) {
	canonical, ok := l.source.Canonical(canonicalID)
	if !ok {
		return nil, fmt.Errorf("unknown canonical entity %s", canonicalID)
	}

	observationIDs := map[string]struct{}{}
	var observations []*model.Observation
	sources := map[string]struct{}{}
	for _, obsID := range canonical.ObservationIDs {
		observationIDs[obsID] = struct{}{}
		if obs, found := l.source.Observation(obsID); found {
			observations = append(observations, obs)
			if obs.SourceDocument != "" {
				sources[obs.SourceDocument] = struct{}{}
			}
		}
	}

	report := &model.ProvenanceReport{
		CanonicalID:  canonicalID,
		Canonical:    canonical,
		Observations: observations,
		Resolutions:  l.source.ResolutionsFor(canonicalID),
		Statistics: model.ProvenanceStatistics{
			TotalObservations: len(observations),
			UniqueSources:     len(sources),
			NameVariations:    len(canonical.Aliases),
			CreatedAt:         canonical.CreatedAt,
			LastUpdated:       canonical.UpdatedAt,
		},
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, record := range l.records {
		if l.touches(record, canonicalID, observationIDs) {
			report.Transformations = append(report.Transformations, record.Copy())
		}
	}

	return report, nil
}

// touches reports whether a record produced or consumed one of the canonical
// entity's states
func (l *Ledger) touches(record *model.TransformationRecord, canonicalID string, observationIDs map[string]struct{}) bool {
	if record.ToState == canonicalID {
		return true
	}
	if _, ok := observationIDs[record.ToState]; ok {
		return true
	}
	for _, from := range record.FromStates {
		if _, ok := observationIDs[from]; ok {
			return true
		}
	}
	return false
}

// ExportGraph builds the whole-graph audit export: every canonical entity
// summary, every transformation record, and a per-entity provenance report
func (l *Ledger) ExportGraph() (*model.ProvenanceGraph, error) {
	canonicals := l.source.Canonicals()

	graph := &model.ProvenanceGraph{
		GeneratedAt:            time.Now().UTC(),
		TotalCanonicalEntities: len(canonicals),
		TotalTransformations:   l.Len(),
		CanonicalEntities:      l.source.ExportCanonicalSummaries(),
		Transformations:        l.Records(),
		Provenance:             map[string]*model.ProvenanceReport{},
	}

	for _, canonical := range canonicals {
		report, err := l.Provenance(canonical.ID)
		if err != nil {
			return nil, err
		}
		graph.Provenance[canonical.ID] = report
		graph.TotalObservations += len(report.Observations)
		graph.TotalResolutions += len(report.Resolutions)
	}

	return graph, nil
}

// Replay reconstructs the canonical entity state from the ledger alone.
// Records are applied in timestamp order (append order on ties): extractions
// re-record the observation, resolutions re-apply the merge or mint with the
// logged confidence. The returned registry holds canonical entities equivalent
// to the live state the ledger was written against.
func (l *Ledger) Replay(lookup func(id string) (*model.Observation, bool)) (*resolve.Registry, error) {
	records := l.Records()
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})

	registry := resolve.NewRegistry()
	for _, record := range records {
		switch record.Process {
		case model.ProcessExtract:
			obs, ok := lookup(record.ToState)
			if !ok {
				return nil, fmt.Errorf("%w: extraction %s references unknown observation %s", ErrLedgerInconsistent, record.CID, record.ToState)
			}
			if err := registry.AddObservation(obs); err != nil && !errors.Is(err, resolve.ErrDuplicateObservation) {
				return nil, err
			}
		case model.ProcessResolve:
			for _, obsID := range record.FromStates {
				obs, ok := lookup(obsID)
				if !ok {
					return nil, fmt.Errorf("%w: resolution %s references unknown observation %s", ErrLedgerInconsistent, record.CID, obsID)
				}
				registry.Apply(obs, record.ToState, record.Confidence)
			}
		default:
			return nil, fmt.Errorf("%w: unknown process %q in record %s", ErrLedgerInconsistent, record.Process, record.CID)
		}
	}

	return registry, nil
}

// Audit verifies every stored content identifier against a fresh hash of its
// record. A mismatch means the ledger was modified after the fact.
func (l *Ledger) Audit() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, record := range l.records {
		if ContentHash(record) != record.CID {
			return fmt.Errorf("%w: record %s fails content verification", ErrLedgerInconsistent, record.ID)
		}
	}
	return nil
}
