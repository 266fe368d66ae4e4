package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/siherrmann/resolver/core/provenance"
	"github.com/siherrmann/resolver/core/relation"
	"github.com/siherrmann/resolver/core/resolve"
	"github.com/siherrmann/resolver/database"
	"github.com/siherrmann/resolver/helper"
	"github.com/siherrmann/resolver/model"
	loadSql "github.com/siherrmann/resolver/sql"
)

// Resolver provides a unified interface to the resolution engine, the
// provenance ledger, the relationship deduplicator, and the optional
// PostgreSQL persistence handlers. The core is fully functional in memory;
// the database handlers are only wired when a database configuration is given.
type Resolver struct {
	Engine        *resolve.Engine
	Ledger        *provenance.Ledger
	Relationships *relation.Deduplicator

	DB                *helper.Database
	Documents         *database.DocumentsDBHandler
	Observations      *database.ObservationsDBHandler
	Canonicals        *database.CanonicalsDBHandler
	Resolutions       *database.ResolutionsDBHandler
	Transformations   *database.TransformationsDBHandler
	RelationshipStore *database.RelationshipsDBHandler

	config model.ResolverConfig
	log    *slog.Logger
}

// NewResolver creates an in-memory resolver. A nil config uses the defaults.
func NewResolver(config *model.ResolverConfig) *Resolver {
	cfg := model.DefaultResolverConfig()
	if config != nil {
		cfg = *config
	}

	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	engine := resolve.NewEngine(&cfg)

	return &Resolver{
		Engine:        engine,
		Ledger:        provenance.NewLedger(engine),
		Relationships: relation.NewDeduplicator(),
		config:        cfg,
		log:           logger,
	}
}

// NewResolverWithDatabase creates a resolver with all database handlers initialized
func NewResolverWithDatabase(config *model.ResolverConfig, dbConfig *helper.DatabaseConfiguration) (*Resolver, error) {
	r := NewResolver(config)

	// Initialize database
	db := helper.NewDatabase("resolver", dbConfig, r.log)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create all handlers
	// force=false to not reload if functions already exist
	documents, err := database.NewDocumentsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create documents handler", err)
	}

	observations, err := database.NewObservationsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create observations handler", err)
	}

	canonicals, err := database.NewCanonicalsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create canonicals handler", err)
	}

	resolutions, err := database.NewResolutionsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create resolutions handler", err)
	}

	transformations, err := database.NewTransformationsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create transformations handler", err)
	}

	relationships, err := database.NewRelationshipsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create relationships handler", err)
	}

	r.DB = db
	r.Documents = documents
	r.Observations = observations
	r.Canonicals = canonicals
	r.Resolutions = resolutions
	r.Transformations = transformations
	r.RelationshipStore = relationships

	return r, nil
}

// Close closes the database connection
func (r *Resolver) Close() error {
	if r.DB != nil && r.DB.Instance != nil {
		return r.DB.Instance.Close()
	}
	return nil
}

// Config returns the resolver configuration
func (r *Resolver) Config() model.ResolverConfig {
	return r.config
}

// IngestDocument records and resolves the entities extracted from one source
// document, one by one in extraction order. Every extraction and every
// resolution decision lands in the transformation ledger.
func (r *Resolver) IngestDocument(doc *model.Document, entities []model.EntityRecord) ([]*model.ResolutionRecord, error) {
	observations, err := r.prepareObservations(doc, entities)
	if err != nil {
		return nil, err
	}

	var records []*model.ResolutionRecord
	for _, obs := range observations {
		r.Ledger.RecordExtraction(obs)

		rec, err := r.Engine.Resolve(obs)
		if err != nil {
			return records, helper.NewError("resolve observation", err)
		}
		r.Ledger.RecordResolution(rec)
		records = append(records, rec)
	}

	r.log.Info("Ingested document",
		slog.String("path", doc.Path),
		slog.Int("entities", len(entities)),
		slog.Int("resolutions", len(records)),
	)

	return records, nil
}

// IngestBatch records the entities of one source document and resolves them
// together as a closed batch, so coreferent mentions within the document land
// on one canonical entity.
func (r *Resolver) IngestBatch(doc *model.Document, entities []model.EntityRecord) ([]*model.ResolutionRecord, error) {
	observations, err := r.prepareObservations(doc, entities)
	if err != nil {
		return nil, err
	}

	for _, obs := range observations {
		r.Ledger.RecordExtraction(obs)
	}

	records, err := r.Engine.ResolveBatch(observations)
	if err != nil {
		return records, helper.NewError("resolve batch", err)
	}
	for _, rec := range records {
		r.Ledger.RecordResolution(rec)
	}

	r.log.Info("Ingested document batch",
		slog.String("path", doc.Path),
		slog.Int("entities", len(entities)),
		slog.Int("resolutions", len(records)),
	)

	return records, nil
}

// prepareObservations turns raw entity records into observations and persists
// the document metadata when a database is attached
func (r *Resolver) prepareObservations(doc *model.Document, entities []model.EntityRecord) ([]*model.Observation, error) {
	if doc == nil {
		return nil, helper.NewError("ingest document", fmt.Errorf("document is nil"))
	}

	if r.Documents != nil {
		if err := r.Documents.InsertDocument(doc); err != nil {
			return nil, helper.NewError("insert document", err)
		}
	}

	observations := make([]*model.Observation, 0, len(entities))
	for i, record := range entities {
		obs := model.NewObservation(record, doc.Path, doc.ContentHash, r.config.ExtractionMethod, &model.Position{Index: i})
		observations = append(observations, obs)
	}

	return observations, nil
}

// AddRelationship stores a relationship between two canonical entities. The
// predicate is normalized through the synonym table; duplicate triples merge
// instead of creating a second edge. Returns the stored edge and whether it
// was newly created.
func (r *Resolver) AddRelationship(subject string, predicate string, object string, properties model.Properties) (*model.Relationship, bool, error) {
	rel, created := r.Relationships.Add(subject, predicate, object, properties)

	if r.RelationshipStore != nil {
		if err := r.RelationshipStore.InsertRelationship(rel); err != nil {
			return nil, false, helper.NewError("insert relationship", err)
		}
	}

	return rel, created, nil
}

// CanonicalEntities returns the canonical-entity export for downstream graph loaders
func (r *Resolver) CanonicalEntities() []*model.CanonicalSummary {
	return r.Engine.ExportCanonicalSummaries()
}

// ExportRelationships returns all deduplicated relationships in insertion order
func (r *Resolver) ExportRelationships() []*model.Relationship {
	return r.Relationships.Relationships()
}

// Provenance returns the full audit history of one canonical entity
func (r *Resolver) Provenance(canonicalID string) (*model.ProvenanceReport, error) {
	return r.Ledger.Provenance(canonicalID)
}

// ExportProvenanceGraph returns the whole-graph audit export
func (r *Resolver) ExportProvenanceGraph() (*model.ProvenanceGraph, error) {
	return r.Ledger.ExportGraph()
}

// Statistics summarizes the resolution state
func (r *Resolver) Statistics() model.Statistics {
	return r.Engine.Statistics()
}

// Audit verifies the content identifiers of the whole transformation ledger
func (r *Resolver) Audit() error {
	return r.Ledger.Audit()
}

// Replay reconstructs the canonical entity state from the transformation
// ledger and the recorded observations alone
func (r *Resolver) Replay() (*resolve.Registry, error) {
	return r.Ledger.Replay(r.Engine.Observation)
}

// Persist writes the current in-memory state through the database handlers.
// Observations, resolutions, and transformations are append-only, so
// re-persisting is idempotent; canonical entities are upserted.
func (r *Resolver) Persist(ctx context.Context) error {
	if r.DB == nil {
		return helper.NewError("persist", fmt.Errorf("no database attached"))
	}

	for _, obs := range r.Engine.Observations() {
		if err := ctx.Err(); err != nil {
			return helper.NewError("persist", err)
		}
		if err := r.Observations.InsertObservation(obs); err != nil {
			return helper.NewError("persist observation", err)
		}
	}

	for _, canonical := range r.Engine.Canonicals() {
		if err := r.Canonicals.UpsertCanonical(canonical); err != nil {
			return helper.NewError("persist canonical", err)
		}
	}

	for _, rec := range r.Engine.Resolutions() {
		if err := r.Resolutions.InsertResolution(rec); err != nil {
			return helper.NewError("persist resolution", err)
		}
	}

	for _, record := range r.Ledger.Records() {
		if err := r.Transformations.InsertTransformation(record); err != nil {
			return helper.NewError("persist transformation", err)
		}
	}

	observations, canonicals, resolutions := r.Engine.Counts()
	r.log.Info("Persisted resolver state",
		slog.Int("observations", observations),
		slog.Int("canonicals", canonicals),
		slog.Int("resolutions", resolutions),
		slog.Int("transformations", r.Ledger.Len()),
	)

	return nil
}
