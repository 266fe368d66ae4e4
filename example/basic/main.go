package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/resolver"
	"github.com/siherrmann/resolver/helper"
	"github.com/siherrmann/resolver/model"
)

// Two documents mentioning the same organization under different names plus
// one unrelated entity.
var whitepaperEntities = []model.EntityRecord{
	{Type: "Agent", Name: "Regen Network", Properties: model.Properties{"website": "regen.network"}},
	{Type: "SemanticAsset", Name: "Carbon Sequestration Methodology"},
}

var pressReleaseEntities = []model.EntityRecord{
	{Type: "Agent", Name: "Regen Network Inc.", Properties: model.Properties{"email": "hello@regen.network"}},
	{Type: "Agent", Name: "Ocean Plastics Watch"},
}

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		User:     "postgres",
		Password: "postgres",
		Name:     "resolver_test",
		SSLMode:  "disable",
	}

	r, err := resolver.NewResolverWithDatabase(nil, dbConfig)
	if err != nil {
		log.Fatalf("Failed to create resolver: %v", err)
	}
	defer r.Close()

	// Ingest the first document
	whitepaper := &model.Document{
		Path:        "docs/regen-whitepaper.md",
		ContentHash: model.NewCID([]byte("whitepaper content")),
	}
	records, err := r.IngestDocument(whitepaper, whitepaperEntities)
	if err != nil {
		log.Fatalf("Failed to ingest whitepaper: %v", err)
	}
	fmt.Printf("Whitepaper: %d entities resolved\n", len(records))

	// Ingest the second document; "Regen Network Inc." resolves onto the
	// canonical entity minted for "Regen Network".
	press := &model.Document{
		Path:        "docs/regen-press-release.md",
		ContentHash: model.NewCID([]byte("press release content")),
	}
	records, err = r.IngestDocument(press, pressReleaseEntities)
	if err != nil {
		log.Fatalf("Failed to ingest press release: %v", err)
	}
	fmt.Printf("Press release: %d entities resolved\n", len(records))

	// Relationships with synonym predicates collapse into one edge
	agentID := records[0].CanonicalID
	if _, _, err := r.AddRelationship(agentID, "supports", "entity:claim:soil-health", nil); err != nil {
		log.Fatalf("Failed to add relationship: %v", err)
	}
	if _, _, err := r.AddRelationship(agentID, "evidenceFor", "entity:claim:soil-health", nil); err != nil {
		log.Fatalf("Failed to add relationship: %v", err)
	}

	// Show the resolved state
	fmt.Println("\nCanonical entities:")
	for _, summary := range r.CanonicalEntities() {
		fmt.Printf("  %s (%s) aliases=%v observations=%d\n",
			summary.Name, summary.Type, summary.Aliases, summary.ObservationCount)
	}

	fmt.Println("\nRelationships:")
	for _, rel := range r.ExportRelationships() {
		fmt.Printf("  %s -[%s]-> %s\n", rel.Subject, rel.Predicate, rel.Object)
	}

	// Provenance of the merged organization
	report, err := r.Provenance(agentID)
	if err != nil {
		log.Fatalf("Failed to build provenance report: %v", err)
	}
	fmt.Printf("\nProvenance of %s: %d observations from %d sources, %d transformations\n",
		report.Canonical.Name,
		report.Statistics.TotalObservations,
		report.Statistics.UniqueSources,
		len(report.Transformations),
	)

	// Verify the ledger and persist everything
	if err := r.Audit(); err != nil {
		log.Fatalf("Ledger verification failed: %v", err)
	}
	if err := r.Persist(context.Background()); err != nil {
		log.Fatalf("Failed to persist: %v", err)
	}

	stats := r.Statistics()
	fmt.Printf("\nStatistics: %d observations, %d canonical entities, %d merges\n",
		stats.TotalObservations, stats.TotalCanonicalEntities, stats.Merges)
}
