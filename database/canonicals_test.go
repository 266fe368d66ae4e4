package database

import (
	"testing"
	"time"

	"github.com/siherrmann/resolver/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCanonical(id string, name string, entityType string) *model.CanonicalEntity {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &model.CanonicalEntity{
		ID:             id,
		Name:           name,
		Type:           entityType,
		Aliases:        []string{"regen network"},
		Properties:     model.Properties{"website": "regen.network"},
		ObservationIDs: []string{"obs:111111111111"},
		ResolutionIDs:  []string{"res:111111111111"},
		Confidence:     1.0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestCanonicalsNewCanonicalsDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewCanonicalsDBHandler", func(t *testing.T) {
		canonicalsDbHandler, err := NewCanonicalsDBHandler(database, true)
		assert.NoError(t, err, "Expected NewCanonicalsDBHandler to not return an error")
		require.NotNil(t, canonicalsDbHandler, "Expected NewCanonicalsDBHandler to return a non-nil instance")
	})

	t.Run("Invalid call NewCanonicalsDBHandler with nil database", func(t *testing.T) {
		_, err := NewCanonicalsDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating CanonicalsDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestCanonicalsUpsertAndSelect(t *testing.T) {
	database := initDB(t)

	canonicalsDbHandler, err := NewCanonicalsDBHandler(database, true)
	require.NoError(t, err, "Expected NewCanonicalsDBHandler to not return an error")

	t.Run("Upsert and select canonical", func(t *testing.T) {
		canonical := testCanonical("entity:agent:aaa111bbb001", "Regen Network", "Agent")

		err := canonicalsDbHandler.UpsertCanonical(canonical)
		assert.NoError(t, err, "Expected Upsert to not return an error")

		selected, err := canonicalsDbHandler.SelectCanonical(canonical.ID)
		require.NoError(t, err, "Expected Select to not return an error")
		assert.Equal(t, canonical.Name, selected.Name, "Expected the stored name")
		assert.Equal(t, canonical.Aliases, selected.Aliases, "Expected the stored aliases")
		assert.Equal(t, canonical.ObservationIDs, selected.ObservationIDs, "Expected the stored observation links")
		assert.Equal(t, "regen.network", selected.Properties["website"], "Expected the stored properties")
	})

	t.Run("Upsert replaces the stored state", func(t *testing.T) {
		canonical := testCanonical("entity:agent:aaa111bbb002", "Regen Network", "Agent")
		require.NoError(t, canonicalsDbHandler.UpsertCanonical(canonical))

		canonical.Aliases = append(canonical.Aliases, "regen network inc")
		canonical.Confidence = 0.9
		require.NoError(t, canonicalsDbHandler.UpsertCanonical(canonical))

		selected, err := canonicalsDbHandler.SelectCanonical(canonical.ID)
		require.NoError(t, err)
		assert.Len(t, selected.Aliases, 2, "Expected the updated alias set")
		assert.InDelta(t, 0.9, selected.Confidence, 1e-9, "Expected the updated confidence")
	})

	t.Run("Select canonicals by normalized name", func(t *testing.T) {
		canonical := testCanonical("entity:agent:aaa111bbb003", "Ocean Plastics Watch Inc.", "Agent")
		require.NoError(t, canonicalsDbHandler.UpsertCanonical(canonical))

		canonicals, err := canonicalsDbHandler.SelectCanonicalsByName("ocean plastics watch", 10)
		require.NoError(t, err)
		require.Len(t, canonicals, 1, "Expected the normalized name to match without the legal suffix")
		assert.Equal(t, canonical.ID, canonicals[0].ID, "Expected the upserted canonical")
	})

	t.Run("Select canonicals by type", func(t *testing.T) {
		canonical := testCanonical("entity:semanticasset:ccc333ddd001", "Carbon Methodology", "SemanticAsset")
		require.NoError(t, canonicalsDbHandler.UpsertCanonical(canonical))

		canonicals, err := canonicalsDbHandler.SelectCanonicalsByType("SemanticAsset", 10)
		require.NoError(t, err)
		require.Len(t, canonicals, 1, "Expected one canonical of the type")
		assert.Equal(t, canonical.ID, canonicals[0].ID, "Expected the upserted canonical")
	})

	t.Run("Select canonicals by signature ranks the closest name first", func(t *testing.T) {
		near := testCanonical("entity:agent:aaa111bbb004", "Regen Foundation", "Agent")
		far := testCanonical("entity:agent:aaa111bbb005", "Ocean Plastics Watch", "Agent")
		require.NoError(t, canonicalsDbHandler.UpsertCanonical(near))
		require.NoError(t, canonicalsDbHandler.UpsertCanonical(far))

		canonicals, err := canonicalsDbHandler.SelectCanonicalsBySignature("Regen Foundatin", "Agent", 5)
		require.NoError(t, err)
		require.NotEmpty(t, canonicals, "Expected signature candidates")
		assert.Equal(t, near.ID, canonicals[0].ID, "Expected the most similar name ranked first")
	})

	t.Run("Count canonicals", func(t *testing.T) {
		count, err := canonicalsDbHandler.CountCanonicals()
		require.NoError(t, err)
		assert.Greater(t, count, int64(0), "Expected upserted canonicals counted")
	})
}
