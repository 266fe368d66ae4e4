package database

import (
	"testing"
	"time"

	"github.com/siherrmann/resolver/core/provenance"
	"github.com/siherrmann/resolver/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTransformation(id string, toState string) *model.TransformationRecord {
	record := &model.TransformationRecord{
		ID:         id,
		Process:    model.ProcessExtract,
		FromStates: []string{"cid:sha256:doc1hash"},
		ToState:    toState,
		Method:     "external",
		Timestamp:  time.Now().UTC().Truncate(time.Microsecond),
		Confidence: 1.0,
	}
	record.CID = provenance.ContentHash(record)
	return record
}

func TestTransformationsNewTransformationsDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewTransformationsDBHandler", func(t *testing.T) {
		transformationsDbHandler, err := NewTransformationsDBHandler(database, true)
		assert.NoError(t, err, "Expected NewTransformationsDBHandler to not return an error")
		require.NotNil(t, transformationsDbHandler, "Expected NewTransformationsDBHandler to return a non-nil instance")
	})

	t.Run("Invalid call NewTransformationsDBHandler with nil database", func(t *testing.T) {
		_, err := NewTransformationsDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating TransformationsDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestTransformationsInsertAndSelect(t *testing.T) {
	database := initDB(t)

	transformationsDbHandler, err := NewTransformationsDBHandler(database, true)
	require.NoError(t, err, "Expected NewTransformationsDBHandler to not return an error")

	t.Run("Insert and select transformation by content id", func(t *testing.T) {
		record := testTransformation("urn:uuid:t1", "obs:aaaaaaaaaaa1")

		err := transformationsDbHandler.InsertTransformation(record)
		assert.NoError(t, err, "Expected Insert to not return an error")

		selected, err := transformationsDbHandler.SelectTransformationByCID(record.CID)
		require.NoError(t, err, "Expected Select to not return an error")
		assert.Equal(t, record.ID, selected.ID, "Expected the stored record id")
		assert.Equal(t, model.ProcessExtract, selected.Process, "Expected the stored process")
		assert.Equal(t, record.FromStates, selected.FromStates, "Expected the stored from states")
	})

	t.Run("Re-inserting the same content id is a no-op", func(t *testing.T) {
		record := testTransformation("urn:uuid:t2", "obs:aaaaaaaaaaa2")
		require.NoError(t, transformationsDbHandler.InsertTransformation(record))

		before, err := transformationsDbHandler.CountTransformations()
		require.NoError(t, err)

		assert.NoError(t, transformationsDbHandler.InsertTransformation(record), "Expected the duplicate insert to be ignored")

		after, err := transformationsDbHandler.CountTransformations()
		require.NoError(t, err)
		assert.Equal(t, before, after, "Expected no new row for an identical content id")
	})

	t.Run("Select transformations by state matches both directions", func(t *testing.T) {
		record := testTransformation("urn:uuid:t3", "obs:aaaaaaaaaaa3")
		require.NoError(t, transformationsDbHandler.InsertTransformation(record))

		byTo, err := transformationsDbHandler.SelectTransformationsByState("obs:aaaaaaaaaaa3", 10)
		require.NoError(t, err)
		require.Len(t, byTo, 1, "Expected a hit on the to state")

		byFrom, err := transformationsDbHandler.SelectTransformationsByState("cid:sha256:doc1hash", 10)
		require.NoError(t, err)
		assert.NotEmpty(t, byFrom, "Expected hits on the from state")
	})

	t.Run("Select all transformations preserves append order", func(t *testing.T) {
		records, err := transformationsDbHandler.SelectAllTransformations(100)
		require.NoError(t, err)
		require.NotEmpty(t, records, "Expected stored records")
		assert.Equal(t, "urn:uuid:t1", records[0].ID, "Expected the first appended record first")
	})
}
