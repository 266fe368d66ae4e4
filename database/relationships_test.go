package database

import (
	"testing"

	"github.com/siherrmann/resolver/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelationshipsNewRelationshipsDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewRelationshipsDBHandler", func(t *testing.T) {
		relationshipsDbHandler, err := NewRelationshipsDBHandler(database, true)
		assert.NoError(t, err, "Expected NewRelationshipsDBHandler to not return an error")
		require.NotNil(t, relationshipsDbHandler, "Expected NewRelationshipsDBHandler to return a non-nil instance")
	})

	t.Run("Invalid call NewRelationshipsDBHandler with nil database", func(t *testing.T) {
		_, err := NewRelationshipsDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating RelationshipsDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestRelationshipsInsertAndSelect(t *testing.T) {
	database := initDB(t)

	relationshipsDbHandler, err := NewRelationshipsDBHandler(database, true)
	require.NoError(t, err, "Expected NewRelationshipsDBHandler to not return an error")

	t.Run("Insert relationship", func(t *testing.T) {
		rel := &model.Relationship{
			Subject:    "entity:agent:aaa111bbb001",
			Predicate:  "supports",
			Object:     "entity:claim:ccc333ddd001",
			Properties: model.Properties{"source": "doc-1"},
		}

		err := relationshipsDbHandler.InsertRelationship(rel)
		assert.NoError(t, err, "Expected Insert to not return an error")
		assert.NotEmpty(t, rel.ID, "Expected inserted relationship to have an ID")

		// Cleanup
		relationshipsDbHandler.DeleteRelationship(rel.ID)
	})

	t.Run("Duplicate triple merges with stored properties winning", func(t *testing.T) {
		first := &model.Relationship{
			Subject:    "entity:agent:aaa111bbb002",
			Predicate:  "supports",
			Object:     "entity:claim:ccc333ddd002",
			Properties: model.Properties{"source": "doc-1"},
		}
		require.NoError(t, relationshipsDbHandler.InsertRelationship(first))

		second := &model.Relationship{
			Subject:    "entity:agent:aaa111bbb002",
			Predicate:  "supports",
			Object:     "entity:claim:ccc333ddd002",
			Properties: model.Properties{"source": "doc-2", "page": 4},
		}
		err := relationshipsDbHandler.InsertRelationship(second)
		assert.NoError(t, err, "Expected the duplicate triple to merge")
		assert.Equal(t, first.ID, second.ID, "Expected the same row")
		assert.Equal(t, "doc-1", second.Properties["source"], "Expected the first write to win")
		assert.EqualValues(t, 4, second.Properties["page"], "Expected new keys added")

		// Cleanup
		relationshipsDbHandler.DeleteRelationship(first.ID)
	})

	t.Run("Select relationships by subject and object", func(t *testing.T) {
		rel := &model.Relationship{
			Subject:   "entity:agent:aaa111bbb003",
			Predicate: "addresses",
			Object:    "entity:claim:ccc333ddd003",
		}
		require.NoError(t, relationshipsDbHandler.InsertRelationship(rel))

		bySubject, err := relationshipsDbHandler.SelectRelationshipsBySubject("entity:agent:aaa111bbb003", 10)
		require.NoError(t, err)
		require.Len(t, bySubject, 1, "Expected one outgoing edge")

		byObject, err := relationshipsDbHandler.SelectRelationshipsByObject("entity:claim:ccc333ddd003", 10)
		require.NoError(t, err)
		require.Len(t, byObject, 1, "Expected one incoming edge")
		assert.Equal(t, bySubject[0].ID, byObject[0].ID, "Expected the same edge in both directions")

		// Cleanup
		relationshipsDbHandler.DeleteRelationship(rel.ID)
	})
}
