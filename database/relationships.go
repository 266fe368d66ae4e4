package database

import (
	"context"
	gosql "database/sql"
	"fmt"
	"log"
	"time"

	"github.com/siherrmann/resolver/helper"
	"github.com/siherrmann/resolver/model"
	"github.com/siherrmann/resolver/sql"
)

// RelationshipsDBHandlerFunctions defines the interface for relationship database operations.
type RelationshipsDBHandlerFunctions interface {
	InsertRelationship(rel *model.Relationship) error
	SelectRelationship(id int64) (*model.Relationship, error)
	SelectRelationshipsBySubject(subject string, limit int) ([]*model.Relationship, error)
	SelectRelationshipsByObject(object string, limit int) ([]*model.Relationship, error)
	SelectAllRelationships(limit int) ([]*model.Relationship, error)
	DeleteRelationship(id int64) error
}

// RelationshipsDBHandler handles relationship-related database operations.
// Triples are unique; re-inserting merges properties with the stored values
// winning over the incoming ones.
type RelationshipsDBHandler struct {
	db *helper.Database
}

// NewRelationshipsDBHandler creates a new relationships database handler.
// It initializes the database connection and loads relationship-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewRelationshipsDBHandler(db *helper.Database, force bool) (*RelationshipsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	relationshipsDbHandler := &RelationshipsDBHandler{
		db: db,
	}

	err := sql.LoadRelationshipsSql(relationshipsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load relationships sql", err)
	}

	err = relationshipsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized RelationshipsDBHandler")

	return relationshipsDbHandler, nil
}

// CreateTable creates the 'relationships' table in the database.
// If the table already exists, it does not create it again.
func (h *RelationshipsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_relationships();`)
	if err != nil {
		log.Panicf("error initializing relationships table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table relationships")

	return nil
}

// InsertRelationship inserts a relationship triple (or merges properties if it exists)
func (h *RelationshipsDBHandler) InsertRelationship(rel *model.Relationship) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_relationship($1, $2, $3, $4)`,
		rel.Subject,
		rel.Predicate,
		rel.Object,
		rel.Properties,
	)

	err := row.Scan(
		&rel.ID,
		&rel.Subject,
		&rel.Predicate,
		&rel.Object,
		&rel.Properties,
		&rel.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectRelationship retrieves a relationship by ID
func (h *RelationshipsDBHandler) SelectRelationship(id int64) (*model.Relationship, error) {
	rel := &model.Relationship{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_relationship($1)`,
		id,
	)

	err := row.Scan(
		&rel.ID,
		&rel.Subject,
		&rel.Predicate,
		&rel.Object,
		&rel.Properties,
		&rel.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return rel, nil
}

// SelectRelationshipsBySubject retrieves the outgoing edges of a canonical entity
func (h *RelationshipsDBHandler) SelectRelationshipsBySubject(subject string, limit int) ([]*model.Relationship, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_relationships_by_subject($1, $2)`,
		subject,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanRelationships(rows)
}

// SelectRelationshipsByObject retrieves the incoming edges of a canonical entity
func (h *RelationshipsDBHandler) SelectRelationshipsByObject(object string, limit int) ([]*model.Relationship, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_relationships_by_object($1, $2)`,
		object,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanRelationships(rows)
}

// SelectAllRelationships retrieves all relationships up to limit
func (h *RelationshipsDBHandler) SelectAllRelationships(limit int) ([]*model.Relationship, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_all_relationships($1)`,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanRelationships(rows)
}

// DeleteRelationship deletes a relationship by ID
func (h *RelationshipsDBHandler) DeleteRelationship(id int64) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_relationship($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func scanRelationships(rows *gosql.Rows) ([]*model.Relationship, error) {
	var relationships []*model.Relationship
	for rows.Next() {
		rel := &model.Relationship{}
		err := rows.Scan(
			&rel.ID,
			&rel.Subject,
			&rel.Predicate,
			&rel.Object,
			&rel.Properties,
			&rel.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		relationships = append(relationships, rel)
	}

	err := rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return relationships, nil
}
