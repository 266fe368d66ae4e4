package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/siherrmann/resolver/helper"
	"github.com/siherrmann/resolver/model"
	"github.com/siherrmann/resolver/sql"
)

// DocumentsDBHandlerFunctions defines the interface for document database operations.
type DocumentsDBHandlerFunctions interface {
	InsertDocument(document *model.Document) error
	SelectDocument(id int64) (*model.Document, error)
	SelectDocumentByPath(path string) (*model.Document, error)
	SelectAllDocuments(limit int) ([]*model.Document, error)
	DeleteDocument(id int64) error
}

// DocumentsDBHandler handles document-related database operations
type DocumentsDBHandler struct {
	db *helper.Database
}

// NewDocumentsDBHandler creates a new documents database handler.
// It initializes the database connection and loads document-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewDocumentsDBHandler(db *helper.Database, force bool) (*DocumentsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	documentsDbHandler := &DocumentsDBHandler{
		db: db,
	}

	err := sql.LoadDocumentsSql(documentsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load documents sql", err)
	}

	err = documentsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized DocumentsDBHandler")

	return documentsDbHandler, nil
}

// CreateTable creates the 'documents' table in the database.
// If the table already exists, it does not create it again.
func (h *DocumentsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_documents();`)
	if err != nil {
		log.Panicf("error initializing documents table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table documents")

	return nil
}

// InsertDocument inserts a new document (or updates if the path exists)
func (h *DocumentsDBHandler) InsertDocument(document *model.Document) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_document($1, $2, $3)`,
		document.Path,
		document.ContentHash,
		document.Metadata,
	)

	err := row.Scan(
		&document.ID,
		&document.Path,
		&document.ContentHash,
		&document.Metadata,
		&document.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectDocument retrieves a document by ID
func (h *DocumentsDBHandler) SelectDocument(id int64) (*model.Document, error) {
	document := &model.Document{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_document($1)`,
		id,
	)

	err := row.Scan(
		&document.ID,
		&document.Path,
		&document.ContentHash,
		&document.Metadata,
		&document.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return document, nil
}

// SelectDocumentByPath retrieves a document by its path
func (h *DocumentsDBHandler) SelectDocumentByPath(path string) (*model.Document, error) {
	document := &model.Document{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_document_by_path($1)`,
		path,
	)

	err := row.Scan(
		&document.ID,
		&document.Path,
		&document.ContentHash,
		&document.Metadata,
		&document.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return document, nil
}

// SelectAllDocuments retrieves all documents up to limit
func (h *DocumentsDBHandler) SelectAllDocuments(limit int) ([]*model.Document, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_all_documents($1)`,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var documents []*model.Document
	for rows.Next() {
		document := &model.Document{}
		err := rows.Scan(
			&document.ID,
			&document.Path,
			&document.ContentHash,
			&document.Metadata,
			&document.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		documents = append(documents, document)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return documents, nil
}

// DeleteDocument deletes a document by ID
func (h *DocumentsDBHandler) DeleteDocument(id int64) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_document($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
