package database

import (
	"context"
	gosql "database/sql"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/siherrmann/resolver/helper"
	"github.com/siherrmann/resolver/model"
	"github.com/siherrmann/resolver/sql"
)

// TransformationsDBHandlerFunctions defines the interface for transformation-log
// database operations. The log is append-only and deduplicated by content id.
type TransformationsDBHandlerFunctions interface {
	InsertTransformation(record *model.TransformationRecord) error
	SelectTransformationByCID(cid string) (*model.TransformationRecord, error)
	SelectAllTransformations(limit int) ([]*model.TransformationRecord, error)
	SelectTransformationsByState(state string, limit int) ([]*model.TransformationRecord, error)
	CountTransformations() (int64, error)
}

// TransformationsDBHandler handles transformation-log database operations
type TransformationsDBHandler struct {
	db *helper.Database
}

// NewTransformationsDBHandler creates a new transformations database handler.
// It initializes the database connection and loads transformation-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewTransformationsDBHandler(db *helper.Database, force bool) (*TransformationsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	transformationsDbHandler := &TransformationsDBHandler{
		db: db,
	}

	err := sql.LoadTransformationsSql(transformationsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load transformations sql", err)
	}

	err = transformationsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized TransformationsDBHandler")

	return transformationsDbHandler, nil
}

// CreateTable creates the 'transformations' table in the database.
// If the table already exists, it does not create it again.
func (h *TransformationsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_transformations();`)
	if err != nil {
		log.Panicf("error initializing transformations table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table transformations")

	return nil
}

// InsertTransformation appends a transformation record. Inserting a record
// with an already stored content id is a no-op.
func (h *TransformationsDBHandler) InsertTransformation(record *model.TransformationRecord) error {
	_, err := h.db.Instance.Exec(
		`SELECT * FROM insert_transformation($1, $2, $3, $4, $5, $6, $7, $8)`,
		record.ID,
		string(record.Process),
		pq.Array(record.FromStates),
		record.ToState,
		record.Method,
		record.Timestamp,
		record.Confidence,
		record.CID,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}

	return nil
}

// SelectTransformationByCID retrieves a transformation record by content id
func (h *TransformationsDBHandler) SelectTransformationByCID(cid string) (*model.TransformationRecord, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_transformation_by_cid($1)`,
		cid,
	)
	return scanTransformation(row.Scan)
}

// SelectAllTransformations retrieves the log in append order up to limit
func (h *TransformationsDBHandler) SelectAllTransformations(limit int) ([]*model.TransformationRecord, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_all_transformations($1)`,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanTransformations(rows)
}

// SelectTransformationsByState retrieves the records that produced or consumed a state
func (h *TransformationsDBHandler) SelectTransformationsByState(state string, limit int) ([]*model.TransformationRecord, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_transformations_by_state($1, $2)`,
		state,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanTransformations(rows)
}

// CountTransformations returns the total number of log records
func (h *TransformationsDBHandler) CountTransformations() (int64, error) {
	var count int64
	err := h.db.Instance.QueryRow(`SELECT count_transformations()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

func scanTransformation(scan func(dest ...interface{}) error) (*model.TransformationRecord, error) {
	record := &model.TransformationRecord{}
	var seq int64
	var process string

	err := scan(
		&seq,
		&record.ID,
		&process,
		pq.Array(&record.FromStates),
		&record.ToState,
		&record.Method,
		&record.Timestamp,
		&record.Confidence,
		&record.CID,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	record.Process = model.Process(process)
	return record, nil
}

func scanTransformations(rows *gosql.Rows) ([]*model.TransformationRecord, error) {
	var records []*model.TransformationRecord
	for rows.Next() {
		record, err := scanTransformation(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	err := rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return records, nil
}
