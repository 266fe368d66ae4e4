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

// ResolutionsDBHandlerFunctions defines the interface for resolution database operations.
// Resolution records are append-only.
type ResolutionsDBHandlerFunctions interface {
	InsertResolution(rec *model.ResolutionRecord) error
	SelectResolution(id string) (*model.ResolutionRecord, error)
	SelectResolutionsByCanonical(canonicalID string, limit int) ([]*model.ResolutionRecord, error)
	SelectAllResolutions(limit int) ([]*model.ResolutionRecord, error)
	CountResolutions() (int64, error)
}

// ResolutionsDBHandler handles resolution-record database operations
type ResolutionsDBHandler struct {
	db *helper.Database
}

// NewResolutionsDBHandler creates a new resolutions database handler.
// It initializes the database connection and loads resolution-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewResolutionsDBHandler(db *helper.Database, force bool) (*ResolutionsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	resolutionsDbHandler := &ResolutionsDBHandler{
		db: db,
	}

	err := sql.LoadResolutionsSql(resolutionsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load resolutions sql", err)
	}

	err = resolutionsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ResolutionsDBHandler")

	return resolutionsDbHandler, nil
}

// CreateTable creates the 'resolutions' table in the database.
// If the table already exists, it does not create it again.
func (h *ResolutionsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_resolutions();`)
	if err != nil {
		log.Panicf("error initializing resolutions table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table resolutions")

	return nil
}

// InsertResolution inserts a resolution record. Inserting an existing id is a no-op.
func (h *ResolutionsDBHandler) InsertResolution(rec *model.ResolutionRecord) error {
	_, err := h.db.Instance.Exec(
		`SELECT * FROM insert_resolution($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID,
		rec.CanonicalID,
		pq.Array(rec.ObservationIDs),
		string(rec.Method),
		rec.Confidence,
		rec.ResolvedAt,
		rec.Evidence,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}

	return nil
}

// SelectResolution retrieves a resolution record by ID
func (h *ResolutionsDBHandler) SelectResolution(id string) (*model.ResolutionRecord, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_resolution($1)`,
		id,
	)
	return scanResolution(row.Scan)
}

// SelectResolutionsByCanonical retrieves the decisions that touched a canonical
func (h *ResolutionsDBHandler) SelectResolutionsByCanonical(canonicalID string, limit int) ([]*model.ResolutionRecord, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_resolutions_by_canonical($1, $2)`,
		canonicalID,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanResolutions(rows)
}

// SelectAllResolutions retrieves all resolution records up to limit
func (h *ResolutionsDBHandler) SelectAllResolutions(limit int) ([]*model.ResolutionRecord, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_all_resolutions($1)`,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanResolutions(rows)
}

// CountResolutions returns the total number of resolution records
func (h *ResolutionsDBHandler) CountResolutions() (int64, error) {
	var count int64
	err := h.db.Instance.QueryRow(`SELECT count_resolutions()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

func scanResolution(scan func(dest ...interface{}) error) (*model.ResolutionRecord, error) {
	rec := &model.ResolutionRecord{}
	var method string

	err := scan(
		&rec.ID,
		&rec.CanonicalID,
		pq.Array(&rec.ObservationIDs),
		&method,
		&rec.Confidence,
		&rec.ResolvedAt,
		&rec.Evidence,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	rec.Method = model.ResolutionMethod(method)
	return rec, nil
}

func scanResolutions(rows *gosql.Rows) ([]*model.ResolutionRecord, error) {
	var records []*model.ResolutionRecord
	for rows.Next() {
		rec, err := scanResolution(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	err := rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return records, nil
}
