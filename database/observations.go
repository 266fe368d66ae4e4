package database

import (
	"context"
	gosql "database/sql"
	"fmt"
	"log"
	"time"

	"github.com/siherrmann/resolver/core/normalize"
	"github.com/siherrmann/resolver/helper"
	"github.com/siherrmann/resolver/model"
	"github.com/siherrmann/resolver/sql"
)

// ObservationsDBHandlerFunctions defines the interface for observation database operations.
// Observations are append-only; there is no update or delete.
type ObservationsDBHandlerFunctions interface {
	InsertObservation(obs *model.Observation) error
	SelectObservation(id string) (*model.Observation, error)
	SelectAllObservations(limit int) ([]*model.Observation, error)
	SelectObservationsByDocument(sourceDocument string, limit int) ([]*model.Observation, error)
	SelectObservationsByName(normalizedName string, limit int) ([]*model.Observation, error)
	CountObservations() (int64, error)
}

// ObservationsDBHandler handles observation-related database operations
type ObservationsDBHandler struct {
	db *helper.Database
}

// NewObservationsDBHandler creates a new observations database handler.
// It initializes the database connection and loads observation-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewObservationsDBHandler(db *helper.Database, force bool) (*ObservationsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	observationsDbHandler := &ObservationsDBHandler{
		db: db,
	}

	err := sql.LoadObservationsSql(observationsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load observations sql", err)
	}

	err = observationsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ObservationsDBHandler")

	return observationsDbHandler, nil
}

// CreateTable creates the 'observations' table in the database.
// If the table already exists, it does not create it again.
func (h *ObservationsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_observations();`)
	if err != nil {
		log.Panicf("error initializing observations table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table observations")

	return nil
}

// InsertObservation inserts an observation. Inserting an existing id is a no-op.
func (h *ObservationsDBHandler) InsertObservation(obs *model.Observation) error {
	var positionIndex interface{}
	if obs.Position != nil {
		positionIndex = obs.Position.Index
	}

	_, err := h.db.Instance.Exec(
		`SELECT * FROM insert_observation($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		obs.ID,
		obs.Type,
		obs.Name,
		normalize.Normalize(obs.Name),
		obs.Properties,
		obs.SourceDocument,
		obs.SourceCID,
		obs.ExtractedAt,
		obs.Method,
		positionIndex,
		obs.Confidence,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}

	return nil
}

// SelectObservation retrieves an observation by ID
func (h *ObservationsDBHandler) SelectObservation(id string) (*model.Observation, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_observation($1)`,
		id,
	)
	return scanObservation(row.Scan)
}

// SelectAllObservations retrieves all observations up to limit, oldest first
func (h *ObservationsDBHandler) SelectAllObservations(limit int) ([]*model.Observation, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_all_observations($1)`,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// SelectObservationsByDocument retrieves the observations of one source document
func (h *ObservationsDBHandler) SelectObservationsByDocument(sourceDocument string, limit int) ([]*model.Observation, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_observations_by_document($1, $2)`,
		sourceDocument,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// SelectObservationsByName retrieves observations by normalized name
func (h *ObservationsDBHandler) SelectObservationsByName(normalizedName string, limit int) ([]*model.Observation, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_observations_by_name($1, $2)`,
		normalizedName,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// CountObservations returns the total number of stored observations
func (h *ObservationsDBHandler) CountObservations() (int64, error) {
	var count int64
	err := h.db.Instance.QueryRow(`SELECT count_observations()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// scanObservation scans one observation row
func scanObservation(scan func(dest ...interface{}) error) (*model.Observation, error) {
	obs := &model.Observation{}
	var normalizedName string
	var positionIndex gosql.NullInt64

	err := scan(
		&obs.ID,
		&obs.Type,
		&obs.Name,
		&normalizedName,
		&obs.Properties,
		&obs.SourceDocument,
		&obs.SourceCID,
		&obs.ExtractedAt,
		&obs.Method,
		&positionIndex,
		&obs.Confidence,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	if positionIndex.Valid {
		obs.Position = &model.Position{Index: int(positionIndex.Int64)}
	}

	return obs, nil
}

func scanObservations(rows *gosql.Rows) ([]*model.Observation, error) {
	var observations []*model.Observation
	for rows.Next() {
		obs, err := scanObservation(rows.Scan)
		if err != nil {
			return nil, err
		}
		observations = append(observations, obs)
	}

	err := rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return observations, nil
}
