package database

import (
	"context"
	gosql "database/sql"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/resolver/core/normalize"
	"github.com/siherrmann/resolver/helper"
	"github.com/siherrmann/resolver/model"
	"github.com/siherrmann/resolver/sql"
)

// CanonicalsDBHandlerFunctions defines the interface for canonical-entity database operations.
type CanonicalsDBHandlerFunctions interface {
	UpsertCanonical(canonical *model.CanonicalEntity) error
	SelectCanonical(id string) (*model.CanonicalEntity, error)
	SelectCanonicalsByName(normalizedName string, limit int) ([]*model.CanonicalEntity, error)
	SelectCanonicalsByType(entityType string, limit int) ([]*model.CanonicalEntity, error)
	SelectAllCanonicals(limit int) ([]*model.CanonicalEntity, error)
	SelectCanonicalsBySignature(name string, entityType string, limit int) ([]*model.CanonicalEntity, error)
	CountCanonicals() (int64, error)
}

// CanonicalsDBHandler handles canonical-entity database operations.
// Each upsert also writes the name signature vector the fuzzy candidate
// prefilter searches over.
type CanonicalsDBHandler struct {
	db *helper.Database
}

// NewCanonicalsDBHandler creates a new canonicals database handler.
// It initializes the database connection and loads canonical-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewCanonicalsDBHandler(db *helper.Database, force bool) (*CanonicalsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	canonicalsDbHandler := &CanonicalsDBHandler{
		db: db,
	}

	err := sql.LoadCanonicalsSql(canonicalsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load canonicals sql", err)
	}

	err = canonicalsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized CanonicalsDBHandler")

	return canonicalsDbHandler, nil
}

// CreateTable creates the 'canonicals' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes including the signature vector index.
func (h *CanonicalsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_canonicals();`)
	if err != nil {
		log.Panicf("error initializing canonicals table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table canonicals")

	return nil
}

// UpsertCanonical inserts a canonical entity or updates the stored row with
// the current merged state. The signature vector is recomputed from the
// primary name on every write.
func (h *CanonicalsDBHandler) UpsertCanonical(canonical *model.CanonicalEntity) error {
	signature := pgvector.NewVector(normalize.Signature(canonical.Name, normalize.DefaultSignatureDimension))

	_, err := h.db.Instance.Exec(
		`SELECT * FROM upsert_canonical($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		canonical.ID,
		canonical.Name,
		normalize.Normalize(canonical.Name),
		canonical.Type,
		pq.Array(canonical.Aliases),
		canonical.Properties,
		pq.Array(canonical.ObservationIDs),
		pq.Array(canonical.ResolutionIDs),
		canonical.Confidence,
		signature,
		canonical.CreatedAt,
		canonical.UpdatedAt,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}

	return nil
}

// SelectCanonical retrieves a canonical entity by ID
func (h *CanonicalsDBHandler) SelectCanonical(id string) (*model.CanonicalEntity, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_canonical($1)`,
		id,
	)
	return scanCanonical(row.Scan)
}

// SelectCanonicalsByName retrieves canonical entities by normalized primary name
func (h *CanonicalsDBHandler) SelectCanonicalsByName(normalizedName string, limit int) ([]*model.CanonicalEntity, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_canonicals_by_name($1, $2)`,
		normalizedName,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanCanonicals(rows)
}

// SelectCanonicalsByType retrieves canonical entities by type
func (h *CanonicalsDBHandler) SelectCanonicalsByType(entityType string, limit int) ([]*model.CanonicalEntity, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_canonicals_by_type($1, $2)`,
		entityType,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanCanonicals(rows)
}

// SelectAllCanonicals retrieves all canonical entities up to limit
func (h *CanonicalsDBHandler) SelectAllCanonicals(limit int) ([]*model.CanonicalEntity, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_all_canonicals($1)`,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanCanonicals(rows)
}

// SelectCanonicalsBySignature retrieves the canonical entities of one type
// closest to the signature of the given name, by cosine distance
func (h *CanonicalsDBHandler) SelectCanonicalsBySignature(name string, entityType string, limit int) ([]*model.CanonicalEntity, error) {
	signature := pgvector.NewVector(normalize.Signature(name, normalize.DefaultSignatureDimension))

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_canonicals_by_signature($1, $2, $3)`,
		signature,
		entityType,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanCanonicals(rows)
}

// CountCanonicals returns the total number of canonical entities
func (h *CanonicalsDBHandler) CountCanonicals() (int64, error) {
	var count int64
	err := h.db.Instance.QueryRow(`SELECT count_canonicals()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// scanCanonical scans one canonical row. The normalized name and signature
// columns are storage-side derivatives of the primary name and are discarded.
func scanCanonical(scan func(dest ...interface{}) error) (*model.CanonicalEntity, error) {
	canonical := &model.CanonicalEntity{}
	var normalizedName string
	var signature gosql.NullString

	err := scan(
		&canonical.ID,
		&canonical.Name,
		&normalizedName,
		&canonical.Type,
		pq.Array(&canonical.Aliases),
		&canonical.Properties,
		pq.Array(&canonical.ObservationIDs),
		pq.Array(&canonical.ResolutionIDs),
		&canonical.Confidence,
		&signature,
		&canonical.CreatedAt,
		&canonical.UpdatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return canonical, nil
}

func scanCanonicals(rows *gosql.Rows) ([]*model.CanonicalEntity, error) {
	var canonicals []*model.CanonicalEntity
	for rows.Next() {
		canonical, err := scanCanonical(rows.Scan)
		if err != nil {
			return nil, err
		}
		canonicals = append(canonicals, canonical)
	}

	err := rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return canonicals, nil
}
