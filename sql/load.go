package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed documents.sql
var documentsSQL string

//go:embed observations.sql
var observationsSQL string

//go:embed canonicals.sql
var canonicalsSQL string

//go:embed resolutions.sql
var resolutionsSQL string

//go:embed transformations.sql
var transformationsSQL string

//go:embed relationships.sql
var relationshipsSQL string

// Function lists for verification
var DocumentsFunctions = []string{
	"init_documents",
	"insert_document",
	"select_document",
	"select_document_by_path",
	"select_all_documents",
	"delete_document",
}

var ObservationsFunctions = []string{
	"init_observations",
	"insert_observation",
	"select_observation",
	"select_all_observations",
	"select_observations_by_document",
	"select_observations_by_name",
	"count_observations",
}

var CanonicalsFunctions = []string{
	"init_canonicals",
	"upsert_canonical",
	"select_canonical",
	"select_canonicals_by_name",
	"select_canonicals_by_type",
	"select_all_canonicals",
	"select_canonicals_by_signature",
	"count_canonicals",
}

var ResolutionsFunctions = []string{
	"init_resolutions",
	"insert_resolution",
	"select_resolution",
	"select_resolutions_by_canonical",
	"select_all_resolutions",
	"count_resolutions",
}

var TransformationsFunctions = []string{
	"init_transformations",
	"insert_transformation",
	"select_transformation_by_cid",
	"select_all_transformations",
	"select_transformations_by_state",
	"count_transformations",
}

var RelationshipsFunctions = []string{
	"init_relationships",
	"insert_relationship",
	"select_relationship",
	"select_relationships_by_subject",
	"select_relationships_by_object",
	"select_all_relationships",
	"delete_relationship",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadDocumentsSql loads document-related SQL functions
func LoadDocumentsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, DocumentsFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing documents functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(documentsSQL)
	if err != nil {
		return fmt.Errorf("error executing documents SQL: %w", err)
	}

	exist, err := checkFunctions(db, DocumentsFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL documents functions loaded successfully")
	return nil
}

// LoadObservationsSql loads observation-related SQL functions
func LoadObservationsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, ObservationsFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing observations functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(observationsSQL)
	if err != nil {
		return fmt.Errorf("error executing observations SQL: %w", err)
	}

	exist, err := checkFunctions(db, ObservationsFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL observations functions loaded successfully")
	return nil
}

// LoadCanonicalsSql loads canonical-entity-related SQL functions
func LoadCanonicalsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, CanonicalsFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing canonicals functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(canonicalsSQL)
	if err != nil {
		return fmt.Errorf("error executing canonicals SQL: %w", err)
	}

	exist, err := checkFunctions(db, CanonicalsFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL canonicals functions loaded successfully")
	return nil
}

// LoadResolutionsSql loads resolution-related SQL functions
func LoadResolutionsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, ResolutionsFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing resolutions functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(resolutionsSQL)
	if err != nil {
		return fmt.Errorf("error executing resolutions SQL: %w", err)
	}

	exist, err := checkFunctions(db, ResolutionsFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL resolutions functions loaded successfully")
	return nil
}

// LoadTransformationsSql loads transformation-log SQL functions
func LoadTransformationsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, TransformationsFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing transformations functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(transformationsSQL)
	if err != nil {
		return fmt.Errorf("error executing transformations SQL: %w", err)
	}

	exist, err := checkFunctions(db, TransformationsFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL transformations functions loaded successfully")
	return nil
}

// LoadRelationshipsSql loads relationship-related SQL functions
func LoadRelationshipsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, RelationshipsFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing relationships functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(relationshipsSQL)
	if err != nil {
		return fmt.Errorf("error executing relationships SQL: %w", err)
	}

	exist, err := checkFunctions(db, RelationshipsFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL relationships functions loaded successfully")
	return nil
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadDocumentsSql(db, force); err != nil {
		return err
	}

	if err := LoadObservationsSql(db, force); err != nil {
		return err
	}

	if err := LoadCanonicalsSql(db, force); err != nil {
		return err
	}

	if err := LoadResolutionsSql(db, force); err != nil {
		return err
	}

	if err := LoadTransformationsSql(db, force); err != nil {
		return err
	}

	if err := LoadRelationshipsSql(db, force); err != nil {
		return err
	}

	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
