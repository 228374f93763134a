package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed results.sql
var resultsSQL string

//go:embed embeddings.sql
var embeddingsSQL string

// Function lists for verification
var ResultsFunctions = []string{
	"init_results",
	"insert_result",
	"select_result",
	"select_results_by_technique",
	"select_results_by_run",
	"delete_results_by_technique",
	"init_aggregates",
	"insert_aggregate",
	"select_aggregate",
	"select_aggregates_by_run",
}

var EmbeddingsFunctions = []string{
	"init_embeddings",
	"insert_embedding",
	"select_embedding",
	"delete_embedding",
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

// LoadResultsSql loads result-related SQL functions
func LoadResultsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, ResultsFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing results functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(resultsSQL)
	if err != nil {
		return fmt.Errorf("error executing results SQL: %w", err)
	}

	exist, err := checkFunctions(db, ResultsFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL results functions loaded successfully")
	return nil
}

// LoadEmbeddingsSql loads embedding-related SQL functions
func LoadEmbeddingsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, EmbeddingsFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing embeddings functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(embeddingsSQL)
	if err != nil {
		return fmt.Errorf("error executing embeddings SQL: %w", err)
	}

	exist, err := checkFunctions(db, EmbeddingsFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL embeddings functions loaded successfully")
	return nil
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadResultsSql(db, force); err != nil {
		return err
	}

	if err := LoadEmbeddingsSql(db, force); err != nil {
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
