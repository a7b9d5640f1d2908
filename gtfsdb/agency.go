package gtfsdb

import (
	"database/sql"
	"fmt"
)

// Agency represents a transit agency in the GTFS output
type Agency struct {
	ID       string // agency_id
	Name     string // agency_name
	URL      string // agency_url
	Timezone string // agency_timezone
}

// AgencyForOperator builds the agency entry for an ATOC operator code. The
// CIF feed carries no agency details, so the rider facing name and URL come
// from configuration. The "ZZ" agency collects schedules with no operator.
func AgencyForOperator(operator, name, url string) Agency {
	if operator == "" {
		operator = "ZZ"
	}
	return Agency{
		ID:       operator,
		Name:     name,
		URL:      url,
		Timezone: "Europe/London",
	}
}

// InsertAgencies adds agencies to the database using a transaction
func InsertAgencies(db *sql.DB, agencies []Agency) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO agencies (
			agency_id, agency_name, agency_url, agency_timezone
		) VALUES (?, ?, ?, ?);
	`)
	if err != nil {
		tx.Rollback() // nolint:errcheck
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close() // nolint:errcheck

	for _, agency := range agencies {
		if _, err := stmt.Exec(agency.ID, agency.Name, agency.URL, agency.Timezone); err != nil {
			tx.Rollback() // nolint:errcheck
			return fmt.Errorf("error inserting agency: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}

func createAgenciesTable(tx *sql.Tx) error {
	return createTable(tx, "agencies", `
		CREATE TABLE IF NOT EXISTS agencies (
			agency_id TEXT PRIMARY KEY,
			agency_name TEXT NOT NULL,
			agency_url TEXT NOT NULL,
			agency_timezone TEXT NOT NULL
		);
	`)
}
