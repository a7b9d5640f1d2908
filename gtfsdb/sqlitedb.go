package gtfsdb

import (
	"database/sql"
	"fmt"

	"cif2gtfs.openrail.dev/internal/appconf"

	_ "modernc.org/sqlite"
)

// InitDB creates a new SQLite database with the GTFS tables the importer
// writes: agencies, calendars, calendar dates, routes, trips and stop times.
func InitDB(config Config) (*sql.DB, error) {
	if config.Env == appconf.Test && config.DBPath != ":memory:" {
		return nil, fmt.Errorf("test database must be in memory, got %s", config.DBPath)
	}

	db, err := sql.Open("sqlite", config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		return nil, fmt.Errorf("error enabling foreign keys: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("error starting transaction: %w", err)
	}

	if err := createTables(tx); err != nil {
		tx.Rollback() // nolint:errcheck
		return nil, err
	}

	_, err = tx.Exec(`
		CREATE INDEX IF NOT EXISTS idx_routes_agency_id ON routes(agency_id);
		CREATE INDEX IF NOT EXISTS idx_trips_route_id ON trips(route_id);
		CREATE INDEX IF NOT EXISTS idx_trips_service_id ON trips(service_id);
		CREATE INDEX IF NOT EXISTS idx_stop_times_trip_id ON stop_times(trip_id);
		CREATE INDEX IF NOT EXISTS idx_stop_times_stop_id ON stop_times(stop_id);
	`)
	if err != nil {
		tx.Rollback() // nolint:errcheck
		return nil, fmt.Errorf("error creating indexes: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing transaction: %w", err)
	}

	return db, nil
}

func createTables(tx *sql.Tx) error {
	for _, create := range []func(*sql.Tx) error{
		createAgenciesTable,
		createCalendarTable,
		createCalendarDatesTable,
		createRoutesTable,
		createTripsTable,
		createStopTimesTable,
	} {
		if err := create(tx); err != nil {
			return err
		}
	}
	return nil
}

func createTable(tx *sql.Tx, name, ddl string) error {
	if _, err := tx.Exec(ddl); err != nil {
		return fmt.Errorf("error creating %s table: %w", name, err)
	}
	return nil
}
