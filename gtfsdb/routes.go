package gtfsdb

import (
	"database/sql"
	"fmt"
	"strings"

	"cif2gtfs.openrail.dev/internal/model"
)

// Route represents a transit route in the GTFS output
type Route struct {
	ID        int    // route_id
	AgencyID  string // agency_id
	ShortName string // route_short_name
	LongName  string // route_long_name
	Desc      string // route_desc
	Type      int    // route_type
}

// RouteForSchedule derives the route a schedule runs under. It is a pure
// function: deduplication happens in the caller's own map, keyed by RouteKey.
func RouteForSchedule(schedule *model.Schedule) Route {
	agencyID := schedule.Operator
	if agencyID == "" {
		agencyID = "ZZ"
	}
	operator := schedule.Operator
	if operator == "" {
		operator = "Z"
	}

	mode := strings.ToLower(schedule.Mode.Description())

	return Route{
		ID:       schedule.ID,
		AgencyID: agencyID,
		ShortName: fmt.Sprintf("%s:%s->%s",
			operator, schedule.Origin(), schedule.Destination()),
		LongName: fmt.Sprintf("%s %s service from %s to %s",
			operator, mode, schedule.Origin(), schedule.Destination()),
		Desc: strings.Join([]string{
			schedule.Mode.Description(),
			schedule.ClassDescription(),
			schedule.ReservationDescription(),
		}, ". "),
		Type: int(schedule.Mode),
	}
}

// RouteKey identifies rider-equivalent routes for deduplication.
func RouteKey(schedule *model.Schedule) string {
	return fmt.Sprintf("%s:%s:%s:%d", schedule.Operator, schedule.Origin(), schedule.Destination(), schedule.Mode)
}

// InsertRoutes adds routes to the database using a transaction
func InsertRoutes(db *sql.DB, routes []Route) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO routes (
			route_id, agency_id, route_short_name, route_long_name,
			route_desc, route_type
		) VALUES (?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		tx.Rollback() // nolint:errcheck
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close() // nolint:errcheck

	for _, route := range routes {
		_, err := stmt.Exec(
			route.ID, route.AgencyID, route.ShortName, route.LongName,
			route.Desc, route.Type,
		)
		if err != nil {
			tx.Rollback() // nolint:errcheck
			return fmt.Errorf("error inserting route: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}

func createRoutesTable(tx *sql.Tx) error {
	return createTable(tx, "routes", `
		CREATE TABLE IF NOT EXISTS routes (
			route_id INTEGER PRIMARY KEY,
			agency_id TEXT NOT NULL,
			route_short_name TEXT,
			route_long_name TEXT,
			route_desc TEXT,
			route_type INTEGER NOT NULL,
			FOREIGN KEY (agency_id) REFERENCES agencies(agency_id)
		);
	`)
}
