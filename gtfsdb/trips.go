package gtfsdb

import (
	"database/sql"
	"fmt"

	"cif2gtfs.openrail.dev/internal/model"
)

// Trip represents one journey of a schedule in the GTFS output
type Trip struct {
	ID              int    // trip_id
	RouteID         int    // route_id
	ServiceID       string // service_id
	Headsign        string // trip_headsign
	ShortName       string // trip_short_name
	DirectionID     int    // direction_id
	STP             string // stp_indicator
	ReservationFlag string // reservation_flag
	RunsFrom        string // runs_from (YYYY-MM-DD)
}

// TripForSchedule derives the trip row for a schedule.
func TripForSchedule(schedule *model.Schedule, serviceID string, routeID int) Trip {
	return Trip{
		ID:              schedule.ID,
		RouteID:         routeID,
		ServiceID:       serviceID,
		Headsign:        schedule.TUID,
		ShortName:       schedule.RSID,
		DirectionID:     0,
		STP:             schedule.STP.String(),
		ReservationFlag: schedule.ReservationFlag,
		RunsFrom:        schedule.Calendar.RunsFrom.Format("2006-01-02"),
	}
}

// InsertTrips adds trips to the database using a transaction
func InsertTrips(db *sql.DB, trips []Trip) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO trips (
			trip_id, route_id, service_id, trip_headsign, trip_short_name,
			direction_id, stp_indicator, reservation_flag, runs_from
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		tx.Rollback() // nolint:errcheck
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close() // nolint:errcheck

	for _, trip := range trips {
		_, err := stmt.Exec(
			trip.ID, trip.RouteID, trip.ServiceID, trip.Headsign, trip.ShortName,
			trip.DirectionID, trip.STP, trip.ReservationFlag, trip.RunsFrom,
		)
		if err != nil {
			tx.Rollback() // nolint:errcheck
			return fmt.Errorf("error inserting trip: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}

func createTripsTable(tx *sql.Tx) error {
	return createTable(tx, "trips", `
		CREATE TABLE IF NOT EXISTS trips (
			trip_id INTEGER PRIMARY KEY,
			route_id INTEGER NOT NULL,
			service_id TEXT NOT NULL,
			trip_headsign TEXT,
			trip_short_name TEXT,
			direction_id INTEGER,
			stp_indicator TEXT,
			reservation_flag TEXT,
			runs_from TEXT,
			FOREIGN KEY (route_id) REFERENCES routes(route_id),
			FOREIGN KEY (service_id) REFERENCES calendar(service_id)
		);
	`)
}
