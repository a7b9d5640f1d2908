package gtfsdb

import (
	"database/sql"
	"fmt"

	"cif2gtfs.openrail.dev/internal/model"
)

// StopTime represents a vehicle arrival/departure at a specific stop in the
// GTFS output. Times are stored as seconds since midnight so that services
// rolling past midnight keep increasing values.
type StopTime struct {
	TripID        int    // trip_id
	ArrivalTime   int    // arrival_time (seconds)
	DepartureTime int    // departure_time (seconds)
	StopID        string // stop_id
	StopSequence  int    // stop_sequence
	StopHeadsign  string // stop_headsign
	PickupType    int    // pickup_type
	DropOffType   int    // drop_off_type
	Timepoint     int    // timepoint
	Activity      string // activity
}

// StopTimesForSchedule converts a schedule's calling points into rows.
func StopTimesForSchedule(schedule *model.Schedule) []StopTime {
	stopTimes := make([]StopTime, 0, len(schedule.StopTimes))
	for _, stop := range schedule.StopTimes {
		stopTimes = append(stopTimes, StopTime{
			TripID:        schedule.ID,
			ArrivalTime:   model.ParseTime(stop.ArrivalTime),
			DepartureTime: model.ParseTime(stop.DepartureTime),
			StopID:        stop.StopID,
			StopSequence:  stop.StopSequence,
			StopHeadsign:  stop.Platform,
			PickupType:    stop.PickupType,
			DropOffType:   stop.DropOffType,
			Timepoint:     1,
			Activity:      stop.Activity,
		})
	}
	return stopTimes
}

// InsertStopTimes inserts stop times using a transaction for better performance
func InsertStopTimes(db *sql.DB, stopTimes []StopTime) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO stop_times (
			trip_id, arrival_time, departure_time, stop_id, stop_sequence,
			stop_headsign, pickup_type, drop_off_type, timepoint, activity
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		tx.Rollback() // nolint:errcheck
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close() // nolint:errcheck

	for _, st := range stopTimes {
		_, err := stmt.Exec(
			st.TripID, st.ArrivalTime, st.DepartureTime, st.StopID, st.StopSequence,
			st.StopHeadsign, st.PickupType, st.DropOffType, st.Timepoint, st.Activity,
		)
		if err != nil {
			tx.Rollback() // nolint:errcheck
			return fmt.Errorf("error inserting stop_time: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}

func createStopTimesTable(tx *sql.Tx) error {
	return createTable(tx, "stop_times", `
		CREATE TABLE IF NOT EXISTS stop_times (
			trip_id INTEGER NOT NULL,
			arrival_time INTEGER NOT NULL,
			departure_time INTEGER NOT NULL,
			stop_id TEXT NOT NULL,
			stop_sequence INTEGER NOT NULL,
			stop_headsign TEXT,
			pickup_type INTEGER DEFAULT 0,
			drop_off_type INTEGER DEFAULT 0,
			timepoint INTEGER DEFAULT 1,
			activity TEXT,
			FOREIGN KEY (trip_id) REFERENCES trips(trip_id),
			PRIMARY KEY (trip_id, stop_sequence)
		);
	`)
}
