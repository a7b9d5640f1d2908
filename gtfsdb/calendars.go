package gtfsdb

import (
	"database/sql"
	"fmt"

	"cif2gtfs.openrail.dev/internal/model"
)

// Calendar represents service dates for trips in the GTFS output
type Calendar struct {
	ServiceID string // service_id
	Monday    int    // monday
	Tuesday   int    // tuesday
	Wednesday int    // wednesday
	Thursday  int    // thursday
	Friday    int    // friday
	Saturday  int    // saturday
	Sunday    int    // sunday
	StartDate string // start_date (YYYYMMDD)
	EndDate   string // end_date (YYYYMMDD)
}

// CalendarDate represents a single-day service exception in the GTFS output
type CalendarDate struct {
	ServiceID     string // service_id
	Date          string // date (YYYYMMDD)
	ExceptionType int    // exception_type (2 = service removed)
}

// CalendarForService converts a schedule calendar into a GTFS calendar row.
func CalendarForService(serviceID string, calendar *model.Calendar) Calendar {
	flag := func(day int) int {
		if calendar.Days[day] {
			return 1
		}
		return 0
	}
	return Calendar{
		ServiceID: serviceID,
		Sunday:    flag(0),
		Monday:    flag(1),
		Tuesday:   flag(2),
		Wednesday: flag(3),
		Thursday:  flag(4),
		Friday:    flag(5),
		Saturday:  flag(6),
		StartDate: calendar.RunsFrom.Format("20060102"),
		EndDate:   calendar.RunsTo.Format("20060102"),
	}
}

// CalendarDatesForService converts a calendar's excluded days into GTFS
// removed-service exceptions.
func CalendarDatesForService(serviceID string, calendar *model.Calendar) []CalendarDate {
	var dates []CalendarDate
	for _, day := range calendar.ExcludeDayList() {
		dates = append(dates, CalendarDate{
			ServiceID:     serviceID,
			Date:          day.Format("20060102"),
			ExceptionType: 2,
		})
	}
	return dates
}

// InsertCalendars adds calendar entries to the database using a transaction
func InsertCalendars(db *sql.DB, calendars []Calendar) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO calendar (
			service_id, monday, tuesday, wednesday, thursday,
			friday, saturday, sunday, start_date, end_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		tx.Rollback() // nolint:errcheck
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close() // nolint:errcheck

	for _, calendar := range calendars {
		_, err := stmt.Exec(
			calendar.ServiceID, calendar.Monday, calendar.Tuesday, calendar.Wednesday, calendar.Thursday,
			calendar.Friday, calendar.Saturday, calendar.Sunday, calendar.StartDate, calendar.EndDate,
		)
		if err != nil {
			tx.Rollback() // nolint:errcheck
			return fmt.Errorf("error inserting calendar: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}

// InsertCalendarDates adds service exceptions to the database using a transaction
func InsertCalendarDates(db *sql.DB, dates []CalendarDate) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO calendar_dates (
			service_id, date, exception_type
		) VALUES (?, ?, ?);
	`)
	if err != nil {
		tx.Rollback() // nolint:errcheck
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close() // nolint:errcheck

	for _, date := range dates {
		if _, err := stmt.Exec(date.ServiceID, date.Date, date.ExceptionType); err != nil {
			tx.Rollback() // nolint:errcheck
			return fmt.Errorf("error inserting calendar date: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}

func createCalendarTable(tx *sql.Tx) error {
	return createTable(tx, "calendar", `
		CREATE TABLE IF NOT EXISTS calendar (
			service_id TEXT PRIMARY KEY,
			monday INTEGER NOT NULL,
			tuesday INTEGER NOT NULL,
			wednesday INTEGER NOT NULL,
			thursday INTEGER NOT NULL,
			friday INTEGER NOT NULL,
			saturday INTEGER NOT NULL,
			sunday INTEGER NOT NULL,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL
		);
	`)
}

func createCalendarDatesTable(tx *sql.Tx) error {
	return createTable(tx, "calendar_dates", `
		CREATE TABLE IF NOT EXISTS calendar_dates (
			service_id TEXT NOT NULL,
			date TEXT NOT NULL,
			exception_type INTEGER NOT NULL,
			FOREIGN KEY (service_id) REFERENCES calendar(service_id),
			PRIMARY KEY (service_id, date)
		);
	`)
}
