// Package conflate turns raw CIF timetable rows into a consistent,
// calendar partitioned set of schedules: it assembles schedules from
// per stop rows, collapses overlapping calendar variants by short term
// planning precedence, and applies train join/split associations.
package conflate

import (
	"time"

	"cif2gtfs.openrail.dev/internal/model"
)

// ScheduleStopTimeRow is one raw calling point row from the staging
// database. Rows arrive ordered so that all rows for one schedule id are
// contiguous and in stop order. Empty strings stand in for NULL time,
// class and operator columns.
type ScheduleStopTimeRow struct {
	ID                     int
	TrainUID               string
	RetailTrainID          string
	RunsFrom               time.Time
	RunsTo                 time.Time
	Days                   model.Days
	STPIndicator           model.STP
	CRSCode                string
	TrainCategory          string
	ATOCCode               string
	PublicArrivalTime      string
	PublicDepartureTime    string
	ScheduledArrivalTime   string
	ScheduledDepartureTime string
	Platform               string
	Activity               string
	TrainClass             string
	Reservations           string
}
