package conflate

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cif2gtfs.openrail.dev/internal/model"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func row(id int, crs, arrival, departure string) ScheduleStopTimeRow {
	return ScheduleStopTimeRow{
		ID:                  id,
		TrainUID:            "C11111",
		RetailTrainID:       "GW123400",
		RunsFrom:            model.Date(2023, time.January, 2),
		RunsTo:              model.Date(2023, time.January, 27),
		Days:                model.Days{false, true, true, true, true, true, false},
		STPIndicator:        model.STPPermanent,
		CRSCode:             crs,
		TrainCategory:       "OO",
		ATOCCode:            "GW",
		PublicArrivalTime:   arrival,
		PublicDepartureTime: departure,
		Activity:            "T",
		Reservations:        "S",
	}
}

func TestBuilderAssemblesSchedule(t *testing.T) {
	builder := NewScheduleBuilder(discardLogger)
	builder.ProcessRow(row(1, "PAD", "", "10:00:00"))
	builder.ProcessRow(row(1, "RDG", "10:25:00", "10:27:00"))
	builder.ProcessRow(row(1, "BRI", "11:30:00", ""))

	results := builder.Results()
	require.Len(t, results.Schedules, 1)

	schedule := results.Schedules[0]
	assert.Equal(t, 1, schedule.ID)
	assert.Equal(t, "C11111", schedule.TUID)
	assert.Equal(t, "GW", schedule.Operator)
	assert.Equal(t, model.ModeRail, schedule.Mode)
	assert.True(t, schedule.FirstClassAvailable)
	assert.Equal(t, "S", schedule.ReservationFlag)
	assert.Equal(t, "0111110", schedule.Calendar.BinaryDays())

	require.Len(t, schedule.StopTimes, 3)
	for i, stop := range schedule.StopTimes {
		assert.Equal(t, i+1, stop.StopSequence)
		assert.Equal(t, 1, stop.TripID)
	}

	// missing arrival and departure fall back to each other
	assert.Equal(t, "10:00:00", schedule.StopTimes[0].ArrivalTime)
	assert.Equal(t, "11:30:00", schedule.StopTimes[2].DepartureTime)
}

func TestBuilderMultipleSchedules(t *testing.T) {
	builder := NewScheduleBuilder(discardLogger)
	builder.ProcessRow(row(5, "PAD", "", "10:00:00"))
	builder.ProcessRow(row(5, "BRI", "11:30:00", ""))
	builder.ProcessRow(row(9, "EUS", "", "12:00:00"))
	builder.ProcessRow(row(9, "MAN", "14:05:00", ""))

	results := builder.Results()
	require.Len(t, results.Schedules, 2)
	assert.Equal(t, 5, results.Schedules[0].ID)
	assert.Equal(t, 9, results.Schedules[1].ID)

	// the id generator is seeded above the highest schedule id
	assert.Equal(t, 10, results.IDGenerator.Next())
}

func TestBuilderPrefersPublicTimes(t *testing.T) {
	builder := NewScheduleBuilder(discardLogger)

	first := row(1, "PAD", "", "10:00:00")
	first.ScheduledDepartureTime = "09:59:30"
	builder.ProcessRow(first)

	second := row(1, "BRI", "", "")
	second.ScheduledArrivalTime = "11:30:00"
	builder.ProcessRow(second)

	results := builder.Results()
	require.Len(t, results.Schedules, 1)

	stops := results.Schedules[0].StopTimes
	assert.Equal(t, "10:00:00", stops[0].DepartureTime, "public time wins over the working timetable")
	assert.Equal(t, "11:30:00", stops[1].ArrivalTime, "working timetable fills missing public times")
}

func TestBuilderMidnightRollover(t *testing.T) {
	builder := NewScheduleBuilder(discardLogger)
	builder.ProcessRow(row(1, "PAD", "", "23:30:00"))
	builder.ProcessRow(row(1, "CRE", "00:10:00", "00:15:00"))
	builder.ProcessRow(row(1, "HUD", "01:20:00", ""))

	results := builder.Results()
	require.Len(t, results.Schedules, 1)

	stops := results.Schedules[0].StopTimes
	assert.Equal(t, "23:30:00", stops[0].DepartureTime)
	assert.Equal(t, "24:10:00", stops[1].ArrivalTime)
	assert.Equal(t, "24:15:00", stops[1].DepartureTime)
	assert.Equal(t, "25:20:00", stops[2].ArrivalTime)
}

func TestBuilderCollapsesDuplicateStops(t *testing.T) {
	builder := NewScheduleBuilder(discardLogger)
	builder.ProcessRow(row(1, "PAD", "", "10:00:00"))

	blocked := row(1, "CRE", "10:30:00", "10:32:00")
	blocked.Activity = "N"
	builder.ProcessRow(blocked)

	open := row(1, "CRE", "10:35:00", "10:40:00")
	builder.ProcessRow(open)

	results := builder.Results()
	require.Len(t, results.Schedules, 1)

	stops := results.Schedules[0].StopTimes
	require.Len(t, stops, 2)
	assert.Equal(t, "CRE", stops[1].StopID)
	assert.Equal(t, 2, stops[1].StopSequence)
	assert.Equal(t, model.StopActivityAllowed, stops[1].PickupType, "the advertised row wins")
	assert.Equal(t, "10:35:00", stops[1].ArrivalTime)
}

func TestBuilderKeepsFirstStopWhenDuplicateIsBlocked(t *testing.T) {
	builder := NewScheduleBuilder(discardLogger)
	builder.ProcessRow(row(1, "CRE", "", "10:00:00"))

	blocked := row(1, "CRE", "10:02:00", "10:04:00")
	blocked.Activity = "N"
	builder.ProcessRow(blocked)

	results := builder.Results()
	require.Len(t, results.Schedules, 1)

	stops := results.Schedules[0].StopTimes
	require.Len(t, stops, 1)
	assert.Equal(t, model.StopActivityAllowed, stops[0].PickupType)
	assert.Equal(t, "10:00:00", stops[0].DepartureTime)
}

func TestBuilderCancellation(t *testing.T) {
	builder := NewScheduleBuilder(discardLogger)

	cancelled := row(7, "", "", "")
	cancelled.STPIndicator = model.STPCancellation
	builder.ProcessRow(cancelled)

	results := builder.Results()
	require.Len(t, results.Schedules, 1)

	schedule := results.Schedules[0]
	assert.Equal(t, model.STPCancellation, schedule.STP)
	assert.Empty(t, schedule.StopTimes, "cancellations carry a calendar but no calling points")
	assert.Equal(t, model.Date(2023, time.January, 2), schedule.Calendar.RunsFrom)
}

func TestBuilderDiscardsTimeTravel(t *testing.T) {
	builder := NewScheduleBuilder(discardLogger)
	builder.ProcessRow(row(1, "PAD", "", "12:00:00"))
	builder.ProcessRow(row(1, "BRI", "11:00:00", ""))

	results := builder.Results()
	assert.Empty(t, results.Schedules)
}

func TestBuilderToleratesSmallBackwardsJump(t *testing.T) {
	builder := NewScheduleBuilder(discardLogger)
	builder.ProcessRow(row(1, "PAD", "", "12:00:00"))
	builder.ProcessRow(row(1, "BRI", "11:58:00", ""))

	results := builder.Results()
	assert.Len(t, results.Schedules, 1)
}

func TestBuilderModeAndClass(t *testing.T) {
	tests := []struct {
		category   string
		class      string
		mode       model.TransportMode
		firstClass bool
	}{
		{"OO", "", model.ModeRail, true},
		{"OO", "B", model.ModeRail, true},
		{"OO", "S", model.ModeRail, false},
		{"XX", "", model.ModeRail, true},
		{"OL", "", model.ModeSubway, true},
		{"SS", "", model.ModeFerry, true},
		{"BS", "", model.ModeBus, false},
		{"BR", "", model.ModeReplacementBus, false},
		// unknown categories default to rail
		{"ZZ", "", model.ModeRail, true},
	}

	for _, tt := range tests {
		builder := NewScheduleBuilder(discardLogger)

		r := row(1, "PAD", "", "10:00:00")
		r.TrainCategory = tt.category
		r.TrainClass = tt.class
		builder.ProcessRow(r)

		results := builder.Results()
		require.Len(t, results.Schedules, 1, tt.category)
		assert.Equal(t, tt.mode, results.Schedules[0].Mode, tt.category)
		assert.Equal(t, tt.firstClass, results.Schedules[0].FirstClassAvailable, tt.category+tt.class)
	}
}

func TestBuilderActivities(t *testing.T) {
	tests := []struct {
		activity    string
		pickup      int
		dropOff     int
		description string
	}{
		{"T", model.StopActivityAllowed, model.StopActivityAllowed, "T-Normal"},
		{"TB", model.StopActivityAllowed, model.StopActivityNotAllowed, "TB-PickUpOnly"},
		{"TF", model.StopActivityNotAllowed, model.StopActivityAllowed, "TF-SetDownOnly"},
		{"U", model.StopActivityAllowed, model.StopActivityNotAllowed, "U-PickUpOnly"},
		{"D", model.StopActivityNotAllowed, model.StopActivityAllowed, "D-SetDownOnly"},
		{"R", model.StopActivityCoordinated, model.StopActivityCoordinated, "R-RequestStop"},
		// N suppresses advertised pickup
		{"T N", model.StopActivityNotAllowed, model.StopActivityAllowed, "T-Normal"},
		{"", model.StopActivityNotAllowed, model.StopActivityNotAllowed, ""},
	}

	for _, tt := range tests {
		builder := NewScheduleBuilder(discardLogger)

		r := row(1, "PAD", "", "10:00:00")
		r.Activity = tt.activity
		builder.ProcessRow(r)

		results := builder.Results()
		require.Len(t, results.Schedules, 1, tt.activity)

		stop := results.Schedules[0].StopTimes[0]
		assert.Equal(t, tt.pickup, stop.PickupType, tt.activity)
		assert.Equal(t, tt.dropOff, stop.DropOffType, tt.activity)
		assert.Equal(t, tt.description, stop.Activity, tt.activity)
	}
}
