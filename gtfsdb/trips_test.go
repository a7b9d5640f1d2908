package gtfsdb

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cif2gtfs.openrail.dev/internal/model"
)

func TestTripForSchedule(t *testing.T) {
	schedule := gtfsTestSchedule(5, "GW", model.ModeRail)

	trip := TripForSchedule(schedule, "7", 12)

	assert.Equal(t, 5, trip.ID)
	assert.Equal(t, 12, trip.RouteID)
	assert.Equal(t, "7", trip.ServiceID)
	assert.Equal(t, "C11111", trip.Headsign)
	assert.Equal(t, "GW123400", trip.ShortName)
	assert.Equal(t, "P", trip.STP)
	assert.Equal(t, "S", trip.ReservationFlag)
	assert.Equal(t, "2023-01-02", trip.RunsFrom)
}
