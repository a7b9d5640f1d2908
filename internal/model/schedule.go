package model

import (
	"fmt"
	"strings"
)

// TransportMode is the GTFS route type a schedule operates as.
type TransportMode int

const (
	ModeTram   TransportMode = 0
	ModeSubway TransportMode = 1
	ModeRail   TransportMode = 2
	ModeBus    TransportMode = 3
	ModeFerry  TransportMode = 4
	// ModeReplacementBus is the GTFS gondola route type, which the UK feeds
	// have historically used to keep rail replacement buses distinguishable
	// from ordinary bus schedules.
	ModeReplacementBus TransportMode = 6
)

// Description returns the rider facing wording for the mode.
func (m TransportMode) Description() string {
	switch m {
	case ModeRail:
		return "Train"
	case ModeSubway:
		return "Underground"
	case ModeTram:
		return "Tram"
	case ModeBus:
		return "Bus"
	case ModeReplacementBus:
		return "Replacement bus"
	case ModeFerry:
		return "Boat"
	default:
		return "Train"
	}
}

// Pickup and drop off capability codes, as used by GTFS stop_times.
const (
	StopActivityAllowed     = 0
	StopActivityNotAllowed  = 1
	StopActivityCoordinated = 3
)

// StopTime is a single calling point within a schedule. Times are zero
// padded HH:MM:SS strings and may exceed 24:00:00 when a service rolls past
// midnight.
type StopTime struct {
	TripID        int
	ArrivalTime   string
	DepartureTime string
	StopID        string
	StopSequence  int
	Platform      string
	PickupType    int
	DropOffType   int
	Activity      string
}

// Schedule is one calendar variant of a train service. Schedules are
// immutable: calendar resolution and association merging produce new
// instances and never modify an existing one.
type Schedule struct {
	ID                  int
	StopTimes           []StopTime
	TUID                string
	RSID                string
	Calendar            *Calendar
	Mode                TransportMode
	Operator            string
	STP                 STP
	FirstClassAvailable bool
	ReservationFlag     string
	Activity            string
}

// Origin returns the stop id of the first calling point.
func (s *Schedule) Origin() string {
	return s.StopTimes[0].StopID
}

// Destination returns the stop id of the last calling point.
func (s *Schedule) Destination() string {
	return s.StopTimes[len(s.StopTimes)-1].StopID
}

func (s *Schedule) RecordID() int             { return s.ID }
func (s *Schedule) RecordTUID() string        { return s.TUID }
func (s *Schedule) RecordSTP() STP            { return s.STP }
func (s *Schedule) RecordCalendar() *Calendar { return s.Calendar }

// RecordHash covers every significant field so that variants which differ in
// any rider visible way never collapse into one. Extra (STP X) schedules
// hash apart from the base timetable, everything else hashes together.
func (s *Schedule) RecordHash() string {
	var b strings.Builder
	for _, stop := range s.StopTimes {
		b.WriteString(stop.ArrivalTime)
		b.WriteString(stop.DepartureTime)
		b.WriteString(stop.StopID)
		fmt.Fprintf(&b, "%d%s%d%d", stop.StopSequence, stop.Platform, stop.PickupType, stop.DropOffType)
		b.WriteString(stop.Activity)
	}
	b.WriteString(s.TUID)
	b.WriteString(s.RSID)
	b.WriteString(s.Calendar.BinaryDays())
	fmt.Fprintf(&b, "%d%s%t%s%s", s.Mode, s.Operator, s.FirstClassAvailable, s.ReservationFlag, s.Activity)
	if s.STP == STPExtra {
		b.WriteString("X")
	} else {
		b.WriteString("P")
	}
	return b.String()
}

// CloneRecord returns a copy of the schedule with the new calendar and id.
// Stop times are re-pointed at the new id.
func (s *Schedule) CloneRecord(calendar *Calendar, id int) *Schedule {
	clone := *s
	clone.ID = id
	clone.Calendar = calendar
	clone.StopTimes = make([]StopTime, len(s.StopTimes))
	for i, stop := range s.StopTimes {
		stop.TripID = id
		clone.StopTimes[i] = stop
	}
	return &clone
}

// WithStopTimes returns a copy of the schedule with a replacement stop list.
func (s *Schedule) WithStopTimes(stopTimes []StopTime) *Schedule {
	clone := *s
	clone.StopTimes = stopTimes
	return &clone
}

// WithTUID returns a copy of the schedule under a different train identity.
func (s *Schedule) WithTUID(tuid string) *Schedule {
	clone := *s
	clone.TUID = tuid
	return &clone
}

func (s *Schedule) indexOf(location string) int {
	for i, stop := range s.StopTimes {
		if stop.StopID == location {
			return i
		}
	}
	return -1
}

// Before returns the calling points strictly before the given location, or
// nil when the schedule does not call there.
func (s *Schedule) Before(location string) []StopTime {
	if i := s.indexOf(location); i >= 0 {
		return s.StopTimes[:i]
	}
	return nil
}

// BeforeIncluding returns the calling points up to and including the given
// location.
func (s *Schedule) BeforeIncluding(location string) []StopTime {
	if i := s.indexOf(location); i >= 0 {
		return s.StopTimes[:i+1]
	}
	return nil
}

// After returns the calling points strictly after the given location.
func (s *Schedule) After(location string) []StopTime {
	if i := s.indexOf(location); i >= 0 {
		return s.StopTimes[i+1:]
	}
	return nil
}

// AfterIncluding returns the calling points from the given location onwards.
func (s *Schedule) AfterIncluding(location string) []StopTime {
	if i := s.indexOf(location); i >= 0 {
		return s.StopTimes[i:]
	}
	return nil
}

// StopAt returns the calling point at the given location.
func (s *Schedule) StopAt(location string) (StopTime, bool) {
	if i := s.indexOf(location); i >= 0 {
		return s.StopTimes[i], true
	}
	return StopTime{}, false
}

// ClassDescription returns the rider facing seating class wording.
func (s *Schedule) ClassDescription() string {
	if s.FirstClassAvailable {
		return "First class available"
	}
	return "Standard class only"
}

// ReservationDescription returns the rider facing reservation wording.
func (s *Schedule) ReservationDescription() string {
	switch s.ReservationFlag {
	case "A":
		return "Reservation mandatory"
	case "E":
		return "Reservation for bicycles essential"
	case "R":
		return "Reservation recommended"
	case "S":
		return "Reservation possible"
	default:
		return "Reservation not possible"
	}
}
