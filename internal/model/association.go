package model

import (
	"fmt"
	"log/slog"
)

// DateIndicator describes how the associated train's calendar day relates to
// the base train's calendar day at the association point.
type DateIndicator int

const (
	DateIndicatorSame DateIndicator = iota
	DateIndicatorNext
	DateIndicatorPrevious
)

// ParseDateIndicator decodes the S/N/P code used by the CIF feed.
func ParseDateIndicator(code string) (DateIndicator, error) {
	switch code {
	case "S", "":
		return DateIndicatorSame, nil
	case "N":
		return DateIndicatorNext, nil
	case "P":
		return DateIndicatorPrevious, nil
	}
	return DateIndicatorSame, fmt.Errorf("unknown date indicator %q", code)
}

// AssociationType is the kind of relationship between the base and
// associated trains.
type AssociationType int

const (
	// AssociationNA is carried by cancellation association records, which
	// have no category of their own.
	AssociationNA AssociationType = iota
	AssociationSplit
	AssociationJoin
)

// ParseAssociationType decodes the VV/JJ category code used by the CIF feed.
func ParseAssociationType(code string) (AssociationType, error) {
	switch code {
	case "VV":
		return AssociationSplit, nil
	case "JJ":
		return AssociationJoin, nil
	case "":
		return AssociationNA, nil
	}
	return AssociationNA, fmt.Errorf("unknown association category %q", code)
}

// Association is a join or split relationship between two trains at a shared
// location. Applying it produces merged schedules; the association itself is
// never mutated.
type Association struct {
	ID            int
	BaseTUID      string
	AssocTUID     string
	Location      string
	DateIndicator DateIndicator
	Category      AssociationType
	Calendar      *Calendar
	STP           STP
}

func (a *Association) RecordID() int             { return a.ID }
func (a *Association) RecordSTP() STP            { return a.STP }
func (a *Association) RecordCalendar() *Calendar { return a.Calendar }

// RecordTUID is the synthetic identity the association resolves under: all
// variants of one base/associated pairing share it.
func (a *Association) RecordTUID() string {
	return a.BaseTUID + "_" + a.AssocTUID + "_"
}

func (a *Association) RecordHash() string {
	return a.RecordTUID() + a.Location + a.Calendar.BinaryDays()
}

// CloneRecord returns a copy of the association with the new calendar and id.
func (a *Association) CloneRecord(calendar *Calendar, id int) *Association {
	clone := *a
	clone.ID = id
	clone.Calendar = calendar
	return &clone
}

// AlignedCalendar returns the association's calendar expressed in the
// associated train's days. A Next day indicator shifts it forward so the
// calendar can be compared with associated schedule calendars directly.
// Previous is handled symmetrically, although real feed extracts have only
// been observed to use Same and Next.
func (a *Association) AlignedCalendar() *Calendar {
	switch a.DateIndicator {
	case DateIndicatorNext:
		return a.Calendar.ShiftForward()
	case DateIndicatorPrevious:
		return a.Calendar.ShiftBackward()
	default:
		return a.Calendar
	}
}

// BaseSearchCalendar maps an associated schedule's calendar back to base
// train days, used to find the base schedule candidates to merge with.
func (a *Association) BaseSearchCalendar(assocCalendar *Calendar) *Calendar {
	switch a.DateIndicator {
	case DateIndicatorNext:
		return assocCalendar.ShiftBackward()
	case DateIndicatorPrevious:
		return assocCalendar.ShiftForward()
	default:
		return assocCalendar
	}
}

// Apply performs the join or split against one base/associated schedule pair.
// The first returned schedule is the merged replacement for the associated
// schedule; any further schedules are clones of the original associated
// schedule covering days it runs outside the association window, each under
// a fresh id.
func (a *Association) Apply(base, assoc *Schedule, gen *IDGenerator, makeMergePointAccessible bool) []*Schedule {
	assocCalendar := a.AlignedCalendar()
	schedules := []*Schedule{a.mergeSchedules(base, assoc, makeMergePointAccessible)}

	// associated train starts running before the association begins
	if assoc.Calendar.RunsFrom.Before(assocCalendar.RunsFrom) {
		before := assoc.Calendar.Clone(assoc.Calendar.RunsFrom, addDays(assocCalendar.RunsFrom, -1))
		schedules = append(schedules, assoc.CloneRecord(before, gen.Next()))
	}

	// associated train keeps running after the association has finished
	if assoc.Calendar.RunsTo.After(assocCalendar.RunsTo) {
		after := assoc.Calendar.Clone(addDays(assocCalendar.RunsTo, 1), assoc.Calendar.RunsTo)
		schedules = append(schedules, assoc.CloneRecord(after, gen.Next()))
	}

	// days the association skips but the associated train still runs
	for _, excludeDay := range assocCalendar.ExcludeDayList() {
		if assoc.Calendar.IsRunningOn(excludeDay) {
			schedules = append(schedules, assoc.CloneRecord(assoc.Calendar.Clone(excludeDay, excludeDay), gen.Next()))
		}
	}

	return schedules
}

// mergeSchedules splices the base and associated stop sequences at the
// association location. A split keeps the base train's head and the
// associated train's tail; a join is the reverse.
func (a *Association) mergeSchedules(base, assoc *Schedule, makeMergePointAccessible bool) *Schedule {
	baseStopTime, baseOK := base.StopAt(a.Location)
	assocStopTime, assocOK := assoc.StopAt(a.Location)

	// Corrupt feeds occasionally reference a location missing from one of
	// the schedules. Keep the associated schedule unmodified rather than
	// failing the whole feed cycle.
	if !baseOK || !assocOK {
		return assoc
	}

	var tuid string
	var start, end []StopTime
	var junction StopTime

	if a.Category == AssociationSplit {
		tuid = base.TUID + "_" + assoc.TUID
		start = base.Before(a.Location)
		junction = a.mergeAssociationStop(baseStopTime, assocStopTime, makeMergePointAccessible)
		end = assoc.After(a.Location)
	} else {
		tuid = assoc.TUID + "_" + base.TUID
		start = assoc.Before(a.Location)
		junction = a.mergeAssociationStop(assocStopTime, baseStopTime, makeMergePointAccessible)
		end = base.After(a.Location)
	}

	sequence := 1
	stops := make([]StopTime, 0, len(start)+1+len(end))
	for _, stop := range start {
		stops = append(stops, cloneStop(stop, sequence, assoc.ID, nil))
		sequence++
	}
	stops = append(stops, cloneStop(junction, sequence, assoc.ID, nil))
	sequence++
	for _, stop := range end {
		stops = append(stops, cloneStop(stop, sequence, assoc.ID, &junction))
		sequence++
	}

	calendar := a.BaseSearchCalendar(assoc.Calendar)

	merged := &Schedule{
		ID:        assoc.ID,
		StopTimes: stops,
		TUID:      tuid,
		RSID:      assoc.RSID,
		// only take the part of the schedule that the association applies
		// to; days the association skips stay with the leftover clones
		Calendar: calendar.Clone(
			maxDate(a.Calendar.RunsFrom, calendar.RunsFrom),
			minDate(a.Calendar.RunsTo, calendar.RunsTo),
		).Exclude(a.Calendar.ExcludeDayList()),
		Mode:                assoc.Mode,
		Operator:            assoc.Operator,
		STP:                 assoc.STP,
		FirstClassAvailable: assoc.FirstClassAvailable,
		ReservationFlag:     assoc.ReservationFlag,
		Activity:            assoc.Activity,
	}
	return merged
}

// mergeAssociationStop builds the junction calling point from the arrival
// side of the earlier schedule and the departure side of the later one.
func (a *Association) mergeAssociationStop(arrivalStop, departureStop StopTime, makeMergePointAccessible bool) StopTime {
	arrival := ParseTime(arrivalStop.ArrivalTime)
	departure := ParseTime(departureStop.DepartureTime)

	if arrival > departure {
		if a.DateIndicator == DateIndicatorNext {
			// the departure is on the next day
			departure += 24 * 3600
		} else {
			// ambiguous data: fall back to the later schedule's own arrival
			arrival = ParseTime(departureStop.ArrivalTime)
		}
	}

	pickup := departureStop.PickupType
	dropOff := arrivalStop.DropOffType
	if makeMergePointAccessible {
		pickup = StopActivityAllowed
		dropOff = StopActivityAllowed
	}

	merged := arrivalStop
	merged.ArrivalTime = FormatTime(arrival)
	merged.DepartureTime = FormatTime(departure)
	merged.PickupType = pickup
	merged.DropOffType = dropOff
	return merged
}

// SliceSchedule cuts a merged schedule at the association location, keeping
// the associated train's own portion: from the junction onwards for a split,
// up to the junction for a join. Stops are renumbered from 1.
func (a *Association) SliceSchedule(schedule *Schedule) *Schedule {
	var stops []StopTime
	if a.Category == AssociationSplit {
		stops = schedule.AfterIncluding(a.Location)
	} else {
		stops = schedule.BeforeIncluding(a.Location)
	}

	sliced := make([]StopTime, len(stops))
	for i, stop := range stops {
		sliced[i] = cloneStop(stop, i+1, schedule.ID, nil)
	}
	return schedule.WithStopTimes(sliced)
}

// LogAttrs identifies the association in structured log output.
func (a *Association) LogAttrs() []any {
	return []any{
		slog.Int("association_id", a.ID),
		slog.String("base_tuid", a.BaseTUID),
		slog.String("assoc_tuid", a.AssocTUID),
		slog.String("location", a.Location),
	}
}

// cloneStop renumbers a calling point for a new trip. Stops following the
// junction that fall numerically before it have rolled past midnight, so
// their times are bumped by 24 hours to keep elapsed time monotonic.
func cloneStop(stop StopTime, sequence, tripID int, junction *StopTime) StopTime {
	junctionTime := 0
	if junction != nil && junction.ArrivalTime != "" {
		junctionTime = ParseTime(junction.ArrivalTime)
	}

	clone := stop
	if clone.DepartureTime != "" && ParseTime(clone.DepartureTime) < junctionTime {
		clone.DepartureTime = FormatTime(ParseTime(clone.DepartureTime) + 24*3600)
	}
	if clone.ArrivalTime != "" && ParseTime(clone.ArrivalTime) < junctionTime {
		clone.ArrivalTime = FormatTime(ParseTime(clone.ArrivalTime) + 24*3600)
	}
	clone.StopSequence = sequence
	clone.TripID = tripID
	return clone
}
