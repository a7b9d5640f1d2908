package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAssociation(id int, category AssociationType, calendar *Calendar) *Association {
	return &Association{
		ID:            id,
		BaseTUID:      "C11111",
		AssocTUID:     "C22222",
		Location:      "CRE",
		DateIndicator: DateIndicatorSame,
		Category:      category,
		Calendar:      calendar,
		STP:           STPPermanent,
	}
}

func TestParseDateIndicator(t *testing.T) {
	for code, expected := range map[string]DateIndicator{
		"S": DateIndicatorSame,
		"":  DateIndicatorSame,
		"N": DateIndicatorNext,
		"P": DateIndicatorPrevious,
	} {
		indicator, err := ParseDateIndicator(code)
		require.NoError(t, err)
		assert.Equal(t, expected, indicator)
	}

	_, err := ParseDateIndicator("X")
	assert.Error(t, err)
}

func TestParseAssociationType(t *testing.T) {
	for code, expected := range map[string]AssociationType{
		"VV": AssociationSplit,
		"JJ": AssociationJoin,
		"":   AssociationNA,
	} {
		category, err := ParseAssociationType(code)
		require.NoError(t, err)
		assert.Equal(t, expected, category)
	}

	_, err := ParseAssociationType("XX")
	assert.Error(t, err)
}

func TestAlignedCalendar(t *testing.T) {
	calendar := NewCalendar(Date(2023, time.January, 2), Date(2023, time.January, 6), weekdays)
	association := testAssociation(1, AssociationSplit, calendar)

	assert.Same(t, calendar, association.AlignedCalendar(), "same day indicator keeps the calendar")

	association.DateIndicator = DateIndicatorNext
	aligned := association.AlignedCalendar()
	assert.Equal(t, Date(2023, time.January, 3), aligned.RunsFrom)
	assert.Equal(t, calendar.Hash(), association.BaseSearchCalendar(aligned).Hash())

	association.DateIndicator = DateIndicatorPrevious
	aligned = association.AlignedCalendar()
	assert.Equal(t, Date(2023, time.January, 1), aligned.RunsFrom)
	assert.Equal(t, calendar.Hash(), association.BaseSearchCalendar(aligned).Hash())
}

func TestApplySplit(t *testing.T) {
	base := testSchedule(1, "C11111", januaryWeekdays(),
		testStop(1, 1, "PAD", "", "10:00:00"),
		testStop(1, 2, "CRE", "11:00:00", "11:05:00"),
		testStop(1, 3, "HUD", "12:00:00", ""),
	)
	assoc := testSchedule(2, "C22222", januaryWeekdays(),
		testStop(2, 1, "CRE", "11:02:00", "11:10:00"),
		testStop(2, 2, "EDI", "13:00:00", ""),
	)
	association := testAssociation(3, AssociationSplit, januaryWeekdays())

	schedules := association.Apply(base, assoc, NewIDGenerator(100), false)
	require.Len(t, schedules, 1)

	merged := schedules[0]
	assert.Equal(t, assoc.ID, merged.ID)
	assert.Equal(t, "C11111_C22222", merged.TUID)
	assert.Equal(t, assoc.RSID, merged.RSID)

	require.Len(t, merged.StopTimes, 3)
	assert.Equal(t, "PAD", merged.StopTimes[0].StopID)
	assert.Equal(t, "CRE", merged.StopTimes[1].StopID)
	assert.Equal(t, "EDI", merged.StopTimes[2].StopID)

	// junction: arrival from the base train, departure from the associated one
	junction := merged.StopTimes[1]
	assert.Equal(t, "11:00:00", junction.ArrivalTime)
	assert.Equal(t, "11:10:00", junction.DepartureTime)

	for i, stop := range merged.StopTimes {
		assert.Equal(t, i+1, stop.StopSequence)
		assert.Equal(t, assoc.ID, stop.TripID)
	}
}

func TestApplyJoin(t *testing.T) {
	base := testSchedule(1, "C11111", januaryWeekdays(),
		testStop(1, 1, "CRE", "11:30:00", "11:35:00"),
		testStop(1, 2, "HUD", "12:30:00", ""),
	)
	assoc := testSchedule(2, "C22222", januaryWeekdays(),
		testStop(2, 1, "EDI", "", "09:00:00"),
		testStop(2, 2, "CRE", "11:20:00", "11:25:00"),
	)
	association := testAssociation(3, AssociationJoin, januaryWeekdays())

	schedules := association.Apply(base, assoc, NewIDGenerator(100), false)
	require.Len(t, schedules, 1)

	merged := schedules[0]
	assert.Equal(t, "C22222_C11111", merged.TUID)

	require.Len(t, merged.StopTimes, 3)
	assert.Equal(t, "EDI", merged.StopTimes[0].StopID)
	assert.Equal(t, "CRE", merged.StopTimes[1].StopID)
	assert.Equal(t, "HUD", merged.StopTimes[2].StopID)

	// junction: arrival from the associated train, departure from the base one
	junction := merged.StopTimes[1]
	assert.Equal(t, "11:20:00", junction.ArrivalTime)
	assert.Equal(t, "11:35:00", junction.DepartureTime)
}

func TestApplyClonesDaysOutsideAssociation(t *testing.T) {
	calendar := NewCalendar(Date(2023, time.January, 1), Date(2023, time.January, 31), everyDay)
	associationCalendar := NewCalendar(Date(2023, time.January, 10), Date(2023, time.January, 15), everyDay)

	base := testSchedule(1, "C11111", calendar,
		testStop(1, 1, "PAD", "", "10:00:00"),
		testStop(1, 2, "CRE", "11:00:00", "11:05:00"),
	)
	assoc := testSchedule(2, "C22222", calendar,
		testStop(2, 1, "CRE", "11:02:00", "11:10:00"),
		testStop(2, 2, "EDI", "13:00:00", ""),
	)
	association := testAssociation(3, AssociationSplit, associationCalendar)

	schedules := association.Apply(base, assoc, NewIDGenerator(100), false)
	require.Len(t, schedules, 3)

	merged := schedules[0]
	assert.Equal(t, Date(2023, time.January, 10), merged.Calendar.RunsFrom)
	assert.Equal(t, Date(2023, time.January, 15), merged.Calendar.RunsTo)

	before := schedules[1]
	assert.Equal(t, 100, before.ID)
	assert.Equal(t, "C22222", before.TUID)
	assert.Equal(t, Date(2023, time.January, 1), before.Calendar.RunsFrom)
	assert.Equal(t, Date(2023, time.January, 9), before.Calendar.RunsTo)

	after := schedules[2]
	assert.Equal(t, 101, after.ID)
	assert.Equal(t, Date(2023, time.January, 16), after.Calendar.RunsFrom)
	assert.Equal(t, Date(2023, time.January, 31), after.Calendar.RunsTo)
}

func TestApplyClonesAssociationExcludeDays(t *testing.T) {
	calendar := NewCalendar(Date(2023, time.January, 10), Date(2023, time.January, 15), everyDay)
	associationCalendar := calendar.Exclude([]time.Time{Date(2023, time.January, 14)})

	base := testSchedule(1, "C11111", calendar,
		testStop(1, 1, "PAD", "", "10:00:00"),
		testStop(1, 2, "CRE", "11:00:00", "11:05:00"),
	)
	assoc := testSchedule(2, "C22222", calendar,
		testStop(2, 1, "CRE", "11:02:00", "11:10:00"),
		testStop(2, 2, "EDI", "13:00:00", ""),
	)
	association := testAssociation(3, AssociationSplit, associationCalendar)

	schedules := association.Apply(base, assoc, NewIDGenerator(100), false)
	require.Len(t, schedules, 2)

	// the skipped Saturday moves out of the merged calendar entirely
	assert.False(t, schedules[0].Calendar.IsRunningOn(Date(2023, time.January, 14)))

	// the associated train still runs on its own on the skipped Saturday
	leftover := schedules[1]
	assert.Equal(t, "C22222", leftover.TUID)
	assert.Equal(t, Date(2023, time.January, 14), leftover.Calendar.RunsFrom)
	assert.Equal(t, Date(2023, time.January, 14), leftover.Calendar.RunsTo)
	assert.True(t, leftover.Calendar.IsRunningOn(Date(2023, time.January, 14)))
}

func TestApplyCoversEveryAssociatedDayOnce(t *testing.T) {
	calendar := NewCalendar(Date(2023, time.January, 1), Date(2023, time.January, 31), everyDay)
	associationCalendar := NewCalendar(Date(2023, time.January, 10), Date(2023, time.January, 15), everyDay).
		Exclude([]time.Time{Date(2023, time.January, 12)})

	base := testSchedule(1, "C11111", calendar,
		testStop(1, 1, "PAD", "", "10:00:00"),
		testStop(1, 2, "CRE", "11:00:00", "11:05:00"),
	)
	assoc := testSchedule(2, "C22222", calendar,
		testStop(2, 1, "CRE", "11:02:00", "11:10:00"),
		testStop(2, 2, "EDI", "13:00:00", ""),
	)
	association := testAssociation(3, AssociationSplit, associationCalendar)

	schedules := association.Apply(base, assoc, NewIDGenerator(100), false)

	// merged plus leftovers cover exactly the associated train's own days
	day := assoc.Calendar.RunsFrom
	for ; !day.After(assoc.Calendar.RunsTo); day = addDays(day, 1) {
		running := 0
		for _, schedule := range schedules {
			if schedule.Calendar.IsRunningOn(day) {
				running++
			}
		}
		assert.Equal(t, 1, running, day.Format("2006-01-02"))
	}
}

func TestApplyNextDayJunction(t *testing.T) {
	baseCalendar := NewCalendar(Date(2023, time.January, 2), Date(2023, time.January, 6), weekdays)
	assocCalendar := baseCalendar.ShiftForward()

	base := testSchedule(1, "C11111", baseCalendar,
		testStop(1, 1, "PAD", "", "23:00:00"),
		testStop(1, 2, "CRE", "23:50:00", "23:55:00"),
	)
	assoc := testSchedule(2, "C22222", assocCalendar,
		testStop(2, 1, "CRE", "00:05:00", "00:10:00"),
		testStop(2, 2, "EDI", "01:30:00", ""),
	)
	association := testAssociation(3, AssociationSplit, baseCalendar)
	association.DateIndicator = DateIndicatorNext

	schedules := association.Apply(base, assoc, NewIDGenerator(100), false)
	require.Len(t, schedules, 1)

	merged := schedules[0]
	require.Len(t, merged.StopTimes, 3)

	// departure rolls into the next day at the junction
	junction := merged.StopTimes[1]
	assert.Equal(t, "23:50:00", junction.ArrivalTime)
	assert.Equal(t, "24:10:00", junction.DepartureTime)

	// stops past midnight are bumped to keep elapsed time monotonic
	assert.Equal(t, "25:30:00", merged.StopTimes[2].ArrivalTime)

	// the merged calendar runs on base train days
	assert.Equal(t, Date(2023, time.January, 2), merged.Calendar.RunsFrom)
	assert.Equal(t, Date(2023, time.January, 6), merged.Calendar.RunsTo)
}

func TestApplyMissingJunction(t *testing.T) {
	base := testSchedule(1, "C11111", januaryWeekdays(),
		testStop(1, 1, "PAD", "", "10:00:00"),
		testStop(1, 2, "HUD", "12:00:00", ""),
	)
	assoc := testSchedule(2, "C22222", januaryWeekdays(),
		testStop(2, 1, "CRE", "11:02:00", "11:10:00"),
		testStop(2, 2, "EDI", "13:00:00", ""),
	)
	association := testAssociation(3, AssociationSplit, januaryWeekdays())

	schedules := association.Apply(base, assoc, NewIDGenerator(100), false)
	require.Len(t, schedules, 1)
	assert.Same(t, assoc, schedules[0], "the associated schedule is kept unmodified")
}

func TestApplyAccessibleMergePoint(t *testing.T) {
	base := testSchedule(1, "C11111", januaryWeekdays(),
		testStop(1, 1, "PAD", "", "10:00:00"),
		testStop(1, 2, "CRE", "11:00:00", "11:05:00"),
	)
	assoc := testSchedule(2, "C22222", januaryWeekdays(),
		testStop(2, 1, "CRE", "11:02:00", "11:10:00"),
		testStop(2, 2, "EDI", "13:00:00", ""),
	)
	assoc.StopTimes[0].PickupType = StopActivityNotAllowed
	base.StopTimes[1].DropOffType = StopActivityNotAllowed
	association := testAssociation(3, AssociationSplit, januaryWeekdays())

	schedules := association.Apply(base, assoc, NewIDGenerator(100), true)
	junction := schedules[0].StopTimes[1]
	assert.Equal(t, StopActivityAllowed, junction.PickupType)
	assert.Equal(t, StopActivityAllowed, junction.DropOffType)
}

func TestSliceSchedule(t *testing.T) {
	merged := testSchedule(2, "C11111_C22222", januaryWeekdays(),
		testStop(2, 1, "PAD", "", "10:00:00"),
		testStop(2, 2, "CRE", "11:00:00", "11:10:00"),
		testStop(2, 3, "EDI", "13:00:00", ""),
	)

	split := testAssociation(3, AssociationSplit, januaryWeekdays())
	sliced := split.SliceSchedule(merged)
	require.Len(t, sliced.StopTimes, 2)
	assert.Equal(t, "CRE", sliced.StopTimes[0].StopID)
	assert.Equal(t, "EDI", sliced.StopTimes[1].StopID)
	assert.Equal(t, 1, sliced.StopTimes[0].StopSequence)
	assert.Equal(t, 2, sliced.StopTimes[1].StopSequence)

	join := testAssociation(3, AssociationJoin, januaryWeekdays())
	sliced = join.SliceSchedule(merged)
	require.Len(t, sliced.StopTimes, 2)
	assert.Equal(t, "PAD", sliced.StopTimes[0].StopID)
	assert.Equal(t, "CRE", sliced.StopTimes[1].StopID)
}
