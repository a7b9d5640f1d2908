package model

import (
	"sort"
	"strings"
	"time"
)

// OverlapType classifies how the active days of two calendars relate.
type OverlapType int

const (
	// OverlapNone means the calendars never run on the same day.
	OverlapNone OverlapType = iota
	// OverlapPartial means the calendars share some but not all active days.
	OverlapPartial
	// OverlapFull means both calendars have exactly the same active days.
	OverlapFull
)

// Days holds the weekday repeat pattern of a calendar, indexed by
// time.Weekday (0 = Sunday through 6 = Saturday).
type Days [7]bool

// Calendar is a date range with a weekday repeat pattern and a set of
// individually excluded dates. Calendars are immutable: every transform
// returns a new instance and callers must not mutate ExcludeDays.
type Calendar struct {
	RunsFrom    time.Time
	RunsTo      time.Time
	Days        Days
	ExcludeDays map[time.Time]struct{}
}

// Date returns the UTC midnight time used as a calendar day value.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func normalizeDate(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

func addDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

func maxDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minDate(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// NewCalendar creates a calendar running from and to the given dates
// inclusive, on the flagged weekdays.
func NewCalendar(runsFrom, runsTo time.Time, days Days) *Calendar {
	return &Calendar{
		RunsFrom:    normalizeDate(runsFrom),
		RunsTo:      normalizeDate(runsTo),
		Days:        days,
		ExcludeDays: map[time.Time]struct{}{},
	}
}

// BinaryDays returns a stable fingerprint of the weekday pattern, e.g.
// "0111110" for a Monday to Friday service.
func (c *Calendar) BinaryDays() string {
	var b strings.Builder
	for _, active := range c.Days {
		if active {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// IsRunningOn reports whether the calendar is active on the given date.
func (c *Calendar) IsRunningOn(date time.Time) bool {
	date = normalizeDate(date)

	if date.Before(c.RunsFrom) || date.After(c.RunsTo) {
		return false
	}
	if !c.Days[date.Weekday()] {
		return false
	}
	_, excluded := c.ExcludeDays[date]

	return !excluded
}

// ActiveDays returns every date the calendar runs on, in order.
func (c *Calendar) ActiveDays() []time.Time {
	return c.ActiveDaysBetween(c.RunsFrom, c.RunsTo)
}

// ActiveDaysBetween returns every date the calendar runs on within
// [from, to], in order.
func (c *Calendar) ActiveDaysBetween(from, to time.Time) []time.Time {
	from = maxDate(normalizeDate(from), c.RunsFrom)
	to = minDate(normalizeDate(to), c.RunsTo)

	var days []time.Time
	for d := from; !d.After(to); d = addDays(d, 1) {
		if c.IsRunningOn(d) {
			days = append(days, d)
		}
	}
	return days
}

// HasActiveDays reports whether the calendar runs on at least one date.
func (c *Calendar) HasActiveDays() bool {
	for d := c.RunsFrom; !d.After(c.RunsTo); d = addDays(d, 1) {
		if c.IsRunningOn(d) {
			return true
		}
	}
	return false
}

// Overlap classifies the shared active days of two calendars. It returns
// OverlapNone when the calendars never run on the same day, OverlapFull when
// both calendars run on exactly the same set of days, and OverlapPartial
// otherwise.
func (c *Calendar) Overlap(other *Calendar) OverlapType {
	if other.RunsTo.Before(c.RunsFrom) || other.RunsFrom.After(c.RunsTo) {
		return OverlapNone
	}

	shared := 0
	from := maxDate(c.RunsFrom, other.RunsFrom)
	to := minDate(c.RunsTo, other.RunsTo)
	for d := from; !d.After(to); d = addDays(d, 1) {
		if c.IsRunningOn(d) && other.IsRunningOn(d) {
			shared++
		}
	}

	if shared == 0 {
		return OverlapNone
	}
	if shared == len(c.ActiveDays()) && shared == len(other.ActiveDays()) {
		return OverlapFull
	}
	return OverlapPartial
}

// ShiftForward returns a new calendar moved forward by one day: the date
// range and every excluded date advance by a day and the weekday flags
// rotate with them, so a Monday service becomes a Tuesday service.
func (c *Calendar) ShiftForward() *Calendar {
	return c.shift(1)
}

// ShiftBackward returns a new calendar moved back by one day.
func (c *Calendar) ShiftBackward() *Calendar {
	return c.shift(-1)
}

func (c *Calendar) shift(offset int) *Calendar {
	var days Days
	for i, active := range c.Days {
		days[((i+offset)%7+7)%7] = active
	}

	shifted := NewCalendar(addDays(c.RunsFrom, offset), addDays(c.RunsTo, offset), days)
	for day := range c.ExcludeDays {
		shifted.ExcludeDays[addDays(day, offset)] = struct{}{}
	}
	return shifted
}

// Clone returns a calendar restricted to [runsFrom, runsTo] with the same
// weekday pattern. Excluded dates outside the new range are dropped.
func (c *Calendar) Clone(runsFrom, runsTo time.Time) *Calendar {
	runsFrom = normalizeDate(runsFrom)
	runsTo = normalizeDate(runsTo)

	clone := NewCalendar(runsFrom, runsTo, c.Days)
	for day := range c.ExcludeDays {
		if !day.Before(runsFrom) && !day.After(runsTo) {
			clone.ExcludeDays[day] = struct{}{}
		}
	}
	return clone
}

// Exclude returns a calendar with the given dates added to the exclusion
// set. Dates outside the range are ignored.
func (c *Calendar) Exclude(days []time.Time) *Calendar {
	excluded := c.Clone(c.RunsFrom, c.RunsTo)
	for _, day := range days {
		day = normalizeDate(day)
		if !day.Before(c.RunsFrom) && !day.After(c.RunsTo) {
			excluded.ExcludeDays[day] = struct{}{}
		}
	}
	return excluded
}

// ExcludeDayList returns the excluded dates in ascending order.
func (c *Calendar) ExcludeDayList() []time.Time {
	days := make([]time.Time, 0, len(c.ExcludeDays))
	for day := range c.ExcludeDays {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// Hash returns a stable identity for the calendar covering its range,
// weekday pattern and exclusions. Two schedules with the same calendar hash
// can share one GTFS service entry.
func (c *Calendar) Hash() string {
	var b strings.Builder
	b.WriteString(c.RunsFrom.Format("20060102"))
	b.WriteString(c.RunsTo.Format("20060102"))
	b.WriteString(c.BinaryDays())
	for _, day := range c.ExcludeDayList() {
		b.WriteString(day.Format("20060102"))
	}
	return b.String()
}
