package gtfsdb

import (
	"fmt"
	"log/slog"
	"sort"

	"cif2gtfs.openrail.dev/internal/conflate"
)

// WriteSchedules persists a conflated schedule index as a GTFS shaped
// dataset. Calendars are deduplicated into shared service entries and
// routes into one entry per operator/origin/destination/mode. Schedules
// with no calling points (resolved cancellations) produce no trip.
func (c *Client) WriteSchedules(index conflate.ScheduleIndex, agencyName, agencyURL string) error {
	tuids := make([]string, 0, len(index))
	for tuid := range index {
		tuids = append(tuids, tuid)
	}
	sort.Strings(tuids)

	agencies := map[string]Agency{}
	services := map[string]string{}
	routes := map[string]Route{}

	var calendars []Calendar
	var calendarDates []CalendarDate
	var trips []Trip
	var stopTimes []StopTime

	skipped := 0
	for _, tuid := range tuids {
		for _, schedule := range index[tuid] {
			if len(schedule.StopTimes) == 0 {
				skipped++
				continue
			}

			agency := AgencyForOperator(schedule.Operator, agencyName, agencyURL)
			agencies[agency.ID] = agency

			calendarHash := schedule.Calendar.Hash()
			serviceID, seen := services[calendarHash]
			if !seen {
				serviceID = fmt.Sprintf("%d", len(services)+1)
				services[calendarHash] = serviceID
				calendars = append(calendars, CalendarForService(serviceID, schedule.Calendar))
				calendarDates = append(calendarDates, CalendarDatesForService(serviceID, schedule.Calendar)...)
			}

			routeKey := RouteKey(schedule)
			route, seen := routes[routeKey]
			if !seen {
				route = RouteForSchedule(schedule)
				routes[routeKey] = route
			}

			trips = append(trips, TripForSchedule(schedule, serviceID, route.ID))
			stopTimes = append(stopTimes, StopTimesForSchedule(schedule)...)
		}
	}

	if err := InsertAgencies(c.DB, sortedAgencies(agencies)); err != nil {
		return err
	}
	if err := InsertCalendars(c.DB, calendars); err != nil {
		return err
	}
	if err := InsertCalendarDates(c.DB, calendarDates); err != nil {
		return err
	}
	if err := InsertRoutes(c.DB, sortedRoutes(routes)); err != nil {
		return err
	}
	if err := InsertTrips(c.DB, trips); err != nil {
		return err
	}
	if err := InsertStopTimes(c.DB, stopTimes); err != nil {
		return err
	}

	c.logger.Info("wrote GTFS dataset",
		slog.Int("agencies", len(agencies)),
		slog.Int("services", len(services)),
		slog.Int("routes", len(routes)),
		slog.Int("trips", len(trips)),
		slog.Int("stop_times", len(stopTimes)),
		slog.Int("cancellations_skipped", skipped))

	return nil
}

func sortedAgencies(agencies map[string]Agency) []Agency {
	sorted := make([]Agency, 0, len(agencies))
	for _, agency := range agencies {
		sorted = append(sorted, agency)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return sorted
}

func sortedRoutes(routes map[string]Route) []Route {
	sorted := make([]Route, 0, len(routes))
	for _, route := range routes {
		sorted = append(sorted, route)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return sorted
}
