package conflate

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"cif2gtfs.openrail.dev/internal/model"
)

// Backwards jumps beyond this tolerance mark a schedule as malformed
// ("time travel") and the whole schedule is discarded.
const timeTravelTolerance = 180

var (
	pickupActivities  = []string{"T", "TB", "U"}
	dropOffActivities = []string{"T", "TF", "D"}
)

const (
	coordinatedActivity   = "R"
	notAdvertisedActivity = "N"
)

// Bus Replacement and Bus Schedule categories.
var busCategories = []string{"BR", "BS"}

var modeByCategory = map[string]model.TransportMode{
	"OO": model.ModeRail,
	"XX": model.ModeRail,
	"XZ": model.ModeRail,
	"XC": model.ModeRail,
	"BR": model.ModeReplacementBus,
	"BS": model.ModeBus,
	"OL": model.ModeSubway,
	"SS": model.ModeFerry,
}

var activityDescriptions = map[string]string{
	"TB": "PickUpOnly",
	"TF": "SetDownOnly",
	"D":  "SetDownOnly",
	"U":  "PickUpOnly",
	"T":  "Normal",
	"R":  "RequestStop",
}

// ScheduleResults is the outcome of one assembly pass: the assembled
// schedules and an id generator seeded above the highest schedule id seen.
type ScheduleResults struct {
	Schedules   []*model.Schedule
	IDGenerator *model.IDGenerator
}

// ScheduleBuilder consumes an ordered stream of raw calling point rows and
// assembles immutable schedules, one per distinct schedule id. The stream is
// single pass: feed every row through ProcessRow, then call Results.
type ScheduleBuilder struct {
	logger        *slog.Logger
	schedules     []*model.Schedule
	stops         []model.StopTime
	prevRow       *ScheduleStopTimeRow
	departureHour int
	maxID         int
}

// NewScheduleBuilder returns a builder logging discards through logger.
func NewScheduleBuilder(logger *slog.Logger) *ScheduleBuilder {
	return &ScheduleBuilder{logger: logger, departureHour: -1}
}

// ProcessRow consumes the next calling point row. Rows must arrive grouped
// by schedule id and ordered by stop sequence.
func (b *ScheduleBuilder) ProcessRow(row ScheduleStopTimeRow) {
	if b.prevRow != nil && b.prevRow.ID != row.ID {
		b.flush()
		b.departureHour = parseHour(row)
	}

	// cancellations produce no calling points, only a calendar
	if row.STPIndicator != model.STPCancellation {
		if b.departureHour < 0 {
			b.departureHour = parseHour(row)
		}

		stop := b.createStop(row, len(b.stops)+1, b.departureHour)

		if b.prevRow != nil && b.prevRow.ID == row.ID && row.CRSCode == b.prevRow.CRSCode {
			// consecutive rows for the same location collapse into one stop;
			// a row that allows pickup or drop off wins over the buffered one
			if stop.PickupType == model.StopActivityAllowed || stop.DropOffType == model.StopActivityAllowed {
				stop.StopSequence = len(b.stops)
				b.stops[len(b.stops)-1] = stop
			}
		} else {
			b.stops = append(b.stops, stop)
		}
	}

	rowCopy := row
	b.prevRow = &rowCopy
}

// Results finishes the stream and returns the assembled schedules together
// with an id generator seeded one above the highest schedule id observed.
func (b *ScheduleBuilder) Results() *ScheduleResults {
	if b.prevRow != nil {
		b.flush()
		b.prevRow = nil
	}
	return &ScheduleResults{
		Schedules:   b.schedules,
		IDGenerator: model.NewIDGenerator(b.maxID + 1),
	}
}

func (b *ScheduleBuilder) flush() {
	if schedule := b.createSchedule(*b.prevRow, b.stops); schedule != nil {
		b.schedules = append(b.schedules, schedule)
	}
	b.stops = nil
}

func (b *ScheduleBuilder) createSchedule(row ScheduleStopTimeRow, stops []model.StopTime) *model.Schedule {
	if err := verifyStops(stops); err != nil {
		b.logger.Warn("discarding schedule with time travel",
			slog.Int("schedule_id", row.ID),
			slog.String("tuid", row.TrainUID),
			slog.String("rsid", row.RetailTrainID),
			slog.String("runs_from", row.RunsFrom.Format("2006-01-02")),
			slog.String("stp", row.STPIndicator.String()),
			slog.String("error", err.Error()))
		return nil
	}

	if row.ID > b.maxID {
		b.maxID = row.ID
	}

	// Blank or B means first and standard class, S means standard only.
	// Buses carry a blank train class which would otherwise make first
	// class fares appear available on them.
	firstClass := row.TrainClass != "S" && !contains(busCategories, row.TrainCategory)

	mode, ok := modeByCategory[row.TrainCategory]
	if !ok {
		mode = model.ModeRail
	}

	return &model.Schedule{
		ID:                  row.ID,
		StopTimes:           stops,
		TUID:                row.TrainUID,
		RSID:                row.RetailTrainID,
		Calendar:            model.NewCalendar(row.RunsFrom, row.RunsTo, row.Days),
		Mode:                mode,
		Operator:            row.ATOCCode,
		STP:                 row.STPIndicator,
		FirstClassAvailable: firstClass,
		ReservationFlag:     row.Reservations,
		Activity:            row.Activity,
	}
}

func (b *ScheduleBuilder) createStop(row ScheduleStopTimeRow, sequence, departureHour int) model.StopTime {
	var arrival, departure string

	// prefer passenger facing times, fall back to the working timetable
	if row.PublicArrivalTime != "" || row.PublicDepartureTime != "" {
		arrival = normalizeTime(row.PublicArrivalTime, departureHour)
		departure = normalizeTime(row.PublicDepartureTime, departureHour)
	} else {
		arrival = normalizeTime(row.ScheduledArrivalTime, departureHour)
		departure = normalizeTime(row.ScheduledDepartureTime, departureHour)
	}
	if arrival == "" {
		arrival = departure
	}
	if departure == "" {
		departure = arrival
	}

	activities := splitActivities(row.Activity)

	pickup := model.StopActivityNotAllowed
	if containsAny(activities, pickupActivities) && !contains(activities, notAdvertisedActivity) {
		pickup = model.StopActivityAllowed
	}
	dropOff := model.StopActivityNotAllowed
	if containsAny(activities, dropOffActivities) {
		dropOff = model.StopActivityAllowed
	}
	// a request stop coordinates both pickup and drop off
	if contains(activities, coordinatedActivity) {
		pickup = model.StopActivityCoordinated
		dropOff = model.StopActivityCoordinated
	}

	return model.StopTime{
		TripID:        row.ID,
		ArrivalTime:   arrival,
		DepartureTime: departure,
		StopID:        row.CRSCode,
		StopSequence:  sequence,
		Platform:      row.Platform,
		PickupType:    pickup,
		DropOffType:   dropOff,
		Activity:      describeActivities(row.Activity),
	}
}

// verifyStops rejects stop sequences where time runs backwards by more than
// the tolerance, either within a stop or between consecutive stops.
func verifyStops(stops []model.StopTime) error {
	var last *model.StopTime

	for i := range stops {
		stop := &stops[i]

		if diff := model.ParseTime(stop.ArrivalTime) - model.ParseTime(stop.DepartureTime); diff > timeTravelTolerance {
			return fmt.Errorf("stop %s is time traveling by %d sec", stop.StopID, diff)
		}
		if last != nil {
			if diff := model.ParseTime(last.DepartureTime) - model.ParseTime(stop.ArrivalTime); diff > timeTravelTolerance {
				return fmt.Errorf("time traveling between %s and %s by %d sec", last.StopID, stop.StopID, diff)
			}
		}
		last = stop
	}
	return nil
}

// parseHour finds the departure hour of the first usable time on a row,
// defaulting to 04 when the row carries no times at all.
func parseHour(row ScheduleStopTimeRow) int {
	for _, t := range []string{row.PublicArrivalTime, row.PublicDepartureTime, row.ScheduledArrivalTime, row.ScheduledDepartureTime} {
		if t != "" {
			return hourOf(t)
		}
	}
	return 4
}

func hourOf(t string) int {
	if len(t) < 2 {
		return 0
	}
	hour, err := strconv.Atoi(t[:2])
	if err != nil {
		return 0
	}
	return hour
}

// normalizeTime pushes a time past midnight when it sits more than 4 hours
// before the origin departure hour. The jump must be at least 4 hours so
// that passing points recorded a minute or two after the next calling point
// do not trigger a false rollover, while genuine overnight services do.
func normalizeTime(t string, originDepartureHour int) string {
	if t == "" {
		return ""
	}
	hour := hourOf(t)
	if originDepartureHour >= 4 && originDepartureHour-hour > 4 {
		return strconv.Itoa(hour+24) + t[2:]
	}
	return t
}

// splitActivities breaks a raw activity string into its two character
// tokens, trimmed of padding.
func splitActivities(activity string) []string {
	var tokens []string
	for i := 0; i < len(activity); i += 2 {
		end := i + 2
		if end > len(activity) {
			end = len(activity)
		}
		if token := strings.TrimSpace(activity[i:end]); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// describeActivities renders the recognized activity tokens as a dash
// joined annotation, e.g. "T-Normal". Dashes keep the value safe for the
// CSV loaded downstream tables.
func describeActivities(activity string) string {
	var parts []string
	for _, token := range splitActivities(activity) {
		if description, ok := activityDescriptions[token]; ok {
			parts = append(parts, token, description)
		}
	}
	return strings.Join(parts, "-")
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func containsAny(haystack, needles []string) bool {
	for _, n := range needles {
		if contains(haystack, n) {
			return true
		}
	}
	return false
}
