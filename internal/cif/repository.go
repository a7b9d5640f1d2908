// Package cif reads the staged CIF timetable tables and streams them into
// the conflation engine in a vaguely GTFS-ish shape.
package cif

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"cif2gtfs.openrail.dev/internal/conflate"
	"cif2gtfs.openrail.dev/internal/logging"
	"cif2gtfs.openrail.dev/internal/model"
)

// Repository provides ordered access to the staged schedule, stop time and
// association rows produced by the feed import.
type Repository struct {
	db            *sql.DB
	logger        *slog.Logger
	horizonMonths int
}

// NewRepository wraps an open staging database. horizonMonths bounds how far
// ahead of today schedules and associations are read.
func NewRepository(db *sql.DB, logger *slog.Logger, horizonMonths int) *Repository {
	return &Repository{db: db, logger: logger, horizonMonths: horizonMonths}
}

const scheduleRowQuery = `
	SELECT
		s.id,
		s.train_uid,
		COALESCE(e.retail_train_id, ''),
		s.runs_from,
		s.runs_to,
		s.monday, s.tuesday, s.wednesday, s.thursday, s.friday, s.saturday, s.sunday,
		CASE WHEN s.train_status = 'S' THEN 'SS' ELSE COALESCE(s.train_category, '') END,
		s.stp_indicator,
		COALESCE(s.reservations, ''),
		COALESCE(s.train_class, ''),
		COALESCE(e.atoc_code, ''),
		COALESCE(st.public_arrival_time, ''),
		COALESCE(st.public_departure_time, ''),
		COALESCE(st.scheduled_arrival_time, st.scheduled_pass_time, ''),
		COALESCE(st.scheduled_departure_time, st.scheduled_pass_time, ''),
		COALESCE(st.platform, ''),
		COALESCE(st.activity, ''),
		COALESCE(st.crs_code, '')
	FROM schedule s
	LEFT JOIN schedule_extra e ON e.schedule = s.id
	LEFT JOIN stop_time st ON st.schedule = s.id
	WHERE (st.id IS NULL OR st.crs_code IS NOT NULL)
	AND s.runs_from < date('now', ?)
	AND s.runs_to >= date('now')
	ORDER BY s.stp_indicator DESC, s.id, st.id`

// Schedules streams every calling point row within the horizon through a
// schedule builder and returns the assembled schedules plus the id
// generator seeded from the highest schedule id.
func (r *Repository) Schedules(ctx context.Context) (results *conflate.ScheduleResults, err error) {
	rows, err := r.db.QueryContext(ctx, scheduleRowQuery, fmt.Sprintf("+%d months", r.horizonMonths))
	if err != nil {
		return nil, fmt.Errorf("error querying schedule rows: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, r.logger, "schedule row query")

	builder := conflate.NewScheduleBuilder(r.logger)

	for rows.Next() {
		row, err := scanScheduleRow(rows)
		if err != nil {
			return nil, err
		}
		builder.ProcessRow(row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading schedule rows: %w", err)
	}

	return builder.Results(), nil
}

func scanScheduleRow(rows *sql.Rows) (conflate.ScheduleStopTimeRow, error) {
	var row conflate.ScheduleStopTimeRow
	var runsFrom, runsTo, stp string
	var monday, tuesday, wednesday, thursday, friday, saturday, sunday int

	err := rows.Scan(
		&row.ID,
		&row.TrainUID,
		&row.RetailTrainID,
		&runsFrom,
		&runsTo,
		&monday, &tuesday, &wednesday, &thursday, &friday, &saturday, &sunday,
		&row.TrainCategory,
		&stp,
		&row.Reservations,
		&row.TrainClass,
		&row.ATOCCode,
		&row.PublicArrivalTime,
		&row.PublicDepartureTime,
		&row.ScheduledArrivalTime,
		&row.ScheduledDepartureTime,
		&row.Platform,
		&row.Activity,
		&row.CRSCode,
	)
	if err != nil {
		return row, fmt.Errorf("error scanning schedule row: %w", err)
	}

	if row.RunsFrom, err = parseDate(runsFrom); err != nil {
		return row, err
	}
	if row.RunsTo, err = parseDate(runsTo); err != nil {
		return row, err
	}
	if row.STPIndicator, err = model.ParseSTP(stp); err != nil {
		return row, err
	}
	row.Days = weekdayFlags(sunday, monday, tuesday, wednesday, thursday, friday, saturday)

	return row, nil
}

const associationQuery = `
	SELECT
		a.id, a.base_uid, a.assoc_uid, a.crs_code,
		COALESCE(a.assoc_date_ind, ''), COALESCE(a.assoc_cat, ''),
		a.monday, a.tuesday, a.wednesday, a.thursday, a.friday, a.saturday, a.sunday,
		a.start_date, a.end_date, a.stp_indicator
	FROM association a
	WHERE a.start_date < date('now', ?)
	AND a.end_date >= date('now')
	ORDER BY a.stp_indicator DESC, a.id`

// Associations returns every join/split record within the horizon, ordered
// by STP indicator then id.
func (r *Repository) Associations(ctx context.Context) ([]*model.Association, error) {
	rows, err := r.db.QueryContext(ctx, associationQuery, fmt.Sprintf("+%d months", r.horizonMonths))
	if err != nil {
		return nil, fmt.Errorf("error querying associations: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, r.logger, "association query")

	var associations []*model.Association
	for rows.Next() {
		var id int
		var baseUID, assocUID, crs, dateInd, category, startDate, endDate, stp string
		var monday, tuesday, wednesday, thursday, friday, saturday, sunday int

		err := rows.Scan(
			&id, &baseUID, &assocUID, &crs, &dateInd, &category,
			&monday, &tuesday, &wednesday, &thursday, &friday, &saturday, &sunday,
			&startDate, &endDate, &stp,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning association row: %w", err)
		}

		association, err := buildAssociation(
			id, baseUID, assocUID, crs, dateInd, category, startDate, endDate, stp,
			weekdayFlags(sunday, monday, tuesday, wednesday, thursday, friday, saturday),
		)
		if err != nil {
			r.logger.Warn("skipping malformed association row", slog.Int("association_id", id), slog.String("error", err.Error()))
			continue
		}
		associations = append(associations, association)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading association rows: %w", err)
	}

	return associations, nil
}

func buildAssociation(id int, baseUID, assocUID, crs, dateInd, category, startDate, endDate, stp string, days model.Days) (*model.Association, error) {
	from, err := parseDate(startDate)
	if err != nil {
		return nil, err
	}
	to, err := parseDate(endDate)
	if err != nil {
		return nil, err
	}
	indicator, err := model.ParseDateIndicator(dateInd)
	if err != nil {
		return nil, err
	}
	assocType, err := model.ParseAssociationType(category)
	if err != nil {
		return nil, err
	}
	precedence, err := model.ParseSTP(stp)
	if err != nil {
		return nil, err
	}

	return &model.Association{
		ID:            id,
		BaseTUID:      baseUID,
		AssocTUID:     assocUID,
		Location:      crs,
		DateIndicator: indicator,
		Category:      assocType,
		Calendar:      model.NewCalendar(from, to, days),
		STP:           precedence,
	}, nil
}

const transferAssociationQuery = `
	SELECT a.id
	FROM association a
	WHERE a.assoc_uid IN (
		SELECT s.train_uid FROM schedule s
		JOIN schedule_extra e ON e.schedule = s.id
		WHERE e.atoc_code = ?
	)
	AND a.assoc_cat IN ('VV', 'JJ')`

// TransferAssociationIDs finds the associations of one operator whose
// original associated schedule should stay visible alongside the merge,
// used for sleeper portions where the connection is sold separately.
func (r *Repository) TransferAssociationIDs(ctx context.Context, operator string) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, transferAssociationQuery, operator)
	if err != nil {
		return nil, fmt.Errorf("error querying transfer associations: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, r.logger, "transfer association query")

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning transfer association id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading transfer association ids: %w", err)
	}
	return ids, nil
}

func parseDate(value string) (time.Time, error) {
	// staged dates may carry a time component depending on the importer
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return model.Date(t.Year(), t.Month(), t.Day()), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}

func weekdayFlags(sunday, monday, tuesday, wednesday, thursday, friday, saturday int) model.Days {
	return model.Days{
		sunday == 1,
		monday == 1,
		tuesday == 1,
		wednesday == 1,
		thursday == 1,
		friday == 1,
		saturday == 1,
	}
}
