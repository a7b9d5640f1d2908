// Package app wires the staging reader, the conflation engine and the GTFS
// writer into one import run.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"cif2gtfs.openrail.dev/gtfsdb"
	"cif2gtfs.openrail.dev/internal/appconf"
	"cif2gtfs.openrail.dev/internal/cif"
	"cif2gtfs.openrail.dev/internal/conflate"
	"cif2gtfs.openrail.dev/internal/logging"

	_ "modernc.org/sqlite"
)

// Application holds the dependencies for an import run.
type Application struct {
	Config appconf.AppConfig
	Env    appconf.Environment
	Logger *slog.Logger
}

// RunImport reads the staged CIF tables, conflates the timetable and writes
// the GTFS shaped output dataset.
//
// The pipeline runs strictly in order: schedule assembly, overlay
// resolution of schedules and associations, association merging, emission.
// Every step operates on immutable in-memory entities, so a failed run
// leaves the staging database untouched.
func (app *Application) RunImport(ctx context.Context) (err error) {
	started := time.Now()

	staging, err := sql.Open("sqlite", app.Config.StagingDBPath)
	if err != nil {
		return fmt.Errorf("error opening staging database: %w", err)
	}
	defer logging.SafeCloseWithLogging(staging, app.Logger, "staging database")

	repository := cif.NewRepository(staging, app.Logger, app.Config.ScheduleHorizonMonths)

	results, err := repository.Schedules(ctx)
	if err != nil {
		return fmt.Errorf("error loading schedules: %w", err)
	}
	logging.LogOperation(app.Logger, "assembled schedules",
		slog.Int("count", len(results.Schedules)),
		slog.Duration("duration", time.Since(started)))

	associations, err := repository.Associations(ctx)
	if err != nil {
		return fmt.Errorf("error loading associations: %w", err)
	}

	transferIDs := append([]int(nil), app.Config.TransferAssociations...)
	if app.Config.TransferOperator != "" {
		operatorIDs, err := repository.TransferAssociationIDs(ctx, app.Config.TransferOperator)
		if err != nil {
			return fmt.Errorf("error loading transfer associations: %w", err)
		}
		transferIDs = append(transferIDs, operatorIDs...)
	}

	gen := results.IDGenerator

	schedules := conflate.ApplyOverlays(results.Schedules, gen)
	resolvedAssociations := conflate.ApplyOverlays(associations, gen)
	logging.LogOperation(app.Logger, "resolved overlays",
		slog.Int("schedules", len(schedules)),
		slog.Int("associations", len(resolvedAssociations)))

	index := conflate.ApplyAssociations(
		conflate.IndexSchedules(schedules),
		conflate.IndexAssociations(resolvedAssociations),
		transferIDs,
		gen,
		app.Logger,
	)

	out, err := gtfsdb.NewClient(gtfsdb.NewConfig(app.Config.OutputDBPath, app.Env), app.Logger)
	if err != nil {
		return err
	}
	defer logging.HandleDeferredError(&err, out.Close, app.Logger, "closing GTFS database")

	if err := out.WriteSchedules(index, app.Config.AgencyName, app.Config.AgencyURL); err != nil {
		return fmt.Errorf("error writing GTFS dataset: %w", err)
	}

	logging.LogOperation(app.Logger, "import complete",
		slog.Duration("duration", time.Since(started)))

	return nil
}
