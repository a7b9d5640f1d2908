package conflate

import (
	"log/slog"

	"cif2gtfs.openrail.dev/internal/model"
)

// ScheduleIndex maps a train identity (TUID) to its calendar variants.
type ScheduleIndex map[string][]*model.Schedule

// AssociationIndex groups associations by their synthetic base/associated
// identity, preserving first-seen order. When one associated train takes
// part in associations with several base trains, the first association in
// feed order consumes it, so application order must be stable.
type AssociationIndex struct {
	order  []string
	groups map[string][]*model.Association
}

// IndexSchedules groups schedules by TUID preserving input order.
func IndexSchedules(schedules []*model.Schedule) ScheduleIndex {
	index := ScheduleIndex{}
	for _, schedule := range schedules {
		index[schedule.TUID] = append(index[schedule.TUID], schedule)
	}
	return index
}

// IndexAssociations groups associations by their synthetic identity.
func IndexAssociations(associations []*model.Association) AssociationIndex {
	index := AssociationIndex{groups: map[string][]*model.Association{}}
	for _, association := range associations {
		tuid := association.RecordTUID()
		if _, seen := index.groups[tuid]; !seen {
			index.order = append(index.order, tuid)
		}
		index.groups[tuid] = append(index.groups[tuid], association)
	}
	return index
}

// ApplyAssociations walks every association, matches associated schedules
// against base schedules by calendar overlap, and applies the join or split.
//
// Splits prepend the base schedule (origin to the split point) to the
// associated schedule; joins append the base schedule (join point to
// destination) to it. The merged schedule replaces the associated schedule
// in the index, together with any clones covering days the associated train
// runs outside the association window.
//
// Associations whose id appears in transferAssociationIDs additionally keep
// the associated train's own portion visible as an extra schedule, giving
// riders the through service and the connection as separate options.
func ApplyAssociations(
	schedulesByTUID ScheduleIndex,
	associationsByTUID AssociationIndex,
	transferAssociationIDs []int,
	gen *model.IDGenerator,
	logger *slog.Logger,
) ScheduleIndex {
	transferIDs := map[int]struct{}{}
	for _, id := range transferAssociationIDs {
		transferIDs[id] = struct{}{}
	}

	for _, tuid := range associationsByTUID.order {
		for _, association := range associationsByTUID.groups[tuid] {
			// after overlay resolution a cancellation association only
			// masks lower precedence days, it performs no merge itself
			if association.STP == model.STPCancellation || association.Category == model.AssociationNA {
				continue
			}

			_, keepOriginal := transferIDs[association.ID]

			// the association calendar expressed in associated train days
			assocCalendar := association.AlignedCalendar()

			for _, assocSchedule := range findSchedules(schedulesByTUID[association.AssocTUID], assocCalendar) {
				// candidate base schedules run on the same or previous day
				// of the associated schedule, not of the association
				baseCalendar := association.BaseSearchCalendar(assocSchedule.Calendar)

				for _, baseSchedule := range findSchedules(schedulesByTUID[association.BaseTUID], baseCalendar) {
					produced := association.Apply(baseSchedule, assocSchedule, gen, keepOriginal)
					replacement, substitutes := produced[0], produced[1:]

					if replacement == assocSchedule {
						// junction missing from one of the schedules
						logger.Warn("association junction missing, merge skipped", association.LogAttrs()...)
						continue
					}

					schedulesByTUID[replacement.TUID] = append(schedulesByTUID[replacement.TUID], replacement)

					if keepOriginal {
						extra := association.SliceSchedule(replacement).WithTUID(assocSchedule.TUID)

						if len(extra.StopTimes) > 0 {
							schedulesByTUID[assocSchedule.TUID] = append(
								schedulesByTUID[assocSchedule.TUID],
								extra.CloneRecord(assocSchedule.Calendar, gen.Next()),
							)
						} else {
							logger.Warn("transfer slice has no calling points, skipped", association.LogAttrs()...)
						}
					}

					// the original associated schedule gives way to the
					// substitutes covering its out-of-association days
					schedulesByTUID[assocSchedule.TUID] = replaceSchedule(
						schedulesByTUID[assocSchedule.TUID], assocSchedule, substitutes,
					)
				}
			}
		}
	}

	return schedulesByTUID
}

// findSchedules returns the schedules whose calendar overlaps the given one.
func findSchedules(schedules []*model.Schedule, calendar *model.Calendar) []*model.Schedule {
	var matches []*model.Schedule
	for _, schedule := range schedules {
		if calendar.Overlap(schedule.Calendar) != model.OverlapNone {
			matches = append(matches, schedule)
		}
	}
	return matches
}

// replaceSchedule swaps target for the substitutes in place of its original
// position. When the target has already been replaced by an earlier pairing
// the substitutes are appended instead so no coverage is lost.
func replaceSchedule(schedules []*model.Schedule, target *model.Schedule, substitutes []*model.Schedule) []*model.Schedule {
	for i, schedule := range schedules {
		if schedule == target {
			replaced := make([]*model.Schedule, 0, len(schedules)-1+len(substitutes))
			replaced = append(replaced, schedules[:i]...)
			replaced = append(replaced, substitutes...)
			replaced = append(replaced, schedules[i+1:]...)
			return replaced
		}
	}
	return append(schedules, substitutes...)
}
