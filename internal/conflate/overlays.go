package conflate

import (
	"sort"

	"cif2gtfs.openrail.dev/internal/model"
)

// ApplyOverlays collapses all calendar variants sharing a logical train
// identity into a set with pairwise non-overlapping active days. On any day
// covered by more than one variant the higher precedence variant operates;
// lower precedence variants are split around it, keeping their own identity
// for the days that remain. The first surviving fragment of a variant keeps
// its original id, later fragments draw fresh ids from gen.
func ApplyOverlays[T model.OverlayRecord[T]](records []T, gen *model.IDGenerator) []T {
	groups := map[string][]T{}
	var order []string
	for _, record := range records {
		tuid := record.RecordTUID()
		if _, seen := groups[tuid]; !seen {
			order = append(order, tuid)
		}
		groups[tuid] = append(groups[tuid], record)
	}

	resolved := make([]T, 0, len(records))
	for _, tuid := range order {
		resolved = append(resolved, resolveGroup(groups[tuid], gen)...)
	}
	return resolved
}

// resolveGroup resolves the variants of a single identity. Records are
// processed from highest to lowest precedence; each one keeps only the days
// not already claimed by a senior variant.
func resolveGroup[T model.OverlayRecord[T]](records []T, gen *model.IDGenerator) []T {
	ordered := make([]T, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].RecordSTP().Rank() > ordered[j].RecordSTP().Rank()
	})

	var accepted []T
	seenHashes := map[string]struct{}{}

	for _, record := range ordered {
		fragments := []*model.Calendar{record.RecordCalendar()}
		for _, senior := range accepted {
			var remaining []*model.Calendar
			for _, fragment := range fragments {
				remaining = append(remaining, subtractCalendar(fragment, senior.RecordCalendar())...)
			}
			fragments = remaining
			if len(fragments) == 0 {
				break
			}
		}

		first := true
		for _, fragment := range fragments {
			id := record.RecordID()
			if !first {
				id = gen.Next()
			}

			clone := record.CloneRecord(fragment, id)

			// splitting can leave behind variants identical in content and
			// coverage to one already kept; drop those
			hash := clone.RecordHash() + fragment.Hash()
			if _, duplicate := seenHashes[hash]; duplicate {
				continue
			}
			seenHashes[hash] = struct{}{}

			accepted = append(accepted, clone)
			first = false
		}
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].RecordCalendar().RunsFrom.Before(accepted[j].RecordCalendar().RunsFrom)
	})
	return accepted
}

// subtractCalendar removes the senior calendar's active days from c,
// returning the fragments that still have at least one active day: the
// range before the senior calendar starts, the shared range with the
// senior's active days excluded, and the range after it ends.
func subtractCalendar(c, senior *model.Calendar) []*model.Calendar {
	if c.Overlap(senior) == model.OverlapNone {
		return []*model.Calendar{c}
	}

	var fragments []*model.Calendar

	if c.RunsFrom.Before(senior.RunsFrom) {
		before := c.Clone(c.RunsFrom, senior.RunsFrom.AddDate(0, 0, -1))
		if before.HasActiveDays() {
			fragments = append(fragments, before)
		}
	}

	sharedFrom := c.RunsFrom
	if senior.RunsFrom.After(sharedFrom) {
		sharedFrom = senior.RunsFrom
	}
	sharedTo := c.RunsTo
	if senior.RunsTo.Before(sharedTo) {
		sharedTo = senior.RunsTo
	}
	if !sharedFrom.After(sharedTo) {
		middle := c.Clone(sharedFrom, sharedTo).Exclude(senior.ActiveDaysBetween(sharedFrom, sharedTo))
		if middle.HasActiveDays() {
			fragments = append(fragments, middle)
		}
	}

	if c.RunsTo.After(senior.RunsTo) {
		after := c.Clone(senior.RunsTo.AddDate(0, 0, 1), c.RunsTo)
		if after.HasActiveDays() {
			fragments = append(fragments, after)
		}
	}

	return fragments
}
