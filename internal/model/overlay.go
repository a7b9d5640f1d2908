package model

import "fmt"

// STP is the short-term-planning indicator attached to every schedule and
// association variant. It ranks which variant wins on an overlapping
// calendar day.
type STP int

const (
	STPPermanent STP = iota
	STPExtra
	STPOverlay
	STPNew
	STPCancellation
)

// ParseSTP decodes the single character indicator used by the CIF feed.
func ParseSTP(code string) (STP, error) {
	switch code {
	case "P":
		return STPPermanent, nil
	case "O":
		return STPOverlay, nil
	case "N":
		return STPNew, nil
	case "C":
		return STPCancellation, nil
	case "X":
		return STPExtra, nil
	}
	return STPPermanent, fmt.Errorf("unknown STP indicator %q", code)
}

// Rank orders indicators by seniority: on a day covered by more than one
// variant the higher rank determines what operates. Cancellation is always
// highest and Permanent always lowest.
func (s STP) Rank() int {
	switch s {
	case STPCancellation:
		return 4
	case STPNew:
		return 3
	case STPOverlay:
		return 2
	case STPExtra:
		return 1
	case STPPermanent:
		return 0
	}
	return 0
}

func (s STP) String() string {
	switch s {
	case STPPermanent:
		return "P"
	case STPOverlay:
		return "O"
	case STPNew:
		return "N"
	case STPCancellation:
		return "C"
	case STPExtra:
		return "X"
	}
	return "?"
}

// OverlayRecord is implemented by any entity that takes part in overlay
// resolution. Resolution never mutates a record: it produces new records
// through CloneRecord with a replacement calendar and a fresh id.
type OverlayRecord[T any] interface {
	RecordID() int
	RecordTUID() string
	RecordSTP() STP
	RecordCalendar() *Calendar
	RecordHash() string
	CloneRecord(calendar *Calendar, id int) T
}

// IDGenerator mints process-local schedule ids. It is an explicit value
// threaded through every operation that may create an identity, seeded one
// above the maximum id observed during schedule assembly.
type IDGenerator struct {
	next int
}

// NewIDGenerator returns a generator whose first value is next.
func NewIDGenerator(next int) *IDGenerator {
	return &IDGenerator{next: next}
}

// Next returns a fresh id. Ids never repeat within a run.
func (g *IDGenerator) Next() int {
	id := g.next
	g.next++
	return id
}
