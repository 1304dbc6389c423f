package hours

import (
	"fmt"
	"sort"
	"time"
)

// Period is the closed interval of instants reachable going forward from
// Start to End.
type Period struct {
	Start Temporal
	End   Temporal
}

func NewPeriod(start, end Temporal) (Period, error) {
	if start.IsZero() || end.IsZero() {
		return Period{}, fmt.Errorf("%w: no fields", ErrNonContiguousFields)
	}
	if !start.sameFields(end) {
		return Period{}, fmt.Errorf("%w: %v / %v", ErrFieldMismatch, start.Fields(), end.Fields())
	}
	return Period{Start: start, End: end}, nil
}

// AlwaysOpen reports whether the period covers the whole cycle.
func (p Period) AlwaysOpen() bool {
	if p.Start.IsZero() {
		return false
	}
	return p.End.Increment().Equal(p.Start)
}

func (p Period) wraps() bool {
	return p.Start.Compare(p.End) > 0
}

func (p Period) contains(t Temporal) bool {
	if p.wraps() {
		return p.Start.Compare(t) <= 0 || p.End.Compare(t) >= 0
	}
	return p.Start.Compare(t) <= 0 && p.End.Compare(t) >= 0
}

// Contains reports whether the instant, read at the period's precision, lies
// within the period.
func (p Period) Contains(at time.Time) bool {
	if p.Start.IsZero() {
		return false
	}
	if p.wraps() {
		return p.Start.CompareTime(at) <= 0 || p.End.CompareTime(at) >= 0
	}
	return p.Start.CompareTime(at) <= 0 && p.End.CompareTime(at) >= 0
}

// TimeBeforeOpening is the time left until the period next opens. ok is false
// when the period is always open.
func (p Period) TimeBeforeOpening(at time.Time) (d time.Duration, ok bool) {
	if p.Start.IsZero() || p.AlwaysOpen() {
		return 0, false
	}
	return p.Start.Since(at), true
}

// OpeningTrigger fires when the period opens. ok is false when the period is
// always open.
func (p Period) OpeningTrigger() (Trigger, bool) {
	if p.Start.IsZero() || p.AlwaysOpen() {
		return Trigger{}, false
	}
	return NewTrigger(p.Start), true
}

// ClosingTrigger fires at the first closed instant after the period.
func (p Period) ClosingTrigger() (Trigger, bool) {
	if p.Start.IsZero() || p.AlwaysOpen() {
		return Trigger{}, false
	}
	return NewTrigger(p.End.Increment()), true
}

func (p Period) Equal(o Period) bool {
	return p.Start.Equal(o.Start) && p.End.Equal(o.End)
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// MergePeriods collapses overlapping and adjacent periods. The result covers
// exactly the same instants as the input and is ordered by start.
func MergePeriods(periods []Period) []Period {
	sorted := append([]Period(nil), periods...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if c := sorted[i].Start.Compare(sorted[j].Start); c != 0 {
			return c < 0
		}
		return sorted[i].End.Compare(sorted[j].End) < 0
	})

	merged := make([]Period, 0, len(sorted))
	var current Period
	started := false
	for _, p := range sorted {
		switch {
		case !started:
			current = p
			started = true
		case current.contains(p.Start):
			if p.End.Compare(current.End) > 0 {
				current = Period{Start: current.Start, End: p.End}
			}
		case current.End.Increment().Equal(p.Start):
			current = Period{Start: current.Start, End: p.End}
		default:
			merged = append(merged, current)
			current = p
		}
	}
	if started {
		merged = append(merged, current)
	}
	return merged
}
