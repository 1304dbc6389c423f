// Package hours parses business hours specifications such as
//
//	wday{Mon-Fri} hr{9am-5pm}, wday{Sat} hr{10-13}
//
// into a set of weekly periods, answers whether an instant falls inside them
// and derives the cron expressions firing when the business opens or closes.
//
// Instants are read in their own location; callers pick the time zone.
package hours

import (
	"math"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
)

// Unbounded is returned by TimeBeforeOpening when there is no wait to report:
// the business is always open or never opens.
const Unbounded int64 = math.MaxInt64

type BusinessHours struct {
	text    string
	periods []Period
	opening []Trigger
	closing []Trigger
	opens   []*cron.SpecSchedule
	closes  []*cron.SpecSchedule
}

// New parses text. Sub-expressions are separated by commas; each one holds
// min{...}, hr{...} and wday{...} clauses, and an omitted clause covers its
// whole field.
func New(text string) (*BusinessHours, error) {
	periods, err := parse(text)
	if err != nil {
		return nil, err
	}
	bh := &BusinessHours{text: text, periods: periods}

	var opening, closing []Trigger
	for _, p := range periods {
		if tr, ok := p.OpeningTrigger(); ok {
			opening = append(opening, tr)
		}
		if tr, ok := p.ClosingTrigger(); ok {
			closing = append(closing, tr)
		}
	}
	bh.opening = MergeTriggers(opening)
	bh.closing = MergeTriggers(closing)

	if bh.opens, err = schedules(bh.opening); err != nil {
		return nil, err
	}
	if bh.closes, err = schedules(bh.closing); err != nil {
		return nil, err
	}
	return bh, nil
}

// NewOptional is New for a specification that may be absent.
func NewOptional(text *string) (*BusinessHours, error) {
	if text == nil {
		return nil, ErrMissingSpec
	}
	return New(*text)
}

func schedules(triggers []Trigger) ([]*cron.SpecSchedule, error) {
	out := make([]*cron.SpecSchedule, 0, len(triggers))
	for _, tr := range triggers {
		s, err := tr.Schedule()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (bh *BusinessHours) IsOpen(at time.Time) bool {
	for _, p := range bh.periods {
		if p.Contains(at) {
			return true
		}
	}
	return false
}

// AlwaysOpen reports whether every instant is within business hours.
func (bh *BusinessHours) AlwaysOpen() bool {
	for _, p := range bh.periods {
		if p.AlwaysOpen() {
			return true
		}
	}
	return false
}

// TimeBeforeOpening returns how long until the next opening edge of any
// period, truncated to unit. While open this is the wait for the next opening
// after the current one. It is Unbounded when the business is always open or
// has no periods at all.
func (bh *BusinessHours) TimeBeforeOpening(at time.Time, unit time.Duration) int64 {
	if unit <= 0 {
		unit = time.Nanosecond
	}
	if len(bh.periods) == 0 || bh.AlwaysOpen() {
		return Unbounded
	}
	best := time.Duration(math.MaxInt64)
	for _, p := range bh.periods {
		if d, ok := p.TimeBeforeOpening(at); ok && d < best {
			best = d
		}
	}
	return int64(best / unit)
}

// lookahead bounds the search for a transition. Periods repeat weekly at most.
const lookahead = 8 * 24 * time.Hour

// NextOpening is the first instant strictly after t at which the business
// goes from closed to open. ok is false when it never does.
func (bh *BusinessHours) NextOpening(at time.Time) (time.Time, bool) {
	return bh.next(bh.opens, at, true)
}

// NextClosing is the first instant strictly after t at which the business
// goes from open to closed.
func (bh *BusinessHours) NextClosing(at time.Time) (time.Time, bool) {
	return bh.next(bh.closes, at, false)
}

// next walks the fire times of scheds in order and returns the first one that
// is a real edge. Periods touching the end of the cycle are not merged, so a
// trigger can fire where the state carries on unchanged.
func (bh *BusinessHours) next(scheds []*cron.SpecSchedule, at time.Time, opens bool) (time.Time, bool) {
	if len(scheds) == 0 {
		return time.Time{}, false
	}
	local := make([]cron.SpecSchedule, len(scheds))
	for i, s := range scheds {
		local[i] = *s
		local[i].Location = at.Location()
	}

	limit := at.Add(lookahead)
	cursor := at
	for {
		var best time.Time
		for i := range local {
			n := local[i].Next(cursor)
			if n.IsZero() {
				continue
			}
			if best.IsZero() || n.Before(best) {
				best = n
			}
		}
		if best.IsZero() || best.After(limit) {
			return time.Time{}, false
		}
		if bh.IsOpen(best) == opens && bh.IsOpen(best.Add(-time.Nanosecond)) != opens {
			return best, true
		}
		cursor = best
	}
}

// Periods returns the merged periods, ordered by start.
func (bh *BusinessHours) Periods() []Period {
	return append([]Period(nil), bh.periods...)
}

// OpeningTriggers returns the cron expressions firing when the business opens,
// weekdays numbered 1 (Monday) to 7 (Sunday).
func (bh *BusinessHours) OpeningTriggers() []string {
	return render(bh.opening)
}

// ClosingTriggers returns the cron expressions firing at the first closed
// minute after each period.
func (bh *BusinessHours) ClosingTriggers() []string {
	return render(bh.closing)
}

func render(triggers []Trigger) []string {
	out := make([]string, 0, len(triggers))
	for _, tr := range triggers {
		out = append(out, tr.String())
	}
	sort.Strings(out)
	return out
}

// Equal compares the hours covered, not the text they were written as.
func (bh *BusinessHours) Equal(o *BusinessHours) bool {
	if bh == nil || o == nil {
		return bh == o
	}
	if len(bh.periods) != len(o.periods) {
		return false
	}
	for i := range bh.periods {
		if !bh.periods[i].Equal(o.periods[i]) {
			return false
		}
	}
	return true
}

func (bh *BusinessHours) String() string {
	return bh.text
}
