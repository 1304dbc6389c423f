package transitions

import (
	"time"

	"github.com/md-rashed-zaman/openhours/libs/hours"
	"github.com/md-rashed-zaman/openhours/services/hours-service/internal/outbox"
)

// Decision is the outcome of evaluating one business at a point in time.
type Decision struct {
	Open bool
	// Changed is true when Open differs from the last recorded state, or no
	// state was recorded yet.
	Changed bool
	// NextChangeAt is the next opening (when closed) or closing (when open),
	// if the hours have one.
	NextChangeAt *time.Time
	NextCheckAt  time.Time
}

// Decide evaluates bh in loc at now. When the hours never change state the
// next check is scheduled idle from now.
func Decide(bh *hours.BusinessHours, loc *time.Location, prev *bool, now time.Time, idle time.Duration) Decision {
	at := now.In(loc)
	d := Decision{Open: bh.IsOpen(at)}
	d.Changed = prev == nil || *prev != d.Open

	var (
		next time.Time
		ok   bool
	)
	if d.Open {
		next, ok = bh.NextClosing(at)
	} else {
		next, ok = bh.NextOpening(at)
	}
	if ok {
		next = next.UTC()
		d.NextChangeAt = &next
		d.NextCheckAt = next
	} else {
		d.NextCheckAt = now.Add(idle).UTC()
	}
	return d
}

// EventType names the event published for a transition.
func (d Decision) EventType() string {
	if d.Open {
		return outbox.EventHoursOpened
	}
	return outbox.EventHoursClosed
}
