package hours

import (
	"testing"
	"time"
)

func TestField_Domains(t *testing.T) {
	cases := []struct {
		f        Field
		min, max int
		unit     Unit
		cycle    Unit
	}{
		{MinuteOfHour, 0, 59, Minutes, Hours},
		{HourOfDay, 0, 23, Hours, Days},
		{DayOfWeek, 1, 7, Days, Weeks},
	}
	for _, c := range cases {
		if c.f.Min() != c.min || c.f.Max() != c.max {
			t.Fatalf("%s: expected [%d,%d], got [%d,%d]", c.f, c.min, c.max, c.f.Min(), c.f.Max())
		}
		if c.f.Unit() != c.unit || c.f.RangeUnit() != c.cycle {
			t.Fatalf("%s: expected %s/%s, got %s/%s", c.f, c.unit, c.cycle, c.f.Unit(), c.f.RangeUnit())
		}
		if c.f.Size() != len(c.f.domain()) {
			t.Fatalf("%s: size %d does not match domain %v", c.f, c.f.Size(), c.f.domain())
		}
	}
	if DayOfMonth.Fixed() {
		t.Fatal("expected day-of-month to have a variable range")
	}
}

func TestField_Of(t *testing.T) {
	// Sunday.
	ts := time.Date(2014, 4, 27, 13, 45, 10, 0, time.UTC)
	if got := DayOfWeek.of(ts); got != 7 {
		t.Fatalf("expected sunday to be 7, got %d", got)
	}
	if got := HourOfDay.of(ts); got != 13 {
		t.Fatalf("expected hour 13, got %d", got)
	}
	if got := MinuteOfHour.of(ts); got != 45 {
		t.Fatalf("expected minute 45, got %d", got)
	}
	if got := DayOfWeek.of(ts.AddDate(0, 0, 1)); got != 1 {
		t.Fatalf("expected monday to be 1, got %d", got)
	}
}
