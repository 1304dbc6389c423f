package hours

import (
	"errors"
	"testing"
	"time"
)

func mustTemporal(t *testing.T, values map[Field]int) Temporal {
	t.Helper()
	tp, err := NewTemporal(values)
	if err != nil {
		t.Fatalf("NewTemporal(%v) failed: %v", values, err)
	}
	return tp
}

func clock(h, m, s int) time.Time {
	return time.Date(2014, 4, 22, h, m, s, 0, time.UTC)
}

func TestNewTemporal_NonContiguousFields(t *testing.T) {
	_, err := NewTemporal(map[Field]int{SecondOfMinute: 0, HourOfDay: 0})
	if !errors.Is(err, ErrNonContiguousFields) {
		t.Fatalf("expected ErrNonContiguousFields, got %v", err)
	}
}

func TestNewTemporal_VariableRangeField(t *testing.T) {
	_, err := NewTemporal(map[Field]int{DayOfMonth: 1})
	if !errors.Is(err, ErrVariableRangeField) {
		t.Fatalf("expected ErrVariableRangeField, got %v", err)
	}
}

func TestNewTemporal_OutOfRange(t *testing.T) {
	_, err := NewTemporal(map[Field]int{HourOfDay: 24})
	if !errors.Is(err, ErrValueOutOfRange) {
		t.Fatalf("expected ErrValueOutOfRange, got %v", err)
	}
	if _, err := NewTemporal(nil); err == nil {
		t.Fatal("expected error for empty field set")
	}
}

func TestTemporal_Precision(t *testing.T) {
	tp := mustTemporal(t, map[Field]int{HourOfDay: 0, MinuteOfHour: 0})
	if tp.Precision() != Minutes {
		t.Fatalf("expected minutes, got %s", tp.Precision())
	}
	tp = mustTemporal(t, map[Field]int{HourOfDay: 0, MinuteOfHour: 0, SecondOfMinute: 0})
	if tp.Precision() != Seconds {
		t.Fatalf("expected seconds, got %s", tp.Precision())
	}
}

func TestTemporal_Supports(t *testing.T) {
	tp := mustTemporal(t, map[Field]int{DayOfWeek: 1})
	if !tp.Supports(DayOfWeek) || tp.Supports(HourOfDay) {
		t.Fatalf("unexpected supported fields %v", tp.Fields())
	}
	if !tp.SupportsUnit(Days) || tp.SupportsUnit(Weeks) {
		t.Fatal("expected only days to be supported")
	}
	if _, err := tp.Get(HourOfDay); !errors.Is(err, ErrUnsupportedField) {
		t.Fatalf("expected ErrUnsupportedField, got %v", err)
	}
	if v, err := tp.Get(DayOfWeek); err != nil || v != 1 {
		t.Fatalf("expected 1, got %d (%v)", v, err)
	}
}

func TestTemporal_With(t *testing.T) {
	tp := mustTemporal(t, map[Field]int{DayOfWeek: 1, HourOfDay: 0})
	next, err := tp.With(DayOfWeek, 2)
	if err != nil {
		t.Fatalf("With failed: %v", err)
	}
	if v, _ := next.Get(DayOfWeek); v != 2 {
		t.Fatalf("expected day 2, got %d", v)
	}
	if v, _ := next.Get(HourOfDay); v != 0 {
		t.Fatalf("expected hour 0, got %d", v)
	}
	if v, _ := tp.Get(DayOfWeek); v != 1 {
		t.Fatalf("original modified: day %d", v)
	}

	if _, err := tp.With(MinuteOfHour, 0); !errors.Is(err, ErrUnsupportedField) {
		t.Fatalf("expected ErrUnsupportedField, got %v", err)
	}
	sec := mustTemporal(t, map[Field]int{SecondOfMinute: 0})
	if _, err := sec.With(SecondOfMinute, 61); !errors.Is(err, ErrValueOutOfRange) {
		t.Fatalf("expected ErrValueOutOfRange, got %v", err)
	}
}

func TestTemporal_Plus(t *testing.T) {
	base := mustTemporal(t, map[Field]int{HourOfDay: 0, MinuteOfHour: 0})
	cases := []struct {
		amount       int64
		unit         Unit
		hour, minute int
	}{
		{1, Minutes, 0, 1},
		{60, Minutes, 1, 0},
		{1440, Minutes, 0, 0},
		{1, Hours, 1, 0},
		{24, Hours, 0, 0},
		{-1, Minutes, 23, 59},
		{-60, Minutes, 23, 0},
		{-1440, Minutes, 0, 0},
		{-1, Hours, 23, 0},
		{-24, Hours, 0, 0},
	}
	for _, c := range cases {
		got, err := base.Plus(c.amount, c.unit)
		if err != nil {
			t.Fatalf("Plus(%d, %s) failed: %v", c.amount, c.unit, err)
		}
		h, _ := got.Get(HourOfDay)
		m, _ := got.Get(MinuteOfHour)
		if h != c.hour || m != c.minute {
			t.Fatalf("Plus(%d, %s): expected %02d:%02d, got %02d:%02d", c.amount, c.unit, c.hour, c.minute, h, m)
		}
	}

	minus, err := base.Minus(1, Hours)
	if err != nil {
		t.Fatalf("Minus failed: %v", err)
	}
	if h, _ := minus.Get(HourOfDay); h != 23 {
		t.Fatalf("expected hour 23, got %d", h)
	}
}

func TestTemporal_PlusUnsupportedUnit(t *testing.T) {
	tp := mustTemporal(t, map[Field]int{MinuteOfHour: 0})
	if _, err := tp.Plus(1, Hours); !errors.Is(err, ErrUnsupportedUnit) {
		t.Fatalf("expected ErrUnsupportedUnit, got %v", err)
	}
}

func TestTemporal_Increment(t *testing.T) {
	tp := mustTemporal(t, map[Field]int{HourOfDay: 0, MinuteOfHour: 59}).Increment()
	h, _ := tp.Get(HourOfDay)
	m, _ := tp.Get(MinuteOfHour)
	if h != 1 || m != 0 {
		t.Fatalf("expected 01:00, got %02d:%02d", h, m)
	}

	week := mustTemporal(t, map[Field]int{DayOfWeek: 7, HourOfDay: 23, MinuteOfHour: 59}).Increment()
	want := mustTemporal(t, map[Field]int{DayOfWeek: 1, HourOfDay: 0, MinuteOfHour: 0})
	if !week.Equal(want) {
		t.Fatalf("expected %s, got %s", want, week)
	}
}

func TestTemporal_Until(t *testing.T) {
	tp := mustTemporal(t, map[Field]int{HourOfDay: 11, MinuteOfHour: 30})
	if got := tp.Until(clock(13, 29, 0)); got != 119*time.Minute {
		t.Fatalf("expected 119m, got %s", got)
	}
}

func TestTemporal_Since(t *testing.T) {
	tp := mustTemporal(t, map[Field]int{HourOfDay: 13, MinuteOfHour: 29})
	if got := tp.Since(clock(11, 30, 1)); got != 7139*time.Second {
		t.Fatalf("expected 7139s, got %s", got)
	}
	if got := tp.Since(clock(11, 30, 1)) / time.Hour; got != 1 {
		t.Fatalf("expected 1h truncated, got %d", got)
	}

	tp = mustTemporal(t, map[Field]int{HourOfDay: 11, MinuteOfHour: 30})
	if got := tp.Since(clock(13, 29, 1)); got != 79259*time.Second {
		t.Fatalf("expected 79259s, got %s", got)
	}
}

func TestTemporal_CompareTime(t *testing.T) {
	at := clock(1, 0, 0)
	if c := mustTemporal(t, map[Field]int{HourOfDay: 1}).CompareTime(at); c != 0 {
		t.Fatalf("expected 0, got %d", c)
	}
	if c := mustTemporal(t, map[Field]int{HourOfDay: 2}).CompareTime(at); c <= 0 {
		t.Fatalf("expected positive, got %d", c)
	}
	if c := mustTemporal(t, map[Field]int{HourOfDay: 0}).CompareTime(at); c >= 0 {
		t.Fatalf("expected negative, got %d", c)
	}
}

func TestTemporal_CompareWeek(t *testing.T) {
	mon := mustTemporal(t, map[Field]int{DayOfWeek: 1, HourOfDay: 23})
	tue := mustTemporal(t, map[Field]int{DayOfWeek: 2, HourOfDay: 0})
	if mon.Compare(tue) >= 0 || tue.Compare(mon) <= 0 || mon.Compare(mon) != 0 {
		t.Fatal("unexpected ordering between monday 23h and tuesday 0h")
	}
}

func TestTemporal_Zero(t *testing.T) {
	var tp Temporal
	if !tp.IsZero() {
		t.Fatal("expected zero temporal")
	}
	if tp.Precision() != Seconds {
		t.Fatalf("expected seconds, got %s", tp.Precision())
	}
	if !tp.Increment().IsZero() {
		t.Fatal("expected increment of zero temporal to stay zero")
	}
	if d := tp.Since(clock(10, 0, 0)); d != 0 {
		t.Fatalf("expected 0, got %s", d)
	}
	if d := tp.Until(clock(10, 0, 0)); d != 0 {
		t.Fatalf("expected 0, got %s", d)
	}
}
