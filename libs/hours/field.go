package hours

import (
	"regexp"
	"time"
)

// Unit is the duration one step of a field stands for.
type Unit int

const (
	Seconds Unit = iota
	Minutes
	Hours
	Days
	Weeks
	Months
	Years
)

var unitDurations = [...]time.Duration{
	Seconds: time.Second,
	Minutes: time.Minute,
	Hours:   time.Hour,
	Days:    24 * time.Hour,
	Weeks:   7 * 24 * time.Hour,
	// Average Gregorian month and year.
	Months: 2629746 * time.Second,
	Years:  31556952 * time.Second,
}

var unitNames = [...]string{"seconds", "minutes", "hours", "days", "weeks", "months", "years"}

func (u Unit) Duration() time.Duration {
	if u < Seconds || u > Years {
		return 0
	}
	return unitDurations[u]
}

func (u Unit) String() string {
	if u < Seconds || u > Years {
		return "unknown"
	}
	return unitNames[u]
}

// Field is a cyclic scale. The constant order is the rank: finer fields come
// first and carries flow towards higher values.
type Field int

const (
	SecondOfMinute Field = iota
	MinuteOfHour
	HourOfDay
	DayOfWeek
	DayOfMonth
	MonthOfYear
)

type fieldSpec struct {
	name      string
	min, max  int
	unit      Unit
	rangeUnit Unit
	fixed     bool
}

var fieldSpecs = [...]fieldSpec{
	SecondOfMinute: {name: "second-of-minute", min: 0, max: 59, unit: Seconds, rangeUnit: Minutes, fixed: true},
	MinuteOfHour:   {name: "minute-of-hour", min: 0, max: 59, unit: Minutes, rangeUnit: Hours, fixed: true},
	HourOfDay:      {name: "hour-of-day", min: 0, max: 23, unit: Hours, rangeUnit: Days, fixed: true},
	DayOfWeek:      {name: "day-of-week", min: 1, max: 7, unit: Days, rangeUnit: Weeks, fixed: true},
	DayOfMonth:     {name: "day-of-month", min: 1, max: 31, unit: Days, rangeUnit: Months, fixed: false},
	MonthOfYear:    {name: "month-of-year", min: 1, max: 12, unit: Months, rangeUnit: Years, fixed: true},
}

func (f Field) known() bool {
	return f >= SecondOfMinute && f <= MonthOfYear
}

func (f Field) String() string {
	if !f.known() {
		return "unknown-field"
	}
	return fieldSpecs[f].name
}

func (f Field) Min() int { return fieldSpecs[f].min }

func (f Field) Max() int { return fieldSpecs[f].max }

// Size is the number of values in the field domain.
func (f Field) Size() int { return fieldSpecs[f].max - fieldSpecs[f].min + 1 }

// Unit is the duration of one step of the field.
func (f Field) Unit() Unit { return fieldSpecs[f].unit }

// RangeUnit is the duration of one full cycle of the field.
func (f Field) RangeUnit() Unit { return fieldSpecs[f].rangeUnit }

// Fixed reports whether the domain size never varies (day-of-month does).
func (f Field) Fixed() bool { return fieldSpecs[f].fixed }

func (f Field) Valid(v int) bool {
	return f.known() && v >= f.Min() && v <= f.Max()
}

func (f Field) domain() []int {
	out := make([]int, 0, f.Size())
	for v := f.Min(); v <= f.Max(); v++ {
		out = append(out, v)
	}
	return out
}

// of reads the field from t in t's own location. Weekdays are numbered
// 1 (Monday) to 7 (Sunday).
func (f Field) of(t time.Time) int {
	switch f {
	case SecondOfMinute:
		return t.Second()
	case MinuteOfHour:
		return t.Minute()
	case HourOfDay:
		return t.Hour()
	case DayOfWeek:
		return isoWeekday(t)
	case DayOfMonth:
		return t.Day()
	case MonthOfYear:
		return int(t.Month())
	}
	return 0
}

func isoWeekday(t time.Time) int {
	if wd := t.Weekday(); wd != time.Sunday {
		return int(wd)
	}
	return 7
}

// scale is a catalog entry: a field that can appear in a specification, the
// pattern locating its clauses and the rule turning one value into an int.
type scale struct {
	field   Field
	pattern *regexp.Regexp
	parse   func(string) (int, error)
}

var catalog = []scale{
	{field: MinuteOfHour, pattern: regexp.MustCompile(`\b(?:minute|min)\s*\{([^}]*)\}`), parse: parseInteger},
	{field: HourOfDay, pattern: regexp.MustCompile(`\b(?:hour|hr)\s*\{([^}]*)\}`), parse: parseHour},
	{field: DayOfWeek, pattern: regexp.MustCompile(`\b(?:wday|wd)\s*\{([^}]*)\}`), parse: parseWeekday},
}
