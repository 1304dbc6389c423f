package hours

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Temporal is a point in the cyclic space spanned by a rank-contiguous set of
// fixed-size fields, e.g. {day-of-week, hour-of-day, minute-of-hour}.
// Values are immutable: every operation returns a new Temporal. Build them
// with NewTemporal; the zero Temporal has no fields, reports Seconds as its
// precision and is never open, incremented or waited for.
type Temporal struct {
	fields []Field // ascending rank
	values []int
}

func NewTemporal(values map[Field]int) (Temporal, error) {
	if len(values) == 0 {
		return Temporal{}, fmt.Errorf("%w: no fields", ErrNonContiguousFields)
	}
	fields := make([]Field, 0, len(values))
	for f := range values {
		if !f.known() {
			return Temporal{}, fmt.Errorf("%w: %d", ErrUnsupportedField, int(f))
		}
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	if err := validateFields(fields); err != nil {
		return Temporal{}, err
	}

	vals := make([]int, len(fields))
	for i, f := range fields {
		v := values[f]
		if !f.Valid(v) {
			return Temporal{}, fmt.Errorf("%w: %s=%d not in [%d,%d]", ErrValueOutOfRange, f, v, f.Min(), f.Max())
		}
		vals[i] = v
	}
	return Temporal{fields: fields, values: vals}, nil
}

// validateFields checks that each field's unit is the previous field's cycle
// and that no field has a variable length.
func validateFields(fields []Field) error {
	expected := fields[0].Unit()
	for _, f := range fields {
		if f.Unit() != expected {
			return fmt.Errorf("%w: %s does not follow a %s field", ErrNonContiguousFields, f, expected)
		}
		if !f.Fixed() {
			return fmt.Errorf("%w: %s", ErrVariableRangeField, f)
		}
		expected = f.RangeUnit()
	}
	return nil
}

// IsZero reports whether t carries no fields.
func (t Temporal) IsZero() bool {
	return len(t.fields) == 0
}

func (t Temporal) Fields() []Field {
	return append([]Field(nil), t.fields...)
}

func (t Temporal) index(f Field) int {
	for i, candidate := range t.fields {
		if candidate == f {
			return i
		}
	}
	return -1
}

func (t Temporal) Supports(f Field) bool {
	return t.index(f) >= 0
}

// SupportsUnit reports whether one of the fields steps by u.
func (t Temporal) SupportsUnit(u Unit) bool {
	for _, f := range t.fields {
		if f.Unit() == u {
			return true
		}
	}
	return false
}

// Precision is the unit of the finest field.
func (t Temporal) Precision() Unit {
	if t.IsZero() {
		return Seconds
	}
	return t.fields[0].Unit()
}

func (t Temporal) Get(f Field) (int, error) {
	i := t.index(f)
	if i < 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedField, f)
	}
	return t.values[i], nil
}

// With returns a copy with f set to v.
func (t Temporal) With(f Field, v int) (Temporal, error) {
	i := t.index(f)
	if i < 0 {
		return Temporal{}, fmt.Errorf("%w: %s", ErrUnsupportedField, f)
	}
	if !f.Valid(v) {
		return Temporal{}, fmt.Errorf("%w: %s=%d not in [%d,%d]", ErrValueOutOfRange, f, v, f.Min(), f.Max())
	}
	vals := append([]int(nil), t.values...)
	vals[i] = v
	return Temporal{fields: t.fields, values: vals}, nil
}

// Plus adds amount steps of unit, carrying into coarser fields. The coarsest
// field wraps around.
func (t Temporal) Plus(amount int64, unit Unit) (Temporal, error) {
	start := -1
	for i, f := range t.fields {
		if f.Unit() == unit {
			start = i
			break
		}
	}
	if start < 0 {
		return Temporal{}, fmt.Errorf("%w: %s", ErrUnsupportedUnit, unit)
	}

	vals := append([]int(nil), t.values...)
	carry := amount
	for i := start; i < len(t.fields); i++ {
		f := t.fields[i]
		size := int64(f.Size())
		sum := int64(vals[i]) - int64(f.Min()) + carry
		vals[i] = f.Min() + int(floorMod(sum, size))
		carry = floorDiv(sum, size)
	}
	return Temporal{fields: t.fields, values: vals}, nil
}

func (t Temporal) Minus(amount int64, unit Unit) (Temporal, error) {
	return t.Plus(-amount, unit)
}

// Increment steps the finest field by one.
func (t Temporal) Increment() Temporal {
	next, err := t.Plus(1, t.Precision())
	if err != nil {
		// Precision is always one of the temporal's own units.
		return t
	}
	return next
}

func (t Temporal) Equal(o Temporal) bool {
	if len(t.fields) != len(o.fields) {
		return false
	}
	for i := range t.fields {
		if t.fields[i] != o.fields[i] || t.values[i] != o.values[i] {
			return false
		}
	}
	return true
}

func (t Temporal) sameFields(o Temporal) bool {
	if len(t.fields) != len(o.fields) {
		return false
	}
	for i := range t.fields {
		if t.fields[i] != o.fields[i] {
			return false
		}
	}
	return true
}

// offset is the distance from the origin of the cycle.
func (t Temporal) offset() time.Duration {
	var d time.Duration
	for i, f := range t.fields {
		d += time.Duration(t.values[i]-f.Min()) * f.Unit().Duration()
	}
	return d
}

// projectedOffset reads the fields of t out of an instant, ignoring anything
// finer than t's precision.
func (t Temporal) projectedOffset(at time.Time) time.Duration {
	var d time.Duration
	for _, f := range t.fields {
		d += time.Duration(f.of(at)-f.Min()) * f.Unit().Duration()
	}
	return d
}

// Compare orders two temporals over the same fields by their position in the
// cycle: -1 if t comes first, 0 if equal, +1 otherwise.
func (t Temporal) Compare(o Temporal) int {
	return sign(t.offset() - o.offset())
}

// CompareTime compares t with the instant projected on t's fields.
func (t Temporal) CompareTime(at time.Time) int {
	return sign(t.offset() - t.projectedOffset(at))
}

// Until is the signed distance from t to the instant, without wrapping.
// Precision finer than t's finest field is kept.
func (t Temporal) Until(at time.Time) time.Duration {
	if t.IsZero() {
		return 0
	}
	return t.projectedOffset(at) - t.offset() + remainder(at, t.Precision())
}

// Since is the time left from the instant until t next recurs. It is never
// negative; the coarsest field's cycle is the wrap-around period.
func (t Temporal) Since(at time.Time) time.Duration {
	if t.IsZero() {
		return 0
	}
	d := -t.Until(at)
	if d < 0 {
		d += t.fields[len(t.fields)-1].RangeUnit().Duration()
	}
	return d
}

func (t Temporal) String() string {
	parts := make([]string, 0, len(t.fields))
	for i := len(t.fields) - 1; i >= 0; i-- {
		parts = append(parts, fmt.Sprintf("%s=%d", t.fields[i], t.values[i]))
	}
	return strings.Join(parts, " ")
}

// remainder is the part of the instant finer than unit.
func remainder(at time.Time, unit Unit) time.Duration {
	clock := time.Duration(at.Hour())*time.Hour +
		time.Duration(at.Minute())*time.Minute +
		time.Duration(at.Second())*time.Second +
		time.Duration(at.Nanosecond())
	day := 24 * time.Hour
	switch unit {
	case Seconds, Minutes, Hours, Days:
		return clock % unit.Duration()
	case Weeks:
		return time.Duration(isoWeekday(at)-1)*day + clock
	case Months:
		return time.Duration(at.Day()-1)*day + clock
	case Years:
		return time.Duration(at.YearDay()-1)*day + clock
	}
	return 0
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}

func sign(d time.Duration) int {
	switch {
	case d < 0:
		return -1
	case d > 0:
		return 1
	}
	return 0
}
