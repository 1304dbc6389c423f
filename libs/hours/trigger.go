package hours

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// triggerFields are the standard five cron fields, in rendering order.
var triggerFields = [...]Field{MinuteOfHour, HourOfDay, DayOfMonth, MonthOfYear, DayOfWeek}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Trigger is a cron-style expression: for every standard field, the sorted set
// of values it fires on.
type Trigger struct {
	values [len(triggerFields)][]int
}

// NewTrigger builds the expression firing each time t recurs. Fields t does
// not carry accept any value when they are coarser than t's finest field, and
// only their minimum when they are finer.
func NewTrigger(t Temporal) Trigger {
	var tr Trigger
	finest := time.Duration(1<<63 - 1)
	var unsupported []int
	for i, f := range triggerFields {
		v, err := t.Get(f)
		if err != nil {
			unsupported = append(unsupported, i)
			continue
		}
		tr.values[i] = []int{v}
		if d := f.Unit().Duration(); d < finest {
			finest = d
		}
	}
	for _, i := range unsupported {
		f := triggerFields[i]
		if f.Unit().Duration() > finest {
			tr.values[i] = f.domain()
		} else {
			tr.values[i] = []int{f.Min()}
		}
	}
	return tr
}

// Values returns the accepted values of f, or nil when f is not a cron field.
func (tr Trigger) Values(f Field) []int {
	for i, candidate := range triggerFields {
		if candidate == f {
			return append([]int(nil), tr.values[i]...)
		}
	}
	return nil
}

func (tr Trigger) Equal(o Trigger) bool {
	for i := range tr.values {
		if !equalInts(tr.values[i], o.values[i]) {
			return false
		}
	}
	return true
}

// mergeableWith holds when the expressions differ in at most one field.
func (tr Trigger) mergeableWith(o Trigger) bool {
	diff := 0
	for i := range tr.values {
		if !equalInts(tr.values[i], o.values[i]) {
			diff++
		}
	}
	return diff <= 1
}

func (tr Trigger) merge(o Trigger) Trigger {
	var out Trigger
	for i := range tr.values {
		out.values[i] = unionInts(tr.values[i], o.values[i])
	}
	return out
}

// MergeTriggers folds the expressions left to right, merging each one into
// the first already merged expression it differs from in at most one field.
// The fold is greedy: an early merge can prevent a better one later on.
func MergeTriggers(triggers []Trigger) []Trigger {
	merged := make([]Trigger, 0, len(triggers))
	for _, tr := range triggers {
		match := -1
		for i, candidate := range merged {
			if candidate.mergeableWith(tr) {
				match = i
				break
			}
		}
		if match < 0 {
			merged = append(merged, tr)
			continue
		}
		combined := merged[match].merge(tr)
		merged = append(merged[:match], merged[match+1:]...)
		merged = append(merged, combined)
	}
	return merged
}

// String renders the expression with weekdays numbered 1 (Monday) to
// 7 (Sunday).
func (tr Trigger) String() string {
	parts := make([]string, len(triggerFields))
	for i, f := range triggerFields {
		parts[i] = renderValues(tr.values[i], f.Size())
	}
	return strings.Join(parts, " ")
}

// cronSpec renders the expression for the cron engine, where Sunday is 0.
func (tr Trigger) cronSpec() string {
	parts := make([]string, len(triggerFields))
	for i, f := range triggerFields {
		values := tr.values[i]
		if f == DayOfWeek {
			values = make([]int, 0, len(tr.values[i]))
			for _, v := range tr.values[i] {
				values = append(values, v%7)
			}
			values = unionInts(values, nil)
		}
		parts[i] = renderValues(values, f.Size())
	}
	return strings.Join(parts, " ")
}

// Schedule converts the expression to a cron schedule evaluated in the
// local time zone. Callers set Location to evaluate elsewhere.
func (tr Trigger) Schedule() (*cron.SpecSchedule, error) {
	sched, err := cronParser.Parse(tr.cronSpec())
	if err != nil {
		return nil, fmt.Errorf("parse trigger %q: %w", tr.String(), err)
	}
	spec, ok := sched.(*cron.SpecSchedule)
	if !ok {
		return nil, fmt.Errorf("expected *cron.SpecSchedule but got %T", sched)
	}
	return spec, nil
}

func renderValues(values []int, domainSize int) string {
	if len(values) == domainSize {
		return "*"
	}
	var b strings.Builder
	for i := 0; i < len(values); {
		j := i
		for j+1 < len(values) && values[j+1] == values[j]+1 {
			j++
		}
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(values[i]))
		if j > i {
			b.WriteByte('-')
			b.WriteString(strconv.Itoa(values[j]))
		}
		i = j + 1
	}
	return b.String()
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// unionInts returns the sorted, de-duplicated union of a and b.
func unionInts(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	sort.Ints(out)
	uniq := out[:0]
	for _, v := range out {
		if len(uniq) == 0 || v != uniq[len(uniq)-1] {
			uniq = append(uniq, v)
		}
	}
	return uniq
}
