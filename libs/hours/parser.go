package hours

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Range is a closed interval of field values. Start > End wraps past the
// field maximum back to its minimum.
type Range struct {
	Start int
	End   int
}

// Len is the number of values of a non-wrapping range.
func (r Range) Len() int {
	return r.End - r.Start + 1
}

type fieldRanges struct {
	field  Field
	ranges []Range
}

var twelveHourPattern = regexp.MustCompile(`^(\d{1,2})(am|noon|pm)$`)

var weekdayNames = map[string]int{
	"mo": 1,
	"tu": 2,
	"we": 3,
	"th": 4,
	"fr": 5,
	"sa": 6,
	"su": 7,
}

func parseInteger(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrMalformedValue, s)
	}
	return v, nil
}

func parseHour(s string) (int, error) {
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	m := twelveHourPattern.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return 0, fmt.Errorf("%w: invalid hour format %q", ErrMalformedValue, s)
	}
	h, _ := strconv.Atoi(m[1])
	switch {
	case m[2] == "am" && h == 12:
		h = 0
	case m[2] == "pm" && h != 12:
		h += 12
	}
	return h, nil
}

func parseWeekday(s string) (int, error) {
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	if len(s) >= 2 {
		if v, ok := weekdayNames[strings.ToLower(s[:2])]; ok {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: invalid weekday %q", ErrMalformedValue, s)
}

// ranges collects every range of the scale's clauses in sub. A scale without
// any clause covers its whole domain.
func (sc scale) ranges(sub string) ([]Range, error) {
	var out []Range
	for _, m := range sc.pattern.FindAllStringSubmatch(sub, -1) {
		for _, token := range strings.Fields(m[1]) {
			rs, err := sc.parseRange(token)
			if err != nil {
				return nil, err
			}
			out = append(out, rs...)
		}
	}
	if len(out) == 0 {
		return []Range{{Start: sc.field.Min(), End: sc.field.Max()}}, nil
	}
	return out, nil
}

// parseRange parses "v" or "v-v". A reversed range is split in two at the
// domain boundary.
func (sc scale) parseRange(token string) ([]Range, error) {
	bounds := strings.Split(token, "-")
	var start, end int
	var err error
	switch len(bounds) {
	case 1:
		start, err = sc.parseValue(token, bounds[0])
		end = start
	case 2:
		if start, err = sc.parseValue(token, bounds[0]); err == nil {
			end, err = sc.parseValue(token, bounds[1])
		}
	default:
		return nil, &ParseError{Field: sc.field, Token: token, Err: ErrMalformedRange}
	}
	if err != nil {
		return nil, err
	}

	if start <= end {
		return []Range{{Start: start, End: end}}, nil
	}
	return []Range{
		{Start: start, End: sc.field.Max()},
		{Start: sc.field.Min(), End: end},
	}, nil
}

func (sc scale) parseValue(token, s string) (int, error) {
	v, err := sc.parse(s)
	if err != nil {
		return 0, &ParseError{Field: sc.field, Token: token, Err: err}
	}
	if !sc.field.Valid(v) {
		return 0, &ParseError{
			Field: sc.field,
			Token: token,
			Err:   fmt.Errorf("%w: %d not in [%d,%d]", ErrMalformedValue, v, sc.field.Min(), sc.field.Max()),
		}
	}
	return v, nil
}

// candidates parses every comma separated sub-expression into periods,
// without merging them.
func candidates(text string) ([]Period, error) {
	var out []Period
	for _, sub := range strings.Split(text, ",") {
		accepted := make([]fieldRanges, 0, len(catalog))
		for _, sc := range catalog {
			ranges, err := sc.ranges(sub)
			if err != nil {
				return nil, err
			}
			accepted = append(accepted, fieldRanges{field: sc.field, ranges: ranges})
		}
		periods, err := expand(accepted)
		if err != nil {
			return nil, err
		}
		out = append(out, periods...)
	}
	return out, nil
}

// parse turns a specification into its merged periods.
func parse(text string) ([]Period, error) {
	periods, err := candidates(text)
	if err != nil {
		return nil, err
	}
	return MergePeriods(periods), nil
}

// expand emits one period per combination of ranges, one range per field.
func expand(accepted []fieldRanges) ([]Period, error) {
	if len(accepted) == 0 {
		return nil, nil
	}
	sorted := append([]fieldRanges(nil), accepted...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].field < sorted[j].field })

	total := 1
	for _, fr := range sorted {
		total *= len(fr.ranges)
	}

	var out []Period
	combination := make([]Range, len(sorted))
	for i := 0; i < total; i++ {
		divisor := 1
		for j, fr := range sorted {
			combination[j] = fr.ranges[(i/divisor)%len(fr.ranges)]
			divisor *= len(fr.ranges)
		}
		periods, err := periodsOf(sorted, combination)
		if err != nil {
			return nil, err
		}
		out = append(out, periods...)
	}
	return out, nil
}

// periodsOf breaks one range combination into continuous periods. The finest
// range is already continuous; every value of a coarser range is a separate
// window.
func periodsOf(fields []fieldRanges, combination []Range) ([]Period, error) {
	finest, finestRange := fields[0].field, combination[0]

	total := 1
	for _, r := range combination[1:] {
		total *= r.Len()
	}

	out := make([]Period, 0, total)
	for i := 0; i < total; i++ {
		start := map[Field]int{finest: finestRange.Start}
		end := map[Field]int{finest: finestRange.End}
		divisor := 1
		for j := 1; j < len(fields); j++ {
			r := combination[j]
			v := r.Start + (i/divisor)%r.Len()
			start[fields[j].field] = v
			end[fields[j].field] = v
			divisor *= r.Len()
		}

		s, err := NewTemporal(start)
		if err != nil {
			return nil, err
		}
		e, err := NewTemporal(end)
		if err != nil {
			return nil, err
		}
		p, err := NewPeriod(s, e)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
