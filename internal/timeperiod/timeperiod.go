// Package timeperiod implements the legacy recurring time-range grammar used
// by downtime schedules.
//
// A range is a pair of strings. The key selects days:
//
//	"monday"              single weekday
//	"monday - friday"     weekday span (may wrap the week, e.g. "saturday - sunday")
//	"day 12"              day of month
//	"day 1 - day 15"      day-of-month span
//	"2026-09-04"          a single calendar date
//
// Any day rule may carry a "/ N" suffix selecting every Nth matching day.
// The value selects times of day within a matching day, as a comma-separated
// list of "HH:MM-HH:MM" intervals; "24:00" is legal as an end bound.
package timeperiod

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// searchHorizonDays bounds the forward scan in FindNextSegment. It covers a
// full year plus a leap-day margin so yearly date rules always resolve.
const searchHorizonDays = 398

// Segment is a concrete [Begin, End) interval resolved from a range pair.
// The zero value means "no segment".
type Segment struct {
	Begin time.Time
	End   time.Time
}

// IsZero reports whether the segment is the "no segment" sentinel.
func (s Segment) IsZero() bool {
	return s.Begin.IsZero() && s.End.IsZero()
}

type ruleKind int

const (
	kindWeekday ruleKind = iota
	kindMonthDay
	kindDate
)

// DayRule is a parsed range key.
type DayRule struct {
	kind   ruleKind
	from   int // weekday (0=Sunday) or day of month
	to     int
	date   time.Time
	stride int // 0 means every matching day
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseDayRule parses a range key into a day rule.
func ParseDayRule(spec string) (DayRule, error) {
	s := strings.ToLower(strings.TrimSpace(spec))
	if s == "" {
		return DayRule{}, fmt.Errorf("empty day specification")
	}

	var rule DayRule
	if base, stride, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(stride))
		if err != nil || n < 1 {
			return DayRule{}, fmt.Errorf("invalid stride %q", strings.TrimSpace(stride))
		}
		rule.stride = n
		s = strings.TrimSpace(base)
	}

	// A calendar date contains dashes, so it must be tried before span
	// splitting.
	if d, err := time.Parse("2006-01-02", s); err == nil {
		if rule.stride != 0 {
			return DayRule{}, fmt.Errorf("stride is not valid for date rule %q", spec)
		}
		rule.kind = kindDate
		rule.date = d
		return rule, nil
	}

	from, to := s, s
	if a, b, ok := strings.Cut(s, "-"); ok {
		from = strings.TrimSpace(a)
		to = strings.TrimSpace(b)
	}

	if strings.HasPrefix(from, "day") {
		f, err := parseMonthDay(from)
		if err != nil {
			return DayRule{}, err
		}
		t, err := parseMonthDay(to)
		if err != nil {
			return DayRule{}, err
		}
		if t < f {
			return DayRule{}, fmt.Errorf("day range %q ends before it begins", spec)
		}
		rule.kind = kindMonthDay
		rule.from, rule.to = f, t
		return rule, nil
	}

	f, ok := weekdays[from]
	if !ok {
		return DayRule{}, fmt.Errorf("invalid day specification %q", from)
	}
	t, ok := weekdays[to]
	if !ok {
		return DayRule{}, fmt.Errorf("invalid day specification %q", to)
	}
	rule.kind = kindWeekday
	rule.from, rule.to = int(f), int(t)
	return rule, nil
}

func parseMonthDay(s string) (int, error) {
	rest, ok := strings.CutPrefix(s, "day")
	if !ok {
		return 0, fmt.Errorf("invalid day specification %q", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil || n < 1 || n > 31 {
		return 0, fmt.Errorf("invalid day of month %q", strings.TrimSpace(rest))
	}
	return n, nil
}

// Matches reports whether the rule selects the given calendar day.
func (r DayRule) Matches(day time.Time) bool {
	switch r.kind {
	case kindDate:
		if day.Year() != r.date.Year() || day.Month() != r.date.Month() || day.Day() != r.date.Day() {
			return false
		}
		return true
	case kindMonthDay:
		d := day.Day()
		if d < r.from || d > r.to {
			return false
		}
		return r.stride == 0 || (d-r.from)%r.stride == 0
	default: // kindWeekday
		wd := int(day.Weekday())
		var offset int
		if r.from <= r.to {
			if wd < r.from || wd > r.to {
				return false
			}
			offset = wd - r.from
		} else {
			// Span wraps the week end, e.g. "friday - monday".
			if wd < r.from && wd > r.to {
				return false
			}
			offset = (wd - r.from + 7) % 7
		}
		return r.stride == 0 || offset%r.stride == 0
	}
}

// TimeRange is a parsed time-of-day interval, in minutes from midnight.
// End may be 1440 ("24:00").
type TimeRange struct {
	Begin int
	End   int
}

// ParseTimeRanges parses a range value into its time-of-day intervals,
// sorted by begin time.
func ParseTimeRanges(spec string) ([]TimeRange, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, fmt.Errorf("empty time range definition")
	}

	var ranges []TimeRange
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		begin, end, ok := strings.Cut(part, "-")
		if !ok {
			return nil, fmt.Errorf("invalid time range %q", part)
		}
		b, err := parseTimeOfDay(strings.TrimSpace(begin))
		if err != nil {
			return nil, err
		}
		e, err := parseTimeOfDay(strings.TrimSpace(end))
		if err != nil {
			return nil, err
		}
		if b >= 1440 {
			return nil, fmt.Errorf("time range %q begins past midnight", part)
		}
		if e <= b {
			return nil, fmt.Errorf("time range %q ends before it begins", part)
		}
		ranges = append(ranges, TimeRange{Begin: b, End: e})
	}

	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Begin < ranges[j].Begin })
	return ranges, nil
}

func parseTimeOfDay(s string) (int, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if h == 24 && m != 0 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return h*60 + m, nil
}

// ExpandTimeRanges parses a range value and anchors its intervals to the
// given day. Used by validation to exercise the full value grammar against
// a synthetic reference day.
func ExpandTimeRanges(spec string, day time.Time) ([]Segment, error) {
	ranges, err := ParseTimeRanges(spec)
	if err != nil {
		return nil, err
	}
	segments := make([]Segment, len(ranges))
	for i, r := range ranges {
		segments[i] = r.on(day)
	}
	return segments, nil
}

// on anchors the interval to a calendar day. Building the instants through
// time.Date keeps the arithmetic correct across DST transitions, and
// normalizes hour 24 to midnight of the following day.
func (r TimeRange) on(day time.Time) Segment {
	return Segment{
		Begin: time.Date(day.Year(), day.Month(), day.Day(), r.Begin/60, r.Begin%60, 0, 0, day.Location()),
		End:   time.Date(day.Year(), day.Month(), day.Day(), r.End/60, r.End%60, 0, 0, day.Location()),
	}
}

// Resolver resolves range pairs to concrete segments.
type Resolver struct{}

// NewResolver creates a resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// FindNextSegment resolves the nearest concrete segment of a range pair at
// or after the reference instant, in the reference's location. A segment
// that has begun but not yet ended at the reference is returned as-is; a
// segment that has fully elapsed is skipped in favor of the next occurrence.
// The zero segment is returned when nothing resolves within the search
// horizon.
func (r *Resolver) FindNextSegment(rangeKey, rangeValue string, ref time.Time) (Segment, error) {
	rule, err := ParseDayRule(rangeKey)
	if err != nil {
		return Segment{}, err
	}
	ranges, err := ParseTimeRanges(rangeValue)
	if err != nil {
		return Segment{}, err
	}

	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	for i := 0; i < searchHorizonDays; i++ {
		d := day.AddDate(0, 0, i)
		if !rule.Matches(d) {
			continue
		}
		for _, tr := range ranges {
			seg := tr.on(d)
			// A spring-forward day can collapse a window into nothing.
			if !seg.End.After(seg.Begin) {
				continue
			}
			if seg.End.After(ref) {
				return seg, nil
			}
		}
	}
	return Segment{}, nil
}
