package metrics

import (
	"fmt"
	"strings"
	"time"
)

// Period selects the registration window a ranking is computed over
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

// ParsePeriod accepts week, month or all (and their Portuguese names).
// Empty input defaults to week.
func ParsePeriod(raw string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "week", "semana":
		return PeriodWeek, nil
	case "month", "mes", "mês":
		return PeriodMonth, nil
	case "all", "todos":
		return PeriodAll, nil
	}
	return "", fmt.Errorf("unknown period %q", raw)
}

// Range returns the inclusive [from, to] bounds of the period ending at now.
// bounded is false for PeriodAll.
func (p Period) Range(now time.Time) (from, to time.Time, bounded bool) {
	switch p {
	case PeriodWeek:
		return WeekStart(now), now, true
	case PeriodMonth:
		return MonthStart(now), now, true
	}
	return time.Time{}, time.Time{}, false
}

// WeekStart returns Monday 00:00 of the week containing t, in t's location.
func WeekStart(t time.Time) time.Time {
	offset := int(t.Weekday()) - 1
	if t.Weekday() == time.Sunday {
		offset = 6
	}
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// MonthStart returns the first day of t's month at 00:00, in t's location.
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

func within(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}
