package frequency

import (
	"fmt"
	"time"
)

// DateLayout is the wire format of calendar dates (no time component).
const DateLayout = "2006-01-02"

// PeriodLayout is the wire format of a period.
const PeriodLayout = "2006-01"

var monthNames = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// Period is a calendar year-month used as the aggregation window.
type Period struct {
	Year  int
	Month time.Month
}

func NewPeriod(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod parses "YYYY-MM".
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse(PeriodLayout, s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q: %w", s, err)
	}
	return NewPeriod(t), nil
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Label returns the human readable period, e.g. "março/2024".
func (p Period) Label() string {
	if p.Month < time.January || p.Month > time.December {
		return p.String()
	}
	return fmt.Sprintf("%s/%d", monthNames[p.Month-1], p.Year)
}

func (p Period) First() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (p Period) Last() time.Time {
	return p.First().AddDate(0, 1, -1)
}

func (p Period) Next() Period {
	return NewPeriod(p.First().AddDate(0, 1, 0))
}

func (p Period) Prev() Period {
	return NewPeriod(p.First().AddDate(0, -1, 0))
}

func (p Period) Contains(d time.Time) bool {
	return d.Year() == p.Year && d.Month() == p.Month
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// ParseStartDate returns nil for an empty or malformed enrollment date,
// which means "no restriction".
func ParseStartDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil
	}
	return &t
}

// Weekdays converts weekday indices (0=Sunday..6=Saturday), dropping anything out of range.
func Weekdays(indices []int) []time.Weekday {
	days := make([]time.Weekday, 0, len(indices))
	for _, i := range indices {
		if i < int(time.Sunday) || i > int(time.Saturday) {
			continue
		}
		days = append(days, time.Weekday(i))
	}
	return days
}

// ServiceDates returns, in ascending order, every date of the period whose weekday
// is part of the recurrence.
func ServiceDates(weekdays []time.Weekday, p Period) []time.Time {
	if len(weekdays) == 0 {
		return []time.Time{}
	}
	wanted := make(map[time.Weekday]bool, len(weekdays))
	for _, wd := range weekdays {
		wanted[wd] = true
	}

	dates := []time.Time{}
	last := p.Last()
	for d := p.First(); !d.After(last); d = d.AddDate(0, 0, 1) {
		if wanted[d.Weekday()] {
			dates = append(dates, d)
		}
	}
	return dates
}

// IsServiceDate reports whether d falls on one of the recurrence weekdays.
func IsServiceDate(weekdays []time.Weekday, d time.Time) bool {
	for _, wd := range weekdays {
		if d.Weekday() == wd {
			return true
		}
	}
	return false
}
