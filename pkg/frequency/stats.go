package frequency

import (
	"time"
)

// PercentWhenNothingExpected is the percentage reported for a member with no
// expected services in the period (e.g. enrolled after the last service).
// Nothing expected means nothing missed.
const PercentWhenNothingExpected = 100.0

// Record is the aggregation view of an attendance record.
type Record struct {
	MemberID   string
	Date       time.Time
	Status     AttendanceStatus
	RecordedAt time.Time
}

// Stats is the per-member result for a period.
type Stats struct {
	Presences      int     `json:"presences"`
	Absences       int     `json:"absences"`
	Justifications int     `json:"justifications"`
	Percent        float64 `json:"percent"`
	TotalExpected  int     `json:"total_expected"`
}

// FaultPercent is the complement of Percent.
func (s Stats) FaultPercent() float64 {
	return 100 - s.Percent
}

// Dedupe keeps a single record per (member, date), the one with the latest RecordedAt.
// Output order follows the first appearance of each key.
func Dedupe(records []Record) []Record {
	type key struct {
		member string
		date   string
	}
	index := make(map[key]int, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		k := key{member: r.MemberID, date: r.Date.Format(DateLayout)}
		if i, ok := index[k]; ok {
			if r.RecordedAt.After(out[i].RecordedAt) {
				out[i] = r
			}
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out
}

// Aggregate computes a member's statistics for a period.
//
// serviceDates is the unit's service calendar for the period and only feeds the
// denominator. Records are counted by status whether or not their date is a service
// date. Both sides ignore anything dated before startDate when it is set.
func Aggregate(startDate *time.Time, serviceDates []time.Time, records []Record, justifiedCountsAsPresence bool) Stats {
	var start time.Time
	if startDate != nil {
		start = Day(*startDate)
	}
	counts := func(d time.Time) bool {
		return startDate == nil || !Day(d).Before(start)
	}

	var st Stats
	for _, d := range serviceDates {
		if counts(d) {
			st.TotalExpected++
		}
	}

	for _, r := range Dedupe(records) {
		if !counts(r.Date) {
			continue
		}
		switch r.Status {
		case StatusPresent:
			st.Presences++
		case StatusAbsent:
			st.Absences++
		case StatusJustified:
			st.Justifications++
		}
	}

	effective := st.Presences
	if justifiedCountsAsPresence {
		effective += st.Justifications
	}

	if st.TotalExpected > 0 {
		st.Percent = float64(effective) / float64(st.TotalExpected) * 100
	} else {
		st.Percent = PercentWhenNothingExpected
	}
	return st
}
