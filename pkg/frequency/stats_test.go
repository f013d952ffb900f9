package frequency_test

import (
	"math"
	"testing"
	"time"

	"github.com/alefyrezendesign/mvp-frequencia/pkg/frequency"
)

func sundaysOfMarch2024() []time.Time {
	return frequency.ServiceDates([]time.Weekday{time.Sunday}, frequency.Period{Year: 2024, Month: time.March})
}

func rec(day string, st frequency.AttendanceStatus) frequency.Record {
	return frequency.Record{MemberID: "m1", Date: date(day), Status: st, RecordedAt: date(day)}
}

func TestAggregate(t *testing.T) {
	start := date("2024-03-10")

	tests := []struct {
		name      string
		start     *time.Time
		dates     []time.Time
		records   []frequency.Record
		justified bool
		want      frequency.Stats
	}{
		{
			name:    "full attendance",
			dates:   sundaysOfMarch2024(),
			records: []frequency.Record{rec("2024-03-03", frequency.StatusPresent), rec("2024-03-10", frequency.StatusPresent), rec("2024-03-17", frequency.StatusPresent), rec("2024-03-24", frequency.StatusPresent), rec("2024-03-31", frequency.StatusPresent)},
			want:    frequency.Stats{Presences: 5, Percent: 100, TotalExpected: 5},
		},
		{
			name:    "pre-enrollment absence is excluded from both sides",
			start:   &start,
			dates:   sundaysOfMarch2024(),
			records: []frequency.Record{rec("2024-03-03", frequency.StatusAbsent)},
			want:    frequency.Stats{Absences: 0, Percent: 0, TotalExpected: 4},
		},
		{
			name:    "record on the start date counts",
			start:   &start,
			dates:   sundaysOfMarch2024(),
			records: []frequency.Record{rec("2024-03-10", frequency.StatusAbsent), rec("2024-03-17", frequency.StatusPresent)},
			want:    frequency.Stats{Absences: 1, Presences: 1, Percent: 25, TotalExpected: 4},
		},
		{
			name:    "justified not counted as presence",
			dates:   sundaysOfMarch2024()[:4],
			records: []frequency.Record{rec("2024-03-03", frequency.StatusPresent), rec("2024-03-10", frequency.StatusPresent), rec("2024-03-17", frequency.StatusJustified)},
			want:    frequency.Stats{Presences: 2, Justifications: 1, Percent: 50, TotalExpected: 4},
		},
		{
			name:      "justified counted as presence",
			dates:     sundaysOfMarch2024()[:4],
			records:   []frequency.Record{rec("2024-03-03", frequency.StatusPresent), rec("2024-03-10", frequency.StatusPresent), rec("2024-03-17", frequency.StatusJustified)},
			justified: true,
			want:      frequency.Stats{Presences: 2, Justifications: 1, Percent: 75, TotalExpected: 4},
		},
		{
			name:    "record outside the service calendar still counts",
			dates:   sundaysOfMarch2024(),
			records: []frequency.Record{rec("2024-03-05", frequency.StatusAbsent)},
			want:    frequency.Stats{Absences: 1, Percent: 0, TotalExpected: 5},
		},
		{
			name:    "nothing expected",
			dates:   nil,
			records: nil,
			want:    frequency.Stats{Percent: frequency.PercentWhenNothingExpected},
		},
		{
			name:    "enrolled after the last service",
			start:   ptr(date("2024-04-01")),
			dates:   sundaysOfMarch2024(),
			records: []frequency.Record{rec("2024-03-31", frequency.StatusAbsent)},
			want:    frequency.Stats{Percent: frequency.PercentWhenNothingExpected},
		},
		{
			name:    "not registered is ignored",
			dates:   sundaysOfMarch2024(),
			records: []frequency.Record{rec("2024-03-03", frequency.StatusNotRegistered)},
			want:    frequency.Stats{Percent: 0, TotalExpected: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := frequency.Aggregate(tt.start, tt.dates, tt.records, tt.justified)
			if got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
			if math.IsNaN(got.Percent) {
				t.Fatal("percent must never be NaN")
			}
		})
	}
}

func TestAggregate_DeduplicatesByMemberAndDate(t *testing.T) {
	older := frequency.Record{MemberID: "m1", Date: date("2024-03-03"), Status: frequency.StatusAbsent, RecordedAt: date("2024-03-03")}
	newer := frequency.Record{MemberID: "m1", Date: date("2024-03-03"), Status: frequency.StatusPresent, RecordedAt: date("2024-03-03").Add(time.Hour)}

	for _, records := range [][]frequency.Record{{older, newer}, {newer, older}} {
		got := frequency.Aggregate(nil, sundaysOfMarch2024(), records, false)
		if got.Presences != 1 || got.Absences != 0 {
			t.Fatalf("expected the latest record to win, got %+v", got)
		}
	}
}

func TestAggregate_IsIdempotent(t *testing.T) {
	records := []frequency.Record{
		rec("2024-03-03", frequency.StatusPresent),
		rec("2024-03-10", frequency.StatusAbsent),
		rec("2024-03-17", frequency.StatusJustified),
	}
	first := frequency.Aggregate(nil, sundaysOfMarch2024(), records, true)
	second := frequency.Aggregate(nil, sundaysOfMarch2024(), records, true)
	if first != second {
		t.Fatalf("expected identical results, got %+v and %+v", first, second)
	}
}

func TestStats_FaultPercent(t *testing.T) {
	st := frequency.Stats{Percent: 75}
	if st.FaultPercent() != 25 {
		t.Fatalf("expected 25, got %v", st.FaultPercent())
	}
}

func ptr(t time.Time) *time.Time { return &t }
