package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alefyrezendesign/mvp-frequencia/pkg/frequency"
)

var marchSundays = []string{"2024-03-03", "2024-03-10", "2024-03-17", "2024-03-24", "2024-03-31"}

func TestDashboardBuild(t *testing.T) {
	st := newTestStore(t)
	svc := NewDashboardService(st, testCatalog())

	ana := addMember(t, st, "Ana", "Jovens")
	bruno := addMember(t, st, "Bruno", "Homens")

	for _, d := range marchSundays {
		mark(t, st, ana.ID, d, frequency.StatusAbsent)
		mark(t, st, bruno.ID, d, frequency.StatusPresent)
	}
	if err := st.SetAttendance(context.Background(), testUnit, bruno.ID, "2024-03-06", frequency.StatusJustified, "viagem"); err != nil {
		t.Fatalf("justify: %v", err)
	}

	d, err := svc.Build(testUnit, march2024)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if d.TotalServices != 9 {
		t.Fatalf("expected 9 services, got %d", d.TotalServices)
	}
	if d.Counts[frequency.Critical] != 1 || d.Counts[frequency.Perfect] != 1 {
		t.Fatalf("unexpected counts %v", d.Counts)
	}
	if len(d.Priority) != 1 || d.Priority[0].MemberID != ana.ID {
		t.Fatalf("expected Ana in priority list, got %+v", d.Priority)
	}
	if len(d.Positive) != 1 || d.Positive[0].MemberID != bruno.ID {
		t.Fatalf("expected Bruno in positive list, got %+v", d.Positive)
	}
	if d.TotalPresences != 5 || d.TotalJustifications != 1 {
		t.Fatalf("unexpected totals %d/%d", d.TotalPresences, d.TotalJustifications)
	}

	// 5 presences over 9 services x 2 members.
	want := 5.0 / 18.0 * 100
	if d.GlobalRate < want-0.01 || d.GlobalRate > want+0.01 {
		t.Fatalf("expected global rate %.2f, got %.2f", want, d.GlobalRate)
	}

	text := svc.FormatDashboard(d)
	if !strings.Contains(text, "Ana - 5 faltas") {
		t.Fatalf("expected Ana in dashboard text:\n%s", text)
	}
}

func TestDashboardEmptyUnit(t *testing.T) {
	svc := NewDashboardService(newTestStore(t), testCatalog())

	d, err := svc.Build(testUnit, march2024)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if d.GlobalRate != 0 {
		t.Fatalf("expected 0 rate without members, got %.2f", d.GlobalRate)
	}

	if _, err := svc.Build("nowhere", march2024); !errors.Is(err, ErrUnitNotFound) {
		t.Fatalf("expected ErrUnitNotFound, got %v", err)
	}
}

func TestJustificationsNewestFirst(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := NewDashboardService(st, testCatalog())

	ana := addMember(t, st, "Ana", "Jovens")
	bruno := addMember(t, st, "Bruno", "Jovens")

	st.SetAttendance(ctx, testUnit, ana.ID, "2024-03-03", frequency.StatusJustified, "doente")
	st.SetAttendance(ctx, testUnit, bruno.ID, "2024-03-17", frequency.StatusJustified, "trabalho")
	st.SetAttendance(ctx, testUnit, ana.ID, "2024-03-10", frequency.StatusAbsent, "")
	st.SetAttendance(ctx, testUnit, ana.ID, "2024-04-07", frequency.StatusJustified, "abril")

	entries, err := svc.Justifications(testUnit, march2024)
	if err != nil {
		t.Fatalf("justifications: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Date != "2024-03-17" || entries[0].MemberName != "Bruno" {
		t.Fatalf("expected newest first, got %+v", entries[0])
	}
}

func TestJustifiedCountsAsPresenceSetting(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := NewDashboardService(st, testCatalog())
	settings := NewSettingsService(st)

	ana := addMember(t, st, "Ana", "Jovens")
	st.SetAttendance(ctx, testUnit, ana.ID, "2024-03-03", frequency.StatusJustified, "doente")

	d, _ := svc.Build(testUnit, march2024)
	if d.Members[0].Stats.Percent != 0 {
		t.Fatalf("expected 0%% without the setting, got %.2f", d.Members[0].Stats.Percent)
	}

	on, err := settings.ToggleJustified(ctx)
	if err != nil || !on {
		t.Fatalf("expected setting enabled, got %v (%v)", on, err)
	}

	d, _ = svc.Build(testUnit, march2024)
	want := 100.0 / 9.0
	if got := d.Members[0].Stats.Percent; got < want-0.01 || got > want+0.01 {
		t.Fatalf("expected %.2f%%, got %.2f", want, got)
	}
}
