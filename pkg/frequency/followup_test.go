package frequency_test

import (
	"testing"

	"github.com/alefyrezendesign/mvp-frequencia/pkg/frequency"
)

func member(id, name string, absences int, cabinet frequency.CabinetStatus) frequency.MemberFrequency {
	return frequency.NewMemberFrequency(id, name, "Jovens", "Membro", frequency.Stats{Absences: absences, TotalExpected: 9}, cabinet)
}

func ids(list []frequency.MemberFrequency) []string {
	out := make([]string, len(list))
	for i, m := range list {
		out[i] = m.MemberID
	}
	return out
}

func equal(a, b []string) bool {
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

func TestSelectFollowUps_ActiveOrdering(t *testing.T) {
	members := []frequency.MemberFrequency{
		member("B", "Bruno", 4, frequency.CabinetNone),
		member("C", "Carla", 5, frequency.CabinetLeaderInformed),
		member("A", "Ana", 6, ""),
	}
	lists := frequency.SelectFollowUps(members)
	if got := ids(lists.Active); !equal(got, []string{"A", "C", "B"}) {
		t.Fatalf("expected active order [A C B], got %v", got)
	}
}

func TestSelectFollowUps_TiesBrokenByName(t *testing.T) {
	members := []frequency.MemberFrequency{
		member("z", "Zeca", 5, frequency.CabinetNone),
		member("a", "amanda", 5, frequency.CabinetNone),
		member("m", "Marcos", 3, frequency.CabinetNone),
	}
	lists := frequency.SelectFollowUps(members)
	if got := ids(lists.Active); !equal(got, []string{"a", "z", "m"}) {
		t.Fatalf("expected [a z m], got %v", got)
	}
}

func TestSelectFollowUps_Eligibility(t *testing.T) {
	tests := []struct {
		name         string
		absences     int
		cabinet      frequency.CabinetStatus
		wantActive   bool
		wantResolved bool
		wantPositive bool
	}{
		{name: "two absences", absences: 2, cabinet: frequency.CabinetNone, wantPositive: true},
		{name: "two absences resolved", absences: 2, cabinet: frequency.CabinetResolved, wantPositive: true},
		{name: "three absences", absences: 3, cabinet: frequency.CabinetNone, wantActive: true},
		{name: "three absences in progress", absences: 3, cabinet: frequency.CabinetOneOnOneDone, wantActive: true},
		{name: "three absences resolved", absences: 3, cabinet: frequency.CabinetResolved, wantResolved: true},
		{name: "perfect", absences: 0, cabinet: frequency.CabinetNone, wantPositive: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lists := frequency.SelectFollowUps([]frequency.MemberFrequency{member("x", "X", tt.absences, tt.cabinet)})
			if (len(lists.Active) == 1) != tt.wantActive {
				t.Errorf("active = %v, want %v", ids(lists.Active), tt.wantActive)
			}
			if (len(lists.Resolved) == 1) != tt.wantResolved {
				t.Errorf("resolved = %v, want %v", ids(lists.Resolved), tt.wantResolved)
			}
			if (len(lists.Positive) == 1) != tt.wantPositive {
				t.Errorf("positive = %v, want %v", ids(lists.Positive), tt.wantPositive)
			}
		})
	}
}

func TestSelectFollowUps_ResolvedByAbsencesDesc(t *testing.T) {
	members := []frequency.MemberFrequency{
		member("r1", "Rita", 3, frequency.CabinetResolved),
		member("r2", "Rui", 7, frequency.CabinetResolved),
		member("r3", "Raul", 4, frequency.CabinetResolved),
	}
	lists := frequency.SelectFollowUps(members)
	if got := ids(lists.Resolved); !equal(got, []string{"r2", "r3", "r1"}) {
		t.Fatalf("expected [r2 r3 r1], got %v", got)
	}
	if len(lists.Active) != 0 {
		t.Fatalf("expected no active follow-ups, got %v", ids(lists.Active))
	}
}

func TestSelectFollowUps_PerfectMemberScenario(t *testing.T) {
	perfect := frequency.Aggregate(nil, sundaysOfMarch2024()[:4], []frequency.Record{
		rec("2024-03-03", frequency.StatusPresent),
		rec("2024-03-10", frequency.StatusPresent),
		rec("2024-03-17", frequency.StatusPresent),
		rec("2024-03-24", frequency.StatusPresent),
	}, false)
	if perfect.Percent != 100 {
		t.Fatalf("expected 100%%, got %v", perfect.Percent)
	}

	members := []frequency.MemberFrequency{
		frequency.NewMemberFrequency("g", "Gabriel", "Jovens", "Membro", frequency.Stats{Absences: 1, TotalExpected: 4}, ""),
		frequency.NewMemberFrequency("p", "Paula", "Jovens", "Membro", perfect, ""),
		frequency.NewMemberFrequency("b", "Beatriz", "Jovens", "Membro", frequency.Stats{Absences: 0, TotalExpected: 4}, ""),
	}
	if members[1].Category != frequency.Perfect {
		t.Fatalf("expected Perfect, got %s", members[1].Category)
	}

	lists := frequency.SelectFollowUps(members)
	if len(lists.Active) != 0 || len(lists.Resolved) != 0 {
		t.Fatalf("expected no follow-ups, got active=%v resolved=%v", ids(lists.Active), ids(lists.Resolved))
	}
	if got := ids(lists.Positive); !equal(got, []string{"b", "p", "g"}) {
		t.Fatalf("expected positive [b p g], got %v", got)
	}
}

func TestPriorityAttention_IgnoresCabinetStatus(t *testing.T) {
	members := []frequency.MemberFrequency{
		member("low", "Lia", 3, frequency.CabinetResolved),
		member("crit", "Caio", 5, frequency.CabinetNone),
		member("good", "Gil", 1, frequency.CabinetNone),
	}
	if got := ids(frequency.PriorityAttention(members)); !equal(got, []string{"crit", "low"}) {
		t.Fatalf("expected [crit low], got %v", got)
	}
}

func TestCountByCategory(t *testing.T) {
	members := []frequency.MemberFrequency{
		member("1", "A", 0, ""),
		member("2", "B", 0, ""),
		member("3", "C", 2, ""),
		member("4", "D", 9, ""),
	}
	counts := frequency.CountByCategory(members)
	if counts[frequency.Perfect] != 2 || counts[frequency.Good] != 1 || counts[frequency.Low] != 0 || counts[frequency.Critical] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}
