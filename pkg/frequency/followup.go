package frequency

import (
	"sort"
	"strings"
)

// FollowUpMinAbsences is the absence count from which a member needs pastoral attention.
const FollowUpMinAbsences = 3

// MemberFrequency is a member annotated with its period statistics.
type MemberFrequency struct {
	MemberID   string
	Name       string
	Generation string
	Role       string
	Stats      Stats
	Category   Category
	Cabinet    CabinetStatus
}

// NewMemberFrequency classifies st and fills Category.
func NewMemberFrequency(memberID, name, generation, role string, st Stats, cabinet CabinetStatus) MemberFrequency {
	if cabinet == "" {
		cabinet = CabinetNone
	}
	return MemberFrequency{
		MemberID:   memberID,
		Name:       name,
		Generation: generation,
		Role:       role,
		Stats:      st,
		Category:   Classify(st.Absences),
		Cabinet:    cabinet,
	}
}

// FollowUpLists groups members for the follow-up and dashboard screens.
type FollowUpLists struct {
	Active   []MemberFrequency
	Resolved []MemberFrequency
	Positive []MemberFrequency
}

// Eligible reports whether a member enters the follow-up lists.
func Eligible(m MemberFrequency) bool {
	return m.Stats.Absences >= FollowUpMinAbsences
}

// SelectFollowUps splits members into the active and resolved follow-up lists and the
// positive engagement list. Input order does not matter.
func SelectFollowUps(members []MemberFrequency) FollowUpLists {
	var lists FollowUpLists
	for _, m := range byName(members) {
		switch {
		case Eligible(m) && m.Cabinet.IsResolved():
			lists.Resolved = append(lists.Resolved, m)
		case Eligible(m):
			lists.Active = append(lists.Active, m)
		case m.Category <= Good:
			lists.Positive = append(lists.Positive, m)
		}
	}

	sortBySeverity(lists.Active)
	sort.SliceStable(lists.Resolved, func(i, j int) bool {
		return lists.Resolved[i].Stats.Absences > lists.Resolved[j].Stats.Absences
	})
	sort.SliceStable(lists.Positive, func(i, j int) bool {
		return lists.Positive[i].Stats.Absences < lists.Positive[j].Stats.Absences
	})
	return lists
}

// PriorityAttention returns the Low and Critical members regardless of their
// follow-up status, most severe first.
func PriorityAttention(members []MemberFrequency) []MemberFrequency {
	var out []MemberFrequency
	for _, m := range byName(members) {
		if m.Category.NeedsFollowUp() {
			out = append(out, m)
		}
	}
	sortBySeverity(out)
	return out
}

// CountByCategory returns how many members fall in each category.
func CountByCategory(members []MemberFrequency) map[Category]int {
	counts := make(map[Category]int, len(Categories))
	for _, c := range Categories {
		counts[c] = 0
	}
	for _, m := range members {
		counts[m.Category]++
	}
	return counts
}

// Critical before Low, then more absences first; ties keep the incoming name order.
func sortBySeverity(list []MemberFrequency) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if (a.Category == Critical) != (b.Category == Critical) {
			return a.Category == Critical
		}
		return a.Stats.Absences > b.Stats.Absences
	})
}

func byName(members []MemberFrequency) []MemberFrequency {
	sorted := make([]MemberFrequency, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})
	return sorted
}
