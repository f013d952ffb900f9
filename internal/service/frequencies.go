package service

import (
	"github.com/alefyrezendesign/mvp-frequencia/internal/models"
	"github.com/alefyrezendesign/mvp-frequencia/internal/store"
	"github.com/alefyrezendesign/mvp-frequencia/pkg/frequency"
)

// memberFrequencies computes the period statistics of every active member of the unit.
func memberFrequencies(st *store.Store, unit models.Unit, period frequency.Period) []frequency.MemberFrequency {
	serviceDates := unit.ServiceDates(period)
	justified := st.Settings().JustifiedCountsAsPresence

	byMember := make(map[string][]frequency.Record)
	for _, rec := range st.RecordsFor(unit.ID, period) {
		byMember[rec.MemberID] = append(byMember[rec.MemberID], rec.ToFrequency())
	}

	members := st.ActiveMembers(unit.ID)
	out := make([]frequency.MemberFrequency, 0, len(members))
	for _, m := range members {
		stats := frequency.Aggregate(m.EnrolledOn(), serviceDates, byMember[m.ID], justified)
		out = append(out, frequency.NewMemberFrequency(
			m.ID,
			m.Name,
			m.GenerationOrDefault(),
			m.RoleOrDefault(),
			stats,
			st.Cabinet(m.ID, period.String()),
		))
	}
	return out
}
