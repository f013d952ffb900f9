package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alefyrezendesign/mvp-frequencia/internal/models"
	"github.com/alefyrezendesign/mvp-frequencia/internal/store"
	"github.com/alefyrezendesign/mvp-frequencia/pkg/frequency"

	"github.com/sirupsen/logrus"
)

var ErrLeaderMissing = errors.New("nenhum líder cadastrado para a geração deste membro")

// LeaderContact is a ready-to-send notice for a generation leader.
type LeaderContact struct {
	Leader  models.Leader
	Notice  frequency.Notice
	Message string
	Link    string
}

type FollowUpService struct {
	store  *store.Store
	units  *UnitCatalog
	logger *logrus.Logger
}

func NewFollowUpService(st *store.Store, units *UnitCatalog) *FollowUpService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &FollowUpService{store: st, units: units, logger: logger}
}

func (s *FollowUpService) Lists(unitID string, period frequency.Period) (models.Unit, frequency.FollowUpLists, error) {
	unit, err := s.units.Get(unitID)
	if err != nil {
		return models.Unit{}, frequency.FollowUpLists{}, err
	}
	return unit, frequency.SelectFollowUps(memberFrequencies(s.store, unit, period)), nil
}

// Case returns the frequency of one member of the unit for the period.
func (s *FollowUpService) Case(unitID, memberID string, period frequency.Period) (frequency.MemberFrequency, error) {
	unit, err := s.units.Get(unitID)
	if err != nil {
		return frequency.MemberFrequency{}, err
	}
	for _, m := range memberFrequencies(s.store, unit, period) {
		if m.MemberID == memberID {
			return m, nil
		}
	}
	return frequency.MemberFrequency{}, models.ErrMemberNotFound
}

func (s *FollowUpService) SetStatus(ctx context.Context, memberID string, period frequency.Period, status frequency.CabinetStatus) error {
	if _, ok := s.store.Member(memberID); !ok {
		return models.ErrMemberNotFound
	}
	if err := s.store.SetCabinetStatus(ctx, memberID, period.String(), status); err != nil {
		return fmt.Errorf("erro ao salvar acompanhamento: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"member_id": memberID,
		"period":    period.String(),
		"status":    status,
	}).Info("Cabinet status changed")
	return nil
}

// LeaderContact builds the WhatsApp notice to the leader of the member's generation.
func (s *FollowUpService) LeaderContact(unitID, memberID string, period frequency.Period) (*LeaderContact, error) {
	unit, err := s.units.Get(unitID)
	if err != nil {
		return nil, err
	}
	member, ok := s.store.Member(memberID)
	if !ok || member.UnitID != unit.ID {
		return nil, models.ErrMemberNotFound
	}

	leader, ok := s.store.Leader(unit.ID, member.Generation)
	if !ok || member.Generation == "" {
		return nil, ErrLeaderMissing
	}

	mf, err := s.Case(unit.ID, member.ID, period)
	if err != nil {
		return nil, err
	}

	notice := frequency.Notice{
		LeaderName:  leader.Name,
		LeaderPhone: leader.Phone,
		MemberName:  member.Name,
		Role:        member.RoleOrDefault(),
		UnitName:    unit.Name,
		PeriodLabel: period.Label(),
		Stats:       mf.Stats,
		Category:    mf.Category,
	}
	return &LeaderContact{
		Leader:  leader,
		Notice:  notice,
		Message: frequency.BuildLeaderMessage(notice),
		Link:    frequency.WhatsAppLink(notice),
	}, nil
}

func (s *FollowUpService) FormatLists(unit models.Unit, period frequency.Period, lists frequency.FollowUpLists) string {
	var result strings.Builder

	fmt.Fprintf(&result, "🤝 Acompanhamento - %s\n📅 %s\n\n", unit.Name, period.Label())

	fmt.Fprintf(&result, "🔔 Em acompanhamento (%d):\n", len(lists.Active))
	if len(lists.Active) == 0 {
		result.WriteString("   Nenhum caso aberto 🙌\n")
	}
	for i, m := range lists.Active {
		fmt.Fprintf(&result, "%d. %s %s - %d faltas - %s\n", i+1, m.Category.Emoji(), m.Name, m.Stats.Absences, m.Cabinet.Label())
	}

	fmt.Fprintf(&result, "\n✅ Resolvidos (%d):\n", len(lists.Resolved))
	if len(lists.Resolved) == 0 {
		result.WriteString("   Nenhum caso resolvido\n")
	}
	for i, m := range lists.Resolved {
		fmt.Fprintf(&result, "%d. %s - %d faltas\n", i+1, m.Name, m.Stats.Absences)
	}

	return strings.TrimRight(result.String(), "\n")
}

func (s *FollowUpService) FormatCase(m frequency.MemberFrequency, period frequency.Period) string {
	return fmt.Sprintf(
		`%s %s
👥 %s - %s
📅 %s

❌ Faltas: %d
✅ Presenças: %d
📝 Justificativas: %d
📊 Frequência: %.0f%%
🏷 %s

🤝 Gabinete: %s (etapa %d de 4)`,
		m.Category.Emoji(), m.Name,
		m.Generation, m.Role,
		period.Label(),
		m.Stats.Absences,
		m.Stats.Presences,
		m.Stats.Justifications,
		m.Stats.Percent,
		m.Category.String(),
		m.Cabinet.Label(), m.Cabinet.Step(),
	)
}
