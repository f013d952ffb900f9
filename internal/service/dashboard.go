package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alefyrezendesign/mvp-frequencia/internal/models"
	"github.com/alefyrezendesign/mvp-frequencia/internal/store"
	"github.com/alefyrezendesign/mvp-frequencia/pkg/frequency"

	"github.com/sirupsen/logrus"
)

// Dashboard is the monthly overview of a unit.
type Dashboard struct {
	Unit                models.Unit
	Period              frequency.Period
	TotalServices       int
	Members             []frequency.MemberFrequency
	Counts              map[frequency.Category]int
	TotalPresences      int
	TotalJustifications int
	GlobalRate          float64
	Priority            []frequency.MemberFrequency
	Positive            []frequency.MemberFrequency
}

type JustificationEntry struct {
	Date       string
	MemberName string
	Text       string
}

type DashboardService struct {
	store  *store.Store
	units  *UnitCatalog
	logger *logrus.Logger
}

func NewDashboardService(st *store.Store, units *UnitCatalog) *DashboardService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &DashboardService{store: st, units: units, logger: logger}
}

func (s *DashboardService) Build(unitID string, period frequency.Period) (*Dashboard, error) {
	unit, err := s.units.Get(unitID)
	if err != nil {
		return nil, err
	}

	members := memberFrequencies(s.store, unit, period)
	d := &Dashboard{
		Unit:          unit,
		Period:        period,
		TotalServices: len(unit.ServiceDates(period)),
		Members:       members,
		Counts:        frequency.CountByCategory(members),
		Priority:      frequency.PriorityAttention(members),
		Positive:      frequency.SelectFollowUps(members).Positive,
	}

	for _, m := range members {
		d.TotalPresences += m.Stats.Presences
		d.TotalJustifications += m.Stats.Justifications
	}
	if potential := d.TotalServices * len(members); potential > 0 {
		d.GlobalRate = float64(d.TotalPresences) / float64(potential) * 100
	}

	s.logger.WithFields(logrus.Fields{
		"unit_id": unit.ID,
		"period":  period.String(),
		"members": len(members),
	}).Debug("Dashboard built")
	return d, nil
}

// Justifications lists the unit's justified absences of the period, newest first.
func (s *DashboardService) Justifications(unitID string, period frequency.Period) ([]JustificationEntry, error) {
	unit, err := s.units.Get(unitID)
	if err != nil {
		return nil, err
	}

	var out []JustificationEntry
	for _, rec := range s.store.RecordsFor(unit.ID, period) {
		if rec.Status != frequency.StatusJustified {
			continue
		}
		name := "Membro desconhecido"
		if m, ok := s.store.Member(rec.MemberID); ok {
			name = m.Name
		}
		out = append(out, JustificationEntry{Date: rec.Date, MemberName: name, Text: rec.JustificationText})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return strings.ToLower(out[i].MemberName) < strings.ToLower(out[j].MemberName)
	})
	return out, nil
}

func (s *DashboardService) FormatDashboard(d *Dashboard) string {
	var result strings.Builder

	fmt.Fprintf(&result, "📊 Painel - %s\n📅 %s\n\n", d.Unit.Name, d.Period.Label())
	fmt.Fprintf(&result, "⛪ Cultos no mês: %d\n", d.TotalServices)
	fmt.Fprintf(&result, "👥 Membros ativos: %d\n", len(d.Members))
	fmt.Fprintf(&result, "📈 Presença geral: %.0f%%\n", d.GlobalRate)
	fmt.Fprintf(&result, "📝 Justificativas: %d\n\n", d.TotalJustifications)

	result.WriteString("🏷 Categorias:\n")
	for _, c := range frequency.Categories {
		fmt.Fprintf(&result, "   %s %s: %d\n", c.Emoji(), c.Short(), d.Counts[c])
	}

	result.WriteString("\n🚨 Atenção prioritária:\n")
	if len(d.Priority) == 0 {
		result.WriteString("   Nenhum membro com frequência baixa 🙌\n")
	}
	for i, m := range d.Priority {
		fmt.Fprintf(&result, "%d. %s %s - %d faltas (%s)\n", i+1, m.Category.Emoji(), m.Name, m.Stats.Absences, m.Generation)
	}

	result.WriteString("\n🌟 Engajamento positivo:\n")
	if len(d.Positive) == 0 {
		result.WriteString("   Ninguém nesta lista ainda\n")
	}
	for i, m := range d.Positive {
		fmt.Fprintf(&result, "%d. %s %s - %.0f%%\n", i+1, m.Category.Emoji(), m.Name, m.Stats.Percent)
	}

	return strings.TrimRight(result.String(), "\n")
}

func (s *DashboardService) FormatJustifications(unit models.Unit, period frequency.Period, entries []JustificationEntry) string {
	if len(entries) == 0 {
		return fmt.Sprintf("📭 Nenhuma justificativa em %s - %s", unit.Name, period.Label())
	}

	var result strings.Builder
	fmt.Fprintf(&result, "📝 Justificativas - %s\n📅 %s\n\n", unit.Name, period.Label())
	for _, e := range entries {
		date := e.Date
		if d, err := frequency.ParseDate(e.Date); err == nil {
			date = d.Format("02/01")
		}
		text := e.Text
		if text == "" {
			text = "sem motivo informado"
		}
		fmt.Fprintf(&result, "• %s - %s: %s\n", date, e.MemberName, text)
	}
	return strings.TrimRight(result.String(), "\n")
}
