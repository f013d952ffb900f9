package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alefyrezendesign/mvp-frequencia/internal/cache"
	"github.com/alefyrezendesign/mvp-frequencia/internal/models"
	"github.com/alefyrezendesign/mvp-frequencia/internal/store"
	"github.com/alefyrezendesign/mvp-frequencia/pkg/frequency"

	"github.com/sirupsen/logrus"
)

const dayLockTTL = 30 * time.Second

var (
	ErrNotServiceDate        = errors.New("não há culto nesta data")
	ErrJustificationRequired = errors.New("informe o motivo da justificativa")
	ErrMemberNotInUnit       = errors.New("membro não pertence a esta unidade")
	ErrNothingToFinalize     = errors.New("todos os membros já foram registrados")
)

// DayInfo summarizes one service date of a unit.
type DayInfo struct {
	Date       time.Time
	Registered int
	Total      int
	Justified  bool
}

func (d DayInfo) Key() string {
	return d.Date.Format(frequency.DateLayout)
}

// Completed reports whether every active member has a record.
func (d DayInfo) Completed() bool {
	return d.Total > 0 && d.Registered >= d.Total
}

type RosterEntry struct {
	Member        models.Member
	Status        frequency.AttendanceStatus
	Justification string
}

// DayRoster is the attendance sheet of a unit for one date.
type DayRoster struct {
	Unit          models.Unit
	Date          string
	Pending       []RosterEntry
	Completed     []RosterEntry
	Present       int
	Absent        int
	Justified     int
	NotRegistered int
	PresenceRate  float64
}

type AttendanceService struct {
	store  *store.Store
	units  *UnitCatalog
	locker *cache.Locker
	logger *logrus.Logger
}

func NewAttendanceService(st *store.Store, units *UnitCatalog, locker *cache.Locker) *AttendanceService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &AttendanceService{store: st, units: units, locker: locker, logger: logger}
}

// ServiceDays lists the unit's service dates of the period with completion flags.
func (s *AttendanceService) ServiceDays(unitID string, period frequency.Period) ([]DayInfo, error) {
	unit, err := s.units.Get(unitID)
	if err != nil {
		return nil, err
	}

	active := make(map[string]bool)
	for _, m := range s.store.ActiveMembers(unit.ID) {
		active[m.ID] = true
	}

	dates := unit.ServiceDates(period)
	days := make([]DayInfo, 0, len(dates))
	for _, d := range dates {
		info := DayInfo{Date: d, Total: len(active)}
		for memberID, rec := range s.store.RecordsOn(unit.ID, d.Format(frequency.DateLayout)) {
			if !active[memberID] {
				continue
			}
			info.Registered++
			if rec.Status == frequency.StatusJustified {
				info.Justified = true
			}
		}
		days = append(days, info)
	}
	return days, nil
}

// DefaultDate picks the latest service date up to today in today's month,
// or the first one of the month when none has happened yet.
func (s *AttendanceService) DefaultDate(unitID string, today time.Time) (string, error) {
	unit, err := s.units.Get(unitID)
	if err != nil {
		return "", err
	}

	today = frequency.Day(today)
	dates := unit.ServiceDates(frequency.NewPeriod(today))
	if len(dates) == 0 {
		return today.Format(frequency.DateLayout), nil
	}

	chosen := dates[0]
	for _, d := range dates {
		if d.After(today) {
			break
		}
		chosen = d
	}
	return chosen.Format(frequency.DateLayout), nil
}

func (s *AttendanceService) checkServiceDate(unit models.Unit, date string) error {
	d, err := frequency.ParseDate(date)
	if err != nil {
		return err
	}
	if !unit.IsServiceDate(d) {
		return ErrNotServiceDate
	}
	return nil
}

// Roster splits the unit's active members into pending and completed for the date.
func (s *AttendanceService) Roster(unitID, date string) (*DayRoster, error) {
	unit, err := s.units.Get(unitID)
	if err != nil {
		return nil, err
	}
	if err := s.checkServiceDate(unit, date); err != nil {
		return nil, err
	}

	members := s.store.ActiveMembers(unit.ID)
	records := s.store.RecordsOn(unit.ID, date)

	roster := &DayRoster{Unit: unit, Date: date}
	for _, m := range members {
		entry := RosterEntry{Member: m, Status: frequency.StatusNotRegistered}
		if rec, ok := records[m.ID]; ok {
			entry.Status = rec.Status
			entry.Justification = rec.JustificationText
		}

		switch entry.Status {
		case frequency.StatusPresent:
			roster.Present++
		case frequency.StatusAbsent:
			roster.Absent++
		case frequency.StatusJustified:
			roster.Justified++
		default:
			roster.NotRegistered++
		}

		if entry.Status.IsRegistered() {
			roster.Completed = append(roster.Completed, entry)
		} else {
			roster.Pending = append(roster.Pending, entry)
		}
	}

	if len(members) > 0 {
		roster.PresenceRate = float64(roster.Present) / float64(len(members)) * 100
	}
	return roster, nil
}

func (s *AttendanceService) activeMember(unitID, memberID string) (models.Member, error) {
	m, ok := s.store.Member(memberID)
	if !ok {
		return models.Member{}, models.ErrMemberNotFound
	}
	if m.UnitID != unitID || !m.Active {
		return models.Member{}, ErrMemberNotInUnit
	}
	return m, nil
}

// Toggle sets the member's status for the date. Choosing the current status
// again clears the record. Returns the resulting status.
func (s *AttendanceService) Toggle(ctx context.Context, unitID, memberID, date string, status frequency.AttendanceStatus) (frequency.AttendanceStatus, error) {
	unit, err := s.units.Get(unitID)
	if err != nil {
		return "", err
	}
	if err := s.checkServiceDate(unit, date); err != nil {
		return "", err
	}
	if _, err := s.activeMember(unit.ID, memberID); err != nil {
		return "", err
	}

	final := status
	if rec, ok := s.store.Record(memberID, date); ok && rec.Status == status {
		final = frequency.StatusNotRegistered
	}

	if err := s.store.SetAttendance(ctx, unit.ID, memberID, date, final, ""); err != nil {
		return "", fmt.Errorf("erro ao salvar presença: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"unit_id":   unit.ID,
		"member_id": memberID,
		"date":      date,
		"status":    final,
	}).Info("Attendance updated")
	return final, nil
}

// Justify marks the member as justified with the given reason.
func (s *AttendanceService) Justify(ctx context.Context, unitID, memberID, date, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrJustificationRequired
	}

	unit, err := s.units.Get(unitID)
	if err != nil {
		return err
	}
	if err := s.checkServiceDate(unit, date); err != nil {
		return err
	}
	if _, err := s.activeMember(unit.ID, memberID); err != nil {
		return err
	}

	if err := s.store.SetAttendance(ctx, unit.ID, memberID, date, frequency.StatusJustified, text); err != nil {
		return fmt.Errorf("erro ao salvar justificativa: %w", err)
	}
	return nil
}

// FinalizeDay marks every pending member of the date as absent and returns how many were marked.
func (s *AttendanceService) FinalizeDay(ctx context.Context, unitID, date string) (int, error) {
	var marked int

	err := s.locker.WithLock(ctx, "attendance:"+unitID+":"+date, dayLockTTL, func() error {
		roster, err := s.Roster(unitID, date)
		if err != nil {
			return err
		}
		if len(roster.Pending) == 0 {
			return ErrNothingToFinalize
		}

		batch := make([]models.AttendanceRecord, 0, len(roster.Pending))
		for _, entry := range roster.Pending {
			batch = append(batch, models.AttendanceRecord{
				MemberID: entry.Member.ID,
				UnitID:   roster.Unit.ID,
				Date:     date,
				Status:   frequency.StatusAbsent,
			})
		}
		if err := s.store.BatchSetAttendance(ctx, batch); err != nil {
			return fmt.Errorf("erro ao finalizar chamada: %w", err)
		}
		marked = len(batch)
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.WithFields(logrus.Fields{
		"unit_id": unitID,
		"date":    date,
		"marked":  marked,
	}).Info("Attendance day finalized")
	return marked, nil
}

// ClearDay removes every record of the unit for the date.
func (s *AttendanceService) ClearDay(ctx context.Context, unitID, date string) (int, error) {
	unit, err := s.units.Get(unitID)
	if err != nil {
		return 0, err
	}
	if _, err := frequency.ParseDate(date); err != nil {
		return 0, err
	}

	var removed int
	err = s.locker.WithLock(ctx, "attendance:"+unit.ID+":"+date, dayLockTTL, func() error {
		n, err := s.store.ClearDay(ctx, unit.ID, date)
		removed = n
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.WithFields(logrus.Fields{
		"unit_id": unit.ID,
		"date":    date,
		"removed": removed,
	}).Info("Attendance day cleared")
	return removed, nil
}

func (s *AttendanceService) FormatServiceDays(unit models.Unit, period frequency.Period, days []DayInfo) string {
	if len(days) == 0 {
		return fmt.Sprintf("📭 %s não tem cultos em %s", unit.Name, period.Label())
	}

	var result strings.Builder
	fmt.Fprintf(&result, "📅 Cultos de %s - %s\n\n", unit.Name, period.Label())
	for _, d := range days {
		mark := "⏳"
		if d.Completed() {
			mark = "✅"
		}
		fmt.Fprintf(&result, "%s %s %s - %d/%d", mark, weekdayNames[d.Date.Weekday()], d.Date.Format("02/01"), d.Registered, d.Total)
		if d.Justified {
			result.WriteString(" 📝")
		}
		result.WriteString("\n")
	}
	result.WriteString("\n✅ concluído  ⏳ pendente  📝 com justificativa")
	return result.String()
}

func (s *AttendanceService) FormatRoster(roster *DayRoster) string {
	var result strings.Builder

	date := roster.Date
	if d, err := frequency.ParseDate(roster.Date); err == nil {
		date = fmt.Sprintf("%s %s", weekdayNames[d.Weekday()], d.Format("02/01/2006"))
	}

	fmt.Fprintf(&result, "📋 Chamada - %s\n📅 %s\n\n", roster.Unit.Name, date)
	fmt.Fprintf(&result, "✅ Presentes: %d\n❌ Faltas: %d\n📝 Justificados: %d\n⏳ Sem registro: %d\n",
		roster.Present, roster.Absent, roster.Justified, roster.NotRegistered)
	fmt.Fprintf(&result, "📊 Presença: %.0f%%\n", roster.PresenceRate)

	if len(roster.Pending) == 0 && len(roster.Completed) == 0 {
		result.WriteString("\n📭 Nenhum membro ativo nesta unidade")
		return result.String()
	}
	if len(roster.Pending) == 0 {
		result.WriteString("\n🎉 Todos os membros foram registrados")
	}
	return result.String()
}
