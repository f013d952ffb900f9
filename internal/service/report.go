package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/alefyrezendesign/mvp-frequencia/internal/models"
	"github.com/alefyrezendesign/mvp-frequencia/internal/store"
	"github.com/alefyrezendesign/mvp-frequencia/pkg/frequency"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const backupVersion = 1

var ErrInvalidBackup = errors.New("arquivo de backup inválido: membros e presenças são obrigatórios")

// Backup is the portable JSON export of all data. The access password is never included.
type Backup struct {
	Version    int                       `json:"version"`
	ExportedAt time.Time                 `json:"exported_at"`
	Members    []models.Member           `json:"members"`
	Attendance []models.AttendanceRecord `json:"attendance"`
	Cabinet    []models.CabinetFollowUp  `json:"cabinet"`
	Leaders    []models.Leader           `json:"leaders"`
	Settings   models.AppSettings        `json:"settings"`
}

type RestoreSummary struct {
	Members    int
	Attendance int
	Cabinet    int
	Leaders    int
	Skipped    int
}

type ReportService struct {
	store  *store.Store
	units  *UnitCatalog
	logger *logrus.Logger
}

func NewReportService(st *store.Store, units *UnitCatalog) *ReportService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &ReportService{store: st, units: units, logger: logger}
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func statusLetter(s frequency.AttendanceStatus) string {
	switch s {
	case frequency.StatusPresent:
		return "P"
	case frequency.StatusAbsent:
		return "F"
	case frequency.StatusJustified:
		return "J"
	}
	return "-"
}

// MonthlyWorkbook builds the XLSX report of a unit for the period.
func (s *ReportService) MonthlyWorkbook(unitID string, period frequency.Period) (*bytes.Buffer, string, error) {
	unit, err := s.units.Get(unitID)
	if err != nil {
		return nil, "", err
	}

	members := memberFrequencies(s.store, unit, period)
	dates := unit.ServiceDates(period)
	records := s.store.RecordsFor(unit.ID, period)

	f := excelize.NewFile()
	defer f.Close()

	const summary = "Frequência"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return nil, "", err
	}

	headers := []string{"Nome", "Geração", "Cargo", "Presenças", "Faltas", "Justificativas", "Cultos previstos", "Frequência (%)", "Categoria", "Gabinete"}
	for i, h := range headers {
		f.SetCellValue(summary, cell(i+1, 1), h)
	}
	for i, m := range members {
		row := i + 2
		f.SetCellValue(summary, cell(1, row), m.Name)
		f.SetCellValue(summary, cell(2, row), m.Generation)
		f.SetCellValue(summary, cell(3, row), m.Role)
		f.SetCellValue(summary, cell(4, row), m.Stats.Presences)
		f.SetCellValue(summary, cell(5, row), m.Stats.Absences)
		f.SetCellValue(summary, cell(6, row), m.Stats.Justifications)
		f.SetCellValue(summary, cell(7, row), m.Stats.TotalExpected)
		f.SetCellValue(summary, cell(8, row), fmt.Sprintf("%.0f", m.Stats.Percent))
		f.SetCellValue(summary, cell(9, row), m.Category.Short())
		f.SetCellValue(summary, cell(10, row), m.Cabinet.Label())
	}

	const sheet = "Chamada"
	if _, err := f.NewSheet(sheet); err != nil {
		return nil, "", err
	}
	status := make(map[string]frequency.AttendanceStatus, len(records))
	for _, r := range records {
		status[r.Key()] = r.Status
	}
	f.SetCellValue(sheet, cell(1, 1), "Nome")
	for j, d := range dates {
		f.SetCellValue(sheet, cell(j+2, 1), d.Format("02/01"))
	}
	for i, m := range members {
		row := i + 2
		f.SetCellValue(sheet, cell(1, row), m.Name)
		for j, d := range dates {
			st := status[models.AttendanceKey(m.MemberID, d.Format(frequency.DateLayout))]
			f.SetCellValue(sheet, cell(j+2, row), statusLetter(st))
		}
	}

	const justified = "Justificativas"
	if _, err := f.NewSheet(justified); err != nil {
		return nil, "", err
	}
	f.SetCellValue(justified, "A1", "Data")
	f.SetCellValue(justified, "B1", "Nome")
	f.SetCellValue(justified, "C1", "Motivo")
	row := 2
	for _, r := range records {
		if r.Status != frequency.StatusJustified {
			continue
		}
		name := r.MemberID
		if m, ok := s.store.Member(r.MemberID); ok {
			name = m.Name
		}
		f.SetCellValue(justified, cell(1, row), r.Date)
		f.SetCellValue(justified, cell(2, row), name)
		f.SetCellValue(justified, cell(3, row), r.JustificationText)
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("frequencia_%s_%s.xlsx", unit.ID, period.String())
	s.logger.WithFields(logrus.Fields{
		"unit_id": unit.ID,
		"period":  period.String(),
		"members": len(members),
	}).Info("Monthly workbook exported")
	return buf, filename, nil
}

func (s *ReportService) ExportBackup(now time.Time) ([]byte, error) {
	snap := s.store.Snapshot()

	settings := snap.Settings
	settings.AccessPasswordHash = ""

	backup := Backup{
		Version:    backupVersion,
		ExportedAt: now,
		Members:    snap.Members,
		Attendance: snap.Attendance,
		Cabinet:    snap.Cabinet,
		Leaders:    snap.Leaders,
		Settings:   settings,
	}
	return json.MarshalIndent(backup, "", "  ")
}

// ImportBackup restores a JSON backup on top of the current data. Existing rows with
// the same keys are replaced; the access password is kept.
func (s *ReportService) ImportBackup(ctx context.Context, r io.Reader) (*RestoreSummary, error) {
	var backup Backup
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if backup.Members == nil || backup.Attendance == nil {
		return nil, ErrInvalidBackup
	}

	summary := &RestoreSummary{}

	if err := s.store.BatchSaveMembers(ctx, backup.Members); err != nil {
		return nil, fmt.Errorf("restaurar membros: %w", err)
	}
	summary.Members = len(backup.Members)

	valid := make([]models.AttendanceRecord, 0, len(backup.Attendance))
	for _, rec := range backup.Attendance {
		if !rec.IsValid() {
			summary.Skipped++
			continue
		}
		valid = append(valid, rec)
	}
	if err := s.store.BatchSetAttendance(ctx, valid); err != nil {
		return nil, fmt.Errorf("restaurar presenças: %w", err)
	}
	summary.Attendance = len(valid)

	for _, c := range backup.Cabinet {
		st, err := frequency.ParseCabinetStatus(string(c.Status))
		if err != nil || c.MemberID == "" {
			summary.Skipped++
			continue
		}
		if err := s.store.SetCabinetStatus(ctx, c.MemberID, c.Period, st); err != nil {
			return nil, fmt.Errorf("restaurar gabinete: %w", err)
		}
		summary.Cabinet++
	}

	for _, l := range backup.Leaders {
		if _, err := s.store.SaveLeader(ctx, l); err != nil {
			summary.Skipped++
			continue
		}
		summary.Leaders++
	}

	settings := s.store.Settings()
	settings.JustifiedCountsAsPresence = backup.Settings.JustifiedCountsAsPresence
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("restaurar configurações: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"members":    summary.Members,
		"attendance": summary.Attendance,
		"cabinet":    summary.Cabinet,
		"leaders":    summary.Leaders,
		"skipped":    summary.Skipped,
	}).Info("Backup restored")
	return summary, nil
}

func (s *ReportService) FormatRestoreSummary(sum *RestoreSummary) string {
	return fmt.Sprintf(
		`♻️ Backup restaurado

👥 Membros: %d
📋 Presenças: %d
🤝 Acompanhamentos: %d
🧑‍🤝‍🧑 Líderes: %d
⚠️ Ignorados: %d`,
		sum.Members, sum.Attendance, sum.Cabinet, sum.Leaders, sum.Skipped)
}
