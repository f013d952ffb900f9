package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/alefyrezendesign/mvp-frequencia/internal/models"
	"github.com/alefyrezendesign/mvp-frequencia/internal/store"
	"github.com/alefyrezendesign/mvp-frequencia/pkg/frequency"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ShortIDLength is how many characters of a member id are shown in listings
// and accepted as a reference in commands.
const ShortIDLength = 8

const csvTemplate = "Nome,Geração\nFulano de Tal,Jovens\nBeltrana,Kids\n"

var (
	ErrAmbiguousMember = errors.New("mais de um membro corresponde a este código")
	ErrEmptyImport     = errors.New("nenhum dado válido encontrado no arquivo")
	ErrUnknownField    = errors.New("campo desconhecido")
)

type ImportResult struct {
	Imported []models.Member
	Skipped  int
}

type MemberService struct {
	store  *store.Store
	units  *UnitCatalog
	logger *logrus.Logger
}

func NewMemberService(st *store.Store, units *UnitCatalog) *MemberService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &MemberService{store: st, units: units, logger: logger}
}

func ShortID(id string) string {
	if len(id) <= ShortIDLength {
		return id
	}
	return id[:ShortIDLength]
}

// List returns the unit's members whose name contains query (case-insensitive), sorted by name.
func (s *MemberService) List(unitID, query string) ([]models.Member, error) {
	unit, err := s.units.Get(unitID)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	all := s.store.Members(unit.ID)
	if query == "" {
		return all, nil
	}

	out := make([]models.Member, 0)
	for _, m := range all {
		if strings.Contains(strings.ToLower(m.Name), query) {
			out = append(out, m)
		}
	}
	return out, nil
}

// Find resolves a full id or an id prefix to a member of the unit.
func (s *MemberService) Find(unitID, ref string) (models.Member, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return models.Member{}, models.ErrMemberNotFound
	}

	if m, ok := s.store.Member(ref); ok && m.UnitID == unitID {
		return m, nil
	}

	var found []models.Member
	for _, m := range s.store.Members(unitID) {
		if strings.HasPrefix(m.ID, ref) {
			found = append(found, m)
		}
	}
	switch len(found) {
	case 0:
		return models.Member{}, models.ErrMemberNotFound
	case 1:
		return found[0], nil
	default:
		return models.Member{}, ErrAmbiguousMember
	}
}

// Create adds a member from "Nome;Geração;Cargo;Início". Only the name is required.
func (s *MemberService) Create(ctx context.Context, unitID, line string, today time.Time) (models.Member, error) {
	unit, err := s.units.Get(unitID)
	if err != nil {
		return models.Member{}, err
	}

	parts := strings.Split(line, ";")
	field := func(i int) string {
		if i < len(parts) {
			return strings.TrimSpace(parts[i])
		}
		return ""
	}

	m := models.Member{
		Name:       field(0),
		UnitID:     unit.ID,
		Generation: field(1),
		Role:       field(2),
		StartDate:  field(3),
		Active:     true,
	}
	if m.Role == "" {
		m.Role = models.RoleMember
	}
	if m.StartDate == "" {
		m.StartDate = today.Format(frequency.DateLayout)
	}

	saved, err := s.store.SaveMember(ctx, m)
	if err != nil {
		return models.Member{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"id":      saved.ID,
		"unit_id": unit.ID,
	}).Info("Member created")
	return saved, nil
}

// Update applies "campo=valor;campo=valor" assignments to a member.
func (s *MemberService) Update(ctx context.Context, unitID, ref, assignments string) (models.Member, error) {
	m, err := s.Find(unitID, ref)
	if err != nil {
		return models.Member{}, err
	}

	for _, pair := range strings.Split(assignments, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return models.Member{}, fmt.Errorf("%w: %q", ErrUnknownField, pair)
		}
		value = strings.TrimSpace(value)

		switch strings.ToLower(strings.TrimSpace(key)) {
		case "nome":
			m.Name = value
		case "geracao", "geração":
			m.Generation = value
		case "cargo":
			m.Role = value
		case "inicio", "início":
			m.StartDate = value
		case "obs", "notas":
			m.Notes = value
		default:
			return models.Member{}, fmt.Errorf("%w: %q", ErrUnknownField, key)
		}
	}

	return s.store.SaveMember(ctx, m)
}

func (s *MemberService) SetActive(ctx context.Context, unitID, ref string, active bool) (models.Member, error) {
	m, err := s.Find(unitID, ref)
	if err != nil {
		return models.Member{}, err
	}
	m.Active = active
	return s.store.SaveMember(ctx, m)
}

func (s *MemberService) Delete(ctx context.Context, unitID, ref string) (models.Member, error) {
	m, err := s.Find(unitID, ref)
	if err != nil {
		return models.Member{}, err
	}
	if err := s.store.DeleteMember(ctx, m.ID); err != nil {
		return models.Member{}, err
	}
	return m, nil
}

// Import reads "Nome,Geração" rows (comma or semicolon separated, optional header)
// and adds them as active members of the unit. Unknown generations fall back to the first one.
func (s *MemberService) Import(ctx context.Context, unitID string, r io.Reader, today time.Time) (*ImportResult, error) {
	unit, err := s.units.Get(unitID)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = detectSeparator(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	result := &ImportResult{}
	first := true
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("erro ao ler CSV: %w", err)
		}

		if first {
			first = false
			if len(row) > 0 && strings.Contains(strings.ToLower(row[0]), "nome") {
				continue
			}
		}

		name := ""
		if len(row) > 0 {
			name = strings.TrimSpace(row[0])
		}
		if name == "" {
			result.Skipped++
			continue
		}

		generation := ""
		if len(row) > 1 {
			generation = models.MatchGeneration(row[1])
		}
		if !models.IsGeneration(generation) {
			generation = models.Generations[0]
		}

		result.Imported = append(result.Imported, models.Member{
			ID:         uuid.NewString(),
			Name:       name,
			UnitID:     unit.ID,
			Generation: generation,
			Role:       models.RoleMember,
			Active:     true,
			StartDate:  today.Format(frequency.DateLayout),
		})
	}

	if len(result.Imported) == 0 {
		return nil, ErrEmptyImport
	}
	if err := s.store.BatchSaveMembers(ctx, result.Imported); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"unit_id":  unit.ID,
		"imported": len(result.Imported),
		"skipped":  result.Skipped,
	}).Info("Members imported")
	return result, nil
}

// detectSeparator looks at the first non-empty line: ';' wins when present.
func detectSeparator(data []byte) rune {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.Contains(line, ";") {
			return ';'
		}
		return ','
	}
	return ','
}

func (s *MemberService) Template() string {
	return csvTemplate
}

func (s *MemberService) FormatMembers(unit models.Unit, members []models.Member) string {
	if len(members) == 0 {
		return fmt.Sprintf("📭 Nenhum membro encontrado em %s", unit.Name)
	}

	var result strings.Builder
	fmt.Fprintf(&result, "👥 Membros - %s (%d)\n\n", unit.Name, len(members))
	for _, m := range members {
		mark := "🟢"
		if !m.Active {
			mark = "⚫️"
		}
		fmt.Fprintf(&result, "%s %s - %s · %s [%s]\n", mark, m.Name, m.GenerationOrDefault(), m.RoleOrDefault(), ShortID(m.ID))
	}
	result.WriteString("\n⚫️ inativo · use o código entre colchetes em /editarmembro")
	return result.String()
}

func (s *MemberService) FormatMember(m models.Member) string {
	var lines []string

	lines = append(lines, fmt.Sprintf("👤 %s", m.Name))
	lines = append(lines, fmt.Sprintf("🆔 Código: %s", ShortID(m.ID)))
	lines = append(lines, fmt.Sprintf("👥 Geração: %s", m.GenerationOrDefault()))
	lines = append(lines, fmt.Sprintf("🎖 Cargo: %s", m.RoleOrDefault()))

	if start := m.EnrolledOn(); start != nil {
		lines = append(lines, fmt.Sprintf("📅 Início: %s", start.Format("02/01/2006")))
	}

	status := "🟢 ativo"
	if !m.Active {
		status = "⚫️ inativo"
	}
	lines = append(lines, fmt.Sprintf("Situação: %s", status))

	if m.Notes != "" {
		lines = append(lines, fmt.Sprintf("📝 %s", m.Notes))
	}

	return strings.Join(lines, "\n")
}
