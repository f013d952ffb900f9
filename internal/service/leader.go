package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alefyrezendesign/mvp-frequencia/internal/models"
	"github.com/alefyrezendesign/mvp-frequencia/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/ttacon/libphonenumber"
)

// PhoneRegion is the default region for numbers typed without country code.
const PhoneRegion = "BR"

var (
	ErrInvalidPhone = errors.New("telefone inválido")
	ErrLeaderFormat = errors.New("use: geração;nome;telefone")
)

// GenerationLeader pairs a generation with its leader, if any.
type GenerationLeader struct {
	Generation string
	Leader     *models.Leader
}

type LeaderService struct {
	store  *store.Store
	units  *UnitCatalog
	logger *logrus.Logger
}

func NewLeaderService(st *store.Store, units *UnitCatalog) *LeaderService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &LeaderService{store: st, units: units, logger: logger}
}

// NormalizeLeaderPhone validates phone for the BR region and returns it as digits with country code.
func NormalizeLeaderPhone(phone string) (string, error) {
	p, err := libphonenumber.Parse(strings.TrimSpace(phone), PhoneRegion)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPhone, err)
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", ErrInvalidPhone
	}
	return strings.TrimPrefix(libphonenumber.Format(p, libphonenumber.E164), "+"), nil
}

// List returns one entry per generation, in display order.
func (s *LeaderService) List(unitID string) (models.Unit, []GenerationLeader, error) {
	unit, err := s.units.Get(unitID)
	if err != nil {
		return models.Unit{}, nil, err
	}

	leaders := s.store.Leaders(unit.ID)
	out := make([]GenerationLeader, 0, len(models.Generations))
	for _, g := range models.Generations {
		entry := GenerationLeader{Generation: g}
		if l, ok := leaders[g]; ok {
			l := l
			entry.Leader = &l
		}
		out = append(out, entry)
	}
	return unit, out, nil
}

// Save sets the leader of a generation from "geração;nome;telefone".
func (s *LeaderService) Save(ctx context.Context, unitID, line string) (models.Leader, error) {
	unit, err := s.units.Get(unitID)
	if err != nil {
		return models.Leader{}, err
	}

	parts := strings.Split(line, ";")
	if len(parts) != 3 {
		return models.Leader{}, ErrLeaderFormat
	}

	phone, err := NormalizeLeaderPhone(parts[2])
	if err != nil {
		return models.Leader{}, err
	}

	leader, err := s.store.SaveLeader(ctx, models.Leader{
		UnitID:     unit.ID,
		Generation: parts[0],
		Name:       parts[1],
		Phone:      phone,
	})
	if err != nil {
		return models.Leader{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"unit_id":    unit.ID,
		"generation": leader.Generation,
	}).Info("Leader updated")
	return leader, nil
}

func (s *LeaderService) FormatLeaders(unit models.Unit, leaders []GenerationLeader) string {
	var result strings.Builder
	fmt.Fprintf(&result, "🧑‍🤝‍🧑 Líderes - %s\n\n", unit.Name)
	for _, gl := range leaders {
		if gl.Leader == nil {
			fmt.Fprintf(&result, "▫️ %s: não definido\n", gl.Generation)
			continue
		}
		fmt.Fprintf(&result, "👤 %s: %s (+%s)\n", gl.Generation, gl.Leader.Name, gl.Leader.Phone)
	}
	result.WriteString("\nPara definir: /lider geração;nome;telefone")
	return result.String()
}
