package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/alefyrezendesign/mvp-frequencia/internal/store"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 4

var (
	ErrInvalidPassword = errors.New("senha incorreta")
	ErrPasswordNotSet  = errors.New("nenhuma senha de acesso configurada")
	ErrWeakPassword    = fmt.Errorf("a senha deve ter pelo menos %d caracteres", minPasswordLength)
)

type SettingsService struct {
	store  *store.Store
	logger *logrus.Logger
}

func NewSettingsService(st *store.Store) *SettingsService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &SettingsService{store: st, logger: logger}
}

// EnsurePassword seeds the access password when none is stored yet.
func (s *SettingsService) EnsurePassword(ctx context.Context, defaultPassword string) error {
	if defaultPassword == "" || s.store.Settings().AccessPasswordHash != "" {
		return nil
	}
	if err := s.ChangePassword(ctx, defaultPassword); err != nil {
		return fmt.Errorf("seed access password: %w", err)
	}
	s.logger.Info("Access password seeded from configuration")
	return nil
}

func (s *SettingsService) VerifyPassword(password string) error {
	hash := s.store.Settings().AccessPasswordHash
	if hash == "" {
		return ErrPasswordNotSet
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(strings.TrimSpace(password))); err != nil {
		return ErrInvalidPassword
	}
	return nil
}

func (s *SettingsService) ChangePassword(ctx context.Context, password string) error {
	password = strings.TrimSpace(password)
	if utf8.RuneCountInString(password) < minPasswordLength {
		return ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	settings := s.store.Settings()
	settings.AccessPasswordHash = string(hash)
	return s.store.SaveSettings(ctx, settings)
}

func (s *SettingsService) JustifiedCountsAsPresence() bool {
	return s.store.Settings().JustifiedCountsAsPresence
}

// ToggleJustified flips whether justified absences count as presence and returns the new value.
func (s *SettingsService) ToggleJustified(ctx context.Context) (bool, error) {
	settings := s.store.Settings()
	settings.JustifiedCountsAsPresence = !settings.JustifiedCountsAsPresence
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return !settings.JustifiedCountsAsPresence, err
	}
	return settings.JustifiedCountsAsPresence, nil
}

func (s *SettingsService) FormatSettings() string {
	settings := s.store.Settings()

	justified := "❌ não"
	if settings.JustifiedCountsAsPresence {
		justified = "✅ sim"
	}
	password := "🔑 configurada"
	if settings.AccessPasswordHash == "" {
		password = "⚠️ não configurada"
	}

	return fmt.Sprintf(
		`⚙️ Configurações

📝 Justificativa conta como presença: %s
🔐 Senha de acesso: %s

📏 Categorias por faltas no mês:
   🟢 Perfeita: 0
   🔵 Boa: 1 a 2
   🟠 Baixa: 3 a 4
   🔴 Crítica: 5 ou mais`,
		justified, password)
}
