package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alefyrezendesign/mvp-frequencia/internal/models"
	"github.com/alefyrezendesign/mvp-frequencia/internal/repository"

	"github.com/sirupsen/logrus"
)

var (
	ErrAccessDenied = errors.New("acesso negado")
	ErrUserNotFound = errors.New("usuário não encontrado")
)

type UserService struct {
	repo   repository.UserRepository
	logger *logrus.Logger
}

func NewUserService(repo repository.UserRepository) *UserService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return &UserService{repo: repo, logger: logger}
}

// EnsureUser returns the operator for chatID, registering it on first contact.
func (s *UserService) EnsureUser(ctx context.Context, chatID int64, username, firstName, lastName string) (*models.User, error) {
	user, err := s.repo.GetByChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar usuário: %w", err)
	}
	if user != nil {
		return user, nil
	}

	if firstName == "" {
		firstName = username
	}
	user = &models.User{
		ChatID:    chatID,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		Role:      models.RoleClient,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("erro ao criar usuário: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"chat_id":  chatID,
		"username": username,
	}).Info("New operator registered")
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, chatID int64) (*models.User, error) {
	user, err := s.repo.GetByChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar usuário: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) Authorize(ctx context.Context, chatID int64) error {
	if err := s.repo.SetAuthorized(ctx, chatID, true); err != nil {
		return err
	}
	s.logger.WithField("chat_id", chatID).Info("Operator authorized")
	return nil
}

// Revoke removes access of another operator. Only admins may do it.
func (s *UserService) Revoke(ctx context.Context, adminChatID, targetChatID int64) error {
	if err := s.requireAdmin(ctx, adminChatID); err != nil {
		return err
	}
	if err := s.repo.SetAuthorized(ctx, targetChatID, false); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"admin_chat_id":  adminChatID,
		"target_chat_id": targetChatID,
	}).Info("Operator access revoked")
	return nil
}

func (s *UserService) SelectUnit(ctx context.Context, chatID int64, unitID string) error {
	return s.repo.SetSelectedUnit(ctx, chatID, unitID)
}

// UpdateRole changes the role of an operator. Only admins may do it.
func (s *UserService) UpdateRole(ctx context.Context, adminChatID, targetChatID int64, role models.Role) error {
	if err := s.requireAdmin(ctx, adminChatID); err != nil {
		return err
	}
	if err := s.repo.UpdateRole(ctx, targetChatID, role); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (s *UserService) requireAdmin(ctx context.Context, chatID int64) error {
	admin, err := s.repo.GetByChatID(ctx, chatID)
	if err != nil {
		return fmt.Errorf("erro ao verificar administrador: %w", err)
	}
	if admin == nil || !admin.IsAdmin() {
		return ErrAccessDenied
	}
	return nil
}

func (s *UserService) IsAdmin(ctx context.Context, chatID int64) (bool, error) {
	user, err := s.repo.GetByChatID(ctx, chatID)
	if err != nil {
		return false, err
	}
	return user != nil && user.IsAdmin(), nil
}

// InitializeAdmin grants the admin role to the chat configured at startup.
func (s *UserService) InitializeAdmin(ctx context.Context, adminChatID int64) error {
	if adminChatID == 0 {
		return nil
	}

	existing, err := s.repo.GetByChatID(ctx, adminChatID)
	if err != nil {
		return err
	}
	if existing != nil {
		if err := s.repo.UpdateRole(ctx, adminChatID, models.RoleAdmin); err != nil {
			return err
		}
		return s.repo.SetAuthorized(ctx, adminChatID, true)
	}

	return s.repo.Create(ctx, &models.User{
		ChatID:     adminChatID,
		Username:   "admin",
		FirstName:  "Administrador",
		Role:       models.RoleAdmin,
		Authorized: true,
	})
}

func (s *UserService) FormatUserInfo(user *models.User, unitName string) string {
	var lines []string

	lines = append(lines, "👤 Perfil do operador:")
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("🆔 Chat: %d", user.ChatID))
	if user.Username != "" {
		lines = append(lines, fmt.Sprintf("📛 Usuário: @%s", user.Username))
	}
	lines = append(lines, fmt.Sprintf("🙋 Nome: %s", user.DisplayName()))

	roleEmoji := "👤"
	if user.IsAdmin() {
		roleEmoji = "👑"
	}
	lines = append(lines, fmt.Sprintf("%s Papel: %s", roleEmoji, user.Role))

	access := "🔒 sem acesso (use /login)"
	if user.CanOperate() {
		access = "🔓 liberado"
	}
	lines = append(lines, fmt.Sprintf("Acesso: %s", access))

	if unitName == "" {
		unitName = "nenhuma (use /unidades)"
	}
	lines = append(lines, fmt.Sprintf("⛪ Unidade: %s", unitName))

	return strings.Join(lines, "\n")
}

func (s *UserService) FormatAllUsers(ctx context.Context) (string, error) {
	users, err := s.repo.GetAll(ctx)
	if err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "📭 Nenhum operador cadastrado.", nil
	}

	var lines []string
	lines = append(lines, "📋 Operadores:")
	lines = append(lines, "")

	for i, user := range users {
		roleEmoji := "👤"
		if user.IsAdmin() {
			roleEmoji = "👑"
		}
		access := "🔒"
		if user.CanOperate() {
			access = "🔓"
		}

		info := fmt.Sprintf("%d. %s%s %s", i+1, roleEmoji, access, user.DisplayName())
		if user.Username != "" {
			info += fmt.Sprintf(" (@%s)", user.Username)
		}
		info += fmt.Sprintf(" - ID: %d", user.ChatID)
		lines = append(lines, info)
	}

	total, authorized, _ := s.repo.GetStats(ctx)
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("📊 Total: %d", total))
	lines = append(lines, fmt.Sprintf("🔓 Com acesso: %d", authorized))

	return strings.Join(lines, "\n"), nil
}
