package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alefyrezendesign/mvp-frequencia/internal/models"
	"github.com/alefyrezendesign/mvp-frequencia/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// requireAdmin replies with a denial when user is not an admin.
func (h *Handler) requireAdmin(chatID int64, user *models.User) bool {
	if user.IsAdmin() {
		return true
	}
	logrus.WithField("chat_id", chatID).Warn("Unauthorized access to admin command")
	h.send(chatID, "❌ Acesso negado. Este comando é apenas para administradores.")
	return false
}

// showAllUsers lists every operator that ever talked to the bot.
func (h *Handler) showAllUsers(ctx context.Context, chatID int64, user *models.User) {
	if !h.requireAdmin(chatID, user) {
		return
	}

	allUsers, err := h.userService.FormatAllUsers(ctx)
	if err != nil {
		h.send(chatID, "❌ Erro ao listar operadores: "+err.Error())
		return
	}

	h.send(chatID, allUsers)
}

func parseChatID(args string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("ID inválido %q", strings.TrimSpace(args))
	}
	return id, nil
}

func (h *Handler) revokeOperator(ctx context.Context, chatID int64, user *models.User, args string) {
	if !h.requireAdmin(chatID, user) {
		return
	}

	targetID, err := parseChatID(args)
	if err != nil {
		h.send(chatID, "❌ "+err.Error()+"\nUse: /revogar <ID> (veja /operadores)")
		return
	}
	if targetID == chatID {
		h.send(chatID, "❌ Você não pode revogar o próprio acesso.")
		return
	}

	if err := h.userService.Revoke(ctx, chatID, targetID); err != nil {
		h.send(chatID, "❌ Erro ao revogar acesso: "+err.Error())
		return
	}

	h.send(chatID, fmt.Sprintf("🔒 Acesso de %d revogado.", targetID))
	h.send(targetID, "🔒 Seu acesso ao bot foi revogado. Use /login para entrar novamente.")
}

// setOperatorRole promotes or demotes another operator.
func (h *Handler) setOperatorRole(ctx context.Context, chatID int64, user *models.User, args string, role models.Role) {
	if !h.requireAdmin(chatID, user) {
		return
	}

	targetID, err := parseChatID(args)
	if err != nil {
		h.send(chatID, "❌ "+err.Error()+"\nUse: /promover <ID> ou /rebaixar <ID>")
		return
	}
	if targetID == h.config.BaseAdminChatID && role != models.RoleAdmin {
		h.send(chatID, "❌ O administrador principal não pode ser rebaixado.")
		return
	}

	err = h.userService.UpdateRole(ctx, chatID, targetID, role)
	if errors.Is(err, service.ErrUserNotFound) {
		h.send(chatID, "❌ Operador não encontrado. Ele precisa enviar /start primeiro.")
		return
	}
	if err != nil {
		h.send(chatID, "❌ Erro ao alterar papel: "+err.Error())
		return
	}

	if role == models.RoleAdmin {
		h.send(chatID, fmt.Sprintf("👑 %d agora é administrador.", targetID))
		h.send(targetID, "👑 Você agora é administrador do bot. Veja /help")
		return
	}
	h.send(chatID, fmt.Sprintf("👤 %d agora é operador comum.", targetID))
}

func (h *Handler) showSettings(chatID int64) {
	h.send(chatID, h.settingsService.FormatSettings())
}

func (h *Handler) toggleJustified(ctx context.Context, chatID int64) {
	enabled, err := h.settingsService.ToggleJustified(ctx)
	if err != nil {
		h.send(chatID, "❌ Erro ao salvar configuração: "+err.Error())
		return
	}

	if enabled {
		h.send(chatID, "✅ Justificativas agora contam como presença no cálculo da frequência.")
		return
	}
	h.send(chatID, "❌ Justificativas não contam mais como presença no cálculo da frequência.")
}

func (h *Handler) changePassword(ctx context.Context, message *tgbotapi.Message, user *models.User, args string) {
	chatID := message.Chat.ID
	if !h.requireAdmin(chatID, user) {
		return
	}

	// The command carries a secret; drop it from the chat history.
	h.client.Bot.Request(tgbotapi.NewDeleteMessage(chatID, message.MessageID))

	if err := h.settingsService.ChangePassword(ctx, args); err != nil {
		h.send(chatID, "❌ "+err.Error())
		return
	}

	h.send(chatID, "🔑 Senha de acesso alterada. Operadores já liberados continuam com acesso.")
}
