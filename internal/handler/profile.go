package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alefyrezendesign/mvp-frequencia/internal/models"
	"github.com/alefyrezendesign/mvp-frequencia/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// showProfile prints the operator's access and selected unit.
func (h *Handler) showProfile(chatID int64, user *models.User) {
	unitName := ""
	if unit, err := h.units.Get(user.SelectedUnitID); err == nil {
		unitName = unit.Name
	}

	h.send(chatID, h.userService.FormatUserInfo(user, unitName))
}

func (h *Handler) login(ctx context.Context, message *tgbotapi.Message, user *models.User, password string) {
	chatID := message.Chat.ID

	// Never keep the password in the chat.
	h.client.Bot.Request(tgbotapi.NewDeleteMessage(chatID, message.MessageID))

	if user.CanOperate() {
		h.send(chatID, "🔓 Seu acesso já está liberado. Use /help")
		return
	}
	if strings.TrimSpace(password) == "" {
		h.send(chatID, "❌ Use: /login <senha>")
		return
	}

	err := h.settingsService.VerifyPassword(password)
	switch {
	case errors.Is(err, service.ErrInvalidPassword):
		logrus.WithField("chat_id", chatID).Warn("Failed login attempt")
		h.send(chatID, "❌ Senha incorreta.")
		return
	case errors.Is(err, service.ErrPasswordNotSet):
		h.send(chatID, "⚠️ Nenhuma senha configurada. Peça ao administrador para definir uma com /senha.")
		return
	case err != nil:
		h.send(chatID, "❌ "+err.Error())
		return
	}

	if err := h.userService.Authorize(ctx, chatID); err != nil {
		h.send(chatID, "❌ Erro ao liberar acesso: "+err.Error())
		return
	}

	h.send(chatID, "🔓 Acesso liberado!\n\n"+h.units.FormatUnits(user.SelectedUnitID)+"\n\nEscolha sua unidade com /unidades")
}

func (h *Handler) showUnits(chatID int64, user *models.User) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, unit := range h.units.All() {
		label := "⛪ " + unit.Name
		if unit.ID == user.SelectedUnitID {
			label = "☑️ " + unit.Name
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, buildCallback(actionUnit, unit.ID)),
		))
	}

	msg := tgbotapi.NewMessage(chatID, h.units.FormatUnits(user.SelectedUnitID))
	if len(rows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	h.client.Bot.Send(msg)
}

func (h *Handler) selectUnit(ctx context.Context, chatID int64, unitID string) {
	unit, err := h.units.Get(strings.TrimSpace(unitID))
	if err != nil {
		h.send(chatID, "❌ "+err.Error()+". Veja /unidades")
		return
	}

	if err := h.userService.SelectUnit(ctx, chatID, unit.ID); err != nil {
		h.send(chatID, "❌ Erro ao selecionar unidade: "+err.Error())
		return
	}

	h.send(chatID, fmt.Sprintf("⛪ Unidade selecionada: %s\n📅 Cultos: %s\n\nUse /chamada para registrar a presença.", unit.Name, service.FormatServiceDays(unit)))
}

func (h *Handler) handleUnitCallback(ctx context.Context, callback *tgbotapi.CallbackQuery, user *models.User, cb callbackData) {
	h.removeKeyboard(callback)
	h.answer(callback, "")
	h.selectUnit(ctx, callback.Message.Chat.ID, cb.arg(0))
}
