package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/alefyrezendesign/mvp-frequencia/internal/models"
	"github.com/alefyrezendesign/mvp-frequencia/internal/service"
	"github.com/alefyrezendesign/mvp-frequencia/pkg/frequency"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

func (h *Handler) showFollowUps(chatID int64, user *models.User, args string) {
	unit, ok := h.selectedUnit(chatID, user)
	if !ok {
		return
	}

	period, err := parsePeriodArg(args, h.now())
	if err != nil {
		h.send(chatID, "❌ "+err.Error())
		return
	}

	unit, lists, err := h.followUpService.Lists(unit.ID, period)
	if err != nil {
		h.send(chatID, "❌ Erro ao montar acompanhamento: "+err.Error())
		return
	}

	msg := tgbotapi.NewMessage(chatID, h.followUpService.FormatLists(unit, period, lists))

	// One button per open case.
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, m := range lists.Active {
		label := fmt.Sprintf("%s %s (%d faltas)", m.Category.Emoji(), shortName(m.Name), m.Stats.Absences)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, buildCallback(actionCase, m.MemberID, period.String())),
		))
	}
	if len(rows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	h.client.Bot.Send(msg)
}

// caseKeyboard offers the cabinet progression and, when a leader exists, the WhatsApp link.
func caseKeyboard(m frequency.MemberFrequency, period frequency.Period, contact *service.LeaderContact) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, status := range frequency.CabinetStatuses[1:] {
		label := status.Label()
		if status == m.Cabinet {
			label = "☑️ " + label
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cabinetCallback(status, m.MemberID, period)),
		))
	}
	if contact != nil {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📲 Informar líder ("+contact.Leader.Name+")", contact.Link),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// caseView renders a follow-up case with its buttons.
func (h *Handler) caseView(unitID, memberID string, period frequency.Period) (string, tgbotapi.InlineKeyboardMarkup, error) {
	m, err := h.followUpService.Case(unitID, memberID, period)
	if err != nil {
		return "", tgbotapi.InlineKeyboardMarkup{}, err
	}

	text := h.followUpService.FormatCase(m, period)
	contact, err := h.followUpService.LeaderContact(unitID, memberID, period)
	switch {
	case errors.Is(err, service.ErrLeaderMissing):
		text += "\n\n⚠️ " + err.Error() + ". Cadastre com /lider"
		contact = nil
	case err != nil:
		return "", tgbotapi.InlineKeyboardMarkup{}, err
	}

	return text, caseKeyboard(m, period, contact), nil
}

func (h *Handler) handleFollowUpCallback(ctx context.Context, callback *tgbotapi.CallbackQuery, user *models.User, cb callbackData) {
	chatID := callback.Message.Chat.ID
	unit, ok := h.selectedUnit(chatID, user)
	if !ok {
		h.answer(callback, "")
		return
	}

	if cb.action == actionCase {
		memberID := cb.arg(0)
		period, err := frequency.ParsePeriod(cb.arg(1))
		if err != nil {
			h.answer(callback, "❌ Botão inválido")
			return
		}

		text, keyboard, err := h.caseView(unit.ID, memberID, period)
		if err != nil {
			h.answer(callback, "❌ "+err.Error())
			return
		}
		h.answer(callback, "")

		msg := tgbotapi.NewMessage(chatID, text)
		msg.ReplyMarkup = keyboard
		h.client.Bot.Send(msg)
		return
	}

	step, _ := cb.intArg(0)
	status, known := cabinetFromStep(step)
	memberID := cb.arg(1)
	period, err := frequency.ParsePeriod(cb.arg(2))
	if !known || err != nil {
		h.answer(callback, "❌ Botão inválido")
		return
	}

	if err := h.followUpService.SetStatus(ctx, memberID, period, status); err != nil {
		logrus.WithError(err).WithField("member_id", memberID).Error("Failed to change cabinet status")
		h.answer(callback, "❌ "+err.Error())
		return
	}
	h.answer(callback, "✅ "+status.Label())

	text, keyboard, err := h.caseView(unit.ID, memberID, period)
	if err != nil {
		h.send(chatID, "❌ "+err.Error())
		return
	}
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, callback.Message.MessageID, text, keyboard)
	if _, err := h.client.Bot.Send(edit); err != nil {
		logrus.WithError(err).Debug("Failed to edit follow-up case")
	}
}
