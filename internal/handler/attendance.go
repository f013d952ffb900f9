package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alefyrezendesign/mvp-frequencia/internal/cache"
	"github.com/alefyrezendesign/mvp-frequencia/internal/models"
	"github.com/alefyrezendesign/mvp-frequencia/internal/service"
	"github.com/alefyrezendesign/mvp-frequencia/pkg/frequency"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

const (
	rosterPageSize = 12
	buttonNameLen  = 22
)

// parseDateArg accepts AAAA-MM-DD, DD/MM/AAAA or DD/MM (current year).
func parseDateArg(arg string, now time.Time) (string, error) {
	arg = strings.TrimSpace(arg)
	if d, err := frequency.ParseDate(arg); err == nil {
		return d.Format(frequency.DateLayout), nil
	}
	if d, err := time.Parse("02/01/2006", arg); err == nil {
		return d.Format(frequency.DateLayout), nil
	}
	if d, err := time.Parse("02/01", arg); err == nil {
		d = time.Date(now.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		return d.Format(frequency.DateLayout), nil
	}
	return "", fmt.Errorf("data inválida %q, use AAAA-MM-DD ou DD/MM/AAAA", arg)
}

// parsePeriodArg accepts AAAA-MM or MM/AAAA; empty means the current month.
func parsePeriodArg(arg string, now time.Time) (frequency.Period, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return frequency.NewPeriod(now), nil
	}
	if p, err := frequency.ParsePeriod(arg); err == nil {
		return p, nil
	}
	if t, err := time.Parse("01/2006", arg); err == nil {
		return frequency.NewPeriod(t), nil
	}
	return frequency.Period{}, fmt.Errorf("mês inválido %q, use AAAA-MM", arg)
}

// dateFor resolves the optional date argument of a day command.
func (h *Handler) dateFor(unitID, arg string) (string, error) {
	if strings.TrimSpace(arg) == "" {
		return h.attendanceService.DefaultDate(unitID, h.now())
	}
	return parseDateArg(arg, h.now())
}

func shortName(name string) string {
	if utf8.RuneCountInString(name) <= buttonNameLen {
		return name
	}
	runes := []rune(name)
	return string(runes[:buttonNameLen-1]) + "…"
}

func rosterEntries(roster *service.DayRoster) []service.RosterEntry {
	entries := make([]service.RosterEntry, 0, len(roster.Pending)+len(roster.Completed))
	entries = append(entries, roster.Pending...)
	return append(entries, roster.Completed...)
}

func pageCount(total int) int {
	if total == 0 {
		return 1
	}
	return (total + rosterPageSize - 1) / rosterPageSize
}

// rosterKeyboard renders one row per member with the three status buttons.
func rosterKeyboard(roster *service.DayRoster, page int) tgbotapi.InlineKeyboardMarkup {
	entries := rosterEntries(roster)
	pages := pageCount(len(entries))
	if page < 0 {
		page = 0
	}
	if page >= pages {
		page = pages - 1
	}

	var rows [][]tgbotapi.InlineKeyboardButton

	start := page * rosterPageSize
	end := start + rosterPageSize
	if end > len(entries) {
		end = len(entries)
	}
	for _, entry := range entries[start:end] {
		id := entry.Member.ID
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(entry.Status.Emoji()+" "+shortName(entry.Member.Name), actionNoop),
			tgbotapi.NewInlineKeyboardButtonData("✅", attendanceCallback(frequency.StatusPresent, id, roster.Date, page)),
			tgbotapi.NewInlineKeyboardButtonData("❌", attendanceCallback(frequency.StatusAbsent, id, roster.Date, page)),
			tgbotapi.NewInlineKeyboardButtonData("📝", attendanceCallback(frequency.StatusJustified, id, roster.Date, page)),
		))
	}

	if pages > 1 {
		var nav []tgbotapi.InlineKeyboardButton
		if page > 0 {
			nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️", buildCallback(actionRosterPage, roster.Date, strconv.Itoa(page-1))))
		}
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("📄 %d/%d", page+1, pages), actionNoop))
		if page < pages-1 {
			nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("➡️", buildCallback(actionRosterPage, roster.Date, strconv.Itoa(page+1))))
		}
		rows = append(rows, nav)
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (h *Handler) showServiceDays(chatID int64, user *models.User, args string) {
	unit, ok := h.selectedUnit(chatID, user)
	if !ok {
		return
	}

	period, err := parsePeriodArg(args, h.now())
	if err != nil {
		h.send(chatID, "❌ "+err.Error())
		return
	}

	days, err := h.attendanceService.ServiceDays(unit.ID, period)
	if err != nil {
		h.send(chatID, "❌ Erro ao listar cultos: "+err.Error())
		return
	}

	h.send(chatID, h.attendanceService.FormatServiceDays(unit, period, days))
}

func (h *Handler) showRoster(chatID int64, user *models.User, args string) {
	unit, ok := h.selectedUnit(chatID, user)
	if !ok {
		return
	}

	date, err := h.dateFor(unit.ID, args)
	if err != nil {
		h.send(chatID, "❌ "+err.Error())
		return
	}

	h.sendRoster(chatID, unit.ID, date)
}

func (h *Handler) sendRoster(chatID int64, unitID, date string) {
	roster, err := h.attendanceService.Roster(unitID, date)
	if err != nil {
		h.send(chatID, "❌ "+err.Error())
		return
	}

	msg := tgbotapi.NewMessage(chatID, h.attendanceService.FormatRoster(roster))
	if len(roster.Pending)+len(roster.Completed) > 0 {
		msg.ReplyMarkup = rosterKeyboard(roster, 0)
	}
	h.client.Bot.Send(msg)
}

func (h *Handler) editRoster(callback *tgbotapi.CallbackQuery, unitID, date string, page int) {
	roster, err := h.attendanceService.Roster(unitID, date)
	if err != nil {
		h.send(callback.Message.Chat.ID, "❌ "+err.Error())
		return
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(
		callback.Message.Chat.ID,
		callback.Message.MessageID,
		h.attendanceService.FormatRoster(roster),
		rosterKeyboard(roster, page),
	)
	if _, err := h.client.Bot.Send(edit); err != nil {
		logrus.WithError(err).Debug("Failed to edit roster")
	}
}

func (h *Handler) handleAttendanceCallback(ctx context.Context, callback *tgbotapi.CallbackQuery, user *models.User, cb callbackData) {
	chatID := callback.Message.Chat.ID
	unit, ok := h.selectedUnit(chatID, user)
	if !ok {
		h.answer(callback, "")
		return
	}

	if cb.action == actionRosterPage {
		page, _ := cb.intArg(1)
		h.answer(callback, "")
		h.editRoster(callback, unit.ID, cb.arg(0), page)
		return
	}

	status, known := statusCodes[cb.arg(0)]
	memberID, date := cb.arg(1), cb.arg(2)
	page, _ := cb.intArg(3)
	if !known || memberID == "" || date == "" {
		h.answer(callback, "❌ Botão inválido")
		return
	}

	if status == frequency.StatusJustified {
		member, err := h.memberService.Find(unit.ID, memberID)
		if err != nil {
			h.answer(callback, "❌ "+err.Error())
			return
		}
		h.userStates[chatID] = stateJustify + ":" + memberID + ":" + date
		h.answer(callback, "")
		h.send(chatID, fmt.Sprintf("📝 Envie o motivo da justificativa de %s:", member.Name))
		return
	}

	final, err := h.attendanceService.Toggle(ctx, unit.ID, memberID, date, status)
	if err != nil {
		logrus.WithError(err).WithField("member_id", memberID).Error("Failed to toggle attendance")
		h.answer(callback, "❌ "+err.Error())
		return
	}

	h.answer(callback, final.Emoji()+" "+final.Label())
	h.editRoster(callback, unit.ID, date, page)
}

func (h *Handler) finishJustification(ctx context.Context, message *tgbotapi.Message, user *models.User, target string) {
	chatID := message.Chat.ID
	memberID, date, _ := strings.Cut(target, ":")

	unit, ok := h.selectedUnit(chatID, user)
	if !ok {
		delete(h.userStates, chatID)
		return
	}

	err := h.attendanceService.Justify(ctx, unit.ID, memberID, date, message.Text)
	if errors.Is(err, service.ErrJustificationRequired) {
		h.send(chatID, "✏️ "+err.Error()+":")
		return
	}
	delete(h.userStates, chatID)
	if err != nil {
		h.send(chatID, "❌ "+err.Error())
		return
	}

	h.send(chatID, "✅ Justificativa registrada")
	h.sendRoster(chatID, unit.ID, date)
}

func (h *Handler) finalizeDay(ctx context.Context, chatID int64, user *models.User, args string) {
	unit, ok := h.selectedUnit(chatID, user)
	if !ok {
		return
	}

	date, err := h.dateFor(unit.ID, args)
	if err != nil {
		h.send(chatID, "❌ "+err.Error())
		return
	}

	marked, err := h.attendanceService.FinalizeDay(ctx, unit.ID, date)
	switch {
	case errors.Is(err, service.ErrNothingToFinalize):
		h.send(chatID, "ℹ️ "+err.Error())
		return
	case errors.Is(err, cache.ErrBusy):
		h.send(chatID, "⏳ Outra pessoa está alterando este dia. Tente novamente em instantes.")
		return
	case err != nil:
		h.send(chatID, "❌ "+err.Error())
		return
	}

	h.send(chatID, fmt.Sprintf("🏁 Chamada finalizada: %d membro(s) marcados com falta.", marked))
	h.sendRoster(chatID, unit.ID, date)
}

func (h *Handler) confirmClearDay(chatID int64, user *models.User, args string) {
	unit, ok := h.selectedUnit(chatID, user)
	if !ok {
		return
	}

	date, err := h.dateFor(unit.ID, args)
	if err != nil {
		h.send(chatID, "❌ "+err.Error())
		return
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Sim, limpar", buildCallback(actionClearDay, answerYes, date)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancelar", buildCallback(actionClearDay, answerNo, date)),
		),
	)

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("⚠️ Apagar todos os registros de %s em %s?", unit.Name, date))
	msg.ReplyMarkup = keyboard
	h.client.Bot.Send(msg)
}

func (h *Handler) handleClearDayCallback(ctx context.Context, callback *tgbotapi.CallbackQuery, user *models.User, cb callbackData) {
	chatID := callback.Message.Chat.ID
	h.removeKeyboard(callback)
	h.answer(callback, "")

	if cb.arg(0) != answerYes {
		h.send(chatID, "❌ Limpeza cancelada.")
		return
	}

	unit, ok := h.selectedUnit(chatID, user)
	if !ok {
		return
	}

	date := cb.arg(1)
	removed, err := h.attendanceService.ClearDay(ctx, unit.ID, date)
	if errors.Is(err, cache.ErrBusy) {
		h.send(chatID, "⏳ Outra pessoa está alterando este dia. Tente novamente em instantes.")
		return
	}
	if err != nil {
		h.send(chatID, "❌ Erro ao limpar o dia: "+err.Error())
		return
	}

	h.send(chatID, fmt.Sprintf("🧹 %d registro(s) removidos de %s.", removed, date))
}
