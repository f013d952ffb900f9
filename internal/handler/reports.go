package handler

import (
	"context"
	"fmt"

	"github.com/alefyrezendesign/mvp-frequencia/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

func (h *Handler) showDashboard(chatID int64, user *models.User, args string) {
	unit, ok := h.selectedUnit(chatID, user)
	if !ok {
		return
	}

	period, err := parsePeriodArg(args, h.now())
	if err != nil {
		h.send(chatID, "❌ "+err.Error())
		return
	}

	dashboard, err := h.dashboardService.Build(unit.ID, period)
	if err != nil {
		h.send(chatID, "❌ Erro ao montar painel: "+err.Error())
		return
	}

	h.send(chatID, h.dashboardService.FormatDashboard(dashboard))
}

func (h *Handler) showJustifications(chatID int64, user *models.User, args string) {
	unit, ok := h.selectedUnit(chatID, user)
	if !ok {
		return
	}

	period, err := parsePeriodArg(args, h.now())
	if err != nil {
		h.send(chatID, "❌ "+err.Error())
		return
	}

	entries, err := h.dashboardService.Justifications(unit.ID, period)
	if err != nil {
		h.send(chatID, "❌ Erro ao listar justificativas: "+err.Error())
		return
	}

	h.send(chatID, h.dashboardService.FormatJustifications(unit, period, entries))
}

func (h *Handler) exportWorkbook(chatID int64, user *models.User, args string) {
	unit, ok := h.selectedUnit(chatID, user)
	if !ok {
		return
	}

	period, err := parsePeriodArg(args, h.now())
	if err != nil {
		h.send(chatID, "❌ "+err.Error())
		return
	}

	buf, filename, err := h.reportService.MonthlyWorkbook(unit.ID, period)
	if err != nil {
		logrus.WithError(err).WithField("unit_id", unit.ID).Error("Workbook export failed")
		h.send(chatID, "❌ Erro ao gerar planilha: "+err.Error())
		return
	}

	caption := fmt.Sprintf("📊 Frequência %s - %s", unit.Name, period.Label())
	if err := h.sendFile(chatID, filename, buf.Bytes(), caption); err != nil {
		h.send(chatID, "❌ Erro ao enviar planilha: "+err.Error())
	}
}

func (h *Handler) exportBackup(chatID int64) {
	now := h.now()
	data, err := h.reportService.ExportBackup(now)
	if err != nil {
		h.send(chatID, "❌ Erro ao gerar backup: "+err.Error())
		return
	}

	filename := fmt.Sprintf("backup_frequencia_%s.json", now.Format("2006-01-02"))
	if err := h.sendFile(chatID, filename, data, "💾 Backup completo (sem senha)"); err != nil {
		h.send(chatID, "❌ Erro ao enviar backup: "+err.Error())
	}
}

func (h *Handler) startRestore(chatID int64, user *models.User) {
	if !user.IsAdmin() {
		h.send(chatID, "❌ Acesso negado. Este comando é apenas para administradores.")
		return
	}

	h.userStates[chatID] = stateRestore
	h.send(chatID, `♻️ Restaurar backup

Envie o arquivo .json gerado por /backup.
⚠️ Registros com o mesmo código serão substituídos. A senha atual é mantida.`)
}

func (h *Handler) finishRestore(ctx context.Context, message *tgbotapi.Message, user *models.User) {
	chatID := message.Chat.ID

	if !user.IsAdmin() {
		delete(h.userStates, chatID)
		h.send(chatID, "❌ Acesso negado. Este comando é apenas para administradores.")
		return
	}
	if !hasExtension(message.Document, ".json") {
		h.send(chatID, "📎 Envie o arquivo .json como documento (ou um comando para cancelar).")
		return
	}
	delete(h.userStates, chatID)

	data, err := h.downloadDocument(ctx, message.Document)
	if err != nil {
		h.send(chatID, "❌ "+err.Error())
		return
	}

	summary, err := h.reportService.ImportBackup(ctx, data)
	if err != nil {
		logrus.WithError(err).WithField("chat_id", chatID).Error("Backup restore failed")
		h.send(chatID, "❌ Erro ao restaurar: "+err.Error())
		return
	}

	h.send(chatID, h.reportService.FormatRestoreSummary(summary))
}
