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

func (h *Handler) listMembers(chatID int64, user *models.User, query string) {
	unit, ok := h.selectedUnit(chatID, user)
	if !ok {
		return
	}

	members, err := h.memberService.List(unit.ID, query)
	if err != nil {
		h.send(chatID, "❌ Erro ao listar membros: "+err.Error())
		return
	}

	h.send(chatID, h.memberService.FormatMembers(unit, members))
}

func (h *Handler) createMember(ctx context.Context, chatID int64, user *models.User, args string) {
	unit, ok := h.selectedUnit(chatID, user)
	if !ok {
		return
	}

	if strings.TrimSpace(args) == "" {
		h.send(chatID, "❌ Use: /novomembro Nome;Geração;Cargo;Início\nExemplo: /novomembro Maria Souza;Mulheres;Membro;2024-01-07")
		return
	}

	member, err := h.memberService.Create(ctx, unit.ID, args, h.now())
	if err != nil {
		h.send(chatID, "❌ Erro ao cadastrar membro: "+err.Error())
		return
	}

	h.send(chatID, "✅ Membro cadastrado!\n\n"+h.memberService.FormatMember(member))
}

func (h *Handler) editMember(ctx context.Context, chatID int64, user *models.User, args string) {
	unit, ok := h.selectedUnit(chatID, user)
	if !ok {
		return
	}

	ref, assignments, found := strings.Cut(strings.TrimSpace(args), " ")
	if !found || strings.TrimSpace(assignments) == "" {
		h.send(chatID, "❌ Use: /editarmembro <código> campo=valor;...\nCampos: nome, geracao, cargo, inicio, obs")
		return
	}

	member, err := h.memberService.Update(ctx, unit.ID, ref, assignments)
	if err != nil {
		h.send(chatID, "❌ Erro ao editar membro: "+err.Error())
		return
	}

	h.send(chatID, "✅ Membro atualizado!\n\n"+h.memberService.FormatMember(member))
}

func (h *Handler) setMemberActive(ctx context.Context, chatID int64, user *models.User, ref string, active bool) {
	unit, ok := h.selectedUnit(chatID, user)
	if !ok {
		return
	}

	if strings.TrimSpace(ref) == "" {
		h.send(chatID, "❌ Informe o código do membro (veja /membros)")
		return
	}

	member, err := h.memberService.SetActive(ctx, unit.ID, ref, active)
	if err != nil {
		h.send(chatID, "❌ "+err.Error())
		return
	}

	if active {
		h.send(chatID, fmt.Sprintf("🟢 %s voltou para a chamada.", member.Name))
		return
	}
	h.send(chatID, fmt.Sprintf("⚫️ %s não aparece mais na chamada. O histórico foi mantido.", member.Name))
}

func (h *Handler) confirmDeleteMember(chatID int64, user *models.User, ref string) {
	unit, ok := h.selectedUnit(chatID, user)
	if !ok {
		return
	}

	member, err := h.memberService.Find(unit.ID, ref)
	if err != nil {
		h.send(chatID, "❌ "+err.Error())
		return
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Sim, excluir", buildCallback(actionDeleteMember, answerYes, member.ID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancelar", buildCallback(actionDeleteMember, answerNo, member.ID)),
		),
	)

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("⚠️ Excluir %s do cadastro?\nPara só tirar da chamada use /desativar.", member.Name))
	msg.ReplyMarkup = keyboard
	h.client.Bot.Send(msg)
}

func (h *Handler) handleDeleteMemberCallback(ctx context.Context, callback *tgbotapi.CallbackQuery, user *models.User, cb callbackData) {
	chatID := callback.Message.Chat.ID
	h.removeKeyboard(callback)
	h.answer(callback, "")

	if cb.arg(0) != answerYes {
		h.send(chatID, "❌ Exclusão cancelada.")
		return
	}

	unit, ok := h.selectedUnit(chatID, user)
	if !ok {
		return
	}

	member, err := h.memberService.Delete(ctx, unit.ID, cb.arg(1))
	if err != nil {
		h.send(chatID, "❌ Erro ao excluir membro: "+err.Error())
		return
	}

	h.send(chatID, fmt.Sprintf("🗑 %s foi excluído.", member.Name))
}

func (h *Handler) startImport(chatID int64, user *models.User) {
	unit, ok := h.selectedUnit(chatID, user)
	if !ok {
		return
	}

	h.userStates[chatID] = stateImport
	h.send(chatID, fmt.Sprintf(`📥 Importar membros para %s

Envie um arquivo .csv com as colunas Nome e Geração.
Separador: vírgula ou ponto e vírgula. Use /modelo para baixar um exemplo.`, unit.Name))
}

func (h *Handler) finishImport(ctx context.Context, message *tgbotapi.Message, user *models.User) {
	chatID := message.Chat.ID

	if !hasExtension(message.Document, ".csv", ".txt") {
		h.send(chatID, "📎 Envie o arquivo .csv como documento (ou um comando para cancelar).")
		return
	}
	delete(h.userStates, chatID)

	unit, ok := h.selectedUnit(chatID, user)
	if !ok {
		return
	}

	data, err := h.downloadDocument(ctx, message.Document)
	if err != nil {
		h.send(chatID, "❌ "+err.Error())
		return
	}

	result, err := h.memberService.Import(ctx, unit.ID, data, h.now())
	if errors.Is(err, service.ErrEmptyImport) {
		h.send(chatID, "📭 "+err.Error())
		return
	}
	if err != nil {
		logrus.WithError(err).WithField("unit_id", unit.ID).Error("Member import failed")
		h.send(chatID, "❌ Erro ao importar: "+err.Error())
		return
	}

	text := fmt.Sprintf("✅ %d membro(s) importados para %s.", len(result.Imported), unit.Name)
	if result.Skipped > 0 {
		text += fmt.Sprintf("\n⚠️ %d linha(s) ignoradas.", result.Skipped)
	}
	h.send(chatID, text)
}

func (h *Handler) sendTemplate(chatID int64) {
	if err := h.sendFile(chatID, "modelo_membros.csv", []byte(h.memberService.Template()), "📄 Modelo de importação"); err != nil {
		h.send(chatID, "❌ Erro ao enviar modelo: "+err.Error())
	}
}

func (h *Handler) listLeaders(chatID int64, user *models.User) {
	unit, ok := h.selectedUnit(chatID, user)
	if !ok {
		return
	}

	unit, leaders, err := h.leaderService.List(unit.ID)
	if err != nil {
		h.send(chatID, "❌ Erro ao listar líderes: "+err.Error())
		return
	}

	h.send(chatID, h.leaderService.FormatLeaders(unit, leaders))
}

func (h *Handler) saveLeader(ctx context.Context, chatID int64, user *models.User, args string) {
	unit, ok := h.selectedUnit(chatID, user)
	if !ok {
		return
	}

	leader, err := h.leaderService.Save(ctx, unit.ID, args)
	if err != nil {
		h.send(chatID, "❌ "+err.Error()+"\nExemplo: /lider Jovens;João Silva;(11) 98765-4321")
		return
	}

	h.send(chatID, fmt.Sprintf("✅ %s agora é líder de %s (%s).", leader.Name, leader.Generation, leader.Phone))
}
