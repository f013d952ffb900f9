package handler

import (
	"context"
	"fmt"

	"github.com/alefyrezendesign/mvp-frequencia/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// publicCommands work before /login.
var publicCommands = map[string]bool{
	"start": true,
	"help":  true,
	"login": true,
}

func (h *Handler) handleCommand(ctx context.Context, message *tgbotapi.Message, user *models.User) {
	chatID := message.Chat.ID
	command := message.Command()
	args := message.CommandArguments()

	if !publicCommands[command] && !user.CanOperate() {
		logrus.WithFields(logrus.Fields{
			"chat_id": chatID,
			"command": command,
		}).Warn("Command from operator without access")
		h.send(chatID, "🔒 Acesso restrito. Use /login <senha> para entrar.")
		return
	}

	switch command {
	case "start":
		h.sendStartMessage(message, user)
	case "help":
		h.sendHelpMessage(message, user)
	case "login":
		h.login(ctx, message, user, args)
	case "perfil":
		h.showProfile(chatID, user)

	// Unidade
	case "unidades":
		h.showUnits(chatID, user)
	case "unidade":
		h.selectUnit(ctx, chatID, args)

	// Chamada
	case "datas":
		h.showServiceDays(chatID, user, args)
	case "chamada":
		h.showRoster(chatID, user, args)
	case "finalizar":
		h.finalizeDay(ctx, chatID, user, args)
	case "limpar":
		h.confirmClearDay(chatID, user, args)

	// Relatórios
	case "painel":
		h.showDashboard(chatID, user, args)
	case "justificativas":
		h.showJustifications(chatID, user, args)
	case "acompanhamento":
		h.showFollowUps(chatID, user, args)
	case "exportar":
		h.exportWorkbook(chatID, user, args)

	// Membros e liderança
	case "membros":
		h.listMembers(chatID, user, args)
	case "novomembro":
		h.createMember(ctx, chatID, user, args)
	case "editarmembro":
		h.editMember(ctx, chatID, user, args)
	case "desativar":
		h.setMemberActive(ctx, chatID, user, args, false)
	case "ativar":
		h.setMemberActive(ctx, chatID, user, args, true)
	case "excluirmembro":
		h.confirmDeleteMember(chatID, user, args)
	case "importar":
		h.startImport(chatID, user)
	case "modelo":
		h.sendTemplate(chatID)
	case "lideres":
		h.listLeaders(chatID, user)
	case "lider":
		h.saveLeader(ctx, chatID, user, args)

	// Configurações
	case "config":
		h.showSettings(chatID)
	case "justificadas":
		h.toggleJustified(ctx, chatID)
	case "senha":
		h.changePassword(ctx, message, user, args)
	case "backup":
		h.exportBackup(chatID)
	case "restaurar":
		h.startRestore(chatID, user)
	case "operadores":
		h.showAllUsers(ctx, chatID, user)
	case "revogar":
		h.revokeOperator(ctx, chatID, user, args)
	case "promover":
		h.setOperatorRole(ctx, chatID, user, args, models.RoleAdmin)
	case "rebaixar":
		h.setOperatorRole(ctx, chatID, user, args, models.RoleClient)

	default:
		h.sendUnknownCommand(message)
	}
}

func (h *Handler) sendUnknownCommand(message *tgbotapi.Message) {
	msg := tgbotapi.NewMessage(message.Chat.ID, "❌ Comando desconhecido. Use /help para ver a lista de comandos.")
	h.client.Bot.Send(msg)
}

func (h *Handler) sendStartMessage(message *tgbotapi.Message, user *models.User) {
	chatID := message.Chat.ID

	text := fmt.Sprintf(`🙌 Olá, %s!

Sou o bot de frequência dos cultos. Com ele você:
• registra a presença dos membros em cada culto
• acompanha o painel do mês por unidade
• avisa os líderes de geração sobre quem precisa de cuidado

`, user.DisplayName())

	if !user.CanOperate() {
		text += "🔒 Para começar, envie /login <senha> com a senha de acesso da igreja."
	} else if user.SelectedUnitID == "" {
		text += "⛪ Escolha sua unidade com /unidades e depois use /chamada."
	} else {
		text += "📋 Use /chamada para registrar a presença ou /help para ver tudo."
	}

	h.send(chatID, text)
}

func (h *Handler) sendHelpMessage(message *tgbotapi.Message, user *models.User) {
	chatID := message.Chat.ID

	if !user.CanOperate() {
		h.send(chatID, `📋 Comandos disponíveis:

/start - Boas-vindas
/help - Esta mensagem
/login <senha> - Liberar acesso`)
		return
	}

	text := `📋 Comandos disponíveis:

⛪ Unidade:
/unidades - Escolher unidade
/unidade <id> - Selecionar unidade pelo código
/perfil - Meu cadastro

✅ Chamada:
/datas [AAAA-MM] - Cultos do mês e situação
/chamada [data] - Registrar presença (✅ presente, ❌ falta, 📝 justificativa)
/finalizar [data] - Marcar pendentes como falta
/limpar [data] - Apagar registros do dia
    Data: AAAA-MM-DD ou DD/MM/AAAA

📊 Relatórios:
/painel [AAAA-MM] - Painel do mês
/justificativas [AAAA-MM] - Justificativas do mês
/acompanhamento [AAAA-MM] - Membros com 3 faltas ou mais
/exportar [AAAA-MM] - Planilha do mês (.xlsx)

👥 Membros:
/membros [busca] - Listar membros
/novomembro Nome;Geração;Cargo;Início - Cadastrar
/editarmembro <código> campo=valor;... - Editar
/desativar <código> - Tirar da chamada
/ativar <código> - Voltar para a chamada
/excluirmembro <código> - Excluir cadastro
/importar - Importar planilha .csv
/modelo - Baixar modelo de importação

🧭 Liderança:
/lideres - Líderes por geração
/lider Geração;Nome;Telefone - Definir líder

⚙️ Configurações:
/config - Ver configurações
/justificadas - Alternar se justificativa conta como presença
/backup - Baixar backup (.json)`

	if user.IsAdmin() {
		text += `

👑 Administração:
/senha <nova> - Alterar senha de acesso
/restaurar - Restaurar backup (.json)
/operadores - Listar operadores
/revogar <ID> - Revogar acesso
/promover <ID> - Tornar administrador
/rebaixar <ID> - Remover administrador`

		if h.config.BaseAdminChatID != 0 {
			text += fmt.Sprintf("\n\n🔧 ID do administrador principal: %d", h.config.BaseAdminChatID)
		}
	}

	h.send(chatID, text)
}
