package handler

import (
	"context"
	"strings"
	"time"

	"github.com/alefyrezendesign/mvp-frequencia/internal/config"
	"github.com/alefyrezendesign/mvp-frequencia/internal/models"
	"github.com/alefyrezendesign/mvp-frequencia/internal/service"
	"github.com/alefyrezendesign/mvp-frequencia/pkg/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Per-chat conversation states.
const (
	stateJustify = "awaiting_justification" // + ":" + memberID + ":" + date
	stateImport  = "awaiting_import"
	stateRestore = "awaiting_restore"
)

// Services bundles everything the handler talks to.
type Services struct {
	Users      *service.UserService
	Units      *service.UnitCatalog
	Attendance *service.AttendanceService
	Dashboard  *service.DashboardService
	FollowUp   *service.FollowUpService
	Members    *service.MemberService
	Leaders    *service.LeaderService
	Settings   *service.SettingsService
	Reports    *service.ReportService
}

type Handler struct {
	client            *telegram.Client
	userService       *service.UserService
	units             *service.UnitCatalog
	attendanceService *service.AttendanceService
	dashboardService  *service.DashboardService
	followUpService   *service.FollowUpService
	memberService     *service.MemberService
	leaderService     *service.LeaderService
	settingsService   *service.SettingsService
	reportService     *service.ReportService
	userStates        map[int64]string
	config            *config.BotConfig
	now               func() time.Time
}

func NewHandler(client *telegram.Client, services Services, cfg *config.BotConfig) *Handler {
	return &Handler{
		client:            client,
		userService:       services.Users,
		units:             services.Units,
		attendanceService: services.Attendance,
		dashboardService:  services.Dashboard,
		followUpService:   services.FollowUp,
		memberService:     services.Members,
		leaderService:     services.Leaders,
		settingsService:   services.Settings,
		reportService:     services.Reports,
		userStates:        make(map[int64]string),
		config:            cfg,
		now:               time.Now,
	}
}

func (h *Handler) HandleUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}

			if update.CallbackQuery != nil {
				h.handleCallbackQuery(ctx, update.CallbackQuery)
				continue
			}

			if update.Message == nil || update.Message.From == nil {
				continue
			}

			h.handleMessage(ctx, update.Message)
		}
	}
}

// handleCallbackQuery dispatches inline button presses by data prefix.
func (h *Handler) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID
	data := callback.Data

	// Buttons only work for operators with access.
	user, ok := h.operatorFrom(ctx, chatID, callback.From)
	if !ok {
		h.answer(callback, "🔒 Acesso negado")
		return
	}

	cb := parseCallback(data)
	switch cb.action {
	case actionAttendance, actionRosterPage:
		h.handleAttendanceCallback(ctx, callback, user, cb)
	case actionClearDay:
		h.handleClearDayCallback(ctx, callback, user, cb)
	case actionCase, actionCabinet:
		h.handleFollowUpCallback(ctx, callback, user, cb)
	case actionDeleteMember:
		h.handleDeleteMemberCallback(ctx, callback, user, cb)
	case actionUnit:
		h.handleUnitCallback(ctx, callback, user, cb)
	case actionNoop:
		h.answer(callback, "")
	default:
		logrus.WithField("data", data).Warn("Unknown callback")
		h.answer(callback, "")
	}
}

func (h *Handler) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	logrus.Infof("[%s] %s", message.From.UserName, message.Text)

	chatID := message.Chat.ID

	user, err := h.userService.EnsureUser(ctx, chatID, message.From.UserName, message.From.FirstName, message.From.LastName)
	if err != nil {
		logrus.WithError(err).WithField("chat_id", chatID).Error("Failed to load operator")
		h.send(chatID, "❌ Erro ao carregar seu cadastro: "+err.Error())
		return
	}

	// Commands always win over a pending conversation step.
	if message.IsCommand() {
		delete(h.userStates, chatID)
		h.handleCommand(ctx, message, user)
		return
	}

	if state, exists := h.userStates[chatID]; exists && user.CanOperate() {
		h.handleState(ctx, message, user, state)
		return
	}

	if !user.CanOperate() {
		h.send(chatID, "🔒 Use /login <senha> para liberar o acesso.")
		return
	}

	h.send(chatID, "🤔 Não entendi. Use /help para ver os comandos.")
}

func (h *Handler) handleState(ctx context.Context, message *tgbotapi.Message, user *models.User, state string) {
	chatID := message.Chat.ID

	switch {
	case strings.HasPrefix(state, stateJustify+":"):
		h.finishJustification(ctx, message, user, strings.TrimPrefix(state, stateJustify+":"))
	case state == stateImport:
		h.finishImport(ctx, message, user)
	case state == stateRestore:
		h.finishRestore(ctx, message, user)
	default:
		delete(h.userStates, chatID)
		h.send(chatID, "🤔 Não entendi. Use /help para ver os comandos.")
	}
}

// operatorFrom loads the operator behind a chat and reports whether it may operate.
func (h *Handler) operatorFrom(ctx context.Context, chatID int64, from *tgbotapi.User) (*models.User, bool) {
	var username, firstName, lastName string
	if from != nil {
		username, firstName, lastName = from.UserName, from.FirstName, from.LastName
	}

	user, err := h.userService.EnsureUser(ctx, chatID, username, firstName, lastName)
	if err != nil {
		logrus.WithError(err).WithField("chat_id", chatID).Error("Failed to load operator")
		return nil, false
	}
	return user, user.CanOperate()
}

// selectedUnit resolves the operator's unit or tells them to pick one.
func (h *Handler) selectedUnit(chatID int64, user *models.User) (models.Unit, bool) {
	if user.SelectedUnitID == "" {
		h.send(chatID, "⛪ Escolha uma unidade primeiro com /unidades")
		return models.Unit{}, false
	}
	unit, err := h.units.Get(user.SelectedUnitID)
	if err != nil {
		h.send(chatID, "❌ Unidade selecionada não existe mais. Use /unidades")
		return models.Unit{}, false
	}
	return unit, true
}

func (h *Handler) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.client.Bot.Send(msg); err != nil {
		logrus.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
	}
}

// answer removes the "loading" clock from a pressed button.
func (h *Handler) answer(callback *tgbotapi.CallbackQuery, text string) {
	if _, err := h.client.Bot.Request(tgbotapi.NewCallback(callback.ID, text)); err != nil {
		logrus.WithError(err).Debug("Failed to answer callback")
	}
}

// removeKeyboard drops the inline buttons of an answered confirmation.
func (h *Handler) removeKeyboard(callback *tgbotapi.CallbackQuery) {
	editMsg := tgbotapi.NewEditMessageReplyMarkup(callback.Message.Chat.ID, callback.Message.MessageID, tgbotapi.NewInlineKeyboardMarkup())
	h.client.Bot.Send(editMsg)
}
