package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/set-night/relaybot/internal/config"
	"github.com/set-night/relaybot/internal/service"
	"github.com/set-night/relaybot/internal/telegram"
)

// Messenger is the outbound Telegram surface used by handlers.
type Messenger interface {
	service.Messenger
	Answer(ctx context.Context, callbackID, text string, alert bool)
}

// Handler holds all dependencies needed by command and callback handlers.
type Handler struct {
	bot           *bot.Bot
	cfg           *config.Config
	tg            Messenger
	admin         *service.AdminService
	relay         *service.RelayService
	wizard        *service.WizardService
	participation *service.ParticipationService
	scheduler     *service.Scheduler
	render        *service.Renderer
	chats         service.ChatRepository
	lotteries     service.LotteryRepository
	tgLogger      *telegram.TelegramLogger
	botUsername   string
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot           *bot.Bot
	Cfg           *config.Config
	Messenger     Messenger
	Admin         *service.AdminService
	Relay         *service.RelayService
	Wizard        *service.WizardService
	Participation *service.ParticipationService
	Scheduler     *service.Scheduler
	Render        *service.Renderer
	Chats         service.ChatRepository
	Lotteries     service.LotteryRepository
	TgLogger      *telegram.TelegramLogger
	BotUsername   string
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:           deps.Bot,
		cfg:           deps.Cfg,
		tg:            deps.Messenger,
		admin:         deps.Admin,
		relay:         deps.Relay,
		wizard:        deps.Wizard,
		participation: deps.Participation,
		scheduler:     deps.Scheduler,
		render:        deps.Render,
		chats:         deps.Chats,
		lotteries:     deps.Lotteries,
		tgLogger:      deps.TgLogger,
		botUsername:   deps.BotUsername,
	}
}
