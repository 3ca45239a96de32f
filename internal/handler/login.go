package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/relaybot/internal/domain"
	"github.com/set-night/relaybot/internal/service"
	"github.com/set-night/relaybot/internal/telegram"
)

// handleLogin starts the password challenge, or binds at once when the
// password is passed inline with "/login <password>".
func (h *Handler) handleLogin(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	password, ok := h.commandArgs(msg.Text)
	if !ok {
		return
	}
	if password != "" {
		h.scrub(ctx, msg.Chat.ID, msg.ID)
	}
	if domain.ChatType(msg.Chat.Type) != domain.ChatTypePrivate {
		h.reply(ctx, msg.Chat.ID, 0, msgLoginPrivateOnly)
		return
	}

	res, err := h.admin.Challenge(ctx, msg.From.ID, msg.Chat.ID, password)
	switch {
	case err != nil:
		h.loginFailed(ctx, msg.Chat.ID, msg.From.ID, err)
	case res == service.ChallengePending:
		h.reply(ctx, msg.Chat.ID, 0, loginPrompt())
	default:
		h.loginSucceeded(ctx, msg.Chat.ID, telegram.User(msg.From))
	}
}

// tryLogin treats the text as the answer to an outstanding challenge.
// It reports false when the user has no pending login.
func (h *Handler) tryLogin(ctx context.Context, in domain.InboundMessage) bool {
	chatID, err := h.admin.Attempt(ctx, in.From.ID, strings.TrimSpace(in.Text))
	if errors.Is(err, domain.ErrNoPendingLogin) {
		return false
	}
	h.scrub(ctx, in.ChatID, in.MessageID)
	if err != nil {
		h.loginFailed(ctx, in.ChatID, in.From.ID, err)
		return true
	}
	h.loginSucceeded(ctx, chatID, in.From)
	return true
}

func (h *Handler) loginSucceeded(ctx context.Context, chatID int64, user domain.User) {
	slog.Info("admin bound", "chat_id", chatID, "user_id", user.ID)
	h.tgLogger.LogAdminBound(chatID, user)
	h.reply(ctx, chatID, 0, msgLoginSucceeded)
}

func (h *Handler) loginFailed(ctx context.Context, chatID, userID int64, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidPassword):
		slog.Warn("admin login rejected", "user_id", userID)
		h.reply(ctx, chatID, 0, msgLoginWrong)
	case errors.Is(err, domain.ErrLoginExpired):
		h.reply(ctx, chatID, 0, msgLoginExpired)
	case errors.Is(err, domain.ErrAlreadyBound):
		h.reply(ctx, chatID, 0, msgAlreadyBound)
	case errors.Is(err, domain.ErrPasswordNotSet):
		h.reply(ctx, chatID, 0, msgPasswordNotSet)
	default:
		slog.Error("admin login failed", "error", err, "user_id", userID)
		h.tgLogger.LogError(err, "admin login")
		h.reply(ctx, chatID, 0, msgInternalError)
	}
}

func (h *Handler) handleLogout(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if _, ok := h.commandArgs(msg.Text); !ok {
		return
	}
	if domain.ChatType(msg.Chat.Type) != domain.ChatTypePrivate {
		h.reply(ctx, msg.Chat.ID, msg.ID, msgPrivateOnly)
		return
	}
	if !h.isAdmin(ctx, msg.From.ID) {
		h.reply(ctx, msg.Chat.ID, 0, msgAdminOnly)
		return
	}
	if err := h.admin.Unbind(ctx); err != nil {
		slog.Error("admin unbind failed", "error", err)
		h.reply(ctx, msg.Chat.ID, 0, msgInternalError)
		return
	}
	slog.Info("admin unbound", "chat_id", msg.Chat.ID)
	h.tgLogger.LogAdminUnbound(msg.Chat.ID)
	h.reply(ctx, msg.Chat.ID, 0, msgLoggedOut)
}
