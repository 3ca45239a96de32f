package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/relaybot/internal/domain"
)

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if _, ok := h.commandArgs(msg.Text); !ok {
		return
	}

	chatType := domain.ChatType(msg.Chat.Type)
	switch {
	case chatType == domain.ChatTypePrivate && h.isAdmin(ctx, msg.From.ID):
		h.reply(ctx, msg.Chat.ID, 0, msgWelcomeAdmin)
	case chatType == domain.ChatTypePrivate:
		h.reply(ctx, msg.Chat.ID, 0, msgWelcomeUser)
	case chatType.IsGroup():
		h.reply(ctx, msg.Chat.ID, msg.ID, msgWelcomeGroup)
	}
}
