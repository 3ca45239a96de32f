package middleware

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/relaybot/internal/domain"
	"github.com/set-night/relaybot/internal/service"
	"github.com/set-night/relaybot/internal/telegram"
)

// Recorder returns middleware that upserts the sender (and the group for
// group chats) and stores every incoming message before routing. Storage
// failures are logged and never block the update.
func Recorder(chats service.ChatRepository) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if msg := update.Message; msg != nil && msg.From != nil && !msg.From.IsBot {
				record(ctx, chats, msg)
			}
			next(ctx, b, update)
		}
	}
}

func record(ctx context.Context, chats service.ChatRepository, msg *models.Message) {
	in := telegram.Inbound(msg)

	if err := chats.UpsertUser(ctx, in.From); err != nil {
		slog.Error("failed to upsert user", "error", err, "user_id", in.From.ID)
	}
	if in.ChatType.IsGroup() {
		group := domain.Group{ID: in.ChatID, Title: in.ChatTitle, Type: in.ChatType}
		if err := chats.UpsertGroup(ctx, group); err != nil {
			slog.Error("failed to upsert group", "error", err, "group_id", in.ChatID)
		}
	}

	logged := &domain.Message{
		MessageID: in.MessageID,
		ChatID:    in.ChatID,
		UserID:    in.From.ID,
		ReplyToID: in.ReplyToID,
		Text:      telegram.LogText(msg),
		Direction: domain.MessageIncoming,
	}
	if err := chats.SaveMessage(ctx, logged); err != nil {
		slog.Error("failed to log message", "error", err, "chat_id", in.ChatID)
	}
}
