package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
)

type ctxKey string

const traceKey ctxKey = "trace_id"

// TraceID returns the correlation id Logging attached to ctx.
func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceKey).(string)
	return id
}

// Describe names the update kind and the chat and user it came from.
func Describe(update *models.Update) (updateType string, chatID, userID int64) {
	updateType = "unknown"
	switch {
	case update.Message != nil:
		updateType = "message"
		chatID = update.Message.Chat.ID
		if update.Message.From != nil {
			userID = update.Message.From.ID
		}
	case update.CallbackQuery != nil:
		updateType = "callback_query"
		if update.CallbackQuery.Message.Message != nil {
			chatID = update.CallbackQuery.Message.Message.Chat.ID
		}
		userID = update.CallbackQuery.From.ID
	case update.MyChatMember != nil:
		updateType = "my_chat_member"
		chatID = update.MyChatMember.Chat.ID
		userID = update.MyChatMember.From.ID
	}
	return updateType, chatID, userID
}

// Logging returns middleware that tags each update with a trace id and logs
// its processing time.
func Logging() bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			start := time.Now()
			trace := uuid.NewString()
			ctx = context.WithValue(ctx, traceKey, trace)

			next(ctx, b, update)

			updateType, chatID, userID := Describe(update)
			slog.Debug("update processed",
				"trace_id", trace,
				"update_id", update.ID,
				"type", updateType,
				"chat_id", chatID,
				"user_id", userID,
				"duration", time.Since(start),
			)
		}
	}
}
