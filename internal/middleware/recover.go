package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/getsentry/sentry-go"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Recover returns middleware that recovers from panics and reports them.
func Recover() bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			defer func() {
				if r := recover(); r != nil {
					updateType, chatID, _ := Describe(update)
					slog.Error("panic recovered in handler",
						"error", fmt.Errorf("panic: %v", r),
						"trace_id", TraceID(ctx),
						"type", updateType,
						"chat_id", chatID,
						"stack", string(debug.Stack()),
					)
					sentry.CurrentHub().Clone().RecoverWithContext(ctx, r)
				}
			}()
			next(ctx, b, update)
		}
	}
}
