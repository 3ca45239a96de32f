package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/time/rate"
)

// idleLimiter is how long a chat's limiter is kept without traffic.
const idleLimiter = 10 * time.Minute

type chatLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ChatLimiter hands out one token bucket per key, a chat or a sender.
type ChatLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu       sync.Mutex
	chats    map[int64]*chatLimiter
	lastScan time.Time
}

func NewChatLimiter(perSecond float64, burst int) *ChatLimiter {
	return &ChatLimiter{
		limit: rate.Limit(perSecond),
		burst: burst,
		now:   time.Now,
		chats: make(map[int64]*chatLimiter),
	}
}

// Allow reports whether chatID may be served now. Private chats share their
// id with the sender.
func (l *ChatLimiter) Allow(chatID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastScan) > idleLimiter {
		for id, c := range l.chats {
			if now.Sub(c.lastSeen) > idleLimiter {
				delete(l.chats, id)
			}
		}
		l.lastScan = now
	}

	c, ok := l.chats[chatID]
	if !ok {
		c = &chatLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.chats[chatID] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// RateLimit returns middleware that drops private messages from senders who
// flood the bot. Group messages carry lottery keywords and must all reach the
// recorder and dispatcher, so they are never limited. Button presses and
// membership updates pass through as well.
func RateLimit(limiter *ChatLimiter) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			msg := update.Message
			if msg == nil || msg.From == nil || msg.Chat.Type != models.ChatTypePrivate {
				next(ctx, b, update)
				return
			}

			if !limiter.Allow(msg.From.ID) {
				slog.Debug("rate limited", "user_id", msg.From.ID, "trace_id", TraceID(ctx))
				return
			}

			next(ctx, b, update)
		}
	}
}
