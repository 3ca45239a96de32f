package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/relaybot/internal/domain"
	"github.com/set-night/relaybot/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func message(chatID int64, chatType, text string) *models.Update {
	return &models.Update{Message: &models.Message{
		ID:   7,
		Chat: models.Chat{ID: chatID, Type: models.ChatType(chatType), Title: "Fans"},
		From: &models.User{ID: 42, FirstName: "Ann"},
		Text: text,
	}}
}

func TestChatLimiter(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewChatLimiter(1, 2)
	l.now = func() time.Time { return at }

	assert.True(t, l.Allow(1))
	assert.True(t, l.Allow(1))
	assert.False(t, l.Allow(1))
	assert.True(t, l.Allow(2), "chats have separate buckets")

	at = at.Add(time.Second)
	assert.True(t, l.Allow(1))

	at = at.Add(idleLimiter + time.Minute)
	l.Allow(3)
	assert.Len(t, l.chats, 1, "idle chats are forgotten")
}

func TestRateLimit_OnlyMessages(t *testing.T) {
	l := NewChatLimiter(0.001, 1)
	calls := 0
	h := RateLimit(l)(func(context.Context, *bot.Bot, *models.Update) { calls++ })

	h(context.Background(), nil, message(5, "private", "a"))
	h(context.Background(), nil, message(5, "private", "b"))
	h(context.Background(), nil, &models.Update{CallbackQuery: &models.CallbackQuery{ID: "x"}})

	assert.Equal(t, 2, calls)
}

func TestRateLimit_GroupMessagesPass(t *testing.T) {
	l := NewChatLimiter(0.001, 1)
	calls := 0
	h := RateLimit(l)(func(context.Context, *bot.Bot, *models.Update) { calls++ })

	for i := 0; i < 10; i++ {
		h(context.Background(), nil, message(-100, "supergroup", "join"))
	}

	assert.Equal(t, 10, calls)
	assert.Empty(t, l.chats)
}

func TestRecorder_StoresMessageAndGroup(t *testing.T) {
	store := memory.New()
	var seen bool
	h := Recorder(store)(func(context.Context, *bot.Bot, *models.Update) { seen = true })

	h(context.Background(), nil, message(-100, "supergroup", "hello"))

	assert.True(t, seen)
	msgs := store.Messages(-100)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Text)
	assert.Equal(t, int64(42), msgs[0].UserID)
	assert.Equal(t, domain.MessageIncoming, msgs[0].Direction)

	g, err := store.GetGroup(context.Background(), -100)
	require.NoError(t, err)
	assert.Equal(t, "Fans", g.Title)
}

func TestRecorder_MediaPlaceholder(t *testing.T) {
	store := memory.New()
	h := Recorder(store)(func(context.Context, *bot.Bot, *models.Update) {})

	h(context.Background(), nil, message(42, "private", ""))

	msgs := store.Messages(42)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.MediaPlaceholder, msgs[0].Text)
	_, err := store.GetGroup(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecover_SwallowsPanic(t *testing.T) {
	h := Logging()(Recover()(func(context.Context, *bot.Bot, *models.Update) {
		panic("boom")
	}))
	assert.NotPanics(t, func() {
		h(context.Background(), nil, message(1, "private", "x"))
	})
}

func TestLogging_AttachesTraceID(t *testing.T) {
	var trace string
	h := Logging()(func(ctx context.Context, _ *bot.Bot, _ *models.Update) { trace = TraceID(ctx) })
	h(context.Background(), nil, message(1, "private", "x"))
	assert.Len(t, trace, 36)
}
