package telegram

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/relaybot/internal/config"
	"github.com/set-night/relaybot/internal/domain"
)

// TelegramLogger posts operational events to forum topics of a log chat.
type TelegramLogger struct {
	bot *bot.Bot
	cfg *config.Config
}

func NewTelegramLogger(b *bot.Bot, cfg *config.Config) *TelegramLogger {
	return &TelegramLogger{bot: b, cfg: cfg}
}

type LogType string

const (
	LogTypeError   LogType = "error"
	LogTypeAdmin   LogType = "admin"
	LogTypeLottery LogType = "lottery"
)

func (l *TelegramLogger) Log(logType LogType, message string) {
	if l == nil || l.cfg.LogTelegramChatID == 0 {
		return
	}

	topicID := l.getTopicID(logType)
	if topicID == 0 {
		return
	}

	message = Truncate(message, config.MaxTelegramMessageLen)

	ctx, cancel := context.WithTimeout(context.Background(), config.RequestTimeout)
	defer cancel()

	_, err := l.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          l.cfg.LogTelegramChatID,
		Text:            message,
		ParseMode:       models.ParseModeHTML,
		MessageThreadID: topicID,
	})
	if err != nil {
		slog.Error("failed to send telegram log", "type", logType, "error", err)
	}
}

func (l *TelegramLogger) LogError(err error, context string) {
	msg := fmt.Sprintf("❌ <b>Error</b>\n\n<b>Context:</b> %s\n<b>Error:</b> <code>%s</code>\n<b>Time:</b> %s",
		html.EscapeString(context), html.EscapeString(err.Error()), time.Now().Format(time.DateTime))
	l.Log(LogTypeError, msg)
}

func (l *TelegramLogger) LogAdminBound(chatID int64, user domain.User) {
	msg := fmt.Sprintf("🔐 <b>Admin bound</b>\n\n<b>Chat:</b> <code>%d</code>\n<b>User:</b> %s %s",
		chatID, html.EscapeString(user.DisplayName()), html.EscapeString(user.Handle()))
	l.Log(LogTypeAdmin, msg)
}

func (l *TelegramLogger) LogAdminUnbound(chatID int64) {
	l.Log(LogTypeAdmin, fmt.Sprintf("🔓 <b>Admin unbound</b>\n\n<b>Chat:</b> <code>%d</code>", chatID))
}

func (l *TelegramLogger) LogLotteryCreated(lottery *domain.Lottery) {
	msg := fmt.Sprintf("🎊 <b>Lottery created</b>\n\n<b>ID:</b> <code>%d</code>\n<b>Group:</b> <code>%d</code>\n<b>Title:</b> %s\n<b>Slots:</b> %d\n<b>Ends:</b> %s",
		lottery.ID, lottery.GroupID, html.EscapeString(lottery.Title), lottery.TotalWinnerSlots,
		lottery.ScheduledEndTime.UTC().Format(time.DateTime))
	l.Log(LogTypeLottery, msg)
}

// LotteryDrawn reports a committed draw.
func (l *TelegramLogger) LotteryDrawn(outcome *domain.DrawOutcome) {
	msg := fmt.Sprintf("🏁 <b>Lottery drawn</b>\n\n<b>ID:</b> <code>%d</code>\n<b>Title:</b> %s\n<b>Participants:</b> %d\n<b>Winners:</b> %d",
		outcome.Lottery.ID, html.EscapeString(outcome.Lottery.Title), len(outcome.Participants), len(outcome.Winners))
	l.Log(LogTypeLottery, msg)
}

func (l *TelegramLogger) getTopicID(logType LogType) int {
	switch logType {
	case LogTypeError:
		return l.cfg.LogTopicError
	case LogTypeAdmin:
		return l.cfg.LogTopicAdmin
	case LogTypeLottery:
		return l.cfg.LogTopicLottery
	default:
		return 0
	}
}
