package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/relaybot/internal/config"
	"github.com/set-night/relaybot/internal/domain"
	"golang.org/x/time/rate"
)

// Sender delivers messages through the Bot API under a global rate limit.
type Sender struct {
	bot     *bot.Bot
	limiter *rate.Limiter
}

func NewSender(b *bot.Bot, perSecond float64) *Sender {
	burst := max(int(perSecond), 1)
	return &Sender{bot: b, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// classify maps Bot API failures onto domain errors.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, bot.ErrorForbidden) {
		return fmt.Errorf("%w: %w", domain.ErrBotBlocked, err)
	}
	return err
}

func parseMode(html bool) models.ParseMode {
	if html {
		return models.ParseModeHTML
	}
	return ""
}

func replyTo(messageID int) *models.ReplyParameters {
	if messageID == 0 {
		return nil
	}
	return &models.ReplyParameters{MessageID: messageID, AllowSendingWithoutReply: true}
}

// Send posts msg, splitting text over the message size limit. The id of the
// first part is returned and the keyboard goes on the last one.
func (s *Sender) Send(ctx context.Context, msg domain.OutgoingMessage) (int, error) {
	parts := SplitMessage(msg.Text, config.MaxTelegramMessageLen)
	firstID := 0
	for i, part := range parts {
		if err := s.limiter.Wait(ctx); err != nil {
			return firstID, err
		}
		params := &bot.SendMessageParams{
			ChatID:    msg.ChatID,
			Text:      part,
			ParseMode: parseMode(msg.HTML),
		}
		if i == 0 {
			params.ReplyParameters = replyTo(msg.ReplyTo)
		}
		if i == len(parts)-1 && len(msg.Buttons) > 0 {
			params.ReplyMarkup = Keyboard(msg.Buttons)
		}
		sent, err := s.bot.SendMessage(ctx, params)
		if err != nil {
			return firstID, fmt.Errorf("send message to %d: %w", msg.ChatID, classify(err))
		}
		if i == 0 {
			firstID = sent.ID
		}
	}
	return firstID, nil
}

// Copy re-posts a message of any kind without the "forwarded from" header.
func (s *Sender) Copy(ctx context.Context, toChatID, fromChatID int64, messageID int, reply int) (int, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	copied, err := s.bot.CopyMessage(ctx, &bot.CopyMessageParams{
		ChatID:          toChatID,
		FromChatID:      fromChatID,
		MessageID:       messageID,
		ReplyParameters: replyTo(reply),
	})
	if err != nil {
		return 0, fmt.Errorf("copy message to %d: %w", toChatID, classify(err))
	}
	return copied.ID, nil
}

// Edit replaces the text of messageID. Telegram rejects edits that change
// nothing; those count as success.
func (s *Sender) Edit(ctx context.Context, messageID int, msg domain.OutgoingMessage) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	params := &bot.EditMessageTextParams{
		ChatID:    msg.ChatID,
		MessageID: messageID,
		Text:      Truncate(msg.Text, config.MaxTelegramMessageLen),
		ParseMode: parseMode(msg.HTML),
	}
	if len(msg.Buttons) > 0 {
		params.ReplyMarkup = Keyboard(msg.Buttons)
	}
	_, err := s.bot.EditMessageText(ctx, params)
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("edit message %d: %w", messageID, classify(err))
	}
	return nil
}

func (s *Sender) Delete(ctx context.Context, chatID int64, messageID int) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := s.bot.DeleteMessage(ctx, &bot.DeleteMessageParams{ChatID: chatID, MessageID: messageID})
	if err != nil {
		return fmt.Errorf("delete message %d: %w", messageID, classify(err))
	}
	return nil
}

// Answer acknowledges a button press, optionally with a toast.
func (s *Sender) Answer(ctx context.Context, callbackID, text string, alert bool) {
	_, _ = s.bot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	})
}
