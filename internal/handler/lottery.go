package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/relaybot/internal/domain"
)

// handleCreateLottery opens a draft for the group the command was sent in
// and continues the conversation privately with the admin.
func (h *Handler) handleCreateLottery(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if _, ok := h.commandArgs(msg.Text); !ok {
		return
	}
	if !domain.ChatType(msg.Chat.Type).IsGroup() {
		h.reply(ctx, msg.Chat.ID, 0, msgCreateInGroup)
		return
	}
	if !h.isAdmin(ctx, msg.From.ID) {
		h.reply(ctx, msg.Chat.ID, msg.ID, msgAdminOnly)
		return
	}

	d, err := h.wizard.Start(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		slog.Error("failed to start lottery draft", "error", err, "group_id", msg.Chat.ID)
		h.reply(ctx, msg.Chat.ID, msg.ID, msgInternalError)
		return
	}

	text, buttons := prompt(d)
	_, err = h.tg.Send(ctx, domain.OutgoingMessage{
		ChatID:  msg.From.ID,
		Text:    wizardIntro(msg.Chat.Title) + "\n\n" + text,
		HTML:    true,
		Buttons: buttons,
	})
	if err != nil {
		slog.Warn("cannot reach admin privately", "error", err, "user_id", msg.From.ID)
		if _, cerr := h.wizard.Cancel(ctx, msg.From.ID); cerr != nil {
			slog.Warn("failed to drop unreachable draft", "error", cerr)
		}
		h.reply(ctx, msg.Chat.ID, msg.ID, msgStartBotFirst)
		return
	}
	slog.Info("lottery draft started", "group_id", msg.Chat.ID, "user_id", msg.From.ID)
}

// handleNext closes the prize list.
func (h *Handler) handleNext(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if _, ok := h.commandArgs(msg.Text); !ok {
		return
	}
	if domain.ChatType(msg.Chat.Type) != domain.ChatTypePrivate {
		return
	}
	d, err := h.wizard.Next(ctx, msg.From.ID)
	h.replyWizard(ctx, msg.Chat.ID, d, err)
}

func (h *Handler) handleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if _, ok := h.commandArgs(msg.Text); !ok {
		return
	}
	if domain.ChatType(msg.Chat.Type) != domain.ChatTypePrivate {
		return
	}
	cancelled, err := h.wizard.Cancel(ctx, msg.From.ID)
	switch {
	case err != nil:
		slog.Error("failed to cancel draft", "error", err, "user_id", msg.From.ID)
		h.reply(ctx, msg.Chat.ID, 0, msgInternalError)
	case cancelled:
		h.reply(ctx, msg.Chat.ID, 0, msgCancelled)
	default:
		h.reply(ctx, msg.Chat.ID, 0, msgNothingToCancel)
	}
}

// replyWizard reports the result of a wizard step and repeats the prompt of
// the step the draft is now in.
func (h *Handler) replyWizard(ctx context.Context, chatID int64, d domain.Draft, err error) {
	var notice string
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrDraftExpired):
		h.reply(ctx, chatID, 0, msgDraftExpired)
		return
	case errors.Is(err, domain.ErrNoDraft):
		h.reply(ctx, chatID, 0, msgNoDraft)
		return
	case errors.Is(err, domain.ErrEmptyInput):
		notice = msgEmptyInput
	case errors.Is(err, domain.ErrInvalidPrizeCount):
		notice = msgInvalidCount
	case errors.Is(err, domain.ErrNoPrizes):
		notice = msgNoPrizes
	case errors.Is(err, domain.ErrPrizeCountPending):
		notice = msgCountPending
	case errors.Is(err, domain.ErrKeywordInUse):
		notice = msgKeywordInUse
	case errors.Is(err, domain.ErrUnexpectedStep):
		notice = msgUseButtons
	default:
		slog.Error("wizard step failed", "error", err, "chat_id", chatID)
		h.tgLogger.LogError(err, "lottery wizard")
		h.reply(ctx, chatID, 0, msgInternalError)
		return
	}
	if d == nil {
		h.reply(ctx, chatID, 0, notice)
		return
	}

	text, buttons := prompt(d)
	if notice != "" {
		text = notice + "\n\n" + text
	}
	h.send(ctx, domain.OutgoingMessage{ChatID: chatID, Text: text, HTML: true, Buttons: buttons})
}

// handleDuration finishes the wizard with the chosen duration.
func (h *Handler) handleDuration(ctx context.Context, b *bot.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}
	duration := strings.TrimPrefix(cq.Data, cbDuration)

	l, err := h.wizard.Complete(ctx, cq.From.ID, duration)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNoDraft), errors.Is(err, domain.ErrDraftExpired):
		h.tg.Answer(ctx, cq.ID, "", false)
		if chatID, msgID, ok := callbackMessage(cq); ok {
			h.edit(ctx, chatID, msgID, msgDraftExpired, nil)
		}
		return
	case errors.Is(err, domain.ErrUnexpectedStep):
		h.tg.Answer(ctx, cq.ID, msgUseButtons, true)
		return
	case errors.Is(err, domain.ErrInvalidDuration):
		h.tg.Answer(ctx, cq.ID, msgInvalidDuration, true)
		return
	case errors.Is(err, domain.ErrAnnouncementFailed):
		slog.Warn("announcement failed", "error", err, "user_id", cq.From.ID)
		h.tg.Answer(ctx, cq.ID, msgAnnounceFailed, true)
		return
	default:
		slog.Error("failed to create lottery", "error", err, "user_id", cq.From.ID)
		h.tgLogger.LogError(err, "create lottery")
		h.tg.Answer(ctx, cq.ID, msgInternalError, true)
		return
	}

	h.tg.Answer(ctx, cq.ID, msgLotteryCreated, false)
	h.tgLogger.LogLotteryCreated(l)
	if chatID, msgID, ok := callbackMessage(cq); ok {
		h.edit(ctx, chatID, msgID, h.render.Created(*l), nil)
		return
	}
	h.reply(ctx, cq.From.ID, 0, h.render.Created(*l))
}

// callbackMessage locates the message that carried the pressed button.
func callbackMessage(cq *models.CallbackQuery) (int64, int, bool) {
	if cq.Message.Message == nil {
		return 0, 0, false
	}
	return cq.Message.Message.Chat.ID, cq.Message.Message.ID, true
}
