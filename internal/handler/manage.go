package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/relaybot/internal/config"
	"github.com/set-night/relaybot/internal/domain"
	"github.com/set-night/relaybot/internal/service"
	"github.com/set-night/relaybot/internal/telegram"
)

// handleViewLotteries lists active lotteries for the admin.
func (h *Handler) handleViewLotteries(ctx context.Context, b *bot.Bot, update *models.Update) {
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

	text, buttons, err := h.lotteryList(ctx)
	if err != nil {
		slog.Error("failed to list lotteries", "error", err)
		h.reply(ctx, msg.Chat.ID, 0, msgInternalError)
		return
	}
	h.send(ctx, domain.OutgoingMessage{ChatID: msg.Chat.ID, Text: text, HTML: true, Buttons: buttons})
}

func (h *Handler) lotteryList(ctx context.Context) (string, [][]domain.Button, error) {
	active, err := h.lotteries.ListActiveLotteries(ctx)
	if err != nil {
		return "", nil, err
	}
	if len(active) == 0 {
		return msgNoActive, nil, nil
	}

	now := time.Now()
	shown := active[:min(len(active), config.LotteriesPerPage)]
	rows := make([][]domain.Button, 0, len(shown))
	for _, l := range shown {
		rows = append(rows, []domain.Button{{
			Text: fmt.Sprintf("🎊 %s · %s", telegram.Truncate(l.Title, 40), service.TimeLeft(l.ScheduledEndTime, now)),
			Data: cbLotteryView + strconv.FormatInt(l.ID, 10),
		}})
	}

	text := fmt.Sprintf("📋 <b>Active lotteries</b> (%d)\n\nPick one to manage it.", len(active))
	if len(active) > len(shown) {
		text += fmt.Sprintf("\n<i>Showing the first %d.</i>", len(shown))
	}
	return text, rows, nil
}

func (h *Handler) lotteryDetail(ctx context.Context, id int64) (string, [][]domain.Button, error) {
	l, err := h.lotteries.GetLottery(ctx, id)
	if err != nil {
		return "", nil, err
	}
	var groupTitle string
	if g, err := h.chats.GetGroup(ctx, l.GroupID); err == nil {
		groupTitle = g.Title
	}
	count, err := h.lotteries.CountParticipants(ctx, l.ID)
	if err != nil {
		return "", nil, err
	}

	var rows [][]domain.Button
	if l.IsActive() {
		idStr := strconv.FormatInt(l.ID, 10)
		rows = append(rows,
			[]domain.Button{
				{Text: "⏰ +1 hour", Data: cbLotteryDelay + idStr + "_" + string(domain.DurationHour)},
				{Text: "⏰ +1 day", Data: cbLotteryDelay + idStr + "_" + string(domain.DurationDay)},
			},
			[]domain.Button{{Text: "🏁 End now", Data: cbLotteryEnd + idStr}},
		)
	}
	rows = append(rows, []domain.Button{{Text: "« Back", Data: cbLotteryList}})
	return h.render.Management(*l, groupTitle, count, time.Now()), rows, nil
}

// adminCallback returns the callback when the presser is the admin and the
// button message is still accessible.
func (h *Handler) adminCallback(ctx context.Context, update *models.Update) (*models.CallbackQuery, int64, int, bool) {
	cq := update.CallbackQuery
	if cq == nil {
		return nil, 0, 0, false
	}
	if !h.isAdmin(ctx, cq.From.ID) {
		h.tg.Answer(ctx, cq.ID, msgAdminOnly, true)
		return nil, 0, 0, false
	}
	chatID, msgID, ok := callbackMessage(cq)
	if !ok {
		h.tg.Answer(ctx, cq.ID, "", false)
		return nil, 0, 0, false
	}
	return cq, chatID, msgID, true
}

func (h *Handler) showDetail(ctx context.Context, chatID int64, msgID int, id int64) {
	text, rows, err := h.lotteryDetail(ctx, id)
	if errors.Is(err, domain.ErrLotteryNotFound) {
		h.showList(ctx, chatID, msgID)
		return
	}
	if err != nil {
		slog.Error("failed to load lottery", "error", err, "lottery_id", id)
		h.edit(ctx, chatID, msgID, msgInternalError, nil)
		return
	}
	h.edit(ctx, chatID, msgID, text, rows)
}

func (h *Handler) showList(ctx context.Context, chatID int64, msgID int) {
	text, rows, err := h.lotteryList(ctx)
	if err != nil {
		slog.Error("failed to list lotteries", "error", err)
		h.edit(ctx, chatID, msgID, msgInternalError, nil)
		return
	}
	h.edit(ctx, chatID, msgID, text, rows)
}

func (h *Handler) handleLotteryList(ctx context.Context, b *bot.Bot, update *models.Update) {
	cq, chatID, msgID, ok := h.adminCallback(ctx, update)
	if !ok {
		return
	}
	h.tg.Answer(ctx, cq.ID, "", false)
	h.showList(ctx, chatID, msgID)
}

func (h *Handler) handleLotteryView(ctx context.Context, b *bot.Bot, update *models.Update) {
	cq, chatID, msgID, ok := h.adminCallback(ctx, update)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(cq.Data, cbLotteryView), 10, 64)
	if err != nil {
		h.tg.Answer(ctx, cq.ID, msgLotteryGone, true)
		return
	}
	h.tg.Answer(ctx, cq.ID, "", false)
	h.showDetail(ctx, chatID, msgID, id)
}

// handleLotteryDelay handles "lot_delay_<id>_<duration>".
func (h *Handler) handleLotteryDelay(ctx context.Context, b *bot.Bot, update *models.Update) {
	cq, chatID, msgID, ok := h.adminCallback(ctx, update)
	if !ok {
		return
	}
	idStr, durStr, _ := strings.Cut(strings.TrimPrefix(cq.Data, cbLotteryDelay), "_")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.tg.Answer(ctx, cq.ID, msgLotteryGone, true)
		return
	}
	extra, err := domain.ParseDuration(durStr)
	if err != nil {
		h.tg.Answer(ctx, cq.ID, msgInvalidDuration, true)
		return
	}

	_, err = h.scheduler.Delay(ctx, id, extra)
	switch {
	case err == nil:
		h.tg.Answer(ctx, cq.ID, fmt.Sprintf(msgLotteryDelayed, durStr), false)
	case errors.Is(err, domain.ErrLotteryNotFound), errors.Is(err, domain.ErrLotteryNotActive):
		h.tg.Answer(ctx, cq.ID, msgLotteryGone, true)
	default:
		slog.Error("failed to delay lottery", "error", err, "lottery_id", id)
		h.tg.Answer(ctx, cq.ID, msgInternalError, true)
		return
	}
	h.showDetail(ctx, chatID, msgID, id)
}

// handleLotteryEnd draws a lottery ahead of schedule.
func (h *Handler) handleLotteryEnd(ctx context.Context, b *bot.Bot, update *models.Update) {
	cq, chatID, msgID, ok := h.adminCallback(ctx, update)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(cq.Data, cbLotteryEnd), 10, 64)
	if err != nil {
		h.tg.Answer(ctx, cq.ID, msgLotteryGone, true)
		return
	}

	h.tg.Answer(ctx, cq.ID, msgLotteryEndedHint, false)
	outcome, err := h.scheduler.DrawNow(ctx, id)
	switch {
	case err == nil:
		text := fmt.Sprintf("🏁 <b>%s</b> has ended.\n\n👥 Participants: %d\n🏆 Winners: %d\n\nThe results were posted to the group.",
			escape(outcome.Lottery.Title), len(outcome.Participants), len(outcome.Winners))
		h.edit(ctx, chatID, msgID, text, [][]domain.Button{{{Text: "« Back", Data: cbLotteryList}}})
	case errors.Is(err, domain.ErrLotteryNotFound), errors.Is(err, domain.ErrLotteryNotActive):
		h.showDetail(ctx, chatID, msgID, id)
	default:
		slog.Error("manual draw failed", "error", err, "lottery_id", id)
		h.tgLogger.LogError(err, "manual draw")
		h.edit(ctx, chatID, msgID, msgInternalError, [][]domain.Button{{{Text: "« Back", Data: cbLotteryList}}})
	}
}
