package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/relaybot/internal/domain"
	"github.com/set-night/relaybot/internal/service"
	"github.com/set-night/relaybot/internal/telegram"
)

// Route is the branch Dispatch takes for an update.
type Route int

const (
	RouteIgnore Route = iota
	RouteMembership
	RoutePrivate
	RouteGroup
)

// Classify decides how an update without a registered handler is processed.
// Unknown commands and messages from bots are ignored.
func Classify(update *models.Update) Route {
	switch {
	case update.MyChatMember != nil:
		return RouteMembership
	case update.Message == nil || update.Message.From == nil:
		return RouteIgnore
	case update.Message.From.IsBot:
		return RouteIgnore
	case strings.HasPrefix(update.Message.Text, "/"):
		return RouteIgnore
	}
	switch t := domain.ChatType(update.Message.Chat.Type); {
	case t == domain.ChatTypePrivate:
		return RoutePrivate
	case t.IsGroup():
		return RouteGroup
	}
	return RouteIgnore
}

// Dispatch is the default handler: plain messages and membership changes.
func (h *Handler) Dispatch(ctx context.Context, b *bot.Bot, update *models.Update) {
	switch Classify(update) {
	case RouteMembership:
		h.handleMembership(ctx, update.MyChatMember)
	case RoutePrivate:
		h.handlePrivate(ctx, update.Message)
	case RouteGroup:
		h.handleGroup(ctx, update.Message)
	}
}

// handlePrivate gives an outstanding login first claim on the text, then
// routes admin messages to the wizard or the relay and forwards everybody
// else's messages to the admin.
func (h *Handler) handlePrivate(ctx context.Context, msg *models.Message) {
	in := telegram.Inbound(msg)

	if msg.Text != "" && h.tryLogin(ctx, in) {
		return
	}

	if h.isAdmin(ctx, in.From.ID) {
		h.handleAdminPrivate(ctx, in)
		return
	}

	err := h.relay.ForwardToAdmin(ctx, in)
	switch {
	case err == nil:
		h.reply(ctx, in.ChatID, in.MessageID, msgDelivered)
	case errors.Is(err, domain.ErrNotBound):
		h.reply(ctx, in.ChatID, in.MessageID, msgNotConfigured)
	case errors.Is(err, domain.ErrDeliveryFailed):
		slog.Warn("relay to admin failed", "error", err, "user_id", in.From.ID)
		h.reply(ctx, in.ChatID, in.MessageID, msgDeliveryFailed)
	default:
		slog.Error("relay to admin failed", "error", err, "user_id", in.From.ID)
		h.tgLogger.LogError(err, "forward to admin")
		h.reply(ctx, in.ChatID, in.MessageID, msgDeliveryFailed)
	}
}

// handleAdminPrivate prefers a relay reply when the admin quoted a relayed
// message, then the wizard when a draft is open.
func (h *Handler) handleAdminPrivate(ctx context.Context, in domain.InboundMessage) {
	if in.ReplyToID != nil {
		_, err := h.relay.ReplyToOrigin(ctx, in)
		if !errors.Is(err, domain.ErrOriginNotFound) {
			h.reportReply(ctx, in, err)
			return
		}
	}

	if in.Text != "" {
		d, err := h.wizard.HandleText(ctx, in.From.ID, in.Text)
		if !errors.Is(err, domain.ErrNoDraft) {
			h.replyWizard(ctx, in.ChatID, d, err)
			return
		}
	}

	if in.ReplyToID != nil {
		h.reply(ctx, in.ChatID, in.MessageID, msgOriginNotFound)
		return
	}
	h.reply(ctx, in.ChatID, 0, msgAdminHint)
}

func (h *Handler) reportReply(ctx context.Context, in domain.InboundMessage, err error) {
	switch {
	case err == nil:
		h.reply(ctx, in.ChatID, in.MessageID, msgReplySent)
	case errors.Is(err, domain.ErrBotBlocked):
		h.reply(ctx, in.ChatID, in.MessageID, msgUserBlocked)
	case errors.Is(err, domain.ErrDeliveryFailed):
		slog.Warn("reply delivery failed", "error", err)
		h.reply(ctx, in.ChatID, in.MessageID, msgReplyFailed)
	default:
		slog.Error("reply relay failed", "error", err)
		h.tgLogger.LogError(err, "reply to origin")
		h.reply(ctx, in.ChatID, in.MessageID, msgInternalError)
	}
}

// handleGroup checks group text against active lottery keywords.
func (h *Handler) handleGroup(ctx context.Context, msg *models.Message) {
	if msg.Text == "" {
		return
	}
	in := telegram.Inbound(msg)
	res, err := h.participation.TryEnroll(ctx, in.ChatID, in.From, in.Text)
	if err != nil {
		slog.Error("enrollment failed", "error", err, "group_id", in.ChatID, "user_id", in.From.ID)
		return
	}
	if res != service.EnrollNotKeyword {
		slog.Debug("keyword handled", "group_id", in.ChatID, "user_id", in.From.ID, "joined", res == service.EnrollJoined)
	}
}

// handleMembership keeps the group registry in line with where the bot is.
func (h *Handler) handleMembership(ctx context.Context, upd *models.ChatMemberUpdated) {
	chatType := domain.ChatType(upd.Chat.Type)
	if !chatType.IsGroup() {
		return
	}
	switch upd.NewChatMember.Type {
	case models.ChatMemberTypeLeft, models.ChatMemberTypeBanned:
		if err := h.chats.DeleteGroup(ctx, upd.Chat.ID); err != nil {
			slog.Error("failed to forget group", "error", err, "group_id", upd.Chat.ID)
			return
		}
		slog.Info("bot removed from group", "group_id", upd.Chat.ID)
	default:
		group := domain.Group{ID: upd.Chat.ID, Title: upd.Chat.Title, Type: chatType}
		if err := h.chats.UpsertGroup(ctx, group); err != nil {
			slog.Error("failed to register group", "error", err, "group_id", upd.Chat.ID)
			return
		}
		slog.Info("bot added to group", "group_id", upd.Chat.ID, "title", upd.Chat.Title)
	}
}
