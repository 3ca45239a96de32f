package handler

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"github.com/set-night/relaybot/internal/domain"
)

// reply sends an HTML message to chatID, quoting replyTo when non-zero.
func (h *Handler) reply(ctx context.Context, chatID int64, replyTo int, text string) {
	h.send(ctx, domain.OutgoingMessage{ChatID: chatID, Text: text, HTML: true, ReplyTo: replyTo})
}

func (h *Handler) send(ctx context.Context, msg domain.OutgoingMessage) {
	if _, err := h.tg.Send(ctx, msg); err != nil {
		slog.Warn("failed to send reply", "error", err, "chat_id", msg.ChatID)
	}
}

// edit replaces the text of a message the bot posted earlier.
func (h *Handler) edit(ctx context.Context, chatID int64, messageID int, text string, buttons [][]domain.Button) {
	err := h.tg.Edit(ctx, messageID, domain.OutgoingMessage{ChatID: chatID, Text: text, HTML: true, Buttons: buttons})
	if err != nil {
		slog.Warn("failed to edit message", "error", err, "chat_id", chatID, "message_id", messageID)
	}
}

// scrub removes a message that carried a password from the chat and the log.
func (h *Handler) scrub(ctx context.Context, chatID int64, messageID int) {
	if err := h.tg.Delete(ctx, chatID, messageID); err != nil {
		slog.Debug("failed to delete password message", "error", err, "chat_id", chatID)
	}
	if err := h.chats.RedactMessage(ctx, chatID, messageID); err != nil {
		slog.Warn("failed to redact password message", "error", err, "chat_id", chatID)
	}
}

// commandArgs returns the text after the command token. ok is false when the
// command is addressed to another bot with "/cmd@OtherBot".
func (h *Handler) commandArgs(text string) (string, bool) {
	text = strings.TrimSpace(text)
	cmd, args := text, ""
	if i := strings.IndexFunc(text, unicode.IsSpace); i >= 0 {
		cmd, args = text[:i], text[i:]
	}
	if _, target, found := strings.Cut(cmd, "@"); found && h.botUsername != "" &&
		!strings.EqualFold(target, h.botUsername) {
		return "", false
	}
	return strings.TrimSpace(args), true
}

func (h *Handler) isAdmin(ctx context.Context, userID int64) bool {
	ok, err := h.admin.IsAdmin(ctx, userID)
	if err != nil {
		slog.Error("admin lookup failed", "error", err, "user_id", userID)
		return false
	}
	return ok
}
