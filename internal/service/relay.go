package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/set-night/relaybot/internal/domain"
)

// AdminDirectory resolves the bound admin chat.
type AdminDirectory interface {
	AdminChatID(ctx context.Context) (int64, bool, error)
}

// RelayService moves private messages between users and the admin.
type RelayService struct {
	chats ChatRepository
	admin AdminDirectory
	tg    Messenger
	now   func() time.Time
}

func NewRelayService(chats ChatRepository, admin AdminDirectory, tg Messenger) *RelayService {
	return &RelayService{chats: chats, admin: admin, tg: tg, now: time.Now}
}

// ForwardToAdmin copies a user's private message to the admin chat and posts
// a label naming the sender as a reply to the copy. Replies to either the
// copy or the label reach the sender.
func (s *RelayService) ForwardToAdmin(ctx context.Context, msg domain.InboundMessage) error {
	adminChatID, bound, err := s.admin.AdminChatID(ctx)
	if err != nil {
		return err
	}
	if !bound {
		return domain.ErrNotBound
	}

	copyID, err := s.tg.Copy(ctx, adminChatID, msg.ChatID, msg.MessageID, 0)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrDeliveryFailed, err)
	}
	s.saveMapping(ctx, adminChatID, copyID, msg)

	labelID, err := s.tg.Send(ctx, domain.OutgoingMessage{
		ChatID:  adminChatID,
		Text:    SenderLabel(msg.From),
		HTML:    true,
		ReplyTo: copyID,
	})
	if err != nil {
		slog.Warn("failed to post sender label", "error", err, "user_id", msg.From.ID)
		return nil
	}
	s.saveMapping(ctx, adminChatID, labelID, msg)
	return nil
}

func (s *RelayService) saveMapping(ctx context.Context, adminChatID int64, adminMessageID int, origin domain.InboundMessage) {
	mapping := &domain.RelayMapping{
		AdminChatID:     adminChatID,
		AdminMessageID:  adminMessageID,
		OriginMessageID: origin.MessageID,
		OriginChatID:    origin.ChatID,
		CreatedAt:       s.now(),
	}
	if err := s.chats.SaveRelayMapping(ctx, mapping); err != nil {
		slog.Error("failed to save relay mapping", "error", err,
			"admin_message_id", adminMessageID, "origin_chat_id", origin.ChatID)
	}
}

// ReplyToOrigin delivers an admin reply to the chat the replied-to copy came
// from and logs the delivered copy as an outgoing message.
func (s *RelayService) ReplyToOrigin(ctx context.Context, msg domain.InboundMessage) (*domain.RelayMapping, error) {
	if msg.ReplyToID == nil {
		return nil, domain.ErrOriginNotFound
	}
	mapping, err := s.chats.FindRelayMapping(ctx, msg.ChatID, *msg.ReplyToID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrOriginNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find relay mapping: %w", err)
	}

	replyTo := mapping.OriginMessageID
	copyID, err := s.tg.Copy(ctx, mapping.OriginChatID, msg.ChatID, msg.MessageID, replyTo)
	if err != nil {
		return mapping, fmt.Errorf("%w: %w", domain.ErrDeliveryFailed, err)
	}

	logged := &domain.Message{
		MessageID: copyID,
		ChatID:    mapping.OriginChatID,
		UserID:    msg.From.ID,
		ReplyToID: &replyTo,
		Text:      msg.Text,
		Direction: domain.MessageOutgoing,
		CreatedAt: s.now(),
	}
	if err := s.chats.SaveMessage(ctx, logged); err != nil {
		slog.Error("failed to log delivered reply", "error", err, "chat_id", mapping.OriginChatID)
	}
	return mapping, nil
}
