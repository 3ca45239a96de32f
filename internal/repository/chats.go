package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/set-night/relaybot/internal/domain"
)

func (s *Store) UpsertUser(ctx context.Context, user domain.User) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO users (id, username, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			updated_at = now()`,
		user.ID, user.Username, user.FirstName, user.LastName)
	if err != nil {
		return fmt.Errorf("upsert user %d: %w", user.ID, err)
	}
	return nil
}

func (s *Store) UpsertGroup(ctx context.Context, group domain.Group) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO groups (id, title, type)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			type = EXCLUDED.type,
			updated_at = now()`,
		group.ID, group.Title, string(group.Type))
	if err != nil {
		return fmt.Errorf("upsert group %d: %w", group.ID, err)
	}
	return nil
}

func (s *Store) GetGroup(ctx context.Context, id int64) (*domain.Group, error) {
	var g domain.Group
	var chatType string
	err := s.db.QueryRow(ctx, `SELECT id, title, type, created_at FROM groups WHERE id = $1`, id).
		Scan(&g.ID, &g.Title, &chatType, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get group %d: %w", id, err)
	}
	g.Type = domain.ChatType(chatType)
	return &g, nil
}

func (s *Store) DeleteGroup(ctx context.Context, id int64) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM groups WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete group %d: %w", id, err)
	}
	return nil
}

func (s *Store) SaveMessage(ctx context.Context, msg *domain.Message) error {
	if msg.Direction == "" {
		msg.Direction = domain.MessageIncoming
	}
	err := s.db.QueryRow(ctx, `
		INSERT INTO messages (message_id, chat_id, user_id, reply_to_id, text, direction)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		msg.MessageID, msg.ChatID, msg.UserID, msg.ReplyToID, msg.Text, string(msg.Direction)).
		Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	return nil
}

func (s *Store) RedactMessage(ctx context.Context, chatID int64, messageID int) error {
	_, err := s.db.Exec(ctx, `UPDATE messages SET text = $3 WHERE chat_id = $1 AND message_id = $2`,
		chatID, messageID, domain.RedactedText)
	if err != nil {
		return fmt.Errorf("redact message: %w", err)
	}
	return nil
}

func (s *Store) SaveRelayMapping(ctx context.Context, mapping *domain.RelayMapping) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO relay_mappings (admin_chat_id, admin_message_id, origin_message_id, origin_chat_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		mapping.AdminChatID, mapping.AdminMessageID, mapping.OriginMessageID, mapping.OriginChatID).
		Scan(&mapping.ID, &mapping.CreatedAt)
	if err != nil {
		return fmt.Errorf("save relay mapping: %w", err)
	}
	return nil
}

func (s *Store) FindRelayMapping(ctx context.Context, adminChatID int64, adminMessageID int) (*domain.RelayMapping, error) {
	var m domain.RelayMapping
	err := s.db.QueryRow(ctx, `
		SELECT id, admin_chat_id, admin_message_id, origin_message_id, origin_chat_id, created_at
		FROM relay_mappings
		WHERE admin_chat_id = $1 AND admin_message_id = $2
		ORDER BY id DESC
		LIMIT 1`,
		adminChatID, adminMessageID).
		Scan(&m.ID, &m.AdminChatID, &m.AdminMessageID, &m.OriginMessageID, &m.OriginChatID, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find relay mapping: %w", err)
	}
	return &m, nil
}
