package telegram

import (
	"github.com/go-telegram/bot/models"
	"github.com/set-night/relaybot/internal/domain"
)

// User maps a Telegram sender onto the domain user.
func User(u *models.User) domain.User {
	if u == nil {
		return domain.User{}
	}
	return domain.User{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// Inbound normalizes an incoming message. Captions stand in for the text of
// media messages.
func Inbound(msg *models.Message) domain.InboundMessage {
	in := domain.InboundMessage{
		MessageID: msg.ID,
		ChatID:    msg.Chat.ID,
		ChatType:  domain.ChatType(msg.Chat.Type),
		ChatTitle: msg.Chat.Title,
		From:      User(msg.From),
		Text:      msg.Text,
	}
	if in.Text == "" {
		in.Text = msg.Caption
	}
	if msg.ReplyToMessage != nil {
		id := msg.ReplyToMessage.ID
		in.ReplyToID = &id
	}
	return in
}

// LogText is what the chat log stores for msg.
func LogText(msg *models.Message) string {
	switch {
	case msg.Text != "":
		return msg.Text
	case msg.Caption != "":
		return msg.Caption
	default:
		return domain.MediaPlaceholder
	}
}
