package domain

import "time"

type MessageDirection string

const (
	MessageIncoming MessageDirection = "incoming"
	MessageOutgoing MessageDirection = "outgoing"
)

// MediaPlaceholder is stored instead of text for non-text messages.
const MediaPlaceholder = "[media]"

// RedactedText replaces logged messages that carried a password.
const RedactedText = "[redacted]"

// Message is one row of the chat log shown by the dashboard.
type Message struct {
	ID        int64
	MessageID int
	ChatID    int64
	UserID    int64
	ReplyToID *int
	Text      string
	Direction MessageDirection
	CreatedAt time.Time
}

// RelayMapping links a copy delivered to the admin chat with the message it
// was copied from. Rows are written once and never updated.
type RelayMapping struct {
	ID              int64
	AdminChatID     int64
	AdminMessageID  int
	OriginMessageID int
	OriginChatID    int64
	CreatedAt       time.Time
}

// InboundMessage is the normalized view of an incoming chat message.
type InboundMessage struct {
	MessageID int
	ChatID    int64
	ChatType  ChatType
	ChatTitle string
	From      User
	Text      string
	ReplyToID *int
}
