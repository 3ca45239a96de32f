// Package telegramtest provides an in-memory messenger for tests.
package telegramtest

import (
	"context"
	"sync"

	"github.com/set-night/relaybot/internal/domain"
)

// Sent is one message delivered through the recorder.
type Sent struct {
	ID         int
	Msg        domain.OutgoingMessage
	CopiedFrom int64
	CopiedID   int
}

// Edited is one edit applied through the recorder.
type Edited struct {
	MessageID int
	Msg       domain.OutgoingMessage
}

// Messenger records every call and assigns increasing message ids.
// Chats listed in Blocked fail with domain.ErrBotBlocked.
type Messenger struct {
	mu      sync.Mutex
	nextID  int
	Blocked map[int64]bool
	Sent    []Sent
	Edits   []Edited
	Deleted []int
	Answers []Answer
}

// Answer is one callback acknowledgement.
type Answer struct {
	CallbackID string
	Text       string
	Alert      bool
}

func New() *Messenger {
	return &Messenger{nextID: 1000, Blocked: make(map[int64]bool)}
}

// Block makes every later call targeting chatID fail.
func (m *Messenger) Block(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Blocked[chatID] = true
}

func (m *Messenger) Send(_ context.Context, msg domain.OutgoingMessage) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Blocked[msg.ChatID] {
		return 0, domain.ErrBotBlocked
	}
	m.nextID++
	m.Sent = append(m.Sent, Sent{ID: m.nextID, Msg: msg})
	return m.nextID, nil
}

func (m *Messenger) Copy(_ context.Context, toChatID, fromChatID int64, messageID int, replyTo int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Blocked[toChatID] {
		return 0, domain.ErrBotBlocked
	}
	m.nextID++
	m.Sent = append(m.Sent, Sent{
		ID:         m.nextID,
		Msg:        domain.OutgoingMessage{ChatID: toChatID, ReplyTo: replyTo},
		CopiedFrom: fromChatID,
		CopiedID:   messageID,
	})
	return m.nextID, nil
}

func (m *Messenger) Edit(_ context.Context, messageID int, msg domain.OutgoingMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Blocked[msg.ChatID] {
		return domain.ErrBotBlocked
	}
	m.Edits = append(m.Edits, Edited{MessageID: messageID, Msg: msg})
	return nil
}

func (m *Messenger) Delete(_ context.Context, chatID int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Blocked[chatID] {
		return domain.ErrBotBlocked
	}
	m.Deleted = append(m.Deleted, messageID)
	return nil
}

func (m *Messenger) Answer(_ context.Context, callbackID, text string, alert bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Answers = append(m.Answers, Answer{CallbackID: callbackID, Text: text, Alert: alert})
}

// To returns the messages sent or copied to chatID.
func (m *Messenger) To(chatID int64) []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Sent
	for _, s := range m.Sent {
		if s.Msg.ChatID == chatID {
			out = append(out, s)
		}
	}
	return out
}

// EditsOf returns the edits applied to messageID.
func (m *Messenger) EditsOf(messageID int) []Edited {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Edited
	for _, e := range m.Edits {
		if e.MessageID == messageID {
			out = append(out, e)
		}
	}
	return out
}
