package service

import (
	"context"
	"time"

	"github.com/set-night/relaybot/internal/domain"
)

// SettingsRepository is the key/value settings table.
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	// SetSettingIfAbsent stores value only when key has no value yet and
	// reports whether it did.
	SetSettingIfAbsent(ctx context.Context, key, value string) (bool, error)
	DeleteSetting(ctx context.Context, key string) error
}

// ChatRepository stores users, groups, the message log and relay mappings.
type ChatRepository interface {
	UpsertUser(ctx context.Context, user domain.User) error
	UpsertGroup(ctx context.Context, group domain.Group) error
	GetGroup(ctx context.Context, id int64) (*domain.Group, error)
	DeleteGroup(ctx context.Context, id int64) error
	SaveMessage(ctx context.Context, msg *domain.Message) error
	RedactMessage(ctx context.Context, chatID int64, messageID int) error
	SaveRelayMapping(ctx context.Context, mapping *domain.RelayMapping) error
	FindRelayMapping(ctx context.Context, adminChatID int64, adminMessageID int) (*domain.RelayMapping, error)
}

// LotteryRepository stores lotteries and their participants.
type LotteryRepository interface {
	CreateLottery(ctx context.Context, lottery *domain.Lottery) error
	GetLottery(ctx context.Context, id int64) (*domain.Lottery, error)
	ListActiveLotteries(ctx context.Context) ([]domain.Lottery, error)
	ListOverdueLotteries(ctx context.Context, now time.Time) ([]domain.Lottery, error)
	FindActiveByKeyword(ctx context.Context, groupID int64, keyword string) ([]domain.Lottery, error)
	// ExtendLottery moves the end time of an active lottery forward.
	ExtendLottery(ctx context.Context, id int64, extra time.Duration) (*domain.Lottery, error)
	// AddParticipant reports false when the pair already exists.
	AddParticipant(ctx context.Context, lotteryID, userID int64) (bool, error)
	HasParticipant(ctx context.Context, lotteryID, userID int64) (bool, error)
	CountParticipants(ctx context.Context, lotteryID int64) (int, error)
	// EndLottery atomically moves an active lottery to ended and records the
	// winners chosen by pick. It returns domain.ErrLotteryNotActive when the
	// lottery was already ended by someone else.
	EndLottery(ctx context.Context, id int64, endedAt time.Time, pick domain.PickFunc) (*domain.DrawOutcome, error)
}

// SessionStore keeps short-lived conversational state.
type SessionStore interface {
	SavePendingLogin(ctx context.Context, login domain.PendingLogin) error
	// TakePendingLogin returns and removes the pending login of userID.
	TakePendingLogin(ctx context.Context, userID int64) (*domain.PendingLogin, error)
	DeletePendingLogin(ctx context.Context, userID int64) error
	SaveDraft(ctx context.Context, draft domain.Draft) error
	GetDraft(ctx context.Context, userID int64) (domain.Draft, error)
	DeleteDraft(ctx context.Context, userID int64) error
}

// Messenger delivers outbound Telegram messages. Every call may fail
// independently, e.g. when the recipient blocked the bot.
type Messenger interface {
	Send(ctx context.Context, msg domain.OutgoingMessage) (int, error)
	Copy(ctx context.Context, toChatID, fromChatID int64, messageID int, replyTo int) (int, error)
	Edit(ctx context.Context, messageID int, msg domain.OutgoingMessage) error
	Delete(ctx context.Context, chatID int64, messageID int) error
}
