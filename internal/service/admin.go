package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/set-night/relaybot/internal/config"
	"github.com/set-night/relaybot/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// ChallengeResult tells the caller what /login did.
type ChallengeResult int

const (
	// ChallengePending means a password prompt is now outstanding.
	ChallengePending ChallengeResult = iota
	// ChallengeBound means the inline password was accepted.
	ChallengeBound
)

// AdminService owns the single admin binding and the password challenge
// that establishes it.
type AdminService struct {
	settings SettingsRepository
	sessions SessionStore
	now      func() time.Time
}

func NewAdminService(settings SettingsRepository, sessions SessionStore) *AdminService {
	return &AdminService{settings: settings, sessions: sessions, now: time.Now}
}

// AdminChatID returns the bound admin chat, if any.
func (s *AdminService) AdminChatID(ctx context.Context) (int64, bool, error) {
	raw, err := s.settings.GetSetting(ctx, config.SettingAdminChatID)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get admin chat: %w", err)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse admin chat %q: %w", raw, err)
	}
	return id, true, nil
}

// IsAdmin reports whether userID is the bound admin. Private chat ids equal
// user ids, so the binding doubles as the admin identity.
func (s *AdminService) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	id, ok, err := s.AdminChatID(ctx)
	if err != nil || !ok {
		return false, err
	}
	return id == userID, nil
}

// SeedPassword stores hash as the admin password unless one is configured.
func (s *AdminService) SeedPassword(ctx context.Context, hash string) error {
	if hash == "" {
		return nil
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return fmt.Errorf("admin password hash: %w", err)
	}
	stored, err := s.settings.SetSettingIfAbsent(ctx, config.SettingAdminPassword, hash)
	if err != nil {
		return fmt.Errorf("seed admin password: %w", err)
	}
	if stored {
		slog.Info("admin password seeded from environment")
	}
	return nil
}

// Challenge handles /login. With an inline password the binding is attempted
// immediately; without one a pending login is recorded for this user.
func (s *AdminService) Challenge(ctx context.Context, userID, chatID int64, password string) (ChallengeResult, error) {
	if _, bound, err := s.AdminChatID(ctx); err != nil {
		return 0, err
	} else if bound {
		return 0, domain.ErrAlreadyBound
	}

	if password == "" {
		login := domain.PendingLogin{UserID: userID, ChatID: chatID, IssuedAt: s.now()}
		if err := s.sessions.SavePendingLogin(ctx, login); err != nil {
			return 0, fmt.Errorf("save pending login: %w", err)
		}
		return ChallengePending, nil
	}

	if err := s.sessions.DeletePendingLogin(ctx, userID); err != nil {
		slog.Warn("failed to clear pending login", "error", err, "user_id", userID)
	}
	if err := s.verify(ctx, password); err != nil {
		return 0, err
	}
	if err := s.bind(ctx, chatID); err != nil {
		return 0, err
	}
	return ChallengeBound, nil
}

// Attempt consumes the pending login of userID with password. It returns
// domain.ErrNoPendingLogin when nothing is outstanding so the caller can
// route the message elsewhere. A pending login is used at most once.
func (s *AdminService) Attempt(ctx context.Context, userID int64, password string) (int64, error) {
	login, err := s.sessions.TakePendingLogin(ctx, userID)
	if err != nil {
		return 0, err
	}
	if login.Expired(s.now(), config.PendingLoginTTL) {
		return 0, domain.ErrLoginExpired
	}
	if err := s.verify(ctx, password); err != nil {
		return 0, err
	}
	if err := s.bind(ctx, login.ChatID); err != nil {
		return 0, err
	}
	return login.ChatID, nil
}

// Unbind clears the admin binding so another /login can succeed.
func (s *AdminService) Unbind(ctx context.Context) error {
	if err := s.settings.DeleteSetting(ctx, config.SettingAdminChatID); err != nil {
		return fmt.Errorf("unbind admin: %w", err)
	}
	return nil
}

func (s *AdminService) verify(ctx context.Context, password string) error {
	hash, err := s.settings.GetSetting(ctx, config.SettingAdminPassword)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && hash == "") {
		return domain.ErrPasswordNotSet
	}
	if err != nil {
		return fmt.Errorf("get admin password: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return domain.ErrInvalidPassword
		}
		return fmt.Errorf("compare admin password: %w", err)
	}
	return nil
}

// bind writes the admin chat only if none is stored, so two concurrent
// correct logins cannot both win.
func (s *AdminService) bind(ctx context.Context, chatID int64) error {
	stored, err := s.settings.SetSettingIfAbsent(ctx, config.SettingAdminChatID, strconv.FormatInt(chatID, 10))
	if err != nil {
		return fmt.Errorf("bind admin: %w", err)
	}
	if !stored {
		return domain.ErrAlreadyBound
	}
	slog.Info("admin bound", "chat_id", chatID)
	return nil
}
