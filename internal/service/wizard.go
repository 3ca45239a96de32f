package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/set-night/relaybot/internal/config"
	"github.com/set-night/relaybot/internal/domain"
)

// DrawArmer schedules the draw of a freshly created lottery.
type DrawArmer interface {
	Arm(lotteryID int64, end time.Time)
}

// WizardService walks the admin through creating a lottery. Drafts live in
// the session store and expire after config.DraftTTL of inactivity.
type WizardService struct {
	sessions  SessionStore
	lotteries LotteryRepository
	tg        Messenger
	armer     DrawArmer
	render    *Renderer
	now       func() time.Time
}

func NewWizardService(sessions SessionStore, lotteries LotteryRepository, tg Messenger, armer DrawArmer, render *Renderer) *WizardService {
	return &WizardService{
		sessions:  sessions,
		lotteries: lotteries,
		tg:        tg,
		armer:     armer,
		render:    render,
		now:       time.Now,
	}
}

// Start opens a new draft for groupID, replacing any draft the user had.
func (s *WizardService) Start(ctx context.Context, userID, groupID int64) (domain.Draft, error) {
	d := domain.NewDraft(userID, groupID, s.now())
	if err := s.sessions.SaveDraft(ctx, d); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return d, nil
}

// Cancel drops the user's draft and reports whether one existed.
func (s *WizardService) Cancel(ctx context.Context, userID int64) (bool, error) {
	if _, err := s.sessions.GetDraft(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrNoDraft) {
			return false, nil
		}
		return false, fmt.Errorf("get draft: %w", err)
	}
	if err := s.sessions.DeleteDraft(ctx, userID); err != nil {
		return false, fmt.Errorf("delete draft: %w", err)
	}
	return true, nil
}

// Current loads the live draft of userID. An inactive draft is deleted and
// reported as domain.ErrDraftExpired exactly once.
func (s *WizardService) Current(ctx context.Context, userID int64) (domain.Draft, error) {
	d, err := s.sessions.GetDraft(ctx, userID)
	if err != nil {
		return nil, err
	}
	if d.Meta().Expired(s.now(), config.DraftTTL) {
		if err := s.sessions.DeleteDraft(ctx, userID); err != nil {
			slog.Warn("failed to delete expired draft", "error", err, "user_id", userID)
		}
		return nil, domain.ErrDraftExpired
	}
	return d, nil
}

// HandleText feeds a free-text answer into the current step. On a
// validation error the unchanged draft is returned alongside the error so
// the caller can repeat the prompt; the inactivity window is not reset.
func (s *WizardService) HandleText(ctx context.Context, userID int64, text string) (domain.Draft, error) {
	d, err := s.Current(ctx, userID)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)

	var next domain.Draft
	switch d := d.(type) {
	case domain.AwaitingTitle:
		if text == "" {
			return d, domain.ErrEmptyInput
		}
		next = d.WithTitle(text)
	case domain.AwaitingPrizeName:
		if text == "" {
			return d, domain.ErrEmptyInput
		}
		next = d.WithPrizeName(text)
	case domain.AwaitingPrizeCount:
		count, err := strconv.Atoi(text)
		if err != nil {
			return d, domain.ErrInvalidPrizeCount
		}
		advanced, err := d.WithCount(count)
		if err != nil {
			return d, err
		}
		next = advanced
	case domain.AwaitingKeyword:
		if text == "" {
			return d, domain.ErrEmptyInput
		}
		taken, err := s.lotteries.FindActiveByKeyword(ctx, d.GroupID, text)
		if err != nil {
			return d, fmt.Errorf("check keyword: %w", err)
		}
		if len(taken) > 0 {
			return d, domain.ErrKeywordInUse
		}
		next = d.WithKeyword(text)
	default:
		return d, domain.ErrUnexpectedStep
	}
	return s.save(ctx, next)
}

// Next closes the prize list and moves on to the keyword.
func (s *WizardService) Next(ctx context.Context, userID int64) (domain.Draft, error) {
	d, err := s.Current(ctx, userID)
	if err != nil {
		return nil, err
	}
	switch d := d.(type) {
	case domain.AwaitingPrizeName:
		next, err := d.Next()
		if err != nil {
			return d, err
		}
		return s.save(ctx, next)
	case domain.AwaitingPrizeCount:
		return d, domain.ErrPrizeCountPending
	default:
		return d, domain.ErrUnexpectedStep
	}
}

func (s *WizardService) save(ctx context.Context, d domain.Draft) (domain.Draft, error) {
	d = domain.Touch(d, s.now())
	if err := s.sessions.SaveDraft(ctx, d); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return d, nil
}

// Complete takes the duration choice, posts the announcement, stores the
// lottery and arms its draw. If the announcement cannot be posted nothing
// is stored and the draft survives for another try.
func (s *WizardService) Complete(ctx context.Context, userID int64, duration string) (*domain.Lottery, error) {
	d, err := s.Current(ctx, userID)
	if err != nil {
		return nil, err
	}
	final, ok := d.(domain.AwaitingDuration)
	if !ok {
		return nil, domain.ErrUnexpectedStep
	}
	length, err := domain.ParseDuration(duration)
	if err != nil {
		return nil, err
	}

	now := s.now()
	lottery := domain.Lottery{
		GroupID:          final.GroupID,
		Title:            final.Title,
		Keyword:          final.Keyword,
		Prizes:           final.Prizes,
		TotalWinnerSlots: domain.TotalSlots(final.Prizes),
		CreatorID:        userID,
		Status:           domain.LotteryStatusActive,
		ScheduledEndTime: now.Add(length),
		CreatedAt:        now,
	}

	msgID, err := s.tg.Send(ctx, domain.OutgoingMessage{
		ChatID: lottery.GroupID,
		Text:   s.render.Announcement(lottery, 0, now),
		HTML:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAnnouncementFailed, err)
	}
	lottery.AnnouncementMessageID = msgID

	if err := s.lotteries.CreateLottery(ctx, &lottery); err != nil {
		if derr := s.tg.Delete(ctx, lottery.GroupID, msgID); derr != nil {
			slog.Warn("failed to remove orphan announcement", "error", derr, "group_id", lottery.GroupID)
		}
		return nil, fmt.Errorf("create lottery: %w", err)
	}

	s.armer.Arm(lottery.ID, lottery.ScheduledEndTime)

	if err := s.sessions.DeleteDraft(ctx, userID); err != nil {
		slog.Warn("failed to delete finished draft", "error", err, "user_id", userID)
	}
	slog.Info("lottery created", "lottery_id", lottery.ID, "group_id", lottery.GroupID,
		"slots", lottery.TotalWinnerSlots, "ends_at", lottery.ScheduledEndTime)
	return &lottery, nil
}
