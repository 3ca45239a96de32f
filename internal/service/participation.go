package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/set-night/relaybot/internal/domain"
)

type EnrollResult int

const (
	// EnrollNotKeyword means the text matched no active lottery.
	EnrollNotKeyword EnrollResult = iota
	EnrollAlready
	EnrollJoined
)

// ParticipationService turns keyword messages in groups into entries.
type ParticipationService struct {
	lotteries LotteryRepository
	tg        Messenger
	announcer *Announcer
	render    *Renderer
}

func NewParticipationService(lotteries LotteryRepository, tg Messenger, announcer *Announcer, render *Renderer) *ParticipationService {
	return &ParticipationService{lotteries: lotteries, tg: tg, announcer: announcer, render: render}
}

// TryEnroll enters user into the active lottery of groupID whose keyword
// equals the trimmed text. Keywords are case-sensitive.
func (s *ParticipationService) TryEnroll(ctx context.Context, groupID int64, user domain.User, text string) (EnrollResult, error) {
	keyword := strings.TrimSpace(text)
	if keyword == "" {
		return EnrollNotKeyword, nil
	}
	matches, err := s.lotteries.FindActiveByKeyword(ctx, groupID, keyword)
	if err != nil {
		return EnrollNotKeyword, fmt.Errorf("find lottery by keyword: %w", err)
	}
	if len(matches) == 0 {
		return EnrollNotKeyword, nil
	}
	lottery := matches[0]

	inserted, err := s.lotteries.AddParticipant(ctx, lottery.ID, user.ID)
	if err != nil {
		return EnrollNotKeyword, fmt.Errorf("add participant: %w", err)
	}
	if !inserted {
		joined, err := s.lotteries.HasParticipant(ctx, lottery.ID, user.ID)
		if err != nil {
			return EnrollNotKeyword, fmt.Errorf("check participant: %w", err)
		}
		if !joined {
			// The lottery ended between the lookup and the insert.
			return EnrollNotKeyword, nil
		}
		s.notify(ctx, user.ID, s.render.AlreadyJoined(lottery))
		return EnrollAlready, nil
	}

	if err := s.announcer.Refresh(ctx, lottery.ID); err != nil {
		slog.Warn("failed to refresh announcement", "error", err, "lottery_id", lottery.ID)
	}
	s.notify(ctx, user.ID, s.render.Joined(lottery))
	slog.Debug("participant joined", "lottery_id", lottery.ID, "user_id", user.ID)
	return EnrollJoined, nil
}

// notify sends a private message. Users who never started the bot cannot be
// messaged, so failures are only logged.
func (s *ParticipationService) notify(ctx context.Context, userID int64, text string) {
	_, err := s.tg.Send(ctx, domain.OutgoingMessage{ChatID: userID, Text: text, HTML: true})
	if err != nil {
		slog.Debug("private notice not delivered", "error", err, "user_id", userID)
	}
}
