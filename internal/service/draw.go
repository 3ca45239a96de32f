package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/set-night/relaybot/internal/domain"
)

// DrawObserver is told about every committed draw.
type DrawObserver interface {
	LotteryDrawn(outcome *domain.DrawOutcome)
}

// DrawService ends lotteries and announces their results. Ending is a
// compare-and-swap in storage, so any number of concurrent callers yield
// exactly one outcome.
type DrawService struct {
	lotteries LotteryRepository
	tg        Messenger
	announcer *Announcer
	render    *Renderer
	shuffle   ShuffleFunc
	observer  DrawObserver
	now       func() time.Time
}

func NewDrawService(lotteries LotteryRepository, tg Messenger, announcer *Announcer, render *Renderer, observer DrawObserver) *DrawService {
	return &DrawService{
		lotteries: lotteries,
		tg:        tg,
		announcer: announcer,
		render:    render,
		observer:  observer,
		now:       time.Now,
	}
}

// Draw ends the lottery and notifies the group and the winners. It returns
// domain.ErrLotteryNotActive when another caller already ended it.
func (s *DrawService) Draw(ctx context.Context, lotteryID int64) (*domain.DrawOutcome, error) {
	outcome, err := s.lotteries.EndLottery(ctx, lotteryID, s.now(), s.pick)
	if err != nil {
		return nil, err
	}
	slog.Info("lottery drawn", "lottery_id", lotteryID,
		"participants", len(outcome.Participants), "winners", len(outcome.Winners))

	if len(outcome.Participants) == 0 {
		s.announceCancelled(ctx, outcome.Lottery)
	} else {
		s.announceResults(ctx, outcome)
	}
	if s.observer != nil {
		s.observer.LotteryDrawn(outcome)
	}
	return outcome, nil
}

func (s *DrawService) pick(l domain.Lottery, participants []domain.Participant) []domain.Assignment {
	return Allocate(participants, l.Prizes, s.shuffle)
}

func (s *DrawService) announceCancelled(ctx context.Context, l domain.Lottery) {
	s.editAnnouncement(ctx, l, s.render.Cancelled(l))
	_, err := s.tg.Send(ctx, domain.OutgoingMessage{
		ChatID:  l.GroupID,
		Text:    fmt.Sprintf("❌ %s was cancelled: nobody joined.", esc(l.Title)),
		HTML:    true,
		ReplyTo: l.AnnouncementMessageID,
	})
	if err != nil {
		slog.Warn("failed to post cancellation", "error", err, "lottery_id", l.ID)
	}
}

func (s *DrawService) announceResults(ctx context.Context, o *domain.DrawOutcome) {
	l := o.Lottery
	for _, w := range o.Winners {
		_, err := s.tg.Send(ctx, domain.OutgoingMessage{
			ChatID: w.UserID,
			Text:   s.render.WinnerNotice(l, w.PrizeName),
			HTML:   true,
		})
		if err != nil {
			slog.Warn("failed to notify winner", "error", err, "lottery_id", l.ID, "user_id", w.UserID)
		}
	}

	s.editAnnouncement(ctx, l, s.render.Ended(o))

	_, err := s.tg.Send(ctx, domain.OutgoingMessage{
		ChatID:  l.GroupID,
		Text:    s.render.Results(o),
		HTML:    true,
		ReplyTo: l.AnnouncementMessageID,
	})
	if err != nil {
		slog.Warn("failed to post results", "error", err, "lottery_id", l.ID)
	}
}

func (s *DrawService) editAnnouncement(ctx context.Context, l domain.Lottery, text string) {
	if err := s.announcer.Finalize(ctx, l, text); err != nil {
		slog.Warn("failed to edit announcement", "error", err, "lottery_id", l.ID)
	}
}
