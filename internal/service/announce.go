package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/set-night/relaybot/internal/domain"
)

// Announcer keeps the group announcement of an active lottery current.
// Edits of one announcement are serialized, and a refresh reads the status
// under the same lock, so a live countdown never lands after the final text.
type Announcer struct {
	lotteries LotteryRepository
	tg        Messenger
	render    *Renderer
	now       func() time.Time

	mu    sync.Mutex
	locks map[int64]*announcementLock
}

type announcementLock struct {
	mu   sync.Mutex
	refs int
}

func NewAnnouncer(lotteries LotteryRepository, tg Messenger, render *Renderer) *Announcer {
	return &Announcer{
		lotteries: lotteries,
		tg:        tg,
		render:    render,
		now:       time.Now,
		locks:     make(map[int64]*announcementLock),
	}
}

func (a *Announcer) lock(lotteryID int64) func() {
	a.mu.Lock()
	l, ok := a.locks[lotteryID]
	if !ok {
		l = &announcementLock{}
		a.locks[lotteryID] = l
	}
	l.refs++
	a.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		a.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(a.locks, lotteryID)
		}
		a.mu.Unlock()
	}
}

// Refresh reloads the lottery, recounts participants and edits the
// announcement. Lotteries that are no longer active are left alone.
func (a *Announcer) Refresh(ctx context.Context, lotteryID int64) error {
	unlock := a.lock(lotteryID)
	defer unlock()

	l, err := a.lotteries.GetLottery(ctx, lotteryID)
	if errors.Is(err, domain.ErrLotteryNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load lottery: %w", err)
	}
	if !l.IsActive() || l.AnnouncementMessageID == 0 {
		return nil
	}
	count, err := a.lotteries.CountParticipants(ctx, l.ID)
	if err != nil {
		return fmt.Errorf("count participants: %w", err)
	}
	err = a.tg.Edit(ctx, l.AnnouncementMessageID, domain.OutgoingMessage{
		ChatID: l.GroupID,
		Text:   a.render.Announcement(*l, count, a.now()),
		HTML:   true,
	})
	if err != nil {
		return fmt.Errorf("edit announcement: %w", err)
	}
	return nil
}

// Finalize replaces the announcement of an ended lottery with text.
func (a *Announcer) Finalize(ctx context.Context, l domain.Lottery, text string) error {
	if l.AnnouncementMessageID == 0 {
		return nil
	}
	unlock := a.lock(l.ID)
	defer unlock()

	err := a.tg.Edit(ctx, l.AnnouncementMessageID, domain.OutgoingMessage{
		ChatID: l.GroupID,
		Text:   text,
		HTML:   true,
	})
	if err != nil {
		return fmt.Errorf("edit announcement: %w", err)
	}
	return nil
}
