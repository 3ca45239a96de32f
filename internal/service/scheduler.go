package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/set-night/relaybot/internal/config"
	"github.com/set-night/relaybot/internal/domain"
)

// Drawer ends a lottery.
type Drawer interface {
	Draw(ctx context.Context, lotteryID int64) (*domain.DrawOutcome, error)
}

// armed is the identity of one scheduled timer; a fired timer only clears
// the map entry if it is still the current one.
type armed struct {
	timer *time.Timer
}

// Scheduler runs draws when lotteries reach their end time. In-process
// timers give prompt draws; the periodic Sweep is authoritative and catches
// anything a timer missed, e.g. across restarts.
type Scheduler struct {
	lotteries LotteryRepository
	drawer    Drawer
	announcer *Announcer
	interval  time.Duration
	now       func() time.Time

	mu     sync.Mutex
	timers map[int64]*armed
}

func NewScheduler(lotteries LotteryRepository, drawer Drawer, announcer *Announcer, interval time.Duration) *Scheduler {
	return &Scheduler{
		lotteries: lotteries,
		drawer:    drawer,
		announcer: announcer,
		interval:  interval,
		now:       time.Now,
		timers:    make(map[int64]*armed),
	}
}

// Arm schedules the draw of lotteryID at end, replacing any earlier timer.
// End times that already passed are left to the sweep.
func (s *Scheduler) Arm(lotteryID int64, end time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.timers[lotteryID]; ok {
		prev.timer.Stop()
		delete(s.timers, lotteryID)
	}
	wait := end.Sub(s.now())
	if wait <= 0 {
		return
	}
	a := &armed{}
	a.timer = time.AfterFunc(wait, func() { s.fire(lotteryID, a) })
	s.timers[lotteryID] = a
}

// Disarm cancels the timer of lotteryID without drawing.
func (s *Scheduler) Disarm(lotteryID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.timers[lotteryID]
	if !ok {
		return false
	}
	a.timer.Stop()
	delete(s.timers, lotteryID)
	return true
}

// Armed reports whether a timer is pending for lotteryID.
func (s *Scheduler) Armed(lotteryID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[lotteryID]
	return ok
}

func (s *Scheduler) fire(lotteryID int64, a *armed) {
	s.mu.Lock()
	if s.timers[lotteryID] == a {
		delete(s.timers, lotteryID)
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), config.DrawTimeout)
	defer cancel()
	s.draw(ctx, lotteryID)
}

// draw reports whether this call ended the lottery.
func (s *Scheduler) draw(ctx context.Context, lotteryID int64) bool {
	_, err := s.drawer.Draw(ctx, lotteryID)
	switch {
	case err == nil:
		return true
	case errors.Is(err, domain.ErrLotteryNotActive):
		slog.Debug("lottery already ended", "lottery_id", lotteryID)
	default:
		slog.Error("draw failed", "error", err, "lottery_id", lotteryID)
	}
	return false
}

// DrawNow ends an active lottery immediately, cancelling its timer.
func (s *Scheduler) DrawNow(ctx context.Context, lotteryID int64) (*domain.DrawOutcome, error) {
	s.Disarm(lotteryID)
	return s.drawer.Draw(ctx, lotteryID)
}

// Delay pushes the end of an active lottery back by extra and re-arms it.
func (s *Scheduler) Delay(ctx context.Context, lotteryID int64, extra time.Duration) (*domain.Lottery, error) {
	l, err := s.lotteries.ExtendLottery(ctx, lotteryID, extra)
	if err != nil {
		return nil, err
	}
	s.Arm(l.ID, l.ScheduledEndTime)
	if err := s.announcer.Refresh(ctx, l.ID); err != nil {
		slog.Warn("failed to refresh announcement", "error", err, "lottery_id", l.ID)
	}
	slog.Info("lottery delayed", "lottery_id", l.ID, "ends_at", l.ScheduledEndTime)
	return l, nil
}

// RestoreOnStartup re-arms every active lottery and draws the overdue ones.
func (s *Scheduler) RestoreOnStartup(ctx context.Context) error {
	active, err := s.lotteries.ListActiveLotteries(ctx)
	if err != nil {
		return fmt.Errorf("list active lotteries: %w", err)
	}
	now := s.now()
	restored, drawn := 0, 0
	for _, l := range active {
		if l.ScheduledEndTime.After(now) {
			s.Arm(l.ID, l.ScheduledEndTime)
			restored++
			continue
		}
		if s.draw(ctx, l.ID) {
			drawn++
		}
	}
	slog.Info("scheduled draws restored", "armed", restored, "drawn", drawn)
	return nil
}

// SweepResult is what one sweep found and ended.
type SweepResult struct {
	At      time.Time
	Overdue int
	Ended   []domain.Lottery
}

// Sweep draws every active lottery whose end time has passed.
func (s *Scheduler) Sweep(ctx context.Context) (*SweepResult, error) {
	now := s.now()
	overdue, err := s.lotteries.ListOverdueLotteries(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list overdue lotteries: %w", err)
	}
	res := &SweepResult{At: now, Overdue: len(overdue)}
	for _, l := range overdue {
		s.Disarm(l.ID)
		if s.draw(ctx, l.ID) {
			res.Ended = append(res.Ended, l)
		}
	}
	if len(res.Ended) > 0 {
		slog.Info("sweep ended lotteries", "overdue", res.Overdue, "ended", len(res.Ended))
	}
	return res, nil
}

// Run sweeps every interval until ctx is done, then stops all timers.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer s.stopAll()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				slog.Error("sweep failed", "error", err)
			}
		}
	}
}

func (s *Scheduler) stopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range s.timers {
		a.timer.Stop()
		delete(s.timers, id)
	}
}
