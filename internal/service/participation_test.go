package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/set-night/relaybot/internal/domain"
	"github.com/set-night/relaybot/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryEnroll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	l := f.addLottery(t, "join", time.Now().Add(time.Hour))
	ann := user(42, "ann")

	res, err := f.participation.TryEnroll(ctx, groupID, ann, "hello everyone")
	require.NoError(t, err)
	assert.Equal(t, EnrollNotKeyword, res)

	res, err = f.participation.TryEnroll(ctx, groupID, ann, "JOIN")
	require.NoError(t, err)
	assert.Equal(t, EnrollNotKeyword, res, "keywords are case-sensitive")

	res, err = f.participation.TryEnroll(ctx, -5, ann, "join")
	require.NoError(t, err)
	assert.Equal(t, EnrollNotKeyword, res, "other groups do not match")

	res, err = f.participation.TryEnroll(ctx, groupID, ann, "  join\n")
	require.NoError(t, err)
	assert.Equal(t, EnrollJoined, res)

	res, err = f.participation.TryEnroll(ctx, groupID, ann, "join")
	require.NoError(t, err)
	assert.Equal(t, EnrollAlready, res)

	n, err := f.store.CountParticipants(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	edits := f.tg.EditsOf(l.AnnouncementMessageID)
	require.Len(t, edits, 1)
	assert.Contains(t, edits[0].Msg.Text, "Participants: 1")

	dms := f.tg.To(42)
	require.Len(t, dms, 2)
	assert.Contains(t, dms[0].Msg.Text, "You are in")
	assert.Contains(t, dms[1].Msg.Text, "already entered")
}

func TestTryEnroll_ConcurrentSameUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	l := f.addLottery(t, "join", time.Now().Add(time.Hour))

	var wg sync.WaitGroup
	var mu sync.Mutex
	counts := map[EnrollResult]int{}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.participation.TryEnroll(ctx, groupID, user(42, "ann"), "join")
			assert.NoError(t, err)
			mu.Lock()
			counts[res]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, counts[EnrollJoined])
	assert.Equal(t, 9, counts[EnrollAlready])
	n, err := f.store.CountParticipants(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTryEnroll_UndeliverableNoticeStillJoins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	l := f.addLottery(t, "join", time.Now().Add(time.Hour))
	f.tg.Block(42)

	res, err := f.participation.TryEnroll(ctx, groupID, user(42, "ann"), "join")
	require.NoError(t, err)
	assert.Equal(t, EnrollJoined, res)

	ok, err := f.store.HasParticipant(ctx, l.ID, 42)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTryEnroll_EndedLottery(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	l := f.addLottery(t, "join", time.Now().Add(-time.Minute))
	_, err := f.draw.Draw(ctx, l.ID)
	require.NoError(t, err)

	res, err := f.participation.TryEnroll(ctx, groupID, user(42, "ann"), "join")
	require.NoError(t, err)
	assert.Equal(t, EnrollNotKeyword, res)
}

// countHook runs hook the first time participants are counted.
type countHook struct {
	*memory.Store
	once sync.Once
	hook func()
}

func (c *countHook) CountParticipants(ctx context.Context, lotteryID int64) (int, error) {
	c.once.Do(c.hook)
	return c.Store.CountParticipants(ctx, lotteryID)
}

func TestTryEnroll_DrawDuringRefreshKeepsEndedText(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	l := f.addLottery(t, "join", time.Now().Add(time.Hour))

	repo := &countHook{Store: f.store}
	announcer := NewAnnouncer(repo, f.tg, f.render)
	draw := NewDrawService(f.store, f.tg, announcer, f.render, nil)
	participation := NewParticipationService(repo, f.tg, announcer, f.render)

	drawn := make(chan struct{})
	repo.hook = func() {
		go func() {
			defer close(drawn)
			_, err := draw.Draw(ctx, l.ID)
			assert.NoError(t, err)
		}()
		require.Eventually(t, func() bool {
			got, err := f.store.GetLottery(ctx, l.ID)
			return err == nil && !got.IsActive()
		}, time.Second, time.Millisecond)
	}

	res, err := participation.TryEnroll(ctx, groupID, user(42, "ann"), "join")
	require.NoError(t, err)
	assert.Equal(t, EnrollJoined, res)

	select {
	case <-drawn:
	case <-time.After(time.Second):
		t.Fatal("draw did not finish")
	}

	edits := f.tg.EditsOf(l.AnnouncementMessageID)
	require.NotEmpty(t, edits)
	last := edits[len(edits)-1].Msg.Text
	assert.Contains(t, last, "(ended)")
	assert.NotContains(t, last, "Time left")
}

func TestRefresh_SkipsEndedLottery(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	l := f.addLottery(t, "join", time.Now().Add(time.Hour))

	_, err := f.draw.Draw(ctx, l.ID)
	require.NoError(t, err)
	before := len(f.tg.EditsOf(l.AnnouncementMessageID))

	require.NoError(t, f.announcer.Refresh(ctx, l.ID))
	assert.Len(t, f.tg.EditsOf(l.AnnouncementMessageID), before)

	_, err = f.scheduler.Delay(ctx, l.ID, time.Hour)
	assert.ErrorIs(t, err, domain.ErrLotteryNotActive)
	assert.Len(t, f.tg.EditsOf(l.AnnouncementMessageID), before)
}
