package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/set-night/relaybot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLottery(t *testing.T, s *Store, groupID int64, keyword string, end time.Time) domain.Lottery {
	t.Helper()
	l := domain.Lottery{
		GroupID:          groupID,
		Title:            "Giveaway",
		Keyword:          keyword,
		Prizes:           []domain.Prize{{Name: "Cup", Count: 1}},
		TotalWinnerSlots: 1,
		Status:           domain.LotteryStatusActive,
		ScheduledEndTime: end,
	}
	require.NoError(t, s.CreateLottery(context.Background(), &l))
	return l
}

func pickAll(l domain.Lottery, ps []domain.Participant) []domain.Assignment {
	var out []domain.Assignment
	for _, p := range ps {
		out = append(out, domain.Assignment{ParticipantID: p.ID, UserID: p.UserID, PrizeName: l.Prizes[0].Name})
	}
	return out
}

func TestSetSettingIfAbsent(t *testing.T) {
	ctx := context.Background()
	s := New()

	ok, err := s.SetSettingIfAbsent(ctx, "admin_chat_id", "1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SetSettingIfAbsent(ctx, "admin_chat_id", "2")
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := s.GetSetting(ctx, "admin_chat_id")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	require.NoError(t, s.DeleteSetting(ctx, "admin_chat_id"))
	_, err = s.GetSetting(ctx, "admin_chat_id")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddParticipant_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := New()
	l := newLottery(t, s, -1, "go", time.Now().Add(time.Hour))

	var wg sync.WaitGroup
	var mu sync.Mutex
	inserted := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.AddParticipant(ctx, l.ID, 99)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				inserted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, inserted)
	n, err := s.CountParticipants(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestEndLottery_OnlyOnce(t *testing.T) {
	ctx := context.Background()
	s := New()
	l := newLottery(t, s, -1, "go", time.Now().Add(-time.Minute))
	_, err := s.AddParticipant(ctx, l.ID, 1)
	require.NoError(t, err)

	outcome, err := s.EndLottery(ctx, l.ID, time.Now(), pickAll)
	require.NoError(t, err)
	assert.Equal(t, domain.LotteryStatusEnded, outcome.Lottery.Status)
	require.Len(t, outcome.Participants, 1)
	assert.True(t, outcome.Participants[0].IsWinner)
	require.NotNil(t, outcome.Participants[0].WonPrizeName)
	assert.Equal(t, "Cup", *outcome.Participants[0].WonPrizeName)

	_, err = s.EndLottery(ctx, l.ID, time.Now(), pickAll)
	assert.ErrorIs(t, err, domain.ErrLotteryNotActive)

	ok, err := s.AddParticipant(ctx, l.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok, "ended lotteries take no entries")
}

func TestListOverdueAndKeyword(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()
	past := newLottery(t, s, -1, "a", now.Add(-time.Second))
	newLottery(t, s, -1, "b", now.Add(time.Hour))
	newLottery(t, s, -2, "a", now.Add(time.Hour))

	overdue, err := s.ListOverdueLotteries(ctx, now)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, past.ID, overdue[0].ID)

	found, err := s.FindActiveByKeyword(ctx, -1, "a")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, past.ID, found[0].ID)

	found, err = s.FindActiveByKeyword(ctx, -1, "A")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestExtendLottery(t *testing.T) {
	ctx := context.Background()
	s := New()
	end := time.Now().Add(time.Hour)
	l := newLottery(t, s, -1, "go", end)

	got, err := s.ExtendLottery(ctx, l.ID, 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, got.ScheduledEndTime.Equal(end.Add(24*time.Hour)))

	_, err = s.EndLottery(ctx, l.ID, time.Now(), pickAll)
	require.NoError(t, err)
	_, err = s.ExtendLottery(ctx, l.ID, time.Hour)
	assert.ErrorIs(t, err, domain.ErrLotteryNotActive)
}

func TestRelayMappingAndRedaction(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.SaveRelayMapping(ctx, &domain.RelayMapping{
		AdminChatID: 10, AdminMessageID: 500, OriginMessageID: 7, OriginChatID: 42,
	}))
	m, err := s.FindRelayMapping(ctx, 10, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(42), m.OriginChatID)

	_, err = s.FindRelayMapping(ctx, 11, 500)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.SaveMessage(ctx, &domain.Message{MessageID: 3, ChatID: 10, UserID: 10, Text: "hunter2"}))
	require.NoError(t, s.RedactMessage(ctx, 10, 3))
	msgs := s.Messages(10)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.RedactedText, msgs[0].Text)
	assert.Equal(t, domain.MessageIncoming, msgs[0].Direction)
}
