package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftWalkthrough(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDraft(7, -100, start)
	require.Equal(t, StepTitle, d.Step())

	title := d.(AwaitingTitle).WithTitle("Spring giveaway")
	assert.Equal(t, StepPrizeName, title.Step())

	_, err := title.Next()
	require.ErrorIs(t, err, ErrNoPrizes)

	count := title.WithPrizeName("First")
	_, err = count.WithCount(0)
	require.ErrorIs(t, err, ErrInvalidPrizeCount)

	name, err := count.WithCount(1)
	require.NoError(t, err)
	name, err = name.WithPrizeName("Second").WithCount(2)
	require.NoError(t, err)
	assert.Equal(t, []Prize{{"First", 1}, {"Second", 2}}, name.Prizes)

	kw, err := name.Next()
	require.NoError(t, err)
	dur := kw.WithKeyword("JOIN")
	assert.Equal(t, StepDuration, dur.Step())
	assert.Equal(t, "Spring giveaway", dur.Title)
	assert.Equal(t, int64(-100), dur.Meta().GroupID)
	assert.Equal(t, 3, TotalSlots(dur.Prizes))
}

func TestDraftPrizesAreNotShared(t *testing.T) {
	base := AwaitingPrizeName{Prizes: make([]Prize, 1, 4)}
	a, err := base.WithPrizeName("a").WithCount(1)
	require.NoError(t, err)
	b, err := base.WithPrizeName("b").WithCount(1)
	require.NoError(t, err)
	assert.Equal(t, "a", a.Prizes[1].Name)
	assert.Equal(t, "b", b.Prizes[1].Name)
}

func TestDraftExpiry(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDraft(1, 2, start)
	assert.False(t, d.Meta().Expired(start.Add(120*time.Second), 120*time.Second))
	assert.True(t, d.Meta().Expired(start.Add(121*time.Second), 120*time.Second))

	touched := Touch(d, start.Add(100*time.Second))
	assert.False(t, touched.Meta().Expired(start.Add(200*time.Second), 120*time.Second))
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("1d")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, d)

	_, err = ParseDuration("2w")
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestLotteryOverdue(t *testing.T) {
	now := time.Now()
	l := Lottery{Status: LotteryStatusActive, ScheduledEndTime: now.Add(-time.Second)}
	assert.True(t, l.Overdue(now))
	l.Status = LotteryStatusEnded
	assert.False(t, l.Overdue(now))
}
