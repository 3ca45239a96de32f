package service

import (
	"strings"
	"testing"
	"time"

	"github.com/set-night/relaybot/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestTimeLeft(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		left time.Duration
		want string
	}{
		{-time.Minute, "ended"},
		{0, "ended"},
		{59 * time.Second, "0m"},
		{30 * time.Minute, "30m"},
		{2*time.Hour + 5*time.Minute, "2h 5m"},
		{24 * time.Hour, "1d 0h"},
		{3*24*time.Hour + 4*time.Hour + 59*time.Minute, "3d 4h"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, TimeLeft(now.Add(tt.left), now))
		})
	}
}

func TestWinChance(t *testing.T) {
	assert.Equal(t, "100", WinChance(3, 2).String())
	assert.Equal(t, "33.33", WinChance(1, 3).String())
	assert.Equal(t, "66.67", WinChance(2, 3).String())
	assert.True(t, WinChance(1, 0).IsZero())
}

func TestAnnouncement_EscapesUserText(t *testing.T) {
	r := NewRenderer(time.UTC)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := domain.Lottery{
		Title:            "<b>Big</b> & bold",
		Keyword:          "<go>",
		Prizes:           []domain.Prize{{Name: "T-shirt", Count: 2}},
		TotalWinnerSlots: 2,
		ScheduledEndTime: now.Add(90 * time.Minute),
	}

	text := r.Announcement(l, 4, now)

	assert.Contains(t, text, "&lt;b&gt;Big&lt;/b&gt; &amp; bold")
	assert.Contains(t, text, "&lt;go&gt;")
	assert.Contains(t, text, "T-shirt × 2")
	assert.Contains(t, text, "1h 30m")
	assert.Contains(t, text, "Participants: 4")
	assert.Contains(t, text, "Win chance: 50%")
	assert.Contains(t, text, "2025-01-01 01:30 UTC")

	assert.NotContains(t, r.Announcement(l, 0, now), "Win chance")
}

func TestResults_GroupedByTier(t *testing.T) {
	r := NewRenderer(time.UTC)
	o := &domain.DrawOutcome{
		Lottery: domain.Lottery{
			Title:  "Spring",
			Prizes: []domain.Prize{{Name: "Gold", Count: 1}, {Name: "Silver", Count: 2}},
		},
		Participants: []domain.Participant{
			{UserID: 1, User: domain.User{ID: 1, FirstName: "Ann", Username: "ann"}},
			{UserID: 2, User: domain.User{ID: 2, FirstName: "Bob"}},
			{UserID: 3},
		},
		Winners: []domain.Assignment{
			{UserID: 2, PrizeName: "Silver"},
			{UserID: 1, PrizeName: "Gold"},
			{UserID: 3, PrizeName: "Silver"},
		},
	}

	text := r.Results(o)

	assert.Less(t, strings.Index(text, "Gold"), strings.Index(text, "Silver"))
	assert.Less(t, strings.Index(text, "Gold"), strings.Index(text, "Ann @ann"))
	assert.Contains(t, text, `<a href="tg://user?id=2">Bob</a>`)
	assert.Contains(t, text, `<a href="tg://user?id=3">3</a>`)
}

func TestSenderLabel(t *testing.T) {
	label := SenderLabel(domain.User{ID: 42, FirstName: "Ann", LastName: "Lee", Username: "ann"})
	assert.Contains(t, label, "Ann Lee")
	assert.Contains(t, label, "@ann")
	assert.Contains(t, label, "<code>42</code>")
}
