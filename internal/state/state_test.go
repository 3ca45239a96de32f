package state

import (
	"context"
	"testing"
	"time"

	"github.com/set-night/relaybot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PendingLoginIsTakenOnce(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, m.SavePendingLogin(ctx, domain.PendingLogin{UserID: 7, ChatID: 7, IssuedAt: issued}))

	login, err := m.TakePendingLogin(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), login.ChatID)
	assert.True(t, login.IssuedAt.Equal(issued))

	_, err = m.TakePendingLogin(ctx, 7)
	assert.ErrorIs(t, err, domain.ErrNoPendingLogin)
}

func TestMemoryStore_DraftOverwrite(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	now := time.Now()

	require.NoError(t, m.SaveDraft(ctx, domain.NewDraft(1, -100, now)))
	title := domain.NewDraft(1, -100, now).(domain.AwaitingTitle).WithTitle("Prize night")
	require.NoError(t, m.SaveDraft(ctx, title))

	d, err := m.GetDraft(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StepPrizeName, d.Step())

	require.NoError(t, m.DeleteDraft(ctx, 1))
	_, err = m.GetDraft(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrNoDraft)
}

func TestDraftCodec_PreservesCollectedFields(t *testing.T) {
	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	start := domain.NewDraft(42, -1001, at).(domain.AwaitingTitle)
	count, err := start.WithTitle("Summer").WithPrizeName("Mug").WithCount(2)
	require.NoError(t, err)
	pending := count.WithPrizeName("Sticker")

	data, err := encodeDraft(pending)
	require.NoError(t, err)
	decoded, err := decodeDraft(data)
	require.NoError(t, err)

	got, ok := decoded.(domain.AwaitingPrizeCount)
	require.True(t, ok, "decoded %T", decoded)
	assert.Equal(t, "Summer", got.Title)
	assert.Equal(t, "Sticker", got.PrizeName)
	assert.Equal(t, []domain.Prize{{Name: "Mug", Count: 2}}, got.Prizes)
	assert.Equal(t, int64(42), got.UserID)
	assert.Equal(t, int64(-1001), got.GroupID)
	assert.True(t, got.UpdatedAt.Equal(at))
}

func TestDraftCodec_FinalStep(t *testing.T) {
	at := time.Now().UTC().Truncate(time.Second)
	name := domain.NewDraft(1, -5, at).(domain.AwaitingTitle).WithTitle("T")
	withPrize, err := name.WithPrizeName("Cup").WithCount(1)
	require.NoError(t, err)
	kw, err := withPrize.Next()
	require.NoError(t, err)

	data, err := encodeDraft(kw.WithKeyword("go"))
	require.NoError(t, err)
	decoded, err := decodeDraft(data)
	require.NoError(t, err)

	got, ok := decoded.(domain.AwaitingDuration)
	require.True(t, ok)
	assert.Equal(t, "go", got.Keyword)
	assert.Equal(t, 1, domain.TotalSlots(got.Prizes))
}

func TestDecodeDraft_UnknownStep(t *testing.T) {
	_, err := decodeDraft([]byte(`{"step":"waiting_forever","user_id":1}`))
	assert.Error(t, err)
}
