package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/set-night/relaybot/internal/config"
	"github.com/set-night/relaybot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestChallenge_InlinePasswordBinds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.admin.Challenge(ctx, adminID, adminID, testPassword)
	require.NoError(t, err)
	assert.Equal(t, ChallengeBound, res)

	chatID, bound, err := f.admin.AdminChatID(ctx)
	require.NoError(t, err)
	assert.True(t, bound)
	assert.Equal(t, adminID, chatID)

	isAdmin, err := f.admin.IsAdmin(ctx, adminID)
	require.NoError(t, err)
	assert.True(t, isAdmin)
}

func TestChallenge_AlreadyBound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.bindAdmin(t)

	_, err := f.admin.Challenge(ctx, 2, 2, testPassword)
	assert.ErrorIs(t, err, domain.ErrAlreadyBound)

	_, err = f.admin.Challenge(ctx, 2, 2, "")
	assert.ErrorIs(t, err, domain.ErrAlreadyBound)
	_, err = f.sessions.TakePendingLogin(ctx, 2)
	assert.ErrorIs(t, err, domain.ErrNoPendingLogin, "no pending login while bound")

	chatID, _, err := f.admin.AdminChatID(ctx)
	require.NoError(t, err)
	assert.Equal(t, adminID, chatID)
}

func TestChallenge_WrongInlinePassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.admin.Challenge(ctx, adminID, adminID, "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidPassword)

	_, bound, err := f.admin.AdminChatID(ctx)
	require.NoError(t, err)
	assert.False(t, bound)
}

func TestChallenge_PasswordNotSet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.store.DeleteSetting(ctx, config.SettingAdminPassword))

	_, err := f.admin.Challenge(ctx, adminID, adminID, "anything")
	assert.ErrorIs(t, err, domain.ErrPasswordNotSet)
}

func TestAttempt_Window(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		wantErr error
	}{
		{name: "just inside", elapsed: 59 * time.Second},
		{name: "expired", elapsed: 61 * time.Second, wantErr: domain.ErrLoginExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)

			res, err := f.admin.Challenge(ctx, adminID, adminID, "")
			require.NoError(t, err)
			require.Equal(t, ChallengePending, res)

			f.clock.Advance(tt.elapsed)
			chatID, err := f.admin.Attempt(ctx, adminID, testPassword)
			_, bound, berr := f.admin.AdminChatID(ctx)
			require.NoError(t, berr)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, bound)
			} else {
				require.NoError(t, err)
				assert.Equal(t, adminID, chatID)
				assert.True(t, bound)
			}

			_, err = f.admin.Attempt(ctx, adminID, testPassword)
			assert.ErrorIs(t, err, domain.ErrNoPendingLogin, "a pending login is used once")
		})
	}
}

func TestAttempt_WrongPasswordConsumesLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.admin.Challenge(ctx, adminID, adminID, "")
	require.NoError(t, err)

	_, err = f.admin.Attempt(ctx, adminID, "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidPassword)

	_, err = f.admin.Attempt(ctx, adminID, testPassword)
	assert.ErrorIs(t, err, domain.ErrNoPendingLogin)
}

func TestAttempt_ConcurrentLoginsBindOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	users := []int64{10, 20, 30, 40}
	for _, id := range users {
		_, err := f.admin.Challenge(ctx, id, id, "")
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var winners []int64
	for _, id := range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			chatID, err := f.admin.Attempt(ctx, id, testPassword)
			if err == nil {
				mu.Lock()
				winners = append(winners, chatID)
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrAlreadyBound)
		}()
	}
	wg.Wait()

	require.Len(t, winners, 1)
	chatID, bound, err := f.admin.AdminChatID(ctx)
	require.NoError(t, err)
	assert.True(t, bound)
	assert.Equal(t, winners[0], chatID)
}

func TestUnbind(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.bindAdmin(t)

	require.NoError(t, f.admin.Unbind(ctx))
	_, bound, err := f.admin.AdminChatID(ctx)
	require.NoError(t, err)
	assert.False(t, bound)

	res, err := f.admin.Challenge(ctx, 2, 2, testPassword)
	require.NoError(t, err)
	assert.Equal(t, ChallengeBound, res)
}

func TestSeedPassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	before, err := f.store.GetSetting(ctx, config.SettingAdminPassword)
	require.NoError(t, err)

	assert.Error(t, f.admin.SeedPassword(ctx, "plaintext"))
	other, err := bcrypt.GenerateFromPassword([]byte("other"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, f.admin.SeedPassword(ctx, string(other)))

	after, err := f.store.GetSetting(ctx, config.SettingAdminPassword)
	require.NoError(t, err)
	assert.Equal(t, before, after, "an existing password is kept")
}
