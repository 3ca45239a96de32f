package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/set-night/relaybot/internal/domain"
	"github.com/set-night/relaybot/internal/repository/memory"
	"github.com/set-night/relaybot/internal/state"
	"github.com/set-night/relaybot/internal/telegram/telegramtest"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testPassword = "correct horse"
	adminID      = int64(1)
	groupID      = int64(-1001)
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type armCall struct {
	id  int64
	end time.Time
}

type fakeArmer struct {
	mu    sync.Mutex
	calls []armCall
}

func (f *fakeArmer) Arm(id int64, end time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, armCall{id, end})
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []*domain.DrawOutcome
}

func (r *recordingObserver) LotteryDrawn(o *domain.DrawOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *recordingObserver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.outcomes)
}

type fixture struct {
	store    *memory.Store
	sessions *state.MemoryStore
	tg       *telegramtest.Messenger
	render   *Renderer
	clock    *clock
	observer *recordingObserver

	admin         *AdminService
	relay         *RelayService
	announcer     *Announcer
	draw          *DrawService
	scheduler     *Scheduler
	participation *ParticipationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    memory.New(),
		sessions: state.NewMemoryStore(),
		tg:       telegramtest.New(),
		render:   NewRenderer(time.UTC),
		clock:    &clock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		observer: &recordingObserver{},
	}
	f.admin = NewAdminService(f.store, f.sessions)
	f.admin.now = f.clock.Now
	f.relay = NewRelayService(f.store, f.admin, f.tg)
	f.announcer = NewAnnouncer(f.store, f.tg, f.render)
	f.draw = NewDrawService(f.store, f.tg, f.announcer, f.render, f.observer)
	f.scheduler = NewScheduler(f.store, f.draw, f.announcer, time.Hour)
	f.participation = NewParticipationService(f.store, f.tg, f.announcer, f.render)

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, f.admin.SeedPassword(context.Background(), string(hash)))
	return f
}

func (f *fixture) bindAdmin(t *testing.T) {
	t.Helper()
	res, err := f.admin.Challenge(context.Background(), adminID, adminID, testPassword)
	require.NoError(t, err)
	require.Equal(t, ChallengeBound, res)
}

// addLottery stores an active lottery with a posted announcement.
func (f *fixture) addLottery(t *testing.T, keyword string, end time.Time, prizes ...domain.Prize) domain.Lottery {
	t.Helper()
	if len(prizes) == 0 {
		prizes = []domain.Prize{{Name: "Cup", Count: 1}}
	}
	announcement, err := f.tg.Send(context.Background(), domain.OutgoingMessage{ChatID: groupID, Text: "announcement"})
	require.NoError(t, err)
	l := domain.Lottery{
		GroupID:               groupID,
		Title:                 "Giveaway",
		Keyword:               keyword,
		Prizes:                prizes,
		TotalWinnerSlots:      domain.TotalSlots(prizes),
		CreatorID:             adminID,
		AnnouncementMessageID: announcement,
		Status:                domain.LotteryStatusActive,
		ScheduledEndTime:      end,
	}
	require.NoError(t, f.store.CreateLottery(context.Background(), &l))
	return l
}

func (f *fixture) join(t *testing.T, l domain.Lottery, users ...domain.User) {
	t.Helper()
	ctx := context.Background()
	for _, u := range users {
		require.NoError(t, f.store.UpsertUser(ctx, u))
		res, err := f.participation.TryEnroll(ctx, l.GroupID, u, l.Keyword)
		require.NoError(t, err)
		require.Equal(t, EnrollJoined, res)
	}
}

func user(id int64, name string) domain.User {
	return domain.User{ID: id, FirstName: name, Username: name}
}

// identityShuffle keeps participants in join order.
func identityShuffle(int, func(i, j int)) {}
