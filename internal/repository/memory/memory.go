// Package memory is an in-process store used for local runs without
// Postgres and as the storage double in tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/set-night/relaybot/internal/domain"
)

type participantKey struct {
	lotteryID int64
	userID    int64
}

type mappingKey struct {
	chatID    int64
	messageID int
}

// Store holds every table behind one mutex so multi-row operations such as
// EndLottery are atomic like their SQL counterparts.
type Store struct {
	mu sync.Mutex

	settings     map[string]string
	users        map[int64]domain.User
	groups       map[int64]domain.Group
	messages     []domain.Message
	mappings     map[mappingKey]domain.RelayMapping
	lotteries    map[int64]domain.Lottery
	participants []domain.Participant
	entered      map[participantKey]bool

	nextID int64
	now    func() time.Time
}

func New() *Store {
	return &Store{
		settings:  make(map[string]string),
		users:     make(map[int64]domain.User),
		groups:    make(map[int64]domain.Group),
		mappings:  make(map[mappingKey]domain.RelayMapping),
		lotteries: make(map[int64]domain.Lottery),
		entered:   make(map[participantKey]bool),
		now:       time.Now,
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Settings

func (s *Store) GetSetting(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.settings[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

func (s *Store) SetSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	return nil
}

func (s *Store) SetSettingIfAbsent(_ context.Context, key, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.settings[key]; ok {
		return false, nil
	}
	s.settings[key] = value
	return true, nil
}

func (s *Store) DeleteSetting(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.settings, key)
	return nil
}

// Chats

func (s *Store) UpsertUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.users[user.ID]; ok {
		user.CreatedAt = prev.CreatedAt
	} else if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
	}
	s.users[user.ID] = user
	return nil
}

func (s *Store) UpsertGroup(_ context.Context, group domain.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.groups[group.ID]; ok {
		group.CreatedAt = prev.CreatedAt
	} else if group.CreatedAt.IsZero() {
		group.CreatedAt = s.now()
	}
	s.groups[group.ID] = group
	return nil
}

func (s *Store) GetGroup(_ context.Context, id int64) (*domain.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &g, nil
}

func (s *Store) DeleteGroup(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.groups, id)
	return nil
}

func (s *Store) SaveMessage(_ context.Context, msg *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg.ID = s.id()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	if msg.Direction == "" {
		msg.Direction = domain.MessageIncoming
	}
	s.messages = append(s.messages, *msg)
	return nil
}

func (s *Store) RedactMessage(_ context.Context, chatID int64, messageID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ChatID == chatID && s.messages[i].MessageID == messageID {
			s.messages[i].Text = domain.RedactedText
		}
	}
	return nil
}

// Messages returns the log of chatID in insertion order.
func (s *Store) Messages(chatID int64) []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Message
	for _, m := range s.messages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

func (s *Store) SaveRelayMapping(_ context.Context, mapping *domain.RelayMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mapping.ID = s.id()
	if mapping.CreatedAt.IsZero() {
		mapping.CreatedAt = s.now()
	}
	s.mappings[mappingKey{mapping.AdminChatID, mapping.AdminMessageID}] = *mapping
	return nil
}

func (s *Store) FindRelayMapping(_ context.Context, adminChatID int64, adminMessageID int) (*domain.RelayMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mappings[mappingKey{adminChatID, adminMessageID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &m, nil
}

// Lotteries

func cloneLottery(l domain.Lottery) domain.Lottery {
	l.Prizes = slices.Clone(l.Prizes)
	if l.EndedAt != nil {
		t := *l.EndedAt
		l.EndedAt = &t
	}
	return l
}

func (s *Store) CreateLottery(_ context.Context, lottery *domain.Lottery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lottery.ID = s.id()
	if lottery.CreatedAt.IsZero() {
		lottery.CreatedAt = s.now()
	}
	if lottery.Status == "" {
		lottery.Status = domain.LotteryStatusActive
	}
	s.lotteries[lottery.ID] = cloneLottery(*lottery)
	return nil
}

func (s *Store) GetLottery(_ context.Context, id int64) (*domain.Lottery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lotteries[id]
	if !ok {
		return nil, domain.ErrLotteryNotFound
	}
	l = cloneLottery(l)
	return &l, nil
}

func (s *Store) filter(keep func(domain.Lottery) bool) []domain.Lottery {
	var out []domain.Lottery
	for _, l := range s.lotteries {
		if keep(l) {
			out = append(out, cloneLottery(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) ListActiveLotteries(_ context.Context) ([]domain.Lottery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter(func(l domain.Lottery) bool { return l.IsActive() }), nil
}

func (s *Store) ListOverdueLotteries(_ context.Context, now time.Time) ([]domain.Lottery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter(func(l domain.Lottery) bool {
		return l.IsActive() && l.ScheduledEndTime.Before(now)
	}), nil
}

func (s *Store) FindActiveByKeyword(_ context.Context, groupID int64, keyword string) ([]domain.Lottery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter(func(l domain.Lottery) bool {
		return l.IsActive() && l.GroupID == groupID && l.Keyword == keyword
	}), nil
}

func (s *Store) ExtendLottery(_ context.Context, id int64, extra time.Duration) (*domain.Lottery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lotteries[id]
	if !ok {
		return nil, domain.ErrLotteryNotFound
	}
	if !l.IsActive() {
		return nil, domain.ErrLotteryNotActive
	}
	l.ScheduledEndTime = l.ScheduledEndTime.Add(extra)
	s.lotteries[id] = l
	l = cloneLottery(l)
	return &l, nil
}

func (s *Store) AddParticipant(_ context.Context, lotteryID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lotteries[lotteryID]
	if !ok || !l.IsActive() {
		return false, nil
	}
	key := participantKey{lotteryID, userID}
	if s.entered[key] {
		return false, nil
	}
	s.entered[key] = true
	s.participants = append(s.participants, domain.Participant{
		ID:        s.id(),
		LotteryID: lotteryID,
		UserID:    userID,
		CreatedAt: s.now(),
	})
	return true, nil
}

func (s *Store) HasParticipant(_ context.Context, lotteryID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entered[participantKey{lotteryID, userID}], nil
}

func (s *Store) CountParticipants(_ context.Context, lotteryID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.participants {
		if p.LotteryID == lotteryID {
			n++
		}
	}
	return n, nil
}

// Participants returns the entries of lotteryID in join order.
func (s *Store) Participants(lotteryID int64) []domain.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.participantsOf(lotteryID)
}

func (s *Store) participantsOf(lotteryID int64) []domain.Participant {
	var out []domain.Participant
	for _, p := range s.participants {
		if p.LotteryID == lotteryID {
			p.User = s.users[p.UserID]
			out = append(out, p)
		}
	}
	return out
}

func (s *Store) EndLottery(_ context.Context, id int64, endedAt time.Time, pick domain.PickFunc) (*domain.DrawOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lotteries[id]
	if !ok {
		return nil, domain.ErrLotteryNotFound
	}
	if !l.IsActive() {
		return nil, domain.ErrLotteryNotActive
	}
	l.Status = domain.LotteryStatusEnded
	l.EndedAt = &endedAt
	s.lotteries[id] = l

	participants := s.participantsOf(id)
	winners := pick(cloneLottery(l), participants)
	won := make(map[int64]string, len(winners))
	for _, w := range winners {
		won[w.ParticipantID] = w.PrizeName
	}
	for i := range s.participants {
		prize, ok := won[s.participants[i].ID]
		if !ok {
			continue
		}
		s.participants[i].IsWinner = true
		s.participants[i].WonPrizeName = &prize
	}
	return &domain.DrawOutcome{
		Lottery:      cloneLottery(l),
		Participants: s.participantsOf(id),
		Winners:      winners,
	}, nil
}
