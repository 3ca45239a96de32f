// Package state keeps pending logins and lottery drafts, either in process
// memory or in Redis.
package state

import (
	"context"
	"sync"

	"github.com/set-night/relaybot/internal/domain"
)

// MemoryStore keeps sessions in maps. Expiry is checked by the callers on
// read, so entries only linger until the user's next message.
type MemoryStore struct {
	mu     sync.Mutex
	logins map[int64]domain.PendingLogin
	drafts map[int64]domain.Draft
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		logins: make(map[int64]domain.PendingLogin),
		drafts: make(map[int64]domain.Draft),
	}
}

func (m *MemoryStore) SavePendingLogin(_ context.Context, login domain.PendingLogin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logins[login.UserID] = login
	return nil
}

func (m *MemoryStore) TakePendingLogin(_ context.Context, userID int64) (*domain.PendingLogin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	login, ok := m.logins[userID]
	if !ok {
		return nil, domain.ErrNoPendingLogin
	}
	delete(m.logins, userID)
	return &login, nil
}

func (m *MemoryStore) DeletePendingLogin(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.logins, userID)
	return nil
}

func (m *MemoryStore) SaveDraft(_ context.Context, draft domain.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[draft.Meta().UserID] = draft
	return nil
}

func (m *MemoryStore) GetDraft(_ context.Context, userID int64) (domain.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[userID]
	if !ok {
		return nil, domain.ErrNoDraft
	}
	return d, nil
}

func (m *MemoryStore) DeleteDraft(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, userID)
	return nil
}
