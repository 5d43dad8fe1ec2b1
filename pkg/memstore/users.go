package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/barapp/sesh/pkg/domain"
)

// UserStore is a set of existing user IDs.
type UserStore struct {
	mu    sync.RWMutex
	users map[domain.UserID]bool
	fail  error
}

func NewUserStore(ids ...domain.UserID) *UserStore {
	store := &UserStore{users: make(map[domain.UserID]bool)}
	for _, id := range ids {
		store.users[id] = true
	}
	return store
}

func (m *UserStore) Add(id domain.UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = true
}

func (m *UserStore) Remove(id domain.UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
}

// FailWith makes ExistsByID return err wrapped as a storage error. Pass nil to recover.
func (m *UserStore) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

func (m *UserStore) ExistsByID(ctx context.Context, id domain.UserID) (bool, error) {
	if id <= 0 {
		return false, fmt.Errorf("%w: user id must be positive, got %d", domain.ErrInvalidArgument, id)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.fail != nil {
		return false, fmt.Errorf("failed to look up user: %w: %w", domain.ErrStorage, m.fail)
	}

	return m.users[id], nil
}
