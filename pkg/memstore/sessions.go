// Package memstore keeps sessions, users and mail verifications in memory.
// It implements the same store interfaces as dbstore, for tests and local development.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/barapp/sesh/pkg/domain"
)

// SessionStore is a mutex-guarded map of sessions keyed by ID.
// Like the key column in postgres, session keys are unique.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	keys     map[string]string
	fail     error
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.Session),
		keys:     make(map[string]string),
	}
}

// FailWith makes every following operation return err wrapped as a storage error.
// Pass nil to recover.
func (m *SessionStore) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

func (m *SessionStore) failure(action string) error {
	if m.fail == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", action, domain.ErrStorage, m.fail)
}

func (m *SessionStore) List(ctx context.Context) ([]domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failure("failed to list sessions"); err != nil {
		return nil, err
	}

	sessions := make([]domain.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	return sessions, nil
}

func (m *SessionStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failure("failed to count sessions"); err != nil {
		return 0, err
	}

	return len(m.sessions), nil
}

func (m *SessionStore) ExistsByID(ctx context.Context, id string) (bool, error) {
	if err := validateSessionID(id); err != nil {
		return false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failure("failed to look up session by id"); err != nil {
		return false, err
	}

	_, ok := m.sessions[id]
	return ok, nil
}

func (m *SessionStore) ExistsByKey(ctx context.Context, key string) (bool, error) {
	session, err := m.FindByKey(ctx, key)
	if err != nil {
		return false, err
	}
	return session != nil, nil
}

func (m *SessionStore) FindByKey(ctx context.Context, key string) (*domain.Session, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty session key", domain.ErrInvalidArgument)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failure("failed to look up session by key"); err != nil {
		return nil, err
	}

	id, ok := m.keys[key]
	if !ok {
		return nil, nil
	}

	session := m.sessions[id]
	return &session, nil
}

func (m *SessionStore) Insert(ctx context.Context, session domain.NewSession) (domain.Session, error) {
	if session.Key == "" {
		return domain.Session{}, fmt.Errorf("%w: empty session key", domain.ErrInvalidArgument)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure("failed to create session"); err != nil {
		return domain.Session{}, err
	}

	if _, taken := m.keys[session.Key]; taken {
		return domain.Session{}, fmt.Errorf("failed to create session: %w: %w", domain.ErrStorage, domain.ErrCollision)
	}

	created := domain.Session{
		ID:       uuid.NewString(),
		UserID:   session.UserID,
		Key:      session.Key,
		CreateIP: session.CreateIP,
		Lifetime: session.Lifetime,
	}

	m.sessions[created.ID] = created
	m.keys[created.Key] = created.ID

	return created, nil
}

func (m *SessionStore) DeleteByID(ctx context.Context, id string) error {
	if err := validateSessionID(id); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure("failed to delete session"); err != nil {
		return err
	}

	if session, ok := m.sessions[id]; ok {
		delete(m.keys, session.Key)
		delete(m.sessions, id)
	}

	return nil
}

func (m *SessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failure("failed to delete expired sessions"); err != nil {
		return 0, err
	}

	var count int64
	for id, session := range m.sessions {
		if session.IsExpired(now) {
			delete(m.keys, session.Key)
			delete(m.sessions, id)
			count++
		}
	}

	return count, nil
}

func validateSessionID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty session id", domain.ErrInvalidArgument)
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: malformed session id %q", domain.ErrInvalidArgument, id)
	}
	return nil
}
