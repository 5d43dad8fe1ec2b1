package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/barapp/sesh/pkg/domain"
)

// MailVerificationStore keeps mail verifications with sequential IDs.
type MailVerificationStore struct {
	mu            sync.RWMutex
	verifications map[int64]domain.MailVerification
	nextID        int64
}

func NewMailVerificationStore() *MailVerificationStore {
	return &MailVerificationStore{
		verifications: make(map[int64]domain.MailVerification),
		nextID:        1,
	}
}

func (m *MailVerificationStore) Find(ctx context.Context, id int64) (*domain.MailVerification, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: mail verification id must be positive, got %d", domain.ErrInvalidArgument, id)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.verifications[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

// FindByKey returns the verification with the lowest ID that has this key.
func (m *MailVerificationStore) FindByKey(ctx context.Context, key string) (*domain.MailVerification, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty mail verification key", domain.ErrInvalidArgument)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var found *domain.MailVerification
	for _, v := range m.verifications {
		if v.Key != key {
			continue
		}
		if found == nil || v.ID < found.ID {
			match := v
			found = &match
		}
	}
	return found, nil
}

func (m *MailVerificationStore) ExistsByKey(ctx context.Context, key string) (bool, error) {
	v, err := m.FindByKey(ctx, key)
	if err != nil {
		return false, err
	}
	return v != nil, nil
}

func (m *MailVerificationStore) ListByUser(ctx context.Context, user domain.UserID) ([]domain.MailVerification, error) {
	if user <= 0 {
		return nil, fmt.Errorf("%w: user id must be positive, got %d", domain.ErrInvalidArgument, user)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	list := []domain.MailVerification{}
	for _, v := range m.verifications {
		if v.UserID == user {
			list = append(list, v)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })

	return list, nil
}

func (m *MailVerificationStore) Insert(ctx context.Context, v domain.NewMailVerification) (domain.MailVerification, error) {
	if v.Key == "" {
		return domain.MailVerification{}, fmt.Errorf("%w: empty mail verification key", domain.ErrInvalidArgument)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	created := domain.MailVerification{
		ID:             m.nextID,
		UserID:         v.UserID,
		Mail:           v.Mail,
		Key:            v.Key,
		PreviousMailID: v.PreviousMailID,
		Lifetime:       v.Lifetime,
	}
	m.verifications[created.ID] = created
	m.nextID++

	return created, nil
}

func (m *MailVerificationStore) DeleteByID(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: mail verification id must be positive, got %d", domain.ErrInvalidArgument, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.verifications, id)
	return nil
}

func (m *MailVerificationStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for id, v := range m.verifications {
		if v.IsExpired(now) {
			delete(m.verifications, id)
			count++
		}
	}
	return count, nil
}
