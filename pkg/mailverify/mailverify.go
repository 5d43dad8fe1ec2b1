// Package mailverify issues and checks the keys that prove a user owns a mail address.
package mailverify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/barapp/sesh/pkg/domain"
	"github.com/barapp/sesh/pkg/token"
)

const (
	// KeyLength is the number of characters in a verification key.
	KeyLength = 32

	// KeyAlphabet is lowercase so keys survive case-folding mail clients and URLs.
	KeyAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

	// DefaultTTL is how long a verification key stays valid.
	DefaultTTL = 48 * time.Hour
)

// Service manages mail verifications.
type Service struct {
	store     domain.MailVerificationStore
	log       domain.LogService
	generator token.Generator
	ttl       time.Duration
	now       func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithTTL sets how long new verification keys stay valid.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// WithClock replaces the clock used for lifetimes and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(store domain.MailVerificationStore, log domain.LogService, opts ...Option) *Service {
	s := &Service{
		store: store,
		log:   log,
		generator: token.Generator{
			Length:   KeyLength,
			Alphabet: KeyAlphabet,
		},
		ttl: DefaultTTL,
		now: func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create issues a verification of mail for user. previousMailID names the
// address this one replaces, if any.
func (s *Service) Create(ctx context.Context, user domain.UserID, mail string, previousMailID *int64) (domain.MailVerification, error) {
	mail = strings.TrimSpace(mail)

	if user <= 0 {
		return domain.MailVerification{}, fmt.Errorf("%w: user id must be positive, got %d", domain.ErrInvalidArgument, user)
	}
	if mail == "" {
		return domain.MailVerification{}, fmt.Errorf("%w: empty mail address", domain.ErrInvalidArgument)
	}
	if s.ttl <= 0 {
		return domain.MailVerification{}, fmt.Errorf("%w: verification ttl must be positive, got %s", domain.ErrInvalidArgument, s.ttl)
	}

	issuer := token.Issuer[domain.MailVerification]{
		Generator: s.generator,
		Exists:    s.store.ExistsByKey,
		Expiry:    func(created time.Time) time.Time { return created.Add(s.ttl) },
		Now:       s.now,
		Create: func(ctx context.Context, key string, lifetime domain.Lifetime) (domain.MailVerification, error) {
			return s.store.Insert(ctx, domain.NewMailVerification{
				UserID:         user,
				Mail:           mail,
				Key:            key,
				PreviousMailID: previousMailID,
				Lifetime:       lifetime,
			})
		},
	}

	created, err := issuer.Issue(ctx)
	if err != nil {
		return domain.MailVerification{}, fmt.Errorf("failed to create mail verification: %w", err)
	}

	s.log.Info(domain.MailVerificationCreated, domain.LogFields{
		"mail_ver_id": idField(created.ID),
		"user_id":     strconv.FormatInt(int64(user), 10),
	})

	return created, nil
}

// Find returns the verification with this ID, or nil.
func (s *Service) Find(ctx context.Context, id int64) (*domain.MailVerification, error) {
	return s.store.Find(ctx, id)
}

// FindByKey returns the verification a key belongs to, or nil.
func (s *Service) FindByKey(ctx context.Context, key string) (*domain.MailVerification, error) {
	return s.store.FindByKey(ctx, strings.ToLower(strings.TrimSpace(key)))
}

// ListForUser returns every verification of user, oldest first.
func (s *Service) ListForUser(ctx context.Context, user domain.UserID) ([]domain.MailVerification, error) {
	return s.store.ListByUser(ctx, user)
}

// Verify returns the verification when candidate is its key and it has not expired.
// Any other outcome returns nil without an error. Expired verifications are deleted.
func (s *Service) Verify(ctx context.Context, id int64, candidate string) (*domain.MailVerification, error) {
	v, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}

	if v.IsExpired(s.now()) {
		if err := s.store.DeleteByID(ctx, v.ID); err != nil {
			return nil, fmt.Errorf("failed to delete expired mail verification: %w", err)
		}
		s.log.Info(domain.MailVerificationExpired, domain.LogFields{"mail_ver_id": idField(v.ID)})
		return nil, nil
	}

	if !token.Equal(v.Key, candidate) {
		return nil, nil
	}

	return v, nil
}

// Delete removes a verification. Deleting a missing verification is not an error.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return err
	}

	s.log.Info(domain.MailVerificationDeleted, domain.LogFields{"mail_ver_id": idField(id)})
	return nil
}

// PurgeExpired deletes every expired verification and returns how many were removed.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpired(ctx, s.now())
}

func idField(id int64) string {
	return strconv.FormatInt(id, 10)
}
