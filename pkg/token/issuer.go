package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/barapp/sesh/pkg/domain"
)

// Issuer creates entities of type T that are identified by a fresh key.
//
// Exists is the uniqueness predicate handed to the Generator. Because the
// check and the insert are not atomic, Create may still fail with
// domain.ErrCollision; the issuer then starts over with a new key, within
// the Generator's attempt budget.
type Issuer[T any] struct {
	Generator Generator
	Exists    ExistsFunc
	Create    func(ctx context.Context, key string, lifetime domain.Lifetime) (T, error)

	// Expiry computes the expiry time from the creation time.
	Expiry func(created time.Time) time.Time
	Now    func() time.Time
}

// Issue generates a key, computes its lifetime and creates the entity.
func (i Issuer[T]) Issue(ctx context.Context) (T, error) {
	var zero T

	if i.Create == nil || i.Expiry == nil {
		return zero, fmt.Errorf("%w: issuer needs a Create and an Expiry function", domain.ErrInvalidArgument)
	}

	for attempt := 0; attempt < i.Generator.maxAttempts(); attempt++ {
		key, err := i.Generator.Generate(ctx, i.Exists)
		if err != nil {
			return zero, err
		}

		created := i.now()
		lifetime := domain.Lifetime{
			CreatedAt: created,
			ExpiresAt: i.Expiry(created),
		}

		entity, err := i.Create(ctx, key, lifetime)
		if err == nil {
			return entity, nil
		}

		if !errors.Is(err, domain.ErrCollision) {
			return zero, err
		}
	}

	return zero, ErrKeyGenerationExhausted
}

func (i Issuer[T]) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now().UTC()
}
