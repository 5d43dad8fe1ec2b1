package token

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barapp/sesh/pkg/domain"
)

type issued struct {
	Key string
	domain.Lifetime
}

func fixedNow() time.Time {
	return time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
}

func newTestIssuer(create func(ctx context.Context, key string, lifetime domain.Lifetime) (issued, error)) Issuer[issued] {
	return Issuer[issued]{
		Generator: Generator{Length: 16, Alphabet: testAlphabet, MaxAttempts: 3},
		Create:    create,
		Expiry:    func(created time.Time) time.Time { return created.AddDate(1, 0, 0) },
		Now:       fixedNow,
	}
}

func TestIssuer_Issue(t *testing.T) {
	t.Run("computes_lifetime", func(t *testing.T) {
		issuer := newTestIssuer(func(ctx context.Context, key string, lifetime domain.Lifetime) (issued, error) {
			return issued{Key: key, Lifetime: lifetime}, nil
		})

		entity, err := issuer.Issue(context.Background())
		require.NoError(t, err)
		assert.Len(t, entity.Key, 16)
		assert.Equal(t, fixedNow(), entity.CreatedAt)
		assert.Equal(t, fixedNow().AddDate(1, 0, 0), entity.ExpiresAt)
	})

	t.Run("retries_on_collision", func(t *testing.T) {
		var keys []string
		issuer := newTestIssuer(func(ctx context.Context, key string, lifetime domain.Lifetime) (issued, error) {
			keys = append(keys, key)
			if len(keys) == 1 {
				return issued{}, fmt.Errorf("%w: %w", domain.ErrStorage, domain.ErrCollision)
			}
			return issued{Key: key, Lifetime: lifetime}, nil
		})

		entity, err := issuer.Issue(context.Background())
		require.NoError(t, err)
		require.Len(t, keys, 2)
		assert.Equal(t, keys[1], entity.Key)
	})

	t.Run("gives_up_after_repeated_collisions", func(t *testing.T) {
		calls := 0
		issuer := newTestIssuer(func(ctx context.Context, key string, lifetime domain.Lifetime) (issued, error) {
			calls++
			return issued{}, domain.ErrCollision
		})

		_, err := issuer.Issue(context.Background())
		assert.ErrorIs(t, err, ErrKeyGenerationExhausted)
		assert.Equal(t, 3, calls)
	})

	t.Run("storage_error_is_returned", func(t *testing.T) {
		storeErr := fmt.Errorf("%w: disk full", domain.ErrStorage)
		calls := 0
		issuer := newTestIssuer(func(ctx context.Context, key string, lifetime domain.Lifetime) (issued, error) {
			calls++
			return issued{}, storeErr
		})

		_, err := issuer.Issue(context.Background())
		assert.ErrorIs(t, err, domain.ErrStorage)
		assert.False(t, errors.Is(err, ErrKeyGenerationExhausted))
		assert.Equal(t, 1, calls)
	})

	t.Run("requires_callbacks", func(t *testing.T) {
		_, err := Issuer[issued]{Generator: Generator{Length: 4, Alphabet: "ab"}}.Issue(context.Background())
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("abc123", "abc123"))
	assert.True(t, Equal("  ABC123\n", "abc123"))
	assert.False(t, Equal("abc123", "abc124"))
	assert.False(t, Equal("abc", "abc123"))
	assert.False(t, Equal("", "abc"))
}
