package token

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/gorilla/securecookie"

	"github.com/barapp/sesh/pkg/domain"
)

// DefaultMaxAttempts is used when a Generator does not set MaxAttempts.
const DefaultMaxAttempts = 16

var (
	// ErrKeyGenerationExhausted is returned when every attempt produced a key that was already in use.
	ErrKeyGenerationExhausted = errors.New("failed to generate an unused key")

	// ErrNoRandomness is returned when the system random source fails.
	ErrNoRandomness = errors.New("failed to generate random data for a key")
)

// randomBytes is swapped out in tests.
var randomBytes = securecookie.GenerateRandomKey

// ExistsFunc reports whether a key is already in use.
type ExistsFunc func(ctx context.Context, key string) (bool, error)

// Generator draws keys of Length characters from Alphabet, which must be ASCII.
// Every character is sampled independently and uniformly from a cryptographically secure source.
type Generator struct {
	Length      int
	Alphabet    string
	MaxAttempts int
}

// Validate checks that the generator can produce uniform keys.
func (g Generator) Validate() error {
	if g.Length < 1 {
		return fmt.Errorf("%w: key length must be positive, got %d", domain.ErrInvalidArgument, g.Length)
	}

	if len(g.Alphabet) < 2 || len(g.Alphabet) > 256 {
		return fmt.Errorf("%w: alphabet must have between 2 and 256 characters, got %d", domain.ErrInvalidArgument, len(g.Alphabet))
	}

	seen := make(map[byte]bool, len(g.Alphabet))
	for i := 0; i < len(g.Alphabet); i++ {
		if g.Alphabet[i] >= utf8.RuneSelf {
			return fmt.Errorf("%w: alphabet must be ASCII, got byte %#x", domain.ErrInvalidArgument, g.Alphabet[i])
		}
		if seen[g.Alphabet[i]] {
			return fmt.Errorf("%w: alphabet repeats %q", domain.ErrInvalidArgument, g.Alphabet[i])
		}
		seen[g.Alphabet[i]] = true
	}

	return nil
}

func (g Generator) maxAttempts() int {
	if g.MaxAttempts > 0 {
		return g.MaxAttempts
	}
	return DefaultMaxAttempts
}

// Generate returns a key for which exists reports false.
// A nil exists accepts the first key drawn.
func (g Generator) Generate(ctx context.Context, exists ExistsFunc) (string, error) {
	if err := g.Validate(); err != nil {
		return "", err
	}

	for attempt := 0; attempt < g.maxAttempts(); attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		key, err := g.sample()
		if err != nil {
			return "", err
		}

		if exists == nil {
			return key, nil
		}

		taken, err := exists(ctx, key)
		if err != nil {
			return "", fmt.Errorf("failed to check whether a key is in use: %w", err)
		}

		if !taken {
			return key, nil
		}
	}

	return "", ErrKeyGenerationExhausted
}

// sample draws one key. Bytes at or above the largest multiple of the
// alphabet size are rejected so that every character is equally likely.
func (g Generator) sample() (string, error) {
	size := len(g.Alphabet)
	limit := 256 - 256%size

	key := make([]byte, 0, g.Length)
	for len(key) < g.Length {
		buf := randomBytes(g.Length)
		if buf == nil {
			return "", ErrNoRandomness
		}

		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			key = append(key, g.Alphabet[int(b)%size])
			if len(key) == g.Length {
				break
			}
		}
	}

	return string(key), nil
}
