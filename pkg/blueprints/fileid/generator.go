// Package fileid generates the opaque 8-character identifiers used both as
// public slugs and as blob storage keys.
package fileid

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// Alphabet is the fixed set of filesystem-safe symbols an identifier is
// drawn from. Its low cardinality keeps the per-character directory fan-out
// of the sharded blob store small and predictable.
const Alphabet = "abcdefghijklmnopqrstuvwxyz1234567890-_"

// Length of a generated identifier.
const Length = 8

// MaxAttempts bounds the collision retry loop. Exceeding it signals the id
// space or the filesystem is unexpectedly saturated.
const MaxAttempts = 50

// ErrExhausted is returned when MaxAttempts draws all collided.
var ErrExhausted = errors.New("fileid: no identifier available after max attempts")

// ExistsFunc reports whether an identifier is already taken in one of the
// stores an identifier must be absent from.
type ExistsFunc func(ctx context.Context, id string) (bool, error)

// Generator produces identifiers that are simultaneously absent from the
// database and from the blob store. Checkers are injected so tests can force
// collisions deterministically.
type Generator struct {
	dbExists ExistsFunc
	fsExists ExistsFunc
}

// New creates a Generator. dbExists is consulted first on every draw since
// it is the cheaper indexed lookup; fsExists only runs for identifiers the
// database does not know.
func New(dbExists, fsExists ExistsFunc) *Generator {
	return &Generator{dbExists: dbExists, fsExists: fsExists}
}

// Generate draws random identifiers until one is free in both stores, up to
// MaxAttempts. Randomness is cryptographically strong.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		id, err := randomID()
		if err != nil {
			return "", fmt.Errorf("fileid: draw failed: %w", err)
		}

		taken, err := g.dbExists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("fileid: database check failed: %w", err)
		}
		if taken {
			continue
		}

		taken, err = g.fsExists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("fileid: filesystem check failed: %w", err)
		}
		if taken {
			continue
		}

		return id, nil
	}

	return "", ErrExhausted
}

func randomID() (string, error) {
	max := big.NewInt(int64(len(Alphabet)))
	buf := make([]byte, Length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = Alphabet[n.Int64()]
	}
	return string(buf), nil
}
