package auth

import (
	"context"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// Hasher derives and verifies bcrypt password hashes. Hashing is CPU work
// in the tens of milliseconds, so concurrent derivations are bounded by a
// weighted semaphore sized to GOMAXPROCS: a burst of registrations queues
// behind the semaphore instead of saturating every core.
type Hasher struct {
	cost  int
	sem   *semaphore.Weighted
	dummy []byte
}

// NewHasher builds a Hasher with the given bcrypt cost. Costs outside the
// bcrypt range fall back to the library default. The dummy hash used by
// VerifyDummy is derived once here so it carries the same cost as real
// hashes.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	if err != nil {
		// Only reachable with an out-of-range cost, which is clamped above.
		panic(err)
	}
	return &Hasher{
		cost:  cost,
		sem:   semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
		dummy: dummy,
	}
}

// Hash derives a bcrypt hash of plain. It blocks while all hashing slots
// are busy and returns the context error if the caller gives up first.
func (h *Hasher) Hash(ctx context.Context, plain string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plain matches the stored bcrypt hash.
func (h *Hasher) Verify(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// VerifyDummy burns the cost of a real verification against a throwaway
// hash and always reports false. Login calls it when the email is unknown
// so response timing does not reveal whether an account exists.
func (h *Hasher) VerifyDummy(plain string) bool {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plain))
	return false
}
