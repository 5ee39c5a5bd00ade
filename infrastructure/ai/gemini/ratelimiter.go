package gemini

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"secondbrain-backend/pkg/errors"
)

// credentialState serializes dispatch for one API key. Callers queue on the
// mutex, so dispatch order per credential is first come, first served.
type credentialState struct {
	mu     sync.Mutex
	nextAt time.Time
}

// rateLimiter spreads requests round-robin across credentials and enforces a
// minimum spacing between dispatches on each credential. Distinct
// credentials proceed fully concurrently.
type rateLimiter struct {
	keys     []string
	states   []*credentialState
	minDelay time.Duration
	cursor   atomic.Uint64

	// injectable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func newRateLimiter(keys []string, minDelay time.Duration) *rateLimiter {
	states := make([]*credentialState, len(keys))
	for i := range states {
		states[i] = &credentialState{}
	}
	return &rateLimiter{
		keys:     keys,
		states:   states,
		minDelay: minDelay,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// do picks the next credential round-robin, waits out that credential's
// spacing window, stamps the dispatch time, then runs fn with the key.
// The per-credential lock is released before fn runs so the remote call
// itself does not block the next queued dispatch from starting its wait.
func (l *rateLimiter) do(ctx context.Context, fn func(ctx context.Context, key string) error) error {
	if len(l.keys) == 0 {
		return errors.NewNotConfiguredError("ai provider credentials")
	}

	idx := int((l.cursor.Add(1) - 1) % uint64(len(l.keys)))
	state := l.states[idx]

	state.mu.Lock()
	if wait := state.nextAt.Sub(l.now()); wait > 0 {
		if err := l.sleep(ctx, wait); err != nil {
			state.mu.Unlock()
			return err
		}
	}
	state.nextAt = l.now().Add(l.minDelay)
	state.mu.Unlock()

	return fn(ctx, l.keys[idx])
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
