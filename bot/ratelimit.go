package bot

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// defaultCommandsPerMinute bounds how many slash commands a single user may
// run per minute. Pagination reactions are not rate limited; they only hit
// Blossom when leaving the cached fetch window.
const defaultCommandsPerMinute = 10

// userRateLimiter applies a per-user token bucket to slash commands.
type userRateLimiter struct {
	mu        sync.Mutex
	users     map[string]*userLimiter
	perMinute int
}

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newUserRateLimiter creates the limiter and starts its cleanup goroutine,
// which removes users that have been quiet for a while.
func newUserRateLimiter(ctx context.Context, perMinute int) *userRateLimiter {
	l := &userRateLimiter{
		users:     make(map[string]*userLimiter),
		perMinute: perMinute,
	}
	go l.cleanupLoop(ctx)
	return l
}

// Allow reports whether the user may run another command right now.
func (l *userRateLimiter) Allow(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	u, ok := l.users[userID]
	if !ok {
		u = &userLimiter{
			limiter: rate.NewLimiter(rate.Limit(float64(l.perMinute)/60.0), l.perMinute),
		}
		l.users[userID] = u
	}
	u.lastSeen = time.Now()
	return u.limiter.Allow()
}

func (l *userRateLimiter) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.cleanup()
		}
	}
}

func (l *userRateLimiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for id, u := range l.users {
		if u.lastSeen.Before(cutoff) {
			delete(l.users, id)
		}
	}
}
