package http

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// chatRateLimiter throttles the recommendation chat per identity. The chat
// upstream is metered, so a runaway client must not burn the shared quota.
type chatRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*identityLimiter
	rate     rate.Limit
	burst    int
}

type identityLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

const limiterIdleTTL = 10 * time.Minute

func newChatRateLimiter(perMinute float64, burst int) *chatRateLimiter {
	return &chatRateLimiter{
		limiters: make(map[string]*identityLimiter),
		rate:     rate.Limit(perMinute / 60.0),
		burst:    burst,
	}
}

func (rl *chatRateLimiter) allow(steamID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	entry, ok := rl.limiters[steamID]
	if !ok {
		entry = &identityLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[steamID] = entry
	}
	entry.lastAccess = now

	// Opportunistic cleanup keeps the map bounded without a background goroutine.
	for id, stale := range rl.limiters {
		if now.Sub(stale.lastAccess) > limiterIdleTTL {
			delete(rl.limiters, id)
		}
	}

	return entry.limiter.Allow()
}

// middleware rejects over-quota chat requests with 429. It must run after the
// auth middleware so the identity is in context.
func (rl *chatRateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFromContext(r.Context())
		if identity == nil {
			unauthorized(w)
			return
		}

		if !rl.allow(identity.SteamID) {
			writeError(w, http.StatusTooManyRequests, "demasiadas solicitudes")
			return
		}

		next.ServeHTTP(w, r)
	})
}
