package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/auth"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/response"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per caller. Callers with a valid bearer
// token are keyed by user id, everyone else by client IP. It runs ahead of the
// route-level AuthMiddleware, so it verifies the token itself.
type RateLimiter struct {
	mu         sync.Mutex
	limiters   map[string]*limiterEntry
	rps        rate.Limit
	burst      int
	jwtManager *auth.JWTManager
	now        func() time.Time
	logger     *zap.Logger
}

// NewRateLimiter creates a limiter. jwtManager may be nil, in which case every
// caller is keyed by IP.
func NewRateLimiter(rps float64, burst int, jwtManager *auth.JWTManager, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		limiters:   make(map[string]*limiterEntry),
		rps:        rate.Limit(rps),
		burst:      burst,
		jwtManager: jwtManager,
		now:        time.Now,
		logger:     logger,
	}
}

func (l *RateLimiter) limiterFor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = l.now()
	return entry.limiter
}

// Sweep drops buckets not used within idle and returns how many were removed.
func (l *RateLimiter) Sweep(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-idle)
	removed := 0
	for key, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, key)
			removed++
		}
	}
	return removed
}

// Run sweeps idle buckets every interval until ctx is cancelled.
func (l *RateLimiter) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Sweep(idle); n > 0 {
				l.logger.Debug("evicted idle rate limiters", zap.Int("count", n))
			}
		}
	}
}

func (l *RateLimiter) callerKey(c *gin.Context) string {
	if userID, ok := GetUserID(c); ok {
		return "user:" + userID.String()
	}
	if l.jwtManager != nil {
		if token := tokenFromHeader(c.GetHeader("Authorization")); token != "" {
			if claims, err := l.jwtManager.ValidateToken(token); err == nil {
				return "user:" + claims.UserID.String()
			}
		}
	}
	return "ip:" + c.ClientIP()
}

// Middleware rejects requests over the caller's allowance with 429.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.rps <= 0 {
			c.Next()
			return
		}
		key := l.callerKey(c)
		if !l.limiterFor(key).Allow() {
			l.logger.Warn("rate limit exceeded", zap.String("caller", key), zap.String("path", c.FullPath()))
			response.TooManyRequests(c, "rate limit exceeded, try again later")
			return
		}
		c.Next()
	}
}
