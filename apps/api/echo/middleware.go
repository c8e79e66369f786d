package echoapi

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// tierMiddleware lets the request through when the token's role sits at
// or above minTier in the privilege lattice.
func tierMiddleware(minTier int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.Tier() < minTier {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

// selfOrTierMiddleware lets a principal through for their own `:id`
// resource, or any principal at or above minTier.
func selfOrTierMiddleware(minTier int, param ...string) echo.MiddlewareFunc {
	p := "id"
	if len(param) > 0 {
		p = param[0]
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if ctx.Param(p) == claims.Subject || claims.Tier() >= minTier {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// tokenBucket is an in-memory per-key rate limiter. State lives in
// process memory; replicas each enforce their own budget.
type tokenBucket struct {
	capacity int
	rate     int // tokens per minute
	mu       sync.Mutex
	state    map[string]*bucket
}

type bucket struct {
	tokens int
	last   time.Time
}

func newTokenBucket(perMinute int) *tokenBucket {
	return &tokenBucket{
		capacity: perMinute,
		rate:     perMinute,
		state:    make(map[string]*bucket),
	}
}

func (l *tokenBucket) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	b, ok := l.state[key]
	if !ok {
		l.state[key] = &bucket{tokens: l.capacity - 1, last: now}
		return true
	}
	elapsed := now.Sub(b.last).Minutes()
	if refill := int(elapsed * float64(l.rate)); refill > 0 {
		b.tokens += refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// rateLimitMiddleware enforces a per-IP request budget. perMinute <= 0
// disables the limit (handy in tests).
func rateLimitMiddleware(perMinute int) echo.MiddlewareFunc {
	limiter := newTokenBucket(perMinute)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if perMinute <= 0 {
				return next(ctx)
			}
			ip := ctx.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			if !limiter.allow(ip) {
				return errRateLimited
			}
			return next(ctx)
		}
	}
}
