package http

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/jhoicas/concesionaria-api/internal/application/dto"
)

const bucketTTL = 5 * time.Minute

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// ipLimiter token bucket por IP de origen. Los buckets inactivos se descartan al crear nuevos.
type ipLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	burst     int
	perSecond rate.Limit
	lastPurge time.Time
	now       func() time.Time
}

func newIPLimiter(burst, perSecond int) *ipLimiter {
	if burst <= 0 {
		burst = 10
	}
	if perSecond <= 0 {
		perSecond = 1
	}
	return &ipLimiter{
		buckets: map[string]*bucket{}, burst: burst, perSecond: rate.Limit(perSecond), now: time.Now,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastPurge) > time.Minute {
		for k, b := range l.buckets {
			if now.Sub(b.seen) > bucketTTL {
				delete(l.buckets, k)
			}
		}
		l.lastPurge = now
	}
	b, ok := l.buckets[ip]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.perSecond, l.burst)}
		l.buckets[ip] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

// RateLimit limita las peticiones por IP con un token bucket (burst, perSecond).
func RateLimit(burst, perSecond int) fiber.Handler {
	l := newIPLimiter(burst, perSecond)
	return func(c *fiber.Ctx) error {
		ip := c.IP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.allow(ip) {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Code: "RATE_LIMITED", Message: "Demasiados intentos. Intente nuevamente en un momento.",
			})
		}
		return c.Next()
	}
}
