package http

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	apperrors "github.com/garage-kit/shop-service/pkg/util/errorutil"
)

// maxTrackedClients bounds the per-IP bucket map; past it the whole map
// is dropped and buckets refill. A fresh bucket starts full, so eviction
// errs toward allowing.
const maxTrackedClients = 4096

type clientLimiters struct {
	mu        sync.Mutex
	perMinute int
	buckets   map[string]*rate.Limiter
}

func newClientLimiters(perMinute int) *clientLimiters {
	return &clientLimiters{
		perMinute: perMinute,
		buckets:   make(map[string]*rate.Limiter),
	}
}

func (c *clientLimiters) get(ip string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	limiter, ok := c.buckets[ip]
	if !ok {
		if len(c.buckets) >= maxTrackedClients {
			c.buckets = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(rate.Limit(float64(c.perMinute)/60.0), c.perMinute)
		c.buckets[ip] = limiter
	}
	return limiter
}

// AuthRateLimiter throttles credential endpoints per client IP.
func AuthRateLimiter(perMinute int) fiber.Handler {
	if perMinute <= 0 {
		perMinute = 30
	}
	limiters := newClientLimiters(perMinute)

	return func(c *fiber.Ctx) error {
		if !limiters.get(c.IP()).Allow() {
			return apperrors.NewDomainError(apperrors.CodeRateLimited,
				"too many requests", fiber.StatusTooManyRequests, nil)
		}
		return c.Next()
	}
}
