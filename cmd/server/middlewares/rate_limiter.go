package middlewares

import (
	"time"

	"skillmart/cmd/server/handlers/httperr"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// BuildRateLimiter caps a route at max requests per client IP within window,
// counted over a sliding window. Each call owns its own buckets, so mounting
// one instance per route keeps login attempts from eating the reset budget.
// max <= 0 disables limiting.
func BuildRateLimiter(max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        window,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|" + c.Method() + "|" + c.Path()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return httperr.Fail(httperr.ErrTooManyRequests)
		},
	})
}
