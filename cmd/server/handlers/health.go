package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const HealthzTimeout = 5 * time.Second

// Check is one dependency checked by the health endpoint.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
	// Optional dependencies degrade the report without failing it.
	Optional bool
}

// HealthResponse is the health report.
type HealthResponse struct {
	Status string            `json:"status" example:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health returns a handler that pings every check.
// @Summary Health check
// @Description Pings MongoDB and, when configured, Redis. Redis failures report "degraded" with status 200.
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /healthz [get]
func Health(checks ...Check) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), HealthzTimeout)
		defer cancel()

		resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		code := fiber.StatusOK

		for _, chk := range checks {
			err := chk.Ping(ctx)
			if err == nil {
				resp.Checks[chk.Name] = "ok"
				continue
			}

			resp.Checks[chk.Name] = err.Error()
			if chk.Optional {
				if resp.Status == "ok" {
					resp.Status = "degraded"
				}
				continue
			}
			resp.Status = "down"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(resp)
	}
}
