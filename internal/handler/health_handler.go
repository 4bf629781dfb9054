package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Pinger is an interface for health check ping operations.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to the Pinger interface.
type PingFunc func(ctx context.Context) error

// Ping calls f(ctx).
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type dependency struct {
	name   string
	pinger Pinger
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	deps []dependency
}

// NewHealthHandler creates a new HealthHandler checking the given database pool.
func NewHealthHandler(pool Pinger) *HealthHandler {
	return &HealthHandler{deps: []dependency{{name: "database", pinger: pool}}}
}

// With adds a named dependency to the health check.
func (h *HealthHandler) With(name string, p Pinger) *HealthHandler {
	h.deps = append(h.deps, dependency{name: name, pinger: p})
	return h
}

// Check pings every dependency in registration order.
// Returns 200 OK with {"status": "healthy"} when all of them are reachable.
// Returns 503 Service Unavailable with {"status": "unhealthy", "error": "..."} naming the first failure.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	for _, d := range h.deps {
		if err := d.pinger.Ping(c.Context()); err != nil {
			log.Error().Err(err).Str("dependency", d.name).Msg("health check failed")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unhealthy",
				"error":  d.name + " connection failed",
			})
		}
	}
	return c.JSON(fiber.Map{
		"status": "healthy",
	})
}
