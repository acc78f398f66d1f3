package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/authportal/internal/events"
	"github.com/spec-kit/authportal/internal/observability"
	"github.com/spec-kit/authportal/internal/session"
)

// AuditTrail exposes the most recent session lifecycle events.
type AuditTrail interface {
	Recent() []events.Event
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	storeKind   string
	store       *session.Store
	metrics     *observability.Metrics
	audit       AuditTrail
}

// NewHealthHandler returns a new handler instance. audit may be nil.
func NewHealthHandler(serviceName, version, storeKind string, store *session.Store, metrics *observability.Metrics, audit AuditTrail) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		storeKind:   storeKind,
		store:       store,
		metrics:     metrics,
		audit:       audit,
	}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports readiness of the session store backend.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	if err := h.store.Backend().Ping(ctx); err != nil {
		depStatus[h.storeKind] = err.Error()
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "DEPENDENCY_UNAVAILABLE",
				"message": "session store unavailable",
				"details": depStatus,
			},
		})
	}
	depStatus[h.storeKind] = "ok"

	return c.JSON(fiber.Map{
		"status":       "ready",
		"dependencies": depStatus,
		"session_key":  h.store.Key(),
	})
}

type metricsResponse struct {
	observability.Snapshot
	SessionGeneration uint64 `json:"session_generation"`
}

// Metrics returns the outbound request and session rejection counters along
// with how many times the session record has been replaced or cleared.
func (h *HealthHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(metricsResponse{
		Snapshot:          h.metrics.Snapshot(),
		SessionGeneration: h.store.Generation(),
	})
}

// Audit lists the retained session lifecycle events, oldest first.
func (h *HealthHandler) Audit(c *fiber.Ctx) error {
	trail := []events.Event{}
	if h.audit != nil {
		trail = append(trail, h.audit.Recent()...)
	}
	return c.JSON(fiber.Map{"data": trail})
}
