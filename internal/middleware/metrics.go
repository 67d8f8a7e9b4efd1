package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis command failures by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookforum_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// MembershipEvents counts forum membership changes by event type
	// (join, leave, remove, promote, succession).
	MembershipEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookforum_membership_events_total",
		Help: "Total number of forum membership lifecycle events",
	}, []string{"event"})

	// BookMerges counts catalog book merges triggered by edits.
	BookMerges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookforum_book_merges_total",
		Help: "Total number of book records merged during edits",
	})

	// AccountDeletions counts completed account deletion cascades.
	AccountDeletions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookforum_account_deletions_total",
		Help: "Total number of completed account deletions",
	})
)

// InitMetrics creates the Prometheus middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware returns the Fiber handler that records per-request metrics.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
