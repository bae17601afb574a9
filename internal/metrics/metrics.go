// Package metrics holds the Prometheus collectors exported on /metrics.
// Collectors are registered once with the default registry at package
// initialisation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	usersRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mybooklist_users_registered_total",
		Help: "Total number of users registered",
	})
	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mybooklist_login_attempts_total",
		Help: "Login attempts by outcome",
	}, []string{"outcome"})
	booksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mybooklist_books_created_total",
		Help: "Total number of books created",
	})
	tokensRevoked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mybooklist_refresh_tokens_revoked_total",
		Help: "Total number of refresh tokens blacklisted at logout",
	})
	blacklistCheckMs = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mybooklist_blacklist_check_duration_ms",
		Help:    "Latency of refresh token blacklist lookups in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
	}, []string{"backend"})
)

// UserRegistered increments the registered users counter.
func UserRegistered() { usersRegistered.Inc() }

// LoginAttempt records a login attempt; outcome is "success" or "failure".
func LoginAttempt(outcome string) { loginAttempts.WithLabelValues(outcome).Inc() }

// BookCreated increments the created books counter.
func BookCreated() { booksCreated.Inc() }

// TokenRevoked increments the blacklisted refresh tokens counter.
func TokenRevoked() { tokensRevoked.Inc() }

// ObserveBlacklistCheck records the duration of a blacklist lookup.
func ObserveBlacklistCheck(backend string, ms float64) {
	blacklistCheckMs.WithLabelValues(backend).Observe(ms)
}
