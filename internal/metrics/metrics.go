// Package metrics exposes Prometheus collectors for the game engine.
package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	sessionsCreated  prometheus.Counter
	activeSessions   prometheus.Gauge
	gamesStarted     prometheus.Counter
	gamesEnded       *prometheus.CounterVec
	rejections       *prometheus.CounterVec
	removals         *prometheus.CounterVec
	deliveryFailures *prometheus.CounterVec
	gameRounds       prometheus.Histogram
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mafia_sessions_created_total",
			Help: "Total number of sessions created",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mafia_active_sessions",
			Help: "Number of sessions currently registered",
		}),
		gamesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mafia_games_started_total",
			Help: "Total number of games that left the lobby",
		}),
		gamesEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mafia_games_ended_total",
			Help: "Total number of sessions ended, by outcome",
		}, []string{"outcome"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mafia_requests_rejected_total",
			Help: "Total number of rejected player requests, by reason",
		}, []string{"reason"}),
		removals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mafia_players_removed_total",
			Help: "Total number of players removed from play, by cause",
		}, []string{"cause"}),
		deliveryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mafia_delivery_failures_total",
			Help: "Total number of private messages that could not be delivered",
		}, []string{"event"}),
		gameRounds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mafia_game_rounds",
			Help:    "Rounds played per finished game",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"path", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.sessionsCreated,
		m.activeSessions,
		m.gamesStarted,
		m.gamesEnded,
		m.rejections,
		m.removals,
		m.deliveryFailures,
		m.gameRounds,
		m.httpRequests,
		m.httpDuration,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SessionCreated counts a new lobby
func (m *Metrics) SessionCreated() {
	if m == nil {
		return
	}
	m.sessionsCreated.Inc()
	m.activeSessions.Inc()
}

// SessionRemoved tracks a session leaving the registry
func (m *Metrics) SessionRemoved() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

// GameStarted counts a lobby turning into a game
func (m *Metrics) GameStarted() {
	if m == nil {
		return
	}
	m.gamesStarted.Inc()
}

// GameEnded counts a finished or canceled session. rounds is ignored for cancellations.
func (m *Metrics) GameEnded(outcome string, rounds int) {
	if m == nil {
		return
	}
	m.gamesEnded.WithLabelValues(strings.ToLower(outcome)).Inc()
	if rounds > 0 {
		m.gameRounds.Observe(float64(rounds))
	}
}

// Rejected counts a refused request by its error code
func (m *Metrics) Rejected(code string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(strings.ToLower(code)).Inc()
}

// PlayerRemoved counts a death ("night") or an elimination ("vote")
func (m *Metrics) PlayerRemoved(cause string) {
	if m == nil {
		return
	}
	m.removals.WithLabelValues(cause).Inc()
}

// DeliveryFailed counts a private message that could not be delivered
func (m *Metrics) DeliveryFailed(event string) {
	if m == nil {
		return
	}
	m.deliveryFailures.WithLabelValues(strings.ToLower(event)).Inc()
}

// ObserveRequest records one HTTP request
func (m *Metrics) ObserveRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(path, method, http.StatusText(status)).Inc()
	m.httpDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}
