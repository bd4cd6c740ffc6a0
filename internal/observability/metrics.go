// Package observability holds Warbler's Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"errors"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

const (
	namespace   = "warbler"
	startKey    = "warbler:query_start"
	callbackTag = "warbler:metrics"
)

// Metrics owns a private registry so several servers can live in one process.
type Metrics struct {
	Registry *prometheus.Registry

	http *fiberprometheus.FiberPrometheus

	DatabaseQueryLatency *prometheus.HistogramVec
	RedisErrors          *prometheus.CounterVec
	MessagesCreated      prometheus.Counter
	MessagesDeleted      prometheus.Counter
	FollowEvents         *prometheus.CounterVec
	LikeEvents           *prometheus.CounterVec
	AuthEvents           *prometheus.CounterVec
}

// NewMetrics registers every Warbler collector on a fresh registry.
func NewMetrics(serviceName string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		Registry: reg,
		http:     fiberprometheus.NewWithRegistry(reg, serviceName, namespace, "http", nil),
		DatabaseQueryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "database_query_duration_seconds",
				Help:      "Database query latency in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"operation", "table"},
		),
		RedisErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "redis_errors_total",
				Help:      "Total Redis errors",
			},
			[]string{"operation"},
		),
		MessagesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_created_total",
			Help:      "Messages posted",
		}),
		MessagesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_deleted_total",
			Help:      "Messages deleted by their owners",
		}),
		FollowEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "follow_events_total",
				Help:      "Follow and unfollow actions",
			},
			[]string{"action"},
		),
		LikeEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "like_events_total",
				Help:      "Like toggles by resulting state",
			},
			[]string{"action"},
		),
		AuthEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_events_total",
				Help:      "Signup, login and logout outcomes",
			},
			[]string{"event", "outcome"},
		),
	}

	reg.MustRegister(
		m.DatabaseQueryLatency,
		m.RedisErrors,
		m.MessagesCreated,
		m.MessagesDeleted,
		m.FollowEvents,
		m.LikeEvents,
		m.AuthEvents,
	)
	return m
}

// Middleware records request counts and latencies per route.
func (m *Metrics) Middleware() fiber.Handler {
	return m.http.Middleware
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}

// RecordAuth counts an auth event such as ("login", "failure").
func (m *Metrics) RecordAuth(event, outcome string) {
	m.AuthEvents.WithLabelValues(event, outcome).Inc()
}

// RecordLike counts a like toggle.
func (m *Metrics) RecordLike(liked bool) {
	if liked {
		m.LikeEvents.WithLabelValues("like").Inc()
		return
	}
	m.LikeEvents.WithLabelValues("unlike").Inc()
}

// InstrumentDB times every create, query, update and delete issued through db.
func (m *Metrics) InstrumentDB(db *gorm.DB) error {
	start := func(tx *gorm.DB) {
		tx.InstanceSet(startKey, time.Now())
	}
	observe := func(op string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(startKey)
			if !ok {
				return
			}
			began, ok := v.(time.Time)
			if !ok {
				return
			}
			m.DatabaseQueryLatency.WithLabelValues(op, tx.Statement.Table).Observe(time.Since(began).Seconds())
		}
	}

	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register(callbackTag+":before_create", start),
		cb.Create().After("gorm:create").Register(callbackTag+":after_create", observe("create")),
		cb.Query().Before("gorm:query").Register(callbackTag+":before_query", start),
		cb.Query().After("gorm:query").Register(callbackTag+":after_query", observe("query")),
		cb.Update().Before("gorm:update").Register(callbackTag+":before_update", start),
		cb.Update().After("gorm:update").Register(callbackTag+":after_update", observe("update")),
		cb.Delete().Before("gorm:delete").Register(callbackTag+":before_delete", start),
		cb.Delete().After("gorm:delete").Register(callbackTag+":after_delete", observe("delete")),
	)
}
