package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/warp/pto-tracker/timeoff"
)

// Metrics holds Prometheus metrics for the API and notification delivery.
// A nil *Metrics records nothing.
type Metrics struct {
	// Admissions counts create and edit outcomes: "admitted" or an error code.
	Admissions *prometheus.CounterVec

	// Conflicts counts rejected candidates by conflict kind.
	Conflicts *prometheus.CounterVec

	// Notifications counts deliveries by channel and status.
	Notifications *prometheus.CounterVec

	// RequestDuration is HTTP latency by route pattern.
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Admissions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pto",
				Name:      "admissions_total",
				Help:      "Request admissions by outcome",
			},
			[]string{"outcome"},
		),
		Conflicts: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pto",
				Name:      "conflicts_total",
				Help:      "Scheduling conflicts by kind",
			},
			[]string{"kind"},
		),
		Notifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pto",
				Name:      "notifications_total",
				Help:      "Notification deliveries by channel and status",
			},
			[]string{"channel", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "pto",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
	}
}

// Admission records the result of a create or edit.
func (m *Metrics) Admission(err error) {
	if m == nil {
		return
	}
	if err == nil {
		m.Admissions.WithLabelValues("admitted").Inc()
		return
	}
	m.Admissions.WithLabelValues(timeoff.Code(err)).Inc()

	var conflict *timeoff.SchedulingConflictError
	if errors.As(err, &conflict) {
		m.Conflicts.WithLabelValues(string(conflict.Kind)).Inc()
	}
}

// NotificationResult implements notify.Recorder.
func (m *Metrics) NotificationResult(channel, status string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(channel, status).Inc()
}

// Instrument observes request latency labelled by chi route pattern.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestDuration.WithLabelValues(route, r.Method, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
