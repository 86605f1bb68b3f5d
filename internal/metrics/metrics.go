// Package metrics exposes desk activity and HTTP latency to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors the services and middleware update.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	SessionsStarted    prometheus.Counter
	SessionsEnded      prometheus.Counter
	PaymentsRecorded   prometheus.Counter
	PaymentAmount      prometheus.Counter
	StudentsRegistered prometheus.Counter
	StudentsDeleted    prometheus.Counter
	LoginAttempts      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry that also carries the Go
// runtime and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cybercafe",
			Name:      "usage_sessions_started_total",
			Help:      "Usage sessions opened at the desk.",
		}),
		SessionsEnded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cybercafe",
			Name:      "usage_sessions_ended_total",
			Help:      "Usage sessions closed at the desk.",
		}),
		PaymentsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cybercafe",
			Name:      "payments_recorded_total",
			Help:      "Payments recorded.",
		}),
		PaymentAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cybercafe",
			Name:      "payment_amount_total",
			Help:      "Sum of recorded payment amounts.",
		}),
		StudentsRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cybercafe",
			Name:      "students_registered_total",
			Help:      "Students added.",
		}),
		StudentsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cybercafe",
			Name:      "students_deleted_total",
			Help:      "Students removed.",
		}),
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cybercafe",
			Name:      "login_attempts_total",
			Help:      "Operator sign-in attempts by outcome.",
		}, []string{"outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cybercafe",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		m.SessionsStarted,
		m.SessionsEnded,
		m.PaymentsRecorded,
		m.PaymentAmount,
		m.StudentsRegistered,
		m.StudentsDeleted,
		m.LoginAttempts,
		m.RequestDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) SessionStarted() {
	if m != nil {
		m.SessionsStarted.Inc()
	}
}

func (m *Metrics) SessionEnded() {
	if m != nil {
		m.SessionsEnded.Inc()
	}
}

// PaymentRecorded counts a payment and adds its amount
func (m *Metrics) PaymentRecorded(amount float64) {
	if m != nil {
		m.PaymentsRecorded.Inc()
		m.PaymentAmount.Add(amount)
	}
}

func (m *Metrics) StudentRegistered() {
	if m != nil {
		m.StudentsRegistered.Inc()
	}
}

func (m *Metrics) StudentDeleted() {
	if m != nil {
		m.StudentsDeleted.Inc()
	}
}

// Login counts a sign-in attempt; outcome is "success", "failure" or "limited"
func (m *Metrics) Login(outcome string) {
	if m != nil {
		m.LoginAttempts.WithLabelValues(outcome).Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// Middleware observes request latency labelled by the matched route pattern
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(recorder, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.RequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(recorder.status)).
			Observe(time.Since(start).Seconds())
	})
}
