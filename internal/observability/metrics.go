package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics groups the Prometheus collectors exported by the service.
type Metrics struct {
	Registry         *prometheus.Registry
	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	errors           *prometheus.CounterVec
	ticketsCreated   *prometheus.CounterVec
	statusChanges    *prometheus.CounterVec
	notificationsOut *prometheus.CounterVec
}

// NewMetrics registers collectors on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "Failed HTTP requests by error code.",
		}, []string{"route", "method", "code"}),
		ticketsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tickets_created_total",
			Help:      "Tickets created by category and initial status.",
		}, []string{"category", "status"}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticket_status_changes_total",
			Help:      "Ticket status transitions.",
		}, []string{"from", "to"}),
		notificationsOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries by channel and outcome.",
		}, []string{"channel", "outcome"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.errors,
		m.ticketsCreated,
		m.statusChanges,
		m.notificationsOut,
	)
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordTicketCreated counts a new ticket.
func (m *Metrics) RecordTicketCreated(category, status string) {
	if m == nil {
		return
	}
	m.ticketsCreated.WithLabelValues(category, status).Inc()
}

// RecordStatusChange counts a lifecycle transition.
func (m *Metrics) RecordStatusChange(from, to string) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(from, to).Inc()
}

// RecordNotification counts a delivery attempt on channel ("email", "broker").
func (m *Metrics) RecordNotification(channel string, err error) {
	if m == nil {
		return
	}
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	m.notificationsOut.WithLabelValues(channel, outcome).Inc()
}
