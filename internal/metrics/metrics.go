package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "yatrinivas"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Count of API requests by route.",
		},
		[]string{"route"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request latency by route and status code.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2, 5},
		},
		[]string{"route", "code"},
	)

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_created_total",
			Help:      "Count of bookings created by status.",
		},
		[]string{"status"},
	)

	bookingStatusChanged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_status_changed_total",
			Help:      "Count of admin booking status changes.",
		},
		[]string{"status"},
	)

	revenue = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revenue_total",
			Help:      "Sum of paid booking totals taken at checkout.",
		},
	)

	emailsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_sent_total",
			Help:      "Count of simulated emails by outcome.",
		},
		[]string{"result"},
	)

	remindersSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_sent_total",
			Help:      "Count of check-in reminders by outcome.",
		},
		[]string{"result"},
	)

	uploads = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Count of stored image uploads.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, bookingCreated, bookingStatusChanged,
			revenue, emailsSent, remindersSent, uploads)
	})
}

func IncHTTP(route string) {
	httpRequests.WithLabelValues(route).Inc()
}

func ObserveHTTP(route, code string, seconds float64) {
	httpDuration.WithLabelValues(route, code).Observe(seconds)
}

func IncBookingCreated(status string) {
	bookingCreated.WithLabelValues(status).Inc()
}

func IncBookingStatusChanged(status string) {
	bookingStatusChanged.WithLabelValues(status).Inc()
}

func AddRevenue(amount float64) {
	if amount > 0 {
		revenue.Add(amount)
	}
}

func IncEmail(result string) {
	emailsSent.WithLabelValues(result).Inc()
}

func IncUpload() {
	uploads.Inc()
}

func IncReminder(result string) {
	remindersSent.WithLabelValues(result).Inc()
}
