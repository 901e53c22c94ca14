package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "trimtime",
			Name:      "booking_created_total",
			Help:      "Count of bookings confirmed through the flow.",
		},
	)

	bookingDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "trimtime",
			Name:      "booking_deleted_total",
			Help:      "Count of bookings removed from the operator view.",
		},
	)

	bookingConflict = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "trimtime",
			Name:      "booking_conflict_total",
			Help:      "Count of add attempts rejected because the slot was taken.",
		},
	)

	handoffDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trimtime",
			Name:      "handoff_dispatched_total",
			Help:      "Count of handoff messages dispatched by channel.",
		},
		[]string{"channel"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trimtime",
			Name:      "http_requests_total",
			Help:      "Count of HTTP API requests by handler.",
		},
		[]string{"handler"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, bookingDeleted, bookingConflict, handoffDispatched, httpRequests)
	})
}

func IncBookingCreated() {
	bookingCreated.Inc()
}

func IncBookingDeleted() {
	bookingDeleted.Inc()
}

func IncBookingConflict() {
	bookingConflict.Inc()
}

func IncHandoffDispatched(channel string) {
	handoffDispatched.WithLabelValues(channel).Inc()
}

func IncHTTP(handler string) {
	httpRequests.WithLabelValues(handler).Inc()
}
