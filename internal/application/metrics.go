package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "matching_search_duration_seconds",
		Help:    "Time spent selecting and filtering providers for one search.",
		Buckets: prometheus.DefBuckets,
	})
	searchResults = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "matching_search_results",
		Help:    "Number of providers returned by a search.",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
	})
	candidatesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matching_candidates_rejected_total",
		Help: "Candidates removed by each filter predicate.",
	}, []string{"predicate"})
	bookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matching_bookings_created_total",
		Help: "Bookings created in pending state.",
	})
	bookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matching_booking_transitions_total",
		Help: "Booking transition attempts by target status and outcome.",
	}, []string{"to", "outcome"})
	introMessagesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matching_intro_messages_failed_total",
		Help: "Introductory conversation messages that could not be delivered.",
	})
)
