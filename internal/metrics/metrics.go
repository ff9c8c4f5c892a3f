// Package metrics exposes Prometheus counters for the booking engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Bookings created, by initial status",
		},
		[]string{"status"},
	)

	seatConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_seat_conflicts_total",
			Help: "Booking attempts rejected because a seat was unavailable",
		},
	)

	cancellations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_cancellations_total",
			Help: "Bookings cancelled, by actor role",
		},
		[]string{"actor"},
	)

	adjudications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_adjudications_total",
			Help: "Admin decisions on pending bookings",
		},
		[]string{"decision"},
	)

	bookingIDCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_id_collisions_total",
			Help: "Booking inserts retried because the generated id was taken",
		},
	)

	seatMapCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seat_map_cache_requests_total",
			Help: "Seat map cache lookups, by result",
		},
		[]string{"result"},
	)
)

func BookingCreated(status string)  { bookingsCreated.WithLabelValues(status).Inc() }
func SeatConflict()                 { seatConflicts.Inc() }
func BookingCancelled(actor string) { cancellations.WithLabelValues(actor).Inc() }
func Adjudicated(decision string)   { adjudications.WithLabelValues(decision).Inc() }
func BookingIDCollision()           { bookingIDCollisions.Inc() }
func SeatMapCacheHit()              { seatMapCache.WithLabelValues("hit").Inc() }
func SeatMapCacheMiss()             { seatMapCache.WithLabelValues("miss").Inc() }
func SeatMapCacheError()            { seatMapCache.WithLabelValues("error").Inc() }
