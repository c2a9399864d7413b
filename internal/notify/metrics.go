package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScheduledTotal counts reminders accepted by Schedule.
	ScheduledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "babybloom",
			Subsystem: "scheduler",
			Name:      "scheduled_total",
			Help:      "Total number of reminders armed by the scheduler",
		},
	)

	// FiredTotal counts reminders that went through the fire path.
	// Labels: trigger (timer, sweep)
	FiredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "babybloom",
			Subsystem: "scheduler",
			Name:      "fired_total",
			Help:      "Total number of reminders fired, by trigger",
		},
		[]string{"trigger"},
	)

	// ShownTotal counts notifications handed to a sink.
	ShownTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "babybloom",
			Subsystem: "scheduler",
			Name:      "shown_total",
			Help:      "Total number of notifications displayed",
		},
	)

	// SuppressedTotal counts fired reminders that were not displayed.
	// Labels: reason (permission, already_active, error)
	SuppressedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "babybloom",
			Subsystem: "scheduler",
			Name:      "suppressed_total",
			Help:      "Total number of fired reminders not displayed, by reason",
		},
		[]string{"reason"},
	)

	// MissedTotal counts reminders dropped because they came due outside the catch-up window.
	MissedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "babybloom",
			Subsystem: "scheduler",
			Name:      "missed_total",
			Help:      "Total number of reminders dropped as missed",
		},
	)
)
