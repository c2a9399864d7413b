package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

var (
	// feedRequests counts feed requests.
	// Labels: code, method
	feedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "babybloom",
			Subsystem: "feed",
			Name:      "requests_total",
			Help:      "Total number of calendar feed requests, by status code and method",
		},
		[]string{"code", "method"},
	)

	// feedRenders counts feed renders.
	// Labels: result (ok, error)
	feedRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "babybloom",
			Subsystem: "feed",
			Name:      "renders_total",
			Help:      "Total number of calendar feed renders, by result",
		},
		[]string{"result"},
	)
)
