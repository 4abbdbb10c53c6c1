package webserver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pointsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "somnial_points_ingested_total",
		Help: "Number of points durably appended to the store",
	})
	pointsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "somnial_points_rejected_total",
		Help: "Number of write requests rejected before reaching the store",
	})
	storeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "somnial_store_errors_total",
		Help: "Number of failed store operations",
	})
	rangeQueries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "somnial_range_queries_total",
		Help: "Number of served range queries",
	})
)
