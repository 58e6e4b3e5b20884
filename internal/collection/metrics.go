package collection

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskdeck_collection_refetch_total",
		Help: "Collection refetches by outcome (applied, stale, error)",
	}, []string{"collection", "outcome"})

	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "taskdeck_collection_fetch_seconds",
		Help:    "Time spent loading a collection from the data service",
		Buckets: prometheus.DefBuckets,
	}, []string{"collection"})
)
