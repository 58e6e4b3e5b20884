package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskdeck_realtime_connect_total",
		Help: "Change-feed connection attempts by table and result",
	}, []string{"table", "result"})

	openHandles = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "taskdeck_realtime_open_handles",
		Help: "Live change-feed connections by table",
	}, []string{"table"})

	consumers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "taskdeck_realtime_consumers",
		Help: "Consumers currently subscribed to a table",
	}, []string{"table"})

	teardowns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskdeck_realtime_teardowns_total",
		Help: "Change-feed connections closed by table and reason",
	}, []string{"table", "reason"})

	broadcasts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskdeck_realtime_broadcasts_total",
		Help: "Change notifications broadcast on the event bus by table",
	}, []string{"table"})
)
