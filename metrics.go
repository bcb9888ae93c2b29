package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	metricRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_rooms",
		Help: "Number of active rooms.",
	})
	metricClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relay_clients",
		Help: "Number of connected clients across all rooms.",
	})
	metricMessagesOut = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_messages_out_total",
		Help: "Messages delivered to clients, by type.",
	}, []string{"type"})
	metricEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_evictions_total",
		Help: "Clients evicted, by reason.",
	}, []string{"reason"})
)

// metricsHandler exposes the Prometheus registry.
func metricsHandler() http.Handler {
	return promhttp.Handler()
}
