// Package telemetry provides Prometheus metrics for the chat gateway.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	JoinsTotal            prometheus.Counter
	MessagesBroadcast     prometheus.Counter
	MessagesDroppedUnauth prometheus.Counter
	HistoryAppendFailures prometheus.Counter
	StoreErrors           prometheus.Counter
	CompactionsRun        prometheus.Counter

	// Gauges
	ConnectionsOpen prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		JoinsTotal = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_joins_total", Help: "Number of channel joins"})
		MessagesBroadcast = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_messages_broadcast_total", Help: "Number of chat messages fanned out to subscribers"})
		MessagesDroppedUnauth = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_messages_dropped_unauthenticated_total", Help: "Number of publishes dropped because the participant was not authenticated"})
		HistoryAppendFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_history_append_failures_total", Help: "Number of history appends that failed and were swallowed"})
		StoreErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_store_errors_total", Help: "Number of shared-store operations that returned an error"})
		CompactionsRun = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_history_compactions_total", Help: "Number of history trims performed"})
		ConnectionsOpen = promauto.NewGauge(prometheus.GaugeOpts{Name: "chat_connections_open", Help: "Currently open websocket connections"})
	})
}

// Inc increments a counter if metrics are initialised.
func Inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

// GaugeAdd adjusts a gauge if metrics are initialised.
func GaugeAdd(g prometheus.Gauge, delta float64) {
	if g != nil {
		g.Add(delta)
	}
}
