// Package metrics exposes the engine's prometheus instrumentation.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	MessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_messages_total",
			Help: "Feed messages processed, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
	TradesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_trades_total",
			Help: "Trades produced by the matching loop",
		},
	)
	TradedQtyTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_traded_qty_total",
			Help: "Total quantity traded",
		},
	)
	RestingOrders = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "engine_resting_orders",
			Help: "Orders currently resting in the book",
		},
	)
	WALAppendErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "engine_wal_append_errors_total",
			Help: "Entry WAL append failures",
		},
	)
)

func Register() {
	prometheus.MustRegister(MessagesTotal)
	prometheus.MustRegister(TradesTotal)
	prometheus.MustRegister(TradedQtyTotal)
	prometheus.MustRegister(RestingOrders)
	prometheus.MustRegister(WALAppendErrors)
}
