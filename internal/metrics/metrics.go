// Package metrics exposes Prometheus instrumentation for the live
// scanner and execution path.
package metrics

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	ScanCycles     prometheus.Counter
	ScanErrors     prometheus.Counter
	ScanDuration   prometheus.Histogram
	SignalsTotal   *prometheus.CounterVec // labels: direction
	OrdersPlaced   prometheus.Counter
	OrdersRejected prometheus.Counter
	QuoteErrors    prometheus.Counter
	TradesClosed   *prometheus.CounterVec // labels: exit_reason
	OpenPositions  prometheus.Gauge
	EquityPaise    prometheus.Gauge
}

// New registers and returns all metrics on the default registry.
func New() *Metrics {
	m := &Metrics{
		ScanCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "insidebar_scan_cycles_total",
			Help: "Signal scan cycles executed",
		}),
		ScanErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "insidebar_scan_errors_total",
			Help: "Scan cycles that failed (data fetch or validation)",
		}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "insidebar_scan_duration_seconds",
			Help:    "Wall time of one full signal scan",
			Buckets: prometheus.DefBuckets,
		}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "insidebar_signals_total",
			Help: "Signals assembled (by direction)",
		}, []string{"direction"}),
		OrdersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "insidebar_orders_placed_total",
			Help: "Broker orders placed",
		}),
		OrdersRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "insidebar_orders_rejected_total",
			Help: "Orders blocked by risk limits or rejected by the broker",
		}),
		QuoteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "insidebar_quote_errors_total",
			Help: "Entry premium fetch failures",
		}),
		TradesClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "insidebar_trades_closed_total",
			Help: "Closed trades (by exit reason)",
		}, []string{"exit_reason"}),
		OpenPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "insidebar_open_positions",
			Help: "Currently open positions",
		}),
		EquityPaise: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "insidebar_equity_paise",
			Help: "Current equity in paise",
		}),
	}

	prometheus.MustRegister(
		m.ScanCycles, m.ScanErrors, m.ScanDuration, m.SignalsTotal,
		m.OrdersPlaced, m.OrdersRejected, m.QuoteErrors, m.TradesClosed,
		m.OpenPositions, m.EquityPaise,
	)
	return m
}

// Serve starts the /metrics HTTP endpoint. Blocks; run in a goroutine.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	log.Printf("[metrics] serving on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("[metrics] server error: %v", err)
	}
}
