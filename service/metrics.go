package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the updater's Prometheus collectors.
type Metrics struct {
	// Registry is the registry all collectors are registered with.
	Registry *prometheus.Registry

	cycles           *prometheus.CounterVec
	recordUpdates    *prometheus.CounterVec
	interfaceSwitch  prometheus.Counter
	lastUpdateSecond prometheus.Gauge
}

// NewMetrics creates the collectors on a fresh registry,
// together with the Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		cycles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aliddns_cycles_total",
				Help: "Total number of update cycles by result",
			},
			[]string{"result"}, // "ok", "error"
		),
		recordUpdates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aliddns_record_updates_total",
				Help: "Total number of DNS record update requests by record type and result",
			},
			[]string{"type", "result"},
		),
		interfaceSwitch: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "aliddns_interface_switches_total",
				Help: "Total number of times the selected interface changed",
			},
		),
		lastUpdateSecond: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "aliddns_last_update_timestamp_seconds",
				Help: "Unix time of the last successful record update",
			},
		),
	}
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
