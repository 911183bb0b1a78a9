// Package metrics counts the ids a plan compilation mints.
//
// Collectors live on a per-Metrics registry rather than the global
// default, so independent managers in one process never share counters.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/idmgr/internal/ir"
)

const namespace = "idmgr"

// Metrics holds the collectors for one Manager. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	taskIDs      *prometheus.CounterVec
	threadAllocs *prometheus.CounterVec
	regstDescIDs prometheus.Counter
	machines     prometheus.Gauge
	errorsByCode *prometheus.CounterVec
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		taskIDs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "task_ids_minted_total",
				Help:      "Number of task ids minted, partitioned by device type of the thread",
			},
			[]string{"device_type"}),
		threadAllocs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "thread_allocations_total",
				Help:      "Number of pool thread allocations, partitioned by pool",
			},
			[]string{"pool"}),
		regstDescIDs: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "regst_desc_ids_minted_total",
				Help:      "Number of register descriptor ids minted",
			}),
		machines: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "machines",
				Help:      "Number of registered machines",
			}),
		errorsByCode: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Number of failed operations, partitioned by error code",
			},
			[]string{"code"}),
	}
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// TaskMinted records one task id placed on a thread of device type d.
func (m *Metrics) TaskMinted(d ir.DeviceType) {
	if m == nil {
		return
	}
	m.taskIDs.WithLabelValues(d.String()).Inc()
}

// ThreadAllocated records one allocation from pool ("persistence" or "boxing").
func (m *Metrics) ThreadAllocated(pool string) {
	if m == nil {
		return
	}
	m.threadAllocs.WithLabelValues(pool).Inc()
}

// RegstDescMinted records one register descriptor id.
func (m *Metrics) RegstDescMinted() {
	if m == nil {
		return
	}
	m.regstDescIDs.Inc()
}

// SetMachines records the registry size.
func (m *Metrics) SetMachines(n int) {
	if m == nil {
		return
	}
	m.machines.Set(float64(n))
}

// Failed records a failed operation by its error code.
func (m *Metrics) Failed(err error) {
	if m == nil || err == nil {
		return
	}
	code := ir.CodeOf(err)
	if code == "" {
		code = "UNKNOWN"
	}
	m.errorsByCode.WithLabelValues(string(code)).Inc()
}

// WriteTextfile writes every metric in the Prometheus text format, for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return fmt.Errorf("metrics are disabled")
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
