// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ik5/pcmdl/arbiter"
)

// Metrics are the playback path counters. A nil *Metrics records nothing.
type Metrics struct {
	copiedBytes    prometheus.Counter
	producerFaults prometheus.Counter
	underruns      prometheus.Counter
	timestamps     *prometheus.CounterVec // by result
	poolGrants     *prometheus.CounterVec // by pool
	activeStreams  prometheus.Gauge
}

// NewMetrics creates and registers the metrics on reg. A nil reg disables
// metrics and returns nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &Metrics{
		copiedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pcmdl",
			Subsystem: "playback",
			Name:      "copied_bytes_total",
			Help:      "Bytes accepted into the playback ring",
		}),
		producerFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pcmdl",
			Subsystem: "playback",
			Name:      "producer_faults_total",
			Help:      "Copies where producer memory could not be read and silence was written",
		}),
		underruns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pcmdl",
			Subsystem: "playback",
			Name:      "underruns_total",
			Help:      "Observations where the hardware read past the written data",
		}),
		timestamps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pcmdl",
			Subsystem: "playback",
			Name:      "timestamp_queries_total",
			Help:      "Timestamp queries by result",
		}, []string{"result"}),
		poolGrants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pcmdl",
			Subsystem: "playback",
			Name:      "pool_grants_total",
			Help:      "Buffer pool grants by pool",
		}, []string{"pool"}),
		activeStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pcmdl",
			Subsystem: "playback",
			Name:      "active_streams",
			Help:      "Streams currently open",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.copiedBytes, m.producerFaults, m.underruns,
		m.timestamps, m.poolGrants, m.activeStreams,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) copied(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.copiedBytes.Add(float64(n))
}

func (m *Metrics) fault() {
	if m == nil {
		return
	}
	m.producerFaults.Inc()
}

func (m *Metrics) underrun() {
	if m == nil {
		return
	}
	m.underruns.Inc()
}

func (m *Metrics) timestamp(result string) {
	if m == nil {
		return
	}
	m.timestamps.WithLabelValues(result).Inc()
}

func (m *Metrics) granted(p arbiter.Pool) {
	if m == nil {
		return
	}
	m.poolGrants.WithLabelValues(p.String()).Inc()
	m.activeStreams.Inc()
}

func (m *Metrics) released() {
	if m == nil {
		return
	}
	m.activeStreams.Dec()
}
