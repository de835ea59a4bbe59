package metrics

import (
	"strconv"

	"github.com/abdul-hamid-achik/rpcpin/packages/pinning"
	"github.com/abdul-hamid-achik/rpcpin/packages/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rpcpin"

// outcomeSuccess labels dispatches that finished without an error kind.
const outcomeSuccess = "success"

// Collector provides Prometheus metrics for dispatches and TLS trust
// decisions. It is safe for concurrent use.
type Collector struct {
	dispatchesTotal  *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
	handshakesTotal  *prometheus.CounterVec
}

var (
	_ rpc.Observer     = (*Collector)(nil)
	_ pinning.Observer = (*Collector)(nil)
)

// NewCollector creates a collector on the default registerer.
func NewCollector() *Collector {
	return NewCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewCollectorWithRegistry creates a collector using the supplied registerer.
func NewCollectorWithRegistry(registry prometheus.Registerer) *Collector {
	return &Collector{
		dispatchesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatches_total",
				Help:      "Total number of finished dispatches",
			},
			[]string{"style", "method", "status_code", "outcome"},
		),
		dispatchDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dispatch_duration_seconds",
				Help:      "Time from dispatch to terminal event in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"style", "method"},
		),
		handshakesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pinning_handshakes_total",
				Help:      "Total number of TLS trust challenges evaluated against pins",
			},
			[]string{"granularity", "strategy", "decision"},
		),
	}
}

func (c *Collector) ObserveDispatch(e rpc.Event) {
	outcome := outcomeSuccess
	if e.Kind != "" {
		outcome = string(e.Kind)
	}
	style, method := string(e.Style), string(e.Method)

	c.dispatchesTotal.WithLabelValues(style, method, strconv.Itoa(e.StatusCode), outcome).Inc()
	c.dispatchDuration.WithLabelValues(style, method).Observe(e.Duration.Seconds())
}

func (c *Collector) ObserveHandshake(g pinning.Granularity, s pinning.Strategy, d pinning.Decision) {
	c.handshakesTotal.WithLabelValues(g.String(), s.String(), d.String()).Inc()
}
