package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
)

var _ prometheus.Collector = (*Collector)(nil)

// Collector reports registry state to Prometheus at scrape time.
type Collector struct {
	registry    Registry
	buses       *prometheus.Desc
	subscribers *prometheus.Desc
}

// NewCollector creates a collector for r.
// namespace defaults to "msgbus".
func NewCollector(r Registry, namespace ...string) *Collector {
	ns := "msgbus"
	if len(namespace) > 0 && namespace[0] != "" {
		ns = namespace[0]
	}
	labels := prometheus.Labels{"registry": r.Name()}
	return &Collector{
		registry: r,
		buses: prometheus.NewDesc(
			prometheus.BuildFQName(ns, "", "buses"),
			"Number of message buses in the registry",
			nil, labels),
		subscribers: prometheus.NewDesc(
			prometheus.BuildFQName(ns, "", "subscribers"),
			"Current subscriptions per message type",
			[]string{"message_type"}, labels),
	}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.buses
	ch <- c.subscribers
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	infos := c.registry.Buses()
	ch <- prometheus.MustNewConstMetric(c.buses, prometheus.GaugeValue, float64(len(infos)))
	for _, b := range infos {
		ch <- prometheus.MustNewConstMetric(c.subscribers, prometheus.GaugeValue,
			float64(b.Subscribers), b.Name)
	}
}

// Register registers collectors with r, or the default registerer when r is nil.
// All collectors are attempted; failures are combined.
func Register(r prometheus.Registerer, collectors ...*Collector) error {
	var mErr error
	if r == nil {
		r = prometheus.DefaultRegisterer
	}
	for _, c := range collectors {
		if err := r.Register(c); err != nil {
			mErr = multierr.Append(mErr, err)
		}
	}
	return mErr
}
