package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics aggregates the gateway's Prometheus collectors.
type Metrics struct {
	Redemptions   *prometheus.CounterVec
	Distributions *prometheus.CounterVec
}

// NewMetrics registers the gateway collectors with the supplied registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Redemptions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mintgate",
			Name:      "redemptions_total",
			Help:      "Voucher redemption attempts by kind and outcome.",
		}, []string{"kind", "result"}),
		Distributions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mintgate",
			Name:      "distributions_total",
			Help:      "Pool settlement attempts by pool and outcome.",
		}, []string{"pool", "result"}),
	}
}

func (m *Metrics) observeRedemption(kind string, err error) {
	if m == nil {
		return
	}
	m.Redemptions.WithLabelValues(kind, outcomeLabel(err)).Inc()
}

func (m *Metrics) observeDistribution(pool string, err error) {
	if m == nil {
		return
	}
	m.Distributions.WithLabelValues(pool, outcomeLabel(err)).Inc()
}

func outcomeLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
