package infra

import (
	"context"

	"pdfcraft-gateway/middleware/quota/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusStatsStore expõe as decisões do gate como contador.
// A chave do chamador não vira label (cardinalidade).
type PrometheusStatsStore struct {
	decisions *prometheus.CounterVec
}

func NewPrometheusStatsStore(reg prometheus.Registerer) (*PrometheusStatsStore, error) {
	decisions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdfcraft_quota_decisions_total",
			Help: "Quota gate decisions by operation and result",
		},
		[]string{"operation", "result"},
	)
	if reg != nil {
		if err := reg.Register(decisions); err != nil {
			return nil, err
		}
	}
	return &PrometheusStatsStore{decisions: decisions}, nil
}

func (s *PrometheusStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	result := "denied"
	switch {
	case ev.Allowed && ev.Premium:
		result = "premium"
	case ev.Allowed:
		result = "allowed"
	}
	s.decisions.WithLabelValues(ev.Operation, result).Inc()
	return nil
}
