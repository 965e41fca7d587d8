package usecase

import (
	"github.com/nguyentranbao-ct/storefront/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	opAdd        = "add"
	opRemoveOne  = "remove_one"
	opDeleteLine = "delete_line"
	opClear      = "clear"
)

type cartMetrics struct {
	mutations    *prometheus.CounterVec
	sessionsOpen prometheus.Gauge
}

func newCartMetrics() (*cartMetrics, error) {
	mutations, err := util.GetCounterVec("cart_mutations_total", "Number of cart operations by kind.", "op")
	if err != nil {
		return nil, err
	}
	sessionsOpen, err := util.GetGauge("cart_sessions_open", "Number of carts held in memory.")
	if err != nil {
		return nil, err
	}
	return &cartMetrics{mutations: mutations, sessionsOpen: sessionsOpen}, nil
}

func (m *cartMetrics) mutation(op string) {
	m.mutations.WithLabelValues(op).Inc()
}

func (m *cartMetrics) setSessions(n int) {
	m.sessionsOpen.Set(float64(n))
}
