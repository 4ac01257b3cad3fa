package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

type storeMetrics struct {
	writes        *prometheus.CounterVec
	readFallbacks *prometheus.CounterVec
}

// newStoreMetrics creates the store counters and registers them with reg when it is not nil
func newStoreMetrics(reg prometheus.Registerer) *storeMetrics {
	m := &storeMetrics{
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "koi_store_writes_total",
			Help: "Collection writes by collection and result.",
		}, []string{"collection", "result"}),
		readFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "koi_store_read_fallbacks_total",
			Help: "Reads that fell back to the collection default after a storage or parse failure.",
		}, []string{"collection"}),
	}
	if reg != nil {
		reg.MustRegister(m.writes, m.readFallbacks)
	}
	return m
}
