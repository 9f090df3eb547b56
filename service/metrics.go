package service

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 是排序服务的核心指标集。
//
// 约定：
//   - rank_requests_total 按 status（success/client_error/unavailable/error）计数
//   - model_version_info 是 one-hot 版本标记：当前版本为 1，其余归 0，
//     方便在监控面板上直接看到"现在跑的是哪个版本"
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration prometheus.Histogram
	ModelVersion    *prometheus.GaugeVec
	ActiveRequests  prometheus.Gauge

	mu          sync.Mutex
	lastVersion string
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rank_requests_total",
			Help: "Total rank requests by outcome status.",
		}, []string{"status"}),
		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rank_request_duration_seconds",
			Help:    "Rank request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		ModelVersion: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "model_version_info",
			Help: "Currently served model version (1 for active).",
		}, []string{"version"}),
		ActiveRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rank_active_requests",
			Help: "Number of rank requests currently in flight.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.ModelVersion, m.ActiveRequests)
	}
	return m
}

// SetModelVersion 切换 one-hot 版本标记。
func (m *Metrics) SetModelVersion(version string) {
	if version == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastVersion == version {
		return
	}
	if m.lastVersion != "" {
		m.ModelVersion.WithLabelValues(m.lastVersion).Set(0)
	}
	m.ModelVersion.WithLabelValues(version).Set(1)
	m.lastVersion = version
}
