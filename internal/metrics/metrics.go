// Package metrics はPrometheusメトリクスを提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "inventory_envelope"

// Metrics はアプリケーションのメトリクスを保持する。
type Metrics struct {
	registry *prometheus.Registry

	envelopeOperations  *prometheus.CounterVec
	settingsFallbacks   *prometheus.CounterVec
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New はregistryにメトリクスを登録する。registryがnilの場合は新しく作成する。
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		envelopeOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "envelope_operations_total",
				Help:      "Total number of envelope encrypt/decrypt operations",
			},
			[]string{"operation", "result"},
		),
		settingsFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "settings_fallbacks_total",
				Help:      "Settings reads that fell back to the default value",
			},
			[]string{"field"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// RecordEnvelopeOperation はエンベロープ操作の結果を記録する。
func (m *Metrics) RecordEnvelopeOperation(operation, result string) {
	m.envelopeOperations.WithLabelValues(operation, result).Inc()
}

// RecordSettingsFallback は既定値へのフォールバックを記録する。
func (m *Metrics) RecordSettingsFallback(field string) {
	m.settingsFallbacks.WithLabelValues(field).Inc()
}

// RecordHTTPRequest はHTTPリクエストを記録する。routeはchiのルートパターン。
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler は/metrics用のハンドラを返す。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
