package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Device Flow Metrics
	DeviceCodesTotal         *prometheus.CounterVec
	DeviceAuthorizationTotal *prometheus.CounterVec
	DevicePollTotal          *prometheus.CounterVec

	// Token Metrics
	TokensIssuedTotal       *prometheus.CounterVec
	TokenGenerationDuration *prometheus.HistogramVec

	// Single-Use Token Metrics
	SingleUseIssuedTotal     *prometheus.CounterVec
	SingleUseRedemptionTotal *prometheus.CounterVec

	// HTTP Request Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Cache Metrics
	CacheErrorsTotal *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag
// If enabled=true, returns Prometheus-based Metrics
// If enabled=false, returns NoopMetrics (zero overhead)
// Uses sync.Once to ensure Prometheus metrics are only registered once
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	return &Metrics{
		DeviceCodesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "device_codes_total",
				Help: "Total number of device codes issued",
			},
			[]string{"result"}, // success, error
		),
		DeviceAuthorizationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "device_authorization_total",
				Help: "Total number of user decisions on device codes",
			},
			[]string{"result"}, // authorized, denied, invalid, expired
		),
		DevicePollTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "device_poll_total",
				Help: "Total number of device token poll attempts",
			},
			[]string{"result"}, // success, pending, slow_down, expired, denied, invalid_client
		),

		TokensIssuedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokens_issued_total",
				Help: "Total number of session tokens issued",
			},
			[]string{"token_type"}, // access, refresh
		),
		TokenGenerationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "token_generation_duration_seconds",
				Help:    "Time taken to generate session tokens",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"token_type"},
		),

		SingleUseIssuedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "single_use_tokens_issued_total",
				Help: "Total number of single-use tokens issued",
			},
			[]string{"kind"}, // download, reset
		),
		SingleUseRedemptionTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "single_use_token_redemptions_total",
				Help: "Total number of single-use token redemption attempts",
			},
			[]string{"kind", "result"},
		),

		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of in-flight HTTP requests",
			},
		),

		CacheErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_errors_total",
				Help: "Total number of cache operation errors",
			},
			[]string{"operation"},
		),
	}
}

const (
	resultSuccess = "success"
	resultError   = "error"
	resultFailure = "failure"
)

// RecordDeviceCodeIssued records device code issuance
func (m *Metrics) RecordDeviceCodeIssued(success bool) {
	result := resultSuccess
	if !success {
		result = resultError
	}
	m.DeviceCodesTotal.WithLabelValues(result).Inc()
}

// RecordDeviceAuthorization records a user decision on a pending device code
func (m *Metrics) RecordDeviceAuthorization(result string) {
	m.DeviceAuthorizationTotal.WithLabelValues(result).Inc()
}

// RecordDevicePoll records the outcome of one token poll
func (m *Metrics) RecordDevicePoll(result string) {
	m.DevicePollTotal.WithLabelValues(result).Inc()
}

// RecordTokenIssued records session token issuance
func (m *Metrics) RecordTokenIssued(tokenType string, generationTime time.Duration) {
	m.TokensIssuedTotal.WithLabelValues(tokenType).Inc()
	m.TokenGenerationDuration.WithLabelValues(tokenType).Observe(generationTime.Seconds())
}

// RecordSingleUseIssued records single-use token issuance
func (m *Metrics) RecordSingleUseIssued(kind string) {
	m.SingleUseIssuedTotal.WithLabelValues(kind).Inc()
}

// RecordSingleUseRedemption records a single-use token redemption attempt
func (m *Metrics) RecordSingleUseRedemption(kind string, success bool) {
	result := resultSuccess
	if !success {
		result = resultFailure
	}
	m.SingleUseRedemptionTotal.WithLabelValues(kind, result).Inc()
}

// RecordCacheError records a cache operation error
func (m *Metrics) RecordCacheError(operation string) {
	m.CacheErrorsTotal.WithLabelValues(operation).Inc()
}
