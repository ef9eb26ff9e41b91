package metrics

import "time"

// Recorder defines the interface for recording application metrics.
// Implementations include Metrics (Prometheus-based) and NoopMetrics (no-op).
type Recorder interface {
	// Device Flow
	RecordDeviceCodeIssued(success bool)
	RecordDeviceAuthorization(result string)
	RecordDevicePoll(result string)

	// Token Operations
	RecordTokenIssued(tokenType string, generationTime time.Duration)

	// Single-Use Tokens
	RecordSingleUseIssued(kind string)
	RecordSingleUseRedemption(kind string, success bool)

	// Cache Operations
	RecordCacheError(operation string)
}
