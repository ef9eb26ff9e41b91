package metrics

import "time"

// NoopMetrics is a no-operation implementation of Recorder
// All methods are empty and do nothing, providing zero overhead when metrics are disabled
type NoopMetrics struct{}

// Ensure NoopMetrics implements Recorder interface at compile time
var _ Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() Recorder {
	return &NoopMetrics{}
}

// Device Flow - noop implementations
func (n *NoopMetrics) RecordDeviceCodeIssued(success bool)      {}
func (n *NoopMetrics) RecordDeviceAuthorization(result string)  {}
func (n *NoopMetrics) RecordDevicePoll(result string)           {}

// Token Operations - noop implementations
func (n *NoopMetrics) RecordTokenIssued(tokenType string, generationTime time.Duration) {}

// Single-Use Tokens - noop implementations
func (n *NoopMetrics) RecordSingleUseIssued(kind string)                  {}
func (n *NoopMetrics) RecordSingleUseRedemption(kind string, success bool) {}

// Cache Operations - noop implementations
func (n *NoopMetrics) RecordCacheError(operation string) {}
