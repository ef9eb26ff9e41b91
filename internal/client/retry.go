// Package client builds the outbound HTTP clients used to reach external
// collaborators, currently only the notification gateway.
package client

import (
	"fmt"
	"time"

	httpclient "github.com/appleboy/go-httpclient"
	retry "github.com/appleboy/go-httpretry"
)

// NotifyClientOptions tunes the outbound notification client.
type NotifyClientOptions struct {
	AuthMode      string // "none", "simple" or "hmac"
	AuthSecret    string
	Timeout       time.Duration
	MaxRetries    int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

func (o NotifyClientOptions) withDefaults() NotifyClientOptions {
	if o.AuthMode == "" {
		o.AuthMode = "none"
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 500 * time.Millisecond
	}
	if o.MaxRetryDelay <= 0 {
		o.MaxRetryDelay = 5 * time.Second
	}
	return o
}

// NewNotifyClient creates the HTTP client used to deliver notifications.
// Transient gateway failures are retried with exponential backoff; the
// caller only sees an error once the retries are exhausted.
func NewNotifyClient(opts NotifyClientOptions) (*retry.Client, error) {
	opts = opts.withDefaults()

	httpClient, err := httpclient.NewAuthClient(
		opts.AuthMode,
		opts.AuthSecret,
		httpclient.WithTimeout(opts.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth client: %w", err)
	}

	retryClient, err := retry.NewRealtimeClient(
		retry.WithHTTPClient(httpClient),
		retry.WithMaxRetries(opts.MaxRetries),
		retry.WithInitialRetryDelay(opts.RetryDelay),
		retry.WithMaxRetryDelay(opts.MaxRetryDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retry client: %w", err)
	}

	return retryClient, nil
}
