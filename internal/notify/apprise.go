// Package notify delivers notifications through an Apprise gateway.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	retry "github.com/appleboy/go-httpretry"
)

// Notification types understood by the gateway. Anything else falls back
// to TypeInfo.
const (
	TypeInfo    = "info"
	TypeSuccess = "success"
	TypeWarning = "warning"
	TypeFailure = "failure"
)

var (
	// ErrNoDestinations is returned when no usable destination URL remains
	// after filtering blanks.
	ErrNoDestinations = errors.New("no valid notification destinations")

	// ErrDeliveryFailed is returned when the gateway accepted the request
	// but reported the notification undelivered.
	ErrDeliveryFailed = errors.New("notification delivery failed")
)

// Notification is the payload sent to the gateway.
type Notification struct {
	URLs  []string `json:"urls"`
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Type  string   `json:"notifyType"`
}

type gatewayResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// AppriseNotifier posts notifications to an Apprise gateway endpoint.
type AppriseNotifier struct {
	endpoint string
	targets  []string
	client   *retry.Client
}

// NewAppriseNotifier creates a notifier for the given gateway endpoint and
// default target URLs.
func NewAppriseNotifier(endpoint string, targets []string, client *retry.Client) *AppriseNotifier {
	return &AppriseNotifier{
		endpoint: endpoint,
		targets:  targets,
		client:   client,
	}
}

// Send delivers one notification. Blank destination URLs are skipped; if
// none survive, the send fails without touching the gateway.
func (n *AppriseNotifier) Send(ctx context.Context, notification Notification) error {
	urls := notification.URLs
	if len(urls) == 0 {
		urls = n.targets
	}

	valid := make([]string, 0, len(urls))
	for _, raw := range urls {
		if url := strings.TrimSpace(raw); url != "" {
			valid = append(valid, url)
		}
	}
	if len(valid) == 0 {
		return ErrNoDestinations
	}

	notification.URLs = valid
	notification.Type = normalizeType(notification.Type)

	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	resp, err := n.client.Post(
		ctx,
		n.endpoint,
		retry.WithBody("application/json", bytes.NewBuffer(payload)),
	)
	if err != nil {
		return fmt.Errorf("failed to reach notification gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrDeliveryFailed, resp.StatusCode)
	}

	var result gatewayResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("invalid gateway response: %w", err)
	}
	if !result.Success {
		if result.Error != "" {
			return fmt.Errorf("%w: %s", ErrDeliveryFailed, result.Error)
		}
		return ErrDeliveryFailed
	}

	return nil
}

// SendPasswordReset delivers a reset link to the account owner. Satisfies
// services.ResetNotifier.
func (n *AppriseNotifier) SendPasswordReset(ctx context.Context, email, link string) error {
	return n.Send(ctx, Notification{
		Title: "Password reset requested",
		Body:  fmt.Sprintf("A password reset was requested for %s.\n\nReset link: %s\n\nThe link works once and expires shortly.", email, link),
		Type:  TypeInfo,
	})
}

func normalizeType(t string) string {
	switch strings.ToLower(t) {
	case TypeInfo, TypeSuccess, TypeWarning, TypeFailure:
		return strings.ToLower(t)
	default:
		return TypeInfo
	}
}
