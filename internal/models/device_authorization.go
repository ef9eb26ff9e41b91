package models

import (
	"time"
)

// DeviceAuthorization is the cache record behind one device flow. It lives
// under the dc: namespace keyed by device code; a uc: entry maps the user
// code back to it while the flow is still pending.
type DeviceAuthorization struct {
	DeviceCode  string    `json:"device_code"`
	UserCode    string    `json:"user_code"`
	ClientID    string    `json:"client_id"`
	Status      Status    `json:"status"`
	PrincipalID string    `json:"principal_id,omitempty"` // filled on authorization
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ExpiredAt reports whether the authorization is past its deadline at the
// given instant. Checked on every read; cache TTL alone is not trusted.
func (d *DeviceAuthorization) ExpiredAt(now time.Time) bool {
	return now.After(d.ExpiresAt)
}

// RemainingTTL returns how long the record should still live in the cache.
// Zero or negative means it is already expired.
func (d *DeviceAuthorization) RemainingTTL(now time.Time) time.Duration {
	return d.ExpiresAt.Sub(now)
}
