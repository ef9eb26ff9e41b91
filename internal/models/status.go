package models

import (
	"encoding/json"
	"fmt"
)

// Status is the lifecycle state of a device authorization. It is a closed
// enum rather than a free-form string so that an unknown state is a decode
// error, not a silently-pending record.
type Status uint8

const (
	StatusPending Status = iota
	StatusAuthorized
	StatusDenied
	StatusExpired
	StatusConsumed
)

var statusNames = map[Status]string{
	StatusPending:    "pending",
	StatusAuthorized: "authorized",
	StatusDenied:     "denied",
	StatusExpired:    "expired",
	StatusConsumed:   "consumed",
}

// ParseStatus converts a stored name back to a Status.
func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return StatusPending, fmt.Errorf("unknown authorization status %q", name)
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Terminal reports whether no further transitions are allowed from s.
// Pending is the only non-terminal state.
func (s Status) Terminal() bool {
	return s != StatusPending
}

// MarshalJSON encodes the status by name so cache records stay readable
// and stable across releases.
func (s Status) MarshalJSON() ([]byte, error) {
	name, ok := statusNames[s]
	if !ok {
		return nil, fmt.Errorf("cannot encode unknown authorization status %d", uint8(s))
	}
	return json.Marshal(name)
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
