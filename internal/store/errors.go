package store

import "errors"

var (
	// ErrRecordNotFound wraps GORM's not found error for consistency
	ErrRecordNotFound = errors.New("record not found")

	// ErrEmailConflict is returned when an email address already exists
	ErrEmailConflict = errors.New("email already exists")
)
