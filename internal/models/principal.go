package models

import (
	"time"
)

// Principal is an account that can approve device flows, download archives
// and reset its password.
type Principal struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	DisplayName  string
	PasswordHash string `gorm:"not null"`
	PasswordSalt string `gorm:"not null"`
	IsActive     bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName overrides the table name used by Principal to `principal`
func (Principal) TableName() string {
	return "principal"
}
