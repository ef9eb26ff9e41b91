package models

import (
	"time"
)

// Client is a registered device-flow client, e.g. a TV app or CLI build.
type Client struct {
	ClientID         string `gorm:"primaryKey"`
	ClientName       string `gorm:"not null"`
	ClientSecretHash string // PBKDF2 hash, empty for public clients
	ClientSecretSalt string
	IsActive         bool `gorm:"not null;default:true"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName overrides the table name used by Client to `client`
func (Client) TableName() string {
	return "client"
}
