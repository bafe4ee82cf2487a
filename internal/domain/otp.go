// Package domain defines the core persistence models for the application.
// These types are used by GORM for database schema mapping and are shared
// across the repository and service layers.
package domain

import "time"

// OTPCode records a one-time passcode issued during signup verification,
// keyed by email. Expired rows are treated as absent by the repository;
// a row is removed once the code has been verified or superseded.
type OTPCode struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Email     string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_otp_email"`
	Code      string    `gorm:"type:TEXT NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (OTPCode) TableName() string { return "otp_codes" }
