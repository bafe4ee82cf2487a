// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the OTPCode
// model: a keyed, TTL-expiring store used during signup verification.
// Expiry is treated as absence; GetOTP never returns an expired row.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodshare/go-donation-backend/internal/domain"
)

// PutOTP stores a code for email with the given TTL, replacing any previous
// code for the same address. The delete-then-insert runs in one transaction
// so a reissued code can never coexist with a stale one.
func PutOTP(ctx context.Context, db *gorm.DB, email, code string, ttl time.Duration) (*domain.OTPCode, error) {
	now := time.Now().UTC()
	rec := &domain.OTPCode{
		ID:        uuid.NewString(),
		Email:     email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).Delete(&domain.OTPCode{}).Error; err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetOTP returns the non-expired code for email, or ErrNotFound. The caller
// supplies now so expiry is testable without a clock seam.
func GetOTP(ctx context.Context, db *gorm.DB, email string, now time.Time) (*domain.OTPCode, error) {
	if strings.TrimSpace(email) == "" {
		return nil, ErrNotFound
	}
	var rec domain.OTPCode
	err := db.WithContext(ctx).
		Where("email = ? AND expires_at > ?", email, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// RemoveOTP deletes any stored code for email. Removing an absent key is
// not an error.
func RemoveOTP(ctx context.Context, db *gorm.DB, email string) error {
	return db.WithContext(ctx).Where("email = ?", email).Delete(&domain.OTPCode{}).Error
}

// PurgeExpiredOTP deletes all codes that expired before now and returns the
// number of rows removed. Intended for periodic housekeeping.
func PurgeExpiredOTP(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.OTPCode{})
	return res.RowsAffected, res.Error
}
