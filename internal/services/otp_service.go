// Package services – OTPService
//
// This file implements OTPService, the signup verification flow: issue a
// six-digit code to an email address (delivered through the notification
// dispatcher), verify it, and expire it. The store is an injected keyed TTL
// cache backed by the otp_codes table; expired entries are treated as
// absent, and a verified code is consumed immediately.
package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/foodshare/go-donation-backend/internal/notify"
	"github.com/foodshare/go-donation-backend/internal/repo"
)

// OTPStore is the keyed TTL cache contract: put, get (expiry = absence),
// and remove. The default implementation is the otp_codes repository.
type OTPStore interface {
	Put(ctx context.Context, db *gorm.DB, email, code string, ttl time.Duration) error
	Get(ctx context.Context, db *gorm.DB, email string, now time.Time) (code string, err error)
	Remove(ctx context.Context, db *gorm.DB, email string) error
}

// repoOTPStore adapts the repo free functions to OTPStore.
type repoOTPStore struct{}

func (repoOTPStore) Put(ctx context.Context, db *gorm.DB, email, code string, ttl time.Duration) error {
	_, err := repo.PutOTP(ctx, db, email, code, ttl)
	return err
}

func (repoOTPStore) Get(ctx context.Context, db *gorm.DB, email string, now time.Time) (string, error) {
	rec, err := repo.GetOTP(ctx, db, email, now)
	if err != nil {
		return "", err
	}
	return rec.Code, nil
}

func (repoOTPStore) Remove(ctx context.Context, db *gorm.DB, email string) error {
	return repo.RemoveOTP(ctx, db, email)
}

// OTPService issues and verifies one-time signup codes.
type OTPService struct {
	DB    *gorm.DB
	Store OTPStore
	// Notifier delivers the code to the address; issuing fails when
	// delivery fails, matching the original flow (an undeliverable code is
	// useless).
	Notifier Notifier
	// TTL is the code lifetime; <= 0 defaults to 5 minutes.
	TTL time.Duration
	// Now is a clock seam for tests; nil uses time.Now.
	Now func() time.Time
}

// NewOTPService constructs an OTPService on the repository-backed store.
func NewOTPService(db *gorm.DB, n Notifier) *OTPService {
	return &OTPService{
		DB:       db,
		Store:    repoOTPStore{},
		Notifier: n,
		TTL:      5 * time.Minute,
	}
}

func (s *OTPService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *OTPService) ttl() time.Duration {
	if s.TTL <= 0 {
		return 5 * time.Minute
	}
	return s.TTL
}

// Issue generates a fresh six-digit code for email, stores it with the
// configured TTL, and mails it. A reissue replaces any previous code.
func (s *OTPService) Issue(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ErrUserNotFound
	}

	code, err := generateOTPCode()
	if err != nil {
		return err
	}
	if err := s.Store.Put(ctx, s.DB, email, code, s.ttl()); err != nil {
		return err
	}

	if s.Notifier != nil {
		req := notify.Request{
			Name:    "User",
			Email:   email,
			Message: fmt.Sprintf("Your FoodShare verification code is %s. It expires in %d minutes.", code, int(s.ttl().Minutes())),
		}
		if err := s.Notifier.Send(ctx, req); err != nil {
			// An undelivered code cannot be entered; drop it so a retry
			// issues a clean one.
			_ = s.Store.Remove(ctx, s.DB, email)
			return err
		}
	}
	return nil
}

// Verify checks code against the stored one for email and consumes it on
// success. Absent or expired codes yield ErrOTPExpired; a present but
// different code yields ErrOTPMismatch and is kept for further attempts
// within its TTL.
func (s *OTPService) Verify(ctx context.Context, email, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	stored, err := s.Store.Get(ctx, s.DB, email, s.now())
	if err != nil {
		return ErrOTPExpired
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(strings.TrimSpace(code))) != 1 {
		return ErrOTPMismatch
	}
	return s.Store.Remove(ctx, s.DB, email)
}

// generateOTPCode returns a uniformly random six-digit code ("000000" to
// "999999") from crypto/rand.
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
