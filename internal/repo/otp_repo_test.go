package repo

import (
	"context"
	"testing"
	"time"

	"github.com/foodshare/go-donation-backend/internal/domain"
)

func TestPutOTP_ReplacesPreviousCode(t *testing.T) {
	db := newRepoDB(t, &domain.OTPCode{})
	ctx := context.Background()

	first, err := PutOTP(ctx, db, "ada@example.com", "111111", time.Minute)
	if err != nil {
		t.Fatalf("PutOTP: %v", err)
	}
	if first.Email != "ada@example.com" || first.Code != "111111" {
		t.Fatalf("unexpected record: %+v", first)
	}
	if !first.ExpiresAt.After(first.CreatedAt) {
		t.Fatalf("ExpiresAt %v not after CreatedAt %v", first.ExpiresAt, first.CreatedAt)
	}

	second, err := PutOTP(ctx, db, "ada@example.com", "222222", time.Minute)
	if err != nil {
		t.Fatalf("PutOTP(replace): %v", err)
	}

	got, err := GetOTP(ctx, db, "ada@example.com", time.Now().UTC())
	if err != nil {
		t.Fatalf("GetOTP: %v", err)
	}
	if got.Code != "222222" || got.ID != second.ID {
		t.Fatalf("got %+v, want the replacement code", got)
	}

	var count int64
	db.Model(&domain.OTPCode{}).Where("email = ?", "ada@example.com").Count(&count)
	if count != 1 {
		t.Fatalf("rows for email = %d, want exactly 1", count)
	}
}

func TestGetOTP_ExpiryAndBlankEmail(t *testing.T) {
	db := newRepoDB(t, &domain.OTPCode{})
	ctx := context.Background()

	if _, err := PutOTP(ctx, db, "ada@example.com", "123456", 5*time.Minute); err != nil {
		t.Fatalf("PutOTP: %v", err)
	}

	now := time.Now().UTC()
	if _, err := GetOTP(ctx, db, "ada@example.com", now); err != nil {
		t.Fatalf("GetOTP(fresh): %v", err)
	}
	if _, err := GetOTP(ctx, db, "ada@example.com", now.Add(10*time.Minute)); err != ErrNotFound {
		t.Fatalf("expired err = %v, want ErrNotFound", err)
	}
	if _, err := GetOTP(ctx, db, "other@example.com", now); err != ErrNotFound {
		t.Fatalf("unknown email err = %v, want ErrNotFound", err)
	}
	if _, err := GetOTP(ctx, db, "   ", now); err != ErrNotFound {
		t.Fatalf("blank email err = %v, want ErrNotFound", err)
	}
}

func TestRemoveOTP(t *testing.T) {
	db := newRepoDB(t, &domain.OTPCode{})
	ctx := context.Background()

	if _, err := PutOTP(ctx, db, "ada@example.com", "123456", time.Minute); err != nil {
		t.Fatalf("PutOTP: %v", err)
	}
	if err := RemoveOTP(ctx, db, "ada@example.com"); err != nil {
		t.Fatalf("RemoveOTP: %v", err)
	}
	if _, err := GetOTP(ctx, db, "ada@example.com", time.Now().UTC()); err != ErrNotFound {
		t.Fatalf("err after remove = %v, want ErrNotFound", err)
	}

	// Removing an absent key is a no-op.
	if err := RemoveOTP(ctx, db, "nobody@example.com"); err != nil {
		t.Fatalf("RemoveOTP(absent): %v", err)
	}
}

func TestPurgeExpiredOTP(t *testing.T) {
	db := newRepoDB(t, &domain.OTPCode{})
	ctx := context.Background()

	if _, err := PutOTP(ctx, db, "old@example.com", "111111", time.Minute); err != nil {
		t.Fatalf("PutOTP: %v", err)
	}
	if _, err := PutOTP(ctx, db, "fresh@example.com", "222222", time.Hour); err != nil {
		t.Fatalf("PutOTP: %v", err)
	}

	removed, err := PurgeExpiredOTP(ctx, db, time.Now().UTC().Add(30*time.Minute))
	if err != nil {
		t.Fatalf("PurgeExpiredOTP: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := GetOTP(ctx, db, "fresh@example.com", time.Now().UTC()); err != nil {
		t.Fatalf("fresh code purged: %v", err)
	}
}
