// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
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

// ErrDuplicate indicates that a unique constraint (e.g. the users email
// index) rejected an insert.
var ErrDuplicate = errors.New("duplicate")

// CreateUser inserts a new user row. Email uniqueness violations are mapped
// to ErrDuplicate; other DB errors are propagated raw.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetUserByID fetches a user by primary key, or ErrNotFound if missing.
func GetUserByID(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail fetches a user by email, or ErrNotFound if missing.
func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// FindUsersByRole returns all users with the given role, ordered by name.
// It returns an empty slice when none exist.
func FindUsersByRole(ctx context.Context, db *gorm.DB, role string) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Where("role = ?", role).
		Order("first_name asc, last_name asc").
		Find(&out).Error
	return out, err
}

// CountUsersByRole returns the number of users with the given role.
func CountUsersByRole(ctx context.Context, db *gorm.DB, role string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("role = ?", role).
		Count(&total).Error
	return total, err
}

// UpdateUserProfile updates the mutable contact fields of a user. Role,
// email, and credentials are deliberately not updatable here. Returns
// ErrNotFound when no row matched.
func UpdateUserProfile(ctx context.Context, db *gorm.DB, id, firstName, lastName, phone, address string) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"first_name": firstName,
			"last_name":  lastName,
			"phone":      phone,
			"address":    address,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation detects unique-constraint failures across drivers.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}
