// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Donation
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. The lifecycle rules themselves live in
// services.DonationService.
//
// Error semantics:
//   - When a donation is not found, functions return ErrNotFound
//     (an alias of gorm.ErrRecordNotFound).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodshare/go-donation-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// StatusPatch carries the column updates applied by a lifecycle transition.
// Nil pointer fields are left untouched.
type StatusPatch struct {
	Status    string
	AgentID   *string
	AgentNote *string
}

// CreateDonation inserts a new pending Donation owned by donorID.
// The donation ID is a randomly generated UUID, and CreatedAt is set to UTC.
func CreateDonation(ctx context.Context, db *gorm.DB, donorID, foodType, quantity, description string, amount *float64) (*domain.Donation, error) {
	d := &domain.Donation{
		ID:          uuid.NewString(),
		DonorID:     donorID,
		FoodType:    foodType,
		Quantity:    quantity,
		Amount:      amount,
		Description: description,
		Status:      domain.StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(d).Error; err != nil {
		return nil, err
	}
	return d, nil
}

// GetDonation fetches a single donation by ID, or ErrNotFound if missing.
func GetDonation(ctx context.Context, db *gorm.DB, id string) (*domain.Donation, error) {
	var d domain.Donation
	if err := db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateDonationStatus applies a lifecycle patch to a donation, guarded by
// the expected source status. The WHERE clause on fromStatus makes the write
// atomic with respect to concurrent transitions: if another writer moved the
// record first, zero rows are affected and ErrNotFound is returned so the
// service can re-read and report the conflict.
func UpdateDonationStatus(ctx context.Context, db *gorm.DB, id, fromStatus string, patch StatusPatch) error {
	updates := map[string]any{"status": patch.Status}
	if patch.AgentID != nil {
		updates["agent_id"] = *patch.AgentID
	}
	if patch.AgentNote != nil {
		updates["agent_note"] = *patch.AgentNote
	}
	res := db.WithContext(ctx).
		Model(&domain.Donation{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RejectDonation is a convenience guard-free variant used for the reject
// action, which is legal from more than one source status. The caller has
// already validated the source state; the IN clause keeps the write atomic.
func RejectDonation(ctx context.Context, db *gorm.DB, id string, fromStatuses []string) error {
	res := db.WithContext(ctx).
		Model(&domain.Donation{}).
		Where("id = ? AND status IN ?", id, fromStatuses).
		Update("status", domain.StatusRejected)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDonationsByStatus returns donations in any of the given statuses,
// most recent first. An empty status list returns all donations.
func ListDonationsByStatus(ctx context.Context, db *gorm.DB, statuses []string) ([]domain.Donation, error) {
	q := db.WithContext(ctx).Order("created_at desc")
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var out []domain.Donation
	err := q.Find(&out).Error
	return out, err
}

// CountDonations returns the number of donations matching the status filter.
func CountDonations(ctx context.Context, db *gorm.DB, statuses []string, donorID, agentID string) (int64, error) {
	q := donationFilter(db.WithContext(ctx).Model(&domain.Donation{}), statuses, donorID, agentID)
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// ListDonationsPage returns a paginated slice of donations matching the
// filter, ordered by creation time descending. donorID and agentID scope the
// listing when non-empty (used to restrict donors and agents to their own
// records).
func ListDonationsPage(ctx context.Context, db *gorm.DB, statuses []string, donorID, agentID string, offset, limit int) ([]domain.Donation, error) {
	q := donationFilter(db.WithContext(ctx), statuses, donorID, agentID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit)
	var out []domain.Donation
	err := q.Find(&out).Error
	return out, err
}

func donationFilter(q *gorm.DB, statuses []string, donorID, agentID string) *gorm.DB {
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	if donorID != "" {
		q = q.Where("donor_id = ?", donorID)
	}
	if agentID != "" {
		q = q.Where("agent_id = ?", agentID)
	}
	return q
}
