// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the aggregate queries behind the admin
// dashboard: user head-counts per role and donation counts per lifecycle
// status. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/foodshare/go-donation-backend/internal/domain"
)

// DashboardStats is the aggregate snapshot rendered on the admin dashboard.
type DashboardStats struct {
	Admins int64 `json:"admins"`
	Donors int64 `json:"donors"`
	Agents int64 `json:"agents"`

	Pending   int64 `json:"pending_donations"`
	Accepted  int64 `json:"accepted_donations"`
	Assigned  int64 `json:"assigned_donations"`
	Collected int64 `json:"collected_donations"`
	Rejected  int64 `json:"rejected_donations"`
}

// CollectDashboardStats counts users per role and donations per status.
// The queries run sequentially against small indexed columns; when any of
// them fails, the error is returned and the partial snapshot discarded.
func CollectDashboardStats(ctx context.Context, db *gorm.DB) (*DashboardStats, error) {
	var s DashboardStats
	roleCounts := []struct {
		role string
		dst  *int64
	}{
		{domain.RoleAdmin, &s.Admins},
		{domain.RoleDonor, &s.Donors},
		{domain.RoleAgent, &s.Agents},
	}
	for _, rc := range roleCounts {
		n, err := CountUsersByRole(ctx, db, rc.role)
		if err != nil {
			return nil, err
		}
		*rc.dst = n
	}

	statusCounts := []struct {
		status string
		dst    *int64
	}{
		{domain.StatusPending, &s.Pending},
		{domain.StatusAccepted, &s.Accepted},
		{domain.StatusAssigned, &s.Assigned},
		{domain.StatusCollected, &s.Collected},
		{domain.StatusRejected, &s.Rejected},
	}
	for _, sc := range statusCounts {
		var n int64
		if err := db.WithContext(ctx).
			Model(&domain.Donation{}).
			Where("status = ?", sc.status).
			Count(&n).Error; err != nil {
			return nil, err
		}
		*sc.dst = n
	}
	return &s, nil
}
