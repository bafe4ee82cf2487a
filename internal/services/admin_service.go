// Package services – AdminService
//
// Thin read-side service for the back-office views. It carries no state
// machine of its own; everything it serves is an aggregate or listing over
// the repositories.
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/foodshare/go-donation-backend/internal/domain"
	"github.com/foodshare/go-donation-backend/internal/repo"
)

// AdminService serves the admin dashboard and directory listings.
type AdminService struct {
	DB *gorm.DB
}

// Dashboard aggregates per-role user counts and per-status donation counts.
func (s *AdminService) Dashboard(ctx context.Context) (*repo.DashboardStats, error) {
	return repo.CollectDashboardStats(ctx, s.DB)
}

// Agents lists all agent-role users, most recent first.
func (s *AdminService) Agents(ctx context.Context) ([]domain.User, error) {
	return repo.FindUsersByRole(ctx, s.DB, domain.RoleAgent)
}
