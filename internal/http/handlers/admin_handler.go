// Admin HTTP handlers.
//
//   - GET /admin/dashboard  per-role user counts and per-status donation counts
//   - GET /admin/agents     list agent users
//
// Both endpoints are gated to the admin role by the router.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/foodshare/go-donation-backend/internal/domain"
	"github.com/foodshare/go-donation-backend/internal/repo"
)

// AdminService defines the back-office read operations consumed by HTTP
// handlers.
type AdminService interface {
	// Dashboard aggregates per-role user counts and per-status donation counts.
	Dashboard(ctx context.Context) (*repo.DashboardStats, error)
	// Agents lists all agent-role users.
	Agents(ctx context.Context) ([]domain.User, error)
}

// AgentsResponse wraps the agent user list.
type AgentsResponse struct {
	Agents []domain.User `json:"agents"`
}

// Dashboard godoc
// @ID          adminDashboard
// @Summary     Back-office dashboard counts
// @Tags        Admin
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Admin user ID"
//
// @Success     200  {object}  repo.DashboardStats
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     403  {object}  handlers.ErrorResponse  "Admin only"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/dashboard [get]
func (h *Handlers) Dashboard(c *gin.Context) {
	stats, err := h.adminSvc.Dashboard(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, stats)
}

// ListAgents godoc
// @ID          listAgents
// @Summary     List agent users
// @Tags        Admin
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Admin user ID"
//
// @Success     200  {object}  handlers.AgentsResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     403  {object}  handlers.ErrorResponse  "Admin only"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/agents [get]
func (h *Handlers) ListAgents(c *gin.Context) {
	agents, err := h.adminSvc.Agents(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, AgentsResponse{Agents: agents})
}
