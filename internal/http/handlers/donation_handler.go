// Donation HTTP handlers.
//
// This file exposes REST endpoints for donation resources:
//   - POST   /donations                (submit)
//   - GET    /donations                (list, paginated, role-scoped)
//   - GET    /donations/{id}           (view)
//   - POST   /donations/{id}/accept    (admin)
//   - POST   /donations/{id}/reject    (admin)
//   - POST   /donations/{id}/assign    (admin)
//   - POST   /donations/{id}/collect   (agent)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. Lifecycle legality lives in the
// service layer; handlers only map its errors onto status codes.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/foodshare/go-donation-backend/internal/domain"
	"github.com/foodshare/go-donation-backend/internal/http/middleware"
	"github.com/foodshare/go-donation-backend/internal/services"
	"github.com/foodshare/go-donation-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// DonationService defines donation lifecycle operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type DonationService interface {
	// Submit creates a new pending donation for donorID.
	Submit(ctx context.Context, donorID, foodType, quantity, description string, amount *float64) (*domain.Donation, error)
	// View returns a donation by id.
	View(ctx context.Context, id string) (*domain.Donation, error)
	// ListPage returns a page of donations and the total count.
	ListPage(ctx context.Context, statuses []string, donorID, agentID string, page, pageSize int) ([]domain.Donation, int64, error)
	// Apply validates and executes a lifecycle transition.
	Apply(ctx context.Context, donationID, action, actorRole string, params services.TransitionParams) (*domain.Donation, error)
}

// AccountService defines account operations consumed by HTTP handlers.
type AccountService interface {
	// Signup creates a new account after verifying the signup code.
	Signup(ctx context.Context, in services.SignupInput, otpCode string) (*domain.User, error)
	// Authenticate verifies an email/password pair.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	// UpdateProfile rewrites the mutable contact fields of an account.
	UpdateProfile(ctx context.Context, userID, firstName, lastName, phone, address string) error
}

// OTPService defines the one-time passcode operations consumed by HTTP
// handlers.
type OTPService interface {
	// Issue generates, stores, and delivers a fresh code for email.
	Issue(ctx context.Context, email string) error
	// Verify checks a submitted code and consumes it on success.
	Verify(ctx context.Context, email, code string) error
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for donations, accounts, the chatbot, and
// admin views. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	donationSvc DonationService
	accountSvc  AccountService
	otpSvc      OTPService
	adminSvc    AdminService
	bot         ChatResponder
}

// New constructs and returns a Handlers instance bound to the given services.
func New(donationSvc DonationService, accountSvc AccountService, otpSvc OTPService, adminSvc AdminService, bot ChatResponder) *Handlers {
	return &Handlers{
		donationSvc: donationSvc,
		accountSvc:  accountSvc,
		otpSvc:      otpSvc,
		adminSvc:    adminSvc,
		bot:         bot,
	}
}

//
// DTOs
//

// SubmitDonationRequest is the JSON payload for submitting a donation.
type SubmitDonationRequest struct {
	// FoodType names the donated food ("rice", "canned goods").
	FoodType string `json:"food_type" binding:"required" example:"rice"`
	// Quantity is free-form ("5 kg", "12 cans").
	Quantity string `json:"quantity" binding:"required" example:"5 kg"`
	// Amount optionally carries a monetary value alongside the goods.
	Amount *float64 `json:"amount,omitempty" example:"25.50"`
	// Description optionally adds pickup or handling details.
	Description string `json:"description,omitempty" example:"Please collect before Friday"`
}

// AssignDonationRequest is the JSON payload for assigning an agent.
type AssignDonationRequest struct {
	// AgentID identifies the agent user receiving the pickup.
	AgentID string `json:"agent_id" binding:"required" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	// Note optionally carries instructions from the admin to the agent.
	Note string `json:"note,omitempty" example:"Call the donor before pickup"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListDonationsResponse wraps a page of donations and pagination information.
type ListDonationsResponse struct {
	Donations  []domain.Donation `json:"donations"`
	Pagination Pagination        `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// failService maps service-layer errors onto HTTP statuses and stable codes.
// Unknown errors become 500 internal_error.
func failService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrDonationNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "donation not found")
	case errors.Is(err, services.ErrInvalidTransition):
		fail(c, http.StatusUnprocessableEntity, ErrCodeInvalidTransition, err.Error())
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "role not permitted to perform this action")
	case errors.Is(err, services.ErrNoAgentsAvailable):
		fail(c, http.StatusConflict, ErrCodeNoAgents, "no agents available")
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
	case errors.Is(err, services.ErrInvalidRole):
		fail(c, http.StatusBadRequest, ErrCodeInvalidRole, "invalid role")
	case errors.Is(err, services.ErrEmailTaken):
		fail(c, http.StatusConflict, ErrCodeEmailTaken, "email already registered")
	case errors.Is(err, services.ErrWeakPassword):
		fail(c, http.StatusBadRequest, ErrCodeWeakPassword, "password too short")
	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid email or password")
	case errors.Is(err, services.ErrOTPExpired):
		fail(c, http.StatusBadRequest, ErrCodeOTPExpired, "otp expired or not issued")
	case errors.Is(err, services.ErrOTPMismatch):
		fail(c, http.StatusBadRequest, ErrCodeOTPMismatch, "incorrect otp")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

//
// Handlers
//

// SubmitDonation godoc
// @ID          submitDonation
// @Summary     Submit a donation
// @Description Creates a pending donation for the current donor and returns the resource.
// @Tags        Donations
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Donor user ID"  example(141add05-4415-4938-b5a1-17e0d3171aff)
// @Param       body       body    handlers.SubmitDonationRequest  true  "Donation payload"
//
// @Success     201  {object}  domain.Donation
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /donations [post]
func (h *Handlers) SubmitDonation(c *gin.Context) {
	var req SubmitDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "food_type and quantity are required")
		return
	}

	d, err := h.donationSvc.Submit(c.Request.Context(), middleware.CurrentUserID(c),
		req.FoodType, req.Quantity, req.Description, req.Amount)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, d)
}

// ListDonations godoc
// @ID          listDonations
// @Summary     List donations (paginated, role-scoped)
// @Description Donors see their own donations, agents see ones assigned to them, admins see all. Optional status filter.
// @Tags        Donations
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID"  example(141add05-4415-4938-b5a1-17e0d3171aff)
// @Param       status     query   string  false "Comma-separated status filter"  example(pending,accepted)
// @Param       page       query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListDonationsResponse
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /donations [get]
func (h *Handlers) ListDonations(c *gin.Context) {
	page, pageSize := clampPagination(c)
	statuses := splitStatuses(c.Query("status"))

	// Role scoping: donors and agents only ever see their own slice.
	var donorID, agentID string
	switch middleware.CurrentRole(c) {
	case domain.RoleAdmin:
		// unrestricted
	case domain.RoleAgent:
		agentID = middleware.CurrentUserID(c)
	default:
		donorID = middleware.CurrentUserID(c)
	}

	items, total, err := h.donationSvc.ListPage(c.Request.Context(), statuses, donorID, agentID, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListDonationsResponse{
		Donations: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetDonation godoc
// @ID          getDonation
// @Summary     View a donation
// @Tags        Donations
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID"        example(141add05-4415-4938-b5a1-17e0d3171aff)
// @Param       id         path    string  true  "Donation ID (UUID)"  format(uuid)
//
// @Success     200  {object} domain.Donation
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Donation not found"
// @Router      /donations/{id} [get]
func (h *Handlers) GetDonation(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "donation id must be a UUID")
		return
	}

	d, err := h.donationSvc.View(c.Request.Context(), id)
	if err != nil {
		failService(c, err)
		return
	}

	// Non-admins may only inspect donations they are party to.
	switch middleware.CurrentRole(c) {
	case domain.RoleAdmin:
	case domain.RoleAgent:
		if d.AgentID == nil || *d.AgentID != middleware.CurrentUserID(c) {
			fail(c, http.StatusForbidden, ErrCodeForbidden, "donation not assigned to you")
			return
		}
	default:
		if d.DonorID != middleware.CurrentUserID(c) {
			fail(c, http.StatusForbidden, ErrCodeForbidden, "not your donation")
			return
		}
	}

	ok(c, http.StatusOK, d)
}

// TransitionDonation godoc
// @ID          transitionDonation
// @Summary     Apply a lifecycle action to a donation
// @Description Executes accept, reject, assign, or collect. Assign takes `{agent_id, note}`; the other actions take no body.
// @Tags        Donations
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "Admin or agent user ID"
// @Param       id         path    string  true  "Donation ID (UUID)"  format(uuid)
// @Param       action     path    string  true  "Lifecycle action"    Enums(accept, reject, assign, collect)
// @Param       body       body    handlers.AssignDonationRequest  false  "Assign payload (assign only)"
//
// @Success     200  {object} domain.Donation
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     403  {object} handlers.ErrorResponse "Role not permitted"
// @Failure     404  {object} handlers.ErrorResponse "Donation not found"
// @Failure     409  {object} handlers.ErrorResponse "No agents available"
// @Failure     422  {object} handlers.ErrorResponse "Illegal transition"
// @Router      /donations/{id}/{action} [post]
func (h *Handlers) TransitionDonation(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if _, err := uuid.Parse(id); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "donation id must be a UUID")
			return
		}

		var params services.TransitionParams
		if action == services.ActionAssign {
			var req AssignDonationRequest
			if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.AgentID) == "" {
				fail(c, http.StatusBadRequest, ErrCodeBadRequest, "agent_id required")
				return
			}
			params = services.TransitionParams{AgentID: strings.TrimSpace(req.AgentID), Note: strings.TrimSpace(req.Note)}
		}

		d, err := h.donationSvc.Apply(c.Request.Context(), id, action, middleware.CurrentRole(c), params)
		if err != nil {
			failService(c, err)
			return
		}
		ok(c, http.StatusOK, d)
	}
}

// splitStatuses parses a comma-separated status filter, dropping empties.
func splitStatuses(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
