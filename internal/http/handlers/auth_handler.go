// Account and signup-verification HTTP handlers.
//
//   - POST /auth/send-otp    issue a one-time signup code
//   - POST /auth/verify-otp  check a code without creating an account
//   - POST /auth/signup      create an account (code required)
//   - POST /auth/login       verify credentials, return the account
//   - PUT  /auth/profile     update the caller's contact fields
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/foodshare/go-donation-backend/internal/http/middleware"
	"github.com/foodshare/go-donation-backend/internal/services"
)

//
// DTOs
//

// SendOTPRequest is the JSON payload for issuing a signup code.
type SendOTPRequest struct {
	Email string `json:"email" binding:"required,email" example:"ada@example.com"`
}

// VerifyOTPRequest is the JSON payload for checking a signup code.
type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email" example:"ada@example.com"`
	Code  string `json:"code" binding:"required" example:"482913"`
}

// SignupRequest is the JSON payload for creating an account.
type SignupRequest struct {
	FirstName string `json:"first_name" binding:"required" example:"Ada"`
	LastName  string `json:"last_name" binding:"required" example:"Lovelace"`
	Email     string `json:"email" binding:"required,email" example:"ada@example.com"`
	Phone     string `json:"phone,omitempty" example:"+44 20 7946 0958"`
	Address   string `json:"address,omitempty" example:"12 St James's Square, London"`
	Password  string `json:"password" binding:"required" example:"s3cret"`
	Role      string `json:"role" binding:"required" example:"donor"`
	Code      string `json:"code" binding:"required" example:"482913"`
}

// LoginRequest is the JSON payload for verifying credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"ada@example.com"`
	Password string `json:"password" binding:"required" example:"s3cret"`
}

// UpdateProfileRequest is the JSON payload for rewriting contact fields.
type UpdateProfileRequest struct {
	FirstName string `json:"first_name" binding:"required" example:"Ada"`
	LastName  string `json:"last_name" binding:"required" example:"Lovelace"`
	Phone     string `json:"phone,omitempty" example:"+44 20 7946 0958"`
	Address   string `json:"address,omitempty" example:"12 St James's Square, London"`
}

//
// Handlers
//

// SendOTP godoc
// @ID          sendOTP
// @Summary     Issue a signup code
// @Description Generates a six-digit code, stores it for a few minutes, and mails it to the address.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.SendOTPRequest  true  "Target address"
//
// @Success     200  {object}  map[string]string
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Delivery failed"
// @Router      /auth/send-otp [post]
func (h *Handlers) SendOTP(c *gin.Context) {
	var req SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "a valid email is required")
		return
	}

	if err := h.otpSvc.Issue(c.Request.Context(), req.Email); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not deliver the code")
		return
	}
	ok(c, http.StatusOK, gin.H{"status": "sent"})
}

// VerifyOTP godoc
// @ID          verifyOTP
// @Summary     Verify a signup code
// @Description Checks a submitted code against the stored one. A matching code is consumed.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.VerifyOTPRequest  true  "Email and code"
//
// @Success     200  {object}  map[string]string
// @Failure     400  {object}  handlers.ErrorResponse  "Expired or incorrect code"
// @Router      /auth/verify-otp [post]
func (h *Handlers) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and code are required")
		return
	}

	if err := h.otpSvc.Verify(c.Request.Context(), req.Email, req.Code); err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"status": "verified"})
}

// Signup godoc
// @ID          signup
// @Summary     Create an account
// @Description Creates a donor, agent, or admin account after verifying the signup code.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.SignupRequest  true  "Account payload"
//
// @Success     201  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Email already registered"
// @Router      /auth/signup [post]
func (h *Handlers) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name, email, password, role, and code are required")
		return
	}

	u, err := h.accountSvc.Signup(c.Request.Context(), services.SignupInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     strings.TrimSpace(req.Phone),
		Address:   strings.TrimSpace(req.Address),
		Password:  req.Password,
		Role:      req.Role,
	}, req.Code)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

// Login godoc
// @ID          login
// @Summary     Verify credentials
// @Description Checks an email/password pair and returns the account on success.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
//
// @Success     200  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid email or password"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password are required")
		return
	}

	u, err := h.accountSvc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// UpdateProfile godoc
// @ID          updateProfile
// @Summary     Update the caller's profile
// @Description Rewrites the mutable contact fields of the authenticated account. Email, role, and password are immutable here.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  true  "User ID"
// @Param       body       body    handlers.UpdateProfileRequest  true  "Contact fields"
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /auth/profile [put]
func (h *Handlers) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "first_name and last_name are required")
		return
	}

	err := h.accountSvc.UpdateProfile(c.Request.Context(), middleware.CurrentUserID(c),
		req.FirstName, req.LastName, strings.TrimSpace(req.Phone), strings.TrimSpace(req.Address))
	if err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}
