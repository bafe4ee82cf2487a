// Package services – AccountService
//
// This file implements AccountService, which governs signup (OTP-gated),
// login verification, and profile updates. It enforces business rules
// (email uniqueness, allowed roles, minimum password length) and persists
// accounts atomically. Service-level errors (ErrEmailTaken, ErrInvalidRole,
// ErrWeakPassword, ErrInvalidCredentials) are returned for predictable cases
// so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/foodshare/go-donation-backend/internal/domain"
	"github.com/foodshare/go-donation-backend/internal/repo"
)

// MinPasswordLen is the minimum accepted password length at signup.
const MinPasswordLen = 4

// SignupInput carries the fields collected by the signup form.
type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
	Password  string
	Role      string
}

// AccountService implements the use-cases around user accounts.
type AccountService struct {
	// DB is the database handle used for all account operations.
	DB *gorm.DB
	// OTP verifies signup codes when set; a nil OTP disables the gate
	// (used by the admin seeding path).
	OTP *OTPService
	// BcryptCost overrides the hashing cost; <= 0 uses bcrypt.DefaultCost.
	BcryptCost int
}

// Signup validates the input, verifies the signup OTP, and creates the
// account with a bcrypt-hashed password.
//
// Semantics and validation:
//   - role must be donor, agent, or admin; otherwise ErrInvalidRole.
//   - password must be at least MinPasswordLen runes; otherwise ErrWeakPassword.
//   - the OTP for the email must verify (when the OTP gate is configured);
//     otherwise ErrOTPExpired / ErrOTPMismatch.
//   - email must be unused; otherwise ErrEmailTaken. Uniqueness is enforced
//     both by the pre-check and the DB unique index, so a racing duplicate
//     still maps to ErrEmailTaken.
func (s *AccountService) Signup(ctx context.Context, in SignupInput, otpCode string) (*domain.User, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))

	if in.FirstName == "" || in.LastName == "" || in.Email == "" {
		return nil, errors.New("all fields are required")
	}
	switch in.Role {
	case domain.RoleDonor, domain.RoleAgent, domain.RoleAdmin:
	default:
		return nil, ErrInvalidRole
	}
	if len([]rune(in.Password)) < MinPasswordLen {
		return nil, ErrWeakPassword
	}

	if s.OTP != nil {
		if err := s.OTP.Verify(ctx, in.Email, otpCode); err != nil {
			return nil, err
		}
	}

	cost := s.BcryptCost
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), cost)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		ID:           uuid.NewString(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
		Role:         in.Role,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.CreateUser(ctx, s.DB, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// Authenticate checks an email/password pair and returns the matching user.
// Unknown email and wrong password both map to ErrInvalidCredentials so the
// failure mode does not leak which part was wrong.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := repo.GetUserByEmail(ctx, s.DB, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// UpdateProfile updates the mutable contact fields of a user. Role and
// email are immutable here.
func (s *AccountService) UpdateProfile(ctx context.Context, userID, firstName, lastName, phone, address string) error {
	err := repo.UpdateUserProfile(ctx, s.DB, userID,
		strings.TrimSpace(firstName), strings.TrimSpace(lastName),
		strings.TrimSpace(phone), strings.TrimSpace(address))
	if errors.Is(err, repo.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}
