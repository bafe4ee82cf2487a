// Package services defines the business logic for donations, accounts, and
// signup verification. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import "errors"

// Donation lifecycle errors.
var (
	// ErrDonationNotFound indicates that the referenced donation id is
	// unknown.
	ErrDonationNotFound = errors.New("donation not found")

	// ErrInvalidTransition is returned when the requested action is not
	// legal from the donation's current status. The record is left
	// unchanged.
	ErrInvalidTransition = errors.New("invalid donation transition")

	// ErrNoAgentsAvailable is returned when assignment is attempted while
	// no agent-role users exist.
	ErrNoAgentsAvailable = errors.New("no agents available")

	// ErrForbidden is returned when the acting role is not permitted to
	// perform the requested action.
	ErrForbidden = errors.New("role not permitted to perform this action")
)

// Account and signup errors.
var (
	// ErrUserNotFound indicates that the referenced user id or email is
	// unknown.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken is returned when signup is attempted with an email that
	// is already registered.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidRole is returned when signup requests a role outside
	// donor/agent/admin.
	ErrInvalidRole = errors.New("invalid role")

	// ErrWeakPassword is returned when the supplied password is shorter
	// than the minimum length.
	ErrWeakPassword = errors.New("password too short")

	// ErrInvalidCredentials is returned on a failed login attempt. It is
	// deliberately identical for unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// One-time passcode errors.
var (
	// ErrOTPExpired is returned when verification is attempted with no
	// stored code, or after the stored code's TTL elapsed.
	ErrOTPExpired = errors.New("otp expired or not issued")

	// ErrOTPMismatch is returned when the supplied code does not match the
	// stored one.
	ErrOTPMismatch = errors.New("incorrect otp")
)
