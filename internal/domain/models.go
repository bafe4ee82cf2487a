// Package domain defines the persistence models for users and donations.
// These types are mapped with GORM and form the core data layer of the
// FoodShare donation platform.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// User roles. A user has exactly one role, fixed at signup.
const (
	RoleDonor = "donor"
	RoleAgent = "agent"
	RoleAdmin = "admin"
	// RoleGuest is never persisted; it identifies anonymous chat requests.
	RoleGuest = "guest"
)

// Donation statuses. Status only ever advances along the legal transition
// graph owned by services.DonationService; "rejected" and "collected" are
// terminal.
const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusRejected  = "rejected"
	StatusAssigned  = "assigned"
	StatusCollected = "collected"
)

// User represents a donor, pickup agent, or administrator.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - FirstName / LastName: display name parts.
//   - Email: unique login identifier; uniqueness is enforced at creation.
//   - Phone / Address: contact details embedded into notifications.
//   - Role: exactly one of "donor", "agent", "admin"; immutable after signup.
//   - PasswordHash: bcrypt digest; never serialized.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker.
type User struct {
	ID           string         `json:"id"         gorm:"type:char(36);primaryKey"`
	FirstName    string         `json:"first_name" gorm:"type:varchar(64);not null"`
	LastName     string         `json:"last_name"  gorm:"type:varchar(64);not null"`
	Email        string         `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	Phone        string         `json:"phone"      gorm:"type:varchar(32)"`
	Address      string         `json:"address"    gorm:"type:varchar(255)"`
	Role         string         `json:"role"       gorm:"type:varchar(16);not null;index;check:role IN ('donor','agent','admin')"`
	PasswordHash string         `json:"-"          gorm:"type:varchar(128);not null"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// FullName returns the user's display name ("First Last").
func (u User) FullName() string { return u.FirstName + " " + u.LastName }

// Donation represents one pledge of food from a donor. The record starts in
// "pending" and is driven through its lifecycle by admin and agent actions.
// AgentID is set only while the record is assigned or collected.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - DonorID: foreign key to the owning donor (indexed).
//   - AgentID: nullable reference to the assigned agent.
//   - FoodType / Quantity / Amount / Description: pledge details as captured
//     at submission; Amount is an optional monetary figure.
//   - Status: lifecycle state (see Status* constants; enforced by DB check).
//   - AgentNote: optional admin-to-agent message recorded at assignment.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (terminal records are kept for audit).
type Donation struct {
	ID          string         `json:"id"          gorm:"type:char(36);primaryKey"`
	DonorID     string         `json:"donor_id"    gorm:"type:char(36);not null;index:idx_donor_donations"`
	AgentID     *string        `json:"agent_id,omitempty" gorm:"type:char(36);index"`
	FoodType    string         `json:"food_type"   gorm:"type:varchar(64);not null"`
	Quantity    string         `json:"quantity"    gorm:"type:varchar(64);not null"`
	Amount      *float64       `json:"amount,omitempty" gorm:"type:decimal(10,2)"`
	Description string         `json:"description" gorm:"type:text"`
	Status      string         `json:"status"      gorm:"type:varchar(16);not null;index;check:status IN ('pending','accepted','rejected','assigned','collected')"`
	AgentNote   string         `json:"agent_note,omitempty" gorm:"type:text"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"           gorm:"index"`

	// Donor is the originating user. Donations are cascade-deleted if the
	// donor account is removed.
	Donor User `json:"-" gorm:"foreignKey:DonorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Donation.
func (Donation) TableName() string { return "donations" }

// Terminal reports whether the donation has reached a final state.
func (d Donation) Terminal() bool {
	return d.Status == StatusRejected || d.Status == StatusCollected
}
