// Package domain contains core business types and interfaces.
//
// This file defines the marketplace actor and the subscription that binds an
// actor to a plan. These types are separate from the repository models so the
// domain layer stays decoupled from the database layer.
package domain

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the side of the marketplace an actor is on.
type Role string

const (
	RoleCreator      Role = "creator"
	RoleCollaborator Role = "collaborator"
)

// IsValid returns true if the role is a recognized value.
func (r Role) IsValid() bool {
	return r == RoleCreator || r == RoleCollaborator
}

// UserStatus is the account state. Disabled accounts are soft-deleted.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

// User is a marketplace actor, either a creator or a collaborator.
type User struct {
	ID        uuid.UUID
	Email     string
	FirstName string
	LastName  string
	Role      Role
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName joins first and last name, falling back to the email.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// IsActive returns true unless the account has been disabled.
func (u *User) IsActive() bool {
	return u.Status != UserStatusDisabled
}

// Subscription binds an actor to a plan by name. The plan name is matched
// against the catalog case-insensitively when entitlements are resolved.
type Subscription struct {
	ID                     uuid.UUID
	UserID                 uuid.UUID
	Email                  string
	CurrentPlan            string
	Duration               string
	PlanExpiresAt          *time.Time
	RenewDate              *time.Time
	ProviderSubscriptionID string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// IsExpired reports whether the paid period ended before now.
// Expiry is informational; entitlement resolution does not consult it.
func (s *Subscription) IsExpired(now time.Time) bool {
	return s.PlanExpiresAt != nil && s.PlanExpiresAt.Before(now)
}

// =============================================================================
// Conversion helpers from repository types
// =============================================================================

// NullStringValue safely extracts a string from sql.NullString.
func NullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// NullTimeValue safely extracts a time pointer from sql.NullTime.
func NullTimeValue(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}

// ToNullString converts a string to sql.NullString. Empty strings are NULL.
func ToNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// ToNullTime converts a time to sql.NullTime. The zero time is NULL.
func ToNullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

// ToNullUUID converts a UUID pointer to uuid.NullUUID.
func ToNullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
