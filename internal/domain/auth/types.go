package auth

// Package auth contains domain-level types for authentication and route access.
// It is pure and free of framework/adapter concerns.

import (
	"encoding/json"
	"strings"
	"time"
)

// Role represents an application's authorization role.
// The string form is what the persisted session record carries.
type Role string

const (
	RoleAdmin         Role = "Admin"
	RolePharmacyOwner Role = "PharmacyOwner"
	RoleCustomer      Role = "Customer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RolePharmacyOwner, RoleCustomer:
		return true
	default:
		return false
	}
}

// Persisted store keys within a client's namespace.
const (
	KeyAuth            = "auth"
	KeyLastVisitedPath = "lastVisitedPath"
)

// Identity represents the authenticated principal returned by an IdP.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID    string
	Name      string
	Email     string
	Groups    []string
	ExpiresAt time.Time // absolute expiry from IdP token
}

// User is the user portion of a session record.
type User struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role,omitempty"`
}

// Record is the authentication record persisted under KeyAuth.
// The zero value is an unauthenticated session.
type Record struct {
	Authenticated bool      `json:"authenticated"`
	User          *User     `json:"user,omitempty"`
	ExpiresAt     time.Time `json:"expires_at,omitzero"`
}

// ParseRecord decodes a persisted record. Empty or malformed input yields the
// zero Record, never an error.
func ParseRecord(raw string) Record {
	if strings.TrimSpace(raw) == "" {
		return Record{}
	}
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return Record{}
	}
	return rec
}

// Encode serializes the record for persistence.
func (r Record) Encode() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Role returns the user's role, or "" when the record carries no user.
func (r Record) Role() Role {
	if r.User == nil {
		return ""
	}
	return r.User.Role
}

// Expired reports whether the record carries an expiry that is not after now.
func (r Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}
