// Package model defines domain entities for the application.
package model

import "time"

// Role enumerates user capability levels.
type Role string

const (
	// RoleAdmin grants access to cross-user listings and user creation.
	RoleAdmin Role = "admin"
	// RoleUser is the standard capability level.
	RoleUser Role = "user"
)

// IsValid reports whether the role is one of the known values.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User represents an account that can sign in and own dossiers.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin reports whether the user holds the administrator capability.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
