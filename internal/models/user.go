package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleFaculty    UserRole = "FACULTY"
)

// JWTClaims represents the JWT payload for access tokens.
// FacultyID is set for faculty accounts and scopes their self-service reads.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	FacultyID string   `json:"faculty_id,omitempty"`
	Role      UserRole `json:"role"`
	Email     string   `json:"email"`
	jwt.RegisteredClaims
}

// OwnerID returns the identifier used for self checks.
func (c *JWTClaims) OwnerID() string {
	if c == nil {
		return ""
	}
	if c.FacultyID != "" {
		return c.FacultyID
	}
	return c.UserID
}
