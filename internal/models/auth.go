package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the roles recognised by the capability check.
type UserRole string

const (
	RoleSuperAdmin      UserRole = "SUPERADMIN"
	RoleInstituteAdmin  UserRole = "INSTITUTE_ADMIN"
	RoleDepartmentAdmin UserRole = "DEPARTMENT_ADMIN"
	RoleFinanceAdmin    UserRole = "FINANCE_ADMIN"
)

// JWTClaims is the access-token payload. Tokens are issued by the external
// identity service; this API only validates them.
type JWTClaims struct {
	UserID       string   `json:"user_id"`
	Role         UserRole `json:"role"`
	Email        string   `json:"email"`
	InstituteID  string   `json:"institute_id,omitempty"`
	DepartmentID string   `json:"department_id,omitempty"`
	jwt.RegisteredClaims
}

// Actor is the engine-level identity attached to every decision.
type Actor struct {
	UserID       string
	Role         UserRole
	InstituteID  string
	DepartmentID string
}

// ActorFromClaims projects token claims into a workflow actor.
func ActorFromClaims(c *JWTClaims) Actor {
	if c == nil {
		return Actor{}
	}
	return Actor{
		UserID:       c.UserID,
		Role:         c.Role,
		InstituteID:  c.InstituteID,
		DepartmentID: c.DepartmentID,
	}
}
