package models

import "github.com/golang-jwt/jwt/v5"

// Roles allowed to use the ops API.
const (
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

// OperatorClaims identify a person or system calling the ops API. The
// subject is the operator's name.
type OperatorClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// HasRole checks if the claims carry one of roles. Admins pass every check.
func (c *OperatorClaims) HasRole(roles ...string) bool {
	if c.Role == RoleAdmin {
		return true
	}
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}
