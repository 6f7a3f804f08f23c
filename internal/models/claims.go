package models

import "github.com/golang-jwt/jwt/v5"

// Application permissions
const (
	PermissionPaymentWrite    = "payment:write"
	PermissionPaymentRead     = "payment:read"
	PermissionPayoutWrite     = "payout:write"
	PermissionTransactionRead = "transaction:read"
	PermissionReconcileSweep  = "reconcile:sweep"
	PermissionReadAdmin       = "admin:read"
	PermissionWriteAdmin      = "admin:write"
)

// UserClaims carries the identity minted by the platform's auth service.
// This core only consumes it; token issuance lives upstream.
type UserClaims struct {
	jwt.RegisteredClaims
	UserID      string   `json:"user_id"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// HasPermission checks if the claims include a specific permission
func (c *UserClaims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}
