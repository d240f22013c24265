package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ssp-workflow-api/internal/models"
	appErrors "github.com/noah-isme/ssp-workflow-api/pkg/errors"
	"github.com/noah-isme/ssp-workflow-api/pkg/response"
)

// RequireRoles enforces role-based access control for routes. SUPERADMIN
// always passes.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles)+1)
	allowed[models.RoleSuperAdmin] = struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		if _, ok := allowed[claims.Role]; ok {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
