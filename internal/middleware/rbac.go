package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/tanroads/rrs-api/internal/models"
	appErrors "github.com/tanroads/rrs-api/pkg/errors"
	"github.com/tanroads/rrs-api/pkg/response"
)

// RequireRoles gates a route to the listed roles. Role checks here are a
// coarse filter only; the workflow engine re-validates every action
// against the transition table, so a stale route table can never widen
// what a role may do.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
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
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireApplicant gates a route to the applicant-side roles.
func RequireApplicant() gin.HandlerFunc {
	return RequireRoles(models.ApplicantRoles...)
}
