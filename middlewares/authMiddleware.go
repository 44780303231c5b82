package middlewares

import (
	"net/http"
	"strings"

	"github.com/daftarhq/daftar_backend/models"
	"github.com/daftarhq/daftar_backend/utils"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the bearer token when one is present and
// stashes the claims on the request context. Anonymous requests pass
// through; RequireAuth is the gate that actually blocks them.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")

		if auth == "" {
			c.Next()
			return
		}

		bearer := "Bearer "
		if strings.HasPrefix(auth, bearer) {
			auth = auth[len(bearer):]
		}

		validate, err := utils.JwtValidate(auth)
		if err != nil || !validate.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
			c.Abort()
			return
		}

		claims, _ := validate.Claims.(*utils.JwtCustomClaim)

		ctx := utils.SetUserIdInContext(c.Request.Context(), claims.ID)
		ctx = utils.SetUserRoleInContext(ctx, claims.Role)
		ctx = utils.SetTokenInContext(ctx, auth)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAuth rejects requests that never presented a valid token.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetUserIdFromContext(c.Request.Context()); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequirePostingRole keeps read-only roles away from anything that
// writes to the ledger.
func RequirePostingRole() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := utils.GetUserRoleFromContext(c.Request.Context())
		if !ok || !models.UserRole(role).CanPost() {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "insufficient role"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin guards user management endpoints.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := utils.GetUserRoleFromContext(c.Request.Context())
		if !ok || models.UserRole(role) != models.UserRoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "insufficient role"})
			c.Abort()
			return
		}
		c.Next()
	}
}
