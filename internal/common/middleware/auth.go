package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	apperrors "atmwater-backend/internal/common/errors"
	"atmwater-backend/internal/features/auth/token"
	permservice "atmwater-backend/internal/features/permission/service"
	usermodels "atmwater-backend/internal/features/user/models"
	userservice "atmwater-backend/internal/features/user/service"
)

const userContextKey = "user"

// Protect requires a valid Bearer session token and loads the current user
// into the request context.
func Protect(tokens *token.Manager, users userservice.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false, "message": "Not authorized, no token",
			})
			return
		}

		claims, err := tokens.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false, "message": "Not authorized, token failed",
			})
			return
		}

		user, err := users.GetUser(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false, "message": "User not found",
			})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated user stored by Protect.
func CurrentUser(c *gin.Context) (*usermodels.User, bool) {
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*usermodels.User)
	return user, ok
}

// Authorize allows only the listed roles through. Static counterpart of
// CheckPermission.
func Authorize(roles ...usermodels.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false, "message": "Not authorized",
			})
			return
		}

		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}

		log.Warn().
			Str("role", string(user.Role)).
			Str("path", c.Request.URL.Path).
			Msg("static role check failed")
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "User role [" + string(user.Role) + "] is not authorized to access this route",
		})
	}
}

// CheckPermission consults the dynamic permission matrix for functionKey.
// The decision itself (including the Super-Admin bypass and default-deny on a
// missing entry) lives in the permission service.
func CheckPermission(permissions permservice.PermissionService, functionKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false, "message": "Not authorized",
			})
			return
		}

		if err := permissions.Check(c.Request.Context(), user.Role, functionKey); err != nil {
			appErr, _ := apperrors.AsAppError(err)
			if appErr != nil && appErr.IsInternal() {
				log.Error().Err(err).Str("function_key", functionKey).Msg("permission check failed")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false, "message": "Server Error during permission check",
				})
				return
			}

			message := "Forbidden"
			if appErr != nil {
				message = appErr.Message
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false, "message": message,
			})
			return
		}

		c.Next()
	}
}
