package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/himaltransit/fleet-booking-backend/internal/models"
	"github.com/himaltransit/fleet-booking-backend/pkg/jwt"
)

// UserContextKey is the gin context key the authenticated user is stored under
const UserContextKey = "user_context"

// UserContext carries the authenticated account through a request
type UserContext struct {
	CustomerID string
	Email      string
	Role       models.CustomerRole
}

// IsStaff reports whether the request comes from a staff or admin account
func (u UserContext) IsStaff() bool {
	return u.Role == models.CustomerRoleStaff || u.Role == models.CustomerRoleAdmin
}

// AuthMiddleware validates the Bearer token and stores the user context
func AuthMiddleware(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header is required",
				"code":  "MISSING_AUTH_HEADER",
			})
			c.Abort()
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header must be in the format: Bearer <token>",
				"code":  "INVALID_AUTH_FORMAT",
			})
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateAccessToken(parts[1])
		if err != nil {
			code := "INVALID_TOKEN"
			if jwtService.IsTokenExpired(parts[1]) {
				code = "TOKEN_EXPIRED"
			}
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
				"code":  code,
			})
			c.Abort()
			return
		}

		c.Set(UserContextKey, UserContext{
			CustomerID: claims.CustomerID,
			Email:      claims.Email,
			Role:       models.CustomerRole(claims.Role),
		})
		c.Next()
	}
}

// RequireStaff rejects requests from non-staff accounts. It must run
// after AuthMiddleware.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		userCtx, exists := GetUserContext(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Unauthorized",
				"code":  "MISSING_USER_CONTEXT",
			})
			c.Abort()
			return
		}
		if !userCtx.IsStaff() {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Staff access required",
				"code":  "FORBIDDEN",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects requests from non-admin accounts. It must run
// after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userCtx, exists := GetUserContext(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Unauthorized",
				"code":  "MISSING_USER_CONTEXT",
			})
			c.Abort()
			return
		}
		if userCtx.Role != models.CustomerRoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Admin access required",
				"code":  "FORBIDDEN",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserContext retrieves the user context from the gin context
func GetUserContext(c *gin.Context) (UserContext, bool) {
	value, exists := c.Get(UserContextKey)
	if !exists {
		return UserContext{}, false
	}
	userCtx, ok := value.(UserContext)
	if !ok {
		return UserContext{}, false
	}
	return userCtx, true
}

// MustGetUserContext retrieves the user context or panics. Only for
// handlers that always run behind AuthMiddleware.
func MustGetUserContext(c *gin.Context) UserContext {
	userCtx, exists := GetUserContext(c)
	if !exists {
		panic("user context not found; is AuthMiddleware installed?")
	}
	return userCtx
}
