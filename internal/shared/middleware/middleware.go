package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"anchorpoint/internal/shared/config"
	"anchorpoint/internal/shared/utils/response"
	"anchorpoint/internal/users"
)

// JWTAuth creates a JWT authentication middleware
func JWTAuth() gin.HandlerFunc {
	return JWTAuthWithConfig(config.Load())
}

// JWTAuthWithConfig creates a JWT authentication middleware with config
func JWTAuthWithConfig(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "Authorization header is required", nil, nil)
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "authorization header format must be Bearer {token}", nil, nil)
			c.Abort()
			return
		}

		tokenString := parts[1]

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWT.Secret), nil
		})

		if err != nil || !token.Valid {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "invalid or expired token", nil, nil)
			c.Abort()
			return
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if tokenType, ok := claims["type"]; !ok || tokenType != "access" {
				response.RespondJSON(c, "error", http.StatusUnauthorized, "invalid token type", nil, nil)
				c.Abort()
				return
			}
			c.Set("user_id", claims["user_id"])
			c.Set("user_email", claims["email"])
		}

		c.Next()
	}
}

// OptionalAuth validates a JWT token if present but doesn't require one.
// Guest-facing routes use this so magic-link handlers can serve both
// anonymous guests and logged-in staff.
func OptionalAuth() gin.HandlerFunc {
	return OptionalAuthWithConfig(config.Load())
}

func OptionalAuthWithConfig(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.Next()
			return
		}

		tokenString := parts[1]

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWT.Secret), nil
		})

		if err != nil || !token.Valid {
			c.Next()
			return
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if tokenType, ok := claims["type"]; !ok || tokenType != "access" {
				c.Next()
				return
			}

			c.Set("user_id", claims["user_id"])
			c.Set("user_email", claims["email"])
		}

		c.Next()
	}
}

// ServiceIDParam parses the :serviceId path parameter.
func ServiceIDParam(c *gin.Context) (uint, bool) {
	raw := c.Param("serviceId")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// RequireServiceRole checks that the authenticated user holds one of the
// given roles at the service named by the :serviceId path parameter.
// Roles live on memberships, not on the token, so this hits the database;
// superusers bypass the check.
func RequireServiceRole(repo users.Repository, roles ...users.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := users.CurrentUserID(c)
		if !ok {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
			c.Abort()
			return
		}

		serviceID, ok := ServiceIDParam(c)
		if !ok {
			response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid service id", nil, nil)
			c.Abort()
			return
		}

		user, err := repo.GetByID(c.Request.Context(), userID)
		if err == nil && user.IsSuperuser {
			c.Set("service_id", serviceID)
			c.Next()
			return
		}

		hasRole, err := repo.HasActiveRole(c.Request.Context(), userID, serviceID, roles...)
		if err != nil {
			response.RespondJSON(c, "error", http.StatusInternalServerError, "Failed to check permissions", nil, nil)
			c.Abort()
			return
		}
		if !hasRole {
			response.RespondJSON(c, "error", http.StatusForbidden, "Insufficient permissions", nil, nil)
			c.Abort()
			return
		}

		c.Set("service_id", serviceID)
		c.Next()
	}
}

// RequireManagement requires an OWNER or OFFICE_MANAGER membership.
func RequireManagement(repo users.Repository) gin.HandlerFunc {
	return RequireServiceRole(repo, users.ManagementRoles...)
}

// RequireOwner requires an OWNER membership.
func RequireOwner(repo users.Repository) gin.HandlerFunc {
	return RequireServiceRole(repo, users.RoleOwner)
}

// RequireStaff requires any active membership at the service.
func RequireStaff(repo users.Repository) gin.HandlerFunc {
	return RequireServiceRole(repo, users.RoleOwner, users.RoleOfficeManager, users.RoleGuide)
}
