package handlers

import (
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/answer-scoring-service/internal/utils"
)

const (
	ContextUserID   = "user_id"
	ContextUserRole = "user_role"

	RoleTeacher = "teacher"
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// TokenParser validates a bearer token. *casdoorsdk.Client implements it.
type TokenParser interface {
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
}

// AuthMiddleware authenticates requests with a Casdoor-issued JWT and stores
// the user ID and role in the gin context.
func AuthMiddleware(parser TokenParser, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Missing bearer token",
			})
			return
		}

		claims, err := parser.ParseJwtToken(token)
		if err != nil {
			utils.GetLoggerFromContext(c, logger).Warn("Rejected token",
				"error", err.Error(),
				"path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid or expired token",
			})
			return
		}

		userID := userIDFromClaims(claims)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Token carries no user",
			})
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextUserRole, roleFromClaims(claims))
		c.Next()
	}
}

// RequireRole rejects users whose role is not one of roles. Admins pass.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextUserRole)
		if role == RoleAdmin {
			c.Next()
			return
		}
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Message: "Insufficient role",
			Details: map[string]interface{}{
				"required": roles,
				"actual":   role,
			},
		})
	}
}

func userIDFromClaims(claims *casdoorsdk.Claims) string {
	if claims.Id != "" {
		return claims.Id
	}
	if claims.Name == "" {
		return ""
	}
	return claims.Owner + "/" + claims.Name
}

// roleFromClaims prefers the admin flag, then the user tag, then the first
// assigned role that the service knows about.
func roleFromClaims(claims *casdoorsdk.Claims) string {
	if claims.IsAdmin {
		return RoleAdmin
	}
	if role := knownRole(claims.Tag); role != "" {
		return role
	}
	for _, r := range claims.Roles {
		if r == nil {
			continue
		}
		if role := knownRole(r.Name); role != "" {
			return role
		}
	}
	return ""
}

func knownRole(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case RoleTeacher:
		return RoleTeacher
	case RoleStudent:
		return RoleStudent
	case RoleAdmin:
		return RoleAdmin
	}
	return ""
}
