package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bizcribe/bizcribe-backend/internal/app/model"
	apperrors "github.com/bizcribe/bizcribe-backend/internal/errors"
	"github.com/bizcribe/bizcribe-backend/pkg/util"
	"github.com/gin-gonic/gin"
)

const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
	ContextUserRole  = "user_role"
)

// Authenticate validates the bearer token and stores the caller's identity
// on the gin context. Refresh tokens are rejected for request auth.
func Authenticate(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c, jwtSecret)
		if !ok {
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserEmail, claims.Email)
		c.Set(ContextUserRole, claims.Role)
		c.Next()
	}
}

// OptionalAuthenticate populates the caller's identity when a valid token is
// present but lets anonymous requests through.
func OptionalAuthenticate(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header {
			c.Next()
			return
		}

		claims, err := util.ValidateToken(token, jwtSecret)
		if err == nil && claims.TokenType == util.TokenTypeAccess {
			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextUserEmail, claims.Email)
			c.Set(ContextUserRole, claims.Role)
		}
		c.Next()
	}
}

// RequireRole allows only callers whose role is in the given set. Must run
// after Authenticate.
func RequireRole(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ContextUserRole)
		if !exists {
			apperrors.Unauthorized(c, "Authentication required")
			c.Abort()
			return
		}

		current := model.UserRole(role.(string))
		for _, allowed := range roles {
			if current == allowed {
				c.Next()
				return
			}
		}

		apperrors.Forbidden(c, "Insufficient permissions")
		c.Abort()
	}
}

func parseBearer(c *gin.Context, jwtSecret string) (*util.Claims, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		apperrors.Unauthorized(c, "Authentication required")
		return nil, false
	}

	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Invalid authorization header format")
		return nil, false
	}

	claims, err := util.ValidateToken(token, jwtSecret)
	if err != nil {
		if errors.Is(err, util.ErrExpiredToken) {
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenExpired, "Token has expired")
		} else {
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Invalid token")
		}
		return nil, false
	}

	if claims.TokenType != util.TokenTypeAccess {
		apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Invalid token")
		return nil, false
	}

	return claims, true
}

// GetUserID returns the authenticated user's ID from the context.
func GetUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(ContextUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// GetUserRole returns the authenticated user's role from the context.
func GetUserRole(c *gin.Context) (model.UserRole, bool) {
	v, exists := c.Get(ContextUserRole)
	if !exists {
		return "", false
	}
	role, ok := v.(string)
	return model.UserRole(role), ok
}
