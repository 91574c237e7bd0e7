package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fadedindigo/backend/internal/infrastructure/auth"
	"github.com/fadedindigo/backend/internal/interfaces/http/dto"
)

// JWT context keys
const (
	JWTClaimsKey   = "jwt_claims"
	JWTUserIDKey   = "jwt_user_id"
	JWTUsernameKey = "jwt_username"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
)

// RequireAuth validates the bearer token and stores the claims in the
// request context. Requests without a valid token get a 401.
func RequireAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Authorization header required")
			return
		}

		if !strings.HasPrefix(header, BearerPrefix) {
			abortUnauthorized(c, dto.ErrCodeTokenInvalid, "Authorization header must use Bearer scheme")
			return
		}

		tokenString := strings.TrimPrefix(header, BearerPrefix)
		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				abortUnauthorized(c, dto.ErrCodeTokenExpired, "Token has expired")
				return
			}
			abortUnauthorized(c, dto.ErrCodeTokenInvalid, "Invalid token")
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, claims.Subject)
		c.Set(JWTUsernameKey, claims.Username)
		c.Next()
	}
}

// GetJWTClaims returns the validated claims from the context, if present
func GetJWTClaims(c *gin.Context) (*auth.Claims, bool) {
	value, exists := c.Get(JWTClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*auth.Claims)
	return claims, ok
}

// GetJWTUserID returns the authenticated user ID from the context
func GetJWTUserID(c *gin.Context) string {
	return c.GetString(JWTUserIDKey)
}

func abortUnauthorized(c *gin.Context, code, message string) {
	requestID := getRequestIDFromContext(c)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, requestID))
}
