package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/saathichat/saathi-backend/internal/logger"
	"github.com/saathichat/saathi-backend/internal/requestdata"
	"github.com/saathichat/saathi-backend/internal/services"
)

type AuthMiddleware struct {
	log          *logger.Logger
	tokenService services.TokenService
}

func NewAuthMiddleware(log *logger.Logger, tokenService services.TokenService) *AuthMiddleware {
	middlewareLog := log.With("middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLog, tokenService: tokenService}
}

// RequireAuth verifies the bearer token, rotating it silently when it is merely
// expired. The rotated token rides the request context so handlers can return
// it; there is no separate refresh endpoint.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearer(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}

		fcmToken := c.GetHeader("X-FCM-Token")
		result, err := am.tokenService.VerifyAndRefresh(c.Request.Context(), tokenString, fcmToken)
		if err != nil {
			am.log.Warn("Authentication failed", "error", err)
			// Never leak verification detail to the client.
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
			return
		}

		rd := &requestdata.RequestData{
			Phone:        result.Phone,
			TokenString:  result.Token,
			NewToken:     result.NewToken,
			WasRefreshed: result.WasRefreshed,
		}
		ctx := requestdata.WithRequestData(c.Request.Context(), rd)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func extractBearer(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
