package handlers

import (
	"errors"
	"math/rand"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saathichat/saathi-backend/internal/apperr"
	"github.com/saathichat/saathi-backend/internal/requestdata"
)

// friendlyUpstreamMessages is what the client sees when the completion service
// failed. The raw provider error stays in the server logs.
var friendlyUpstreamMessages = []string{
	"Aapke request ko process karne mein kuch technical difficulty aayi hai. Thoda wait karo, phir try karo?",
	"Kuch gadbad ho gayi network mein 😅 Ek baar phir se bhejo na?",
	"Server thoda busy hai abhi. Do minute ruk ke dobara try karo?",
}

func FriendlyUpstreamMessage() string {
	return friendlyUpstreamMessages[rand.Intn(len(friendlyUpstreamMessages))]
}

// RespondServiceError maps the error taxonomy onto HTTP statuses. Validation
// and not-found failures keep their message; everything else is generic.
func RespondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrTokenInvalid), errors.Is(err, apperr.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
	case errors.Is(err, apperr.ErrUpstream):
		c.JSON(http.StatusInternalServerError, gin.H{"error": FriendlyUpstreamMessage()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected server error"})
	}
}

// attachNewToken adds the rotated credential to a response payload when the
// auth middleware refreshed it. This is the only channel a new token reaches
// the client.
func attachNewToken(c *gin.Context, payload gin.H) gin.H {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd != nil && rd.WasRefreshed && rd.NewToken != "" {
		payload["new_token"] = rd.NewToken
	}
	return payload
}
