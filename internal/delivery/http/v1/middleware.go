package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const userIDCtxKey = "user_id"

// HandleAuthMiddleware verifies the bearer token (or the access token
// cookie) and stores the caller's user ID in the context. Every failure
// yields the same 401 response.
func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	accessToken, ok := extractAccessToken(c)
	if !ok {
		h.logger.Error().Msg("access token required")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	userID, err := h.auth.VerifyToken(accessToken)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to verify token")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	c.Set(userIDCtxKey, userID)
	c.Next()
}

func extractAccessToken(c *gin.Context) (string, bool) {
	const authHeader = "Authorization"
	header := c.GetHeader(authHeader)
	if header != "" {
		const bearerPrefix = "Bearer"
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != bearerPrefix || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}

	cookie, err := c.Cookie(accessTokenCookie)
	if err != nil || cookie == "" {
		return "", false
	}
	return cookie, true
}

// HandleRequestLogger logs every request once it has been served.
func (h *handlerImpl) HandleRequestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()

	status := c.Writer.Status()
	var event *zerolog.Event
	switch {
	case status >= http.StatusInternalServerError:
		event = h.logger.Error()
	case status >= http.StatusBadRequest:
		event = h.logger.Warn()
	default:
		event = h.logger.Info()
	}
	event.
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int("status", status).
		Dur("latency", time.Since(start)).
		Str("client_ip", c.ClientIP()).
		Msg("handled request")
}

func getUserID(c *gin.Context) (string, bool) {
	value, exists := c.Get(userIDCtxKey)
	if !exists {
		return "", false
	}
	userID, ok := value.(string)
	return userID, ok && userID != ""
}
