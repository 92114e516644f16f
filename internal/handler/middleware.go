package handler

import (
	"errors"
	"net/http"
	"strings"

	"cot-dashboard/internal/domain"
	"cot-dashboard/internal/session"

	"github.com/gin-gonic/gin"
)

const (
	// SessionHeader carries the session id for non-browser clients.
	SessionHeader = "X-Session-ID"
	// SessionCookie carries the session id for the browser dashboard.
	SessionCookie = "cot_session"

	sessionKey = "session"
)

func sessionID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(SessionHeader)); id != "" {
		return id
	}
	if id, err := c.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(id)
	}
	return ""
}

// RequireSession returns a Gin middleware that resolves the caller's session
// from the X-Session-ID header or the cot_session cookie. Requests without a
// stored, token-bearing session are rejected, and any chart still held for an
// expired id is released.
func (h *Handler) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := sessionID(c)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
			return
		}
		sess, err := h.sessions.Get(c.Request.Context(), id)
		if errors.Is(err, session.ErrNotFound) {
			if h.charts != nil {
				h.charts.Drop(id)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired or unknown"})
			return
		}
		if err != nil {
			h.log.WithError(err).Error("session lookup failed")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "session store unavailable"})
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func currentSession(c *gin.Context) domain.Session {
	v, _ := c.Get(sessionKey)
	sess, _ := v.(domain.Session)
	return sess
}
