package handler

import (
	"net/http"

	"cot-dashboard/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

type loginResponse struct {
	SessionID string `json:"session_id"`
	Username  string `json:"username"`
	Role      string `json:"role,omitempty"`
}

// Login godoc
// @Summary      Log in to the COT backend
// @Description  Exchanges credentials for a backend token and opens a dashboard session. The session id is returned and set as the cot_session cookie.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials  body  domain.Credentials  true  "Username (or email) and password"
// @Success      200  {object}  loginResponse
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.login")
	defer span.End()

	var creds domain.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if creds.LoginName() == "" || creds.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}
	span.SetAttributes(attribute.String("username", creds.LoginName()))

	sess, err := h.auth.Login(ctx, creds)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.sessions.Save(ctx, sess); err != nil {
		h.log.WithError(err).Error("failed to store session")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session store unavailable"})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, sess.ID, int(h.sessionTTL.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, loginResponse{SessionID: sess.ID, Username: sess.Username, Role: sess.Role})
}

// Logout godoc
// @Summary      Log out
// @Description  Deletes the session and its chart
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /api/auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	sess := currentSession(c)
	if err := h.sessions.Delete(c.Request.Context(), sess.ID); err != nil {
		h.log.WithError(err).Warn("failed to delete session")
	}
	h.charts.Drop(sess.ID)
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

// CurrentSession godoc
// @Summary      Current session
// @Description  Returns the logged-in user and role. The token is never exposed.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.Session
// @Failure      401  {object}  map[string]string
// @Router       /api/auth/session [get]
func (h *Handler) CurrentSession(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c))
}
