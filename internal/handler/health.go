package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Dependencies records which backing services the process came up with.
// Redis and Postgres are optional and the server degrades without them.
type Dependencies struct {
	CotBackend string
	Redis      bool
	Postgres   bool
}

type healthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
}

func availability(ok bool) string {
	if ok {
		return "connected"
	}
	return "disabled"
}

// SetDependencies is called once at startup, before the router serves.
func (h *Handler) SetDependencies(deps Dependencies) {
	h.deps = deps
}

// Health godoc
// @Summary      Health check
// @Description  Reports liveness and which optional backing services are in use
// @Tags         health
// @Produce      json
// @Success      200  {object}  healthResponse
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	backend := "configured"
	if h.deps.CotBackend == "" {
		backend = "missing"
	}
	c.JSON(http.StatusOK, healthResponse{
		Status: "healthy",
		Dependencies: map[string]string{
			"cot_backend": backend,
			"redis":       availability(h.deps.Redis),
			"postgres":    availability(h.deps.Postgres),
		},
	})
}
