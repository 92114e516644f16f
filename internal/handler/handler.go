package handler

import (
	"errors"
	"net/http"
	"time"

	"cot-dashboard/internal/chart"
	"cot-dashboard/internal/provider"
	"cot-dashboard/internal/query"
	"cot-dashboard/internal/service"
	"cot-dashboard/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

type Handler struct {
	tracer     trace.Tracer
	log        logrus.FieldLogger
	auth       session.Authenticator
	sessions   session.Store
	sessionTTL time.Duration
	cot        *service.CotService
	prices     *service.PriceService
	loader     *query.Loader
	charts     *chart.Registry
	deps       Dependencies
}

func New(
	tracer trace.Tracer,
	log logrus.FieldLogger,
	auth session.Authenticator,
	sessions session.Store,
	sessionTTL time.Duration,
	cot *service.CotService,
	prices *service.PriceService,
	loader *query.Loader,
	charts *chart.Registry,
) *Handler {
	return &Handler{
		tracer:     tracer,
		log:        log.WithField("component", "http"),
		auth:       auth,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		cot:        cot,
		prices:     prices,
		loader:     loader,
		charts:     charts,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.POST("/auth/login", h.Login)
	api.GET("/commodities", h.Commodities)
	api.GET("/fields", h.Fields)

	authed := api.Group("", h.RequireSession())
	authed.POST("/auth/logout", h.Logout)
	authed.GET("/auth/session", h.CurrentSession)

	authed.POST("/cot/ingest", h.Ingest)
	authed.GET("/cot/:commodity", h.List)
	authed.GET("/cot/:commodity/latest", h.Latest)
	authed.GET("/cot/:commodity/history", h.History)
	authed.GET("/cot/:commodity/view", h.View)
	authed.GET("/cot/:commodity/trend/:field", h.Trend)

	authed.GET("/prices/:commodity", h.PriceOverlay)

	authed.GET("/chart", h.GetChart)
	authed.PUT("/chart/selection", h.PutSelection)
	authed.PUT("/chart/extremes", h.PutExtremes)

	authed.GET("/ingest/runs", h.IngestRuns)
}

// errorStatus maps service and backend errors onto the status returned to the
// browser.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrUnsupportedCommodity),
		errors.Is(err, service.ErrUnknownField),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, chart.ErrUnknownCommodity),
		errors.Is(err, chart.ErrUnknownField),
		errors.Is(err, chart.ErrInvalidExtremes):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrHistoryUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, provider.ErrNoToken):
		return http.StatusBadGateway
	}

	var apiErr *provider.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Unauthorized():
			return http.StatusUnauthorized
		case apiErr.Status >= 400 && apiErr.Status < 500:
			return apiErr.Status
		default:
			return http.StatusBadGateway
		}
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.WithField("path", c.FullPath()).WithError(err).Error("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
