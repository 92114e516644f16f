package handler

import (
	"net/http"

	"cot-dashboard/internal/chart"
	"cot-dashboard/internal/query"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

type chartResponse struct {
	Selection   chart.Selection   `json:"selection"`
	Chart       chart.Snapshot    `json:"chart"`
	Generation  uint64            `json:"generation,omitempty"`
	Applied     *bool             `json:"applied,omitempty"`
	Range       *query.DateRange  `json:"price_range,omitempty"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

type extremesRequest struct {
	Min *int64 `json:"min"`
	Max *int64 `json:"max"`
}

// GetChart godoc
// @Summary      Current chart
// @Description  Returns the session's selection and the chart configuration to render
// @Tags         chart
// @Produce      json
// @Success      200  {object}  chartResponse
// @Router       /api/chart [get]
func (h *Handler) GetChart(c *gin.Context) {
	id := currentSession(c).ID
	c.JSON(http.StatusOK, chartResponse{
		Selection: h.charts.Selection(id),
		Chart:     h.charts.Snapshot(id),
	})
}

// PutSelection godoc
// @Summary      Change the chart selection
// @Description  Fetches one trend per selected field concurrently, then the price/volume overlay when enabled, and reconciles the chart. A response for a superseded selection reports applied=false.
// @Tags         chart
// @Accept       json
// @Produce      json
// @Param        selection  body  chart.Selection  true  "Commodity, fields in click order and overlay toggle"
// @Success      200  {object}  chartResponse
// @Failure      400  {object}  map[string]string
// @Router       /api/chart/selection [put]
func (h *Handler) PutSelection(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.put-selection")
	defer span.End()

	var req chart.Selection
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	sel, err := req.Validate()
	if err != nil {
		h.fail(c, err)
		return
	}

	sess := currentSession(c)
	gen := h.charts.Begin(sess.ID, sel)
	span.SetAttributes(attribute.Int64("generation", int64(gen)))

	res := h.loader.Load(ctx, sess, sel)
	applied := h.charts.Apply(sess.ID, gen, chart.Build(res.Desired()))

	resp := chartResponse{
		Selection:   h.charts.Selection(sess.ID),
		Chart:       h.charts.Snapshot(sess.ID),
		Generation:  gen,
		Applied:     &applied,
		Range:       res.Range,
		FieldErrors: res.FieldErrors,
	}
	c.JSON(http.StatusOK, resp)
}

// PutExtremes godoc
// @Summary      Set the zoom window
// @Description  Stores the visible x-range in epoch milliseconds. Omitting both bounds resets the zoom.
// @Tags         chart
// @Accept       json
// @Produce      json
// @Param        extremes  body  extremesRequest  true  "min and max in epoch ms"
// @Success      200  {object}  chart.Snapshot
// @Failure      400  {object}  map[string]string
// @Router       /api/chart/extremes [put]
func (h *Handler) PutExtremes(c *gin.Context) {
	var req extremesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var ext *chart.Extremes
	switch {
	case req.Min == nil && req.Max == nil:
	case req.Min == nil || req.Max == nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": "min and max must be given together"})
		return
	default:
		ext = &chart.Extremes{Min: *req.Min, Max: *req.Max}
	}

	id := currentSession(c).ID
	if err := h.charts.SetExtremes(id, ext); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.charts.Snapshot(id))
}
