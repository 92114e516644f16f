package handler

import (
	"net/http"
	"strconv"

	"cot-dashboard/internal/domain"
	"cot-dashboard/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

type commodityInfo struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

type fieldInfo struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Commodities godoc
// @Summary      Supported commodities
// @Description  Lists the commodities and the futures ticker used for their price overlay
// @Tags         cot
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/commodities [get]
func (h *Handler) Commodities(c *gin.Context) {
	out := make([]commodityInfo, 0, len(domain.SupportedCommodities))
	for _, name := range domain.SupportedCommodities {
		out = append(out, commodityInfo{Name: name, Symbol: domain.CommoditySymbol[name]})
	}
	c.JSON(http.StatusOK, gin.H{"commodities": out})
}

// Fields godoc
// @Summary      COT field taxonomy
// @Description  Returns the field categories with their explanations and every field with its display name
// @Tags         cot
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/fields [get]
func (h *Handler) Fields(c *gin.Context) {
	fields := make([]fieldInfo, 0, len(domain.AllFields))
	for _, f := range domain.AllFields {
		fields = append(fields, fieldInfo{Name: f, Label: domain.FieldDisplayName(f)})
	}
	c.JSON(http.StatusOK, gin.H{
		"categories": domain.FieldCategories,
		"fields":     fields,
	})
}

// Ingest godoc
// @Summary      Ingest COT data
// @Description  Asks the backend to pull reports for a commodity and date range
// @Tags         cot
// @Accept       json
// @Produce      json
// @Param        request  body  service.IngestRequest  true  "Commodity and optional YYYY-MM-DD dates"
// @Success      200  {object}  domain.IngestResult
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/cot/ingest [post]
func (h *Handler) Ingest(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.ingest")
	defer span.End()

	var req service.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	sess := currentSession(c)
	req.TriggeredBy = "http:" + sess.Username
	span.SetAttributes(attribute.String("commodity", req.Commodity))

	result, err := h.cot.Ingest(ctx, sess, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// List godoc
// @Summary      All reports for a commodity
// @Tags         cot
// @Produce      json
// @Param        commodity  path  string  true  "Commodity (SILVER, GOLD, COPPER, CRUDE OIL)"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/cot/{commodity} [get]
func (h *Handler) List(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.list")
	defer span.End()

	records, err := h.cot.List(ctx, currentSession(c), c.Param("commodity"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": nonNil(records)})
}

// Latest godoc
// @Summary      Latest report
// @Description  Returns the newest report, or null when the backend has none
// @Tags         cot
// @Produce      json
// @Param        commodity  path  string  true  "Commodity"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/cot/{commodity}/latest [get]
func (h *Handler) Latest(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.latest")
	defer span.End()

	record, err := h.cot.Latest(ctx, currentSession(c), c.Param("commodity"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"latest": record})
}

// History godoc
// @Summary      Reports in a date range
// @Description  Both dates give that range, only start_date runs to today, only end_date starts at 1900-01-01. Without dates the list is empty.
// @Tags         cot
// @Produce      json
// @Param        commodity   path   string  true   "Commodity"
// @Param        start_date  query  string  false  "YYYY-MM-DD"
// @Param        end_date    query  string  false  "YYYY-MM-DD"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/cot/{commodity}/history [get]
func (h *Handler) History(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.history")
	defer span.End()

	records, err := h.cot.History(ctx, currentSession(c), c.Param("commodity"), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": nonNil(records)})
}

// View godoc
// @Summary      Dashboard data view
// @Description  Latest report plus the filtered history for one commodity
// @Tags         cot
// @Produce      json
// @Param        commodity   path   string  true   "Commodity"
// @Param        start_date  query  string  false  "YYYY-MM-DD"
// @Param        end_date    query  string  false  "YYYY-MM-DD"
// @Success      200  {object}  service.View
// @Failure      400  {object}  map[string]string
// @Router       /api/cot/{commodity}/view [get]
func (h *Handler) View(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.view")
	defer span.End()

	view, err := h.cot.LoadView(ctx, currentSession(c), c.Param("commodity"), c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Trend godoc
// @Summary      Field trend
// @Tags         cot
// @Produce      json
// @Param        commodity  path   string  true   "Commodity"
// @Param        field      path   string  true   "COT field, e.g. m_money_positions_long_all"
// @Param        limit      query  int     false  "Maximum points (default 999)"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/cot/{commodity}/trend/{field} [get]
func (h *Handler) Trend(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.trend")
	defer span.End()

	field := c.Param("field")
	span.SetAttributes(attribute.String("field", field))

	limit := 0
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	points, err := h.cot.Trend(ctx, currentSession(c), c.Param("commodity"), field, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	if points == nil {
		points = []domain.TrendPoint{}
	}
	c.JSON(http.StatusOK, gin.H{
		"field": field,
		"label": domain.FieldDisplayName(field),
		"data":  points,
	})
}

// IngestRuns godoc
// @Summary      Ingest history
// @Description  Ingest attempts recorded by this service, newest first
// @Tags         cot
// @Produce      json
// @Param        commodity  query  string  false  "Filter by commodity"
// @Param        limit      query  int     false  "Maximum rows (default 20, max 200)"
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Router       /api/ingest/runs [get]
func (h *Handler) IngestRuns(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.ingest-runs")
	defer span.End()

	limit, _ := strconv.Atoi(c.Query("limit"))
	runs, err := h.cot.IngestRuns(ctx, c.Query("commodity"), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	if runs == nil {
		runs = []domain.IngestRun{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func nonNil(records []domain.CotRecord) []domain.CotRecord {
	if records == nil {
		return []domain.CotRecord{}
	}
	return records
}
