package handler

import (
	"net/http"

	"cot-dashboard/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// PriceOverlay godoc
// @Summary      Daily price and volume overlay
// @Description  Returns daily bars for the commodity's futures ticker. When the upstream is rate limited the list is empty.
// @Tags         prices
// @Produce      json
// @Param        commodity   path   string  true   "Commodity"
// @Param        start_date  query  string  false  "YYYY-MM-DD, defaults to the lookback window"
// @Param        end_date    query  string  false  "YYYY-MM-DD, defaults to today"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/prices/{commodity} [get]
func (h *Handler) PriceOverlay(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.price-overlay")
	defer span.End()

	commodity, ok := domain.NormalizeCommodity(c.Param("commodity"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":                 "unsupported commodity: " + c.Param("commodity"),
			"supported_commodities": domain.SupportedCommodities,
		})
		return
	}
	span.SetAttributes(attribute.String("commodity", commodity))

	start, end := h.prices.WarmRange()
	if v := c.Query("start_date"); v != "" {
		start = v
	}
	if v := c.Query("end_date"); v != "" {
		end = v
	}

	points, err := h.prices.Overlay(ctx, currentSession(c), commodity, start, end)
	if err != nil {
		h.fail(c, err)
		return
	}
	if points == nil {
		points = []domain.PricePoint{}
	}
	c.JSON(http.StatusOK, gin.H{
		"commodity":  commodity,
		"symbol":     domain.SymbolFor(commodity),
		"start_date": start,
		"end_date":   end,
		"prices":     points,
	})
}
