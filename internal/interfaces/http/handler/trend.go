package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appmarketplace "github.com/fadedindigo/backend/internal/application/marketplace"
)

// TrendHandler handles market trend API endpoints
type TrendHandler struct {
	BaseHandler
	trends *appmarketplace.TrendService
}

// NewTrendHandler creates a new TrendHandler
func NewTrendHandler(trends *appmarketplace.TrendService) *TrendHandler {
	return &TrendHandler{trends: trends}
}

// Summary returns aggregate market statistics over a lookback window
func (h *TrendHandler) Summary(c *gin.Context) {
	days := 7
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.BadRequest(c, "Invalid days")
			return
		}
		days = parsed
	}

	summary, err := h.trends.Summary(c.Request.Context(), days)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}
