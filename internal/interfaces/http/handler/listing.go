package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appmarketplace "github.com/fadedindigo/backend/internal/application/marketplace"
)

// ListingHandler handles listing read API endpoints
type ListingHandler struct {
	BaseHandler
	listings *appmarketplace.ListingQueryService
}

// NewListingHandler creates a new ListingHandler
func NewListingHandler(listings *appmarketplace.ListingQueryService) *ListingHandler {
	return &ListingHandler{listings: listings}
}

// List returns listings matching the query filters
func (h *ListingHandler) List(c *gin.Context) {
	var query appmarketplace.ListingListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	listings, total, err := h.listings.List(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, listings, total, page, pageSize)
}

// GetByID returns a single listing
func (h *ListingHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID format")
		return
	}

	listing, err := h.listings.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, listing)
}

// Search returns listings matching a keyword query across title, description
// and brand
func (h *ListingHandler) Search(c *gin.Context) {
	keywords := c.Param("keywords")
	platform := c.Query("platform")

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.BadRequest(c, "Invalid limit")
			return
		}
		limit = parsed
	}

	listings, err := h.listings.Search(c.Request.Context(), keywords, platform, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{
		"keywords": keywords,
		"count":    len(listings),
		"results":  listings,
	})
}
