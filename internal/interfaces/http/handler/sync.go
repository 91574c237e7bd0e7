package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	appmarketplace "github.com/fadedindigo/backend/internal/application/marketplace"
	"github.com/fadedindigo/backend/internal/interfaces/http/middleware"
)

// SyncHandler handles sync trigger and job tracking API endpoints
type SyncHandler struct {
	BaseHandler
	syncs *appmarketplace.SyncService
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(syncs *appmarketplace.SyncService) *SyncHandler {
	return &SyncHandler{syncs: syncs}
}

// Trigger starts a sync run for one platform or all syncable platforms
func (h *SyncHandler) Trigger(c *gin.Context) {
	var req appmarketplace.TriggerSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if _, ok := err.(validator.ValidationErrors); ok {
			middleware.HandleValidationError(c, err)
			return
		}
		h.BadRequest(c, err.Error())
		return
	}

	responses, err := h.syncs.Trigger(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	// A single-platform trigger answers with one object, "all" with the
	// per-platform list.
	if len(responses) == 1 {
		h.Accepted(c, responses[0])
		return
	}
	h.Accepted(c, responses)
}

// Status returns the state of a dispatched sync task
func (h *SyncHandler) Status(c *gin.Context) {
	taskID := c.Param("task_id")

	job, err := h.syncs.Status(c.Request.Context(), taskID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, job)
}

// List returns sync job history, newest first
func (h *SyncHandler) List(c *gin.Context) {
	var query appmarketplace.SyncJobListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	jobs, err := h.syncs.ListJobs(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, jobs)
}

// GetByID returns a single sync job
func (h *SyncHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid job ID format")
		return
	}

	job, err := h.syncs.GetJob(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, job)
}
