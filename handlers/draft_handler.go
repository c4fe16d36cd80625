package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"complaintdraft-backend/models"
	"complaintdraft-backend/repository"
	"complaintdraft-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DraftFinder reads archived drafts
type DraftFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*models.Draft, error)
}

// DraftHandler handles HTTP requests for archived drafts
type DraftHandler struct {
	drafts  DraftFinder
	storage storage.Storage
}

// NewDraftHandler creates a new draft handler
func NewDraftHandler(drafts DraftFinder, storage storage.Storage) *DraftHandler {
	return &DraftHandler{
		drafts:  drafts,
		storage: storage,
	}
}

// RegisterRoutes mounts the draft routes on r
func (h *DraftHandler) RegisterRoutes(r gin.IRouter) {
	drafts := r.Group("/drafts")
	{
		drafts.GET("", h.ListDrafts)
		drafts.GET("/:id", h.GetDraft)
		drafts.GET("/:id/file", h.DownloadDraft)
	}
}

// ListDrafts handles GET /api/drafts?session_id=
func (h *DraftHandler) ListDrafts(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Query("session_id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_SESSION_ID", "Invalid session_id format")
		return
	}

	drafts, err := h.drafts.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "LIST_FAILED", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    drafts,
	})
}

// GetDraft handles GET /api/drafts/:id
func (h *DraftHandler) GetDraft(c *gin.Context) {
	draft, ok := h.lookup(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    draft,
	})
}

// DownloadDraft handles GET /api/drafts/:id/file
func (h *DraftHandler) DownloadDraft(c *gin.Context) {
	draft, ok := h.lookup(c)
	if !ok {
		return
	}
	if draft.StoragePath == nil || h.storage == nil {
		respondError(c, http.StatusNotFound, "NOT_EXPORTED", "Draft was not exported")
		return
	}

	data, err := storage.ReadAll(c.Request.Context(), h.storage, *draft.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Draft file not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "DOWNLOAD_FAILED", fmt.Sprintf("Failed to download draft: %v", err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s_%s.md\"", draft.Offense, draft.ID))
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", data)
}

func (h *DraftHandler) lookup(c *gin.Context) (*models.Draft, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid draft ID format")
		return nil, false
	}

	draft, err := h.drafts.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrDraftNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Draft not found")
			return nil, false
		}
		respondError(c, http.StatusInternalServerError, "FETCH_FAILED", err.Error())
		return nil, false
	}
	return draft, true
}
