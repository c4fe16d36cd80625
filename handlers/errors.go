package handlers

import (
	"errors"
	"net/http"

	"complaintdraft-backend/schema"
	"complaintdraft-backend/service"

	"github.com/gin-gonic/gin"
)

// respondError writes the standard error envelope
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondServiceError maps intake service errors to HTTP statuses
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		respondError(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found")
	case errors.Is(err, service.ErrUnknownTriageOption):
		respondError(c, http.StatusBadRequest, "UNKNOWN_TRIAGE_OPTION", err.Error())
	case errors.Is(err, service.ErrEmptyMessage):
		respondError(c, http.StatusBadRequest, "EMPTY_MESSAGE", "Message must not be empty")
	case errors.Is(err, schema.ErrInvalidKey):
		respondError(c, http.StatusBadRequest, "INVALID_OFFENSE", err.Error())
	case errors.Is(err, schema.ErrSchemaNotFound):
		respondError(c, http.StatusNotFound, "OFFENSE_NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrCompositionFailed):
		respondError(c, http.StatusBadGateway, "COMPOSITION_FAILED", err.Error())
	case service.IsConfigurationError(err):
		respondError(c, http.StatusInternalServerError, "SCHEMA_CONFIGURATION_ERROR", err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}
