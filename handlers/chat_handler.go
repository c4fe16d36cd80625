package handlers

import (
	"net/http"

	"complaintdraft-backend/models"
	"complaintdraft-backend/service"

	"github.com/gin-gonic/gin"
)

// ChatHandler handles HTTP requests for intake sessions
type ChatHandler struct {
	intakeService *service.IntakeService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(intakeService *service.IntakeService) *ChatHandler {
	return &ChatHandler{
		intakeService: intakeService,
	}
}

// RegisterRoutes mounts the chat and offense routes on r
func (h *ChatHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/offenses/:key", h.GetOffense)

	chat := r.Group("/chat")
	{
		chat.POST("/init", h.Init)
		chat.POST("/send", h.Send)
		chat.POST("/triage", h.SelectTriageOption)
		chat.POST("/compose", h.Compose)
		chat.GET("/sessions/:id", h.GetSession)
	}
}

// InitRequest represents the request body for starting a session
type InitRequest struct {
	Offense string `json:"offense" binding:"required"`
}

// SendRequest represents the request body for a user turn
type SendRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Message   string `json:"message" binding:"required"`
}

// TriageRequest represents the request body for choosing a triage option
type TriageRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	OptionKey string `json:"option_key" binding:"required"`
}

// ComposeRequest represents the request body for composing a draft
type ComposeRequest struct {
	SessionID     string   `json:"session_id" binding:"required"`
	Message       string   `json:"message"`
	EvidenceNotes []string `json:"evidence_notes"`
}

// ProgressResponse reports element coverage
type ProgressResponse struct {
	Complete  bool             `json:"complete"`
	Elements  models.Collected `json:"elements"`
	Satisfied int              `json:"satisfied"`
	Total     int              `json:"total"`
}

// TriageResponse is present when triage fires
type TriageResponse struct {
	Reason   string                `json:"reason"`
	Advisory string                `json:"advisory"`
	Options  []models.TriageOption `json:"options"`
}

// SendResponse represents the response body of a user turn
type SendResponse struct {
	SessionID      string            `json:"session_id"`
	Reply          string            `json:"reply"`
	FollowUp       *service.FollowUp `json:"follow_up,omitempty"`
	Caution        bool              `json:"caution"`
	CautionMessage string            `json:"caution_message,omitempty"`
	Progress       ProgressResponse  `json:"progress"`
	Triage         *TriageResponse   `json:"triage,omitempty"`
}

func invalidRequest(c *gin.Context, err error) {
	respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
}

// GetOffense handles GET /api/offenses/:key
func (h *ChatHandler) GetOffense(c *gin.Context) {
	offense, err := h.intakeService.Offense(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"offense":           offense.Offense,
			"title":             offense.Title,
			"statute_reference": offense.StatuteReference,
			"elements":          offense.Elements,
			"templates":         offense.Templates,
			"includes":          offense.Includes,
			"party_info":        offense.PartyInfo,
		},
	})
}

// Init handles POST /api/chat/init
func (h *ChatHandler) Init(c *gin.Context) {
	var req InitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	result, err := h.intakeService.Init(c.Request.Context(), req.Offense)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"session_id": result.SessionID.String(),
			"message":    result.Message,
		},
	})
}

// Send handles POST /api/chat/send
func (h *ChatHandler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	result, err := h.intakeService.Send(c.Request.Context(), service.SendRequest{
		SessionID: req.SessionID,
		Message:   req.Message,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp := SendResponse{
		SessionID:      result.SessionID.String(),
		Reply:          result.Reply,
		FollowUp:       result.FollowUp,
		Caution:        result.Caution,
		CautionMessage: result.CautionMessage,
		Progress: ProgressResponse{
			Complete:  result.Progress.Complete,
			Elements:  result.Progress.Elements,
			Satisfied: result.Progress.Satisfied,
			Total:     result.Progress.Total,
		},
	}
	if result.Triage != nil {
		resp.Triage = &TriageResponse{
			Reason:   result.Triage.Reason,
			Advisory: result.Triage.Advisory,
			Options:  result.Triage.Options,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    resp,
	})
}

// SelectTriageOption handles POST /api/chat/triage
func (h *ChatHandler) SelectTriageOption(c *gin.Context) {
	var req TriageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	result, err := h.intakeService.SelectTriageOption(c.Request.Context(), service.SelectTriageOptionRequest{
		SessionID: req.SessionID,
		OptionKey: req.OptionKey,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"message":  result.Message,
			"offense":  result.Offense,
			"switched": result.Switched,
		},
	})
}

// Compose handles POST /api/chat/compose
func (h *ChatHandler) Compose(c *gin.Context) {
	var req ComposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	result, err := h.intakeService.Compose(c.Request.Context(), service.ComposeRequest{
		SessionID:     req.SessionID,
		Message:       req.Message,
		EvidenceNotes: req.EvidenceNotes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Draft,
	})
}

// GetSession handles GET /api/chat/sessions/:id
func (h *ChatHandler) GetSession(c *gin.Context) {
	session, err := h.intakeService.Session(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    session,
	})
}
