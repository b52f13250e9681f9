package api

import (
	"net/http"
	"time"

	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/service"

	"github.com/gin-gonic/gin"
)

// SessionHandler serves 1-on-1 training sessions and the legacy visit log.
type SessionHandler struct {
	sessionService    service.SessionService
	sessionLogService service.SessionLogService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService service.SessionService, sessionLogService service.SessionLogService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService, sessionLogService: sessionLogService}
}

// --- Request/Response Structs ---

type SaveSessionRequest struct {
	Subscription  string            `json:"subscription" binding:"required"`
	SessionNumber int               `json:"session_number" binding:"required,min=1"`
	Name          string            `json:"name"`
	Exercises     []domain.Exercise `json:"exercises"`
	MarkComplete  bool              `json:"mark_complete"`
}

type CreateSessionLogRequest struct {
	Subscription  string `json:"subscription" binding:"required"`
	SessionNumber int    `json:"session_number" binding:"required,min=1"`
	SplitOrder    *int   `json:"split_order"`
}

type SessionDataResponse struct {
	ID             *string           `json:"id"` // null for a simulated preview
	SubscriptionID string            `json:"subscription"`
	SessionNumber  int               `json:"session_number"`
	Name           string            `json:"name"`
	Exercises      []domain.Exercise `json:"exercises"`
	IsCompleted    bool              `json:"is_completed"`
	DateCompleted  *time.Time        `json:"date_completed,omitempty"`
	CompletedBy    *string           `json:"completed_by,omitempty"`
	TrainerName    string            `json:"trainer_name,omitempty"`
}

type HistoryEntryResponse struct {
	CyclePosition int                 `json:"cycle_position"`
	Session       SessionDataResponse `json:"session"`
}

func MapSessionViewToResponse(v *service.SessionView) SessionDataResponse {
	resp := SessionDataResponse{
		SubscriptionID: v.SubscriptionID.Hex(),
		SessionNumber:  v.SessionNumber,
		Name:           v.Name,
		Exercises:      v.Exercises,
		IsCompleted:    v.IsCompleted,
		DateCompleted:  v.DateCompleted,
		TrainerName:    v.TrainerName,
	}
	if v.ID != nil {
		id := v.ID.Hex()
		resp.ID = &id
	}
	if v.CompletedBy != nil {
		by := v.CompletedBy.Hex()
		resp.CompletedBy = &by
	}
	if resp.Exercises == nil {
		resp.Exercises = []domain.Exercise{}
	}
	return resp
}

func MapSessionToResponse(s *domain.TrainingSession) SessionDataResponse {
	id := s.ID
	return MapSessionViewToResponse(&service.SessionView{
		ID:             &id,
		SubscriptionID: s.SubscriptionID,
		SessionNumber:  s.SessionNumber,
		Name:           s.Name,
		Exercises:      s.Exercises,
		IsCompleted:    s.IsCompleted,
		DateCompleted:  s.DateCompleted,
		CompletedBy:    s.CompletedBy,
	})
}

// --- Handler Methods ---

// GetSessionData godoc
// @Summary Get session data
// @Description Returns the persisted session or a preview simulated from the training plan.
// @Tags Training Sessions
// @Produce json
// @Security BearerAuth
// @Param subscription query string true "Subscription ID"
// @Param session_number query int true "Session number (1-based)"
// @Success 200 {object} SessionDataResponse
// @Failure 404 {object} gin.H "Subscription not found"
// @Router /training-sessions/get-data [get]
func (h *SessionHandler) GetSessionData(c *gin.Context) {
	subID, ok := parseObjectIDQuery(c, "subscription")
	if !ok {
		return
	}
	number, ok := parseIntQuery(c, "session_number", 0)
	if !ok {
		return
	}
	if number < 1 {
		abortWithError(c, http.StatusBadRequest, "Query parameter 'session_number' must be a positive integer.")
		return
	}

	view, err := h.sessionService.GetOrSimulate(c.Request.Context(), subID, number)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapSessionViewToResponse(view))
}

// SaveSessionData godoc
// @Summary Save session data
// @Description Replaces the session's exercises and optionally marks it completed. Completed sessions are locked to their completer.
// @Tags Training Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param session body SaveSessionRequest true "Session data"
// @Success 200 {object} gin.H "{status: saved}"
// @Failure 400 {object} gin.H "Validation error"
// @Failure 403 {object} gin.H "Session locked by another trainer"
// @Failure 404 {object} gin.H "Subscription not found"
// @Router /training-sessions/save-data [post]
func (h *SessionHandler) SaveSessionData(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req SaveSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	subID, ok := parseOptionalObjectID(c, "subscription", &req.Subscription)
	if !ok {
		return
	}

	err := h.sessionService.Save(c.Request.Context(), actor, service.SaveSessionInput{
		SubscriptionID: *subID,
		SessionNumber:  req.SessionNumber,
		Name:           req.Name,
		Exercises:      req.Exercises,
		MarkComplete:   req.MarkComplete,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

// SessionHistory godoc
// @Summary Latest completed session per cycle position
// @Tags Training Sessions
// @Produce json
// @Security BearerAuth
// @Param subscription query string true "Subscription ID"
// @Success 200 {array} HistoryEntryResponse
// @Router /training-sessions/history [get]
func (h *SessionHandler) SessionHistory(c *gin.Context) {
	subID, ok := parseObjectIDQuery(c, "subscription")
	if !ok {
		return
	}
	entries, err := h.sessionService.History(c.Request.Context(), subID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	resp := make([]HistoryEntryResponse, len(entries))
	for i := range entries {
		resp[i] = HistoryEntryResponse{
			CyclePosition: entries[i].CyclePosition,
			Session:       MapSessionToResponse(&entries[i].Session),
		}
	}
	c.JSON(http.StatusOK, resp)
}

// ListSessions godoc
// @Summary List persisted sessions of a subscription
// @Tags Training Sessions
// @Produce json
// @Security BearerAuth
// @Param subscription query string true "Subscription ID"
// @Param is_completed query bool false "Filter by completion"
// @Success 200 {array} SessionDataResponse
// @Router /training-sessions [get]
func (h *SessionHandler) ListSessions(c *gin.Context) {
	subID, ok := parseObjectIDQuery(c, "subscription")
	if !ok {
		return
	}
	completed, ok := parseBoolQuery(c, "is_completed")
	if !ok {
		return
	}
	sessions, err := h.sessionService.List(c.Request.Context(), subID, completed)
	if err != nil {
		respondWithError(c, err)
		return
	}
	resp := make([]SessionDataResponse, len(sessions))
	for i := range sessions {
		resp[i] = MapSessionToResponse(&sessions[i])
	}
	c.JSON(http.StatusOK, resp)
}

// CreateSessionLog godoc
// @Summary Record a visit in the legacy session log
// @Tags Training Sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param log body CreateSessionLogRequest true "Visit"
// @Success 201 {object} domain.SessionLog
// @Failure 400 {object} gin.H "Duplicate session number"
// @Failure 404 {object} gin.H "Subscription not found"
// @Router /session-logs [post]
func (h *SessionHandler) CreateSessionLog(c *gin.Context) {
	var req CreateSessionLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	subID, ok := parseOptionalObjectID(c, "subscription", &req.Subscription)
	if !ok {
		return
	}
	entry, err := h.sessionLogService.Create(c.Request.Context(), *subID, req.SessionNumber, req.SplitOrder)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}
