package api

import (
	"net/http"
	"time"

	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/service"

	"github.com/gin-gonic/gin"
)

// GroupHandler serves group training: the weekly roster, templates and completed sessions.
type GroupHandler struct {
	groupService service.GroupService
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(groupService service.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// --- Request/Response Structs ---

type AddScheduleRequest struct {
	CoachID   *string `json:"coachId"` // trainers always schedule themselves
	ClientID  string  `json:"clientId" binding:"required"`
	DayOfWeek int     `json:"dayOfWeek" binding:"min=0,max=6"`
	Time      string  `json:"time" binding:"required"` // HH:MM
}

type ScheduleEntryResponse struct {
	ID             string       `json:"id"`
	CoachID        string       `json:"coachId"`
	CoachName      string       `json:"coachName"`
	ClientID       string       `json:"clientId"`
	ClientName     string       `json:"clientName"`
	DayOfWeek      time.Weekday `json:"dayOfWeek"`
	Time           string       `json:"time"`
	NextOccurrence time.Time    `json:"nextOccurrence"`
}

type CreateTemplateRequest struct {
	Name      string                         `json:"name" binding:"required"`
	Exercises []domain.GroupTemplateExercise `json:"exercises"`
}

type ParticipantRequest struct {
	ClientID string `json:"clientId" binding:"required"`
	Note     string `json:"note"`
}

type CompleteGroupSessionRequest struct {
	Date         *string                `json:"date"` // defaults to today
	DayName      string                 `json:"dayName"`
	Exercises    []domain.GroupExercise `json:"exercises"`
	Participants []ParticipantRequest   `json:"participants" binding:"required,min=1,dive"`
}

type GroupHistoryResponse struct {
	Results  []domain.GroupSessionLog `json:"results"`
	Total    int64                    `json:"total"`
	Page     int                      `json:"page"`
	PageSize int                      `json:"pageSize"`
}

func MapScheduleEntryToResponse(v *service.ScheduleEntryView) ScheduleEntryResponse {
	return ScheduleEntryResponse{
		ID:             v.Entry.ID.Hex(),
		CoachID:        v.Entry.CoachID.Hex(),
		CoachName:      v.CoachName,
		ClientID:       v.Entry.ClientID.Hex(),
		ClientName:     v.ClientName,
		DayOfWeek:      v.Entry.DayOfWeek,
		Time:           v.Entry.Time,
		NextOccurrence: v.NextOccurrence,
	}
}

// --- Handler Methods ---

// GetSchedule godoc
// @Summary Weekly group roster
// @Tags Group Training
// @Produce json
// @Security BearerAuth
// @Param coach_id query string false "Only this coach"
// @Success 200 {array} ScheduleEntryResponse
// @Router /group-training/schedule [get]
func (h *GroupHandler) GetSchedule(c *gin.Context) {
	raw := c.Query("coach_id")
	coachID, ok := parseOptionalObjectID(c, "coach_id", &raw)
	if !ok {
		return
	}
	entries, err := h.groupService.Schedule(c.Request.Context(), coachID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	resp := make([]ScheduleEntryResponse, len(entries))
	for i := range entries {
		resp[i] = MapScheduleEntryToResponse(&entries[i])
	}
	c.JSON(http.StatusOK, resp)
}

// AddToSchedule godoc
// @Summary Put a client into a weekly slot
// @Tags Group Training
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param entry body AddScheduleRequest true "Slot"
// @Success 201 {object} domain.CoachSchedule
// @Failure 400 {object} gin.H "Validation error or slot taken"
// @Router /group-training/schedule [post]
func (h *GroupHandler) AddToSchedule(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req AddScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	coachID, ok := parseOptionalObjectID(c, "coachId", req.CoachID)
	if !ok {
		return
	}
	clientID, ok := parseOptionalObjectID(c, "clientId", &req.ClientID)
	if !ok {
		return
	}

	in := service.ScheduleInput{ClientID: *clientID, DayOfWeek: time.Weekday(req.DayOfWeek), Time: req.Time}
	if coachID != nil {
		in.CoachID = *coachID
	}
	entry, err := h.groupService.AddToSchedule(c.Request.Context(), actor, in)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// RemoveFromSchedule godoc
// @Summary Remove a roster entry
// @Tags Group Training
// @Security BearerAuth
// @Param id path string true "Schedule entry ID"
// @Success 204 "No Content"
// @Failure 404 {object} gin.H "Entry not found"
// @Router /group-training/schedule/{id} [delete]
func (h *GroupHandler) RemoveFromSchedule(c *gin.Context) {
	id, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.groupService.RemoveFromSchedule(c.Request.Context(), id); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CompleteSession godoc
// @Summary Record a finished group session
// @Description Deducts one unit from each participant's active subscription.
// @Tags Group Training
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param session body CompleteGroupSessionRequest true "Session"
// @Success 201 {object} domain.GroupSessionLog
// @Failure 400 {object} gin.H "Validation error"
// @Router /group-training/complete-session [post]
func (h *GroupHandler) CompleteSession(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req CompleteGroupSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	date, ok := parseDate(c, "date", req.Date)
	if !ok {
		return
	}
	participants := make([]service.ParticipantInput, 0, len(req.Participants))
	for i := range req.Participants {
		id, ok := parseOptionalObjectID(c, "participants.clientId", &req.Participants[i].ClientID)
		if !ok {
			return
		}
		participants = append(participants, service.ParticipantInput{ClientID: *id, Note: req.Participants[i].Note})
	}

	entry, err := h.groupService.CompleteSession(c.Request.Context(), actor, service.CompleteGroupInput{
		Date:         date,
		DayName:      req.DayName,
		Exercises:    req.Exercises,
		Participants: participants,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// History godoc
// @Summary Group session history, newest first
// @Tags Group Training
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (1-based)"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} GroupHistoryResponse
// @Router /group-training/history [get]
func (h *GroupHandler) History(c *gin.Context) {
	page, ok := parseIntQuery(c, "page", 1)
	if !ok {
		return
	}
	pageSize, ok := parseIntQuery(c, "page_size", defaultPageSize)
	if !ok {
		return
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	logs, total, err := h.groupService.History(c.Request.Context(), int64(page), int64(pageSize))
	if err != nil {
		respondWithError(c, err)
		return
	}
	if logs == nil {
		logs = []domain.GroupSessionLog{}
	}
	c.JSON(http.StatusOK, GroupHistoryResponse{Results: logs, Total: total, Page: page, PageSize: pageSize})
}

// ClientHistory godoc
// @Summary Group sessions a client attended
// @Description Exercise results are narrowed to the client's own.
// @Tags Group Training
// @Produce json
// @Security BearerAuth
// @Param client_id query string true "Client ID"
// @Success 200 {array} domain.GroupSessionLog
// @Router /group-training/client-history [get]
func (h *GroupHandler) ClientHistory(c *gin.Context) {
	clientID, ok := parseObjectIDQuery(c, "client_id")
	if !ok {
		return
	}
	logs, err := h.groupService.ClientHistory(c.Request.Context(), clientID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if logs == nil {
		logs = []domain.GroupSessionLog{}
	}
	c.JSON(http.StatusOK, logs)
}

// GetSession godoc
// @Summary Get one group session
// @Tags Group Training
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group session ID"
// @Success 200 {object} domain.GroupSessionLog
// @Failure 404 {object} gin.H "Group session not found"
// @Router /group-training/{id} [get]
func (h *GroupHandler) GetSession(c *gin.Context) {
	id, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	entry, err := h.groupService.Get(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// ListTemplates godoc
// @Summary List group workout templates
// @Tags Group Templates
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.GroupTemplate
// @Router /group-templates [get]
func (h *GroupHandler) ListTemplates(c *gin.Context) {
	templates, err := h.groupService.ListTemplates(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	if templates == nil {
		templates = []domain.GroupTemplate{}
	}
	c.JSON(http.StatusOK, templates)
}

// CreateTemplate godoc
// @Summary Create a group workout template
// @Tags Group Templates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param template body CreateTemplateRequest true "Template"
// @Success 201 {object} domain.GroupTemplate
// @Failure 400 {object} gin.H "Validation error"
// @Router /group-templates [post]
func (h *GroupHandler) CreateTemplate(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	tpl, err := h.groupService.CreateTemplate(c.Request.Context(), actor, req.Name, req.Exercises)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tpl)
}

// DeleteTemplate godoc
// @Summary Delete a group workout template
// @Tags Group Templates
// @Security BearerAuth
// @Param id path string true "Template ID"
// @Success 204 "No Content"
// @Failure 404 {object} gin.H "Template not found"
// @Router /group-templates/{id} [delete]
func (h *GroupHandler) DeleteTemplate(c *gin.Context) {
	id, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.groupService.DeleteTemplate(c.Request.Context(), id); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
