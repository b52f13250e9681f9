package api

import (
	"net/http"
	"time"

	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/service"

	"github.com/gin-gonic/gin"
)

// SubscriptionHandler serves client subscriptions.
type SubscriptionHandler struct {
	subscriptionService service.SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subscriptionService service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// --- Request/Response Structs ---

type CreateSubscriptionRequest struct {
	ClientID  string        `json:"clientId" binding:"required"`
	PlanID    *string       `json:"planId"`
	TrainerID *string       `json:"trainerId"` // ignored for trainers
	StartDate *string       `json:"startDate"` // YYYY-MM-DD, defaults to today
	IsActive  *bool         `json:"isActive"`
	InBody    domain.InBody `json:"inBody"`
}

type UpdateSubscriptionRequest struct {
	PlanID       *string        `json:"planId"`
	TrainerID    *string        `json:"trainerId"`
	ClearTrainer bool           `json:"clearTrainer"`
	StartDate    *string        `json:"startDate"`
	IsActive     *bool          `json:"isActive"`
	InBody       *domain.InBody `json:"inBody"`
}

type SubscriptionResponse struct {
	ID           string        `json:"id"`
	ClientID     string        `json:"clientId"`
	ClientName   string        `json:"clientName"`
	Plan         *PlanResponse `json:"plan,omitempty"`
	TrainerID    *string       `json:"trainerId,omitempty"`
	TrainerName  string        `json:"trainerName,omitempty"`
	StartDate    time.Time     `json:"startDate"`
	EndDate      *time.Time    `json:"endDate,omitempty"`
	IsActive     bool          `json:"isActive"`
	SessionsUsed int           `json:"sessionsUsed"`
	Progress     int           `json:"progressPercentage"`
	InBody       domain.InBody `json:"inBody"`
	CreatedAt    time.Time     `json:"createdAt"`
}

func MapSubscriptionToResponse(v *service.SubscriptionView) SubscriptionResponse {
	s := v.Subscription
	resp := SubscriptionResponse{
		ID:           s.ID.Hex(),
		ClientID:     s.ClientID.Hex(),
		ClientName:   v.ClientName,
		TrainerName:  v.TrainerName,
		StartDate:    s.StartDate,
		EndDate:      s.EndDate,
		IsActive:     s.IsActive,
		SessionsUsed: s.SessionsUsed,
		Progress:     v.Progress,
		InBody:       s.InBody,
		CreatedAt:    s.CreatedAt,
	}
	if v.Plan != nil {
		p := MapPlanToResponse(v.Plan)
		resp.Plan = &p
	}
	if s.TrainerID != nil {
		id := s.TrainerID.Hex()
		resp.TrainerID = &id
	}
	return resp
}

func MapSubscriptionsToResponse(views []service.SubscriptionView) []SubscriptionResponse {
	resp := make([]SubscriptionResponse, len(views))
	for i := range views {
		resp[i] = MapSubscriptionToResponse(&views[i])
	}
	return resp
}

// --- Handler Methods ---

// ListSubscriptions godoc
// @Summary List a client's subscriptions
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param client_id query string true "Client ID"
// @Success 200 {array} SubscriptionResponse
// @Router /client-subscriptions [get]
func (h *SubscriptionHandler) ListSubscriptions(c *gin.Context) {
	clientID, ok := parseObjectIDQuery(c, "client_id")
	if !ok {
		return
	}
	views, err := h.subscriptionService.ListByClient(c.Request.Context(), clientID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapSubscriptionsToResponse(views))
}

// CreateSubscription godoc
// @Summary Sell a subscription
// @Description A client may hold at most one active subscription. Trainers always become the owner.
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param subscription body CreateSubscriptionRequest true "Subscription details"
// @Success 201 {object} SubscriptionResponse
// @Failure 400 {object} gin.H "Validation error or active subscription exists"
// @Failure 404 {object} gin.H "Client or plan not found"
// @Router /client-subscriptions [post]
func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	clientID, ok := parseOptionalObjectID(c, "clientId", &req.ClientID)
	if !ok {
		return
	}
	planID, ok := parseOptionalObjectID(c, "planId", req.PlanID)
	if !ok {
		return
	}
	trainerID, ok := parseOptionalObjectID(c, "trainerId", req.TrainerID)
	if !ok {
		return
	}
	start, ok := parseDate(c, "startDate", req.StartDate)
	if !ok {
		return
	}

	view, err := h.subscriptionService.Create(c.Request.Context(), actor, service.SubscriptionInput{
		ClientID:  *clientID,
		PlanID:    planID,
		TrainerID: trainerID,
		StartDate: start,
		IsActive:  req.IsActive,
		InBody:    req.InBody,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapSubscriptionToResponse(view))
}

// GetSubscription godoc
// @Summary Get a subscription
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subscription ID"
// @Success 200 {object} SubscriptionResponse
// @Failure 404 {object} gin.H "Subscription not found"
// @Router /client-subscriptions/{id} [get]
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	id, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	view, err := h.subscriptionService.Get(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapSubscriptionToResponse(view))
}

// UpdateSubscription godoc
// @Summary Update a subscription
// @Description Reactivation is refused while another subscription of the client is active.
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subscription ID"
// @Param subscription body UpdateSubscriptionRequest true "Fields to change"
// @Success 200 {object} SubscriptionResponse
// @Failure 400 {object} gin.H "Validation error"
// @Failure 403 {object} gin.H "Forbidden"
// @Failure 404 {object} gin.H "Subscription not found"
// @Router /client-subscriptions/{id} [patch]
func (h *SubscriptionHandler) UpdateSubscription(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	planID, ok := parseOptionalObjectID(c, "planId", req.PlanID)
	if !ok {
		return
	}
	trainerID, ok := parseOptionalObjectID(c, "trainerId", req.TrainerID)
	if !ok {
		return
	}
	start, ok := parseDate(c, "startDate", req.StartDate)
	if !ok {
		return
	}

	view, err := h.subscriptionService.Update(c.Request.Context(), actor, id, service.SubscriptionPatch{
		PlanID:       planID,
		TrainerID:    trainerID,
		ClearTrainer: req.ClearTrainer,
		StartDate:    start,
		IsActive:     req.IsActive,
		InBody:       req.InBody,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapSubscriptionToResponse(view))
}

// CoveredSubscriptions godoc
// @Summary Subscriptions the trainer works with
// @Description Active subscriptions the trainer owns plus those handed over by accepted transfers.
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} SubscriptionResponse
// @Router /client-subscriptions/covered [get]
func (h *SubscriptionHandler) CoveredSubscriptions(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	views, err := h.subscriptionService.Covered(c.Request.Context(), actor)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapSubscriptionsToResponse(views))
}
