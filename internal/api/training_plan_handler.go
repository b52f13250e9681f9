package api

import (
	"net/http"
	"strconv"
	"time"

	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/service"

	"github.com/gin-gonic/gin"
)

// TrainingPlanHandler serves the cyclic split programs.
type TrainingPlanHandler struct {
	trainingPlanService service.TrainingPlanService
}

// NewTrainingPlanHandler creates a new TrainingPlanHandler.
func NewTrainingPlanHandler(trainingPlanService service.TrainingPlanService) *TrainingPlanHandler {
	return &TrainingPlanHandler{trainingPlanService: trainingPlanService}
}

type CreateTrainingPlanRequest struct {
	SubscriptionID string   `json:"subscriptionId" binding:"required"`
	CycleLength    int      `json:"cycleLength" binding:"required,min=1"`
	DayNames       []string `json:"dayNames"`
}

type UpdateSplitExercisesRequest struct {
	Exercises []domain.Exercise `json:"exercises"`
}

type TrainingPlanResponse struct {
	ID             string         `json:"id"`
	SubscriptionID string         `json:"subscriptionId"`
	CycleLength    int            `json:"cycleLength"`
	Splits         []domain.Split `json:"splits"`
	CreatedBy      string         `json:"createdBy"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func MapTrainingPlanToResponse(p *domain.TrainingPlan) TrainingPlanResponse {
	splits := p.Splits
	if splits == nil {
		splits = []domain.Split{}
	}
	return TrainingPlanResponse{
		ID:             p.ID.Hex(),
		SubscriptionID: p.SubscriptionID.Hex(),
		CycleLength:    p.CycleLength,
		Splits:         splits,
		CreatedBy:      p.CreatedBy.Hex(),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// CreateTrainingPlan godoc
// @Summary Create the training plan of a subscription
// @Description One plan per subscription. Splits get "Day N" names where none is given.
// @Tags Training Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param plan body CreateTrainingPlanRequest true "Plan details"
// @Success 201 {object} TrainingPlanResponse
// @Failure 400 {object} gin.H "Validation error or plan exists"
// @Failure 404 {object} gin.H "Subscription not found"
// @Router /training-plans [post]
func (h *TrainingPlanHandler) CreateTrainingPlan(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req CreateTrainingPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	subID, ok := parseOptionalObjectID(c, "subscriptionId", &req.SubscriptionID)
	if !ok {
		return
	}

	plan, err := h.trainingPlanService.Create(c.Request.Context(), actor, *subID, req.CycleLength, req.DayNames)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapTrainingPlanToResponse(plan))
}

// GetTrainingPlan godoc
// @Summary Get the training plan of a subscription
// @Tags Training Plans
// @Produce json
// @Security BearerAuth
// @Param subscription_id query string true "Subscription ID"
// @Success 200 {object} TrainingPlanResponse
// @Failure 404 {object} gin.H "Training plan not found"
// @Router /training-plans [get]
func (h *TrainingPlanHandler) GetTrainingPlan(c *gin.Context) {
	subID, ok := parseObjectIDQuery(c, "subscription_id")
	if !ok {
		return
	}
	plan, err := h.trainingPlanService.GetBySubscription(c.Request.Context(), subID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapTrainingPlanToResponse(plan))
}

// UpdateSplitExercises godoc
// @Summary Replace the exercises of one split
// @Tags Training Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Training plan ID"
// @Param order path int true "Split order (1-based)"
// @Param exercises body UpdateSplitExercisesRequest true "New exercise list"
// @Success 200 {object} TrainingPlanResponse
// @Failure 400 {object} gin.H "Unknown split"
// @Failure 404 {object} gin.H "Training plan not found"
// @Router /training-plans/{id}/splits/{order}/exercises [put]
func (h *TrainingPlanHandler) UpdateSplitExercises(c *gin.Context) {
	id, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	order, err := strconv.Atoi(c.Param("order"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid split order in URL path.")
		return
	}
	var req UpdateSplitExercisesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	plan, err := h.trainingPlanService.UpdateSplitExercises(c.Request.Context(), id, order, req.Exercises)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapTrainingPlanToResponse(plan))
}

// DeleteTrainingPlan godoc
// @Summary Delete a training plan
// @Tags Training Plans
// @Security BearerAuth
// @Param id path string true "Training plan ID"
// @Success 204 "No Content"
// @Failure 404 {object} gin.H "Training plan not found"
// @Router /training-plans/{id} [delete]
func (h *TrainingPlanHandler) DeleteTrainingPlan(c *gin.Context) {
	id, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.trainingPlanService.Delete(c.Request.Context(), id); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
