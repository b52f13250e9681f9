package api

import (
	"net/http"
	"time"

	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PlanHandler serves the package catalog.
type PlanHandler struct {
	planService service.PlanService
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

type CreatePlanRequest struct {
	Name         string          `json:"name" binding:"required"`
	Units        int             `json:"units" binding:"min=0"`
	DurationDays int             `json:"durationDays" binding:"min=0"`
	Price        decimal.Decimal `json:"price"` // accepts "1500.00" or 1500
	IsChildPlan  bool            `json:"isChildPlan"`
}

type PlanResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Units        int       `json:"units"`
	DurationDays int       `json:"durationDays"`
	Price        string    `json:"price"`
	IsChildPlan  bool      `json:"isChildPlan"`
	CreatedAt    time.Time `json:"createdAt"`
}

func MapPlanToResponse(p *domain.Plan) PlanResponse {
	return PlanResponse{
		ID:           p.ID.Hex(),
		Name:         p.Name,
		Units:        p.Units,
		DurationDays: p.DurationDays,
		Price:        p.PriceValue().StringFixed(2),
		IsChildPlan:  p.IsChildPlan,
		CreatedAt:    p.CreatedAt,
	}
}

func MapPlansToResponse(plans []domain.Plan) []PlanResponse {
	resp := make([]PlanResponse, len(plans))
	for i := range plans {
		resp[i] = MapPlanToResponse(&plans[i])
	}
	return resp
}

// ListPlans godoc
// @Summary List packages
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param target query string false "child or adult"
// @Success 200 {array} PlanResponse
// @Router /plans [get]
func (h *PlanHandler) ListPlans(c *gin.Context) {
	plans, err := h.planService.List(c.Request.Context(), c.Query("target"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapPlansToResponse(plans))
}

// CreatePlan godoc
// @Summary Create a package (Admin only)
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param plan body CreatePlanRequest true "Package details"
// @Success 201 {object} PlanResponse
// @Failure 400 {object} gin.H "Validation error"
// @Router /plans [post]
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	plan, err := h.planService.Create(c.Request.Context(), service.PlanInput{
		Name:         req.Name,
		Units:        req.Units,
		DurationDays: req.DurationDays,
		Price:        req.Price,
		IsChildPlan:  req.IsChildPlan,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapPlanToResponse(plan))
}

// DeletePlan godoc
// @Summary Delete a package (Admin only)
// @Tags Plans
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Success 204 "No Content"
// @Failure 404 {object} gin.H "Plan not found"
// @Router /plans/{id} [delete]
func (h *PlanHandler) DeletePlan(c *gin.Context) {
	id, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.planService.Delete(c.Request.Context(), id); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
