package api

import (
	"net/http"
	"time"

	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/service"

	"github.com/gin-gonic/gin"
)

// TransferHandler serves session transfers between trainers.
type TransferHandler struct {
	transferService service.TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferService service.TransferService) *TransferHandler {
	return &TransferHandler{transferService: transferService}
}

type CreateTransferRequest struct {
	ToTrainerID    string `json:"toTrainerId" binding:"required"`
	SubscriptionID string `json:"subscriptionId" binding:"required"`
	SessionsCount  int    `json:"sessionsCount" binding:"required,min=1"`
	ScheduleNotes  string `json:"scheduleNotes"`
}

type RespondTransferRequest struct {
	Status domain.TransferStatus `json:"status" binding:"required,oneof=accepted rejected"`
}

type TransferResponse struct {
	ID              string                `json:"id"`
	FromTrainerID   string                `json:"fromTrainerId"`
	FromTrainerName string                `json:"fromTrainerName,omitempty"`
	ToTrainerID     string                `json:"toTrainerId"`
	ToTrainerName   string                `json:"toTrainerName,omitempty"`
	SubscriptionID  string                `json:"subscriptionId"`
	ClientName      string                `json:"clientName,omitempty"`
	SessionsCount   int                   `json:"sessionsCount"`
	ScheduleNotes   string                `json:"scheduleNotes,omitempty"`
	Status          domain.TransferStatus `json:"status"`
	RespondedAt     *time.Time            `json:"respondedAt,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
}

func MapTransferToResponse(v *service.TransferView) TransferResponse {
	r := v.Request
	return TransferResponse{
		ID:              r.ID.Hex(),
		FromTrainerID:   r.FromTrainerID.Hex(),
		FromTrainerName: v.FromTrainerName,
		ToTrainerID:     r.ToTrainerID.Hex(),
		ToTrainerName:   v.ToTrainerName,
		SubscriptionID:  r.SubscriptionID.Hex(),
		ClientName:      v.ClientName,
		SessionsCount:   r.SessionsCount,
		ScheduleNotes:   r.ScheduleNotes,
		Status:          r.Status,
		RespondedAt:     r.RespondedAt,
		CreatedAt:       r.CreatedAt,
	}
}

// ListTransfers godoc
// @Summary List transfer requests
// @Description Trainers see requests they sent or received, admins see all.
// @Tags Transfers
// @Produce json
// @Security BearerAuth
// @Success 200 {array} TransferResponse
// @Router /transfers [get]
func (h *TransferHandler) ListTransfers(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	views, err := h.transferService.List(c.Request.Context(), actor)
	if err != nil {
		respondWithError(c, err)
		return
	}
	resp := make([]TransferResponse, len(views))
	for i := range views {
		resp[i] = MapTransferToResponse(&views[i])
	}
	c.JSON(http.StatusOK, resp)
}

// CreateTransfer godoc
// @Summary Hand sessions over to another trainer (Trainer only)
// @Tags Transfers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param transfer body CreateTransferRequest true "Transfer details"
// @Success 201 {object} TransferResponse
// @Failure 400 {object} gin.H "Validation error"
// @Failure 403 {object} gin.H "Not the owning trainer"
// @Failure 404 {object} gin.H "Subscription or trainer not found"
// @Router /transfers [post]
func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	toID, ok := parseOptionalObjectID(c, "toTrainerId", &req.ToTrainerID)
	if !ok {
		return
	}
	subID, ok := parseOptionalObjectID(c, "subscriptionId", &req.SubscriptionID)
	if !ok {
		return
	}

	created, err := h.transferService.Create(c.Request.Context(), actor, service.TransferInput{
		ToTrainerID:    *toID,
		SubscriptionID: *subID,
		SessionsCount:  req.SessionsCount,
		ScheduleNotes:  req.ScheduleNotes,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapTransferToResponse(&service.TransferView{Request: *created}))
}

// RespondTransfer godoc
// @Summary Accept or reject a transfer (receiving trainer only)
// @Tags Transfers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transfer ID"
// @Param response body RespondTransferRequest true "accepted or rejected"
// @Success 200 {object} TransferResponse
// @Failure 403 {object} gin.H "Not the receiving trainer"
// @Failure 404 {object} gin.H "Transfer not found"
// @Failure 409 {object} gin.H "Transfer already answered"
// @Router /transfers/{id}/respond [post]
func (h *TransferHandler) RespondTransfer(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	var req RespondTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	updated, err := h.transferService.Respond(c.Request.Context(), actor, id, req.Status)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapTransferToResponse(&service.TransferView{Request: *updated}))
}

// CancelTransfer godoc
// @Summary Withdraw a pending transfer (sending trainer only)
// @Tags Transfers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transfer ID"
// @Success 200 {object} TransferResponse
// @Failure 403 {object} gin.H "Not the sending trainer"
// @Failure 409 {object} gin.H "Transfer already answered"
// @Router /transfers/{id}/cancel [post]
func (h *TransferHandler) CancelTransfer(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	updated, err := h.transferService.Cancel(c.Request.Context(), actor, id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapTransferToResponse(&service.TransferView{Request: *updated}))
}
