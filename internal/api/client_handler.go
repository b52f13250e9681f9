package api

import (
	"net/http"
	"time"

	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/repository"
	"alcyxob/gym-manager/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ClientHandler serves the member records.
type ClientHandler struct {
	clientService service.ClientService
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(clientService service.ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

// --- Request/Response Structs ---

type ClientRequest struct {
	Name        string              `json:"name" binding:"required"`
	ManualID    string              `json:"manualId" binding:"required"`
	Phone       string              `json:"phone"`
	IsChild     bool                `json:"isChild"`
	ParentPhone string              `json:"parentPhone"`
	BirthDate   *string             `json:"birthDate"` // YYYY-MM-DD
	Status      domain.ClientStatus `json:"status" binding:"omitempty,oneof=active inactive"`
	Notes       string              `json:"notes"`
}

type ClientResponse struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	ManualID     string              `json:"manualId"`
	Phone        string              `json:"phone,omitempty"`
	IsChild      bool                `json:"isChild"`
	ParentPhone  string              `json:"parentPhone,omitempty"`
	BirthDate    *time.Time          `json:"birthDate,omitempty"`
	Status       domain.ClientStatus `json:"status"`
	Notes        string              `json:"notes,omitempty"`
	IsSubscribed bool                `json:"isSubscribed"`
	PhotoURL     string              `json:"photoUrl,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
}

type ClientListResponse struct {
	Results  []ClientResponse `json:"results"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}

type RequestUploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type ConfirmUploadRequest struct {
	ObjectKey   string `json:"objectKey" binding:"required"`
	FileName    string `json:"fileName" binding:"required"`
	FileSize    int64  `json:"fileSize" binding:"required,min=1"`
	ContentType string `json:"contentType" binding:"required"`
}

func MapClientToResponse(v *service.ClientView) ClientResponse {
	cl := v.Client
	return ClientResponse{
		ID:           cl.ID.Hex(),
		Name:         cl.Name,
		ManualID:     cl.ManualID,
		Phone:        cl.Phone,
		IsChild:      cl.IsChild,
		ParentPhone:  cl.ParentPhone,
		BirthDate:    cl.BirthDate,
		Status:       cl.Status,
		Notes:        cl.Notes,
		IsSubscribed: v.IsSubscribed,
		PhotoURL:     v.PhotoURL,
		CreatedAt:    cl.CreatedAt,
	}
}

func (h *ClientHandler) bindClientInput(c *gin.Context) (service.ClientInput, bool) {
	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return service.ClientInput{}, false
	}
	birth, ok := parseDate(c, "birthDate", req.BirthDate)
	if !ok {
		return service.ClientInput{}, false
	}
	return service.ClientInput{
		Name:        req.Name,
		ManualID:    req.ManualID,
		Phone:       req.Phone,
		IsChild:     req.IsChild,
		ParentPhone: req.ParentPhone,
		BirthDate:   birth,
		Status:      req.Status,
		Notes:       req.Notes,
	}, true
}

// --- Handler Methods ---

// ListClients godoc
// @Summary List clients
// @Description Paginated client list with optional search by name, manual ID or phone.
// @Tags Clients
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search text"
// @Param is_child query bool false "Only children or only adults"
// @Param page query int false "Page number (1-based)"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} ClientListResponse
// @Router /clients [get]
func (h *ClientHandler) ListClients(c *gin.Context) {
	isChild, ok := parseBoolQuery(c, "is_child")
	if !ok {
		return
	}
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

	result, err := h.clientService.List(c.Request.Context(), repository.ClientFilter{
		Search:  c.Query("search"),
		IsChild: isChild,
		Skip:    int64((page - 1) * pageSize),
		Limit:   int64(pageSize),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	resp := ClientListResponse{Results: make([]ClientResponse, len(result.Clients)), Total: result.Total, Page: page, PageSize: pageSize}
	for i := range result.Clients {
		resp.Results[i] = MapClientToResponse(&result.Clients[i])
	}
	c.JSON(http.StatusOK, resp)
}

// CreateClient godoc
// @Summary Register a new client
// @Tags Clients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param client body ClientRequest true "Client details"
// @Success 201 {object} ClientResponse
// @Failure 400 {object} gin.H "Validation error or duplicate manual ID"
// @Router /clients [post]
func (h *ClientHandler) CreateClient(c *gin.Context) {
	in, ok := h.bindClientInput(c)
	if !ok {
		return
	}
	view, err := h.clientService.Create(c.Request.Context(), in)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapClientToResponse(view))
}

// GetClient godoc
// @Summary Get one client
// @Tags Clients
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client ID"
// @Success 200 {object} ClientResponse
// @Failure 404 {object} gin.H "Client not found"
// @Router /clients/{id} [get]
func (h *ClientHandler) GetClient(c *gin.Context) {
	id, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	view, err := h.clientService.Get(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapClientToResponse(view))
}

// UpdateClient godoc
// @Summary Update a client
// @Description Only admins may change the name or manual ID.
// @Tags Clients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client ID"
// @Param client body ClientRequest true "Client details"
// @Success 200 {object} ClientResponse
// @Failure 400 {object} gin.H "Validation error"
// @Failure 404 {object} gin.H "Client not found"
// @Router /clients/{id} [patch]
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	in, ok := h.bindClientInput(c)
	if !ok {
		return
	}
	view, err := h.clientService.Update(c.Request.Context(), actor, id, in)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapClientToResponse(view))
}

// DeleteClient godoc
// @Summary Delete a client with all its records (Admin only)
// @Tags Clients
// @Security BearerAuth
// @Param id path string true "Client ID"
// @Success 204 "No Content"
// @Failure 404 {object} gin.H "Client not found"
// @Router /clients/{id} [delete]
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	id, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.clientService.Delete(c.Request.Context(), id); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RequestPhotoUploadURL godoc
// @Summary Request a pre-signed URL to upload a client photo
// @Tags Clients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client ID"
// @Param uploadRequest body RequestUploadURLRequest true "Upload content type"
// @Success 200 {object} service.UploadURLResponse "Pre-signed URL and object key"
// @Failure 400 {object} gin.H "Unsupported content type"
// @Failure 404 {object} gin.H "Client not found"
// @Router /clients/{id}/photo/upload-url [post]
func (h *ClientHandler) RequestPhotoUploadURL(c *gin.Context) {
	id, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	var req RequestUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	resp, err := h.clientService.RequestPhotoUpload(c.Request.Context(), id, req.ContentType)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmPhotoUpload godoc
// @Summary Confirm a client photo upload
// @Description Records the uploaded object as the client's photo.
// @Tags Clients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client ID"
// @Param confirmRequest body ConfirmUploadRequest true "Upload confirmation details"
// @Success 200 {object} ClientResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "Client not found"
// @Router /clients/{id}/photo/confirm [post]
func (h *ClientHandler) ConfirmPhotoUpload(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	var req ConfirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}
	view, err := h.clientService.ConfirmPhotoUpload(c.Request.Context(), actor, id, req.ObjectKey, req.FileName, req.FileSize, req.ContentType)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapClientToResponse(view))
}
