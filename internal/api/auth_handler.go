package api

import (
	"net/http"
	"time"

	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// --- Request/Response Structs ---

type CreateStaffRequest struct {
	Name     string      `json:"name" binding:"required"`
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=8"`
	Role     domain.Role `json:"role" binding:"required,oneof=admin front_desk trainer"`
}

// UserResponse excludes sensitive info like password hash
type UserResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	IsActive  bool        `json:"isActive"`
	CreatedAt time.Time   `json:"createdAt"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// --- Handler Methods ---

// Login godoc
// @Summary Log in a staff member
// @Description Authenticates with email and password and returns a JWT token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse "Login successful"
// @Failure 400 {object} gin.H "Validation error"
// @Failure 401 {object} gin.H "Authentication failed"
// @Failure 429 {object} gin.H "Too many attempts"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token: token,
		User:  MapUserToResponse(user),
	})
}

// Me godoc
// @Summary Current user
// @Description Returns the profile of the authenticated staff member.
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	user, err := h.authService.GetUser(c.Request.Context(), actor.ID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// ListTrainers godoc
// @Summary List active trainers
// @Tags Staff
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserResponse
// @Router /trainers [get]
func (h *AuthHandler) ListTrainers(c *gin.Context) {
	trainers, err := h.authService.ListTrainers(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUsersToResponse(trainers))
}

// CreateStaff godoc
// @Summary Create a staff account (Admin only)
// @Tags Staff
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param staff body CreateStaffRequest true "Staff details"
// @Success 201 {object} UserResponse
// @Failure 400 {object} gin.H "Validation error or email taken"
// @Failure 403 {object} gin.H "Forbidden"
// @Router /admin/staff [post]
func (h *AuthHandler) CreateStaff(c *gin.Context) {
	var req CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, err := h.authService.CreateStaff(c.Request.Context(), service.StaffInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapUserToResponse(user))
}

// ListStaff godoc
// @Summary List staff accounts (Admin only)
// @Tags Staff
// @Produce json
// @Security BearerAuth
// @Param role query string false "Filter by role"
// @Success 200 {array} UserResponse
// @Router /admin/staff [get]
func (h *AuthHandler) ListStaff(c *gin.Context) {
	var role *domain.Role
	if raw := c.Query("role"); raw != "" {
		r := domain.Role(raw)
		if !r.Valid() {
			abortWithError(c, http.StatusBadRequest, "Unknown role '"+raw+"'.")
			return
		}
		role = &r
	}
	users, err := h.authService.ListStaff(c.Request.Context(), role)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUsersToResponse(users))
}

// DeactivateStaff godoc
// @Summary Deactivate a staff account (Admin only)
// @Tags Staff
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 204 "No Content"
// @Failure 400 {object} gin.H "Cannot deactivate yourself"
// @Failure 404 {object} gin.H "User not found"
// @Router /admin/staff/{id}/deactivate [patch]
func (h *AuthHandler) DeactivateStaff(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := parseObjectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.authService.DeactivateStaff(c.Request.Context(), actor, id); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MapUserToResponse converts a domain user to its API representation.
func MapUserToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID.Hex(),
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}
}

func MapUsersToResponse(users []domain.User) []UserResponse {
	resp := make([]UserResponse, len(users))
	for i := range users {
		resp[i] = MapUserToResponse(&users[i])
	}
	return resp
}
