package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Me(ctx context.Context, teacherID string) (*models.TeacherInfo, error)
	UpdateTheme(ctx context.Context, teacherID string, req models.UpdateThemeRequest) (*models.TeacherInfo, error)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Login godoc
// @Summary Authenticate teacher
// @Description Authenticate a teacher by email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid login payload"))
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Me godoc
// @Summary Current teacher
// @Description Returns the authenticated teacher's profile and theme
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	id, ok := teacherID(c)
	if !ok {
		return
	}
	info, err := h.service.Me(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info)
}

// UpdateTheme godoc
// @Summary Change dashboard theme
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.UpdateThemeRequest true "Theme payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /me/theme [put]
func (h *AuthHandler) UpdateTheme(c *gin.Context) {
	id, ok := teacherID(c)
	if !ok {
		return
	}
	var req models.UpdateThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid theme payload"))
		return
	}
	info, err := h.service.UpdateTheme(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info)
}
