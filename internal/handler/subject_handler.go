package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/pkg/response"
)

type subjectService interface {
	List(ctx context.Context, teacherID string) ([]models.Subject, error)
	Create(ctx context.Context, teacherID string, req models.CreateSubjectRequest) (*models.Subject, error)
	Delete(ctx context.Context, teacherID, subjectID string) error
	Sessions(ctx context.Context, teacherID, subjectID string) ([]string, error)
}

// SubjectHandler manages a teacher's subjects.
type SubjectHandler struct {
	service subjectService
}

// NewSubjectHandler constructs a subject handler.
func NewSubjectHandler(svc subjectService) *SubjectHandler {
	return &SubjectHandler{service: svc}
}

// List godoc
// @Summary List own subjects
// @Tags Subjects
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *SubjectHandler) List(c *gin.Context) {
	id, ok := teacherID(c)
	if !ok {
		return
	}
	subjects, err := h.service.List(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects)
}

// Create godoc
// @Summary Create subject
// @Tags Subjects
// @Accept json
// @Produce json
// @Param payload body models.CreateSubjectRequest true "Subject payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /subjects [post]
func (h *SubjectHandler) Create(c *gin.Context) {
	id, ok := teacherID(c)
	if !ok {
		return
	}
	var req models.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid subject payload"))
		return
	}
	subject, err := h.service.Create(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// Delete godoc
// @Summary Delete subject
// @Tags Subjects
// @Param id path string true "Subject ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /subjects/{id} [delete]
func (h *SubjectHandler) Delete(c *gin.Context) {
	id, ok := teacherID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Sessions godoc
// @Summary List exam sessions
// @Description Sessions run from the end year down to the start year, May/June before Oct/Nov
// @Tags Subjects
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/sessions [get]
func (h *SubjectHandler) Sessions(c *gin.Context) {
	id, ok := teacherID(c)
	if !ok {
		return
	}
	sessions, err := h.service.Sessions(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions)
}
