package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/pkg/response"
)

type markService interface {
	Update(ctx context.Context, teacherID, subjectID string, req models.UpdateMarkRequest) (*models.ExamEntry, error)
}

type progressService interface {
	Update(ctx context.Context, teacherID, subjectID string, req models.UpdateProgressRequest) (*models.ProgressResult, error)
}

// GradebookHandler records marks and syllabus progress. Both endpoints answer with the committed
// value so clients can replace their optimistic copy.
type GradebookHandler struct {
	marks    markService
	progress progressService
}

// NewGradebookHandler constructs a gradebook handler.
func NewGradebookHandler(marks markService, progress progressService) *GradebookHandler {
	return &GradebookHandler{marks: marks, progress: progress}
}

// UpdateMark godoc
// @Summary Record a paper mark
// @Tags Gradebook
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param payload body models.UpdateMarkRequest true "Mark payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /subjects/{id}/marks [put]
func (h *GradebookHandler) UpdateMark(c *gin.Context) {
	id, ok := teacherID(c)
	if !ok {
		return
	}
	var req models.UpdateMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid mark payload"))
		return
	}
	entry, err := h.marks.Update(c.Request.Context(), id, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry)
}

// UpdateProgress godoc
// @Summary Record syllabus progress
// @Description Percentage mode merges one paper index into the record; total mode replaces the single value
// @Tags Gradebook
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param payload body models.UpdateProgressRequest true "Progress payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /subjects/{id}/progress [put]
func (h *GradebookHandler) UpdateProgress(c *gin.Context) {
	id, ok := teacherID(c)
	if !ok {
		return
	}
	var req models.UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid progress payload"))
		return
	}
	result, err := h.progress.Update(c.Request.Context(), id, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
