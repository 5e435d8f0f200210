package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
	"github.com/noah-isme/gradebook-api/pkg/response"
)

type studentService interface {
	Add(ctx context.Context, teacherID, subjectID string, req models.AddStudentRequest) (*models.Student, error)
	Delete(ctx context.Context, teacherID, studentID string) error
	Import(ctx context.Context, teacherID, subjectID, className string, file io.Reader) (*models.ImportResult, error)
}

// StudentHandler manages enrolment and roster imports.
type StudentHandler struct {
	service       studentService
	maxImportSize int64
}

// NewStudentHandler constructs a student handler. maxImportSize caps uploaded rosters in bytes.
func NewStudentHandler(svc studentService, maxImportSize int64) *StudentHandler {
	if maxImportSize <= 0 {
		maxImportSize = 5 << 20
	}
	return &StudentHandler{service: svc, maxImportSize: maxImportSize}
}

// Add godoc
// @Summary Add student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param payload body models.AddStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /subjects/{id}/students [post]
func (h *StudentHandler) Add(c *gin.Context) {
	id, ok := teacherID(c)
	if !ok {
		return
	}
	var req models.AddStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err, "invalid student payload"))
		return
	}
	student, err := h.service.Add(c.Request.Context(), id, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Delete godoc
// @Summary Delete student
// @Tags Students
// @Param id path string true "Student ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
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

// Import godoc
// @Summary Import roster
// @Description Creates one student per name in column A of the first worksheet, skipping the header row
// @Tags Students
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Subject ID"
// @Param class query string true "Target class"
// @Param file formData file true "xlsx roster"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /subjects/{id}/import [post]
func (h *StudentHandler) Import(c *gin.Context) {
	id, ok := teacherID(c)
	if !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, invalidPayload(err, "roster file is required"))
		return
	}
	if header.Size > h.maxImportSize {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "roster file is too large"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidSpreadsheet.Code, http.StatusBadRequest, "roster file could not be opened"))
		return
	}
	defer file.Close() //nolint:errcheck

	result, err := h.service.Import(c.Request.Context(), id, c.Param("id"), c.Query("class"), io.LimitReader(file, h.maxImportSize))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
