package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/service"
	"github.com/noah-isme/gradebook-api/pkg/response"
)

type standingsService interface {
	Standings(ctx context.Context, teacherID, subjectID, className string) (*models.StandingsView, error)
	TopPerformers(ctx context.Context, teacherID, subjectID, className string) ([]models.ChartPoint, error)
}

type exportService interface {
	Export(ctx context.Context, teacherID, subjectID, className string, format service.ExportFormat) (*service.ExportFile, error)
}

// StandingsHandler serves leaderboards, charts and exports.
type StandingsHandler struct {
	standings standingsService
	exports   exportService
}

// NewStandingsHandler constructs a standings handler.
func NewStandingsHandler(standings standingsService, exports exportService) *StandingsHandler {
	return &StandingsHandler{standings: standings, exports: exports}
}

// Standings godoc
// @Summary Ranked standings
// @Description Students of the subject sorted by the deployment's ranking mode, with global and class ranks
// @Tags Standings
// @Produce json
// @Param id path string true "Subject ID"
// @Param class query string false "Class name, empty or All Sections for every class"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /subjects/{id}/standings [get]
func (h *StandingsHandler) Standings(c *gin.Context) {
	id, ok := teacherID(c)
	if !ok {
		return
	}
	view, err := h.standings.Standings(c.Request.Context(), id, c.Param("id"), c.Query("class"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, map[string]interface{}{
		"count":        len(view.Standings),
		"show_class":   view.ShowClassColumn(),
		"ranking_mode": view.Mode,
	})
}

// TopPerformers godoc
// @Summary Top performers chart
// @Tags Standings
// @Produce json
// @Param id path string true "Subject ID"
// @Param class query string false "Class name"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/top [get]
func (h *StandingsHandler) TopPerformers(c *gin.Context) {
	id, ok := teacherID(c)
	if !ok {
		return
	}
	points, err := h.standings.TopPerformers(c.Request.Context(), id, c.Param("id"), c.Query("class"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, points)
}

// Export godoc
// @Summary Export leaderboard
// @Tags Standings
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Subject ID"
// @Param class query string false "Class name"
// @Param format query string false "xlsx (default), csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /subjects/{id}/export [get]
func (h *StandingsHandler) Export(c *gin.Context) {
	id, ok := teacherID(c)
	if !ok {
		return
	}
	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exports.Export(c.Request.Context(), id, c.Param("id"), c.Query("class"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
