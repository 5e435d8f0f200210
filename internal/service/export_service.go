package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/ranking"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
	"github.com/noah-isme/gradebook-api/pkg/export"
)

// ExportFormat selects the rendering of a leaderboard export.
type ExportFormat string

const (
	ExportFormatXLSX ExportFormat = "xlsx"
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatPDF  ExportFormat = "pdf"
)

var exportContentTypes = map[ExportFormat]string{
	ExportFormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	ExportFormatCSV:  "text/csv",
	ExportFormatPDF:  "application/pdf",
}

// ParseExportFormat maps a query value to a format, defaulting to xlsx.
func ParseExportFormat(raw string) (ExportFormat, error) {
	format := ExportFormat(strings.ToLower(strings.TrimSpace(raw)))
	if format == "" {
		return ExportFormatXLSX, nil
	}
	if _, ok := exportContentTypes[format]; !ok {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", raw))
	}
	return format, nil
}

const (
	masterSheetName   = "Master Leaderboard"
	archiveSheetLabel = " - Archive"
)

// ExportFile is a rendered export ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type standingsSource interface {
	Standings(ctx context.Context, teacherID, subjectID, className string) (*models.StandingsView, error)
}

type teacherFinder interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	Title string
	Mode  ranking.Mode
}

// ExportService renders leaderboards into spreadsheets and documents.
type ExportService struct {
	standings standingsSource
	teachers  teacherFinder
	renderers map[ExportFormat]datasetRenderer
	strategy  ranking.ProgressStrategy
	cfg       ExportConfig
	logger    *zap.Logger
}

// NewExportService constructs an ExportService with the xlsx, csv and pdf renderers.
func NewExportService(standings standingsSource, teachers teacherFinder, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		standings: standings,
		teachers:  teachers,
		renderers: map[ExportFormat]datasetRenderer{
			ExportFormatXLSX: export.NewXLSXExporter(),
			ExportFormatCSV:  export.NewCSVExporter(),
			ExportFormatPDF:  export.NewPDFExporter(),
		},
		strategy: cfg.Mode.Strategy(),
		cfg:      cfg,
		logger:   logger,
	}
}

// Export renders the standings view of a subject in the requested format.
func (s *ExportService) Export(ctx context.Context, teacherID, subjectID, className string, format ExportFormat) (*ExportFile, error) {
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	view, err := s.standings.Standings(ctx, teacherID, subjectID, className)
	if err != nil {
		return nil, err
	}
	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "teacher no longer exists")
		}
		return nil, appErrors.Internal(err, "failed to load teacher")
	}

	dataset := BuildLeaderboardDataset(view, teacher, s.cfg.Title, s.strategy)
	data, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render export")
	}
	s.logger.Info("leaderboard exported",
		zap.String("subject_id", subjectID),
		zap.String("class", view.Class),
		zap.String("format", string(format)),
		zap.Int("rows", len(dataset.Rows)))

	return &ExportFile{
		Filename:    exportFilename(view, format),
		ContentType: exportContentTypes[format],
		Data:        data,
	}, nil
}

// BuildLeaderboardDataset lays a standings view out as a table. When the view spans all
// classes the table carries a Class column and global ranks, otherwise class ranks.
func BuildLeaderboardDataset(view *models.StandingsView, teacher *models.Teacher, title string, strategy ranking.ProgressStrategy) export.Dataset {
	showClass := view.ShowClassColumn()
	subject := view.Subject

	sheet := masterSheetName
	if !showClass {
		sheet = view.Class + archiveSheetLabel
	}

	headers := []string{"Rank"}
	if showClass {
		headers = append(headers, "Class")
	}
	headers = append(headers, "Student Name", "Grand Total")
	headers = append(headers, strategy.Columns(subject)...)
	for _, session := range view.Sessions {
		for _, paper := range subject.Papers {
			headers = append(headers, session+" "+paper)
		}
	}

	rows := make([][]interface{}, 0, len(view.Standings))
	for _, student := range view.Standings {
		rank := student.ClassRank
		if showClass {
			rank = student.GlobalRank
		}
		row := []interface{}{rank}
		if showClass {
			row = append(row, student.ClassName)
		}
		row = append(row, student.Name, fmt.Sprintf("%s / %s (%d%%)",
			export.FormatCell(student.GrandTotal), export.FormatCell(student.MaxPossible), student.Percentage))
		row = append(row, strategy.Cells(subject, student.Progress)...)

		bySession := make(map[string]models.ExamEntry, len(student.Entries))
		for _, entry := range student.Entries {
			bySession[entry.SessionName] = entry
		}
		for _, session := range view.Sessions {
			entry, ok := bySession[session]
			for i := range subject.Papers {
				var cell interface{} = ""
				if ok {
					if value := entry.Value(i); value != nil {
						cell = *value
					}
				}
				row = append(row, cell)
			}
		}
		rows = append(rows, row)
	}

	teacherName := ""
	accent := ""
	if teacher != nil {
		teacherName = teacher.Name
		accent = teacher.ResolvedTheme().Color
	}

	return export.Dataset{
		SheetName: sheet,
		Title:     title,
		Subtitle:  fmt.Sprintf("Instructor: %s | Subject: %s | View: %s", teacherName, subject.Name, view.Class),
		Accent:    accent,
		Headers:   headers,
		Rows:      rows,
	}
}

func exportFilename(view *models.StandingsView, format ExportFormat) string {
	scope := "all-sections"
	if !view.ShowClassColumn() {
		scope = view.Class
	}
	return fmt.Sprintf("%s_%s_leaderboard.%s", sanitizeFilename(view.Subject.Name), sanitizeFilename(scope), format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "\"", "")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
