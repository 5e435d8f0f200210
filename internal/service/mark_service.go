package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

type studentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type examEntryRepository interface {
	UpsertMark(ctx context.Context, studentID, sessionName, subjectID string, paperIndex int, value float64) (*models.ExamEntry, error)
}

// MarkService records exam marks.
type MarkService struct {
	subjects  subjectFinder
	students  studentFinder
	entries   examEntryRepository
	notifier  standingsNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMarkService constructs a MarkService.
func NewMarkService(subjects subjectFinder, students studentFinder, entries examEntryRepository, notifier standingsNotifier, validate *validator.Validate, logger *zap.Logger) *MarkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &MarkService{subjects: subjects, students: students, entries: entries, notifier: notifier, validator: validate, logger: logger}
}

// Update stores one paper mark and returns the committed entry.
func (s *MarkService) Update(ctx context.Context, teacherID, subjectID string, req models.UpdateMarkRequest) (*models.ExamEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid mark payload")
	}

	subject, err := loadOwnedSubject(ctx, s.subjects, teacherID, subjectID)
	if err != nil {
		return nil, err
	}

	paper := *req.Paper
	if paper >= len(subject.Papers) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("subject has no paper %d", paper+1))
	}
	value := *req.Value
	limit := subject.PaperMax(paper)
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 || value > limit {
		return nil, appErrors.Clone(appErrors.ErrMarkOutOfRange, fmt.Sprintf("mark must be between 0 and %g", limit))
	}
	if !subject.HasSession(req.SessionName) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown exam session")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	if student.SubjectID != subject.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	entry, err := s.entries.UpsertMark(ctx, student.ID, req.SessionName, subject.ID, paper, value)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to save mark")
	}
	s.notifier.SubjectChanged(ctx, subject.ID)
	return entry, nil
}
