package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/ranking"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

type progressRepository interface {
	FindByStudentSubject(ctx context.Context, studentID, subjectID string) (*models.ProgressRow, error)
	Upsert(ctx context.Context, studentID, subjectID string, payload []byte) error
}

// ProgressService records syllabus progress in the shape the ranking mode expects.
type ProgressService struct {
	subjects  subjectFinder
	students  studentFinder
	repo      progressRepository
	strategy  ranking.ProgressStrategy
	notifier  standingsNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProgressService constructs a ProgressService for the given ranking mode.
func NewProgressService(subjects subjectFinder, students studentFinder, repo progressRepository, mode ranking.Mode, notifier standingsNotifier, validate *validator.Validate, logger *zap.Logger) *ProgressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &ProgressService{
		subjects:  subjects,
		students:  students,
		repo:      repo,
		strategy:  mode.Strategy(),
		notifier:  notifier,
		validator: validate,
		logger:    logger,
	}
}

// Update merges a progress value into the student's record and returns the committed record.
func (s *ProgressService) Update(ctx context.Context, teacherID, subjectID string, req models.UpdateProgressRequest) (*models.ProgressResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid progress payload")
	}

	subject, err := loadOwnedSubject(ctx, s.subjects, teacherID, subjectID)
	if err != nil {
		return nil, err
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

	current := models.EmptyProgress()
	row, err := s.repo.FindByStudentSubject(ctx, student.ID, subject.ID)
	switch {
	case err == nil:
		decoded, decodeErr := models.DecodeProgress(row.Progress)
		if decodeErr != nil {
			s.logger.Warn("overwriting malformed progress record",
				zap.String("subject_id", subject.ID),
				zap.String("student_id", student.ID),
				zap.Error(decodeErr))
		}
		current = decoded
	case !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Internal(err, "failed to load progress")
	}

	updated, err := s.strategy.Apply(*subject, current, ranking.ProgressUpdate{Paper: req.Paper, Value: *req.Value})
	if err != nil {
		return nil, appErrors.Invalid(err, err.Error())
	}

	payload, err := json.Marshal(updated)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to encode progress")
	}
	if err := s.repo.Upsert(ctx, student.ID, subject.ID, payload); err != nil {
		return nil, appErrors.Internal(err, "failed to save progress")
	}
	s.notifier.SubjectChanged(ctx, subject.ID)
	return &models.ProgressResult{StudentID: student.ID, SubjectID: subject.ID, Progress: updated}, nil
}
