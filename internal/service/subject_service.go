package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

type subjectRepository interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Subject, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id, teacherID string) error
}

type subjectFinder interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type classResolver interface {
	Resolve(ctx context.Context, name string) (*models.Class, error)
}

// standingsNotifier is told about every write that changes a subject's standings.
type standingsNotifier interface {
	SubjectChanged(ctx context.Context, subjectID string)
}

type noopNotifier struct{}

func (noopNotifier) SubjectChanged(context.Context, string) {}

// loadOwnedSubject fetches a subject and hides it from teachers who do not own it.
func loadOwnedSubject(ctx context.Context, repo subjectFinder, teacherID, subjectID string) (*models.Subject, error) {
	subject, err := repo.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Internal(err, "failed to load subject")
	}
	if subject.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}
	return subject, nil
}

// SubjectService manages a teacher's subjects.
type SubjectService struct {
	repo      subjectRepository
	classes   classResolver
	notifier  standingsNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs a SubjectService.
func NewSubjectService(repo subjectRepository, classes classResolver, notifier standingsNotifier, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &SubjectService{repo: repo, classes: classes, notifier: notifier, validator: validate, logger: logger}
}

// List returns the teacher's subjects.
func (s *SubjectService) List(ctx context.Context, teacherID string) ([]models.Subject, error) {
	subjects, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list subjects")
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	return subjects, nil
}

// Get returns one of the teacher's subjects.
func (s *SubjectService) Get(ctx context.Context, teacherID, subjectID string) (*models.Subject, error) {
	return loadOwnedSubject(ctx, s.repo, teacherID, subjectID)
}

// Sessions lists the exam session labels of a subject, newest first.
func (s *SubjectService) Sessions(ctx context.Context, teacherID, subjectID string) ([]string, error) {
	subject, err := loadOwnedSubject(ctx, s.repo, teacherID, subjectID)
	if err != nil {
		return nil, err
	}
	return subject.Sessions(), nil
}

// Create validates and stores a subject, registering its classes.
func (s *SubjectService) Create(ctx context.Context, teacherID string, req models.CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid subject payload")
	}
	if req.StartYear > req.EndYear {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_year must not be after end_year")
	}
	if len(req.Papers) > models.MaxPapers {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("a subject has at most %d papers", models.MaxPapers))
	}

	maxMarks := req.MaxMarks
	if maxMarks == nil {
		maxMarks = make([]int64, len(req.Papers))
		for i := range maxMarks {
			maxMarks[i] = models.DefaultPaperMax
		}
	}
	if len(maxMarks) != len(req.Papers) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "max_marks must have one entry per paper")
	}

	papers := make([]string, len(req.Papers))
	for i, paper := range req.Papers {
		papers[i] = strings.TrimSpace(paper)
	}

	var classes []string
	for _, name := range req.Classes {
		name = normalizeClassName(name)
		if name == "" {
			continue
		}
		duplicate := false
		for _, existing := range classes {
			if sameClassName(existing, name) {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		class, err := s.classes.Resolve(ctx, name)
		if err != nil {
			return nil, err
		}
		classes = append(classes, class.Name)
	}
	if len(classes) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one class is required")
	}

	subject := &models.Subject{
		TeacherID: teacherID,
		Name:      strings.TrimSpace(req.Name),
		Classes:   pq.StringArray(classes),
		StartYear: req.StartYear,
		EndYear:   req.EndYear,
		Papers:    pq.StringArray(papers),
		MaxMarks:  pq.Int64Array(maxMarks),
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.Internal(err, "failed to create subject")
	}
	s.logger.Info("subject created", zap.String("subject_id", subject.ID), zap.String("teacher_id", teacherID))
	return subject, nil
}

// Delete removes one of the teacher's subjects. Its students and entries are kept.
func (s *SubjectService) Delete(ctx context.Context, teacherID, subjectID string) error {
	if err := s.repo.Delete(ctx, subjectID, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Internal(err, "failed to delete subject")
	}
	s.notifier.SubjectChanged(ctx, subjectID)
	return nil
}
