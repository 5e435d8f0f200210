package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
	"github.com/noah-isme/gradebook-api/pkg/export"
)

type studentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	BulkCreate(ctx context.Context, students []models.Student) error
	Delete(ctx context.Context, id string) error
}

// rosterReader extracts candidate names from an uploaded spreadsheet.
type rosterReader func(r io.Reader) ([]string, error)

// StudentService enrols, removes and imports students.
type StudentService struct {
	subjects   subjectFinder
	students   studentRepository
	classes    classResolver
	notifier   standingsNotifier
	readRoster rosterReader
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(subjects subjectFinder, students studentRepository, classes classResolver, notifier standingsNotifier, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &StudentService{
		subjects:   subjects,
		students:   students,
		classes:    classes,
		notifier:   notifier,
		readRoster: export.ReadFirstColumn,
		validator:  validate,
		logger:     logger,
	}
}

// Add enrols a student into one of the subject's classes, creating the class record if needed.
func (s *StudentService) Add(ctx context.Context, teacherID, subjectID string, req models.AddStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid student payload")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student name is required")
	}

	subject, err := loadOwnedSubject(ctx, s.subjects, teacherID, subjectID)
	if err != nil {
		return nil, err
	}
	class, err := s.resolveSubjectClass(ctx, subject, req.ClassName)
	if err != nil {
		return nil, err
	}

	student := &models.Student{Name: name, ClassID: class.ID, SubjectID: subject.ID}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, appErrors.Internal(err, "failed to create student")
	}
	s.notifier.SubjectChanged(ctx, subject.ID)
	return student, nil
}

// Delete removes a student of one of the teacher's subjects.
func (s *StudentService) Delete(ctx context.Context, teacherID, studentID string) error {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Internal(err, "failed to load student")
	}
	if _, err := loadOwnedSubject(ctx, s.subjects, teacherID, student.SubjectID); err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrNotFound.Code {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return err
	}
	if err := s.students.Delete(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Internal(err, "failed to delete student")
	}
	s.notifier.SubjectChanged(ctx, student.SubjectID)
	return nil
}

// Import creates one student per name in the first column of the spreadsheet.
func (s *StudentService) Import(ctx context.Context, teacherID, subjectID, className string, file io.Reader) (*models.ImportResult, error) {
	subject, err := loadOwnedSubject(ctx, s.subjects, teacherID, subjectID)
	if err != nil {
		return nil, err
	}
	if models.IsAllSections(className) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "select a class to import into")
	}

	values, err := s.readRoster(file)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidSpreadsheet.Code, appErrors.ErrInvalidSpreadsheet.Status, appErrors.ErrInvalidSpreadsheet.Message)
	}
	names, skipped := rosterNames(values)

	class, err := s.resolveSubjectClass(ctx, subject, className)
	if err != nil {
		return nil, err
	}
	result := &models.ImportResult{Class: class.Name, Created: len(names), Skipped: skipped}
	if len(names) == 0 {
		return result, nil
	}

	students := make([]models.Student, len(names))
	for i, name := range names {
		students[i] = models.Student{Name: name, ClassID: class.ID, SubjectID: subject.ID}
	}
	if err := s.students.BulkCreate(ctx, students); err != nil {
		return nil, appErrors.Internal(err, "failed to import students")
	}
	s.logger.Info("students imported",
		zap.String("subject_id", subject.ID),
		zap.String("class", class.Name),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped))
	s.notifier.SubjectChanged(ctx, subject.ID)
	return result, nil
}

func (s *StudentService) resolveSubjectClass(ctx context.Context, subject *models.Subject, className string) (*models.Class, error) {
	canonical, ok := matchSubjectClass(subject, className)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class is not part of this subject")
	}
	return s.classes.Resolve(ctx, canonical)
}

// rosterNames drops blank cells and header labels from a roster column.
func rosterNames(values []string) ([]string, int) {
	names := make([]string, 0, len(values))
	skipped := 0
	for _, value := range values {
		name := strings.TrimSpace(value)
		switch strings.ToLower(name) {
		case "", "name", "student name":
			skipped++
			continue
		}
		names = append(names, name)
	}
	return names, skipped
}
