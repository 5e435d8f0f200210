package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/repository"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context) ([]models.Class, error)
	FindByName(ctx context.Context, name string) (*models.Class, error)
	Create(ctx context.Context, class *models.Class) error
}

// ClassService lists classes and resolves names to class records, creating them on demand.
type ClassService struct {
	repo   classRepository
	logger *zap.Logger
}

// NewClassService constructs a ClassService.
func NewClassService(repo classRepository, logger *zap.Logger) *ClassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, logger: logger}
}

// List returns every known class.
func (s *ClassService) List(ctx context.Context) ([]models.Class, error) {
	classes, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list classes")
	}
	return classes, nil
}

// Resolve returns the class with the given name, ignoring case, creating it when missing.
// When a concurrent request creates the same class first, the existing record is returned.
func (s *ClassService) Resolve(ctx context.Context, name string) (*models.Class, error) {
	name = normalizeClassName(name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class name is required")
	}

	class, err := s.repo.FindByName(ctx, name)
	if err == nil {
		return class, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to look up class")
	}

	created := &models.Class{Name: name}
	if err := s.repo.Create(ctx, created); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Internal(err, "failed to create class")
		}
		class, err = s.repo.FindByName(ctx, name)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to reload class")
		}
		return class, nil
	}
	s.logger.Info("class created", zap.String("class_id", created.ID), zap.String("name", created.Name))
	return created, nil
}

func normalizeClassName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// sameClassName compares class names the way the classes table does.
func sameClassName(a, b string) bool {
	fold := cases.Fold()
	return fold.String(normalizeClassName(a)) == fold.String(normalizeClassName(b))
}

// matchSubjectClass returns the subject's own spelling of a class name.
func matchSubjectClass(subject *models.Subject, name string) (string, bool) {
	for _, class := range subject.Classes {
		if sameClassName(class, name) {
			return class, true
		}
	}
	return "", false
}
