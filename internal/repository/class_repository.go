package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// ClassRepository handles class persistence.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository creates a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns every class ordered by name.
func (r *ClassRepository) List(ctx context.Context) ([]models.Class, error) {
	const query = `SELECT id, name, created_at FROM classes ORDER BY name`
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// FindByName looks a class up case-insensitively.
func (r *ClassRepository) FindByName(ctx context.Context, name string) (*models.Class, error) {
	const query = `SELECT id, name, created_at FROM classes WHERE LOWER(name) = LOWER($1) LIMIT 1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, strings.TrimSpace(name)); err != nil {
		return nil, err
	}
	return &class, nil
}

// Create inserts a class. A concurrent insert of the same name yields ErrDuplicate.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	if class.CreatedAt.IsZero() {
		class.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO classes (id, name, created_at) VALUES (:id, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create class %q: %w", class.Name, ErrDuplicate)
		}
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}
