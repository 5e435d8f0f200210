package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gradebook-api/internal/models"
)

const teacherColumns = "id, email, password_hash, name, theme, created_at, updated_at"

// TeacherRepository manages persistence for teachers.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// FindByID fetches a teacher by ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	query := "SELECT " + teacherColumns + " FROM teachers WHERE id = $1"
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindByEmail fetches a teacher by email, ignoring case.
func (r *TeacherRepository) FindByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	query := "SELECT " + teacherColumns + " FROM teachers WHERE LOWER(email) = LOWER($1)"
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, strings.TrimSpace(email)); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// Create inserts a teacher account.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	teacher.CreatedAt = now
	teacher.UpdatedAt = now
	const query = `INSERT INTO teachers (id, email, password_hash, name, theme, created_at, updated_at)
        VALUES (:id, :email, :password_hash, :name, :theme, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create teacher %s: %w", teacher.Email, ErrDuplicate)
		}
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// UpdateTheme stores the teacher's palette key.
func (r *TeacherRepository) UpdateTheme(ctx context.Context, id, theme string) error {
	const query = `UPDATE teachers SET theme = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, theme, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update teacher theme: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update teacher theme rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
