package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gradebook-api/internal/models"
)

const subjectColumns = "id, teacher_id, name, classes, start_year, end_year, papers, max_marks, created_at"

// SubjectRepository manages subject persistence.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository returns a new repository instance.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// ListByTeacher returns the teacher's subjects, newest first.
func (r *SubjectRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Subject, error) {
	query := "SELECT " + subjectColumns + " FROM subjects WHERE teacher_id = $1 ORDER BY created_at DESC"
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, teacherID); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// FindByID fetches a subject by ID.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	query := "SELECT " + subjectColumns + " FROM subjects WHERE id = $1"
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// Create inserts a subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO subjects (id, teacher_id, name, classes, start_year, end_year, papers, max_marks, created_at)
        VALUES (:id, :teacher_id, :name, :classes, :start_year, :end_year, :papers, :max_marks, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Delete removes a subject owned by the teacher. Students and entries are left in place.
func (r *SubjectRepository) Delete(ctx context.Context, id, teacherID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subjects WHERE id = $1 AND teacher_id = $2`, id, teacherID)
	if err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete subject rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
