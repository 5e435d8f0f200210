package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// ProgressRepository stores raw syllabus progress payloads.
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository constructs a ProgressRepository.
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// ListBySubject returns every stored payload for the subject, undecoded.
func (r *ProgressRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.ProgressRow, error) {
	const query = `SELECT student_id, COALESCE(progress, 'null'::jsonb) AS progress FROM subject_progress WHERE subject_id = $1`
	var rows []models.ProgressRow
	if err := r.db.SelectContext(ctx, &rows, query, subjectID); err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return rows, nil
}

// FindByStudentSubject returns the payload for one student, or sql.ErrNoRows.
func (r *ProgressRepository) FindByStudentSubject(ctx context.Context, studentID, subjectID string) (*models.ProgressRow, error) {
	const query = `SELECT student_id, COALESCE(progress, 'null'::jsonb) AS progress FROM subject_progress WHERE student_id = $1 AND subject_id = $2`
	var row models.ProgressRow
	if err := r.db.GetContext(ctx, &row, query, studentID, subjectID); err != nil {
		return nil, err
	}
	return &row, nil
}

// Upsert replaces the payload for (student, subject).
func (r *ProgressRepository) Upsert(ctx context.Context, studentID, subjectID string, payload []byte) error {
	const query = `INSERT INTO subject_progress (id, student_id, subject_id, progress, updated_at)
        VALUES ($1, $2, $3, $4::jsonb, $5)
        ON CONFLICT (student_id, subject_id)
        DO UPDATE SET progress = EXCLUDED.progress, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), studentID, subjectID, string(payload), time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}
