package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// ExamEntryRepository handles exam mark persistence.
type ExamEntryRepository struct {
	db *sqlx.DB
}

// NewExamEntryRepository creates a new exam entry repository.
func NewExamEntryRepository(db *sqlx.DB) *ExamEntryRepository {
	return &ExamEntryRepository{db: db}
}

// UpsertMark writes one paper mark for (student, session, subject), leaving the other paper
// columns untouched, and returns the stored row.
func (r *ExamEntryRepository) UpsertMark(ctx context.Context, studentID, sessionName, subjectID string, paperIndex int, value float64) (*models.ExamEntry, error) {
	column, err := models.PaperColumn(paperIndex)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`INSERT INTO exam_entries (id, student_id, session_name, subject_id, %[1]s, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (student_id, session_name, subject_id)
        DO UPDATE SET %[1]s = EXCLUDED.%[1]s, updated_at = EXCLUDED.updated_at
        RETURNING %[2]s`, column, examEntryColumns)

	var entry models.ExamEntry
	if err := r.db.GetContext(ctx, &entry, query, uuid.NewString(), studentID, sessionName, subjectID, value, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("upsert exam mark: %w", err)
	}
	return &entry, nil
}
