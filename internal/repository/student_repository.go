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

const (
	studentColumns   = "id, name, class_id, subject_id, created_at"
	examEntryColumns = "id, student_id, session_name, subject_id, p1, p2, p3, p4, updated_at"
)

// StudentRepository provides persistence for students and their exam entries.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// ListBySubject returns the subject's students in enrolment order, each with every exam entry
// recorded against them.
func (r *StudentRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.StudentWithEntries, error) {
	query := "SELECT " + studentColumns + " FROM students WHERE subject_id = $1 ORDER BY created_at, id"
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, subjectID); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	ids := make([]string, len(students))
	for i, s := range students {
		ids[i] = s.ID
	}
	entries, err := r.fetchEntries(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]models.StudentWithEntries, len(students))
	for i, s := range students {
		result[i] = models.StudentWithEntries{Student: s, Entries: entries[s.ID]}
		if result[i].Entries == nil {
			result[i].Entries = []models.ExamEntry{}
		}
	}
	return result, nil
}

func (r *StudentRepository) fetchEntries(ctx context.Context, studentIDs []string) (map[string][]models.ExamEntry, error) {
	if len(studentIDs) == 0 {
		return map[string][]models.ExamEntry{}, nil
	}
	placeholders := make([]string, len(studentIDs))
	args := make([]interface{}, len(studentIDs))
	for i, id := range studentIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf("SELECT %s FROM exam_entries WHERE student_id IN (%s)", examEntryColumns, strings.Join(placeholders, ","))
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch exam entries: %w", err)
	}
	defer rows.Close()
	result := make(map[string][]models.ExamEntry, len(studentIDs))
	for rows.Next() {
		var entry models.ExamEntry
		if err := rows.StructScan(&entry); err != nil {
			return nil, fmt.Errorf("scan exam entry: %w", err)
		}
		result[entry.StudentID] = append(result[entry.StudentID], entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exam entries: %w", err)
	}
	return result, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := "SELECT " + studentColumns + " FROM students WHERE id = $1"
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

const insertStudentQuery = `INSERT INTO students (id, name, class_id, subject_id, created_at)
        VALUES (:id, :name, :class_id, :subject_id, :created_at)`

// Create inserts a student.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	prepareStudent(student, time.Now().UTC())
	if _, err := r.db.NamedExecContext(ctx, insertStudentQuery, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// BulkCreate inserts students in one transaction.
func (r *StudentRepository) BulkCreate(ctx context.Context, students []models.Student) error {
	if len(students) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin student import: %w", err)
	}
	now := time.Now().UTC()
	for i := range students {
		// distinct timestamps keep import order stable under ORDER BY created_at
		prepareStudent(&students[i], now.Add(time.Duration(i)*time.Microsecond))
		if _, err := tx.NamedExecContext(ctx, insertStudentQuery, students[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("bulk create student: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit students: %w", err)
	}
	return nil
}

// Delete removes a student together with their entries and progress.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete student rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func prepareStudent(student *models.Student, now time.Time) {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
}
