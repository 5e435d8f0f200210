package models

import (
	"fmt"
	"time"
)

// ExamEntry holds up to four paper marks for a (student, session, subject) key.
type ExamEntry struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	SessionName string    `db:"session_name" json:"session_name"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	P1          *float64  `db:"p1" json:"p1"`
	P2          *float64  `db:"p2" json:"p2"`
	P3          *float64  `db:"p3" json:"p3"`
	P4          *float64  `db:"p4" json:"p4"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Value returns the stored mark for the zero-based paper index, or nil when none is recorded.
func (e ExamEntry) Value(index int) *float64 {
	switch index {
	case 0:
		return e.P1
	case 1:
		return e.P2
	case 2:
		return e.P3
	case 3:
		return e.P4
	}
	return nil
}

// Mark returns the mark for the zero-based paper index, treating missing values as zero.
func (e ExamEntry) Mark(index int) float64 {
	if value := e.Value(index); value != nil {
		return *value
	}
	return 0
}

// PaperColumn maps a zero-based paper index to its storage column (p1..p4).
func PaperColumn(index int) (string, error) {
	if index < 0 || index >= MaxPapers {
		return "", fmt.Errorf("paper index %d out of range", index)
	}
	return fmt.Sprintf("p%d", index+1), nil
}
