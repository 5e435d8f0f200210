package models

import "time"

// Student is enrolled in exactly one class for exactly one subject.
type Student struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	ClassID   string    `db:"class_id" json:"class_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// StudentWithEntries carries a student together with every exam entry recorded for them.
type StudentWithEntries struct {
	Student
	Entries []ExamEntry `json:"exam_entries"`
}
