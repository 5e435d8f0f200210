package models

// CreateSubjectRequest describes a new subject.
type CreateSubjectRequest struct {
	Name      string   `json:"name" validate:"required,max=120"`
	Classes   []string `json:"classes" validate:"required,min=1,dive,required"`
	StartYear int      `json:"start_year" validate:"required,gte=1900,lte=2200"`
	EndYear   int      `json:"end_year" validate:"required,gte=1900,lte=2200"`
	Papers    []string `json:"papers" validate:"max=4,dive,required"`
	MaxMarks  []int64  `json:"max_marks" validate:"max=4,dive,gte=0"`
}

// AddStudentRequest enrols a student into one of the subject's classes.
type AddStudentRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	ClassName string `json:"class_name" validate:"required"`
}

// UpdateMarkRequest writes one paper mark for one session.
type UpdateMarkRequest struct {
	StudentID   string   `json:"student_id" validate:"required"`
	SessionName string   `json:"session_name" validate:"required"`
	Paper       *int     `json:"paper" validate:"required,gte=0"`
	Value       *float64 `json:"value" validate:"required"`
}

// UpdateProgressRequest writes syllabus progress. Paper is required in percentage mode only.
type UpdateProgressRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	Paper     *int   `json:"paper,omitempty" validate:"omitempty,gte=0"`
	Value     *int   `json:"value" validate:"required"`
}

// ProgressResult is the committed progress record after a write.
type ProgressResult struct {
	StudentID string   `json:"student_id"`
	SubjectID string   `json:"subject_id"`
	Progress  Progress `json:"progress"`
}
