package models

import (
	"fmt"
	"time"

	"github.com/lib/pq"
)

// MaxPapers bounds the number of papers a subject may define.
const MaxPapers = 4

// DefaultPaperMax is assumed for a paper when a subject carries no max marks.
const DefaultPaperMax = 75

// Exam sittings held every year, in enumeration order.
var Sittings = []string{"May/June", "Oct/Nov"}

// Subject is a teacher's course offering across one or more classes.
type Subject struct {
	ID        string         `db:"id" json:"id"`
	TeacherID string         `db:"teacher_id" json:"teacher_id"`
	Name      string         `db:"name" json:"name"`
	Classes   pq.StringArray `db:"classes" json:"classes"`
	StartYear int            `db:"start_year" json:"start_year"`
	EndYear   int            `db:"end_year" json:"end_year"`
	Papers    pq.StringArray `db:"papers" json:"papers"`
	MaxMarks  pq.Int64Array  `db:"max_marks" json:"max_marks"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// Sessions enumerates exam session labels from EndYear down to StartYear, two per year.
func (s Subject) Sessions() []string {
	if s.EndYear < s.StartYear {
		return []string{}
	}
	sessions := make([]string, 0, 2*(s.EndYear-s.StartYear+1))
	for year := s.EndYear; year >= s.StartYear; year-- {
		for _, sitting := range Sittings {
			sessions = append(sessions, fmt.Sprintf("%s %d", sitting, year))
		}
	}
	return sessions
}

// HasSession reports whether name is one of the subject's sessions.
func (s Subject) HasSession(name string) bool {
	for _, session := range s.Sessions() {
		if session == name {
			return true
		}
	}
	return false
}

// HasClass reports whether the subject applies to the named class.
func (s Subject) HasClass(name string) bool {
	for _, class := range s.Classes {
		if class == name {
			return true
		}
	}
	return false
}

// PaperMax returns the maximum mark for the paper at index.
func (s Subject) PaperMax(index int) float64 {
	if s.MaxMarks != nil && index >= 0 && index < len(s.MaxMarks) {
		return float64(s.MaxMarks[index])
	}
	return DefaultPaperMax
}

// SessionMaxSum is the best possible total for one session. Without max marks it assumes
// DefaultPaperMax per paper, or MaxPapers papers when none are defined.
func (s Subject) SessionMaxSum() float64 {
	if s.MaxMarks != nil {
		var sum int64
		for _, mark := range s.MaxMarks {
			sum += mark
		}
		return float64(sum)
	}
	papers := len(s.Papers)
	if papers == 0 {
		papers = MaxPapers
	}
	return float64(papers * DefaultPaperMax)
}
