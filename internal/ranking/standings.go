// Package ranking turns raw exam entries and progress records into ranked standings.
// Everything here is pure: no I/O, no logging, no clocks.
package ranking

import (
	"math"
	"sort"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// Query is the complete input of one standings computation.
type Query struct {
	Subject    models.Subject
	ClassNames map[string]string
	Students   []models.StudentWithEntries
	Progress   map[string]models.Progress
	Mode       Mode
}

// ComputeStandings aggregates every student of the subject's classes, sorts them by the
// mode's key and assigns global and per-class competition ranks.
func ComputeStandings(q Query) []models.RankedStudent {
	sessionMax := q.Subject.SessionMaxSum()
	paperCount := len(q.Subject.Papers)

	standings := make([]models.RankedStudent, 0, len(q.Students))
	for _, student := range q.Students {
		className, ok := q.ClassNames[student.ClassID]
		if !ok {
			className = models.UnknownClassName
		}
		if !q.Subject.HasClass(className) {
			continue
		}

		row := models.RankedStudent{
			Student:   student.Student,
			ClassName: className,
			Entries:   make([]models.ExamEntry, 0, len(student.Entries)),
			Progress:  models.EmptyProgress(),
		}
		for _, entry := range student.Entries {
			if entry.SubjectID != q.Subject.ID {
				continue
			}
			row.Entries = append(row.Entries, entry)

			var sessionTotal float64
			for i := 0; i < paperCount; i++ {
				sessionTotal += entry.Mark(i)
			}
			row.GrandTotal += sessionTotal
			if sessionTotal > 0 {
				row.ActiveSessions++
			}
		}

		row.MaxPossible = sessionMax
		if row.ActiveSessions > 0 {
			row.MaxPossible = float64(row.ActiveSessions) * sessionMax
		}
		if row.MaxPossible > 0 {
			row.ExactPercentage = row.GrandTotal / row.MaxPossible * 100
		}
		row.Percentage = int(math.Round(row.ExactPercentage))

		if progress, ok := q.Progress[student.ID]; ok {
			row.Progress = progress
		}
		standings = append(standings, row)
	}

	mode := q.Mode
	if mode == "" {
		mode = ModePercentage
	}
	sort.SliceStable(standings, func(i, j int) bool {
		return mode.Key(standings[i]) > mode.Key(standings[j])
	})

	keys := make([]float64, len(standings))
	for i := range standings {
		keys[i] = mode.Key(standings[i])
	}
	for i, rank := range CompetitionRank(keys) {
		standings[i].GlobalRank = rank
	}

	seen := make(map[string]struct{}, len(q.Subject.Classes))
	for _, className := range q.Subject.Classes {
		if _, dup := seen[className]; dup {
			continue
		}
		seen[className] = struct{}{}

		var members []int
		var classKeys []float64
		for i := range standings {
			if standings[i].ClassName == className {
				members = append(members, i)
				classKeys = append(classKeys, keys[i])
			}
		}
		for pos, rank := range CompetitionRank(classKeys) {
			standings[members[pos]].ClassRank = rank
		}
	}

	return standings
}

// CompetitionRank assigns 1-based ranks to keys already sorted in descending order. Equal
// keys share a rank and the next distinct key skips ahead: 1, 1, 3, 4, 4, 6.
func CompetitionRank(keys []float64) []int {
	ranks := make([]int, len(keys))
	for i := range keys {
		if i > 0 && keys[i] == keys[i-1] {
			ranks[i] = ranks[i-1]
			continue
		}
		ranks[i] = i + 1
	}
	return ranks
}

// FilterByClass narrows standings to one class, keeping order. All Sections keeps everything.
func FilterByClass(standings []models.RankedStudent, className string) []models.RankedStudent {
	if models.IsAllSections(className) {
		return standings
	}
	filtered := make([]models.RankedStudent, 0, len(standings))
	for _, s := range standings {
		if s.ClassName == className {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// TopPerformers returns chart points for the first n standings.
func TopPerformers(standings []models.RankedStudent, n int) []models.ChartPoint {
	if n > len(standings) {
		n = len(standings)
	}
	if n < 0 {
		n = 0
	}
	points := make([]models.ChartPoint, 0, n)
	for _, s := range standings[:n] {
		points = append(points, models.NewChartPoint(s))
	}
	return points
}
