package ranking

import (
	"math"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/models"
)

func mark(v float64) *float64 {
	return &v
}

func entry(studentID, session string, marks ...float64) models.ExamEntry {
	e := models.ExamEntry{StudentID: studentID, SessionName: session, SubjectID: "sub-1"}
	slots := []**float64{&e.P1, &e.P2, &e.P3, &e.P4}
	for i, m := range marks {
		*slots[i] = mark(m)
	}
	return e
}

func student(id, name, classID string, entries ...models.ExamEntry) models.StudentWithEntries {
	return models.StudentWithEntries{
		Student: models.Student{ID: id, Name: name, ClassID: classID, SubjectID: "sub-1"},
		Entries: entries,
	}
}

func twoPaperSubject() models.Subject {
	return models.Subject{
		ID:        "sub-1",
		Name:      "Physics",
		Classes:   pq.StringArray{"10A", "10B"},
		StartYear: 2023,
		EndYear:   2024,
		Papers:    pq.StringArray{"P1", "P2"},
		MaxMarks:  pq.Int64Array{50, 50},
	}
}

var classNames = map[string]string{"c-a": "10A", "c-b": "10B", "c-x": "11X"}

func TestCompetitionRank(t *testing.T) {
	assert.Equal(t, []int{1, 1, 3, 4, 4, 4}, CompetitionRank([]float64{90, 90, 85, 80, 80, 80}))
	assert.Equal(t, []int{1, 1, 3, 4, 4, 6}, CompetitionRank([]float64{9, 9, 8, 7, 7, 6}))
	assert.Empty(t, CompetitionRank(nil))
}

func TestComputeStandingsTiesOnUnroundedPercentage(t *testing.T) {
	subject := twoPaperSubject()
	subject.MaxMarks = pq.Int64Array{200, 200}
	// 355/400 = 88.75% and 356/400 = 89.0% both round to 89.
	standings := ComputeStandings(Query{
		Subject:    subject,
		ClassNames: classNames,
		Students: []models.StudentWithEntries{
			student("s1", "Low", "c-a", entry("s1", "May/June 2024", 177, 178)),
			student("s2", "High", "c-a", entry("s2", "May/June 2024", 178, 178)),
		},
	})

	require.Len(t, standings, 2)
	assert.Equal(t, 89, standings[0].Percentage)
	assert.Equal(t, 89, standings[1].Percentage)
	assert.Equal(t, "High", standings[0].Name)
	assert.Equal(t, 1, standings[0].GlobalRank)
	assert.Equal(t, 2, standings[1].GlobalRank)
}

func TestComputeStandingsClassRankIndependent(t *testing.T) {
	standings := ComputeStandings(Query{
		Subject:    twoPaperSubject(),
		ClassNames: classNames,
		Students: []models.StudentWithEntries{
			student("a1", "A1", "c-a", entry("a1", "May/June 2024", 40, 40)),
			student("b1", "B1", "c-b", entry("b1", "May/June 2024", 50, 50)),
			student("a2", "A2", "c-a", entry("a2", "May/June 2024", 30, 30)),
			student("b2", "B2", "c-b", entry("b2", "May/June 2024", 40, 40)),
		},
	})

	byName := map[string]models.RankedStudent{}
	for _, s := range standings {
		byName[s.Name] = s
	}
	assert.Equal(t, 1, byName["B1"].GlobalRank)
	assert.Equal(t, 2, byName["A1"].GlobalRank)
	assert.Equal(t, 2, byName["B2"].GlobalRank)
	assert.Equal(t, 4, byName["A2"].GlobalRank)

	assert.Equal(t, 1, byName["A1"].ClassRank)
	assert.Equal(t, 2, byName["A2"].ClassRank)
	assert.Equal(t, 1, byName["B1"].ClassRank)
	assert.Equal(t, 2, byName["B2"].ClassRank)
}

func TestComputeStandingsSessionNormalisation(t *testing.T) {
	standings := ComputeStandings(Query{
		Subject:    twoPaperSubject(),
		ClassNames: classNames,
		Students: []models.StudentWithEntries{
			student("s1", "None", "c-a"),
			student("s2", "Two", "c-a",
				entry("s2", "May/June 2024", 25, 25),
				entry("s2", "Oct/Nov 2024", 50, 0),
				entry("s2", "May/June 2023", 0, 0),
			),
		},
	})

	require.Len(t, standings, 2)
	two, none := standings[0], standings[1]
	assert.Equal(t, 2, two.ActiveSessions)
	assert.Equal(t, 200.0, two.MaxPossible)
	assert.Equal(t, 100.0, two.GrandTotal)
	assert.Equal(t, 50, two.Percentage)

	assert.Equal(t, 0, none.ActiveSessions)
	assert.Equal(t, 100.0, none.MaxPossible)
	assert.Equal(t, 0.0, none.ExactPercentage)
}

func TestComputeStandingsZeroMaxNeverNaN(t *testing.T) {
	subject := twoPaperSubject()
	subject.MaxMarks = pq.Int64Array{0, 0}

	standings := ComputeStandings(Query{
		Subject:    subject,
		ClassNames: classNames,
		Students:   []models.StudentWithEntries{student("s1", "Zero", "c-a", entry("s1", "May/June 2024", 5, 0))},
	})

	require.Len(t, standings, 1)
	assert.False(t, math.IsNaN(standings[0].ExactPercentage))
	assert.Equal(t, 0.0, standings[0].ExactPercentage)
	assert.Equal(t, 0, standings[0].Percentage)
}

func TestComputeStandingsFiltersClassesAndEntries(t *testing.T) {
	foreign := entry("s1", "May/June 2024", 50, 50)
	foreign.SubjectID = "other"

	standings := ComputeStandings(Query{
		Subject:    twoPaperSubject(),
		ClassNames: classNames,
		Students: []models.StudentWithEntries{
			student("s1", "Kept", "c-a", foreign, entry("s1", "Oct/Nov 2024", 10, 10)),
			student("s2", "OtherClass", "c-x", entry("s2", "Oct/Nov 2024", 50, 50)),
			student("s3", "Orphan", "missing", entry("s3", "Oct/Nov 2024", 50, 50)),
		},
	})

	require.Len(t, standings, 1)
	assert.Equal(t, "Kept", standings[0].Name)
	assert.Equal(t, 20.0, standings[0].GrandTotal)
	assert.Len(t, standings[0].Entries, 1)
}

func TestComputeStandingsUnknownClassKeptWhenListed(t *testing.T) {
	subject := twoPaperSubject()
	subject.Classes = pq.StringArray{models.UnknownClassName}

	standings := ComputeStandings(Query{
		Subject:  subject,
		Students: []models.StudentWithEntries{student("s1", "Orphan", "gone")},
	})

	require.Len(t, standings, 1)
	assert.Equal(t, models.UnknownClassName, standings[0].ClassName)
	assert.Equal(t, 1, standings[0].ClassRank)
}

func TestComputeStandingsProgressIsolation(t *testing.T) {
	raw, err := models.DecodeProgress([]byte(`{"0": 70}`))
	require.NoError(t, err)
	broken, decodeErr := models.DecodeProgress([]byte(`"{oops"`))
	require.Error(t, decodeErr)

	standings := ComputeStandings(Query{
		Subject:    twoPaperSubject(),
		ClassNames: classNames,
		Students: []models.StudentWithEntries{
			student("s1", "Good", "c-a", entry("s1", "May/June 2024", 40, 40)),
			student("s2", "Broken", "c-a", entry("s2", "May/June 2024", 30, 30)),
			student("s3", "Missing", "c-a"),
		},
		Progress: map[string]models.Progress{"s1": raw, "s2": broken},
	})

	require.Len(t, standings, 3)
	assert.Equal(t, 70, standings[0].Progress.Paper(0))
	assert.Equal(t, models.ProgressEmpty, standings[1].Progress.Kind())
	assert.Equal(t, models.ProgressEmpty, standings[2].Progress.Kind())
	assert.Equal(t, 60, standings[1].Percentage)
}

func TestComputeStandingsEndToEndOrdering(t *testing.T) {
	standings := ComputeStandings(Query{
		Subject:    twoPaperSubject(),
		ClassNames: classNames,
		Students: []models.StudentWithEntries{
			student("b", "B", "c-a", entry("b", "May/June 2024", 30, 30)),
			student("a", "A", "c-a", entry("a", "May/June 2024", 40, 40)),
		},
		Mode: ModePercentage,
	})

	require.Len(t, standings, 2)
	assert.Equal(t, "A", standings[0].Name)
	assert.Equal(t, 80, standings[0].Percentage)
	assert.Equal(t, 1, standings[0].GlobalRank)
	assert.Equal(t, "B", standings[1].Name)
	assert.Equal(t, 60, standings[1].Percentage)
	assert.Equal(t, 2, standings[1].GlobalRank)
}

func TestComputeStandingsTotalModeRanksByGrandTotal(t *testing.T) {
	standings := ComputeStandings(Query{
		Subject:    twoPaperSubject(),
		ClassNames: classNames,
		Students: []models.StudentWithEntries{
			// 90/100 over one session against 120/200 over two.
			student("one", "One", "c-a", entry("one", "May/June 2024", 45, 45)),
			student("two", "Two", "c-a", entry("two", "May/June 2024", 30, 30), entry("two", "Oct/Nov 2024", 30, 30)),
		},
		Mode: ModeTotal,
	})

	require.Len(t, standings, 2)
	assert.Equal(t, "Two", standings[0].Name)
	assert.Equal(t, 60, standings[0].Percentage)
	assert.Equal(t, "One", standings[1].Name)
}

func TestComputeStandingsStableForEqualKeys(t *testing.T) {
	standings := ComputeStandings(Query{
		Subject:    twoPaperSubject(),
		ClassNames: classNames,
		Students: []models.StudentWithEntries{
			student("s1", "First", "c-a"),
			student("s2", "Second", "c-b"),
			student("s3", "Third", "c-a"),
		},
	})

	require.Len(t, standings, 3)
	assert.Equal(t, []string{"First", "Second", "Third"}, []string{standings[0].Name, standings[1].Name, standings[2].Name})
	for _, s := range standings {
		assert.Equal(t, 1, s.GlobalRank)
		assert.Equal(t, 1, s.ClassRank)
	}
}

func TestFilterByClassAndTopPerformers(t *testing.T) {
	standings := ComputeStandings(Query{
		Subject:    twoPaperSubject(),
		ClassNames: classNames,
		Students: []models.StudentWithEntries{
			student("a1", "Sara Ali", "c-a", entry("a1", "May/June 2024", 40, 40)),
			student("b1", "Omar Farooq", "c-b", entry("b1", "May/June 2024", 45, 45)),
		},
	})

	assert.Len(t, FilterByClass(standings, models.AllSections), 2)
	onlyA := FilterByClass(standings, "10A")
	require.Len(t, onlyA, 1)
	assert.Equal(t, "Sara Ali", onlyA[0].Name)

	points := TopPerformers(standings, 10)
	require.Len(t, points, 2)
	assert.Equal(t, "Omar", points[0].Name)
	assert.Equal(t, 90, points[0].Score)
	assert.Empty(t, TopPerformers(standings, -1))
}
