package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/ranking"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

type standingsFixture struct {
	svc      *StandingsService
	students *mockStudentRepo
	progress *mockProgressRepo
	cache    *mockCacheRepo
	logs     *observer.ObservedLogs
}

func examEntry(studentID, session string, p1, p2 float64) models.ExamEntry {
	return models.ExamEntry{StudentID: studentID, SessionName: session, SubjectID: "sub-1", P1: ptrFloat(p1), P2: ptrFloat(p2)}
}

func newStandingsFixture(t *testing.T, cacheEnabled bool, mode ranking.Mode) *standingsFixture {
	t.Helper()
	core, logs := observer.New(zap.WarnLevel)
	logger := zap.New(core)

	classes := &mockClassRepo{classes: []models.Class{{ID: "c-a", Name: "10A"}, {ID: "c-b", Name: "10B"}}}
	students := newMockStudentRepo()
	students.add(models.Student{ID: "b", Name: "Bilal Ahmed", ClassID: "c-a", SubjectID: "sub-1"}, examEntry("b", "May/June 2024", 30, 30))
	students.add(models.Student{ID: "a", Name: "Amna Tariq", ClassID: "c-a", SubjectID: "sub-1"}, examEntry("a", "May/June 2024", 40, 40))
	students.add(models.Student{ID: "z", Name: "Zara Khan", ClassID: "c-b", SubjectID: "sub-1"}, examEntry("z", "May/June 2024", 45, 45))

	progress := newMockProgressRepo()
	progress.rows["a"] = []byte(`{"0": 80, "1": 20}`)
	progress.rows["b"] = []byte(`"{broken"`)

	cacheRepo := newMockCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, logger, cacheEnabled)
	svc := NewStandingsService(newMockSubjectRepo(sampleSubject()), classes, students, progress, cache, NewMetricsService(), logger, StandingsConfig{Mode: mode})
	return &standingsFixture{svc: svc, students: students, progress: progress, cache: cacheRepo, logs: logs}
}

func TestStandingsServiceRanksAllSections(t *testing.T) {
	f := newStandingsFixture(t, false, ranking.ModePercentage)

	view, err := f.svc.Standings(context.Background(), "t1", "sub-1", "")
	require.NoError(t, err)
	assert.Equal(t, models.AllSections, view.Class)
	assert.True(t, view.ShowClassColumn())
	assert.Len(t, view.Sessions, 4)
	require.Len(t, view.Standings, 3)

	names := []string{view.Standings[0].Name, view.Standings[1].Name, view.Standings[2].Name}
	assert.Equal(t, []string{"Zara Khan", "Amna Tariq", "Bilal Ahmed"}, names)
	assert.Equal(t, []int{1, 2, 3}, []int{view.Standings[0].GlobalRank, view.Standings[1].GlobalRank, view.Standings[2].GlobalRank})
	assert.Equal(t, 80, view.Standings[1].Percentage)
	assert.Equal(t, 60, view.Standings[2].Percentage)
	assert.Equal(t, 1, view.Standings[1].ClassRank)
	assert.Equal(t, 1, view.Standings[0].ClassRank)
}

func TestStandingsServiceDegradesMalformedProgress(t *testing.T) {
	f := newStandingsFixture(t, false, ranking.ModePercentage)

	view, err := f.svc.Standings(context.Background(), "t1", "sub-1", models.AllSections)
	require.NoError(t, err)

	byID := map[string]models.RankedStudent{}
	for _, s := range view.Standings {
		byID[s.ID] = s
	}
	assert.Equal(t, 80, byID["a"].Progress.Paper(0))
	assert.Equal(t, models.ProgressEmpty, byID["b"].Progress.Kind())
	assert.Equal(t, models.ProgressEmpty, byID["z"].Progress.Kind())

	entries := f.logs.FilterMessage("malformed progress record").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].ContextMap()["student_id"])
}

func TestStandingsServiceFiltersClass(t *testing.T) {
	f := newStandingsFixture(t, false, ranking.ModePercentage)

	view, err := f.svc.Standings(context.Background(), "t1", "sub-1", "10a")
	require.NoError(t, err)
	assert.Equal(t, "10A", view.Class)
	require.Len(t, view.Standings, 2)
	assert.Equal(t, "Amna Tariq", view.Standings[0].Name)
	assert.Equal(t, 2, view.Standings[0].GlobalRank)
	assert.Equal(t, 1, view.Standings[0].ClassRank)

	_, err = f.svc.Standings(context.Background(), "t1", "sub-1", "12Z")
	assert.Equal(t, appErrors.ErrValidation.Code, errCode(err))
}

func TestStandingsServiceHidesForeignSubject(t *testing.T) {
	f := newStandingsFixture(t, false, ranking.ModePercentage)

	_, err := f.svc.Standings(context.Background(), "t2", "sub-1", "")
	assert.Equal(t, appErrors.ErrNotFound.Code, errCode(err))
	_, err = f.svc.Standings(context.Background(), "t1", "missing", "")
	assert.Equal(t, appErrors.ErrNotFound.Code, errCode(err))
}

func TestStandingsServiceFetchFailure(t *testing.T) {
	f := newStandingsFixture(t, false, ranking.ModePercentage)
	f.students.listErr = errors.New("connection reset")

	_, err := f.svc.Standings(context.Background(), "t1", "sub-1", "")
	assert.Equal(t, appErrors.ErrInternal.Code, errCode(err))
}

func TestStandingsServiceTopPerformers(t *testing.T) {
	f := newStandingsFixture(t, false, ranking.ModePercentage)

	points, err := f.svc.TopPerformers(context.Background(), "t1", "sub-1", "")
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, "Zara", points[0].Name)
	assert.Equal(t, 90, points[0].Score)
	assert.Equal(t, 100.0, points[0].MaxMarks)
}

func TestStandingsServiceCachesAndInvalidates(t *testing.T) {
	f := newStandingsFixture(t, true, ranking.ModeTotal)
	ctx := context.Background()

	_, err := f.svc.Standings(ctx, "t1", "sub-1", "")
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.sets)

	calls := 0
	f.students.onList = func() { calls++ }
	_, err = f.svc.Standings(ctx, "t1", "sub-1", "")
	require.NoError(t, err)
	assert.Zero(t, calls, "second read should be served from cache")

	require.NoError(t, f.svc.Invalidate(ctx, "sub-1"))
	assert.Equal(t, []string{"gradebook:standings:sub-1:*"}, f.cache.deletes)
	_, err = f.svc.Standings(ctx, "t1", "sub-1", "")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, f.cache.sets)
}

func TestStandingsServiceDropsStaleComputation(t *testing.T) {
	f := newStandingsFixture(t, true, ranking.ModePercentage)
	ctx := context.Background()

	first := true
	f.students.onList = func() {
		if first {
			first = false
			// a write lands while this computation is reading its inputs
			assert.NoError(t, f.svc.Invalidate(ctx, "sub-1"))
		}
	}

	_, err := f.svc.Standings(ctx, "t1", "sub-1", "")
	require.NoError(t, err)
	assert.Zero(t, f.cache.sets)

	_, err = f.svc.Standings(ctx, "t1", "sub-1", "")
	require.NoError(t, err)
	assert.Equal(t, 1, f.cache.sets)
}

func TestGenerationTracker(t *testing.T) {
	tracker := newGenerationTracker()

	gen := tracker.Current("s")
	ran := false
	assert.True(t, tracker.Publish("s", gen, func() { ran = true }))
	assert.True(t, ran)

	tracker.Bump("s")
	assert.False(t, tracker.Publish("s", gen, func() { t.Fatal("stale publish ran") }))
	assert.Equal(t, uint64(0), tracker.Current("other"))
}
