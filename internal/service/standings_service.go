package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/ranking"
	"github.com/noah-isme/gradebook-api/internal/repository"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

// TopPerformersLimit caps the chart of best students.
const TopPerformersLimit = 10

type standingsClassRepository interface {
	List(ctx context.Context) ([]models.Class, error)
}

type standingsStudentRepository interface {
	ListBySubject(ctx context.Context, subjectID string) ([]models.StudentWithEntries, error)
}

type standingsProgressRepository interface {
	ListBySubject(ctx context.Context, subjectID string) ([]models.ProgressRow, error)
}

// StandingsConfig tunes ranking and caching.
type StandingsConfig struct {
	Mode     ranking.Mode
	CacheTTL time.Duration
}

// StandingsService gathers a subject's data, ranks it and caches the result.
type StandingsService struct {
	subjects    subjectFinder
	classes     standingsClassRepository
	students    standingsStudentRepository
	progress    standingsProgressRepository
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
	cfg         StandingsConfig
	generations *generationTracker
}

// NewStandingsService constructs a StandingsService. cache and metrics may be nil.
func NewStandingsService(subjects subjectFinder, classes standingsClassRepository, students standingsStudentRepository, progress standingsProgressRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg StandingsConfig) *StandingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Mode == "" {
		cfg.Mode = ranking.ModePercentage
	}
	return &StandingsService{
		subjects:    subjects,
		classes:     classes,
		students:    students,
		progress:    progress,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
		cfg:         cfg,
		generations: newGenerationTracker(),
	}
}

// Mode reports the deployment's ranking mode.
func (s *StandingsService) Mode() ranking.Mode {
	return s.cfg.Mode
}

// CacheEnabled reports whether computed standings are cached.
func (s *StandingsService) CacheEnabled() bool {
	return s.cache.Enabled()
}

// Standings returns the ranked students of one of the teacher's subjects, narrowed to a
// class unless className selects all sections.
func (s *StandingsService) Standings(ctx context.Context, teacherID, subjectID, className string) (*models.StandingsView, error) {
	subject, err := loadOwnedSubject(ctx, s.subjects, teacherID, subjectID)
	if err != nil {
		return nil, err
	}

	view := &models.StandingsView{
		Subject:  *subject,
		Class:    models.AllSections,
		Mode:     s.cfg.Mode.String(),
		Sessions: subject.Sessions(),
	}
	if !models.IsAllSections(className) {
		canonical, ok := matchSubjectClass(subject, className)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "class is not part of this subject")
		}
		view.Class = canonical
	}

	standings, err := s.compute(ctx, subject)
	if err != nil {
		return nil, err
	}
	view.Standings = ranking.FilterByClass(standings, view.Class)
	return view, nil
}

// TopPerformers returns chart points for the best students of the current view.
func (s *StandingsService) TopPerformers(ctx context.Context, teacherID, subjectID, className string) ([]models.ChartPoint, error) {
	view, err := s.Standings(ctx, teacherID, subjectID, className)
	if err != nil {
		return nil, err
	}
	return ranking.TopPerformers(view.Standings, TopPerformersLimit), nil
}

// Invalidate discards cached standings of a subject and outdates computations in flight.
func (s *StandingsService) Invalidate(ctx context.Context, subjectID string) error {
	s.generations.Bump(subjectID)
	return s.cache.Invalidate(ctx, repository.StandingsCachePattern(subjectID))
}

// Refresh recomputes a subject's standings and publishes them to the cache.
func (s *StandingsService) Refresh(ctx context.Context, subjectID string) error {
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		return err
	}
	_, err = s.compute(ctx, subject)
	return err
}

func (s *StandingsService) compute(ctx context.Context, subject *models.Subject) ([]models.RankedStudent, error) {
	key := repository.StandingsCacheKey(subject.ID, s.cfg.Mode.String())

	var cached []models.RankedStudent
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	gen := s.generations.Current(subject.ID)

	var (
		classes  []models.Class
		students []models.StudentWithEntries
		rows     []models.ProgressRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		classes, err = s.classes.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		students, err = s.students.ListBySubject(gctx, subject.ID)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = s.progress.ListBySubject(gctx, subject.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, appErrors.Internal(err, "failed to load standings data")
	}

	start := time.Now()
	standings := ranking.ComputeStandings(ranking.Query{
		Subject:    *subject,
		ClassNames: models.ClassNameIndex(classes),
		Students:   students,
		Progress:   s.decodeProgress(subject.ID, rows),
		Mode:       s.cfg.Mode,
	})
	s.metrics.ObserveStandings(s.cfg.Mode.String(), len(standings), time.Since(start))

	if s.cache.Enabled() {
		published := s.generations.Publish(subject.ID, gen, func() {
			_ = s.cache.Set(ctx, key, standings, s.cfg.CacheTTL)
		})
		if !published {
			s.logger.Debug("discarding stale standings", zap.String("subject_id", subject.ID))
		}
	}
	return standings, nil
}

// decodeProgress classifies stored progress payloads. A malformed payload degrades to empty
// progress for that student alone.
func (s *StandingsService) decodeProgress(subjectID string, rows []models.ProgressRow) map[string]models.Progress {
	progress := make(map[string]models.Progress, len(rows))
	for _, row := range rows {
		decoded, err := models.DecodeProgress(row.Progress)
		if err != nil {
			s.metrics.RecordProgressDecodeError()
			s.logger.Warn("malformed progress record",
				zap.String("subject_id", subjectID),
				zap.String("student_id", row.StudentID),
				zap.Error(err))
		}
		progress[row.StudentID] = decoded
	}
	return progress
}
