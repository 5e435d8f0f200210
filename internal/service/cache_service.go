package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService wraps the cache repository with metrics and an on/off switch.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get attempts to retrieve a cached entry. It returns true when the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	return true, nil
}

// Set stores the value in cache.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate removes cached values for the provided pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	return nil
}

// generationTracker numbers the invalidations of each key. A computation captures the
// generation before reading its inputs and may publish only if no invalidation happened since.
type generationTracker struct {
	mu   sync.Mutex
	keys map[string]*generation
}

type generation struct {
	mu    sync.Mutex
	value uint64
}

func newGenerationTracker() *generationTracker {
	return &generationTracker{keys: make(map[string]*generation)}
}

func (t *generationTracker) entry(key string) *generation {
	t.mu.Lock()
	defer t.mu.Unlock()
	g, ok := t.keys[key]
	if !ok {
		g = &generation{}
		t.keys[key] = g
	}
	return g
}

// Current returns the latest generation of key.
func (t *generationTracker) Current(key string) uint64 {
	g := t.entry(key)
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value
}

// Bump invalidates every computation started before the call. It waits for an in-flight
// publish of the same key to finish.
func (t *generationTracker) Bump(key string) uint64 {
	g := t.entry(key)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value++
	return g.value
}

// Publish runs fn only when gen is still current, holding off Bump until fn returns.
func (t *generationTracker) Publish(key string, gen uint64, fn func()) bool {
	g := t.entry(key)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.value != gen {
		return false
	}
	fn()
	return true
}
