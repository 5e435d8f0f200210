package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/pkg/jobs"
)

type fakeRefreshTarget struct {
	mu          sync.Mutex
	cache       bool
	invalidated []string
	refreshed   []string
	refreshErr  error
}

func (f *fakeRefreshTarget) Invalidate(ctx context.Context, subjectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, subjectID)
	return nil
}

func (f *fakeRefreshTarget) Refresh(ctx context.Context, subjectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed = append(f.refreshed, subjectID)
	return f.refreshErr
}

func (f *fakeRefreshTarget) CacheEnabled() bool {
	return f.cache
}

func (f *fakeRefreshTarget) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.refreshed)
}

func TestStandingsRefresherRecomputesWhenCaching(t *testing.T) {
	target := &fakeRefreshTarget{cache: true}
	refresher := NewStandingsRefresher(target, NewMetricsService(), jobs.QueueConfig{Workers: 1, RetryDelay: time.Millisecond})
	refresher.Start(context.Background())
	defer refresher.Stop()

	refresher.SubjectChanged(context.Background(), "sub-1")

	assert.Equal(t, []string{"sub-1"}, target.invalidated)
	require.Eventually(t, func() bool { return target.refreshCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestStandingsRefresherOnlyInvalidatesWithoutCache(t *testing.T) {
	target := &fakeRefreshTarget{cache: false}
	refresher := NewStandingsRefresher(target, nil, jobs.QueueConfig{Workers: 1})
	refresher.Start(context.Background())
	defer refresher.Stop()

	refresher.SubjectChanged(context.Background(), "sub-1")

	assert.Equal(t, []string{"sub-1"}, target.invalidated)
	assert.Never(t, func() bool { return target.refreshCount() > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestStandingsRefresherBeforeStart(t *testing.T) {
	target := &fakeRefreshTarget{cache: true}
	refresher := NewStandingsRefresher(target, nil, jobs.QueueConfig{})

	refresher.SubjectChanged(context.Background(), "sub-1")

	assert.Equal(t, []string{"sub-1"}, target.invalidated)
	assert.Zero(t, target.refreshCount())
}

func TestStandingsRefresherHandleReportsFailure(t *testing.T) {
	target := &fakeRefreshTarget{cache: true, refreshErr: errors.New("db down")}
	refresher := NewStandingsRefresher(target, nil, jobs.QueueConfig{})

	err := refresher.handle(context.Background(), jobs.Job{Key: "sub-1"})
	assert.EqualError(t, err, "db down")
	assert.Equal(t, []string{"sub-1"}, target.refreshed)
}
