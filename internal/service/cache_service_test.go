package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingCacheRepo struct{}

func (failingCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	return errors.New("connection refused")
}

func (failingCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return errors.New("connection refused")
}

func (failingCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	return errors.New("connection refused")
}

func TestCacheServiceRoundTripAndInvalidate(t *testing.T) {
	repo := &memoryCacheRepo{entries: map[string][]byte{}}
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, 0, nil, true)

	var out []int
	hit, err := svc.Get(context.Background(), "schedule:owner:1:-:-", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(context.Background(), "schedule:owner:1:-:-", []int{1, 2}, 0))
	hit, err = svc.Get(context.Background(), "schedule:owner:1:-:-", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []int{1, 2}, out)
	assert.Equal(t, float64(1), metricValue(t, metrics, "schedule_cache_hits_total"))

	require.NoError(t, svc.Invalidate(context.Background(), scheduleCachePattern))
	assert.Empty(t, repo.entries)
	assert.Equal(t, []string{scheduleCachePattern}, repo.deleted)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := &memoryCacheRepo{entries: map[string][]byte{}}
	svc := NewCacheService(repo, nil, time.Minute, nil, false)

	require.NoError(t, svc.Set(context.Background(), "k", 1, 0))
	assert.Empty(t, repo.entries)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	hit, err := nilSvc.Get(context.Background(), "k", new(int))
	assert.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceSurfacesBackendErrors(t *testing.T) {
	svc := NewCacheService(failingCacheRepo{}, nil, time.Minute, nil, true)

	hit, err := svc.Get(context.Background(), "k", new(int))
	assert.Error(t, err)
	assert.False(t, hit)
	assert.Error(t, svc.Set(context.Background(), "k", 1, 0))
	assert.Error(t, svc.Invalidate(context.Background(), "schedule:*"))
}

// racingCacheRepo invalidates through the owning service while a write is in flight.
type racingCacheRepo struct {
	*memoryCacheRepo
	svc *CacheService
}

func (r *racingCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := r.memoryCacheRepo.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return r.svc.Invalidate(ctx, "other:*")
}

func TestCacheServiceSetIfCurrent(t *testing.T) {
	ctx := context.Background()
	repo := &memoryCacheRepo{entries: map[string][]byte{}}
	svc := NewCacheService(repo, nil, 0, nil, true)

	gen := svc.Generation()
	require.NoError(t, svc.SetIfCurrent(ctx, "schedule:owner:1:-:-", []int{1}, 0, gen))
	assert.Contains(t, repo.entries, "schedule:owner:1:-:-")

	require.NoError(t, svc.Invalidate(ctx, "schedule:*"))
	require.NoError(t, svc.SetIfCurrent(ctx, "schedule:owner:1:-:-", []int{1}, 0, gen))
	assert.NotContains(t, repo.entries, "schedule:owner:1:-:-")

	racing := &racingCacheRepo{memoryCacheRepo: &memoryCacheRepo{entries: map[string][]byte{}}}
	racingSvc := NewCacheService(racing, nil, 0, nil, true)
	racing.svc = racingSvc
	require.NoError(t, racingSvc.SetIfCurrent(ctx, "schedule:owner:2:-:-", []int{2}, 0, racingSvc.Generation()))
	assert.NotContains(t, racing.entries, "schedule:owner:2:-:-")

	var disabled *CacheService
	assert.Equal(t, uint64(0), disabled.Generation())
	assert.NoError(t, disabled.SetIfCurrent(ctx, "k", 1, 0, 0))
}
