package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/domain/repository"
	pkgcache "TrendPulse/pkg/cache"
)

const (
	modelKey   = "model:state"
	resultsKey = "scan:last"

	// resultsTTL keeps the last cycle's results around long enough for the API
	// without letting stale signals survive a quiet weekend.
	resultsTTL = 48 * time.Hour
)

// RedisModelStore implements ModelStore over the shared Redis cache.
type RedisModelStore struct {
	cache *pkgcache.RedisCache
}

// NewRedisModelStore creates a Redis-backed model store.
func NewRedisModelStore(cache *pkgcache.RedisCache) *RedisModelStore {
	return &RedisModelStore{cache: cache}
}

// Load returns the last saved model state or ErrNotFound.
func (s *RedisModelStore) Load(ctx context.Context) (models.ModelState, error) {
	var state models.ModelState
	err := s.cache.Get(ctx, modelKey, &state)
	if err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return models.ModelState{}, repository.ErrNotFound
		}
		return models.ModelState{}, fmt.Errorf("load model: %w", err)
	}
	return state, nil
}

// Save writes the new model snapshot unconditionally, with no expiry.
func (s *RedisModelStore) Save(ctx context.Context, state models.ModelState) error {
	if err := s.cache.Set(ctx, modelKey, state, 0); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

// Ping checks store reachability.
func (s *RedisModelStore) Ping(ctx context.Context) error {
	return s.cache.Ping(ctx)
}

// SaveResults caches the last cycle's report for the results endpoint.
func (s *RedisModelStore) SaveResults(ctx context.Context, report *models.CycleReport) error {
	if err := s.cache.Set(ctx, resultsKey, report, resultsTTL); err != nil {
		return fmt.Errorf("save results: %w", err)
	}
	return nil
}

// LoadResults returns the last cycle's report or ErrNotFound.
func (s *RedisModelStore) LoadResults(ctx context.Context) (*models.CycleReport, error) {
	var report models.CycleReport
	err := s.cache.Get(ctx, resultsKey, &report)
	if err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("load results: %w", err)
	}
	return &report, nil
}

var _ repository.ModelStore = (*RedisModelStore)(nil)
