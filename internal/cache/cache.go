package cache

import (
	"context"
	"time"

	"kaboyagrovet/backend/internal/domain"
)

// StatsCache holds precomputed dashboard statistics. Live store queries are
// always authoritative; a cache entry only short-circuits recomputation
// until its TTL expires.
type StatsCache interface {
	Get(ctx context.Context, key string) (*domain.DashboardStats, bool, error)
	Set(ctx context.Context, key string, value *domain.DashboardStats, ttl time.Duration) error
}

type NoopStatsCache struct{}

func (NoopStatsCache) Get(_ context.Context, _ string) (*domain.DashboardStats, bool, error) {
	return nil, false, nil
}

func (NoopStatsCache) Set(_ context.Context, _ string, _ *domain.DashboardStats, _ time.Duration) error {
	return nil
}
