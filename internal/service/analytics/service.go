package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marketpulse/campaignhub/internal/domain"
	"github.com/marketpulse/campaignhub/internal/pkg/logger"
)

// summaryCacheKey is the cache key suffix for the business summary.
const summaryCacheKey = "summary"

// Aggregates are the raw numbers the repository pulls out of the database
// in one pass.
type Aggregates struct {
	TotalCustomers     int
	TotalRevenue       float64 // sum of customer total_spent
	TotalSent          int     // messages sent across campaigns
	SumCTR             float64 // sum of per-campaign CTRs, campaigns with sends only
	CampaignsWithSends int
	Positive           int
	Neutral            int
	Negative           int
}

// Repository computes the raw aggregates for one user.
type Repository interface {
	Aggregates(ctx context.Context, userID string) (*Aggregates, error)
}

// Service serves analytics snapshots through a read-through cache.
type Service struct {
	repo           Repository
	rdb            *redis.Client
	ttl            time.Duration
	costPerMessage float64
	now            func() time.Time
}

// NewService creates the aggregator. rdb may be nil, in which case every
// call recomputes.
func NewService(repo Repository, rdb *redis.Client, ttl time.Duration, costPerMessage float64) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{
		repo:           repo,
		rdb:            rdb,
		ttl:            ttl,
		costPerMessage: costPerMessage,
		now:            time.Now,
	}
}

func cacheKey(userID, key string) string {
	return fmt.Sprintf("analytics:%s:%s", userID, key)
}

// Summary returns the user's business snapshot. A cached value inside the
// TTL window is returned as-is; misses recompute and repopulate the cache.
// Cache errors on either path never fail the request.
func (s *Service) Summary(ctx context.Context, userID string) (*domain.Snapshot, error) {
	if snap := s.cached(ctx, userID); snap != nil {
		return snap, nil
	}

	snap, err := s.compute(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.store(ctx, userID, snap)
	return snap, nil
}

// Invalidate drops the cached snapshot so the next read recomputes.
func (s *Service) Invalidate(ctx context.Context, userID string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, cacheKey(userID, summaryCacheKey)).Err(); err != nil {
		logger.Warn("analytics cache invalidate failed", "user_id", userID, "error", err.Error())
	}
}

func (s *Service) cached(ctx context.Context, userID string) *domain.Snapshot {
	if s.rdb == nil {
		return nil
	}
	raw, err := s.rdb.Get(ctx, cacheKey(userID, summaryCacheKey)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("analytics cache read failed", "user_id", userID, "error", err.Error())
		}
		return nil
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil || snap.Version != domain.SnapshotVersion {
		// stale layout or corrupt entry, recompute
		return nil
	}
	return &snap
}

func (s *Service) store(ctx context.Context, userID string, snap *domain.Snapshot) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, cacheKey(userID, summaryCacheKey), raw, s.ttl).Err(); err != nil {
		logger.Warn("analytics cache write failed", "user_id", userID, "error", err.Error())
	}
}

func (s *Service) compute(ctx context.Context, userID string) (*domain.Snapshot, error) {
	agg, err := s.repo.Aggregates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("compute analytics: %w", err)
	}

	cost := float64(agg.TotalSent) * s.costPerMessage
	roi := 0.0
	if cost > 0 {
		roi = (agg.TotalRevenue - cost) / cost * 100
	}
	avgCTR := 0.0
	if agg.CampaignsWithSends > 0 {
		avgCTR = agg.SumCTR / float64(agg.CampaignsWithSends)
	}

	return &domain.Snapshot{
		Version:        domain.SnapshotVersion,
		TotalCustomers: agg.TotalCustomers,
		TotalRevenue:   agg.TotalRevenue,
		TotalCost:      cost,
		ROI:            roi,
		AvgCTR:         avgCTR,
		Sentiment: domain.SentimentMix{
			Positive: agg.Positive,
			Neutral:  agg.Neutral,
			Negative: agg.Negative,
		},
		ComputedAt: s.now(),
	}, nil
}
