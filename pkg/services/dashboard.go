package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/civicworks/grievance-engine/pkg/models"
	"github.com/civicworks/grievance-engine/pkg/repositories"
)

const (
	topDistrictsLimit    = 10
	recentRequestsLimit  = 10
	officerWorkloadLimit = 5

	statsCacheTTL = 60 * time.Second
)

// DashboardService computes the per-period KPIs and distributions shown
// on the role dashboards.
type DashboardService interface {
	Stats(ctx context.Context, filter models.DashboardFilter) (*models.DashboardStats, error)
}

type dashboardService struct {
	requestRepo repositories.RequestRepository
	cache       *redis.Client // nil disables caching
	logger      *zap.Logger
	now         func() time.Time
}

// NewDashboardService creates a new dashboard service. Pass a nil cache
// client to disable stats caching.
func NewDashboardService(requestRepo repositories.RequestRepository, cache *redis.Client, logger *zap.Logger) DashboardService {
	return &dashboardService{
		requestRepo: requestRepo,
		cache:       cache,
		logger:      logger,
		now:         time.Now,
	}
}

var _ DashboardService = (*dashboardService)(nil)

// Stats runs the independent aggregation queries over the shared filter
// predicate and composes the dashboard view model. All rate and average
// KPIs guard against empty periods and yield 0 instead of NaN.
func (s *dashboardService) Stats(ctx context.Context, filter models.DashboardFilter) (*models.DashboardStats, error) {
	if filter.Year == 0 {
		filter.Year = s.now().Year()
	}

	cacheKey := statsCacheKey(filter)
	if cached := s.readCache(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	overall, err := s.requestRepo.OverallStats(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("overall stats: %w", err)
	}

	byStatus, err := s.requestRepo.CountByStatus(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("status distribution: %w", err)
	}

	byPriority, err := s.requestRepo.CountByPriority(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("priority distribution: %w", err)
	}

	byCategory, err := s.requestRepo.CountByCategory(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("category distribution: %w", err)
	}

	topDistricts, err := s.requestRepo.TopDistricts(ctx, filter, topDistrictsLimit)
	if err != nil {
		return nil, fmt.Errorf("top districts: %w", err)
	}

	recent, err := s.requestRepo.Recent(ctx, filter, recentRequestsLimit)
	if err != nil {
		return nil, fmt.Errorf("recent requests: %w", err)
	}

	critical, err := s.requestRepo.CriticalCount(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("critical count: %w", err)
	}

	overdue, err := s.requestRepo.OverdueCount(ctx, filter, s.now())
	if err != nil {
		return nil, fmt.Errorf("overdue count: %w", err)
	}

	resolved, err := s.requestRepo.ResolvedStats(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("resolved stats: %w", err)
	}

	trend, err := s.requestRepo.MonthlyTrend(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("monthly trend: %w", err)
	}

	workload, err := s.requestRepo.OfficerWorkload(ctx, filter, officerWorkloadLimit)
	if err != nil {
		return nil, fmt.Errorf("officer workload: %w", err)
	}

	stats := &models.DashboardStats{
		Overall:           *overall,
		ByStatus:          byStatus,
		ByPriority:        byPriority,
		ByCategory:        byCategory,
		TopDistricts:      topDistricts,
		RecentRequests:    recent,
		CriticalCount:     critical,
		OverdueCount:      overdue,
		ResolvedCount:     resolved.ResolvedCount,
		ResolutionRate:    resolutionRate(resolved.ResolvedCount, overall.TotalCount),
		AvgResolutionDays: avgResolutionDays(resolved),
		MonthlyTrend:      trend,
		OfficerWorkload:   workload,
	}

	s.writeCache(ctx, cacheKey, stats)

	return stats, nil
}

// resolutionRate is resolved/total as a percentage rounded to 2 decimals,
// 0 for an empty period.
func resolutionRate(resolved, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(resolved)/float64(total)*100*100) / 100
}

// avgResolutionDays is the mean of per-request whole-day resolution
// times, 0 when no request has an actual resolution date.
func avgResolutionDays(stats *models.ResolvedStats) float64 {
	if stats.WithResolutionDate == 0 {
		return 0
	}
	return float64(stats.TotalResolutionDays) / float64(stats.WithResolutionDate)
}

func statsCacheKey(f models.DashboardFilter) string {
	return fmt.Sprintf("dashboard:stats:%d:%d:%s:%s", f.Year, f.Month, f.District, f.Constituency)
}

func (s *dashboardService) readCache(ctx context.Context, key string) *models.DashboardStats {
	if s.cache == nil {
		return nil
	}

	data, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("Dashboard cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil
	}

	var stats models.DashboardStats
	if err := json.Unmarshal(data, &stats); err != nil {
		s.logger.Warn("Dashboard cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil
	}

	return &stats
}

func (s *dashboardService) writeCache(ctx context.Context, key string, stats *models.DashboardStats) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(stats)
	if err != nil {
		s.logger.Warn("Failed to marshal dashboard stats for cache", zap.Error(err))
		return
	}

	if err := s.cache.Set(ctx, key, data, statsCacheTTL).Err(); err != nil {
		s.logger.Warn("Dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}
