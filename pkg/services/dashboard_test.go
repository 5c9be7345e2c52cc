package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/civicworks/grievance-engine/pkg/models"
)

func TestDashboardService_Stats_EmptyPeriod(t *testing.T) {
	repo := newMockRequestRepo()
	svc := NewDashboardService(repo, nil, zap.NewNop())

	stats, err := svc.Stats(context.Background(), models.DashboardFilter{Year: 2025})
	require.NoError(t, err)

	// An empty period yields zeroed KPIs, never NaN or a division error.
	assert.Equal(t, 0, stats.Overall.TotalCount)
	assert.Equal(t, float64(0), stats.ResolutionRate)
	assert.Equal(t, float64(0), stats.AvgResolutionDays)
}

func TestDashboardService_Stats_ResolutionRate(t *testing.T) {
	repo := newMockRequestRepo()
	repo.overallStatsFunc = func(f models.DashboardFilter) (*models.OverallStats, error) {
		return &models.OverallStats{TotalCount: 3, TotalCost: 3000, AvgCost: 1000}, nil
	}
	repo.resolvedStatsFunc = func(f models.DashboardFilter) (*models.ResolvedStats, error) {
		return &models.ResolvedStats{ResolvedCount: 1, TotalResolutionDays: 7, WithResolutionDate: 1}, nil
	}

	svc := NewDashboardService(repo, nil, zap.NewNop())

	stats, err := svc.Stats(context.Background(), models.DashboardFilter{Year: 2025})
	require.NoError(t, err)

	// 1/3 as a percentage, rounded to 2 decimals.
	assert.Equal(t, 33.33, stats.ResolutionRate)
	assert.Equal(t, float64(7), stats.AvgResolutionDays)
	assert.Equal(t, 1, stats.ResolvedCount)
}

func TestDashboardService_Stats_AvgResolutionGuardsMissingDates(t *testing.T) {
	repo := newMockRequestRepo()
	repo.resolvedStatsFunc = func(f models.DashboardFilter) (*models.ResolvedStats, error) {
		// Resolved requests exist but none carries an actual resolution
		// date, so the average has no denominator.
		return &models.ResolvedStats{ResolvedCount: 4, TotalResolutionDays: 0, WithResolutionDate: 0}, nil
	}

	svc := NewDashboardService(repo, nil, zap.NewNop())

	stats, err := svc.Stats(context.Background(), models.DashboardFilter{Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, float64(0), stats.AvgResolutionDays)
}

func TestDashboardService_Stats_DefaultsYear(t *testing.T) {
	repo := newMockRequestRepo()
	var seenYear int
	repo.overallStatsFunc = func(f models.DashboardFilter) (*models.OverallStats, error) {
		seenYear = f.Year
		return &models.OverallStats{}, nil
	}

	svc := NewDashboardService(repo, nil, zap.NewNop()).(*dashboardService)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }

	_, err := svc.Stats(context.Background(), models.DashboardFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2024, seenYear)
}

func TestStatsCacheKey(t *testing.T) {
	a := statsCacheKey(models.DashboardFilter{Year: 2025, Month: 3, District: "Guntur"})
	b := statsCacheKey(models.DashboardFilter{Year: 2025, Month: 3, District: "Krishna"})
	c := statsCacheKey(models.DashboardFilter{Year: 2025, Month: 3, District: "Guntur"})

	assert.NotEqual(t, a, b, "different filters must not share a cache entry")
	assert.Equal(t, a, c)
}
