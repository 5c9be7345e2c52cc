package models

// DashboardFilter narrows dashboard aggregation to a period and area.
// Year is required (zero means current year at the service layer); Month,
// District and Constituency are optional.
type DashboardFilter struct {
	Year         int    `json:"year"`
	Month        int    `json:"month,omitempty"` // 1-12, 0 = whole year
	District     string `json:"district,omitempty"`
	Constituency string `json:"constituency,omitempty"`
}

// OverallStats holds the headline numbers over the filtered set.
type OverallStats struct {
	TotalCount int     `json:"total_count"`
	TotalCost  float64 `json:"total_cost"`
	AvgCost    float64 `json:"avg_cost"`
}

// StatusCount is one bucket of a grouped count.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// PriorityCount is one bucket of a per-priority grouped count.
type PriorityCount struct {
	Priority string `json:"priority"`
	Count    int    `json:"count"`
}

// CategoryCount is one bucket of a per-category grouped count, resolved
// to the category's display name and chart color.
type CategoryCount struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	Color        string `json:"color,omitempty"`
	Count        int    `json:"count"`
}

// DistrictStats is one row of the top-districts table.
type DistrictStats struct {
	District  string  `json:"district"`
	Count     int     `json:"count"`
	TotalCost float64 `json:"total_cost"`
}

// MonthlyTrendPoint is one calendar month of the selected year.
type MonthlyTrendPoint struct {
	Month         int     `json:"month"` // 1-12
	Count         int     `json:"count"`
	TotalCost     float64 `json:"total_cost"`
	ResolvedCount int     `json:"resolved_count"`
}

// OfficerWorkload is one row of the top-officers table.
type OfficerWorkload struct {
	OfficerID   string `json:"officer_id"`
	OfficerName string `json:"officer_name"`
	Count       int    `json:"count"`
}

// ResolvedStats holds resolution figures over the filtered set.
type ResolvedStats struct {
	ResolvedCount int `json:"resolved_count"`
	// TotalResolutionDays is the sum of floor((actual - created) / 1d)
	// over requests with a non-nil actual resolution date.
	TotalResolutionDays int `json:"total_resolution_days"`
	// WithResolutionDate counts requests contributing to the sum above.
	WithResolutionDate int `json:"with_resolution_date"`
}

// DashboardStats is the composed view model rendered by the role
// dashboards.
type DashboardStats struct {
	Overall           OverallStats        `json:"overall"`
	ByStatus          []StatusCount       `json:"by_status"`
	ByPriority        []PriorityCount     `json:"by_priority"`
	ByCategory        []CategoryCount     `json:"by_category"`
	TopDistricts      []DistrictStats     `json:"top_districts"`
	RecentRequests    []*Request          `json:"recent_requests"`
	CriticalCount     int                 `json:"critical_count"`
	OverdueCount      int                 `json:"overdue_count"`
	ResolvedCount     int                 `json:"resolved_count"`
	ResolutionRate    float64             `json:"resolution_rate"`     // Percentage, 2 decimals
	AvgResolutionDays float64             `json:"avg_resolution_days"` // Whole-day mean
	MonthlyTrend      []MonthlyTrendPoint `json:"monthly_trend"`
	OfficerWorkload   []OfficerWorkload   `json:"officer_workload"`
}
