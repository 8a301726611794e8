package models

// SystemHealth is a point-in-time snapshot of the host.
type SystemHealth struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	DiskPercent   float64 `json:"disk_percent"`
	UptimeSeconds uint64  `json:"uptime_seconds"`
}

// DashboardStats aggregates the admin overview.
type DashboardStats struct {
	TotalUsers         int64              `json:"total_users"`
	TotalPosts         int64              `json:"total_posts"`
	TotalComments      int64              `json:"total_comments"`
	PendingImages      int64              `json:"pending_images"`
	NewUsersThisWeek   int64              `json:"new_users_week"`
	NewCommentsWeek    int64              `json:"new_comments_week"`
	PointsAwardedToday int64              `json:"points_awarded_today"`
	TopUsers           []LeaderboardEntry `json:"top_users"`
	System             *SystemHealth      `json:"system,omitempty"`
}

// ToolUsage is the lifetime award count and sum for one tool.
type ToolUsage struct {
	Tool        string `db:"tool" json:"tool_name"`
	Awards      int64  `db:"awards" json:"usage_count"`
	TotalPoints int64  `db:"total_points" json:"total_points"`
}

// WeeklyCount is a number of new accounts in a week starting on WeekStart.
type WeeklyCount struct {
	WeekStart string `json:"week_start"`
	Count     int64  `json:"count"`
}

// Analytics is the admin usage report.
type Analytics struct {
	ToolUsage      []ToolUsage   `json:"tool_usage"`
	NewUsersWeekly []WeeklyCount `json:"new_users_weekly"`
}

// Page describes a paginated result.
type Page struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
}

// NewPage computes the page count for total items.
func NewPage(page, perPage int, total int64) Page {
	pages := 0
	if perPage > 0 {
		pages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return Page{Page: page, PerPage: perPage, Total: total, Pages: pages}
}

// AccountPage is one page of the admin user list.
type AccountPage struct {
	Users []Account `json:"users"`
	Page
}

// PostPage is one page of the public post list.
type PostPage struct {
	Posts []Post `json:"posts"`
	Page
}

// CleanupResult reports what a cleanup pass removed.
type CleanupResult struct {
	ExpiredImages   int64 `json:"expired_images"`
	FilesRemoved    int   `json:"files_removed"`
	ExpiredSessions int64 `json:"expired_sessions"`
}
