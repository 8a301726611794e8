package models

// Tool is the catalog configuration for one tool.
type Tool struct {
	ID             int64  `db:"id" json:"id"`
	Key            string `db:"tool_key" json:"name"`
	NameAr         string `db:"name_ar" json:"name_ar"`
	NameEn         string `db:"name_en" json:"name_en"`
	DescriptionAr  string `db:"description_ar" json:"description_ar"`
	DescriptionEn  string `db:"description_en" json:"description_en"`
	IsFree         bool   `db:"is_free" json:"is_free"`
	RequiredPoints int64  `db:"required_points" json:"required_points"`
	DailyReward    int64  `db:"daily_reward" json:"daily_points_reward"`
	IsActive       bool   `db:"is_active" json:"is_active"`
}

// Well-known tool keys. They double as ledger keys.
const (
	ToolSmartTitles    = "smart_titles"
	ToolTasks          = "tasks"
	ToolSmartEmoji     = "smart_emoji"
	ToolAdvancedTitles = "advanced_titles"
	ToolUserImage      = "user_image"
)

// Capability is what an account may do with a tool right now.
type Capability struct {
	Usable       bool `json:"can_use"`
	CanEarnToday bool `json:"can_earn_points"`
}

// ToolView is a catalog entry annotated for the caller.
type ToolView struct {
	Tool
	Capability
}

// ToolUpdate is a partial admin edit. Nil fields are left unchanged.
type ToolUpdate struct {
	NameAr         *string `json:"name_ar"`
	NameEn         *string `json:"name_en"`
	DescriptionAr  *string `json:"description_ar"`
	DescriptionEn  *string `json:"description_en"`
	IsFree         *bool   `json:"is_free"`
	RequiredPoints *int64  `json:"required_points"`
	DailyReward    *int64  `json:"daily_points_reward"`
	IsActive       *bool   `json:"is_active"`
}

// ToolResult is the response of a tool invocation.
type ToolResult struct {
	Result        map[string]any `json:"result"`
	PointsAwarded bool           `json:"points_awarded"`
	UserPoints    int64          `json:"user_points"`
}
