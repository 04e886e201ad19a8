package models

import (
	"time"
)

// Level is a catalog tier. Accounts are assigned the level with the highest
// MinPoints not exceeding their point total.
type Level struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	MinPoints   int    `gorm:"uniqueIndex;not null" json:"min_points"`
	Description string `gorm:"type:text" json:"description"`

	Timestamps
}

// PointsAccount is the per-user gamification singleton. It is provisioned
// when the user first appears (profile sync or first login event) and
// mutated in place; Points only ever grows outside admin corrections.
type PointsAccount struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"`

	Points  int     `gorm:"default:0" json:"points"`
	LevelID *string `gorm:"index" json:"level_id,omitempty"` // nil until the first threshold is reached

	// Daily login reward bookkeeping. LastDailyRewardAt holds a calendar
	// date truncated to midnight local time.
	LastDailyRewardAt *time.Time `json:"last_daily_reward_at,omitempty"`
	LoginStreak       int        `gorm:"default:0" json:"login_streak"`

	Level *Level `gorm:"foreignKey:LevelID" json:"level,omitempty"`

	Timestamps
}

// LeaderboardEntry is a read projection refreshed by the snapshot worker.
type LeaderboardEntry struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	Position       int       `gorm:"index" json:"position"`
	ExternalUserID string    `gorm:"uniqueIndex;not null" json:"external_user_id"`
	Username       string    `json:"username"`
	Points         int       `json:"points"`
	LevelName      string    `json:"level_name,omitempty"`
	SnapshotAt     time.Time `json:"snapshot_at"`
}

// DefaultLevels seeds the level catalog on first boot.
var DefaultLevels = []Level{
	{Name: "Beginner", MinPoints: 0, Description: "Just getting started"},
	{Name: "Apprentice", MinPoints: 50, Description: "Learning the basics"},
	{Name: "Intermediate", MinPoints: 150, Description: "Comfortable with everyday signs"},
	{Name: "Advanced", MinPoints: 400, Description: "Fluent across whole courses"},
	{Name: "Expert", MinPoints: 1000, Description: "Mastered the catalog"},
}
