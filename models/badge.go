package models

import (
	"time"
)

// BadgeKind defines how a badge unlocks.
type BadgeKind string

const (
	BadgeByPoints      BadgeKind = "by_points"       // RequiredPoints threshold on the account total
	BadgeByAction      BadgeKind = "by_action"       // granted directly by a specific event
	BadgeByComplexRule BadgeKind = "by_complex_rule" // multi-entity rule evaluated after course completion
)

// Canonical badge names. The engine grants by name; the rows themselves live
// in the catalog so admins can edit descriptions and images.
const (
	BadgeFirstActivity   = "First Steps"
	BadgeFirstLesson     = "Apprentice Learner"
	BadgeFirstModule     = "Explorer"
	BadgeFirstCourse     = "Course Master"
	BadgeDedication      = "Dedication"
	BadgeCourseCollector = "Course Collector"
	BadgeBasicTierMaster = "Basic Tier Master"
)

type Badge struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	ImageURL    string    `gorm:"type:text" json:"image_url"`
	Kind        BadgeKind `gorm:"type:varchar(50);default:'by_action'" json:"kind"`

	// RequiredPoints is meaningful only for by_points badges.
	RequiredPoints int `gorm:"default:0" json:"required_points"`

	Timestamps
}

// UserBadge is append-only: awarded once per (user, badge), never revoked.
type UserBadge struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string    `gorm:"index:idx_user_badge_user_badge,unique;not null" json:"external_user_id"`
	BadgeID        string    `gorm:"index:idx_user_badge_user_badge,unique;not null" json:"badge_id"`
	AwardedAt      time.Time `gorm:"autoCreateTime" json:"awarded_at"`

	Badge *Badge `gorm:"foreignKey:BadgeID" json:"badge,omitempty"`
}

// DefaultBadges seeds the badge catalog on first boot.
var DefaultBadges = []Badge{
	{Name: BadgeFirstActivity, Kind: BadgeByAction, Description: "Completed your first activity"},
	{Name: BadgeFirstLesson, Kind: BadgeByAction, Description: "Completed your first lesson"},
	{Name: BadgeFirstModule, Kind: BadgeByAction, Description: "Completed your first module"},
	{Name: BadgeFirstCourse, Kind: BadgeByAction, Description: "Completed your first course"},
	{Name: BadgeDedication, Kind: BadgeByAction, Description: "Logged in seven days in a row"},
	{Name: BadgeCourseCollector, Kind: BadgeByComplexRule, Description: "Completed three different courses"},
	{Name: BadgeBasicTierMaster, Kind: BadgeByComplexRule, Description: "Completed every basic-level course"},
	{Name: "Point Hunter", Kind: BadgeByPoints, RequiredPoints: 100, Description: "Earned 100 points"},
	{Name: "Point Legend", Kind: BadgeByPoints, RequiredPoints: 500, Description: "Earned 500 points"},
}
