package models

import (
	"time"
)

// Progress rows are created lazily the first time a user touches the entity
// and are never deleted. PointsAwarded is monotonic: once true it stays true,
// which is what makes every award path idempotent.

type ActivityProgress struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"index:idx_activity_progress_user_activity,unique;not null" json:"external_user_id"`
	ActivityID     string `gorm:"index:idx_activity_progress_user_activity,unique;not null" json:"activity_id"`

	Score         int        `json:"score"`
	Attempts      int        `gorm:"default:0" json:"attempts"`
	Completed     bool       `gorm:"default:false" json:"completed"`
	StartedAt     time.Time  `gorm:"autoCreateTime" json:"started_at"`
	LastAttemptAt time.Time  `gorm:"autoUpdateTime" json:"last_attempt_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"` // set once, on first completion
	PointsAwarded bool       `gorm:"default:false" json:"points_awarded"`

	Activity *Activity `gorm:"foreignKey:ActivityID" json:"-"`
}

type LessonProgress struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"index:idx_lesson_progress_user_lesson,unique;not null" json:"external_user_id"`
	LessonID       string `gorm:"index:idx_lesson_progress_user_lesson,unique;not null" json:"lesson_id"`

	Completed     bool       `gorm:"default:false" json:"completed"`
	StartedAt     time.Time  `gorm:"autoCreateTime" json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	PointsAwarded bool       `gorm:"default:false" json:"points_awarded"`

	Lesson *Lesson `gorm:"foreignKey:LessonID" json:"-"`
}

type ModuleProgress struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"index:idx_module_progress_user_module,unique;not null" json:"external_user_id"`
	ModuleID       string `gorm:"index:idx_module_progress_user_module,unique;not null" json:"module_id"`

	Completed     bool       `gorm:"default:false" json:"completed"`
	StartedAt     time.Time  `gorm:"autoCreateTime" json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	PointsAwarded bool       `gorm:"default:false" json:"points_awarded"`

	Module *CourseModule `gorm:"foreignKey:ModuleID" json:"-"`
}

type CourseProgress struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"index:idx_course_progress_user_course,unique;not null" json:"external_user_id"`
	CourseID       string `gorm:"index:idx_course_progress_user_course,unique;not null" json:"course_id"`

	Completed     bool       `gorm:"default:false" json:"completed"`
	StartedAt     time.Time  `gorm:"autoCreateTime" json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	PointsAwarded bool       `gorm:"default:false" json:"points_awarded"`

	Course *Course `gorm:"foreignKey:CourseID" json:"-"`
}
