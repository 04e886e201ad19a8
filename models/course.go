package models

import (
	"time"
)

// Course difficulty labels used by the catalog. "basic" participates in the
// Basic Tier Master badge rule.
const (
	CourseLevelBasic        = "basic"
	CourseLevelIntermediate = "intermediate"
	CourseLevelAdvanced     = "advanced"
)

type Course struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Level       string `gorm:"type:varchar(50);index" json:"level"` // basic / intermediate / advanced
	ImageURL    string `gorm:"type:text" json:"image_url"`
	Active      bool   `gorm:"index" json:"active"`

	// Courses created inactive with a PublishAt in the future are flipped
	// active by the publish scheduler.
	PublishAt *time.Time `json:"publish_at,omitempty"`

	Categories []CourseCategory `gorm:"many2many:course_category_links" json:"categories,omitempty"`

	Timestamps
}

// CourseCategory groups courses (e.g. "Basic Sign Language"). Slug is
// generated from the name when absent.
type CourseCategory struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`

	Timestamps
}

type CourseModule struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	CourseID    string `gorm:"index:idx_module_course_order,unique;not null" json:"course_id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Position    int    `gorm:"index:idx_module_course_order,unique;default:1" json:"position"`

	Course *Course `gorm:"foreignKey:CourseID" json:"-"`

	Timestamps
}

type Lesson struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	ModuleID    string `gorm:"index:idx_lesson_module_order,unique;not null" json:"module_id"`
	Title       string `gorm:"not null" json:"title"`
	TextContent string `gorm:"type:text" json:"text_content"`
	VideoURL    string `gorm:"type:text" json:"video_url"`
	ImageURL    string `gorm:"type:text" json:"image_url"`
	Position    int    `gorm:"index:idx_lesson_module_order,unique;default:1" json:"position"`

	Module *CourseModule `gorm:"foreignKey:ModuleID" json:"-"`

	Timestamps
}

// ActivityKind selects the grading strategy for an activity attempt.
type ActivityKind string

const (
	ActivityQuestionAnswer ActivityKind = "question_answer"
	ActivityMultipleChoice ActivityKind = "multiple_choice"
	ActivityFillBlanks     ActivityKind = "fill_blanks"
)

type Activity struct {
	ID            string       `gorm:"primaryKey;type:uuid" json:"id"`
	LessonID      string       `gorm:"index;not null" json:"lesson_id"`
	Question      string       `gorm:"type:text;not null" json:"question"`
	Options       []string     `gorm:"type:jsonb;serializer:json" json:"options,omitempty"` // multiple_choice only
	CorrectAnswer string       `gorm:"type:text" json:"-"`
	Points        int          `gorm:"default:10" json:"points"`
	Kind          ActivityKind `gorm:"type:varchar(50);default:'question_answer'" json:"kind"`

	Lesson *Lesson `gorm:"foreignKey:LessonID" json:"-"`

	Timestamps
}
