package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a local snapshot of profile-service user data.
// Populated via the profile sync worker; authentication itself never
// happens here — the gateway forwards identity headers.
type User struct {
	ID             string  `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string  `gorm:"uniqueIndex;not null" json:"external_user_id"`
	Username       string  `gorm:"index;not null" json:"username"`
	Email          string  `json:"email,omitempty"`
	FirstName      *string `json:"first_name,omitempty"`
	LastName       *string `json:"last_name,omitempty"`
	AvatarURL      *string `json:"avatar_url,omitempty"`
	Bio            *string `json:"bio,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	LastSeen  *time.Time     `json:"last_seen,omitempty"`
	IsBanned  bool           `json:"is_banned" gorm:"default:false"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// UserProfile holds the optional self-description fields a user can edit.
type UserProfile struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"`

	BirthDate         *time.Time `json:"birth_date,omitempty"`
	Phone             string     `gorm:"size:20" json:"phone,omitempty"`
	Gender            string     `gorm:"size:15" json:"gender,omitempty"` // masculine / feminine / other / undisclosed
	Country           string     `gorm:"size:100" json:"country,omitempty"`
	City              string     `gorm:"size:100" json:"city,omitempty"`
	PreferredLanguage string     `gorm:"size:7;default:'es-co'" json:"preferred_language"`
	EducationLevel    string     `gorm:"size:50" json:"education_level,omitempty"`
	Occupation        string     `gorm:"size:100" json:"occupation,omitempty"`

	Timestamps
}

// Accessibility font sizes.
const (
	FontSizeSmall      = "small"
	FontSizeNormal     = "normal"
	FontSizeLarge      = "large"
	FontSizeExtraLarge = "extra_large"
)

// AccessibilityPreference is the per-user accessibility singleton,
// provisioned alongside the points account.
type AccessibilityPreference struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"`

	PrefersSignLanguage     bool   `gorm:"default:false" json:"prefers_sign_language"`
	PrefersAudioDescription bool   `gorm:"default:false" json:"prefers_audio_description"`
	PrefersTextTranscript   bool   `gorm:"default:false" json:"prefers_text_transcript"`
	FontSize                string `gorm:"size:20;default:'normal'" json:"font_size"`
	HighContrast            bool   `gorm:"default:false" json:"high_contrast"`
	SignRecognitionEnabled  bool   `gorm:"default:false" json:"sign_recognition_enabled"`
	PreferredSignLanguage   string `gorm:"size:10;default:'LSC'" json:"preferred_sign_language"` // LSC / ASL / LSE

	Timestamps
}

// LessonAccessibility describes what accessible variants a lesson ships.
type LessonAccessibility struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	LessonID string `gorm:"uniqueIndex;not null" json:"lesson_id"`

	HasAudioDescription    bool `gorm:"default:false" json:"has_audio_description"`
	HasSignSubtitles       bool `gorm:"default:false" json:"has_sign_subtitles"`
	HasTextTranscript      bool `gorm:"default:false" json:"has_text_transcript"`
	ScreenReaderCompatible bool `gorm:"default:false" json:"screen_reader_compatible"`

	Lesson *Lesson `gorm:"foreignKey:LessonID" json:"-"`

	Timestamps
}
