package services

import (
	"errors"
	"time"

	"github.com/marlonyi/senas-web/models"
	"github.com/marlonyi/senas-web/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserService exposes profile and accessibility endpoints for the
// authenticated user, plus per-lesson accessibility metadata.
type UserService struct {
	DB     *gorm.DB
	Points *PointsService
}

func NewUserService(db *gorm.DB, points *PointsService) *UserService {
	return &UserService{DB: db, Points: points}
}

// EnsureUserRecords provisions the per-user singletons (points account,
// profile, accessibility preference) if any are missing. Called from the
// profile sync worker when a new user shows up, and lazily from the
// profile endpoints.
func (s *UserService) EnsureUserRecords(externalUserID string) error {
	if _, err := s.Points.EnsureAccount(externalUserID); err != nil {
		return err
	}
	profile := models.UserProfile{ExternalUserID: externalUserID}
	if err := s.DB.Where("external_user_id = ?", externalUserID).
		Attrs(models.UserProfile{ID: uuid.NewString(), PreferredLanguage: "es-co"}).
		FirstOrCreate(&profile).Error; err != nil {
		return err
	}
	pref := models.AccessibilityPreference{ExternalUserID: externalUserID}
	return s.DB.Where("external_user_id = ?", externalUserID).
		Attrs(models.AccessibilityPreference{
			ID:                    uuid.NewString(),
			FontSize:              models.FontSizeNormal,
			PreferredSignLanguage: "LSC",
		}).
		FirstOrCreate(&pref).Error
}

// ===== Profile =====

type profilePayload struct {
	BirthDate         *time.Time `json:"birth_date"`
	Phone             string     `json:"phone" validate:"omitempty,max=20"`
	Gender            string     `json:"gender" validate:"omitempty,oneof=masculine feminine other undisclosed"`
	Country           string     `json:"country" validate:"omitempty,max=100"`
	City              string     `json:"city" validate:"omitempty,max=100"`
	PreferredLanguage string     `json:"preferred_language" validate:"omitempty,max=7"`
	EducationLevel    string     `json:"education_level" validate:"omitempty,max=50"`
	Occupation        string     `json:"occupation" validate:"omitempty,max=100"`
}

func (s *UserService) GetMyProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if err := s.EnsureUserRecords(userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to provision profile", "cause": err.Error()})
	}
	var profile models.UserProfile
	if err := s.DB.First(&profile, "external_user_id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(profile)
}

func (s *UserService) UpdateMyProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if err := s.EnsureUserRecords(userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to provision profile", "cause": err.Error()})
	}

	var req profilePayload
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "cause": utils.ValidationMessage(err)})
	}

	var profile models.UserProfile
	if err := s.DB.First(&profile, "external_user_id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	profile.BirthDate = req.BirthDate
	profile.Phone = req.Phone
	profile.Gender = req.Gender
	profile.Country = req.Country
	profile.City = req.City
	if req.PreferredLanguage != "" {
		profile.PreferredLanguage = req.PreferredLanguage
	}
	profile.EducationLevel = req.EducationLevel
	profile.Occupation = req.Occupation
	if err := s.DB.Save(&profile).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update profile"})
	}
	return c.JSON(profile)
}

// ===== Accessibility preferences =====

type accessibilityPayload struct {
	PrefersSignLanguage     *bool  `json:"prefers_sign_language"`
	PrefersAudioDescription *bool  `json:"prefers_audio_description"`
	PrefersTextTranscript   *bool  `json:"prefers_text_transcript"`
	FontSize                string `json:"font_size" validate:"omitempty,oneof=small normal large extra_large"`
	HighContrast            *bool  `json:"high_contrast"`
	SignRecognitionEnabled  *bool  `json:"sign_recognition_enabled"`
	PreferredSignLanguage   string `json:"preferred_sign_language" validate:"omitempty,oneof=LSC ASL LSE"`
}

func (s *UserService) GetMyAccessibility(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if err := s.EnsureUserRecords(userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to provision preferences", "cause": err.Error()})
	}
	var pref models.AccessibilityPreference
	if err := s.DB.First(&pref, "external_user_id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(pref)
}

func (s *UserService) UpdateMyAccessibility(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if err := s.EnsureUserRecords(userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to provision preferences", "cause": err.Error()})
	}

	var req accessibilityPayload
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "cause": utils.ValidationMessage(err)})
	}

	var pref models.AccessibilityPreference
	if err := s.DB.First(&pref, "external_user_id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if req.PrefersSignLanguage != nil {
		pref.PrefersSignLanguage = *req.PrefersSignLanguage
	}
	if req.PrefersAudioDescription != nil {
		pref.PrefersAudioDescription = *req.PrefersAudioDescription
	}
	if req.PrefersTextTranscript != nil {
		pref.PrefersTextTranscript = *req.PrefersTextTranscript
	}
	if req.FontSize != "" {
		pref.FontSize = req.FontSize
	}
	if req.HighContrast != nil {
		pref.HighContrast = *req.HighContrast
	}
	if req.SignRecognitionEnabled != nil {
		pref.SignRecognitionEnabled = *req.SignRecognitionEnabled
	}
	if req.PreferredSignLanguage != "" {
		pref.PreferredSignLanguage = req.PreferredSignLanguage
	}
	if err := s.DB.Save(&pref).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update preferences"})
	}
	return c.JSON(pref)
}

// ===== Lesson accessibility metadata (admin) =====

type lessonAccessibilityPayload struct {
	HasAudioDescription    *bool `json:"has_audio_description"`
	HasSignSubtitles       *bool `json:"has_sign_subtitles"`
	HasTextTranscript      *bool `json:"has_text_transcript"`
	ScreenReaderCompatible *bool `json:"screen_reader_compatible"`
}

// UpsertLessonAccessibility creates or updates the accessibility record
// for a lesson.
func (s *UserService) UpsertLessonAccessibility(c *fiber.Ctx) error {
	lessonID := c.Params("id")
	var lesson models.Lesson
	if err := s.DB.First(&lesson, "id = ?", lessonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "lesson not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var req lessonAccessibilityPayload
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}

	rec := models.LessonAccessibility{LessonID: lessonID}
	if err := s.DB.Where("lesson_id = ?", lessonID).
		Attrs(models.LessonAccessibility{ID: uuid.NewString()}).
		FirstOrCreate(&rec).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to provision record"})
	}
	if req.HasAudioDescription != nil {
		rec.HasAudioDescription = *req.HasAudioDescription
	}
	if req.HasSignSubtitles != nil {
		rec.HasSignSubtitles = *req.HasSignSubtitles
	}
	if req.HasTextTranscript != nil {
		rec.HasTextTranscript = *req.HasTextTranscript
	}
	if req.ScreenReaderCompatible != nil {
		rec.ScreenReaderCompatible = *req.ScreenReaderCompatible
	}
	if err := s.DB.Save(&rec).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update record"})
	}
	return c.JSON(rec)
}

func (s *UserService) GetLessonAccessibility(c *fiber.Ctx) error {
	var rec models.LessonAccessibility
	if err := s.DB.First(&rec, "lesson_id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no accessibility record for this lesson"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(rec)
}
