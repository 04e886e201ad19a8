package services

import (
	"errors"
	"log"

	"github.com/marlonyi/senas-web/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BadgeService struct {
	DB *gorm.DB
}

func NewBadgeService(db *gorm.DB) *BadgeService {
	return &BadgeService{DB: db}
}

// GrantTx awards the named badge inside the caller's transaction. Returns
// true only when the award row was created now. A badge name missing from
// the catalog is logged and skipped — misconfiguration must not abort a
// progress cascade.
func (s *BadgeService) GrantTx(tx *gorm.DB, externalUserID, badgeName string) (bool, error) {
	var badge models.Badge
	if err := tx.Where("name = ?", badgeName).First(&badge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[BADGE] %q is not in the catalog, skipping grant for %s", badgeName, externalUserID)
			return false, nil
		}
		return false, err
	}

	award := models.UserBadge{ExternalUserID: externalUserID, BadgeID: badge.ID}
	res := tx.Where("external_user_id = ? AND badge_id = ?", externalUserID, badge.ID).
		Attrs(models.UserBadge{ID: uuid.NewString()}).
		FirstOrCreate(&award)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		log.Printf("[BADGE] %q awarded to %s", badgeName, externalUserID)
		return true, nil
	}
	return false, nil
}

// EvaluateComplexRulesTx checks the multi-entity badge rules. Called after a
// course completes.
func (s *BadgeService) EvaluateComplexRulesTx(tx *gorm.DB, externalUserID string) error {
	// Course Collector: three distinct completed courses still in the
	// catalog.
	var completedCourses int64
	if err := tx.Model(&models.CourseProgress{}).
		Joins("JOIN courses ON courses.id = course_progresses.course_id AND courses.deleted_at IS NULL").
		Where("course_progresses.external_user_id = ? AND course_progresses.completed", externalUserID).
		Count(&completedCourses).Error; err != nil {
		return err
	}
	if completedCourses >= 3 {
		if _, err := s.GrantTx(tx, externalUserID, models.BadgeCourseCollector); err != nil {
			return err
		}
	}

	// Basic Tier Master: the set of completed basic-level course IDs must
	// exactly equal the (non-empty) set of catalog basic-level course IDs.
	// Strict equality is intentional: adding a basic course to the catalog
	// revokes future eligibility, though never an already-granted badge.
	var basicIDs []string
	if err := tx.Model(&models.Course{}).
		Where("level = ?", models.CourseLevelBasic).
		Pluck("id", &basicIDs).Error; err != nil {
		return err
	}
	var completedBasicIDs []string
	if err := tx.Model(&models.CourseProgress{}).
		Joins("JOIN courses ON courses.id = course_progresses.course_id AND courses.deleted_at IS NULL").
		Where("course_progresses.external_user_id = ? AND course_progresses.completed AND courses.level = ?",
			externalUserID, models.CourseLevelBasic).
		Pluck("course_progresses.course_id", &completedBasicIDs).Error; err != nil {
		return err
	}

	if len(basicIDs) > 0 && sameIDSet(basicIDs, completedBasicIDs) {
		if _, err := s.GrantTx(tx, externalUserID, models.BadgeBasicTierMaster); err != nil {
			return err
		}
	}
	return nil
}

// ListUserBadges returns the user's awards with badge details preloaded.
func (s *BadgeService) ListUserBadges(externalUserID string) ([]models.UserBadge, error) {
	var awards []models.UserBadge
	err := s.DB.Preload("Badge").
		Where("external_user_id = ?", externalUserID).
		Order("awarded_at ASC").
		Find(&awards).Error
	return awards, err
}

func sameIDSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}
