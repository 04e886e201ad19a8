package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/marlonyi/senas-web/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Point awards per completed entity. Daily login shares the activity value.
const (
	ActivityPoints   = 5
	LessonPoints     = 10
	ModulePoints     = 20
	CoursePoints     = 50
	DailyLoginPoints = 5

	// Consecutive login days required for the Dedication badge.
	DedicationStreakDays = 7
)

// ErrPointsAccountMissing signals a broken invariant: every active user must
// have a points account (provisioned at registration / profile sync). Award
// paths fail hard instead of silently skipping.
var ErrPointsAccountMissing = errors.New("points account missing")

// lockForUpdate serializes read-increment-write sequences on a row per user.
// SQLite (tests) has a single writer and rejects FOR UPDATE, so the clause
// is a postgres-only concern.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

type PointsService struct {
	DB     *gorm.DB
	badges *BadgeService

	now func() time.Time // injectable clock for streak tests
}

func NewPointsService(db *gorm.DB, badges *BadgeService) *PointsService {
	return &PointsService{DB: db, badges: badges, now: time.Now}
}

// EnsureAccount creates the per-user points account if absent (idempotent).
// Called from the profile sync worker when a new user shows up.
func (s *PointsService) EnsureAccount(externalUserID string) (*models.PointsAccount, error) {
	var acct models.PointsAccount
	err := s.DB.Where("external_user_id = ?", externalUserID).First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		acct = models.PointsAccount{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
		}
		if err := s.DB.Create(&acct).Error; err != nil {
			return nil, err
		}
		return &acct, nil
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// AddPointsTx adds a fixed award to the user's account inside the caller's
// transaction, holding the row lock through the level/badge recompute so the
// evaluation never acts on a stale total.
func (s *PointsService) AddPointsTx(tx *gorm.DB, externalUserID string, points int, reason string) error {
	var acct models.PointsAccount
	err := lockForUpdate(tx).Where("external_user_id = ?", externalUserID).First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("awarding %q to user %s: %w", reason, externalUserID, ErrPointsAccountMissing)
	}
	if err != nil {
		return err
	}

	acct.Points += points
	if err := tx.Model(&acct).Update("points", acct.Points).Error; err != nil {
		return err
	}
	log.Printf("[GAMIFICATION] +%d points for %s (%s), total=%d", points, externalUserID, reason, acct.Points)

	return s.recomputeTx(tx, &acct)
}

// recomputeTx is the explicit recompute phase run after every points
// mutation: reassign the level when it changed (field-scoped write, so this
// never re-triggers itself) and hand out any newly reachable by_points
// badges.
func (s *PointsService) recomputeTx(tx *gorm.DB, acct *models.PointsAccount) error {
	var lvl models.Level
	err := tx.Where("min_points <= ?", acct.Points).Order("min_points DESC").First(&lvl).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// below every threshold: no level
		if acct.LevelID != nil {
			if err := tx.Model(acct).Update("level_id", nil).Error; err != nil {
				return err
			}
			acct.LevelID = nil
		}
	case err != nil:
		return err
	default:
		if acct.LevelID == nil || *acct.LevelID != lvl.ID {
			if err := tx.Model(acct).Update("level_id", lvl.ID).Error; err != nil {
				return err
			}
			acct.LevelID = &lvl.ID
			log.Printf("[GAMIFICATION] %s reached level %q", acct.ExternalUserID, lvl.Name)
		}
	}

	held := tx.Model(&models.UserBadge{}).
		Select("badge_id").
		Where("external_user_id = ?", acct.ExternalUserID)

	var reachable []models.Badge
	if err := tx.
		Where("kind = ? AND required_points <= ?", models.BadgeByPoints, acct.Points).
		Where("id NOT IN (?)", held).
		Find(&reachable).Error; err != nil {
		return err
	}
	for i := range reachable {
		if _, err := s.badges.GrantTx(tx, acct.ExternalUserID, reachable[i].Name); err != nil {
			return err
		}
	}
	return nil
}

// GrantDailyReward applies the once-per-calendar-day login reward and keeps
// the consecutive-day streak. Re-invocations on the same day are no-ops.
func (s *PointsService) GrantDailyReward(externalUserID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		// get-or-create first so brand-new users still get their day-one
		// reward, then re-fetch under the row lock.
		acct := models.PointsAccount{ExternalUserID: externalUserID}
		if err := tx.Where("external_user_id = ?", externalUserID).
			Attrs(models.PointsAccount{ID: uuid.NewString()}).
			FirstOrCreate(&acct).Error; err != nil {
			return err
		}
		if err := lockForUpdate(tx).Where("external_user_id = ?", externalUserID).First(&acct).Error; err != nil {
			return err
		}

		today := localDate(s.now())
		if acct.LastDailyRewardAt != nil && !acct.LastDailyRewardAt.Before(today) {
			return nil // already rewarded today
		}

		acct.Points += DailyLoginPoints
		yesterday := today.AddDate(0, 0, -1)
		if acct.LastDailyRewardAt != nil && acct.LastDailyRewardAt.Equal(yesterday) {
			acct.LoginStreak++
		} else {
			acct.LoginStreak = 1
		}
		acct.LastDailyRewardAt = &today

		if err := tx.Model(&acct).Updates(map[string]interface{}{
			"points":               acct.Points,
			"login_streak":         acct.LoginStreak,
			"last_daily_reward_at": acct.LastDailyRewardAt,
		}).Error; err != nil {
			return err
		}
		log.Printf("[GAMIFICATION] daily reward for %s, streak=%d, total=%d",
			externalUserID, acct.LoginStreak, acct.Points)

		if err := s.recomputeTx(tx, &acct); err != nil {
			return err
		}

		if acct.LoginStreak >= DedicationStreakDays {
			if _, err := s.badges.GrantTx(tx, externalUserID, models.BadgeDedication); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetAccount returns the account with its level preloaded.
func (s *PointsService) GetAccount(externalUserID string) (*models.PointsAccount, error) {
	var acct models.PointsAccount
	if err := s.DB.Preload("Level").Where("external_user_id = ?", externalUserID).First(&acct).Error; err != nil {
		return nil, err
	}
	return &acct, nil
}

// localDate truncates t to midnight in its location.
func localDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
