package services

import (
	"fmt"
	"testing"

	"github.com/marlonyi/senas-web/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory database, migrates the schema and seeds
// the level/badge catalogs. A single connection keeps sqlite's one-writer
// model from tripping concurrent transactions.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.Course{},
		&models.CourseCategory{},
		&models.CourseModule{},
		&models.Lesson{},
		&models.Activity{},
		&models.ActivityProgress{},
		&models.LessonProgress{},
		&models.ModuleProgress{},
		&models.CourseProgress{},
		&models.Level{},
		&models.PointsAccount{},
		&models.Badge{},
		&models.UserBadge{},
		&models.LeaderboardEntry{},
		&models.Forum{},
		&models.Comment{},
		&models.CommentLike{},
		&models.SignCategory{},
		&models.Sign{},
		&models.User{},
		&models.UserProfile{},
		&models.AccessibilityPreference{},
		&models.LessonAccessibility{},
	))

	for _, lvl := range models.DefaultLevels {
		row := lvl
		row.ID = uuid.NewString()
		require.NoError(t, db.Create(&row).Error)
	}
	for _, b := range models.DefaultBadges {
		row := b
		row.ID = uuid.NewString()
		require.NoError(t, db.Create(&row).Error)
	}
	return db
}

// newEngine wires the progress/points/badge services against db.
func newEngine(db *gorm.DB) (*ProgressService, *PointsService, *BadgeService) {
	badges := NewBadgeService(db)
	points := NewPointsService(db, badges)
	progress := NewProgressService(db, points, badges)
	return progress, points, badges
}

// courseTree is a seeded course hierarchy. Activities are indexed
// [module][lesson][activity].
type courseTree struct {
	Course     models.Course
	Modules    []models.CourseModule
	Lessons    [][]models.Lesson
	Activities [][][]models.Activity
}

// buildCourse seeds a course with the given shape. Every activity is a
// question_answer whose correct answer is "hola".
func buildCourse(t *testing.T, db *gorm.DB, level string, modules, lessonsPerModule, activitiesPerLesson int) courseTree {
	t.Helper()

	tree := courseTree{
		Course: models.Course{
			ID:     uuid.NewString(),
			Name:   fmt.Sprintf("course-%s", uuid.NewString()[:8]),
			Level:  level,
			Active: true,
		},
	}
	require.NoError(t, db.Create(&tree.Course).Error)

	for m := 0; m < modules; m++ {
		mod := models.CourseModule{
			ID:       uuid.NewString(),
			CourseID: tree.Course.ID,
			Name:     fmt.Sprintf("module-%d", m+1),
			Position: m + 1,
		}
		require.NoError(t, db.Create(&mod).Error)
		tree.Modules = append(tree.Modules, mod)

		var lessons []models.Lesson
		var lessonActivities [][]models.Activity
		for l := 0; l < lessonsPerModule; l++ {
			lesson := models.Lesson{
				ID:       uuid.NewString(),
				ModuleID: mod.ID,
				Title:    fmt.Sprintf("lesson-%d-%d", m+1, l+1),
				Position: l + 1,
			}
			require.NoError(t, db.Create(&lesson).Error)
			lessons = append(lessons, lesson)

			var acts []models.Activity
			for a := 0; a < activitiesPerLesson; a++ {
				act := models.Activity{
					ID:            uuid.NewString(),
					LessonID:      lesson.ID,
					Question:      "How do you sign 'hello'?",
					CorrectAnswer: "hola",
					Kind:          models.ActivityQuestionAnswer,
					Points:        10,
				}
				require.NoError(t, db.Create(&act).Error)
				acts = append(acts, act)
			}
			lessonActivities = append(lessonActivities, acts)
		}
		tree.Lessons = append(tree.Lessons, lessons)
		tree.Activities = append(tree.Activities, lessonActivities)
	}
	return tree
}

// completeCourse answers every activity in the tree correctly.
func completeCourse(t *testing.T, progress *ProgressService, userID string, tree courseTree) {
	t.Helper()
	for _, mod := range tree.Activities {
		for _, lesson := range mod {
			for _, act := range lesson {
				_, err := progress.RecordActivityOutcome(userID, act.ID, "hola")
				require.NoError(t, err)
			}
		}
	}
}

func accountFor(t *testing.T, db *gorm.DB, userID string) models.PointsAccount {
	t.Helper()
	var acct models.PointsAccount
	require.NoError(t, db.Preload("Level").Where("external_user_id = ?", userID).First(&acct).Error)
	return acct
}

func hasBadge(t *testing.T, db *gorm.DB, userID, badgeName string) bool {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.UserBadge{}).
		Joins("JOIN badges ON badges.id = user_badges.badge_id").
		Where("user_badges.external_user_id = ? AND badges.name = ?", userID, badgeName).
		Count(&count).Error)
	return count > 0
}
