package services

import (
	"testing"

	"github.com/marlonyi/senas-web/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGrantTx(t *testing.T) {
	db := newTestDB(t)
	badges := NewBadgeService(db)
	userID := uuid.NewString()

	t.Run("unknown badge is skipped, not fatal", func(t *testing.T) {
		err := db.Transaction(func(tx *gorm.DB) error {
			created, err := badges.GrantTx(tx, userID, "No Such Badge")
			assert.False(t, created)
			return err
		})
		require.NoError(t, err)
	})

	t.Run("granted once", func(t *testing.T) {
		err := db.Transaction(func(tx *gorm.DB) error {
			created, err := badges.GrantTx(tx, userID, models.BadgeFirstActivity)
			require.NoError(t, err)
			assert.True(t, created)

			created, err = badges.GrantTx(tx, userID, models.BadgeFirstActivity)
			require.NoError(t, err)
			assert.False(t, created)
			return nil
		})
		require.NoError(t, err)

		awards, err := badges.ListUserBadges(userID)
		require.NoError(t, err)
		require.Len(t, awards, 1)
		require.NotNil(t, awards[0].Badge)
		assert.Equal(t, models.BadgeFirstActivity, awards[0].Badge.Name)
	})
}

func markCourseCompleted(t *testing.T, db *gorm.DB, userID, courseID string) {
	t.Helper()
	prog := models.CourseProgress{
		ID:             uuid.NewString(),
		ExternalUserID: userID,
		CourseID:       courseID,
		Completed:      true,
	}
	require.NoError(t, db.Create(&prog).Error)
}

func TestCourseCollectorNeedsThreeCourses(t *testing.T) {
	db := newTestDB(t)
	badges := NewBadgeService(db)
	userID := uuid.NewString()

	evaluate := func() {
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			return badges.EvaluateComplexRulesTx(tx, userID)
		}))
	}

	for i := 0; i < 2; i++ {
		tree := buildCourse(t, db, models.CourseLevelIntermediate, 1, 1, 1)
		markCourseCompleted(t, db, userID, tree.Course.ID)
	}
	evaluate()
	assert.False(t, hasBadge(t, db, userID, models.BadgeCourseCollector))

	tree := buildCourse(t, db, models.CourseLevelAdvanced, 1, 1, 1)
	markCourseCompleted(t, db, userID, tree.Course.ID)
	evaluate()
	assert.True(t, hasBadge(t, db, userID, models.BadgeCourseCollector))
}

func TestBasicTierMaster(t *testing.T) {
	db := newTestDB(t)
	badges := NewBadgeService(db)
	userID := uuid.NewString()

	evaluate := func() {
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			return badges.EvaluateComplexRulesTx(tx, userID)
		}))
	}

	t.Run("no basic courses in the catalog: never granted", func(t *testing.T) {
		evaluate()
		assert.False(t, hasBadge(t, db, userID, models.BadgeBasicTierMaster))
	})

	basic1 := buildCourse(t, db, models.CourseLevelBasic, 1, 1, 1)
	basic2 := buildCourse(t, db, models.CourseLevelBasic, 1, 1, 1)
	buildCourse(t, db, models.CourseLevelAdvanced, 1, 1, 1) // irrelevant to the rule

	t.Run("half the basic tier is not enough", func(t *testing.T) {
		markCourseCompleted(t, db, userID, basic1.Course.ID)
		evaluate()
		assert.False(t, hasBadge(t, db, userID, models.BadgeBasicTierMaster))
	})

	t.Run("whole basic tier grants", func(t *testing.T) {
		markCourseCompleted(t, db, userID, basic2.Course.ID)
		evaluate()
		assert.True(t, hasBadge(t, db, userID, models.BadgeBasicTierMaster))
	})

	t.Run("a new basic course does not revoke the award", func(t *testing.T) {
		buildCourse(t, db, models.CourseLevelBasic, 1, 1, 1)
		evaluate()
		assert.True(t, hasBadge(t, db, userID, models.BadgeBasicTierMaster))
	})
}

// Retired courses leave their progress rows behind; the complex rules must
// compare against the live catalog only.
func TestBasicTierMasterIgnoresRetiredCourses(t *testing.T) {
	db := newTestDB(t)
	badges := NewBadgeService(db)
	userID := uuid.NewString()

	basic1 := buildCourse(t, db, models.CourseLevelBasic, 1, 1, 1)
	basic2 := buildCourse(t, db, models.CourseLevelBasic, 1, 1, 1)
	markCourseCompleted(t, db, userID, basic1.Course.ID)
	markCourseCompleted(t, db, userID, basic2.Course.ID)

	require.NoError(t, db.Delete(&models.Course{}, "id = ?", basic2.Course.ID).Error)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return badges.EvaluateComplexRulesTx(tx, userID)
	}))
	assert.True(t, hasBadge(t, db, userID, models.BadgeBasicTierMaster),
		"completing the entire live basic tier grants even with a retired course's progress row around")
}

func TestCourseCollectorIgnoresRetiredCourses(t *testing.T) {
	db := newTestDB(t)
	badges := NewBadgeService(db)
	userID := uuid.NewString()

	evaluate := func() {
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			return badges.EvaluateComplexRulesTx(tx, userID)
		}))
	}

	var courseIDs []string
	for i := 0; i < 3; i++ {
		tree := buildCourse(t, db, models.CourseLevelIntermediate, 1, 1, 1)
		markCourseCompleted(t, db, userID, tree.Course.ID)
		courseIDs = append(courseIDs, tree.Course.ID)
	}
	require.NoError(t, db.Delete(&models.Course{}, "id = ?", courseIDs[0]).Error)

	evaluate()
	assert.False(t, hasBadge(t, db, userID, models.BadgeCourseCollector),
		"only two live completed courses remain")

	tree := buildCourse(t, db, models.CourseLevelAdvanced, 1, 1, 1)
	markCourseCompleted(t, db, userID, tree.Course.ID)
	evaluate()
	assert.True(t, hasBadge(t, db, userID, models.BadgeCourseCollector))
}
