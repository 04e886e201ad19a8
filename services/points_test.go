package services

import (
	"sync"
	"testing"
	"time"

	"github.com/marlonyi/senas-web/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func addPoints(t *testing.T, db *gorm.DB, points *PointsService, userID string, n int) {
	t.Helper()
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return points.AddPointsTx(tx, userID, n, "test award")
	}))
}

func TestAddPointsRequiresAccount(t *testing.T) {
	db := newTestDB(t)
	_, points, _ := newEngine(db)

	err := db.Transaction(func(tx *gorm.DB) error {
		return points.AddPointsTx(tx, uuid.NewString(), 5, "test award")
	})
	require.ErrorIs(t, err, ErrPointsAccountMissing)
}

func TestLevelAssignment(t *testing.T) {
	db := newTestDB(t)
	_, points, _ := newEngine(db)
	userID := uuid.NewString()
	_, err := points.EnsureAccount(userID)
	require.NoError(t, err)

	// seeding gives Beginner at 0 points
	addPoints(t, db, points, userID, 10)
	acct := accountFor(t, db, userID)
	require.NotNil(t, acct.Level)
	assert.Equal(t, "Beginner", acct.Level.Name)

	addPoints(t, db, points, userID, 45) // 55
	acct = accountFor(t, db, userID)
	assert.Equal(t, "Apprentice", acct.Level.Name)

	addPoints(t, db, points, userID, 100) // 155
	acct = accountFor(t, db, userID)
	assert.Equal(t, "Intermediate", acct.Level.Name)
}

func TestNoLevelBelowEveryThreshold(t *testing.T) {
	db := newTestDB(t)
	_, points, _ := newEngine(db)
	userID := uuid.NewString()
	_, err := points.EnsureAccount(userID)
	require.NoError(t, err)

	// raise the floor so the account sits below every level
	require.NoError(t, db.Model(&models.Level{}).
		Where("name = ?", "Beginner").Update("min_points", 25).Error)

	addPoints(t, db, points, userID, 10)
	acct := accountFor(t, db, userID)
	assert.Nil(t, acct.LevelID)

	addPoints(t, db, points, userID, 20) // 30, crosses the floor
	acct = accountFor(t, db, userID)
	require.NotNil(t, acct.Level)
	assert.Equal(t, "Beginner", acct.Level.Name)
}

func TestByPointsBadges(t *testing.T) {
	db := newTestDB(t)
	_, points, _ := newEngine(db)
	userID := uuid.NewString()
	_, err := points.EnsureAccount(userID)
	require.NoError(t, err)

	addPoints(t, db, points, userID, 99)
	assert.False(t, hasBadge(t, db, userID, "Point Hunter"))

	addPoints(t, db, points, userID, 1)
	assert.True(t, hasBadge(t, db, userID, "Point Hunter"))
	assert.False(t, hasBadge(t, db, userID, "Point Legend"))

	// crossing again never duplicates the award
	addPoints(t, db, points, userID, 500)
	assert.True(t, hasBadge(t, db, userID, "Point Legend"))

	var count int64
	require.NoError(t, db.Model(&models.UserBadge{}).
		Where("external_user_id = ?", userID).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestConcurrentAwardsLoseNothing(t *testing.T) {
	db := newTestDB(t)
	_, points, _ := newEngine(db)
	userID := uuid.NewString()
	_, err := points.EnsureAccount(userID)
	require.NoError(t, err)

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- db.Transaction(func(tx *gorm.DB) error {
				return points.AddPointsTx(tx, userID, ActivityPoints, "concurrent award")
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	acct := accountFor(t, db, userID)
	assert.Equal(t, workers*ActivityPoints, acct.Points)
}

func TestDailyReward(t *testing.T) {
	db := newTestDB(t)
	_, points, _ := newEngine(db)
	userID := uuid.NewString()

	day := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	points.now = func() time.Time { return day }

	// first login of a brand-new user provisions the account
	require.NoError(t, points.GrantDailyReward(userID))
	acct := accountFor(t, db, userID)
	assert.Equal(t, DailyLoginPoints, acct.Points)
	assert.Equal(t, 1, acct.LoginStreak)

	// same day, later hour: no-op
	points.now = func() time.Time { return day.Add(8 * time.Hour) }
	require.NoError(t, points.GrantDailyReward(userID))
	acct = accountFor(t, db, userID)
	assert.Equal(t, DailyLoginPoints, acct.Points)
	assert.Equal(t, 1, acct.LoginStreak)

	// next day: streak grows
	points.now = func() time.Time { return day.AddDate(0, 0, 1) }
	require.NoError(t, points.GrantDailyReward(userID))
	acct = accountFor(t, db, userID)
	assert.Equal(t, 2*DailyLoginPoints, acct.Points)
	assert.Equal(t, 2, acct.LoginStreak)

	// a missed day resets the streak, not the points
	points.now = func() time.Time { return day.AddDate(0, 0, 4) }
	require.NoError(t, points.GrantDailyReward(userID))
	acct = accountFor(t, db, userID)
	assert.Equal(t, 3*DailyLoginPoints, acct.Points)
	assert.Equal(t, 1, acct.LoginStreak)
}

func TestDedicationBadgeAtSevenDayStreak(t *testing.T) {
	db := newTestDB(t)
	_, points, _ := newEngine(db)
	userID := uuid.NewString()

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < DedicationStreakDays; i++ {
		d := start.AddDate(0, 0, i)
		points.now = func() time.Time { return d }
		require.NoError(t, points.GrantDailyReward(userID))

		if i < DedicationStreakDays-1 {
			assert.False(t, hasBadge(t, db, userID, models.BadgeDedication), "day %d must not unlock Dedication", i+1)
		}
	}

	assert.True(t, hasBadge(t, db, userID, models.BadgeDedication))
	acct := accountFor(t, db, userID)
	assert.Equal(t, DedicationStreakDays, acct.LoginStreak)
	assert.Equal(t, DedicationStreakDays*DailyLoginPoints, acct.Points)
}
