package services

import (
	"testing"
	"time"

	"github.com/marlonyi/senas-web/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDueCourses(t *testing.T) {
	db := newTestDB(t)
	svc := NewCourseService(db)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	due := models.Course{ID: uuid.NewString(), Name: "due", Level: models.CourseLevelBasic, Active: false, PublishAt: &past}
	notYet := models.Course{ID: uuid.NewString(), Name: "not yet", Level: models.CourseLevelBasic, Active: false, PublishAt: &future}
	draft := models.Course{ID: uuid.NewString(), Name: "draft", Level: models.CourseLevelBasic, Active: false}
	require.NoError(t, db.Create(&due).Error)
	require.NoError(t, db.Create(&notYet).Error)
	require.NoError(t, db.Create(&draft).Error)

	svc.publishDueCourses(now)

	var gotDue models.Course
	require.NoError(t, db.First(&gotDue, "id = ?", due.ID).Error)
	assert.True(t, gotDue.Active)
	assert.Nil(t, gotDue.PublishAt, "publish time is cleared on activation")

	var gotNotYet models.Course
	require.NoError(t, db.First(&gotNotYet, "id = ?", notYet.ID).Error)
	assert.False(t, gotNotYet.Active)
	assert.NotNil(t, gotNotYet.PublishAt)

	var gotDraft models.Course
	require.NoError(t, db.First(&gotDraft, "id = ?", draft.ID).Error)
	assert.False(t, gotDraft.Active, "courses without a publish time stay manual")
}

// The full schema must migrate on the test driver; every other test depends
// on this setup succeeding.
func TestSchemaMigrates(t *testing.T) {
	newTestDB(t)
}

// Inactive rows must round-trip as inactive: a DB-side default on the
// active column would silently overwrite a false value on insert.
func TestInactiveCreateStaysInactive(t *testing.T) {
	db := newTestDB(t)

	course := models.Course{ID: uuid.NewString(), Name: "hidden", Level: models.CourseLevelBasic, Active: false}
	require.NoError(t, db.Create(&course).Error)
	var gotCourse models.Course
	require.NoError(t, db.First(&gotCourse, "id = ?", course.ID).Error)
	assert.False(t, gotCourse.Active)

	forum := models.Forum{ID: uuid.NewString(), Title: "closed forum", CreatorUserID: uuid.NewString(), Active: false}
	require.NoError(t, db.Create(&forum).Error)
	var gotForum models.Forum
	require.NoError(t, db.First(&gotForum, "id = ?", forum.ID).Error)
	assert.False(t, gotForum.Active)

	cat := models.SignCategory{ID: uuid.NewString(), Name: "drafts", Slug: "drafts", Active: false}
	require.NoError(t, db.Create(&cat).Error)
	var gotCat models.SignCategory
	require.NoError(t, db.First(&gotCat, "id = ?", cat.ID).Error)
	assert.False(t, gotCat.Active)

	sign := models.Sign{ID: uuid.NewString(), Title: "unpublished sign", Active: false}
	require.NoError(t, db.Create(&sign).Error)
	var gotSign models.Sign
	require.NoError(t, db.First(&gotSign, "id = ?", sign.ID).Error)
	assert.False(t, gotSign.Active)
}
