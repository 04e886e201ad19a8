package services

import (
	"testing"

	"github.com/marlonyi/senas-web/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradeAnswer(t *testing.T) {
	qa := &models.Activity{Kind: models.ActivityQuestionAnswer, CorrectAnswer: "Hola"}
	mc := &models.Activity{
		Kind:          models.ActivityMultipleChoice,
		CorrectAnswer: "gracias",
		Options:       []string{"hola", "gracias", "adios"},
	}

	t.Run("question answer is case and space insensitive", func(t *testing.T) {
		ok, err := gradeAnswer(qa, "  hoLA ")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("question answer wrong", func(t *testing.T) {
		ok, err := gradeAnswer(qa, "adios")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("fill blanks grades like question answer", func(t *testing.T) {
		fb := &models.Activity{Kind: models.ActivityFillBlanks, CorrectAnswer: "buenos dias"}
		ok, err := gradeAnswer(fb, "Buenos Dias")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("empty answer is a validation error", func(t *testing.T) {
		_, err := gradeAnswer(qa, "   ")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("multiple choice by index", func(t *testing.T) {
		ok, err := gradeAnswer(mc, "1")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = gradeAnswer(mc, "0")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("multiple choice non-numeric answer", func(t *testing.T) {
		_, err := gradeAnswer(mc, "gracias")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("multiple choice index out of range", func(t *testing.T) {
		_, err := gradeAnswer(mc, "7")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})
}

func TestRecordActivityOutcome_WrongAnswer(t *testing.T) {
	db := newTestDB(t)
	progress, points, _ := newEngine(db)
	userID := uuid.NewString()
	_, err := points.EnsureAccount(userID)
	require.NoError(t, err)

	tree := buildCourse(t, db, models.CourseLevelBasic, 1, 1, 1)
	act := tree.Activities[0][0][0]

	prog, err := progress.RecordActivityOutcome(userID, act.ID, "wrong")
	require.NoError(t, err)
	assert.Equal(t, 1, prog.Attempts)
	assert.False(t, prog.Completed)
	assert.Zero(t, prog.Score)

	acct := accountFor(t, db, userID)
	assert.Zero(t, acct.Points)
}

func TestRecordActivityOutcome_MalformedAnswerLeavesNoState(t *testing.T) {
	db := newTestDB(t)
	progress, points, _ := newEngine(db)
	userID := uuid.NewString()
	_, err := points.EnsureAccount(userID)
	require.NoError(t, err)

	tree := buildCourse(t, db, models.CourseLevelBasic, 1, 1, 1)
	act := tree.Activities[0][0][0]

	_, err = progress.RecordActivityOutcome(userID, act.ID, "  ")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	var count int64
	require.NoError(t, db.Model(&models.ActivityProgress{}).
		Where("external_user_id = ?", userID).Count(&count).Error)
	assert.Zero(t, count, "a rejected answer must not create a progress row")
}

func TestRecordActivityOutcome_RepeatCorrectIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	progress, points, _ := newEngine(db)
	userID := uuid.NewString()
	_, err := points.EnsureAccount(userID)
	require.NoError(t, err)

	tree := buildCourse(t, db, models.CourseLevelBasic, 1, 1, 2)
	act := tree.Activities[0][0][0]

	first, err := progress.RecordActivityOutcome(userID, act.ID, "hola")
	require.NoError(t, err)
	require.True(t, first.Completed)
	require.NotNil(t, first.CompletedAt)
	firstCompletedAt := *first.CompletedAt

	second, err := progress.RecordActivityOutcome(userID, act.ID, "HOLA")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Attempts)
	assert.True(t, second.Completed)
	require.NotNil(t, second.CompletedAt)
	assert.Equal(t, firstCompletedAt.Unix(), second.CompletedAt.Unix(), "completion timestamp is set once")

	acct := accountFor(t, db, userID)
	assert.Equal(t, ActivityPoints, acct.Points, "activity points are awarded exactly once")
}

func TestCascadeRequiresEveryActivity(t *testing.T) {
	db := newTestDB(t)
	progress, points, _ := newEngine(db)
	userID := uuid.NewString()
	_, err := points.EnsureAccount(userID)
	require.NoError(t, err)

	tree := buildCourse(t, db, models.CourseLevelBasic, 1, 1, 3)

	// two of three: lesson must stay open
	for _, act := range tree.Activities[0][0][:2] {
		_, err := progress.RecordActivityOutcome(userID, act.ID, "hola")
		require.NoError(t, err)
	}
	var lessonCount int64
	require.NoError(t, db.Model(&models.LessonProgress{}).
		Where("external_user_id = ? AND completed", userID).Count(&lessonCount).Error)
	assert.Zero(t, lessonCount)

	// the last one closes lesson, module and course in the same call
	_, err = progress.RecordActivityOutcome(userID, tree.Activities[0][0][2].ID, "hola")
	require.NoError(t, err)

	var lesson models.LessonProgress
	require.NoError(t, db.Where("external_user_id = ? AND lesson_id = ?", userID, tree.Lessons[0][0].ID).First(&lesson).Error)
	assert.True(t, lesson.Completed)
	assert.NotNil(t, lesson.CompletedAt)

	var module models.ModuleProgress
	require.NoError(t, db.Where("external_user_id = ? AND module_id = ?", userID, tree.Modules[0].ID).First(&module).Error)
	assert.True(t, module.Completed)

	var course models.CourseProgress
	require.NoError(t, db.Where("external_user_id = ? AND course_id = ?", userID, tree.Course.ID).First(&course).Error)
	assert.True(t, course.Completed)
}

func TestCascadeStopsAtIncompleteSibling(t *testing.T) {
	db := newTestDB(t)
	progress, points, _ := newEngine(db)
	userID := uuid.NewString()
	_, err := points.EnsureAccount(userID)
	require.NoError(t, err)

	// 2 modules of 1 lesson each: finishing module 1 must not finish the course
	tree := buildCourse(t, db, models.CourseLevelBasic, 2, 1, 1)
	_, err = progress.RecordActivityOutcome(userID, tree.Activities[0][0][0].ID, "hola")
	require.NoError(t, err)

	var module models.ModuleProgress
	require.NoError(t, db.Where("external_user_id = ? AND module_id = ?", userID, tree.Modules[0].ID).First(&module).Error)
	assert.True(t, module.Completed)

	var courseCount int64
	require.NoError(t, db.Model(&models.CourseProgress{}).
		Where("external_user_id = ? AND completed", userID).Count(&courseCount).Error)
	assert.Zero(t, courseCount)
}

func TestEmptyLessonNeverAutoCompletes(t *testing.T) {
	db := newTestDB(t)
	progress, points, _ := newEngine(db)
	userID := uuid.NewString()
	_, err := points.EnsureAccount(userID)
	require.NoError(t, err)

	tree := buildCourse(t, db, models.CourseLevelBasic, 1, 1, 1)
	// a second, empty lesson in the same module
	empty := models.Lesson{
		ID:       uuid.NewString(),
		ModuleID: tree.Modules[0].ID,
		Title:    "empty lesson",
		Position: 2,
	}
	require.NoError(t, db.Create(&empty).Error)

	_, err = progress.RecordActivityOutcome(userID, tree.Activities[0][0][0].ID, "hola")
	require.NoError(t, err)

	// the filled lesson completes, the module does not
	var lesson models.LessonProgress
	require.NoError(t, db.Where("external_user_id = ? AND lesson_id = ?", userID, tree.Lessons[0][0].ID).First(&lesson).Error)
	assert.True(t, lesson.Completed)

	var moduleCount int64
	require.NoError(t, db.Model(&models.ModuleProgress{}).
		Where("external_user_id = ? AND completed", userID).Count(&moduleCount).Error)
	assert.Zero(t, moduleCount)
}

func TestFullCourseAwards(t *testing.T) {
	db := newTestDB(t)
	progress, points, _ := newEngine(db)
	userID := uuid.NewString()
	_, err := points.EnsureAccount(userID)
	require.NoError(t, err)

	tree := buildCourse(t, db, models.CourseLevelIntermediate, 1, 1, 1)
	completeCourse(t, progress, userID, tree)

	// 5 (activity) + 10 (lesson) + 20 (module) + 50 (course)
	acct := accountFor(t, db, userID)
	assert.Equal(t, 85, acct.Points)
	require.NotNil(t, acct.Level)
	assert.Equal(t, "Apprentice", acct.Level.Name)

	assert.True(t, hasBadge(t, db, userID, models.BadgeFirstActivity))
	assert.True(t, hasBadge(t, db, userID, models.BadgeFirstLesson))
	assert.True(t, hasBadge(t, db, userID, models.BadgeFirstModule))
	assert.True(t, hasBadge(t, db, userID, models.BadgeFirstCourse))
}

func TestCourseSummaries(t *testing.T) {
	db := newTestDB(t)
	progress, points, _ := newEngine(db)
	userID := uuid.NewString()
	_, err := points.EnsureAccount(userID)
	require.NoError(t, err)

	started := buildCourse(t, db, models.CourseLevelBasic, 1, 1, 2)
	finished := buildCourse(t, db, models.CourseLevelBasic, 1, 1, 1)
	buildCourse(t, db, models.CourseLevelBasic, 1, 1, 1) // untouched

	_, err = progress.RecordActivityOutcome(userID, started.Activities[0][0][0].ID, "hola")
	require.NoError(t, err)
	completeCourse(t, progress, userID, finished)

	summaries, err := progress.ListCourseSummaries(userID)
	require.NoError(t, err)
	require.Len(t, summaries, 2, "only touched courses appear")

	byID := map[string]CourseSummary{}
	for _, s := range summaries {
		byID[s.CourseID] = s
	}

	s1 := byID[started.Course.ID]
	assert.False(t, s1.Completed)
	assert.Equal(t, int64(2), s1.TotalActivities)
	assert.Equal(t, int64(1), s1.CompletedActivities)

	s2 := byID[finished.Course.ID]
	assert.True(t, s2.Completed)
	assert.NotNil(t, s2.CompletedAt)
	assert.Equal(t, int64(1), s2.TotalActivities)
	assert.Equal(t, int64(1), s2.CompletedActivities)
}
