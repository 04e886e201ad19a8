package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/marlonyi/senas-web/models"
	"github.com/marlonyi/senas-web/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ValidationError rejects malformed activity answers before anything is
// persisted.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// ProgressService owns the completion pipeline. Everything that follows from
// one recorded outcome — cascade up to the course, point awards, level
// reassignment, badge unlocks — runs inside one transaction, in a fixed
// order: activity → lesson → module → course → points → level → badges.
type ProgressService struct {
	DB     *gorm.DB
	points *PointsService
	badges *BadgeService

	now func() time.Time
}

func NewProgressService(db *gorm.DB, points *PointsService, badges *BadgeService) *ProgressService {
	return &ProgressService{DB: db, points: points, badges: badges, now: time.Now}
}

// RecordActivityOutcome grades rawAnswer against the activity and persists
// the attempt. A malformed answer returns *ValidationError with no state
// touched; an incorrect answer still counts the attempt. On the first
// correct answer the whole completion cascade runs before returning.
func (s *ProgressService) RecordActivityOutcome(externalUserID, activityID, rawAnswer string) (*models.ActivityProgress, error) {
	var activity models.Activity
	if err := s.DB.First(&activity, "id = ?", activityID).Error; err != nil {
		return nil, err
	}

	correct, err := gradeAnswer(&activity, rawAnswer)
	if err != nil {
		return nil, err
	}

	var out models.ActivityProgress
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		prog := models.ActivityProgress{ExternalUserID: externalUserID, ActivityID: activityID}
		if err := tx.Where("external_user_id = ? AND activity_id = ?", externalUserID, activityID).
			Attrs(models.ActivityProgress{ID: uuid.NewString()}).
			FirstOrCreate(&prog).Error; err != nil {
			return err
		}

		prog.Attempts++
		updates := map[string]interface{}{"attempts": prog.Attempts}
		if correct {
			prog.Score = activity.Points
			updates["score"] = prog.Score
		}

		freshlyCompleted := false
		if correct && !prog.Completed {
			now := s.now()
			prog.Completed = true
			prog.CompletedAt = &now
			updates["completed"] = true
			updates["completed_at"] = prog.CompletedAt
			freshlyCompleted = true
		}
		if err := tx.Model(&prog).Updates(updates).Error; err != nil {
			return err
		}

		if freshlyCompleted {
			if !prog.PointsAwarded {
				if err := s.points.AddPointsTx(tx, externalUserID, ActivityPoints, "activity completed"); err != nil {
					return err
				}
				if err := tx.Model(&prog).Update("points_awarded", true).Error; err != nil {
					return err
				}
				prog.PointsAwarded = true
				if _, err := s.badges.GrantTx(tx, externalUserID, models.BadgeFirstActivity); err != nil {
					return err
				}
			}
			if err := s.cascadeLessonTx(tx, externalUserID, activity.LessonID); err != nil {
				return err
			}
		}

		out = prog
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// cascadeLessonTx re-derives lesson completion after one of its activities
// completed: the lesson flips exactly when every activity under it is done.
func (s *ProgressService) cascadeLessonTx(tx *gorm.DB, externalUserID, lessonID string) error {
	var total int64
	if err := tx.Model(&models.Activity{}).Where("lesson_id = ?", lessonID).Count(&total).Error; err != nil {
		return err
	}
	if total == 0 {
		return nil // a lesson with no activities never auto-completes
	}
	var done int64
	if err := tx.Model(&models.ActivityProgress{}).
		Joins("JOIN activities ON activities.id = activity_progresses.activity_id AND activities.deleted_at IS NULL").
		Where("activities.lesson_id = ? AND activity_progresses.external_user_id = ? AND activity_progresses.completed",
			lessonID, externalUserID).
		Count(&done).Error; err != nil {
		return err
	}
	if done != total {
		return nil
	}

	prog := models.LessonProgress{ExternalUserID: externalUserID, LessonID: lessonID}
	if err := tx.Where("external_user_id = ? AND lesson_id = ?", externalUserID, lessonID).
		Attrs(models.LessonProgress{ID: uuid.NewString()}).
		FirstOrCreate(&prog).Error; err != nil {
		return err
	}
	if prog.Completed {
		return nil
	}
	if err := s.completeAggregateTx(tx, &prog); err != nil {
		return err
	}
	if !prog.PointsAwarded {
		if err := s.points.AddPointsTx(tx, externalUserID, LessonPoints, "lesson completed"); err != nil {
			return err
		}
		if err := tx.Model(&prog).Update("points_awarded", true).Error; err != nil {
			return err
		}
		if _, err := s.badges.GrantTx(tx, externalUserID, models.BadgeFirstLesson); err != nil {
			return err
		}
	}

	var lesson models.Lesson
	if err := tx.Select("module_id").First(&lesson, "id = ?", lessonID).Error; err != nil {
		return err
	}
	return s.cascadeModuleTx(tx, externalUserID, lesson.ModuleID)
}

func (s *ProgressService) cascadeModuleTx(tx *gorm.DB, externalUserID, moduleID string) error {
	var total int64
	if err := tx.Model(&models.Lesson{}).Where("module_id = ?", moduleID).Count(&total).Error; err != nil {
		return err
	}
	if total == 0 {
		return nil
	}
	var done int64
	if err := tx.Model(&models.LessonProgress{}).
		Joins("JOIN lessons ON lessons.id = lesson_progresses.lesson_id AND lessons.deleted_at IS NULL").
		Where("lessons.module_id = ? AND lesson_progresses.external_user_id = ? AND lesson_progresses.completed",
			moduleID, externalUserID).
		Count(&done).Error; err != nil {
		return err
	}
	if done != total {
		return nil
	}

	prog := models.ModuleProgress{ExternalUserID: externalUserID, ModuleID: moduleID}
	if err := tx.Where("external_user_id = ? AND module_id = ?", externalUserID, moduleID).
		Attrs(models.ModuleProgress{ID: uuid.NewString()}).
		FirstOrCreate(&prog).Error; err != nil {
		return err
	}
	if prog.Completed {
		return nil
	}
	if err := s.completeAggregateTx(tx, &prog); err != nil {
		return err
	}
	if !prog.PointsAwarded {
		if err := s.points.AddPointsTx(tx, externalUserID, ModulePoints, "module completed"); err != nil {
			return err
		}
		if err := tx.Model(&prog).Update("points_awarded", true).Error; err != nil {
			return err
		}
		if _, err := s.badges.GrantTx(tx, externalUserID, models.BadgeFirstModule); err != nil {
			return err
		}
	}

	var module models.CourseModule
	if err := tx.Select("course_id").First(&module, "id = ?", moduleID).Error; err != nil {
		return err
	}
	return s.cascadeCourseTx(tx, externalUserID, module.CourseID)
}

func (s *ProgressService) cascadeCourseTx(tx *gorm.DB, externalUserID, courseID string) error {
	var total int64
	if err := tx.Model(&models.CourseModule{}).Where("course_id = ?", courseID).Count(&total).Error; err != nil {
		return err
	}
	if total == 0 {
		return nil
	}
	var done int64
	if err := tx.Model(&models.ModuleProgress{}).
		Joins("JOIN course_modules ON course_modules.id = module_progresses.module_id AND course_modules.deleted_at IS NULL").
		Where("course_modules.course_id = ? AND module_progresses.external_user_id = ? AND module_progresses.completed",
			courseID, externalUserID).
		Count(&done).Error; err != nil {
		return err
	}
	if done != total {
		return nil
	}

	prog := models.CourseProgress{ExternalUserID: externalUserID, CourseID: courseID}
	if err := tx.Where("external_user_id = ? AND course_id = ?", externalUserID, courseID).
		Attrs(models.CourseProgress{ID: uuid.NewString()}).
		FirstOrCreate(&prog).Error; err != nil {
		return err
	}
	if prog.Completed {
		return nil
	}
	if err := s.completeAggregateTx(tx, &prog); err != nil {
		return err
	}
	if !prog.PointsAwarded {
		if err := s.points.AddPointsTx(tx, externalUserID, CoursePoints, "course completed"); err != nil {
			return err
		}
		if err := tx.Model(&prog).Update("points_awarded", true).Error; err != nil {
			return err
		}
		if _, err := s.badges.GrantTx(tx, externalUserID, models.BadgeFirstCourse); err != nil {
			return err
		}
	}

	return s.badges.EvaluateComplexRulesTx(tx, externalUserID)
}

// completeAggregateTx flips completed + completed_at and nothing else, so a
// concurrent points_awarded write is never clobbered.
func (s *ProgressService) completeAggregateTx(tx *gorm.DB, aggregate interface{}) error {
	now := s.now()
	if err := tx.Model(aggregate).Updates(map[string]interface{}{
		"completed":    true,
		"completed_at": &now,
	}).Error; err != nil {
		return err
	}
	switch p := aggregate.(type) {
	case *models.LessonProgress:
		p.Completed, p.CompletedAt = true, &now
	case *models.ModuleProgress:
		p.Completed, p.CompletedAt = true, &now
	case *models.CourseProgress:
		p.Completed, p.CompletedAt = true, &now
	}
	return nil
}

// gradeAnswer checks rawAnswer against the activity's correct answer.
// Multiple choice expects the numeric index of an option; the other kinds do
// a trimmed, case-insensitive comparison.
func gradeAnswer(a *models.Activity, raw string) (bool, error) {
	answer := strings.TrimSpace(raw)
	if answer == "" {
		return false, &ValidationError{Reason: "answer is required"}
	}
	switch a.Kind {
	case models.ActivityMultipleChoice:
		idx, err := strconv.Atoi(answer)
		if err != nil {
			return false, &ValidationError{Reason: "answer must be the numeric index of an option"}
		}
		if idx < 0 || idx >= len(a.Options) {
			return false, &ValidationError{Reason: fmt.Sprintf("option index %d out of range", idx)}
		}
		return strings.EqualFold(strings.TrimSpace(a.Options[idx]), strings.TrimSpace(a.CorrectAnswer)), nil
	default:
		return strings.EqualFold(answer, strings.TrimSpace(a.CorrectAnswer)), nil
	}
}

// CourseSummary is the per-course progress projection for profile pages.
type CourseSummary struct {
	CourseID            string     `json:"course_id"`
	CourseName          string     `json:"course_name"`
	Completed           bool       `json:"completed"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	TotalActivities     int64      `json:"total_activities"`
	CompletedActivities int64      `json:"completed_activities"`
}

// ListCourseSummaries returns one row per course the user has touched
// (attempted at least one activity in), whether or not it is finished yet.
func (s *ProgressService) ListCourseSummaries(externalUserID string) ([]CourseSummary, error) {
	var touched []models.Course
	if err := s.DB.Model(&models.Course{}).
		Joins("JOIN course_modules ON course_modules.course_id = courses.id AND course_modules.deleted_at IS NULL").
		Joins("JOIN lessons ON lessons.module_id = course_modules.id AND lessons.deleted_at IS NULL").
		Joins("JOIN activities ON activities.lesson_id = lessons.id AND activities.deleted_at IS NULL").
		Joins("JOIN activity_progresses ON activity_progresses.activity_id = activities.id").
		Where("activity_progresses.external_user_id = ?", externalUserID).
		Group("courses.id").
		Find(&touched).Error; err != nil {
		return nil, err
	}

	summaries := make([]CourseSummary, 0, len(touched))
	for i := range touched {
		sum := CourseSummary{CourseID: touched[i].ID, CourseName: touched[i].Name}

		var courseProg models.CourseProgress
		err := s.DB.Where("external_user_id = ? AND course_id = ?", externalUserID, touched[i].ID).
			First(&courseProg).Error
		if err == nil {
			sum.Completed = courseProg.Completed
			sum.CompletedAt = courseProg.CompletedAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		if err := s.DB.Model(&models.Activity{}).
			Joins("JOIN lessons ON lessons.id = activities.lesson_id AND lessons.deleted_at IS NULL").
			Joins("JOIN course_modules ON course_modules.id = lessons.module_id AND course_modules.deleted_at IS NULL").
			Where("course_modules.course_id = ?", touched[i].ID).
			Count(&sum.TotalActivities).Error; err != nil {
			return nil, err
		}
		if err := s.DB.Model(&models.ActivityProgress{}).
			Joins("JOIN activities ON activities.id = activity_progresses.activity_id AND activities.deleted_at IS NULL").
			Joins("JOIN lessons ON lessons.id = activities.lesson_id AND lessons.deleted_at IS NULL").
			Joins("JOIN course_modules ON course_modules.id = lessons.module_id AND course_modules.deleted_at IS NULL").
			Where("course_modules.course_id = ? AND activity_progresses.external_user_id = ? AND activity_progresses.completed",
				touched[i].ID, externalUserID).
			Count(&sum.CompletedActivities).Error; err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	return summaries, nil
}

type attemptPayload struct {
	Answer string `json:"answer" validate:"required"`
}

// SubmitAttempt is the HTTP entry point for recording an activity outcome.
func (s *ProgressService) SubmitAttempt(c *fiber.Ctx) error {
	var req attemptPayload
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "cause": utils.ValidationMessage(err)})
	}

	userID, _ := c.Locals("user_id").(string)
	prog, err := s.RecordActivityOutcome(userID, c.Params("id"), req.Answer)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "invalid answer", "cause": verr.Reason})
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "activity not found"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to record attempt", "cause": err.Error()})
		}
	}
	return c.JSON(prog)
}

// GetMyProgress returns the per-course summaries for the caller.
func (s *ProgressService) GetMyProgress(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	summaries, err := s.ListCourseSummaries(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(summaries)
}

// GetMyCourseProgress returns the summary for one course, whether or not the
// caller has started it.
func (s *ProgressService) GetMyCourseProgress(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	courseID := c.Params("id")

	var course models.Course
	if err := s.DB.First(&course, "id = ?", courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "course not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	summaries, err := s.ListCourseSummaries(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	for i := range summaries {
		if summaries[i].CourseID == courseID {
			return c.JSON(summaries[i])
		}
	}
	return c.JSON(CourseSummary{CourseID: course.ID, CourseName: course.Name})
}
