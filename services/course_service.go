package services

import (
	"errors"
	"strings"
	"time"

	"github.com/marlonyi/senas-web/models"
	"github.com/marlonyi/senas-web/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type CourseService struct {
	DB *gorm.DB
}

func NewCourseService(db *gorm.DB) *CourseService {
	return &CourseService{DB: db}
}

type coursePayload struct {
	Name        string     `json:"name" validate:"required,max=255"`
	Description string     `json:"description"`
	Level       string     `json:"level" validate:"required,oneof=basic intermediate advanced"`
	ImageURL    string     `json:"image_url" validate:"omitempty,url"`
	Active      *bool      `json:"active"`
	PublishAt   *time.Time `json:"publish_at"`
	CategoryIDs []string   `json:"category_ids" validate:"dive,uuid"`
}

// CreateCourse registers a catalog course. Courses with a future PublishAt
// start inactive and are flipped by the publish scheduler.
func (s *CourseService) CreateCourse(c *fiber.Ctx) error {
	var req coursePayload
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "cause": utils.ValidationMessage(err)})
	}

	course := models.Course{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Level:       req.Level,
		ImageURL:    req.ImageURL,
		Active:      true,
		PublishAt:   req.PublishAt,
	}
	if req.Active != nil {
		course.Active = *req.Active
	}
	if req.PublishAt != nil && req.PublishAt.After(time.Now()) {
		course.Active = false
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&course).Error; err != nil {
			return err
		}
		if len(req.CategoryIDs) > 0 {
			var cats []models.CourseCategory
			if err := tx.Where("id IN ?", req.CategoryIDs).Find(&cats).Error; err != nil {
				return err
			}
			if err := tx.Model(&course).Association("Categories").Replace(cats); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create course", "cause": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(course)
}

// GetAllCourses lists the catalog, filterable by level, active and name.
func (s *CourseService) GetAllCourses(c *fiber.Ctx) error {
	q := s.DB.Preload("Categories").Order("created_at DESC")
	if level := c.Query("level"); level != "" {
		q = q.Where("level = ?", level)
	}
	if active := c.Query("active"); active != "" {
		q = q.Where("active = ?", active == "true")
	}
	if name := c.Query("name"); name != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(strings.TrimSpace(name))+"%")
	}

	var courses []models.Course
	if err := q.Find(&courses).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error", "cause": err.Error()})
	}
	return c.JSON(courses)
}

func (s *CourseService) GetCourseByID(c *fiber.Ctx) error {
	var course models.Course
	if err := s.DB.Preload("Categories").First(&course, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "course not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(course)
}

func (s *CourseService) UpdateCourse(c *fiber.Ctx) error {
	var course models.Course
	if err := s.DB.First(&course, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "course not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var req coursePayload
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "cause": utils.ValidationMessage(err)})
	}

	course.Name = req.Name
	course.Description = req.Description
	course.Level = req.Level
	course.ImageURL = req.ImageURL
	course.PublishAt = req.PublishAt
	if req.Active != nil {
		course.Active = *req.Active
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&course).Error; err != nil {
			return err
		}
		if req.CategoryIDs != nil {
			var cats []models.CourseCategory
			if err := tx.Where("id IN ?", req.CategoryIDs).Find(&cats).Error; err != nil {
				return err
			}
			if err := tx.Model(&course).Association("Categories").Replace(cats); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "update transaction failed"})
	}
	return c.JSON(course)
}

// DeleteCourse soft-deletes a course. Progress rows are kept: they carry
// earned points history.
func (s *CourseService) DeleteCourse(c *fiber.Ctx) error {
	id := c.Params("id")
	var course models.Course
	if err := s.DB.First(&course, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "course not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if err := s.DB.Delete(&course).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete course"})
	}
	return c.JSON(fiber.Map{"message": "course deleted", "id": id})
}

// ===== Categories =====

type categoryPayload struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
	Slug        string `json:"slug" validate:"omitempty,max=100"`
}

func (s *CourseService) CreateCategory(c *fiber.Ctx) error {
	var req categoryPayload
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "cause": utils.ValidationMessage(err)})
	}

	cat := models.CourseCategory{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Slug:        req.Slug,
	}
	if cat.Slug == "" {
		cat.Slug = slug.Make(cat.Name)
	}
	if err := s.DB.Create(&cat).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create category", "cause": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(cat)
}

func (s *CourseService) GetAllCategories(c *fiber.Ctx) error {
	var cats []models.CourseCategory
	if err := s.DB.Order("name ASC").Find(&cats).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(cats)
}

func (s *CourseService) UpdateCategory(c *fiber.Ctx) error {
	var cat models.CourseCategory
	if err := s.DB.First(&cat, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "category not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	var req categoryPayload
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "cause": utils.ValidationMessage(err)})
	}
	cat.Name = req.Name
	cat.Description = req.Description
	if req.Slug != "" {
		cat.Slug = req.Slug
	} else {
		cat.Slug = slug.Make(req.Name)
	}
	if err := s.DB.Save(&cat).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update category"})
	}
	return c.JSON(cat)
}

func (s *CourseService) DeleteCategory(c *fiber.Ctx) error {
	if err := s.DB.Delete(&models.CourseCategory{}, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete category"})
	}
	return c.JSON(fiber.Map{"message": "category deleted", "id": c.Params("id")})
}

// ===== Modules =====

type modulePayload struct {
	CourseID    string `json:"course_id" validate:"required,uuid"`
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
	Position    int    `json:"position" validate:"min=0"`
}

func (s *CourseService) CreateModule(c *fiber.Ctx) error {
	var req modulePayload
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "cause": utils.ValidationMessage(err)})
	}
	if req.Position == 0 {
		req.Position = 1
	}

	module := models.CourseModule{
		ID:          uuid.NewString(),
		CourseID:    req.CourseID,
		Name:        req.Name,
		Description: req.Description,
		Position:    req.Position,
	}
	if err := s.DB.Create(&module).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create module", "cause": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(module)
}

func (s *CourseService) GetModules(c *fiber.Ctx) error {
	q := s.DB.Order("position ASC")
	if courseID := c.Query("course_id"); courseID != "" {
		q = q.Where("course_id = ?", courseID)
	}
	var modules []models.CourseModule
	if err := q.Find(&modules).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(modules)
}

func (s *CourseService) UpdateModule(c *fiber.Ctx) error {
	var module models.CourseModule
	if err := s.DB.First(&module, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "module not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	var req modulePayload
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "cause": utils.ValidationMessage(err)})
	}
	module.CourseID = req.CourseID
	module.Name = req.Name
	module.Description = req.Description
	if req.Position > 0 {
		module.Position = req.Position
	}
	if err := s.DB.Save(&module).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update module"})
	}
	return c.JSON(module)
}

func (s *CourseService) DeleteModule(c *fiber.Ctx) error {
	if err := s.DB.Delete(&models.CourseModule{}, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete module"})
	}
	return c.JSON(fiber.Map{"message": "module deleted", "id": c.Params("id")})
}

// ===== Lessons =====

type lessonPayload struct {
	ModuleID    string `json:"module_id" validate:"required,uuid"`
	Title       string `json:"title" validate:"required,max=255"`
	TextContent string `json:"text_content"`
	VideoURL    string `json:"video_url" validate:"omitempty,url"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
	Position    int    `json:"position" validate:"min=0"`
}

func (s *CourseService) CreateLesson(c *fiber.Ctx) error {
	var req lessonPayload
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "cause": utils.ValidationMessage(err)})
	}
	if req.Position == 0 {
		req.Position = 1
	}

	lesson := models.Lesson{
		ID:          uuid.NewString(),
		ModuleID:    req.ModuleID,
		Title:       req.Title,
		TextContent: req.TextContent,
		VideoURL:    req.VideoURL,
		ImageURL:    req.ImageURL,
		Position:    req.Position,
	}
	if err := s.DB.Create(&lesson).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create lesson", "cause": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(lesson)
}

func (s *CourseService) GetLessons(c *fiber.Ctx) error {
	q := s.DB.Order("position ASC")
	if moduleID := c.Query("module_id"); moduleID != "" {
		q = q.Where("module_id = ?", moduleID)
	}
	var lessons []models.Lesson
	if err := q.Find(&lessons).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(lessons)
}

func (s *CourseService) UpdateLesson(c *fiber.Ctx) error {
	var lesson models.Lesson
	if err := s.DB.First(&lesson, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "lesson not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	var req lessonPayload
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "cause": utils.ValidationMessage(err)})
	}
	lesson.ModuleID = req.ModuleID
	lesson.Title = req.Title
	lesson.TextContent = req.TextContent
	lesson.VideoURL = req.VideoURL
	lesson.ImageURL = req.ImageURL
	if req.Position > 0 {
		lesson.Position = req.Position
	}
	if err := s.DB.Save(&lesson).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update lesson"})
	}
	return c.JSON(lesson)
}

func (s *CourseService) DeleteLesson(c *fiber.Ctx) error {
	if err := s.DB.Delete(&models.Lesson{}, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete lesson"})
	}
	return c.JSON(fiber.Map{"message": "lesson deleted", "id": c.Params("id")})
}

// ===== Activities =====

type activityPayload struct {
	LessonID      string   `json:"lesson_id" validate:"required,uuid"`
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer" validate:"required"`
	Points        int      `json:"points" validate:"min=0"`
	Kind          string   `json:"kind" validate:"omitempty,oneof=question_answer multiple_choice fill_blanks"`
}

func (s *CourseService) CreateActivity(c *fiber.Ctx) error {
	var req activityPayload
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "cause": utils.ValidationMessage(err)})
	}
	kind := models.ActivityKind(req.Kind)
	if kind == "" {
		kind = models.ActivityQuestionAnswer
	}
	if kind == models.ActivityMultipleChoice && len(req.Options) < 2 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "multiple_choice requires at least two options"})
	}

	activity := models.Activity{
		ID:            uuid.NewString(),
		LessonID:      req.LessonID,
		Question:      req.Question,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Points:        req.Points,
		Kind:          kind,
	}
	if activity.Points == 0 {
		activity.Points = 10
	}
	if err := s.DB.Create(&activity).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create activity", "cause": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(activity)
}

func (s *CourseService) GetActivities(c *fiber.Ctx) error {
	q := s.DB.Order("created_at ASC")
	if lessonID := c.Query("lesson_id"); lessonID != "" {
		q = q.Where("lesson_id = ?", lessonID)
	}
	var activities []models.Activity
	if err := q.Find(&activities).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(activities)
}

func (s *CourseService) UpdateActivity(c *fiber.Ctx) error {
	var activity models.Activity
	if err := s.DB.First(&activity, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "activity not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	var req activityPayload
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "cause": utils.ValidationMessage(err)})
	}
	activity.LessonID = req.LessonID
	activity.Question = req.Question
	activity.Options = req.Options
	activity.CorrectAnswer = req.CorrectAnswer
	if req.Points > 0 {
		activity.Points = req.Points
	}
	if req.Kind != "" {
		activity.Kind = models.ActivityKind(req.Kind)
	}
	if err := s.DB.Save(&activity).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update activity"})
	}
	return c.JSON(activity)
}

func (s *CourseService) DeleteActivity(c *fiber.Ctx) error {
	if err := s.DB.Delete(&models.Activity{}, "id = ?", c.Params("id")).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete activity"})
	}
	return c.JSON(fiber.Map{"message": "activity deleted", "id": c.Params("id")})
}
