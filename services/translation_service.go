package services

import (
	"errors"
	"strings"

	"github.com/marlonyi/senas-web/models"
	"github.com/marlonyi/senas-web/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// TranslationService serves the sign-language glossary: categories and
// the signs inside them.
type TranslationService struct {
	DB *gorm.DB
}

func NewTranslationService(db *gorm.DB) *TranslationService {
	return &TranslationService{DB: db}
}

// ===== Sign categories =====

type signCategoryPayload struct {
	Name        string `json:"name" validate:"required,max=120"`
	Slug        string `json:"slug" validate:"omitempty,max=140"`
	Description string `json:"description"`
	Active      *bool  `json:"active"`
}

func (s *TranslationService) CreateSignCategory(c *fiber.Ctx) error {
	var req signCategoryPayload
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "cause": utils.ValidationMessage(err)})
	}

	cat := models.SignCategory{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Active:      true,
	}
	if cat.Slug == "" {
		cat.Slug = slug.Make(req.Name)
	}
	if req.Active != nil {
		cat.Active = *req.Active
	}
	if err := s.DB.Create(&cat).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create category", "cause": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(cat)
}

func (s *TranslationService) GetSignCategories(c *fiber.Ctx) error {
	q := s.DB.Order("name ASC")
	if active := c.Query("active"); active != "" {
		q = q.Where("active = ?", active == "true")
	}
	var cats []models.SignCategory
	if err := q.Find(&cats).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(cats)
}

func (s *TranslationService) UpdateSignCategory(c *fiber.Ctx) error {
	var cat models.SignCategory
	if err := s.DB.First(&cat, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "category not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var req signCategoryPayload
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
	if req.Active != nil {
		cat.Active = *req.Active
	}
	if err := s.DB.Save(&cat).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update category"})
	}
	return c.JSON(cat)
}

func (s *TranslationService) DeleteSignCategory(c *fiber.Ctx) error {
	var cat models.SignCategory
	if err := s.DB.First(&cat, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "category not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	// Signs keep their row but lose the category reference.
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Sign{}).Where("category_id = ?", cat.ID).Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&cat).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete category"})
	}
	return c.JSON(fiber.Map{"message": "category deleted", "id": cat.ID})
}

// ===== Signs =====

type signPayload struct {
	Title      string  `json:"title" validate:"required,max=200"`
	Content    string  `json:"content"`
	CategoryID *string `json:"category_id" validate:"omitempty,uuid"`
	Active     *bool   `json:"active"`
}

func (s *TranslationService) CreateSign(c *fiber.Ctx) error {
	var req signPayload
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "cause": utils.ValidationMessage(err)})
	}
	if req.CategoryID != nil {
		var cat models.SignCategory
		if err := s.DB.First(&cat, "id = ?", *req.CategoryID).Error; err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "category not found"})
		}
	}

	sign := models.Sign{
		ID:         uuid.NewString(),
		Title:      req.Title,
		Content:    req.Content,
		CategoryID: req.CategoryID,
		Active:     true,
	}
	if req.Active != nil {
		sign.Active = *req.Active
	}
	if err := s.DB.Create(&sign).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create sign", "cause": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(sign)
}

func (s *TranslationService) GetSigns(c *fiber.Ctx) error {
	q := s.DB.Preload("Category").Order("title ASC")
	if catID := c.Query("category_id"); catID != "" {
		q = q.Where("category_id = ?", catID)
	}
	if active := c.Query("active"); active != "" {
		q = q.Where("active = ?", active == "true")
	}
	if search := c.Query("search"); search != "" {
		q = q.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(strings.TrimSpace(search))+"%")
	}
	var signs []models.Sign
	if err := q.Find(&signs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(signs)
}

func (s *TranslationService) GetSignByID(c *fiber.Ctx) error {
	var sign models.Sign
	if err := s.DB.Preload("Category").First(&sign, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "sign not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(sign)
}

func (s *TranslationService) UpdateSign(c *fiber.Ctx) error {
	var sign models.Sign
	if err := s.DB.First(&sign, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "sign not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var req signPayload
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "cause": utils.ValidationMessage(err)})
	}
	if req.CategoryID != nil {
		var cat models.SignCategory
		if err := s.DB.First(&cat, "id = ?", *req.CategoryID).Error; err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "category not found"})
		}
	}
	sign.Title = req.Title
	sign.Content = req.Content
	sign.CategoryID = req.CategoryID
	if req.Active != nil {
		sign.Active = *req.Active
	}
	if err := s.DB.Save(&sign).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update sign"})
	}
	return c.JSON(sign)
}

func (s *TranslationService) DeleteSign(c *fiber.Ctx) error {
	var sign models.Sign
	if err := s.DB.First(&sign, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "sign not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if err := s.DB.Delete(&sign).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete sign"})
	}
	return c.JSON(fiber.Map{"message": "sign deleted", "id": sign.ID})
}
