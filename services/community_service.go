package services

import (
	"errors"

	"github.com/marlonyi/senas-web/models"
	"github.com/marlonyi/senas-web/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CommunityService struct {
	DB *gorm.DB
}

func NewCommunityService(db *gorm.DB) *CommunityService {
	return &CommunityService{DB: db}
}

func currentUserID(c *fiber.Ctx) string {
	if id, ok := c.Locals("user_id").(string); ok {
		return id
	}
	return ""
}

func isAdmin(c *fiber.Ctx) bool {
	roles, _ := c.Locals("user_roles").([]string)
	for _, r := range roles {
		if r == "admin" {
			return true
		}
	}
	return false
}

// ===== Forums =====

type forumPayload struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
	Active      *bool  `json:"active"`
}

func (s *CommunityService) CreateForum(c *fiber.Ctx) error {
	var req forumPayload
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "cause": utils.ValidationMessage(err)})
	}

	forum := models.Forum{
		ID:            uuid.NewString(),
		Title:         req.Title,
		Description:   req.Description,
		CreatorUserID: currentUserID(c),
		Active:        true,
	}
	if req.Active != nil {
		forum.Active = *req.Active
	}
	if err := s.DB.Create(&forum).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create forum", "cause": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(forum)
}

func (s *CommunityService) GetForums(c *fiber.Ctx) error {
	q := s.DB.Order("created_at DESC")
	if active := c.Query("active"); active != "" {
		q = q.Where("active = ?", active == "true")
	}
	var forums []models.Forum
	if err := q.Find(&forums).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(forums)
}

func (s *CommunityService) GetForumByID(c *fiber.Ctx) error {
	var forum models.Forum
	if err := s.DB.First(&forum, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "forum not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(forum)
}

func (s *CommunityService) UpdateForum(c *fiber.Ctx) error {
	var forum models.Forum
	if err := s.DB.First(&forum, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "forum not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if forum.CreatorUserID != currentUserID(c) && !isAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "only the creator can edit this forum"})
	}

	var req forumPayload
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "cause": utils.ValidationMessage(err)})
	}
	forum.Title = req.Title
	forum.Description = req.Description
	if req.Active != nil {
		forum.Active = *req.Active
	}
	if err := s.DB.Save(&forum).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update forum"})
	}
	return c.JSON(forum)
}

func (s *CommunityService) DeleteForum(c *fiber.Ctx) error {
	var forum models.Forum
	if err := s.DB.First(&forum, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "forum not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if forum.CreatorUserID != currentUserID(c) && !isAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "only the creator can delete this forum"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("forum_id = ?", forum.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&forum).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete forum"})
	}
	return c.JSON(fiber.Map{"message": "forum deleted", "id": forum.ID})
}

// ===== Comments =====

type commentPayload struct {
	Body            string  `json:"body" validate:"required"`
	ParentCommentID *string `json:"parent_comment_id" validate:"omitempty,uuid"`
}

func (s *CommunityService) CreateComment(c *fiber.Ctx) error {
	forumID := c.Params("id")
	var forum models.Forum
	if err := s.DB.First(&forum, "id = ?", forumID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "forum not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if !forum.Active {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "forum is closed"})
	}

	var req commentPayload
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "cause": utils.ValidationMessage(err)})
	}
	if req.ParentCommentID != nil {
		var parent models.Comment
		if err := s.DB.First(&parent, "id = ? AND forum_id = ?", *req.ParentCommentID, forumID).Error; err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "parent comment not found in this forum"})
		}
	}

	comment := models.Comment{
		ID:              uuid.NewString(),
		ForumID:         forumID,
		AuthorUserID:    currentUserID(c),
		Body:            req.Body,
		ParentCommentID: req.ParentCommentID,
	}
	if err := s.DB.Create(&comment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create comment", "cause": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

func (s *CommunityService) GetComments(c *fiber.Ctx) error {
	var comments []models.Comment
	if err := s.DB.Preload("Replies").
		Where("forum_id = ? AND parent_comment_id IS NULL", c.Params("id")).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(comments)
}

func (s *CommunityService) UpdateComment(c *fiber.Ctx) error {
	var comment models.Comment
	if err := s.DB.First(&comment, "id = ?", c.Params("comment_id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "comment not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if comment.AuthorUserID != currentUserID(c) && !isAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "only the author can edit this comment"})
	}

	var req commentPayload
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "cause": utils.ValidationMessage(err)})
	}
	comment.Body = req.Body
	if err := s.DB.Save(&comment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update comment"})
	}
	return c.JSON(comment)
}

func (s *CommunityService) DeleteComment(c *fiber.Ctx) error {
	var comment models.Comment
	if err := s.DB.First(&comment, "id = ?", c.Params("comment_id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "comment not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if comment.AuthorUserID != currentUserID(c) && !isAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "only the author can delete this comment"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("parent_comment_id = ?", comment.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("comment_id = ?", comment.ID).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		return tx.Delete(&comment).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete comment"})
	}
	return c.JSON(fiber.Map{"message": "comment deleted", "id": comment.ID})
}

// LikeComment is idempotent: liking twice keeps a single like.
func (s *CommunityService) LikeComment(c *fiber.Ctx) error {
	commentID := c.Params("comment_id")
	userID := currentUserID(c)

	var comment models.Comment
	if err := s.DB.First(&comment, "id = ?", commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "comment not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	like := models.CommentLike{CommentID: commentID, ExternalUserID: userID}
	res := s.DB.Where("comment_id = ? AND external_user_id = ?", commentID, userID).
		Attrs(models.CommentLike{ID: uuid.NewString()}).
		FirstOrCreate(&like)
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to like comment"})
	}
	return c.JSON(fiber.Map{"liked": true, "created": res.RowsAffected > 0})
}

func (s *CommunityService) UnlikeComment(c *fiber.Ctx) error {
	// hard delete: the unique (comment,user) index must be free for a re-like
	if err := s.DB.Unscoped().
		Where("comment_id = ? AND external_user_id = ?", c.Params("comment_id"), currentUserID(c)).
		Delete(&models.CommentLike{}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to unlike comment"})
	}
	return c.JSON(fiber.Map{"liked": false})
}
