package services

import (
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/marlonyi/senas-web/models"
	"github.com/marlonyi/senas-web/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GamificationService is the HTTP face of the points/levels/badges engine:
// my-account reads, the daily login event, catalog administration and the
// leaderboard projection.
type GamificationService struct {
	DB     *gorm.DB
	Points *PointsService
	Badges *BadgeService
}

func NewGamificationService(db *gorm.DB, points *PointsService, badges *BadgeService) *GamificationService {
	return &GamificationService{DB: db, Points: points, Badges: badges}
}

// GetMyPoints returns the caller's account, provisioning it on first read.
func (s *GamificationService) GetMyPoints(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if _, err := s.Points.EnsureAccount(userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to provision account", "cause": err.Error()})
	}
	acct, err := s.Points.GetAccount(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(acct)
}

func (s *GamificationService) GetMyBadges(c *fiber.Ctx) error {
	awards, err := s.Badges.ListUserBadges(currentUserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(awards)
}

// RecordLogin applies the once-per-day login reward for the caller.
func (s *GamificationService) RecordLogin(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if err := s.Points.GrantDailyReward(userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to record login", "cause": err.Error()})
	}
	acct, err := s.Points.GetAccount(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(acct)
}

// ===== Leaderboard =====

// GetLeaderboard serves the snapshot projection, top N by position.
func (s *GamificationService) GetLeaderboard(c *fiber.Ctx) error {
	limit := 20
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	var entries []models.LeaderboardEntry
	if err := s.DB.Order("position ASC").Limit(limit).Find(&entries).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(entries)
}

// RefreshLeaderboard rebuilds the snapshot table from points accounts.
// Called by the snapshot worker on a timer and exposed as an admin endpoint.
func (s *GamificationService) RefreshLeaderboard() error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var accounts []models.PointsAccount
		if err := tx.Preload("Level").
			Order("points DESC, updated_at ASC").
			Limit(100).
			Find(&accounts).Error; err != nil {
			return err
		}

		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&models.LeaderboardEntry{}).Error; err != nil {
			return err
		}

		now := time.Now()
		for i := range accounts {
			entry := models.LeaderboardEntry{
				ID:             uuid.NewString(),
				Position:       i + 1,
				ExternalUserID: accounts[i].ExternalUserID,
				Points:         accounts[i].Points,
				SnapshotAt:     now,
			}
			if accounts[i].Level != nil {
				entry.LevelName = accounts[i].Level.Name
			}
			var user models.User
			if err := tx.Select("username").Where("external_user_id = ?", accounts[i].ExternalUserID).First(&user).Error; err == nil {
				entry.Username = user.Username
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		}
		log.Printf("[LEADERBOARD] snapshot refreshed, %d entries", len(accounts))
		return nil
	})
}

func (s *GamificationService) RefreshLeaderboardNow(c *fiber.Ctx) error {
	if err := s.RefreshLeaderboard(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to refresh leaderboard", "cause": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "leaderboard refreshed"})
}

// ===== Level catalog (admin) =====

type levelPayload struct {
	Name        string `json:"name" validate:"required,max=120"`
	MinPoints   *int   `json:"min_points" validate:"required,min=0"`
	Description string `json:"description"`
}

func (s *GamificationService) GetLevels(c *fiber.Ctx) error {
	var levels []models.Level
	if err := s.DB.Order("min_points ASC").Find(&levels).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(levels)
}

func (s *GamificationService) CreateLevel(c *fiber.Ctx) error {
	var req levelPayload
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "cause": utils.ValidationMessage(err)})
	}

	lvl := models.Level{
		ID:          uuid.NewString(),
		Name:        req.Name,
		MinPoints:   *req.MinPoints,
		Description: req.Description,
	}
	if err := s.DB.Create(&lvl).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create level", "cause": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(lvl)
}

func (s *GamificationService) UpdateLevel(c *fiber.Ctx) error {
	var lvl models.Level
	if err := s.DB.First(&lvl, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "level not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var req levelPayload
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "cause": utils.ValidationMessage(err)})
	}
	lvl.Name = req.Name
	lvl.MinPoints = *req.MinPoints
	lvl.Description = req.Description
	if err := s.DB.Save(&lvl).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update level"})
	}
	return c.JSON(lvl)
}

func (s *GamificationService) DeleteLevel(c *fiber.Ctx) error {
	var lvl models.Level
	if err := s.DB.First(&lvl, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "level not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// accounts sitting on this level fall back to no level until the
		// next recompute
		if err := tx.Model(&models.PointsAccount{}).Where("level_id = ?", lvl.ID).Update("level_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&lvl).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete level"})
	}
	return c.JSON(fiber.Map{"message": "level deleted", "id": lvl.ID})
}

// ===== Badge catalog (admin) =====

type badgePayload struct {
	Name           string `json:"name" validate:"required,max=120"`
	Description    string `json:"description"`
	ImageURL       string `json:"image_url" validate:"omitempty,url"`
	Kind           string `json:"kind" validate:"required,oneof=by_points by_action by_complex_rule"`
	RequiredPoints int    `json:"required_points" validate:"min=0"`
}

func (s *GamificationService) GetBadges(c *fiber.Ctx) error {
	q := s.DB.Order("name ASC")
	if kind := c.Query("kind"); kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var badges []models.Badge
	if err := q.Find(&badges).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(badges)
}

func (s *GamificationService) CreateBadge(c *fiber.Ctx) error {
	var req badgePayload
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "cause": utils.ValidationMessage(err)})
	}
	if req.Kind == string(models.BadgeByPoints) && req.RequiredPoints <= 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "by_points badges need required_points > 0"})
	}

	badge := models.Badge{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Description:    req.Description,
		ImageURL:       req.ImageURL,
		Kind:           models.BadgeKind(req.Kind),
		RequiredPoints: req.RequiredPoints,
	}
	if err := s.DB.Create(&badge).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create badge", "cause": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(badge)
}

func (s *GamificationService) UpdateBadge(c *fiber.Ctx) error {
	var badge models.Badge
	if err := s.DB.First(&badge, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "badge not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	var req badgePayload
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation failed", "cause": utils.ValidationMessage(err)})
	}
	badge.Name = req.Name
	badge.Description = req.Description
	badge.ImageURL = req.ImageURL
	badge.Kind = models.BadgeKind(req.Kind)
	badge.RequiredPoints = req.RequiredPoints
	if err := s.DB.Save(&badge).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update badge"})
	}
	return c.JSON(badge)
}

func (s *GamificationService) DeleteBadge(c *fiber.Ctx) error {
	var badge models.Badge
	if err := s.DB.First(&badge, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "badge not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("badge_id = ?", badge.ID).Delete(&models.UserBadge{}).Error; err != nil {
			return err
		}
		return tx.Delete(&badge).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete badge"})
	}
	return c.JSON(fiber.Map{"message": "badge deleted", "id": badge.ID})
}
